package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/internal/tokens"
	"github.com/labstack/echo/v4"
)

type AuthHTTP struct {
	Svc          *service.AccountService
	CookieSecure bool
}

type registerRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"min=4,max=72"`
	Role     string `json:"role"     validate:"omitempty,oneof=user admin"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHTTP) setRefreshCookie(c echo.Context, pair tokens.Pair) {
	c.SetCookie(CreateCookie(refreshCookieName, pair.RefreshToken, "/", pair.RefreshExpiresAt, h.CookieSecure))
}

// Register godoc
// @Summary      Register a new user
// @Description  Creates the user and opens a session. The refresh token is also set as the refreshToken cookie.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Credentials and optional role"
// @Success      200   {object}  registerResponse
// @Failure      400   {object}  validationResponse
// @Failure      429   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /user/register [post]
func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_register")

	var req registerRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("register_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, l, "register_error", "Errors on registration", validationMessages(err))
	}

	pair, err := h.Svc.Register(ctx, req.Username, req.Password, req.Role)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return validationFailed(c, l, "register_error", "Errors on registration", verr.Problems)
		case errors.Is(err, service.ErrUserExists):
			l.Warn("register_error", "status", 400, "reason", "user exists")
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("User with username - %s already exist", req.Username))
		default:
			return internalError(l, "register_error", err)
		}
	}

	h.setRefreshCookie(c, pair)
	l.Info("register_successful")
	return c.JSON(http.StatusOK, registerResponse{Message: pair})
}

// Login godoc
// @Summary      Log in
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  tokenResponse
// @Failure      400   {object}  messageResponse
// @Failure      429   {object}  messageResponse
// @Failure      500   {object}  messageResponse
// @Router       /user/login [post]
func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_login")

	var req loginRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("login_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, l, "login_error", "Login failed", validationMessages(err))
	}

	pair, err := h.Svc.Login(ctx, req.Username, req.Password)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return validationFailed(c, l, "login_error", "Login failed", verr.Problems)
		case errors.Is(err, service.ErrUserNotFound):
			l.Warn("login_failed", "status", 400, "reason", "user not found")
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("User with username - %s is not found", req.Username))
		case errors.Is(err, service.ErrInvalidCredentials):
			l.Warn("login_failed", "status", 400, "reason", "wrong password")
			return echo.NewHTTPError(http.StatusBadRequest, "Password is not right")
		default:
			return internalError(l, "login_error", err)
		}
	}

	h.setRefreshCookie(c, pair)
	l.Info("login_successful")
	return c.JSON(http.StatusOK, tokenResponse{Token: pair})
}

// Logout godoc
// @Summary      Log out
// @Description  Drops the session of the refreshToken cookie and clears the cookie.
// @Tags         user
// @Produce      json
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /user/logout [post]
func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_logout")

	if refreshCookie, err := c.Cookie(refreshCookieName); err == nil {
		if err := h.Svc.Logout(ctx, refreshCookie.Value); err != nil {
			return internalError(l, "logout_failed", err)
		}
	}

	c.SetCookie(DeleteCookie(refreshCookieName, "/", h.CookieSecure))
	l.Info("successful_logout")
	return c.JSON(http.StatusOK, messageResponse{Message: "Logged out"})
}

// Refresh godoc
// @Summary      Rotate the refresh token
// @Description  Reads the refreshToken cookie, issues a new pair and replaces the cookie.
// @Tags         user
// @Produce      json
// @Success      200  {object}  tokenResponse
// @Failure      403  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /user/refresh [get]
func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_refresh")

	refreshCookie, err := c.Cookie(refreshCookieName)
	if err != nil || refreshCookie.Value == "" {
		l.Warn("refresh_failed", "status", 403, "reason", "missing refresh cookie")
		return c.JSON(http.StatusForbidden, messageResponse{Message: auth.MsgNotAuthorized})
	}

	pair, err := h.Svc.Refresh(ctx, refreshCookie.Value)
	if err != nil {
		if errors.Is(err, tokens.ErrUnauthorized) {
			l.Warn("refresh_failed", "status", 403, "reason", "refresh token rejected")
			c.SetCookie(DeleteCookie(refreshCookieName, "/", h.CookieSecure))
			return c.JSON(http.StatusForbidden, messageResponse{Message: auth.MsgNotAuthorized})
		}
		return internalError(l, "refresh_error", err)
	}

	h.setRefreshCookie(c, pair)
	return c.JSON(http.StatusOK, tokenResponse{Token: pair})
}
