package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/labstack/echo/v4"
)

// UserHTTP serves the admin-only account routes.
type UserHTTP struct {
	Svc *service.AccountService
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required"`
}

func userLookupError(l *slog.Logger, id string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		l.Warn("user_lookup_failed", "status", 400, "reason", "bad id")
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("This user id - %s is wrong format", id))
	case errors.Is(err, service.ErrUserNotFound):
		l.Warn("user_lookup_failed", "status", 400, "reason", "not found")
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("This user id - %s doesn't exist", id))
	}
	return nil
}

// List godoc
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  userListResponse
// @Failure      403  {object}  messageResponse
// @Failure      500  {object}  messageResponse
// @Router       /user [get]
func (h *UserHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_list")

	users, err := h.Svc.ListUsers(ctx)
	if err != nil {
		return internalError(l, "user_list_error", err)
	}
	return c.JSON(http.StatusOK, userListResponse{Message: "List of users", Users: users})
}

// Get godoc
// @Summary      Get a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  userResponse
// @Failure      400  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /user/{id} [get]
func (h *UserHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_get")
	id := c.Param("id")

	user, err := h.Svc.GetUser(ctx, id)
	if err != nil {
		if he := userLookupError(l, id, err); he != nil {
			return he
		}
		return internalError(l, "user_get_error", err)
	}
	return c.JSON(http.StatusOK, userResponse{Message: "User", User: user})
}

// UpdateRole godoc
// @Summary      Change a user's role
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      updateRoleRequest  true  "New role"
// @Success      200   {object}  messageResponse
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Router       /user/update/{id} [patch]
func (h *UserHTTP) UpdateRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_update")
	id := c.Param("id")

	var req updateRoleRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("user_update_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, l, "user_update_error", "Errors on role update", validationMessages(err))
	}

	user, err := h.Svc.UpdateUserRole(ctx, id, req.Role)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return validationFailed(c, l, "user_update_error", "Errors on role update", verr.Problems)
		}
		if errors.Is(err, service.ErrRoleNotFound) {
			l.Warn("user_update_error", "status", 400, "reason", "unknown role")
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("Role %s doesn't exist", req.Role))
		}
		if he := userLookupError(l, id, err); he != nil {
			return he
		}
		return internalError(l, "user_update_error", err)
	}

	l.Info("user_role_changed", "user_id", user.ID, "role", user.Role)
	return c.JSON(http.StatusOK, messageResponse{
		Message: fmt.Sprintf("User %s changed role to %s", user.Username, user.Role),
	})
}

// Delete godoc
// @Summary      Delete a user
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /user/delete/{id} [delete]
func (h *UserHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user_delete")
	id := c.Param("id")

	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		if he := userLookupError(l, id, err); he != nil {
			return he
		}
		return internalError(l, "user_delete_error", err)
	}

	l.Info("user_deleted", "user_id", id)
	return c.JSON(http.StatusOK, messageResponse{Message: "User deleted!"})
}
