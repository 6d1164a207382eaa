package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/labstack/echo/v4"
)

const msgInternal = "internal server error"

// ErrorHandler answers every unhandled error with a JSON body. Details of
// internal errors stay in the log.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if !errors.As(err, &he) {
		he = echo.NewHTTPError(http.StatusInternalServerError, msgInternal).SetInternal(err)
	}

	var msg any = he.Message
	if he.Code == http.StatusInternalServerError {
		msg = msgInternal
		logging.FromContext(c.Request().Context()).Error("unhandled_error", "status", he.Code, "error", err)
	}

	var werr error
	if c.Request().Method == http.MethodHead {
		werr = c.NoContent(he.Code)
	} else {
		werr = c.JSON(he.Code, echo.Map{"message": msg})
	}
	if werr != nil {
		logging.FromContext(c.Request().Context()).Error("error_response_failed", "error", werr)
	}
}

func internalError(l *slog.Logger, event string, err error) error {
	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, msgInternal).SetInternal(err)
}

func validationFailed(c echo.Context, l *slog.Logger, event, message string, problems []string) error {
	l.Warn(event, "status", 400, "problems", problems)
	return c.JSON(http.StatusBadRequest, validationResponse{Message: message, Errors: problems})
}
