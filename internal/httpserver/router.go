package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/Skotchmaster/todo_list/docs"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	"github.com/Skotchmaster/todo_list/internal/middleware/csrf"
)

type Deps struct {
	Auth  *AuthHTTP
	Users *UserHTTP
	Tasks *TaskHTTP

	Guard          *auth.Middleware
	AllowedOrigins []string
	// AuthRateLimit caps register and login calls per client IP per minute.
	// Zero disables the limit.
	AuthRateLimit int
	// Ready reports whether backing stores answer. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready == nil {
			return c.NoContent(http.StatusOK)
		}
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := d.Ready(ctx); err != nil {
			logging.FromContext(ctx).Warn("not_ready", "error", err)
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"message": "not ready"})
		}
		return c.NoContent(http.StatusOK)
	})

	e.GET("/api-docs", func(c echo.Context) error {
		return c.Redirect(http.StatusMovedPermanently, "/api-docs/index.html")
	})
	e.GET("/api-docs/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	limited := []echo.MiddlewareFunc{}
	if d.AuthRateLimit > 0 {
		limited = append(limited, echo.WrapMiddleware(httprate.Limit(
			d.AuthRateLimit,
			time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"message":"too many requests"}` + "\n"))
			}),
		)))
	}
	sameOrigin := csrf.SameOrigin(csrf.Config{AllowedOrigins: d.AllowedOrigins})
	admin := d.Guard.RequireRole("admin")

	user := api.Group("/user")
	user.POST("/register", d.Auth.Register, limited...)
	user.POST("/login", d.Auth.Login, limited...)
	user.POST("/logout", d.Auth.Logout, sameOrigin)
	user.GET("/refresh", d.Auth.Refresh, sameOrigin)

	user.GET("", d.Users.List, admin)
	user.GET("/", d.Users.List, admin)
	user.GET("/:id", d.Users.Get, admin)
	user.PATCH("/update/:id", d.Users.UpdateRole, admin)
	user.DELETE("/delete/:id", d.Users.Delete, admin)

	todo := api.Group("/todo", d.Guard.RequireAuth)
	todo.GET("/tasks", d.Tasks.List)
	todo.POST("/create", d.Tasks.Create)
	todo.PATCH("/edit/:id", d.Tasks.Edit)
	todo.DELETE("/delete/:id", d.Tasks.Delete)
	todo.GET("/search", d.Tasks.Search)
}
