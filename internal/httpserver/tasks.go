package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Skotchmaster/todo_list/internal/logging"
	"github.com/Skotchmaster/todo_list/internal/middleware/auth"
	"github.com/Skotchmaster/todo_list/internal/service"
	"github.com/Skotchmaster/todo_list/internal/util"
	"github.com/labstack/echo/v4"
)

type TaskHTTP struct {
	Svc *service.TaskService
}

type taskRequest struct {
	Title       string `json:"title"       validate:"required,max=512"`
	IsCompleted bool   `json:"isCompleted"`
}

type taskCaller struct {
	id   string
	name string
}

func caller(c echo.Context) (taskCaller, bool) {
	claims, ok := auth.Claims(c)
	if !ok {
		return taskCaller{}, false
	}
	return taskCaller{id: claims.UserID, name: claims.Username}, true
}

func notAuthorized(c echo.Context) error {
	return c.JSON(http.StatusForbidden, messageResponse{Message: auth.MsgNotAuthorized})
}

func taskLookupError(l *slog.Logger, id string, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidID):
		l.Warn("task_lookup_failed", "status", 400, "reason", "bad id")
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("This task id - %s is wrong format", id))
	case errors.Is(err, service.ErrTaskNotFound):
		l.Warn("task_lookup_failed", "status", 400, "reason", "not found")
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("This task id - %s doesn't exist", id))
	}
	return nil
}

// List godoc
// @Summary      List the caller's tasks
// @Tags         todo
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  taskListResponse
// @Failure      403  {object}  messageResponse
// @Router       /todo/tasks [get]
func (h *TaskHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task_list")
	who, ok := caller(c)
	if !ok {
		return notAuthorized(c)
	}

	tasks, err := h.Svc.List(ctx, who.id)
	if err != nil {
		return internalError(l, "task_list_error", err)
	}
	return c.JSON(http.StatusOK, taskListResponse{Message: fmt.Sprintf("Tasks of %s", who.name), Tasks: tasks})
}

// Create godoc
// @Summary      Create a task
// @Tags         todo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      taskRequest  true  "Task"
// @Success      200   {object}  taskSavedResponse
// @Failure      400   {object}  validationResponse
// @Failure      403   {object}  messageResponse
// @Router       /todo/create [post]
func (h *TaskHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task_create")
	who, ok := caller(c)
	if !ok {
		return notAuthorized(c)
	}

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("task_create_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, l, "task_create_error", "Errors on task", validationMessages(err))
	}

	task, err := h.Svc.Create(ctx, who.id, req.Title, req.IsCompleted)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return validationFailed(c, l, "task_create_error", "Errors on task", verr.Problems)
		}
		return internalError(l, "task_create_error", err)
	}

	l.Info("task_created", "task_id", task.ID)
	return c.JSON(http.StatusOK, taskSavedResponse{Message: "Task added!", SavedTasks: task})
}

// Edit godoc
// @Summary      Edit a task
// @Tags         todo
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Task id"
// @Param        body  body      taskRequest  true  "Task"
// @Success      200   {object}  taskResponse
// @Failure      400   {object}  messageResponse
// @Failure      403   {object}  messageResponse
// @Router       /todo/edit/{id} [patch]
func (h *TaskHTTP) Edit(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task_edit")
	who, ok := caller(c)
	if !ok {
		return notAuthorized(c)
	}
	id := c.Param("id")

	var req taskRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("task_edit_error", "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, l, "task_edit_error", "Errors on task", validationMessages(err))
	}

	task, err := h.Svc.Edit(ctx, who.id, id, req.Title, req.IsCompleted)
	if err != nil {
		var verr *service.ValidationError
		if errors.As(err, &verr) {
			return validationFailed(c, l, "task_edit_error", "Errors on task", verr.Problems)
		}
		if he := taskLookupError(l, id, err); he != nil {
			return he
		}
		return internalError(l, "task_edit_error", err)
	}

	return c.JSON(http.StatusOK, taskResponse{Message: fmt.Sprintf("Task of %s edited", who.name), Task: task})
}

// Delete godoc
// @Summary      Delete a task
// @Tags         todo
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task id"
// @Success      200  {object}  messageResponse
// @Failure      400  {object}  messageResponse
// @Failure      403  {object}  messageResponse
// @Router       /todo/delete/{id} [delete]
func (h *TaskHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task_delete")
	who, ok := caller(c)
	if !ok {
		return notAuthorized(c)
	}
	id := c.Param("id")

	if err := h.Svc.Delete(ctx, who.id, id); err != nil {
		if he := taskLookupError(l, id, err); he != nil {
			return he
		}
		return internalError(l, "task_delete_error", err)
	}

	l.Info("task_deleted", "task_id", id)
	return c.JSON(http.StatusOK, messageResponse{Message: fmt.Sprintf("Task of %s deleted!", who.name)})
}

// Search runs a full-text query over the caller's task titles.
// @Summary      Search the caller's tasks
// @Tags         todo
// @Produce      json
// @Security     BearerAuth
// @Param        q     query     string  true   "Text to match in titles"
// @Param        page  query     int     false  "1-based page"
// @Param        size  query     int     false  "Page size, at most 100"
// @Success      200   {object}  searchResponse
// @Failure      400   {object}  validationResponse
// @Failure      403   {object}  messageResponse
// @Failure      503   {object}  messageResponse
// @Router       /todo/search [get]
func (h *TaskHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "task_search")
	who, ok := caller(c)
	if !ok {
		return notAuthorized(c)
	}

	from, size := util.FromQuery(c.QueryParam("page"), c.QueryParam("size"))
	total, tasks, err := h.Svc.Search(ctx, who.id, c.QueryParam("q"), from, size)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return validationFailed(c, l, "task_search_error", "Errors on search", verr.Problems)
		case errors.Is(err, service.ErrSearchDisabled):
			l.Warn("task_search_error", "status", 503, "reason", "search disabled")
			return echo.NewHTTPError(http.StatusServiceUnavailable, "search is not configured")
		default:
			return internalError(l, "task_search_error", err)
		}
	}
	return c.JSON(http.StatusOK, searchResponse{Total: total, Tasks: tasks})
}
