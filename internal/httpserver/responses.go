package httpserver

import (
	"github.com/Skotchmaster/todo_list/internal/models"
	"github.com/Skotchmaster/todo_list/internal/tokens"
)

type messageResponse struct {
	Message string `json:"message" example:"User not authorized"`
}

type validationResponse struct {
	Message string   `json:"message" example:"Errors on registration"`
	Errors  []string `json:"errors"`
}

type registerResponse struct {
	Message tokens.Pair `json:"message"`
}

type tokenResponse struct {
	Token tokens.Pair `json:"token"`
}

type userListResponse struct {
	Message string        `json:"message" example:"List of users"`
	Users   []models.User `json:"users"`
}

type userResponse struct {
	Message string       `json:"message" example:"User"`
	User    *models.User `json:"user"`
}

type taskListResponse struct {
	Message string        `json:"message" example:"Tasks of alice"`
	Tasks   []models.Task `json:"task"`
}

type taskSavedResponse struct {
	Message    string       `json:"message" example:"Task added!"`
	SavedTasks *models.Task `json:"savedTasks"`
}

type taskResponse struct {
	Message string       `json:"message" example:"Task of alice edited"`
	Task    *models.Task `json:"task"`
}

type searchResponse struct {
	Total int64         `json:"total"`
	Tasks []models.Task `json:"tasks"`
}
