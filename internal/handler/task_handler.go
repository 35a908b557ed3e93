package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/service"
)

// TaskHandler handles task endpoints. All routes sit behind the access-token
// middleware, so a verified user ID is always available from the context.
type TaskHandler struct {
	taskService service.TaskService
}

// NewTaskHandler creates a new task handler.
func NewTaskHandler(taskService service.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// CreateTaskRequest represents a task creation request.
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description"`
	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTaskRequest represents a partial task update. Raw fields distinguish
// "absent" from "explicitly null" so a PATCH can clear a value.
type UpdateTaskRequest struct {
	Title       *string         `json:"title"`
	Description json.RawMessage `json:"description"`
	Status      *string         `json:"status"`
	Priority    *string         `json:"priority"`
	DueDate     json.RawMessage `json:"dueDate"`
}

// TaskResponse wraps a single task.
type TaskResponse struct {
	Task *model.Task `json:"task"`
}

// TaskListResponse wraps a page of tasks.
type TaskListResponse struct {
	Tasks      []model.Task       `json:"tasks"`
	Pagination service.Pagination `json:"pagination"`
}

// ListTasks godoc
// @Summary List the user's tasks
// @Tags tasks
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param status query string false "Filter by status"
// @Param priority query string false "Filter by priority"
// @Param search query string false "Title search"
// @Param sortBy query string false "Sort field: createdAt, dueDate, priority"
// @Param sortOrder query string false "Sort order: asc, desc"
// @Success 200 {object} TaskListResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [get]
func (h *TaskHandler) ListTasks(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	filter := service.TaskFilter{
		Status:    c.QueryParam("status"),
		Priority:  c.QueryParam("priority"),
		Search:    c.QueryParam("search"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
	filter.Page, _ = strconv.Atoi(c.QueryParam("page"))
	filter.Limit, _ = strconv.Atoi(c.QueryParam("limit"))

	tasks, pagination, err := h.taskService.List(c.Request().Context(), userID, filter)
	if err != nil {
		c.Logger().Errorf("list tasks: %v", err)
		return internalError(c)
	}
	return c.JSON(http.StatusOK, TaskListResponse{Tasks: tasks, Pagination: pagination})
}

// CreateTask godoc
// @Summary Create a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param request body CreateTaskRequest true "Task data"
// @Success 201 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks [post]
func (h *TaskHandler) CreateTask(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	input := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
				Error: "Invalid due date format",
				Code:  "INVALID_DUE_DATE",
			})
		}
		input.DueDate = due
	}

	task, err := h.taskService.Create(c.Request().Context(), userID, input)
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusCreated, TaskResponse{Task: task})
}

// GetTask godoc
// @Summary Get a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id} [get]
func (h *TaskHandler) GetTask(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return taskError(c, apperrors.ErrTaskNotFound)
	}

	task, err := h.taskService.Get(c.Request().Context(), userID, taskID)
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// UpdateTask godoc
// @Summary Update a task
// @Tags tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param request body UpdateTaskRequest true "Fields to update"
// @Success 200 {object} TaskResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id} [patch]
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return taskError(c, apperrors.ErrTaskNotFound)
	}

	var req UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "Invalid request body",
			Code:  "INVALID_BODY",
		})
	}

	input := service.UpdateTaskInput{
		Title:    req.Title,
		Status:   req.Status,
		Priority: req.Priority,
	}
	if req.Description != nil {
		input.HasDesc = true
		if string(req.Description) != "null" {
			var desc string
			if err := json.Unmarshal(req.Description, &desc); err != nil {
				return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
					Error: "Invalid request body",
					Code:  "INVALID_BODY",
				})
			}
			input.Description = &desc
		}
	}
	if req.DueDate != nil {
		input.HasDueDate = true
		if string(req.DueDate) != "null" {
			var raw string
			if err := json.Unmarshal(req.DueDate, &raw); err != nil {
				return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
					Error: "Invalid due date format",
					Code:  "INVALID_DUE_DATE",
				})
			}
			due, err := parseDueDate(raw)
			if err != nil {
				return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
					Error: "Invalid due date format",
					Code:  "INVALID_DUE_DATE",
				})
			}
			input.DueDate = due
		}
	}

	task, err := h.taskService.Update(c.Request().Context(), userID, taskID, input)
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// DeleteTask godoc
// @Summary Delete a task
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return taskError(c, apperrors.ErrTaskNotFound)
	}

	if err := h.taskService.Delete(c.Request().Context(), userID, taskID); err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "Task deleted successfully"})
}

// ToggleTask godoc
// @Summary Advance a task to its next status
// @Tags tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} TaskResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(c echo.Context) error {
	userID, ok := userIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	taskID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return taskError(c, apperrors.ErrTaskNotFound)
	}

	task, err := h.taskService.Toggle(c.Request().Context(), userID, taskID)
	if err != nil {
		return taskError(c, err)
	}
	return c.JSON(http.StatusOK, TaskResponse{Task: task})
}

// userIDFromContext extracts the verified user ID placed in the context by
// the access-token middleware.
func userIDFromContext(c echo.Context) (uuid.UUID, bool) {
	token, ok := c.Get("user").(*jwtv5.Token)
	if !ok {
		return uuid.Nil, false
	}
	claims, ok := token.Claims.(jwtv5.MapClaims)
	if !ok {
		return uuid.Nil, false
	}
	raw, _ := claims["user_id"].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Date-only form from the board's date picker.
		due, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, err
		}
	}
	return &due, nil
}

func taskError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		c.Logger().Errorf("task: %v", err)
	}
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
		Error: "Unauthorized",
		Code:  "UNAUTHORIZED",
	})
}
