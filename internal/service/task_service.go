package service

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

const (
	maxTitleLength   = 200
	defaultPageSize  = 10
	defaultSortField = "createdAt"
)

// sortColumns maps API sort fields to vetted column names.
var sortColumns = map[string]string{
	"createdAt": "created_at",
	"dueDate":   "due_date",
	"priority":  "priority",
}

// TaskFilter describes a task listing request.
type TaskFilter struct {
	Status    string
	Priority  string
	Search    string
	SortBy    string
	SortOrder string
	Page      int
	Limit     int
}

// Pagination describes the page of a task listing response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasMore    bool  `json:"hasMore"`
}

// CreateTaskInput carries fields for creating a task.
type CreateTaskInput struct {
	Title       string
	Description *string
	Status      string
	Priority    string
	DueDate     *time.Time
}

// UpdateTaskInput carries a partial task update; nil fields are untouched.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	HasDesc     bool
	Status      *string
	Priority    *string
	DueDate     *time.Time
	HasDueDate  bool
}

// TaskService exposes task operations scoped to a single user.
type TaskService interface {
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, Pagination, error)
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*model.Task, error)
	Get(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error)
	Update(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*model.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	Toggle(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error)
}

type taskService struct {
	taskRepo repository.TaskRepository
}

// NewTaskService creates a new task service.
func NewTaskService(taskRepo repository.TaskRepository) TaskService {
	return &taskService{taskRepo: taskRepo}
}

// List returns a filtered, sorted page of the user's tasks. Unknown filter
// values are ignored rather than rejected, matching the query-string
// contract.
func (s *taskService) List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]model.Task, Pagination, error) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit < 1 {
		limit = defaultPageSize
	}

	query := repository.TaskQuery{
		UserID:  userID,
		Search:  filter.Search,
		OrderBy: orderClause(filter.SortBy, filter.SortOrder),
		Offset:  (page - 1) * limit,
		Limit:   limit,
	}
	if status := model.TaskStatus(filter.Status); status.Valid() {
		query.Status = status
	}
	if priority := model.TaskPriority(filter.Priority); priority.Valid() {
		query.Priority = priority
	}

	tasks, total, err := s.taskRepo.List(ctx, query)
	if err != nil {
		return nil, Pagination{}, fmt.Errorf("list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []model.Task{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return tasks, Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasMore:    int64(query.Offset+len(tasks)) < total,
	}, nil
}

// Create validates and stores a new task for the user.
func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*model.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if utf8.RuneCountInString(input.Title) > maxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}

	status := model.TaskStatusTodo
	if input.Status != "" {
		status = model.TaskStatus(input.Status)
		if !status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
	}
	priority := model.TaskPriorityMedium
	if input.Priority != "" {
		priority = model.TaskPriority(input.Priority)
		if !priority.Valid() {
			return nil, apperrors.ErrInvalidPriority
		}
	}

	task := &model.Task{
		UserID:      userID,
		Title:       title,
		Description: trimDescription(input.Description),
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
	}
	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// Get returns one of the user's tasks.
func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error) {
	return s.findOwned(ctx, userID, taskID)
}

// Update applies a partial update to one of the user's tasks.
func (s *taskService) Update(ctx context.Context, userID, taskID uuid.UUID, input UpdateTaskInput) (*model.Task, error) {
	task, err := s.findOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, apperrors.ErrTitleEmpty
		}
		if utf8.RuneCountInString(*input.Title) > maxTitleLength {
			return nil, apperrors.ErrTitleTooLong
		}
		task.Title = title
	}
	if input.Status != nil {
		status := model.TaskStatus(*input.Status)
		if !status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		task.Status = status
	}
	if input.Priority != nil {
		priority := model.TaskPriority(*input.Priority)
		if !priority.Valid() {
			return nil, apperrors.ErrInvalidPriority
		}
		task.Priority = priority
	}
	if input.HasDesc {
		task.Description = trimDescription(input.Description)
	}
	if input.HasDueDate {
		task.DueDate = input.DueDate
	}

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

// Delete removes one of the user's tasks.
func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.findOwned(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if err := s.taskRepo.Delete(ctx, task); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

// Toggle advances the task to the next workflow state.
func (s *taskService) Toggle(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.findOwned(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	task.Status = task.Status.NextStatus()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}
	return task, nil
}

func (s *taskService) findOwned(ctx context.Context, userID, taskID uuid.UUID) (*model.Task, error) {
	task, err := s.taskRepo.FindByID(ctx, taskID, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.ErrTaskNotFound
		}
		return nil, fmt.Errorf("find task: %w", err)
	}
	return task, nil
}

func orderClause(sortBy, sortOrder string) string {
	column, ok := sortColumns[sortBy]
	if !ok {
		column = sortColumns[defaultSortField]
	}
	direction := "desc"
	if sortOrder == "asc" {
		direction = "asc"
	}
	return column + " " + direction
}

func trimDescription(desc *string) *string {
	if desc == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*desc)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
