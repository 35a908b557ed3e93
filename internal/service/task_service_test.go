package service

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	apperrors "taskboard/internal/errors"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

// MockTaskRepository is a mock implementation of TaskRepository.
type MockTaskRepository struct {
	mock.Mock
}

func (m *MockTaskRepository) Create(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Update(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) Delete(ctx context.Context, task *model.Task) error {
	args := m.Called(ctx, task)
	return args.Error(0)
}

func (m *MockTaskRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Task), args.Error(1)
}

func (m *MockTaskRepository) List(ctx context.Context, q repository.TaskQuery) ([]model.Task, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]model.Task), args.Get(1).(int64), args.Error(2)
}

func TestTaskService_CreateValidation(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name          string
		input         CreateTaskInput
		expectedError error
	}{
		{name: "empty title", input: CreateTaskInput{Title: ""}, expectedError: apperrors.ErrTitleRequired},
		{name: "blank title", input: CreateTaskInput{Title: "   "}, expectedError: apperrors.ErrTitleRequired},
		{name: "title too long", input: CreateTaskInput{Title: strings.Repeat("x", 201)}, expectedError: apperrors.ErrTitleTooLong},
		{name: "multibyte title too long", input: CreateTaskInput{Title: strings.Repeat("題", 201)}, expectedError: apperrors.ErrTitleTooLong},
		{name: "bad status", input: CreateTaskInput{Title: "ok", Status: "DONE"}, expectedError: apperrors.ErrInvalidStatus},
		{name: "bad priority", input: CreateTaskInput{Title: "ok", Priority: "urgent"}, expectedError: apperrors.ErrInvalidPriority},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			svc := NewTaskService(mockRepo)

			task, err := svc.Create(context.Background(), userID, tt.input)
			assert.Equal(t, tt.expectedError, err)
			assert.Nil(t, task)
			mockRepo.AssertNotCalled(t, "Create")
		})
	}
}

func TestTaskService_CreateDefaults(t *testing.T) {
	userID := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	svc := NewTaskService(mockRepo)
	task, err := svc.Create(context.Background(), userID, CreateTaskInput{Title: "  Write docs  "})

	assert.NoError(t, err)
	assert.Equal(t, "Write docs", task.Title)
	assert.Equal(t, model.TaskStatusTodo, task.Status)
	assert.Equal(t, model.TaskPriorityMedium, task.Priority)
	assert.Equal(t, userID, task.UserID)
	assert.Nil(t, task.Description)
	mockRepo.AssertExpectations(t)
}

// The title limit counts characters, not bytes.
func TestTaskService_CreateMultibyteTitleWithinLimit(t *testing.T) {
	userID := uuid.New()
	title := strings.Repeat("題", 200) // 600 bytes, 200 characters

	mockRepo := new(MockTaskRepository)
	mockRepo.On("Create", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	svc := NewTaskService(mockRepo)
	task, err := svc.Create(context.Background(), userID, CreateTaskInput{Title: title})

	assert.NoError(t, err)
	assert.Equal(t, title, task.Title)
}

func TestTaskService_GetNotFound(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("FindByID", mock.Anything, taskID, userID).Return(nil, gorm.ErrRecordNotFound)

	svc := NewTaskService(mockRepo)
	task, err := svc.Get(context.Background(), userID, taskID)

	assert.Equal(t, apperrors.ErrTaskNotFound, err)
	assert.Nil(t, task)
}

func TestTaskService_UpdatePartial(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	existingDesc := "old description"

	newTitle := "New title"
	newStatus := string(model.TaskStatusInProgress)

	mockRepo := new(MockTaskRepository)
	mockRepo.On("FindByID", mock.Anything, taskID, userID).Return(&model.Task{
		ID:          taskID,
		UserID:      userID,
		Title:       "Old title",
		Description: &existingDesc,
		Status:      model.TaskStatusTodo,
		Priority:    model.TaskPriorityLow,
	}, nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	svc := NewTaskService(mockRepo)
	task, err := svc.Update(context.Background(), userID, taskID, UpdateTaskInput{
		Title:  &newTitle,
		Status: &newStatus,
	})

	assert.NoError(t, err)
	assert.Equal(t, "New title", task.Title)
	assert.Equal(t, model.TaskStatusInProgress, task.Status)
	// Untouched fields survive.
	assert.Equal(t, model.TaskPriorityLow, task.Priority)
	assert.Equal(t, &existingDesc, task.Description)
}

func TestTaskService_UpdateClearsOptionalFields(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	existingDesc := "to be removed"

	mockRepo := new(MockTaskRepository)
	mockRepo.On("FindByID", mock.Anything, taskID, userID).Return(&model.Task{
		ID:          taskID,
		UserID:      userID,
		Title:       "Task",
		Description: &existingDesc,
		Status:      model.TaskStatusTodo,
		Priority:    model.TaskPriorityMedium,
	}, nil)
	mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

	svc := NewTaskService(mockRepo)
	task, err := svc.Update(context.Background(), userID, taskID, UpdateTaskInput{
		HasDesc:    true,
		HasDueDate: true,
	})

	assert.NoError(t, err)
	assert.Nil(t, task.Description)
	assert.Nil(t, task.DueDate)
}

func TestTaskService_UpdateValidation(t *testing.T) {
	userID := uuid.New()
	taskID := uuid.New()
	blank := "  "
	badStatus := "DONE"

	tests := []struct {
		name          string
		input         UpdateTaskInput
		expectedError error
	}{
		{name: "blank title", input: UpdateTaskInput{Title: &blank}, expectedError: apperrors.ErrTitleEmpty},
		{name: "bad status", input: UpdateTaskInput{Status: &badStatus}, expectedError: apperrors.ErrInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockTaskRepository)
			mockRepo.On("FindByID", mock.Anything, taskID, userID).Return(&model.Task{
				ID:     taskID,
				UserID: userID,
				Title:  "Task",
				Status: model.TaskStatusTodo,
			}, nil)

			svc := NewTaskService(mockRepo)
			_, err := svc.Update(context.Background(), userID, taskID, tt.input)
			assert.Equal(t, tt.expectedError, err)
			mockRepo.AssertNotCalled(t, "Update")
		})
	}
}

func TestTaskService_ToggleCycle(t *testing.T) {
	userID := uuid.New()

	transitions := []struct {
		from model.TaskStatus
		to   model.TaskStatus
	}{
		{model.TaskStatusTodo, model.TaskStatusInProgress},
		{model.TaskStatusInProgress, model.TaskStatusCompleted},
		{model.TaskStatusCompleted, model.TaskStatusTodo},
	}

	for _, tr := range transitions {
		t.Run(string(tr.from), func(t *testing.T) {
			taskID := uuid.New()
			mockRepo := new(MockTaskRepository)
			mockRepo.On("FindByID", mock.Anything, taskID, userID).Return(&model.Task{
				ID:     taskID,
				UserID: userID,
				Title:  "Task",
				Status: tr.from,
			}, nil)
			mockRepo.On("Update", mock.Anything, mock.AnythingOfType("*model.Task")).Return(nil)

			svc := NewTaskService(mockRepo)
			task, err := svc.Toggle(context.Background(), userID, taskID)

			assert.NoError(t, err)
			assert.Equal(t, tr.to, task.Status)
		})
	}
}

func TestTaskService_ListQueryShape(t *testing.T) {
	userID := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.TaskQuery) bool {
		return q.UserID == userID &&
			q.Status == model.TaskStatusTodo &&
			q.Priority == model.TaskPriorityHigh &&
			q.Search == "report" &&
			q.OrderBy == "due_date asc" &&
			q.Offset == 20 &&
			q.Limit == 10
	})).Return([]model.Task{{Title: "t"}}, int64(21), nil)

	svc := NewTaskService(mockRepo)
	tasks, pagination, err := svc.List(context.Background(), userID, TaskFilter{
		Status:    "TODO",
		Priority:  "high",
		Search:    "report",
		SortBy:    "dueDate",
		SortOrder: "asc",
		Page:      3,
		Limit:     10,
	})

	assert.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, 3, pagination.Page)
	assert.Equal(t, int64(21), pagination.Total)
	assert.Equal(t, 3, pagination.TotalPages)
	assert.False(t, pagination.HasMore)
	mockRepo.AssertExpectations(t)
}

func TestTaskService_ListDefaults(t *testing.T) {
	userID := uuid.New()

	mockRepo := new(MockTaskRepository)
	mockRepo.On("List", mock.Anything, mock.MatchedBy(func(q repository.TaskQuery) bool {
		// Unknown filter values are dropped; sort falls back to newest first.
		return q.Status == "" && q.Priority == "" &&
			q.OrderBy == "created_at desc" &&
			q.Offset == 0 && q.Limit == 10
	})).Return([]model.Task{}, int64(0), nil)

	svc := NewTaskService(mockRepo)
	tasks, pagination, err := svc.List(context.Background(), userID, TaskFilter{
		Status:   "BOGUS",
		Priority: "BOGUS",
	})

	assert.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.Limit)
	assert.False(t, pagination.HasMore)
}
