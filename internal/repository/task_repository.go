package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"taskboard/internal/model"
)

// TaskQuery describes filtering, sorting and pagination of a task listing.
// Zero-value filter fields are ignored; OrderBy must already be a vetted
// column expression.
type TaskQuery struct {
	UserID   uuid.UUID
	Status   model.TaskStatus
	Priority model.TaskPriority
	Search   string
	OrderBy  string
	Offset   int
	Limit    int
}

// TaskRepository defines task persistence operations. All reads and writes
// are scoped to the owning user.
type TaskRepository interface {
	Create(ctx context.Context, task *model.Task) error
	Update(ctx context.Context, task *model.Task) error
	Delete(ctx context.Context, task *model.Task) error
	FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error)
	List(ctx context.Context, q TaskQuery) (tasks []model.Task, total int64, err error)
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new task repository.
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

// Create creates a new task record.
func (r *taskRepository) Create(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

// Update updates an existing task record.
func (r *taskRepository) Update(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Save(task).Error
}

// Delete removes a task record.
func (r *taskRepository) Delete(ctx context.Context, task *model.Task) error {
	return r.db.WithContext(ctx).Delete(task).Error
}

// FindByID finds a task by ID for the given owner.
func (r *taskRepository) FindByID(ctx context.Context, id, userID uuid.UUID) (*model.Task, error) {
	var task model.Task
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List returns a page of the user's tasks plus the total match count.
func (r *taskRepository) List(ctx context.Context, q TaskQuery) ([]model.Task, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Task{}).Where("user_id = ?", q.UserID)

	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if q.Priority != "" {
		tx = tx.Where("priority = ?", q.Priority)
	}
	if q.Search != "" {
		tx = tx.Where("title LIKE ?", "%"+q.Search+"%")
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var tasks []model.Task
	if err := tx.Order(q.OrderBy).Offset(q.Offset).Limit(q.Limit).Find(&tasks).Error; err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}
