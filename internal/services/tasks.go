package services

import (
	"context"
	"time"

	"task-tracker/backend/internal/models"
)

// TaskStore is the persistence contract the task services depend on.
// *repositories.TaskRepository implements it.
type TaskStore interface {
	Create(ctx context.Context, task *models.Task) error
	Get(ctx context.Context, id int64) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	Update(ctx context.Context, id int64, mutate func(*models.Task) error) (*models.Task, error)
	Delete(ctx context.Context, id int64) error
	Counts(ctx context.Context) (total, completed int64, err error)
}

type TaskService interface {
	CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error)
	GetTaskByID(ctx context.Context, id int64) (*models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

type TaskServiceImpl struct {
	store TaskStore
	now   func() time.Time
}

func NewTaskService(store TaskStore) *TaskServiceImpl {
	return &TaskServiceImpl{store: store, now: Now}
}

// Now is the clock used for task timestamps: UTC at microsecond precision,
// which every supported database stores without loss.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func (s *TaskServiceImpl) CreateTask(ctx context.Context, in models.TaskCreate) (*models.Task, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}

	task := in.NewTask(s.now())
	if err := s.store.Create(ctx, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (s *TaskServiceImpl) GetTaskByID(ctx context.Context, id int64) (*models.Task, error) {
	return s.store.Get(ctx, id)
}

func (s *TaskServiceImpl) ListTasks(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	filter, err := filter.Normalize()
	if err != nil {
		return nil, err
	}
	return s.store.List(ctx, filter)
}

// UpdateTask applies the fields present in patch. updated_at advances even
// when the patch is empty.
func (s *TaskServiceImpl) UpdateTask(ctx context.Context, id int64, patch models.TaskPatch) (*models.Task, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	return s.store.Update(ctx, id, func(task *models.Task) error {
		patch.ApplyTo(task)
		task.UpdatedAt = s.now()
		return nil
	})
}

func (s *TaskServiceImpl) DeleteTask(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}
