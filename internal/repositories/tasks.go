package repositories

import (
	"context"
	"errors"
	"strings"

	"task-tracker/backend/internal/errs"
	"task-tracker/backend/internal/models"

	"gorm.io/gorm"
)

// TaskRepository owns task rows. Each write runs in its own transaction and
// either commits fully or leaves no trace.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(task).Error
	})
}

func (r *TaskRepository) Get(ctx context.Context, id int64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).First(&task, id).Error; err != nil {
		return nil, translateTaskError(err)
	}
	return &task, nil
}

// List applies the filter predicates in order of id.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, error) {
	query := r.db.WithContext(ctx).Model(&models.Task{})

	if filter.Query != nil && *filter.Query != "" {
		pattern := "%" + escapeLike(strings.ToLower(*filter.Query)) + "%"
		query = query.Where("LOWER(title) LIKE ? ESCAPE '\\'", pattern)
	}
	if filter.IsCompleted != nil {
		query = query.Where("is_completed = ?", *filter.IsCompleted)
	}
	if filter.MinPriority != nil {
		query = query.Where("priority >= ?", *filter.MinPriority)
	}

	tasks := make([]models.Task, 0)
	err := query.Order("id ASC").Limit(filter.Limit).Offset(filter.Offset).Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// Update loads the task, hands it to mutate and saves the result, all in one
// transaction. An error from mutate rolls back without writing.
func (r *TaskRepository) Update(ctx context.Context, id int64, mutate func(*models.Task) error) (*models.Task, error) {
	var task models.Task
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&task, id).Error; err != nil {
			return translateTaskError(err)
		}
		if err := mutate(&task); err != nil {
			return err
		}
		return tx.Save(&task).Error
	})
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.Task{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return errs.ErrTaskNotFound
		}
		return nil
	})
}

// Counts reads both totals in one statement so they come from a single
// snapshot under any isolation level.
func (r *TaskRepository) Counts(ctx context.Context) (total, completed int64, err error) {
	var row struct {
		Total     int64
		Completed int64
	}
	err = r.db.WithContext(ctx).
		Model(&models.Task{}).
		Select("COUNT(*) AS total, COALESCE(SUM(CASE WHEN is_completed THEN 1 ELSE 0 END), 0) AS completed").
		Scan(&row).Error
	return row.Total, row.Completed, err
}

func translateTaskError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.ErrTaskNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
