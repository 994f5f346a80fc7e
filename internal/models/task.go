package models

import (
	"strings"
	"time"

	"task-tracker/backend/internal/errs"
)

const maxTitleLength = 255

// Task timestamps are assigned by the service, never by gorm's auto time
// tracking, so a created record and its first read back are identical.
type Task struct {
	ID          int64      `json:"id" gorm:"primaryKey;autoIncrement"`
	Title       string     `json:"title" gorm:"size:255;not null"`
	Description *string    `json:"description" gorm:"type:text"`
	IsCompleted bool       `json:"is_completed" gorm:"not null;index"`
	Priority    int        `json:"priority" gorm:"not null;index"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at" gorm:"not null;autoCreateTime:false"`
	UpdatedAt   time.Time  `json:"updated_at" gorm:"not null;autoUpdateTime:false"`
}

type TaskCreate struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	IsCompleted *bool      `json:"is_completed"`
	Priority    *int       `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func (in TaskCreate) Validate() error {
	if in.Title == nil {
		return errs.Validation("title", "field required")
	}
	return validateTitle(*in.Title)
}

// NewTask builds an unsaved task from validated input, filling defaults.
func (in TaskCreate) NewTask(now time.Time) Task {
	task := Task{
		Title:       *in.Title,
		Description: in.Description,
		DueDate:     normalizeDueDate(in.DueDate),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.IsCompleted != nil {
		task.IsCompleted = *in.IsCompleted
	}
	if in.Priority != nil {
		task.Priority = *in.Priority
	}
	return task
}

// TaskPatch carries the fields of a partial update. Keys absent from the
// request body keep the stored value.
type TaskPatch struct {
	Title       Optional[string]    `json:"title"`
	Description Optional[string]    `json:"description"`
	IsCompleted Optional[bool]      `json:"is_completed"`
	Priority    Optional[int]       `json:"priority"`
	DueDate     Optional[time.Time] `json:"due_date"`
}

func (p TaskPatch) Validate() error {
	if p.Title.Set {
		if p.Title.Null {
			return errs.Validation("title", "must not be null")
		}
		if err := validateTitle(p.Title.Value); err != nil {
			return err
		}
	}
	if p.IsCompleted.Set && p.IsCompleted.Null {
		return errs.Validation("is_completed", "must not be null")
	}
	if p.Priority.Set && p.Priority.Null {
		return errs.Validation("priority", "must not be null")
	}
	return nil
}

// ApplyTo merges the present fields into task. It does not touch UpdatedAt.
func (p TaskPatch) ApplyTo(task *Task) {
	if p.Title.Set {
		task.Title = p.Title.Value
	}
	if p.Description.Set {
		task.Description = p.Description.Ptr()
	}
	if p.IsCompleted.Set {
		task.IsCompleted = p.IsCompleted.Value
	}
	if p.Priority.Set {
		task.Priority = p.Priority.Value
	}
	if p.DueDate.Set {
		task.DueDate = normalizeDueDate(p.DueDate.Ptr())
	}
}

func (p TaskPatch) IsEmpty() bool {
	return !p.Title.Set && !p.Description.Set && !p.IsCompleted.Set && !p.Priority.Set && !p.DueDate.Set
}

// normalizeDueDate stores due dates in UTC at microsecond precision, the
// finest resolution every supported database keeps.
func normalizeDueDate(due *time.Time) *time.Time {
	if due == nil {
		return nil
	}
	normalized := due.UTC().Truncate(time.Microsecond)
	return &normalized
}

func validateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return errs.Validation("title", "must not be empty")
	}
	if len(title) > maxTitleLength {
		return errs.Validation("title", "must be at most 255 characters")
	}
	return nil
}
