package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"

	"task-tracker/backend/internal/errs"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// TaskFilter composes the listing query. Nil predicates impose no constraint;
// the rest are ANDed.
type TaskFilter struct {
	Query       *string
	IsCompleted *bool
	MinPriority *int
	Limit       int
	Offset      int
}

// Normalize fills the default limit and rejects out-of-range paging.
func (f TaskFilter) Normalize() (TaskFilter, error) {
	if f.Limit == 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit < 1 || f.Limit > MaxListLimit {
		return f, errs.Validation("limit", fmt.Sprintf("must be between 1 and %d", MaxListLimit))
	}
	if f.Offset < 0 {
		return f, errs.Validation("offset", "must be greater than or equal to 0")
	}
	if f.MinPriority != nil && *f.MinPriority < 0 {
		return f, errs.Validation("min_priority", "must be greater than or equal to 0")
	}
	if f.Query != nil && *f.Query == "" {
		f.Query = nil
	}
	return f, nil
}

// CacheKey is stable for equal filters.
func (f TaskFilter) CacheKey() string {
	desc := "q="
	if f.Query != nil {
		desc += strconv.Quote(*f.Query)
	}
	desc += "|c="
	if f.IsCompleted != nil {
		desc += strconv.FormatBool(*f.IsCompleted)
	}
	desc += "|p="
	if f.MinPriority != nil {
		desc += strconv.Itoa(*f.MinPriority)
	}
	desc += fmt.Sprintf("|l=%d|o=%d", f.Limit, f.Offset)

	sum := sha256.Sum256([]byte(desc))
	return hex.EncodeToString(sum[:16])
}

type StatsSummary struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}
