// Package cache remembers every step of a question so the front end can
// come back to it by id.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AI2HU/askdb/internal/models"
)

// ErrNotFound is returned for ids that are not in the cache
var ErrNotFound = errors.New("cache entry not found")

// Store is a question cache
type Store interface {
	// GenerateID returns a new unique id for question
	GenerateID(question string) string

	// Set stores one field of an entry, creating the entry when needed
	Set(ctx context.Context, id, field string, value any) error

	// Get returns a copy of an entry
	Get(ctx context.Context, id string) (*models.Entry, error)

	// GetAll returns, in insertion order, one map per entry holding the id
	// and the requested fields (nil when unset)
	GetAll(ctx context.Context, fields []string) ([]map[string]any, error)

	Delete(ctx context.Context, id string) error

	// EvictOlderThan removes entries not updated since t
	EvictOlderThan(ctx context.Context, t time.Time) (int, error)

	Close(ctx context.Context) error
}

// setField assigns value to the named field of entry
func setField(entry *models.Entry, field string, value any) error {
	switch field {
	case models.FieldQuestion, models.FieldSQL, models.FieldFigureJSON:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("field %s expects a string, got %T", field, value)
		}
		switch field {
		case models.FieldQuestion:
			entry.Question = &s
		case models.FieldSQL:
			entry.SQL = &s
		default:
			entry.FigureJSON = &s
		}
	case models.FieldDataFrame:
		df, ok := value.(*models.DataFrame)
		if !ok || df == nil {
			return fmt.Errorf("field %s expects a data frame, got %T", field, value)
		}
		entry.DataFrame = df
	case models.FieldFollowupQuestions:
		questions, ok := value.([]string)
		if !ok {
			return fmt.Errorf("field %s expects a list of strings, got %T", field, value)
		}
		if questions == nil {
			questions = []string{}
		}
		entry.FollowupQuestions = questions
	default:
		return fmt.Errorf("unknown cache field: %s", field)
	}
	return nil
}

func project(entry *models.Entry, fields []string) map[string]any {
	item := make(map[string]any, len(fields)+1)
	item["id"] = entry.ID
	for _, f := range fields {
		item[f] = entry.Value(f)
	}
	return item
}

func validateFields(fields []string) error {
	for _, f := range fields {
		if !models.IsCacheField(f) {
			return fmt.Errorf("unknown cache field: %s", f)
		}
	}
	return nil
}
