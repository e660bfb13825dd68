package models

import (
	"time"
)

// Cache field names, as used by the HTTP API
const (
	FieldQuestion          = "question"
	FieldSQL               = "sql"
	FieldDataFrame         = "df"
	FieldFigureJSON        = "fig_json"
	FieldFollowupQuestions = "followup_questions"
)

// CacheFields lists every field an Entry can hold
var CacheFields = []string{
	FieldQuestion,
	FieldSQL,
	FieldDataFrame,
	FieldFigureJSON,
	FieldFollowupQuestions,
}

// Entry is everything remembered about one asked question
type Entry struct {
	ID                string     `json:"id" bson:"_id"`
	Question          *string    `json:"question,omitempty" bson:"question,omitempty"`
	SQL               *string    `json:"sql,omitempty" bson:"sql,omitempty"`
	DataFrame         *DataFrame `json:"df,omitempty" bson:"df,omitempty"`
	FigureJSON        *string    `json:"fig_json,omitempty" bson:"fig_json,omitempty"`
	FollowupQuestions []string   `json:"followup_questions,omitempty" bson:"followup_questions"`
	CreatedAt         time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" bson:"updated_at"`
}

// Has reports whether the named field has been set
func (e *Entry) Has(field string) bool {
	switch field {
	case FieldQuestion:
		return e.Question != nil
	case FieldSQL:
		return e.SQL != nil
	case FieldDataFrame:
		return e.DataFrame != nil
	case FieldFigureJSON:
		return e.FigureJSON != nil
	case FieldFollowupQuestions:
		return e.FollowupQuestions != nil
	default:
		return false
	}
}

// Value returns the named field or nil when unset
func (e *Entry) Value(field string) any {
	if !e.Has(field) {
		return nil
	}
	switch field {
	case FieldQuestion:
		return *e.Question
	case FieldSQL:
		return *e.SQL
	case FieldDataFrame:
		return e.DataFrame
	case FieldFigureJSON:
		return *e.FigureJSON
	default:
		return e.FollowupQuestions
	}
}

// IsCacheField reports whether name is a known cache field
func IsCacheField(name string) bool {
	for _, f := range CacheFields {
		if f == name {
			return true
		}
	}
	return false
}

// Training data types
const (
	TrainingTypeSQL           = "sql"
	TrainingTypeDDL           = "ddl"
	TrainingTypeDocumentation = "documentation"
)

// TrainingData is one item the NL to SQL engine learns from
type TrainingData struct {
	ID        string    `json:"id" db:"id" yaml:"id,omitempty"`
	Question  string    `json:"question" db:"question" yaml:"question,omitempty"`
	Content   string    `json:"content" db:"content" yaml:"content"`
	Type      string    `json:"training_data_type" db:"training_data_type" yaml:"type"`
	CreatedAt time.Time `json:"-" db:"created_at" yaml:"-"`
}

// QuestionSQL is a question paired with the SQL that answers it
type QuestionSQL struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
}

// TrainingRequest is the body of a train call
type TrainingRequest struct {
	Question      string `json:"question,omitempty" yaml:"question,omitempty"`
	SQL           string `json:"sql,omitempty" yaml:"sql,omitempty"`
	DDL           string `json:"ddl,omitempty" yaml:"ddl,omitempty"`
	Documentation string `json:"documentation,omitempty" yaml:"documentation,omitempty"`
}

// IsEmpty reports whether nothing was provided
func (r TrainingRequest) IsEmpty() bool {
	return r.Question == "" && r.SQL == "" && r.DDL == "" && r.Documentation == ""
}

// TrainingFrame renders training data in the tabular shape the front end expects
func TrainingFrame(items []*TrainingData) *DataFrame {
	df := NewDataFrame("id", "question", "content", "training_data_type")
	for _, item := range items {
		var question any
		if item.Question != "" {
			question = item.Question
		}
		df.Rows = append(df.Rows, []any{item.ID, question, item.Content, item.Type})
	}
	return df
}

// ModelInfo represents information about an available model from a provider
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}
