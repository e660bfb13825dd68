package services

import (
	"context"
	"fmt"

	"github.com/AI2HU/askdb/internal/cache"
	"github.com/AI2HU/askdb/internal/chart"
	"github.com/AI2HU/askdb/internal/db"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
	"github.com/AI2HU/askdb/internal/vanna"
)

// Row limits of the responses sent to the front end
const (
	PreviewRows      = 10
	TrainingDataRows = 25
)

// HistoryItem is one previously asked question
type HistoryItem struct {
	ID       string `json:"id"`
	Question string `json:"question"`
}

// QuestionService provides business logic for asking questions
type QuestionService struct {
	assistant *vanna.Assistant
	runner    db.Runner
	cache     cache.Store
}

// NewQuestionService creates a new question service
func NewQuestionService(assistant *vanna.Assistant, runner db.Runner, store cache.Store) *QuestionService {
	return &QuestionService{
		assistant: assistant,
		runner:    runner,
		cache:     store,
	}
}

// Lookup returns the cached entry for id
func (s *QuestionService) Lookup(ctx context.Context, id string) (*models.Entry, error) {
	return s.cache.Get(ctx, id)
}

// Ping checks the queried database
func (s *QuestionService) Ping(ctx context.Context) error {
	return s.runner.Ping(ctx)
}

// GenerateQuestions suggests questions to ask
func (s *QuestionService) GenerateQuestions(ctx context.Context) ([]string, error) {
	return s.assistant.GenerateQuestions(ctx)
}

// GenerateSQL writes SQL for question and caches both under a new id
func (s *QuestionService) GenerateSQL(ctx context.Context, question string) (string, string, error) {
	id := s.cache.GenerateID(question)

	sql, err := s.assistant.GenerateSQL(ctx, question)
	if err != nil {
		return "", "", err
	}

	if err := s.cache.Set(ctx, id, models.FieldQuestion, question); err != nil {
		return "", "", fmt.Errorf("failed to cache question: %w", err)
	}
	if err := s.cache.Set(ctx, id, models.FieldSQL, sql); err != nil {
		return "", "", fmt.Errorf("failed to cache sql: %w", err)
	}
	return id, sql, nil
}

// RunSQL runs the cached statement, caches the full result and returns
// its first rows
func (s *QuestionService) RunSQL(ctx context.Context, id, sql string) (*models.DataFrame, error) {
	df, err := s.runner.RunSQL(ctx, sql)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, id, models.FieldDataFrame, df); err != nil {
		return nil, fmt.Errorf("failed to cache result: %w", err)
	}
	return df.Head(PreviewRows), nil
}

// Ask runs the whole flow for one question without caching
func (s *QuestionService) Ask(ctx context.Context, question string) (string, *models.DataFrame, error) {
	sql, err := s.assistant.GenerateSQL(ctx, question)
	if err != nil {
		return "", nil, err
	}
	df, err := s.runner.RunSQL(ctx, sql)
	if err != nil {
		return sql, nil, err
	}
	return sql, df, nil
}

// GenerateFigure charts a result and caches the figure JSON. Model replies
// that are not a usable chart spec fall back to a chart picked from the
// shape of the data.
func (s *QuestionService) GenerateFigure(ctx context.Context, id, question, sql string, df *models.DataFrame) (string, error) {
	reply, err := s.assistant.SuggestChart(ctx, question, sql, df)
	if err != nil {
		return "", err
	}

	spec, err := chart.ParseSpec(reply)
	if err != nil {
		logger.Warning("Falling back to default chart: %v", err)
		spec = nil
	} else if err := spec.Validate(df); err != nil {
		logger.Warning("Falling back to default chart: %v", err)
		spec = nil
	}

	fig, err := chart.Build(df, spec)
	if err != nil {
		return "", err
	}
	figJSON, err := fig.JSON()
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, id, models.FieldFigureJSON, figJSON); err != nil {
		return "", fmt.Errorf("failed to cache figure: %w", err)
	}
	return figJSON, nil
}

// GenerateFollowups suggests questions building on a result and caches them
func (s *QuestionService) GenerateFollowups(ctx context.Context, id, question, sql string, df *models.DataFrame) ([]string, error) {
	questions, err := s.assistant.GenerateFollowupQuestions(ctx, question, sql, df, 5)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, id, models.FieldFollowupQuestions, questions); err != nil {
		return nil, fmt.Errorf("failed to cache followup questions: %w", err)
	}
	return questions, nil
}

// QuestionHistory lists cached questions in the order they were asked
func (s *QuestionService) QuestionHistory(ctx context.Context) ([]HistoryItem, error) {
	items, err := s.cache.GetAll(ctx, []string{models.FieldQuestion})
	if err != nil {
		return nil, err
	}

	history := make([]HistoryItem, 0, len(items))
	for _, item := range items {
		question, _ := item[models.FieldQuestion].(string)
		history = append(history, HistoryItem{
			ID:       item["id"].(string),
			Question: question,
		})
	}
	return history, nil
}
