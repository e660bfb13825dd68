// Package testutil holds in-memory fakes of the engine and database used by
// package tests.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

// Store is an in-memory training data store
type Store struct {
	mu    sync.Mutex
	items []*models.TrainingData
	next  int

	Err error
}

func (s *Store) add(typ, suffix, question, content string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return "", s.Err
	}
	s.next++
	id := fmt.Sprintf("%d%s", s.next, suffix)
	s.items = append(s.items, &models.TrainingData{ID: id, Question: question, Content: content, Type: typ})
	return id, nil
}

func (s *Store) AddQuestionSQL(ctx context.Context, question, sql string) (string, error) {
	return s.add(models.TrainingTypeSQL, "-sql", question, sql)
}

func (s *Store) AddDDL(ctx context.Context, ddl string) (string, error) {
	return s.add(models.TrainingTypeDDL, "-ddl", "", ddl)
}

func (s *Store) AddDocumentation(ctx context.Context, doc string) (string, error) {
	return s.add(models.TrainingTypeDocumentation, "-doc", "", doc)
}

func (s *Store) byType(typ string) []*models.TrainingData {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.TrainingData
	for _, item := range s.items {
		if item.Type == typ {
			out = append(out, item)
		}
	}
	return out
}

func (s *Store) GetSimilarQuestionSQL(ctx context.Context, question string) ([]models.QuestionSQL, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	pairs := []models.QuestionSQL{}
	for _, item := range s.byType(models.TrainingTypeSQL) {
		pairs = append(pairs, models.QuestionSQL{Question: item.Question, SQL: item.Content})
	}
	return pairs, nil
}

func (s *Store) contents(typ string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	out := []string{}
	for _, item := range s.byType(typ) {
		out = append(out, item.Content)
	}
	return out, nil
}

func (s *Store) GetRelatedDDL(ctx context.Context, question string) ([]string, error) {
	return s.contents(models.TrainingTypeDDL)
}

func (s *Store) GetRelatedDocumentation(ctx context.Context, question string) ([]string, error) {
	return s.contents(models.TrainingTypeDocumentation)
}

func (s *Store) GetTrainingData(ctx context.Context) ([]*models.TrainingData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]*models.TrainingData{}, s.items...), nil
}

func (s *Store) RemoveTrainingData(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// LLM answers prompts through Reply
type LLM struct {
	Reply func(messages []llm.Message) (string, error)
}

func (l *LLM) SubmitPrompt(ctx context.Context, messages []llm.Message) (string, error) {
	if l.Reply == nil {
		return "", fmt.Errorf("no reply configured")
	}
	return l.Reply(messages)
}

// Runner returns a fixed result for every query
type Runner struct {
	mu      sync.Mutex
	queries []string

	Result  *models.DataFrame
	DDL     []string
	Err     error
	PingErr error
}

func (r *Runner) Connect(ctx context.Context) error    { return nil }
func (r *Runner) Disconnect(ctx context.Context) error { return nil }
func (r *Runner) Ping(ctx context.Context) error       { return r.PingErr }
func (r *Runner) Dialect() string                      { return "SQLite" }

func (r *Runner) RunSQL(ctx context.Context, query string) (*models.DataFrame, error) {
	r.mu.Lock()
	r.queries = append(r.queries, query)
	r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return r.Result, nil
}

func (r *Runner) Schema(ctx context.Context) ([]string, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return r.DDL, nil
}

// Queries returns every statement run so far
func (r *Runner) Queries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string{}, r.queries...)
}

// Albums returns a small result set for tests
func Albums() *models.DataFrame {
	df := models.NewDataFrame("artist", "albums")
	names := []string{"AC/DC", "Accept", "Aerosmith", "Alanis Morissette", "Alice In Chains",
		"Antônio Carlos Jobim", "Apocalyptica", "Audioslave", "BackBeat", "Billy Cobham",
		"Black Label Society", "Black Sabbath"}
	for i, name := range names {
		df.Rows = append(df.Rows, []any{name, int64(len(names) - i)})
	}
	return df
}
