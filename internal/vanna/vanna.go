// Package vanna turns natural language questions into SQL using a store of
// training data and a language model.
package vanna

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
)

var (
	// ErrNoSQL is returned when the model answers without any SQL
	ErrNoSQL = errors.New("no SQL generated")
	// ErrEmptyTraining is returned by Train when nothing was provided
	ErrEmptyTraining = errors.New("no training data provided")
	// ErrQuestionWithoutSQL is returned by Train for a question without SQL
	ErrQuestionWithoutSQL = errors.New("question provided without sql")
)

// Store keeps the training data questions are answered from
type Store interface {
	AddQuestionSQL(ctx context.Context, question, sql string) (string, error)
	AddDDL(ctx context.Context, ddl string) (string, error)
	AddDocumentation(ctx context.Context, documentation string) (string, error)

	GetSimilarQuestionSQL(ctx context.Context, question string) ([]models.QuestionSQL, error)
	GetRelatedDDL(ctx context.Context, question string) ([]string, error)
	GetRelatedDocumentation(ctx context.Context, question string) ([]string, error)

	GetTrainingData(ctx context.Context) ([]*models.TrainingData, error)
	RemoveTrainingData(ctx context.Context, id string) (bool, error)
}

// Related is the training data relevant to one question
type Related struct {
	QuestionSQL   []models.QuestionSQL
	DDL           []string
	Documentation []string
}

// RelatedFetcher is implemented by stores that can return all related
// training data in a single round trip
type RelatedFetcher interface {
	GetRelatedTrainingData(ctx context.Context, question string) (*Related, error)
}

// LLM completes chat prompts
type LLM interface {
	SubmitPrompt(ctx context.Context, messages []llm.Message) (string, error)
}

// Assistant answers questions about one database
type Assistant struct {
	store   Store
	llm     LLM
	dialect string

	// MaxPromptTokens bounds the context added to the SQL prompt
	MaxPromptTokens int
}

// New creates an Assistant generating SQL in the given dialect
func New(store Store, model LLM, dialect string) *Assistant {
	if dialect == "" {
		dialect = "SQL"
	}
	return &Assistant{
		store:           store,
		llm:             model,
		dialect:         dialect,
		MaxPromptTokens: 14000,
	}
}

// Store returns the training data store
func (a *Assistant) Store() Store {
	return a.store
}

// Dialect returns the SQL dialect prompts are written for
func (a *Assistant) Dialect() string {
	return a.dialect
}

// GenerateQuestions suggests questions from the trained question/SQL pairs
func (a *Assistant) GenerateQuestions(ctx context.Context) ([]string, error) {
	pairs, err := a.store.GetSimilarQuestionSQL(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	questions := make([]string, 0, len(pairs))
	for _, p := range pairs {
		questions = append(questions, p.Question)
	}
	return questions, nil
}

// GenerateSQL asks the model for a statement answering question
func (a *Assistant) GenerateSQL(ctx context.Context, question string) (string, error) {
	related, err := a.related(ctx, question)
	if err != nil {
		return "", err
	}

	prompt := a.SQLPrompt(question, related)
	logger.Debug("SQL prompt has %d messages", len(prompt))

	response, err := a.llm.SubmitPrompt(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to generate SQL: %w", err)
	}

	sql := ExtractSQL(response)
	if sql == "" {
		return "", ErrNoSQL
	}
	return sql, nil
}

func (a *Assistant) related(ctx context.Context, question string) (*Related, error) {
	if f, ok := a.store.(RelatedFetcher); ok {
		related, err := f.GetRelatedTrainingData(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("failed to get related training data: %w", err)
		}
		return related, nil
	}

	pairs, err := a.store.GetSimilarQuestionSQL(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to get similar questions: %w", err)
	}
	ddl, err := a.store.GetRelatedDDL(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to get related ddl: %w", err)
	}
	docs, err := a.store.GetRelatedDocumentation(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to get related documentation: %w", err)
	}
	return &Related{QuestionSQL: pairs, DDL: ddl, Documentation: docs}, nil
}

// GenerateQuestion guesses the business question a statement answers
func (a *Assistant) GenerateQuestion(ctx context.Context, sql string) (string, error) {
	response, err := a.llm.SubmitPrompt(ctx, QuestionPrompt(sql))
	if err != nil {
		return "", fmt.Errorf("failed to generate question: %w", err)
	}
	return strings.TrimSpace(response), nil
}

var numbering = regexp.MustCompile(`(?m)^\d+\.\s*`)

// GenerateFollowupQuestions suggests n questions that build on a result
func (a *Assistant) GenerateFollowupQuestions(ctx context.Context, question, sql string, df *models.DataFrame, n int) ([]string, error) {
	if n <= 0 {
		n = 5
	}
	response, err := a.llm.SubmitPrompt(ctx, FollowupPrompt(question, sql, df, n))
	if err != nil {
		return nil, fmt.Errorf("failed to generate followup questions: %w", err)
	}

	questions := []string{}
	for _, line := range strings.Split(numbering.ReplaceAllString(response, ""), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			questions = append(questions, line)
		}
	}
	return questions, nil
}

// SuggestChart asks the model how to chart a result. The reply is the raw
// model text; callers parse it as a chart spec.
func (a *Assistant) SuggestChart(ctx context.Context, question, sql string, df *models.DataFrame) (string, error) {
	response, err := a.llm.SubmitPrompt(ctx, ChartPrompt(question, sql, df))
	if err != nil {
		return "", fmt.Errorf("failed to suggest chart: %w", err)
	}
	return response, nil
}

// Train adds training data and returns the id of the last item added
func (a *Assistant) Train(ctx context.Context, req models.TrainingRequest) (string, error) {
	if req.Question != "" && req.SQL == "" {
		return "", ErrQuestionWithoutSQL
	}
	if req.IsEmpty() {
		return "", ErrEmptyTraining
	}

	var id string
	if req.Documentation != "" {
		logger.Info("Adding documentation....")
		docID, err := a.store.AddDocumentation(ctx, req.Documentation)
		if err != nil {
			return "", fmt.Errorf("failed to add documentation: %w", err)
		}
		id = docID
	}

	if req.SQL != "" {
		question := req.Question
		if question == "" {
			generated, err := a.GenerateQuestion(ctx, req.SQL)
			if err != nil {
				return "", err
			}
			question = generated
			logger.Info("Question generated with sql: %s", question)
		}
		sqlID, err := a.store.AddQuestionSQL(ctx, question, req.SQL)
		if err != nil {
			return "", fmt.Errorf("failed to add question and sql: %w", err)
		}
		id = sqlID
	}

	if req.DDL != "" {
		logger.Info("Adding ddl: %s", req.DDL)
		ddlID, err := a.store.AddDDL(ctx, req.DDL)
		if err != nil {
			return "", fmt.Errorf("failed to add ddl: %w", err)
		}
		id = ddlID
	}

	return id, nil
}
