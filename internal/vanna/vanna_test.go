package vanna

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/models"
)

type fakeStore struct {
	pairs []models.QuestionSQL
	ddl   []string
	docs  []string
	added []models.TrainingData
	err   error
}

func (f *fakeStore) record(typ, question, content string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.added = append(f.added, models.TrainingData{Type: typ, Question: question, Content: content})
	return typ + "-id", nil
}

func (f *fakeStore) AddQuestionSQL(ctx context.Context, question, sql string) (string, error) {
	return f.record(models.TrainingTypeSQL, question, sql)
}

func (f *fakeStore) AddDDL(ctx context.Context, ddl string) (string, error) {
	return f.record(models.TrainingTypeDDL, "", ddl)
}

func (f *fakeStore) AddDocumentation(ctx context.Context, doc string) (string, error) {
	return f.record(models.TrainingTypeDocumentation, "", doc)
}

func (f *fakeStore) GetSimilarQuestionSQL(ctx context.Context, question string) ([]models.QuestionSQL, error) {
	return f.pairs, f.err
}

func (f *fakeStore) GetRelatedDDL(ctx context.Context, question string) ([]string, error) {
	return f.ddl, f.err
}

func (f *fakeStore) GetRelatedDocumentation(ctx context.Context, question string) ([]string, error) {
	return f.docs, f.err
}

func (f *fakeStore) GetTrainingData(ctx context.Context) ([]*models.TrainingData, error) {
	return nil, f.err
}

func (f *fakeStore) RemoveTrainingData(ctx context.Context, id string) (bool, error) {
	return id == "known", f.err
}

type fakeLLM struct {
	response string
	err      error
	prompts  [][]llm.Message
}

func (f *fakeLLM) SubmitPrompt(ctx context.Context, messages []llm.Message) (string, error) {
	f.prompts = append(f.prompts, messages)
	return f.response, f.err
}

func TestGenerateQuestions(t *testing.T) {
	store := &fakeStore{pairs: []models.QuestionSQL{
		{Question: "Top 5 artists by albums?", SQL: "SELECT 1;"},
		{Question: "How many customers?", SQL: "SELECT 2;"},
	}}
	a := New(store, &fakeLLM{}, "SQLite")

	questions, err := a.GenerateQuestions(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"Top 5 artists by albums?", "How many customers?"}, questions)
}

func TestGenerateSQL(t *testing.T) {
	store := &fakeStore{
		pairs: []models.QuestionSQL{{Question: "How many artists?", SQL: "SELECT COUNT(*) FROM artists;"}},
		ddl:   []string{"CREATE TABLE artists (id INTEGER, name TEXT)"},
		docs:  []string{"Artists release albums."},
	}
	model := &fakeLLM{response: "Sure!\n```sql\nSELECT name FROM artists LIMIT 5;\n```"}
	a := New(store, model, "SQLite")

	sql, err := a.GenerateSQL(context.Background(), "Name five artists")
	require.NoError(t, err)
	require.Equal(t, "SELECT name FROM artists LIMIT 5;", sql)

	require.Len(t, model.prompts, 1)
	prompt := model.prompts[0]
	require.Len(t, prompt, 4)

	system := prompt[0]
	require.Equal(t, llm.RoleSystem, system.Role)
	require.True(t, strings.HasPrefix(system.Content, "You are a SQLite expert. "))
	require.Contains(t, system.Content, "\n===Tables \nCREATE TABLE artists (id INTEGER, name TEXT)\n\n")
	require.Contains(t, system.Content, "\n===Additional Context \n\nArtists release albums.\n\n")
	require.Contains(t, system.Content, "===Response Guidelines \n1. ")

	require.Equal(t, llm.UserMessage("How many artists?"), prompt[1])
	require.Equal(t, llm.AssistantMessage("SELECT COUNT(*) FROM artists;"), prompt[2])
	require.Equal(t, llm.UserMessage("Name five artists"), prompt[3])
}

func TestGenerateSQLEmptyResponse(t *testing.T) {
	a := New(&fakeStore{}, &fakeLLM{response: "   "}, "SQLite")
	_, err := a.GenerateSQL(context.Background(), "anything")
	require.ErrorIs(t, err, ErrNoSQL)
}

func TestSQLPromptRespectsTokenBudget(t *testing.T) {
	a := New(&fakeStore{}, &fakeLLM{}, "SQLite")
	a.MaxPromptTokens = 100

	long := strings.Repeat("x", 1000)
	prompt := a.SQLPrompt("q", &Related{DDL: []string{long, "CREATE TABLE small (a INT)"}})
	require.NotContains(t, prompt[0].Content, long)
	require.Contains(t, prompt[0].Content, "CREATE TABLE small (a INT)")
}

func TestGenerateFollowupQuestions(t *testing.T) {
	model := &fakeLLM{response: "1. Which artist has the most albums?\n\n2. How many albums per genre?\n3.   What is the average price?\n"}
	a := New(&fakeStore{}, model, "SQLite")

	df := models.NewDataFrame("name", "albums")
	require.NoError(t, df.Append("AC/DC", int64(2)))

	questions, err := a.GenerateFollowupQuestions(context.Background(), "Albums per artist", "SELECT ...", df, 0)
	require.NoError(t, err)
	require.Equal(t, []string{
		"Which artist has the most albums?",
		"How many albums per genre?",
		"What is the average price?",
	}, questions)

	prompt := model.prompts[0]
	require.Contains(t, prompt[0].Content, "| name | albums |")
	require.Contains(t, prompt[1].Content, "Generate a list of 5 followup questions")
}

func TestFollowupPromptShowsFirstRowsOnly(t *testing.T) {
	df := models.NewDataFrame("id", "name")
	for i := 0; i < 100000; i++ {
		require.NoError(t, df.Append(int64(i), fmt.Sprintf("customer %d", i)))
	}

	prompt := FollowupPrompt("Customers?", "SELECT id, name FROM customers", df, 5)
	require.Contains(t, prompt[0].Content, "| 24 | customer 24 |")
	require.NotContains(t, prompt[0].Content, "| 25 | customer 25 |")
	require.Less(t, len(prompt[0].Content), 2000)
}

func TestTrain(t *testing.T) {
	ctx := context.Background()

	t.Run("question without sql", func(t *testing.T) {
		a := New(&fakeStore{}, &fakeLLM{}, "SQLite")
		_, err := a.Train(ctx, models.TrainingRequest{Question: "How many?"})
		require.ErrorIs(t, err, ErrQuestionWithoutSQL)
		require.EqualError(t, err, "question provided without sql")
	})

	t.Run("nothing provided", func(t *testing.T) {
		a := New(&fakeStore{}, &fakeLLM{}, "SQLite")
		_, err := a.Train(ctx, models.TrainingRequest{})
		require.ErrorIs(t, err, ErrEmptyTraining)
	})

	t.Run("sql without question generates one", func(t *testing.T) {
		store := &fakeStore{}
		model := &fakeLLM{response: " How many artists are there? \n"}
		a := New(store, model, "SQLite")

		id, err := a.Train(ctx, models.TrainingRequest{SQL: "SELECT COUNT(*) FROM artists"})
		require.NoError(t, err)
		require.Equal(t, "sql-id", id)
		require.Equal(t, "How many artists are there?", store.added[0].Question)
		require.Equal(t, "SELECT COUNT(*) FROM artists", model.prompts[0][1].Content)
	})

	t.Run("everything returns the last id", func(t *testing.T) {
		store := &fakeStore{}
		a := New(store, &fakeLLM{}, "SQLite")

		id, err := a.Train(ctx, models.TrainingRequest{
			Question:      "How many artists?",
			SQL:           "SELECT COUNT(*) FROM artists",
			DDL:           "CREATE TABLE artists (id INT)",
			Documentation: "Artists make albums",
		})
		require.NoError(t, err)
		require.Equal(t, "ddl-id", id)
		require.Len(t, store.added, 3)
		require.Equal(t, models.TrainingTypeDocumentation, store.added[0].Type)
		require.Equal(t, models.TrainingTypeSQL, store.added[1].Type)
		require.Equal(t, models.TrainingTypeDDL, store.added[2].Type)
	})

	t.Run("store failure", func(t *testing.T) {
		a := New(&fakeStore{err: errors.New("boom")}, &fakeLLM{}, "SQLite")
		_, err := a.Train(ctx, models.TrainingRequest{DDL: "CREATE TABLE t (a INT)"})
		require.ErrorContains(t, err, "boom")
	})
}

type providerStub struct{ text string }

func (p providerStub) Name() string { return "stub" }

func (p providerStub) Generate(ctx context.Context, messages []llm.Message, config llm.Config) (*llm.Response, error) {
	return &llm.Response{Text: p.text + config.Model}, nil
}

func TestProviderLLM(t *testing.T) {
	p := NewProviderLLM(providerStub{text: "SELECT 1; -- "}, llm.Config{Model: "m1"})
	out, err := p.SubmitPrompt(context.Background(), []llm.Message{llm.UserMessage("q")})
	require.NoError(t, err)
	require.Equal(t, "SELECT 1; -- m1", out)
}
