package vanna

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/AI2HU/askdb/internal/db"
	"github.com/AI2HU/askdb/internal/models"
)

// Id suffixes by training data type
var idSuffixes = map[string]string{
	models.TrainingTypeSQL:           "-sql",
	models.TrainingTypeDDL:           "-ddl",
	models.TrainingTypeDocumentation: "-doc",
}

// LocalStore keeps training data in a SQLite file and ranks it by word
// overlap with the question
type LocalStore struct {
	db *sqlx.DB

	// NResults is how many items each lookup returns
	NResults int
}

// OpenLocalStore opens (creating when needed) the training database at path
// and migrates it
func OpenLocalStore(path string) (*LocalStore, error) {
	conn, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open training database at path '%s': %w", path, err)
	}
	conn.SetMaxOpenConns(1)

	if err := db.RunMigrations(conn.DB); err != nil {
		conn.Close()
		return nil, err
	}
	return &LocalStore{db: conn, NResults: 10}, nil
}

// Close closes the training database
func (s *LocalStore) Close() error {
	return s.db.Close()
}

func (s *LocalStore) add(ctx context.Context, typ, question, content string) (string, error) {
	// ids are derived from the content so training the same item twice
	// replaces it
	id := uuid.NewSHA1(uuid.NameSpaceOID, []byte(typ+"\x00"+question+"\x00"+content)).String() + idSuffixes[typ]

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO training_data (id, question, content, training_data_type, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		id, question, content, typ, time.Now().UTC())
	if err != nil {
		return "", fmt.Errorf("failed to insert training data: %w", err)
	}
	return id, nil
}

// AddQuestionSQL stores a question/SQL pair
func (s *LocalStore) AddQuestionSQL(ctx context.Context, question, sql string) (string, error) {
	return s.add(ctx, models.TrainingTypeSQL, question, sql)
}

// AddDDL stores a DDL statement
func (s *LocalStore) AddDDL(ctx context.Context, ddl string) (string, error) {
	return s.add(ctx, models.TrainingTypeDDL, "", ddl)
}

// AddDocumentation stores a piece of documentation
func (s *LocalStore) AddDocumentation(ctx context.Context, documentation string) (string, error) {
	return s.add(ctx, models.TrainingTypeDocumentation, "", documentation)
}

func (s *LocalStore) byType(ctx context.Context, typ string) ([]*models.TrainingData, error) {
	var items []*models.TrainingData
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, question, content, training_data_type, created_at
		FROM training_data
		WHERE training_data_type = ?
		ORDER BY created_at DESC, rowid DESC`, typ)
	if err != nil {
		return nil, fmt.Errorf("failed to query training data: %w", err)
	}
	return items, nil
}

// rank orders newest-first items by word overlap with question and keeps
// the best NResults
func (s *LocalStore) rank(items []*models.TrainingData, question string) []*models.TrainingData {
	if q := tokenize(question); len(q) > 0 {
		scores := make(map[*models.TrainingData]int, len(items))
		for _, item := range items {
			scores[item] = overlap(q, tokenize(item.Question+" "+item.Content))
		}
		sort.SliceStable(items, func(i, j int) bool {
			return scores[items[i]] > scores[items[j]]
		})
	}

	n := s.NResults
	if n <= 0 {
		n = 10
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}

// GetSimilarQuestionSQL returns the pairs closest to question, or the most
// recent pairs for an empty question
func (s *LocalStore) GetSimilarQuestionSQL(ctx context.Context, question string) ([]models.QuestionSQL, error) {
	items, err := s.byType(ctx, models.TrainingTypeSQL)
	if err != nil {
		return nil, err
	}
	pairs := []models.QuestionSQL{}
	for _, item := range s.rank(items, question) {
		pairs = append(pairs, models.QuestionSQL{Question: item.Question, SQL: item.Content})
	}
	return pairs, nil
}

func (s *LocalStore) related(ctx context.Context, typ, question string) ([]string, error) {
	items, err := s.byType(ctx, typ)
	if err != nil {
		return nil, err
	}
	contents := []string{}
	for _, item := range s.rank(items, question) {
		contents = append(contents, item.Content)
	}
	return contents, nil
}

// GetRelatedDDL returns the DDL closest to question
func (s *LocalStore) GetRelatedDDL(ctx context.Context, question string) ([]string, error) {
	return s.related(ctx, models.TrainingTypeDDL, question)
}

// GetRelatedDocumentation returns the documentation closest to question
func (s *LocalStore) GetRelatedDocumentation(ctx context.Context, question string) ([]string, error) {
	return s.related(ctx, models.TrainingTypeDocumentation, question)
}

// GetTrainingData lists every item in insertion order
func (s *LocalStore) GetTrainingData(ctx context.Context) ([]*models.TrainingData, error) {
	items := []*models.TrainingData{}
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, question, content, training_data_type, created_at
		FROM training_data
		ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to query training data: %w", err)
	}
	return items, nil
}

// RemoveTrainingData deletes one item and reports whether it existed
func (s *LocalStore) RemoveTrainingData(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM training_data WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete training data: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete training data: %w", err)
	}
	return n > 0, nil
}

func tokenize(text string) map[string]struct{} {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func overlap(a, b map[string]struct{}) int {
	n := 0
	for w := range a {
		if _, ok := b[w]; ok {
			n++
		}
	}
	return n
}
