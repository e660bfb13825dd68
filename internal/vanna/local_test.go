package vanna

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/models"
)

func newLocalStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := OpenLocalStore(filepath.Join(t.TempDir(), "training.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestLocalStoreAddAndList(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	sqlID, err := s.AddQuestionSQL(ctx, "How many artists?", "SELECT COUNT(*) FROM artists")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(sqlID, "-sql"))

	ddlID, err := s.AddDDL(ctx, "CREATE TABLE artists (id INTEGER, name TEXT)")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(ddlID, "-ddl"))

	docID, err := s.AddDocumentation(ctx, "Artists release albums")
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(docID, "-doc"))

	again, err := s.AddDDL(ctx, "CREATE TABLE artists (id INTEGER, name TEXT)")
	require.NoError(t, err)
	require.Equal(t, ddlID, again)

	items, err := s.GetTrainingData(ctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, models.TrainingTypeSQL, items[0].Type)
	require.Equal(t, "How many artists?", items[0].Question)

	ok, err := s.RemoveTrainingData(ctx, docID)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = s.RemoveTrainingData(ctx, docID)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLocalStoreRanking(t *testing.T) {
	s := newLocalStore(t)
	ctx := context.Background()

	_, err := s.AddQuestionSQL(ctx, "How many invoices were sent?", "SELECT COUNT(*) FROM invoices")
	require.NoError(t, err)
	_, err = s.AddQuestionSQL(ctx, "Top artists by album count", "SELECT artist, COUNT(*) FROM albums GROUP BY artist")
	require.NoError(t, err)
	_, err = s.AddQuestionSQL(ctx, "Total sales per country", "SELECT country, SUM(total) FROM invoices GROUP BY country")
	require.NoError(t, err)

	pairs, err := s.GetSimilarQuestionSQL(ctx, "which artists have the most albums")
	require.NoError(t, err)
	require.Len(t, pairs, 3)
	require.Equal(t, "Top artists by album count", pairs[0].Question)

	s.NResults = 2
	recent, err := s.GetSimilarQuestionSQL(ctx, "")
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "Total sales per country", recent[0].Question)

	_, err = s.AddDDL(ctx, "CREATE TABLE invoices (id INT, total REAL)")
	require.NoError(t, err)
	_, err = s.AddDDL(ctx, "CREATE TABLE albums (id INT, artist TEXT)")
	require.NoError(t, err)

	ddl, err := s.GetRelatedDDL(ctx, "albums by artist")
	require.NoError(t, err)
	require.Equal(t, "CREATE TABLE albums (id INT, artist TEXT)", ddl[0])

	docs, err := s.GetRelatedDocumentation(ctx, "anything")
	require.NoError(t, err)
	require.Empty(t, docs)
}
