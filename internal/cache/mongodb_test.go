package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/models"
)

func newTestMongoDB(t *testing.T) *MongoDB {
	t.Helper()
	uri := os.Getenv("ASKDB_TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("ASKDB_TEST_MONGODB_URI not set")
	}

	ctx := context.Background()
	m := NewMongoDB(uri, "askdb_test_"+uuid.NewString()[:8])
	require.NoError(t, m.Connect(ctx))
	t.Cleanup(func() {
		m.client.Database(m.database).Drop(ctx)
		m.Close(ctx)
	})
	return m
}

func TestMongoDBRoundTrip(t *testing.T) {
	m := newTestMongoDB(t)
	ctx := context.Background()

	id := m.GenerateID("q")
	require.NoError(t, m.Set(ctx, id, models.FieldQuestion, "How many artists?"))

	when := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	df := models.NewDataFrame("name", "albums", "released")
	require.NoError(t, df.Append("AC/DC", int64(2), when))
	require.NoError(t, m.Set(ctx, id, models.FieldDataFrame, df))
	require.NoError(t, m.Set(ctx, id, models.FieldFollowupQuestions, []string{}))

	entry, err := m.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "How many artists?", *entry.Question)
	require.Equal(t, []any{"AC/DC", int64(2), when}, entry.DataFrame.Rows[0])
	require.True(t, entry.Has(models.FieldFollowupQuestions))
	require.False(t, entry.Has(models.FieldSQL))

	_, err = m.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	items, err := m.GetAll(ctx, []string{models.FieldQuestion})
	require.NoError(t, err)
	require.Equal(t, []map[string]any{{"id": id, "question": "How many artists?"}}, items)

	n, err := m.EvictOlderThan(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
