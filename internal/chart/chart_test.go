package chart

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/models"
)

func frame(t *testing.T, columns []string, rows ...[]any) *models.DataFrame {
	t.Helper()
	df := models.NewDataFrame(columns...)
	for _, r := range rows {
		require.NoError(t, df.Append(r...))
	}
	return df
}

func TestParseSpec(t *testing.T) {
	spec, err := ParseSpec("Here is the chart:\n```json\n{\"type\": \"Bar\", \"x\": \"name\", \"y\": \"albums\", \"title\": \"Albums\"}\n```")
	require.NoError(t, err)
	require.Equal(t, &Spec{Type: TypeBar, X: "name", Y: []string{"albums"}, Title: "Albums"}, spec)

	spec, err = ParseSpec(`{"type": "line", "x": "month", "y": ["sales", "refunds"]}`)
	require.NoError(t, err)
	require.Equal(t, []string{"sales", "refunds"}, spec.Y)

	_, err = ParseSpec("I cannot chart this.")
	require.Error(t, err)
}

func TestFallback(t *testing.T) {
	tests := []struct {
		name string
		df   *models.DataFrame
		want string
	}{
		{
			name: "single value",
			df:   frame(t, []string{"n"}, []any{int64(42)}),
			want: TypeIndicator,
		},
		{
			name: "two numeric columns",
			df:   frame(t, []string{"a", "b"}, []any{int64(1), 2.5}, []any{int64(2), 3.5}),
			want: TypeScatter,
		},
		{
			name: "numeric and categorical",
			df:   frame(t, []string{"name", "albums"}, []any{"AC/DC", int64(2)}, []any{"Accept", int64(1)}),
			want: TypeBar,
		},
		{
			name: "few categories",
			df:   frame(t, []string{"genre", "title"}, []any{"Rock", "a"}, []any{"Jazz", "b"}),
			want: TypePie,
		},
		{
			name: "all null column",
			df:   frame(t, []string{"when"}, []any{nil}, []any{nil}),
			want: TypePie,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, Fallback(tt.df).Type)
		})
	}
}

func TestFallbackLine(t *testing.T) {
	rows := make([][]any, 0, 12)
	for i := 0; i < 12; i++ {
		rows = append(rows, []any{string(rune('a' + i)), string(rune('A' + i))})
	}
	df := frame(t, []string{"k", "v"}, rows...)
	require.Equal(t, TypeLine, Fallback(df).Type)
}

func TestBuildBar(t *testing.T) {
	df := frame(t, []string{"name", "albums"}, []any{"AC/DC", int64(2)}, []any{"Accept", int64(1)})

	fig, err := Build(df, &Spec{Type: TypeBar, X: "name", Y: []string{"albums"}, Title: "Albums per artist"})
	require.NoError(t, err)

	out, err := fig.JSON()
	require.NoError(t, err)
	require.JSONEq(t, `{
		"data": [{"type": "bar", "x": ["AC/DC", "Accept"], "y": [2, 1], "name": "albums"}],
		"layout": {
			"title": {"text": "Albums per artist"},
			"xaxis": {"title": {"text": "name"}},
			"yaxis": {"title": {"text": "albums"}}
		}
	}`, out)
}

func TestBuildInvalidSpecFallsBack(t *testing.T) {
	df := frame(t, []string{"name", "albums"}, []any{"AC/DC", int64(2)})

	fig, err := Build(df, &Spec{Type: TypeLine, X: "missing", Y: []string{"albums"}})
	require.NoError(t, err)
	require.Equal(t, "bar", fig.Data[0]["type"])

	fig, err = Build(df, &Spec{Type: TypeBar, X: "albums", Y: []string{"name"}})
	require.NoError(t, err)
	require.Equal(t, []any{"AC/DC"}, fig.Data[0]["x"])
}

func TestBuildPieCounts(t *testing.T) {
	df := frame(t, []string{"genre"}, []any{"Rock"}, []any{"Jazz"}, []any{"Rock"})

	fig, err := Build(df, nil)
	require.NoError(t, err)
	require.Equal(t, "pie", fig.Data[0]["type"])
	require.Equal(t, []any{"Rock", "Jazz"}, fig.Data[0]["labels"])
	require.Equal(t, []float64{2, 1}, fig.Data[0]["values"])
}

func TestBuildIndicator(t *testing.T) {
	df := frame(t, []string{"total"}, []any{3.5})

	fig, err := Build(df, nil)
	require.NoError(t, err)

	out, err := fig.JSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	trace := decoded["data"].([]any)[0].(map[string]any)
	require.Equal(t, "indicator", trace["type"])
	require.Equal(t, 3.5, trace["value"])
}
