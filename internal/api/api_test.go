package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/AI2HU/askdb/internal/cache"
	"github.com/AI2HU/askdb/internal/config"
	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/services"
	"github.com/AI2HU/askdb/internal/testutil"
	"github.com/AI2HU/askdb/internal/vanna"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func reply(messages []llm.Message) (string, error) {
	last := messages[len(messages)-1].Content
	switch {
	case strings.Contains(last, "followup questions"):
		return "1. Which artist has the most albums?\n2. How many albums are there?", nil
	case strings.Contains(last, "Choose a chart"):
		return `{"type": "bar", "x": "artist", "y": "albums", "title": "Albums per artist"}`, nil
	default:
		return "Here you go:\n```sql\nSELECT artist, albums FROM summary\n```", nil
	}
}

type testServer struct {
	server *Server
	store  *testutil.Store
	runner *testutil.Runner
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *testServer {
	t.Helper()
	store := &testutil.Store{}
	runner := &testutil.Runner{Result: testutil.Albums()}
	assistant := vanna.New(store, &testutil.LLM{Reply: reply}, runner.Dialect())

	return &testServer{
		server: NewServer(
			services.NewQuestionService(assistant, runner, cache.NewMemory()),
			services.NewTrainingService(assistant),
			cfg,
		),
		store:  store,
		runner: runner,
	}
}

func (ts *testServer) do(t *testing.T, method, target string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)

	var out map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func TestQuestionFlow(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	w, res := ts.do(t, http.MethodGet, "/api/v0/generate_sql?question=Albums+per+artist", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "sql", res["type"])
	require.Equal(t, "SELECT artist, albums FROM summary", res["text"])
	id := res["id"].(string)
	require.NotEmpty(t, id)

	w, res = ts.do(t, http.MethodGet, "/api/v0/run_sql?id="+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "df", res["type"])
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res["df"].(string)), &rows))
	require.Len(t, rows, services.PreviewRows)
	require.Equal(t, "AC/DC", rows[0]["artist"])

	w, _ = ts.do(t, http.MethodGet, "/api/v0/download_csv?id="+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "attachment; filename="+id+".csv", w.Header().Get("Content-Disposition"))
	require.True(t, strings.HasPrefix(w.Body.String(), ",artist,albums\n0,AC/DC,12\n"))
	require.Equal(t, 13, strings.Count(w.Body.String(), "\n"))

	w, res = ts.do(t, http.MethodGet, "/api/v0/generate_plotly_figure?id="+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "plotly_figure", res["type"])
	require.Contains(t, res["fig"], `"type":"bar"`)

	w, res = ts.do(t, http.MethodGet, "/api/v0/generate_followup_questions?id="+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "question_list", res["type"])
	require.Equal(t, "Here are some followup questions you can ask:", res["header"])
	require.Equal(t, []any{"Which artist has the most albums?", "How many albums are there?"}, res["questions"])

	w, res = ts.do(t, http.MethodGet, "/api/v0/load_question?id="+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "question_cache", res["type"])
	require.Equal(t, "Albums per artist", res["question"])
	require.Equal(t, "SELECT artist, albums FROM summary", res["sql"])
	require.Contains(t, res["fig"], `"type":"bar"`)
	require.Len(t, res["followup_questions"], 2)

	w, res = ts.do(t, http.MethodGet, "/api/v0/get_question_history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "question_history", res["type"])
	require.Equal(t, []any{map[string]any{"id": id, "question": "Albums per artist"}}, res["questions"])
}

func TestRequireCache(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	tests := []struct {
		name   string
		target string
		status int
		msg    string
	}{
		{"missing id", "/api/v0/run_sql", http.StatusBadRequest, "No id provided"},
		{"unknown id", "/api/v0/run_sql?id=nope", http.StatusNotFound, "No sql found"},
		{"unknown id for csv", "/api/v0/download_csv?id=nope", http.StatusNotFound, "No df found"},
		{"missing question", "/api/v0/generate_sql", http.StatusBadRequest, "No question provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, res := ts.do(t, http.MethodGet, tt.target, nil)
			require.Equal(t, tt.status, w.Code)
			require.Equal(t, "error", res["type"])
			require.Equal(t, tt.msg, res["error"])
		})
	}

	t.Run("entry without a result", func(t *testing.T) {
		_, res := ts.do(t, http.MethodGet, "/api/v0/generate_sql?question=q", nil)
		id := res["id"].(string)

		w, res := ts.do(t, http.MethodGet, "/api/v0/generate_plotly_figure?id="+id, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "No df found", res["error"])

		w, res = ts.do(t, http.MethodGet, "/api/v0/load_question?id="+id, nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "No df found", res["error"])
	})
}

func TestGenerateSQLEmptyQuestion(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	w, res := ts.do(t, http.MethodGet, "/api/v0/generate_sql?question=", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "sql", res["type"])
	require.NotEmpty(t, res["id"])
}

func TestRunSQLError(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})
	ts.runner.Err = errors.New("no such table: summary")

	_, res := ts.do(t, http.MethodGet, "/api/v0/generate_sql?question=q", nil)
	w, res := ts.do(t, http.MethodGet, "/api/v0/run_sql?id="+res["id"].(string), nil)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "no such table: summary", res["error"])
}

func TestTraining(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	w, res := ts.do(t, http.MethodPost, "/api/v0/train", map[string]string{
		"question": "How many artists?",
		"sql":      "SELECT COUNT(*) FROM artists",
	})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "1-sql", res["id"])

	w, res = ts.do(t, http.MethodPost, "/api/v0/train", map[string]string{"question": "Only a question"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "Please also provide a SQL query", res["error"])

	w, res = ts.do(t, http.MethodGet, "/api/v0/generate_questions", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "question_list", res["type"])
	require.Equal(t, []any{"How many artists?"}, res["questions"])
	require.Equal(t, "Here are some questions you can ask:", res["header"])

	w, res = ts.do(t, http.MethodGet, "/api/v0/get_training_data", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "training_data", res["id"])
	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res["df"].(string)), &rows))
	require.Equal(t, []map[string]any{{
		"id":                 "1-sql",
		"question":           "How many artists?",
		"content":            "SELECT COUNT(*) FROM artists",
		"training_data_type": "sql",
	}}, rows)

	w, res = ts.do(t, http.MethodPost, "/api/v0/remove_training_data", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Equal(t, "No id provided", res["error"])

	w, res = ts.do(t, http.MethodPost, "/api/v0/remove_training_data", map[string]string{"id": "1-sql"})
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, true, res["success"])

	w, res = ts.do(t, http.MethodPost, "/api/v0/remove_training_data", map[string]string{"id": "1-sql"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.Equal(t, "Couldn't remove training data", res["error"])
}

func TestAPIKey(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{APIKey: "letmein"})

	w, res := ts.do(t, http.MethodGet, "/api/v0/get_question_history", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Equal(t, "Unauthorized", res["error"])

	req := httptest.NewRequest(http.MethodGet, "/api/v0/get_question_history", nil)
	req.Header.Set("X-API-KEY", "letmein")
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	w, _ := ts.do(t, http.MethodGet, "/api/v0/get_question_history", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, res := ts.do(t, http.MethodGet, "/api/v0/get_question_history", nil)
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	require.Equal(t, "error", res["type"])
}

func TestETag(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	w, _ := ts.do(t, http.MethodGet, "/api/v0/get_question_history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	tag := w.Header().Get("ETag")
	require.NotEmpty(t, tag)

	req := httptest.NewRequest(http.MethodGet, "/api/v0/get_question_history", nil)
	req.Header.Set("If-None-Match", tag)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNotModified, rec.Code)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	w, res := ts.do(t, http.MethodGet, "/api/v0/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "healthy", res["status"])

	ts.runner.PingErr = errors.New("connection refused")
	w, res = ts.do(t, http.MethodGet, "/api/v0/health", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	require.Equal(t, "connection refused", res["database"])
}

func TestCORSPreflight(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{CORSOrigin: "http://localhost:3000"})

	req := httptest.NewRequest(http.MethodOptions, "/api/v0/train", nil)
	rec := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestOpenAPIDocument(t *testing.T) {
	ts := newTestServer(t, config.ServerConfig{})

	w, res := ts.do(t, http.MethodGet, "/apidocs/openapi.json", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "3.0.3", res["openapi"])
	paths := res["paths"].(map[string]any)
	for _, p := range []string{"/generate_sql", "/run_sql", "/download_csv", "/load_question", "/train"} {
		require.Contains(t, paths, p)
	}
}

func TestIndex(t *testing.T) {
	t.Run("bundled", func(t *testing.T) {
		ts := newTestServer(t, config.ServerConfig{})
		w, _ := ts.do(t, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "generate_sql")
		require.Contains(t, w.Body.String(), "X-API-KEY")
		require.NotContains(t, w.Body.String(), `href="/api/v0/download_csv`)
	})

	t.Run("static dir", func(t *testing.T) {
		dir := t.TempDir()
		require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>custom</h1>"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

		ts := newTestServer(t, config.ServerConfig{StaticDir: dir})
		w, _ := ts.do(t, http.MethodGet, "/", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Contains(t, w.Body.String(), "custom")

		w, _ = ts.do(t, http.MethodGet, "/app.js", nil)
		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "console.log(1)", w.Body.String())

		w, res := ts.do(t, http.MethodGet, "/missing.js", nil)
		require.Equal(t, http.StatusNotFound, w.Code)
		require.Equal(t, "error", res["type"])
	})
}
