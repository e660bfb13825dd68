package vanna

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AI2HU/askdb/internal/llm"
	"github.com/AI2HU/askdb/internal/logger"
	"github.com/AI2HU/askdb/internal/models"
)

// DefaultEndpoint is the hosted RPC endpoint
const DefaultEndpoint = "https://ask.vanna.ai/rpc"

// RemoteClient talks to the hosted service, which keeps the training data
// and completes prompts
type RemoteClient struct {
	endpoint string
	apiKey   string
	model    string
	client   *http.Client
}

// RemoteOption customizes a RemoteClient
type RemoteOption func(*RemoteClient)

// WithEndpoint overrides the RPC endpoint
func WithEndpoint(endpoint string) RemoteOption {
	return func(c *RemoteClient) {
		if endpoint != "" {
			c.endpoint = endpoint
		}
	}
}

// WithHTTPClient overrides the HTTP client
func WithHTTPClient(client *http.Client) RemoteOption {
	return func(c *RemoteClient) {
		c.client = client
	}
}

// NewRemoteClient creates a client for the given model and API key
func NewRemoteClient(model, apiKey string, opts ...RemoteOption) *RemoteClient {
	c := &RemoteClient{
		endpoint: DefaultEndpoint,
		apiKey:   apiKey,
		model:    model,
		client:   &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

// RPCError is returned when the service answers without a result
type RPCError struct {
	Method  string
	Payload string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("rpc %s failed: %s", e.Method, e.Payload)
}

type stringData struct {
	Data string `json:"data"`
}

type questionData struct {
	Question string `json:"question"`
}

type questionSQLPair struct {
	Question string `json:"question"`
	SQL      string `json:"sql"`
	Tag      string `json:"tag"`
}

type statusWithID struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

type status struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type trainingPlan struct {
	Questions     []models.QuestionSQL `json:"questions"`
	DDL           []string             `json:"ddl"`
	Documentation []string             `json:"documentation"`
}

func (c *RemoteClient) call(ctx context.Context, method string, result any, params ...any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Vanna-Key", c.apiKey)
	req.Header.Set("Vanna-Org", c.model)

	logger.Debug("rpc %s", method)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("rpc %s: %w", method, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var decoded rpcResponse
	if err := json.Unmarshal(data, &decoded); err != nil {
		return fmt.Errorf("rpc %s: unexpected response (status %d): %w", method, resp.StatusCode, err)
	}
	if len(decoded.Result) == 0 || string(decoded.Result) == "null" {
		payload := string(decoded.Error)
		if payload == "" {
			payload = string(data)
		}
		return &RPCError{Method: method, Payload: payload}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(decoded.Result, result); err != nil {
		return fmt.Errorf("rpc %s: failed to decode result: %w", method, err)
	}
	return nil
}

func (c *RemoteClient) add(ctx context.Context, method string, param any) (string, error) {
	var res statusWithID
	if err := c.call(ctx, method, &res, param); err != nil {
		return "", err
	}
	if !res.Success {
		return "", fmt.Errorf("rpc %s: %s", method, res.Message)
	}
	return res.ID, nil
}

// AddQuestionSQL stores a question/SQL pair
func (c *RemoteClient) AddQuestionSQL(ctx context.Context, question, sql string) (string, error) {
	return c.add(ctx, "add_sql", questionSQLPair{Question: question, SQL: sql})
}

// AddDDL stores a DDL statement
func (c *RemoteClient) AddDDL(ctx context.Context, ddl string) (string, error) {
	return c.add(ctx, "add_ddl", stringData{Data: ddl})
}

// AddDocumentation stores a piece of documentation
func (c *RemoteClient) AddDocumentation(ctx context.Context, documentation string) (string, error) {
	return c.add(ctx, "add_documentation", stringData{Data: documentation})
}

// GetRelatedTrainingData fetches pairs, DDL and documentation relevant to
// question in one call
func (c *RemoteClient) GetRelatedTrainingData(ctx context.Context, question string) (*Related, error) {
	var plan trainingPlan
	if err := c.call(ctx, "get_related_training_data", &plan, questionData{Question: question}); err != nil {
		return nil, err
	}
	return &Related{
		QuestionSQL:   plan.Questions,
		DDL:           plan.DDL,
		Documentation: plan.Documentation,
	}, nil
}

// GetSimilarQuestionSQL returns question/SQL pairs similar to question
func (c *RemoteClient) GetSimilarQuestionSQL(ctx context.Context, question string) ([]models.QuestionSQL, error) {
	related, err := c.GetRelatedTrainingData(ctx, question)
	if err != nil {
		return nil, err
	}
	return related.QuestionSQL, nil
}

// GetRelatedDDL returns DDL relevant to question
func (c *RemoteClient) GetRelatedDDL(ctx context.Context, question string) ([]string, error) {
	related, err := c.GetRelatedTrainingData(ctx, question)
	if err != nil {
		return nil, err
	}
	return related.DDL, nil
}

// GetRelatedDocumentation returns documentation relevant to question
func (c *RemoteClient) GetRelatedDocumentation(ctx context.Context, question string) ([]string, error) {
	related, err := c.GetRelatedTrainingData(ctx, question)
	if err != nil {
		return nil, err
	}
	return related.Documentation, nil
}

// GetTrainingData lists everything the model was trained on
func (c *RemoteClient) GetTrainingData(ctx context.Context) ([]*models.TrainingData, error) {
	var res stringData
	if err := c.call(ctx, "get_training_data", &res); err != nil {
		return nil, err
	}
	if res.Data == "" {
		return []*models.TrainingData{}, nil
	}

	df, err := models.ParseRecordsJSON([]byte(res.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse training data: %w", err)
	}

	items := make([]*models.TrainingData, 0, df.Len())
	for _, rec := range df.Records() {
		items = append(items, &models.TrainingData{
			ID:       stringValue(rec["id"]),
			Question: stringValue(rec["question"]),
			Content:  stringValue(rec["content"]),
			Type:     stringValue(rec["training_data_type"]),
		})
	}
	return items, nil
}

// RemoveTrainingData deletes one training item
func (c *RemoteClient) RemoveTrainingData(ctx context.Context, id string) (bool, error) {
	var res status
	if err := c.call(ctx, "remove_training_data", &res, stringData{Data: id}); err != nil {
		return false, err
	}
	return res.Success, nil
}

// SubmitPrompt completes a chat prompt on the hosted model
func (c *RemoteClient) SubmitPrompt(ctx context.Context, messages []llm.Message) (string, error) {
	prompt, err := json.Marshal(messages)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prompt: %w", err)
	}
	var res stringData
	if err := c.call(ctx, "submit_prompt", &res, stringData{Data: string(prompt)}); err != nil {
		return "", err
	}
	return res.Data, nil
}

func stringValue(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
