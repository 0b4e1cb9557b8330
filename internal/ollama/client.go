package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	DefaultURL   = "http://localhost:11434"
	DefaultModel = "llama3.2:1b"
)

// Client talks to a local Ollama instance for completions and embeddings.
type Client struct {
	baseURL    string
	model      string
	embedModel string
	dimension  int
	client     *http.Client
}

func NewClient(baseURL, model, embedModel string, dimension int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if model == "" {
		model = DefaultModel
	}
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    baseURL,
		model:      model,
		embedModel: embedModel,
		dimension:  dimension,
		client:     &http.Client{Timeout: timeout},
	}
}

// Dimension reports the configured embedding vector size.
func (c *Client) Dimension() int {
	return c.dimension
}

// SetTestTransport points the client at a test server URL.
func (c *Client) SetTestTransport(url string) {
	c.baseURL = url
}

// Options control a single completion call. Deterministic sets temperature
// to zero for structured field extraction.
type Options struct {
	Deterministic bool
	MaxTokens     int
}

type generateRequest struct {
	Model   string           `json:"model"`
	Prompt  string           `json:"prompt"`
	Stream  bool             `json:"stream"`
	Options *generateOptions `json:"options,omitempty"`
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type embedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Complete sends a prompt to /api/generate and returns the text response.
func (c *Client) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	temperature := 0.7
	if opts.Deterministic {
		temperature = 0.0
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = 512
	}

	reqBody := generateRequest{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: &generateOptions{
			Temperature: temperature,
			NumPredict:  maxTokens,
		},
	}

	var resp generateResponse
	if err := c.post(ctx, "/api/generate", reqBody, &resp); err != nil {
		return "", err
	}
	return resp.Response, nil
}

// Embed maps text to a fixed-length vector via /api/embeddings.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	reqBody := embedRequest{
		Model:  c.embedModel,
		Prompt: text,
	}

	var resp embedResponse
	if err := c.post(ctx, "/api/embeddings", reqBody, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embedding) == 0 {
		return nil, fmt.Errorf("empty embedding response")
	}
	return resp.Embedding, nil
}

func (c *Client) post(ctx context.Context, path string, reqBody, out any) error {
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("api call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return fmt.Errorf("api error %d: %s", resp.StatusCode, errResp.Error)
		}
		return fmt.Errorf("api error %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
