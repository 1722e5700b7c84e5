// internal/llm/ollama/client.go
// Package ollama provides an llm.Client backed by Ollama's HTTP API.
package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/logging"
)

// Client implements the llm.Client interface using Ollama HTTP APIs. The
// underlying HTTP session is created on first use and released by Close.
type Client struct {
	baseURL string
	timeout time.Duration

	mu      sync.Mutex
	session *http.Client
}

// New constructs a Client for the Ollama backend described by the configuration.
func New(cfg *appconfig.Config) *Client {
	return &Client{
		baseURL: cfg.Ollama.BaseURL(),
		timeout: cfg.Ollama.Timeout(),
	}
}

// Service returns llm.ServiceOllama.
func (c *Client) Service() llm.ServiceType {
	return llm.ServiceOllama
}

// httpClient returns the pooled HTTP session, creating it if needed.
func (c *Client) httpClient() *http.Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		c.session = &http.Client{
			Timeout:   c.timeout,
			Transport: &http.Transport{ForceAttemptHTTP2: false},
		}
	}
	return c.session
}

// Close releases the HTTP session. Safe to call repeatedly.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != nil {
		c.session.CloseIdleConnections()
		c.session = nil
	}
	return nil
}

// tagsResponse defines the structure of the response from the /api/tags endpoint.
type tagsResponse struct {
	Models []struct {
		Name       string         `json:"name"`
		Size       int64          `json:"size"`
		Digest     string         `json:"digest"`
		ModifiedAt string         `json:"modified_at"`
		Details    map[string]any `json:"details"`
	} `json:"models"`
}

type generateResponse struct {
	Model              string `json:"model"`
	CreatedAt          string `json:"created_at"`
	Response           string `json:"response"`
	Done               bool   `json:"done"`
	TotalDuration      int64  `json:"total_duration"`
	LoadDuration       int64  `json:"load_duration"`
	PromptEvalCount    int    `json:"prompt_eval_count"`
	PromptEvalDuration int64  `json:"prompt_eval_duration"`
	EvalCount          int    `json:"eval_count"`
	EvalDuration       int64  `json:"eval_duration"`
	Context            []int  `json:"context"`
}

type chatResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Message   struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	Done               bool  `json:"done"`
	TotalDuration      int64 `json:"total_duration"`
	LoadDuration       int64 `json:"load_duration"`
	PromptEvalCount    int   `json:"prompt_eval_count"`
	PromptEvalDuration int64 `json:"prompt_eval_duration"`
	EvalCount          int   `json:"eval_count"`
	EvalDuration       int64 `json:"eval_duration"`
}

// doJSON issues one HTTP request and decodes the JSON response body into out.
// Any transport failure or non-200 status is returned as a plain error for
// the calling operation to wrap with service context.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	var encoded []byte
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		encoded = data
		body = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	logging.LogRequest("MUX->LLM", string(llm.ServiceOllama), "", map[string]string{"method": method, "url": endpoint, "body": string(encoded)})
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	logging.LogRequest("LLM->MUX", string(llm.ServiceOllama), "", respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(respBody)))
	}
	return json.Unmarshal(respBody, out)
}

// ListModels returns the models currently advertised by /api/tags.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	var tags tagsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/tags", nil, &tags); err != nil {
		return nil, llm.NewError(llm.ServiceOllama, "list models", "", err)
	}

	models := make([]llm.ModelInfo, len(tags.Models))
	for i, m := range tags.Models {
		models[i] = llm.ModelInfo{
			Name:       m.Name,
			Size:       m.Size,
			Digest:     m.Digest,
			ModifiedAt: m.ModifiedAt,
			Details:    m.Details,
			Status:     llm.StatusAvailable,
		}
	}
	return models, nil
}

// Generate produces a completion for a single prompt via /api/generate.
// Streaming is always disabled.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.Response, error) {
	payload := map[string]any{
		"model":  req.Model,
		"prompt": req.Prompt,
		"stream": false,
	}
	if len(req.Context) > 0 {
		payload["context"] = req.Context
	}
	if len(req.Options) > 0 {
		payload["options"] = req.Options
	}

	var result generateResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate", payload, &result); err != nil {
		return llm.Response{}, llm.NewError(llm.ServiceOllama, "generate", req.Model, err)
	}

	return llm.Response{
		Content:            result.Response,
		Model:              result.Model,
		CreatedAt:          result.CreatedAt,
		Done:               result.Done,
		TotalDuration:      result.TotalDuration,
		LoadDuration:       result.LoadDuration,
		PromptEvalCount:    result.PromptEvalCount,
		PromptEvalDuration: result.PromptEvalDuration,
		EvalCount:          result.EvalCount,
		EvalDuration:       result.EvalDuration,
		Context:            result.Context,
	}, nil
}

// Chat posts the conversation to /api/chat and returns the assistant reply.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.Response, error) {
	messages := make([]llm.ChatMessage, len(req.Messages))
	copy(messages, req.Messages)

	payload := map[string]any{
		"model":    req.Model,
		"messages": messages,
		"stream":   false,
	}
	if len(req.Options) > 0 {
		payload["options"] = req.Options
	}

	var result chatResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/chat", payload, &result); err != nil {
		return llm.Response{}, llm.NewError(llm.ServiceOllama, "chat", req.Model, err)
	}

	return llm.Response{
		Content:            result.Message.Content,
		Model:              result.Model,
		CreatedAt:          result.CreatedAt,
		Done:               result.Done,
		TotalDuration:      result.TotalDuration,
		LoadDuration:       result.LoadDuration,
		PromptEvalCount:    result.PromptEvalCount,
		PromptEvalDuration: result.PromptEvalDuration,
		EvalCount:          result.EvalCount,
		EvalDuration:       result.EvalDuration,
	}, nil
}

// HealthCheck reports whether the backend answers a model listing. There is
// no dedicated health endpoint.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.ListModels(ctx); err != nil {
		return err
	}
	return nil
}

// PullModel downloads a model onto the backend via /api/pull, reading the
// NDJSON status stream until the backend reports success.
func (c *Client) PullModel(ctx context.Context, name string) error {
	payload := map[string]any{"name": name}
	body, err := json.Marshal(payload)
	if err != nil {
		return llm.NewError(llm.ServiceOllama, "pull", name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + "/api/pull"
	logging.LogRequest("MUX->LLM", string(llm.ServiceOllama), name, body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return llm.NewError(llm.ServiceOllama, "pull", name, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return llm.NewError(llm.ServiceOllama, "pull", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return llm.NewError(llm.ServiceOllama, "pull", name,
			fmt.Errorf("ollama: /api/pull returned %s: %s", resp.Status, strings.TrimSpace(string(respBody))))
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var chunk struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Status == "success" {
			logging.LogEvent("ollama: pulled model %s", name)
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return llm.NewError(llm.ServiceOllama, "pull", name, err)
	}
	return nil
}
