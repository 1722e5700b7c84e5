// internal/llm/lmstudio/client.go
// Package lmstudio provides an llm.Client backed by LM Studio's
// OpenAI-compatible HTTP API.
package lmstudio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/logging"
)

// Sampling options forwarded to the chat completions endpoint. Anything else
// in a request's option map is dropped silently.
var allowedOptions = []string{"temperature", "max_tokens", "top_p", "frequency_penalty"}

// Client implements the llm.Client interface using LM Studio HTTP APIs. The
// underlying HTTP session is created on first use and released by Close.
type Client struct {
	baseURL string
	timeout time.Duration

	mu      sync.Mutex
	session *http.Client
}

// New constructs a Client for the LM Studio backend described by the configuration.
func New(cfg *appconfig.Config) *Client {
	return &Client{
		baseURL: cfg.LMStudio.BaseURL(),
		timeout: cfg.LMStudio.Timeout(),
	}
}

// Service returns llm.ServiceLMStudio.
func (c *Client) Service() llm.ServiceType {
	return llm.ServiceLMStudio
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

// modelsResponse defines the structure of the response from /v1/models.
type modelsResponse struct {
	Data []struct {
		ID      string `json:"id"`
		Object  string `json:"object"`
		Created int64  `json:"created"`
		OwnedBy string `json:"owned_by"`
	} `json:"data"`
}

// completionResponse defines the OpenAI-compatible chat completion shape.
type completionResponse struct {
	Model   string `json:"model"`
	Created int64  `json:"created"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

// doJSON issues one HTTP request and decodes the JSON response body into out.
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
	logging.LogRequest("MUX->LLM", string(llm.ServiceLMStudio), "", map[string]string{"method": method, "url": endpoint, "body": string(encoded)})
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
	logging.LogRequest("LLM->MUX", string(llm.ServiceLMStudio), "", respBody)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("lmstudio: %s returned %s: %s", path, resp.Status, strings.TrimSpace(string(respBody)))
	}
	return json.Unmarshal(respBody, out)
}

// ListModels returns the models currently advertised by /v1/models. LM Studio
// does not report size or digest information.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	var listing modelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/models", nil, &listing); err != nil {
		return nil, llm.NewError(llm.ServiceLMStudio, "list models", "", err)
	}

	models := make([]llm.ModelInfo, len(listing.Data))
	for i, m := range listing.Data {
		models[i] = llm.ModelInfo{
			Name:       m.ID,
			ModifiedAt: strconv.FormatInt(m.Created, 10),
			Details: map[string]any{
				"object":   m.Object,
				"owned_by": m.OwnedBy,
			},
			Status: llm.StatusAvailable,
		}
	}
	return models, nil
}

// Generate produces a completion for a single prompt. LM Studio exposes no
// native single-prompt endpoint, so the request is re-expressed as a chat
// call with one user message.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.Response, error) {
	return c.Chat(ctx, llm.ChatRequest{
		Model: req.Model,
		Messages: []llm.ChatMessage{
			{Role: llm.RoleUser, Content: req.Prompt},
		},
		Options: req.Options,
	})
}

// Chat posts the conversation to /v1/chat/completions and returns the first
// completion choice. Recognized sampling options from the request's option
// map override the defaults; unrecognized keys are dropped, not errored.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.Response, error) {
	messages := make([]llm.ChatMessage, len(req.Messages))
	copy(messages, req.Messages)

	payload := map[string]any{
		"model":       req.Model,
		"messages":    messages,
		"stream":      false,
		"temperature": 0.7,
		"max_tokens":  -1,
	}
	for _, key := range allowedOptions {
		if value, ok := req.Options[key]; ok {
			payload[key] = value
		}
	}

	var result completionResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/chat/completions", payload, &result); err != nil {
		return llm.Response{}, llm.NewError(llm.ServiceLMStudio, "chat", req.Model, err)
	}
	if len(result.Choices) == 0 {
		return llm.Response{}, llm.NewError(llm.ServiceLMStudio, "chat", req.Model,
			fmt.Errorf("lmstudio: completion response contained no choices"))
	}

	choice := result.Choices[0]
	return llm.Response{
		Content:         choice.Message.Content,
		Model:           result.Model,
		CreatedAt:       strconv.FormatInt(result.Created, 10),
		Done:            choice.FinishReason == "stop",
		PromptEvalCount: result.Usage.PromptTokens,
		EvalCount:       result.Usage.CompletionTokens,
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

// CurrentModel returns the model LM Studio has loaded, taken as the first
// entry of the model listing. Returns an empty string when the service is
// unreachable or has no model loaded.
func (c *Client) CurrentModel(ctx context.Context) string {
	models, err := c.ListModels(ctx)
	if err != nil || len(models) == 0 {
		return ""
	}
	return models[0].Name
}
