// internal/llm/lmstudio/client_test.go
package lmstudio

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/llm"
)

const completionBody = `{"model":"deepseek-r1-distill-qwen-7b","created":1700000000,
	"choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],
	"usage":{"prompt_tokens":12,"completion_tokens":4}}`

// testClient builds a Client pointed at the given test server.
func testClient(t *testing.T, server *httptest.Server) *Client {
	t.Helper()

	parsed, err := url.Parse(server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	port, err := strconv.Atoi(parsed.Port())
	if err != nil {
		t.Fatalf("parse server port: %v", err)
	}

	cfg := &appconfig.Config{LMStudio: appconfig.Backend{Host: parsed.Hostname(), Port: port, TimeoutSeconds: 5}}
	return New(cfg)
}

func TestListModels(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/models" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[
			{"id":"deepseek-r1-distill-qwen-7b","object":"model","created":1700000000,"owned_by":"organization_owner"},
			{"id":"qwen2.5-coder-7b-instruct","object":"model","created":1700000001,"owned_by":"organization_owner"}
		]}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	models, err := client.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels returned error: %v", err)
	}

	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	first := models[0]
	if first.Name != "deepseek-r1-distill-qwen-7b" {
		t.Fatalf("unexpected model name: %s", first.Name)
	}
	if first.ModifiedAt != "1700000000" {
		t.Fatalf("unexpected modified at: %s", first.ModifiedAt)
	}
	if owner, ok := first.Details["owned_by"].(string); !ok || owner != "organization_owner" {
		t.Fatalf("unexpected details: %+v", first.Details)
	}
	if first.Status != llm.StatusAvailable {
		t.Fatalf("expected available status, got %s", first.Status)
	}
}

func TestChatDefaultsAndOptionFiltering(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		capturedBody = body
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := testClient(t, server)
	resp, err := client.Chat(context.Background(), llm.ChatRequest{
		Model:    "deepseek-r1-distill-qwen-7b",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hello"}},
		Options: map[string]any{
			"temperature":     0.2,
			"unsupported_key": "x",
		},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	if resp.Content != "hello" || !resp.Done {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.PromptEvalCount != 12 || resp.EvalCount != 4 {
		t.Fatalf("unexpected token counts: %+v", resp)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["temperature"] != 0.2 {
		t.Fatalf("expected option override temperature=0.2, got %v", payload["temperature"])
	}
	if payload["max_tokens"] != float64(-1) {
		t.Fatalf("expected default max_tokens=-1, got %v", payload["max_tokens"])
	}
	if _, present := payload["unsupported_key"]; present {
		t.Fatal("unrecognized option key should not be forwarded")
	}
	if stream, ok := payload["stream"].(bool); !ok || stream {
		t.Fatalf("expected stream=false, got %v", payload["stream"])
	}
}

func TestChatDefaultTemperature(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		capturedBody = body
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.Chat(context.Background(), llm.ChatRequest{
		Model:    "deepseek-r1-distill-qwen-7b",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Chat returned error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload["temperature"] != 0.7 {
		t.Fatalf("expected default temperature=0.7, got %v", payload["temperature"])
	}
}

func TestChatEmptyChoices(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"model":"deepseek-r1-distill-qwen-7b","choices":[]}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	_, err := client.Chat(context.Background(), llm.ChatRequest{
		Model:    "deepseek-r1-distill-qwen-7b",
		Messages: []llm.ChatMessage{{Role: llm.RoleUser, Content: "hello"}},
	})
	if err == nil {
		t.Fatal("expected error for empty choices")
	}
	if llm.ServiceOf(err) != llm.ServiceLMStudio {
		t.Fatalf("expected lmstudio service on error, got %s", llm.ServiceOf(err))
	}
}

func TestGenerateBecomesSingleUserMessage(t *testing.T) {
	t.Parallel()

	var capturedBody []byte
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		capturedBody = body
		_, _ = w.Write([]byte(completionBody))
	}))
	defer server.Close()

	client := testClient(t, server)
	resp, err := client.Generate(context.Background(), llm.GenerateRequest{
		Model:  "deepseek-r1-distill-qwen-7b",
		Prompt: "hi",
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if resp.Content != "hello" {
		t.Fatalf("unexpected content: %s", resp.Content)
	}

	var payload map[string]any
	if err := json.Unmarshal(capturedBody, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	messages, ok := payload["messages"].([]any)
	if !ok || len(messages) != 1 {
		t.Fatalf("expected exactly one message, got %v", payload["messages"])
	}
	message, ok := messages[0].(map[string]any)
	if !ok || message["role"] != "user" || message["content"] != "hi" {
		t.Fatalf("unexpected message: %v", messages[0])
	}
}

func TestCurrentModel(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":"qwen2.5-coder-7b-instruct","object":"model","created":1700000001,"owned_by":"organization_owner"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server)
	if got := client.CurrentModel(context.Background()); got != "qwen2.5-coder-7b-instruct" {
		t.Fatalf("unexpected current model: %s", got)
	}
}

func TestCurrentModelUnreachable(t *testing.T) {
	t.Parallel()

	cfg := &appconfig.Config{LMStudio: appconfig.Backend{Host: "localhost", Port: 1, TimeoutSeconds: 1}}
	client := New(cfg)
	defer client.Close()

	if got := client.CurrentModel(context.Background()); got != "" {
		t.Fatalf("expected empty model for unreachable service, got %s", got)
	}
}
