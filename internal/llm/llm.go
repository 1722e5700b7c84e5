// internal/llm/llm.go

// Package llm defines the shared types and the client interface for talking
// to local LLM backend services. It provides a common abstraction layer for
// listing models, generating text, and running chat conversations regardless
// of the underlying service implementation (e.g., Ollama, LM Studio).
package llm

import (
	"context"
	"fmt"
	"strings"
)

// ServiceType identifies one backend LLM service.
type ServiceType string

const (
	// ServiceOllama identifies an Ollama server speaking the generate/chat protocol.
	ServiceOllama ServiceType = "ollama"
	// ServiceLMStudio identifies an LM Studio server speaking the OpenAI-compatible protocol.
	ServiceLMStudio ServiceType = "lmstudio"
	// ServiceAuto lets the router pick a service on the caller's behalf.
	ServiceAuto ServiceType = "auto"
)

// Services lists the concrete backend services in declared resolution order.
// Name resolution and catalog iteration follow this order.
var Services = []ServiceType{ServiceOllama, ServiceLMStudio}

// ParseService converts a configuration string into a ServiceType.
func ParseService(s string) (ServiceType, error) {
	switch ServiceType(strings.ToLower(strings.TrimSpace(s))) {
	case ServiceOllama:
		return ServiceOllama, nil
	case ServiceLMStudio:
		return ServiceLMStudio, nil
	case ServiceAuto, "":
		return ServiceAuto, nil
	}
	return "", fmt.Errorf("unknown LLM service %q", s)
}

// Prefix returns the namespace prefix this service contributes to model names.
func (s ServiceType) Prefix() string {
	return string(s) + ":"
}

// Status reports the serving state of a model as advertised by its backend.
type Status string

const (
	StatusAvailable Status = "available"
	StatusLoading   Status = "loading"
	StatusError     Status = "error"
	StatusOffline   Status = "offline"
)

// ModelInfo describes one model as advertised by a backend service. The
// catalog stores namespaced copies of these; instances are never mutated in
// place after construction.
type ModelInfo struct {
	Name       string         `json:"name"`
	Size       int64          `json:"size,omitempty"`
	Digest     string         `json:"digest,omitempty"`
	ModifiedAt string         `json:"modified_at,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	Status     Status         `json:"status"`
}

// Chat roles understood by both backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest asks a backend for a single-prompt completion. Model is the
// bare, backend-local name. Streaming is not supported; every request is sent
// with streaming disabled.
type GenerateRequest struct {
	Model   string
	Prompt  string
	Context []int
	Options map[string]any
}

// ChatRequest asks a backend for a multi-turn chat completion.
type ChatRequest struct {
	Model    string
	Messages []ChatMessage
	Options  map[string]any
}

// Response is the unified response shape returned by every backend client.
// Model echoes the backend-reported model identity, which may differ from the
// requested name. Duration and token counters are zero when the backend does
// not report them; Context is only meaningful for Ollama.
type Response struct {
	Content            string
	Model              string
	CreatedAt          string
	Done               bool
	TotalDuration      int64
	LoadDuration       int64
	PromptEvalCount    int
	PromptEvalDuration int64
	EvalCount          int
	EvalDuration       int64
	Context            []int
}

// Client is the interface every backend client implements. Implementations
// are stateless apart from a lazily created HTTP session that Close releases;
// they never retry internally and carry their own configured timeout.
type Client interface {
	// Service returns the identifier of the backend this client talks to.
	Service() ServiceType
	// ListModels returns the models the backend currently advertises.
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// Generate produces a completion for a single prompt.
	Generate(ctx context.Context, req GenerateRequest) (Response, error)
	// Chat produces a completion for a conversation.
	Chat(ctx context.Context, req ChatRequest) (Response, error)
	// HealthCheck reports whether the backend is reachable and serving.
	HealthCheck(ctx context.Context) error
	// Close releases the client's HTTP session. Safe to call repeatedly.
	Close() error
}
