// internal/router/router.go

// Package router unifies multiple local LLM backend services behind a single
// namespaced model catalog, probing backend health and dispatching generate
// and chat calls to the right service.
package router

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/logging"
)

// ClientConstructor builds the backend clients the router owns. It is
// injected so tests can supply mock clients.
type ClientConstructor func(cfg *appconfig.Config) (map[llm.ServiceType]llm.Client, error)

// Router is the single entry point for the rest of the system. It owns the
// backend clients, the aggregated catalog, and the health snapshot, and it
// gates every dispatch on the last known availability of the resolved
// service.
//
// Lifecycle: Uninitialized -> Ready. Initialize is single-flight and
// idempotent; a failed run leaves the router retryable. Cleanup returns it to
// Uninitialized and may be called any number of times.
type Router struct {
	cfg       *appconfig.Config
	construct ClientConstructor

	// initMu serializes Initialize and Cleanup so concurrent callers all
	// resolve after the same single initialization run.
	initMu      sync.Mutex
	initialized bool
	clients     map[llm.ServiceType]llm.Client

	catalog *Catalog

	// stateMu guards the health snapshot and the last-used bookkeeping.
	stateMu      sync.RWMutex
	availability Availability
	lastUsed     map[string]time.Time
}

// New constructs a Router. Clients are not built until Initialize runs.
func New(cfg *appconfig.Config, construct ClientConstructor) *Router {
	return &Router{
		cfg:       cfg,
		construct: construct,
		catalog:   NewCatalog(llm.Services, cfg.RecommendServiceType(), cfg.RecommendKeyword),
		lastUsed:  make(map[string]time.Time),
	}
}

// NewWithClients constructs a Router over pre-built clients. Intended for
// tests and embedding callers that manage client construction themselves.
func NewWithClients(cfg *appconfig.Config, clients map[llm.ServiceType]llm.Client) *Router {
	r := New(cfg, func(*appconfig.Config) (map[llm.ServiceType]llm.Client, error) {
		return clients, nil
	})
	return r
}

// Initialize builds the backend clients, probes their health, and fills the
// catalog from the services that probed healthy. A second call while already
// initialized is a no-op. On failure the error wraps llm.ErrInitFailed and
// the router stays uninitialized so the caller may retry.
func (r *Router) Initialize(ctx context.Context) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()
	return r.initializeLocked(ctx)
}

func (r *Router) initializeLocked(ctx context.Context) error {
	if r.initialized {
		return nil
	}

	if r.clients == nil {
		clients, err := r.construct(r.cfg)
		if err != nil {
			return fmt.Errorf("%w: %v", llm.ErrInitFailed, err)
		}
		if len(clients) == 0 {
			return fmt.Errorf("%w: no backend clients configured", llm.ErrInitFailed)
		}
		r.clients = clients
	}

	avail := CheckAll(ctx, r.clients)
	r.catalog.Refresh(ctx, r.clients, avail)
	r.setAvailability(avail)

	r.initialized = true
	logging.LogEvent("router: initialized, available services: %v", availableNames(avail))
	return nil
}

// ensureInitialized auto-initializes the router on first use.
func (r *Router) ensureInitialized(ctx context.Context) error {
	r.initMu.Lock()
	defer r.initMu.Unlock()
	return r.initializeLocked(ctx)
}

func (r *Router) setAvailability(avail Availability) {
	r.stateMu.Lock()
	r.availability = avail
	r.stateMu.Unlock()
}

func (r *Router) snapshotAvailability() Availability {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	return r.availability.clone()
}

// ListModels returns the aggregated, namespaced catalog. When refresh is
// requested, or the catalog has never been populated, the per-service lists
// are fetched again first.
func (r *Router) ListModels(ctx context.Context, refresh bool) ([]llm.ModelInfo, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	if refresh || !r.catalog.Populated() {
		r.catalog.Refresh(ctx, r.clients, r.snapshotAvailability())
	}
	return r.catalog.AllModels(), nil
}

// ModelInfo looks up the cataloged descriptor for a model name, resolving the
// namespace prefix first.
func (r *Router) ModelInfo(ctx context.Context, name string) (llm.ModelInfo, bool, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return llm.ModelInfo{}, false, err
	}
	service, bare, err := r.catalog.Resolve(name, r.cfg.PreferredServiceType(), r.snapshotAvailability())
	if err != nil {
		return llm.ModelInfo{}, false, err
	}
	model, ok := r.catalog.Find(service, bare)
	return model, ok, nil
}

// Generate resolves the model name, fails fast when the resolved service is
// known to be down, and dispatches the prompt to that service. Call failures
// are not swallowed and never re-routed to another service.
func (r *Router) Generate(ctx context.Context, model, prompt string, options map[string]any) (llm.Response, error) {
	client, service, bare, err := r.dispatchTarget(ctx, "generate", model)
	if err != nil {
		return llm.Response{}, err
	}

	resp, err := client.Generate(ctx, llm.GenerateRequest{Model: bare, Prompt: prompt, Options: options})
	if err != nil {
		logging.LogEvent("router: generate via %s failed: %v", service, err)
		return llm.Response{}, err
	}
	return resp, nil
}

// Chat resolves the model name, fails fast when the resolved service is known
// to be down, and dispatches the conversation to that service.
func (r *Router) Chat(ctx context.Context, model string, messages []llm.ChatMessage, options map[string]any) (llm.Response, error) {
	client, service, bare, err := r.dispatchTarget(ctx, "chat", model)
	if err != nil {
		return llm.Response{}, err
	}

	resp, err := client.Chat(ctx, llm.ChatRequest{Model: bare, Messages: messages, Options: options})
	if err != nil {
		logging.LogEvent("router: chat via %s failed: %v", service, err)
		return llm.Response{}, err
	}
	return resp, nil
}

// dispatchTarget performs the shared resolution, availability gate, and
// last-used bookkeeping for generate and chat.
func (r *Router) dispatchTarget(ctx context.Context, op, model string) (llm.Client, llm.ServiceType, string, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return nil, "", "", err
	}

	avail := r.snapshotAvailability()
	service, bare, err := r.catalog.Resolve(model, r.cfg.PreferredServiceType(), avail)
	if err != nil {
		return nil, "", "", err
	}
	if !avail[service] {
		return nil, "", "", llm.NewError(service, op, model, llm.ErrServiceUnavailable)
	}
	client := r.clients[service]
	if client == nil {
		return nil, "", "", llm.NewError(service, op, model, llm.ErrServiceUnavailable)
	}

	r.touch(model)
	return client, service, bare, nil
}

// touch records when a model was last dispatched to. Bookkeeping for a future
// cache eviction policy; nothing reads it on the hot path.
func (r *Router) touch(model string) {
	r.stateMu.Lock()
	r.lastUsed[model] = time.Now()
	r.stateMu.Unlock()
}

// LastUsed reports when a model was last dispatched to, if ever.
func (r *Router) LastUsed(model string) (time.Time, bool) {
	r.stateMu.RLock()
	defer r.stateMu.RUnlock()
	t, ok := r.lastUsed[model]
	return t, ok
}

// AvailableServices returns the last health snapshot without probing.
func (r *Router) AvailableServices(ctx context.Context) (map[llm.ServiceType]bool, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	return r.snapshotAvailability(), nil
}

// HealthCheck forces a fresh probe of every backend, replaces the cached
// snapshot, and returns the new one.
func (r *Router) HealthCheck(ctx context.Context) (map[llm.ServiceType]bool, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return nil, err
	}
	avail := CheckAll(ctx, r.clients)
	r.setAvailability(avail)
	return avail.clone(), nil
}

// Recommend delegates to the catalog's tiered model recommendation. An empty
// result means the catalog is empty.
func (r *Router) Recommend(ctx context.Context) (string, error) {
	if err := r.ensureInitialized(ctx); err != nil {
		return "", err
	}
	return r.catalog.Recommend(), nil
}

// Cleanup closes every backend client, clears the catalog and health state,
// and resets the router to Uninitialized. Safe to call repeatedly and safe to
// call when Initialize never completed.
func (r *Router) Cleanup() error {
	r.initMu.Lock()
	defer r.initMu.Unlock()

	var firstErr error
	for _, client := range r.clients {
		if err := client.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.clients = nil
	r.catalog.Clear()

	r.stateMu.Lock()
	r.availability = nil
	r.lastUsed = make(map[string]time.Time)
	r.stateMu.Unlock()

	r.initialized = false
	logging.LogEvent("router: cleaned up")
	return firstErr
}

func availableNames(avail Availability) []string {
	var names []string
	for _, service := range llm.Services {
		if avail[service] {
			names = append(names, string(service))
		}
	}
	return names
}
