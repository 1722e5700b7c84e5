// internal/metrics/client.go
package metrics

import (
	"context"
	"time"

	"github.com/modelmux/modelmux/internal/llm"
)

// Client is a decorator that wraps an llm.Client to record call statistics.
type Client struct {
	wrapped    llm.Client
	aggregator *Aggregator
}

// NewClient creates a metrics-enabled client around an existing one.
func NewClient(wrapped llm.Client, aggregator *Aggregator) *Client {
	return &Client{wrapped: wrapped, aggregator: aggregator}
}

// Service passes the call through to the wrapped client.
func (c *Client) Service() llm.ServiceType {
	return c.wrapped.Service()
}

// ListModels records timing around the wrapped call.
func (c *Client) ListModels(ctx context.Context) ([]llm.ModelInfo, error) {
	start := time.Now()
	models, err := c.wrapped.ListModels(ctx)
	c.aggregator.Record(c.wrapped.Service(), time.Since(start), err)
	return models, err
}

// Generate records timing around the wrapped call.
func (c *Client) Generate(ctx context.Context, req llm.GenerateRequest) (llm.Response, error) {
	start := time.Now()
	resp, err := c.wrapped.Generate(ctx, req)
	c.aggregator.Record(c.wrapped.Service(), time.Since(start), err)
	return resp, err
}

// Chat records timing around the wrapped call.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.Response, error) {
	start := time.Now()
	resp, err := c.wrapped.Chat(ctx, req)
	c.aggregator.Record(c.wrapped.Service(), time.Since(start), err)
	return resp, err
}

// HealthCheck records timing around the wrapped call.
func (c *Client) HealthCheck(ctx context.Context) error {
	start := time.Now()
	err := c.wrapped.HealthCheck(ctx)
	c.aggregator.Record(c.wrapped.Service(), time.Since(start), err)
	return err
}

// Close passes the call through to the wrapped client.
func (c *Client) Close() error {
	return c.wrapped.Close()
}
