// internal/clientfactory/factory.go

// Package clientfactory builds the set of backend clients the router owns.
package clientfactory

import (
	"fmt"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/llm/lmstudio"
	"github.com/modelmux/modelmux/internal/llm/ollama"
	"github.com/modelmux/modelmux/internal/logging"
	"github.com/modelmux/modelmux/internal/metrics"
)

// NewClients constructs one client per configured backend service and, when
// metrics collection is enabled, wraps each with the metrics decorator.
func NewClients(cfg *appconfig.Config) (map[llm.ServiceType]llm.Client, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config provided to client factory")
	}

	clients := map[llm.ServiceType]llm.Client{
		llm.ServiceOllama:   ollama.New(cfg),
		llm.ServiceLMStudio: lmstudio.New(cfg),
	}

	if cfg.Metrics {
		aggregator := metrics.GetInstance()
		for service, client := range clients {
			clients[service] = metrics.NewClient(client, aggregator)
		}
		logging.LogEvent("clientfactory: metrics collection enabled")
	}

	return clients, nil
}
