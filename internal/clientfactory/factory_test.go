// internal/clientfactory/factory_test.go
package clientfactory

import (
	"testing"

	"github.com/modelmux/modelmux/internal/appconfig"
	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/metrics"
)

func TestNewClients(t *testing.T) {
	t.Parallel()

	cfg := &appconfig.Config{}
	cfg.ApplyDefaults()

	clients, err := NewClients(cfg)
	if err != nil {
		t.Fatalf("NewClients returned error: %v", err)
	}

	if len(clients) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(clients))
	}
	for _, service := range llm.Services {
		client, ok := clients[service]
		if !ok {
			t.Fatalf("missing client for %s", service)
		}
		if client.Service() != service {
			t.Fatalf("client for %s reports %s", service, client.Service())
		}
	}
}

func TestNewClientsNilConfig(t *testing.T) {
	t.Parallel()

	if _, err := NewClients(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestNewClientsMetricsDecorated(t *testing.T) {
	t.Parallel()

	cfg := &appconfig.Config{Metrics: true}
	cfg.ApplyDefaults()

	clients, err := NewClients(cfg)
	if err != nil {
		t.Fatalf("NewClients returned error: %v", err)
	}

	for service, client := range clients {
		if _, ok := client.(*metrics.Client); !ok {
			t.Fatalf("client for %s is not metrics-decorated: %T", service, client)
		}
	}
}
