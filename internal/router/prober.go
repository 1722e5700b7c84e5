// internal/router/prober.go
package router

import (
	"context"
	"fmt"
	"sync"

	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/logging"
)

// Availability is a per-service health snapshot: service identifier to
// reachable-and-serving.
type Availability map[llm.ServiceType]bool

// clone returns an independent copy so callers never alias router state.
func (a Availability) clone() Availability {
	out := make(Availability, len(a))
	for service, up := range a {
		out[service] = up
	}
	return out
}

// CheckAll probes every client independently and returns a fresh snapshot.
// Each backend is checked concurrently and a failure, including a panic,
// records false for that service without touching any other result.
func CheckAll(ctx context.Context, clients map[llm.ServiceType]llm.Client) Availability {
	var (
		mu    sync.Mutex
		wg    sync.WaitGroup
		avail = make(Availability, len(clients))
	)

	for service, client := range clients {
		wg.Add(1)
		go func(service llm.ServiceType, client llm.Client) {
			defer wg.Done()
			err := probe(ctx, client)
			if err != nil {
				logging.LogEvent("health: %s service not available: %v", service, err)
			}
			mu.Lock()
			avail[service] = err == nil
			mu.Unlock()
		}(service, client)
	}

	wg.Wait()
	return avail
}

func probe(ctx context.Context, client llm.Client) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("health check panicked: %v", r)
		}
	}()
	return client.HealthCheck(ctx)
}
