// internal/router/catalog.go
package router

import (
	"context"
	"strings"
	"sync"

	"github.com/modelmux/modelmux/internal/llm"
	"github.com/modelmux/modelmux/internal/logging"
)

// Catalog owns the union of every backend's model list under the
// "<service>:<bare-name>" namespace and resolves names back to a
// (service, bare-name) pair. Per-service entries are replaced wholesale, so a
// reader sees either the old or the new list for a service, never a partial
// one.
type Catalog struct {
	order            []llm.ServiceType
	recommendService llm.ServiceType
	recommendKeyword string

	mu        sync.RWMutex
	models    map[llm.ServiceType][]llm.ModelInfo
	populated bool
}

// NewCatalog creates an empty catalog. Services are iterated in the given
// order for aggregation and bare-name resolution. The recommend preferences
// drive the tiered fallback in Recommend.
func NewCatalog(order []llm.ServiceType, recommendService llm.ServiceType, recommendKeyword string) *Catalog {
	return &Catalog{
		order:            order,
		recommendService: recommendService,
		recommendKeyword: recommendKeyword,
		models:           make(map[llm.ServiceType][]llm.ModelInfo),
	}
}

// Refresh fetches the model list of every service currently marked available
// and stores namespaced copies. A failing service gets an empty entry and is
// logged; it never aborts the refresh of the others.
func (c *Catalog) Refresh(ctx context.Context, clients map[llm.ServiceType]llm.Client, avail Availability) {
	for _, service := range c.order {
		client := clients[service]
		if client == nil || !avail[service] {
			continue
		}

		models, err := client.ListModels(ctx)
		if err != nil {
			logging.LogEvent("catalog: could not list %s models: %v", service, err)
			c.store(service, nil)
			continue
		}

		namespaced := make([]llm.ModelInfo, len(models))
		for i, model := range models {
			// model is a copy; the namespaced descriptor is a new value and
			// the client's slice is left untouched.
			model.Name = service.Prefix() + model.Name
			namespaced[i] = model
		}
		c.store(service, namespaced)
		logging.LogEvent("catalog: loaded %d %s models", len(namespaced), service)
	}

	c.mu.Lock()
	c.populated = true
	c.mu.Unlock()
}

func (c *Catalog) store(service llm.ServiceType, models []llm.ModelInfo) {
	c.mu.Lock()
	c.models[service] = models
	c.mu.Unlock()
}

// Populated reports whether Refresh has completed at least once since the
// catalog was created or cleared.
func (c *Catalog) Populated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.populated
}

// AllModels flattens the per-service lists in service order, preserving each
// backend's own list order.
func (c *Catalog) AllModels() []llm.ModelInfo {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var all []llm.ModelInfo
	for _, service := range c.order {
		all = append(all, c.models[service]...)
	}
	return all
}

// Resolve maps a model name to the service that should serve it and the bare
// backend-local name. A recognized "<service>:" prefix wins outright; a bare
// name goes to the preferred service when one is set, otherwise to the first
// service marked available. Existence of the bare name is not validated; the
// backend reports that at call time.
func (c *Catalog) Resolve(name string, preferred llm.ServiceType, avail Availability) (llm.ServiceType, string, error) {
	for _, service := range c.order {
		if prefix := service.Prefix(); strings.HasPrefix(name, prefix) {
			return service, strings.TrimPrefix(name, prefix), nil
		}
	}

	if preferred != llm.ServiceAuto && preferred != "" {
		return preferred, name, nil
	}

	for _, service := range c.order {
		if avail[service] {
			return service, name, nil
		}
	}
	return "", "", llm.ErrNoServiceAvailable
}

// Recommend picks a model using a layered fallback: a model from the
// preferred recommend service whose name contains the configured keyword,
// else any model from that service, else the first cataloged model. Returns
// an empty string only when the catalog is empty.
func (c *Catalog) Recommend() string {
	all := c.AllModels()
	if len(all) == 0 {
		return ""
	}

	marker := string(c.recommendService)
	keyword := strings.ToLower(c.recommendKeyword)

	for _, model := range all {
		if strings.Contains(model.Name, marker) && strings.Contains(strings.ToLower(model.Name), keyword) {
			return model.Name
		}
	}
	for _, model := range all {
		if strings.Contains(model.Name, marker) {
			return model.Name
		}
	}
	return all[0].Name
}

// Find returns the cataloged descriptor whose namespaced name contains the
// given bare name within the given service's entry.
func (c *Catalog) Find(service llm.ServiceType, bareName string) (llm.ModelInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, model := range c.models[service] {
		if strings.Contains(model.Name, bareName) {
			return model, true
		}
	}
	return llm.ModelInfo{}, false
}

// Clear drops every entry and marks the catalog unpopulated.
func (c *Catalog) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = make(map[llm.ServiceType][]llm.ModelInfo)
	c.populated = false
}
