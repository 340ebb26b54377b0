package transport

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-surveyhooks/core"
)

// Registry maps a delivery kind (rest, form, json, query) to the adapter that
// sends it.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]core.TransportAdapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: map[string]core.TransportAdapter{}}
}

// NewDefaultRegistry registers the rest adapter and the form, json and query
// adapters, all sharing one client built from cfg.
func NewDefaultRegistry(cfg core.TransportConfig) *Registry {
	return NewRegistryWithClient(NewHTTPClient(cfg), cfg.MaxResponseBodyBytes)
}

func NewRegistryWithClient(client HTTPDoer, maxResponseBodyBytes int64) *Registry {
	rest := NewRESTAdapter(client)
	if maxResponseBodyBytes > 0 {
		rest.MaxResponseBodyBytes = maxResponseBodyBytes
	}
	registry := NewRegistry()
	for _, adapter := range []core.TransportAdapter{
		rest,
		NewFormAdapter(client).WithResponseBodyLimit(maxResponseBodyBytes),
		NewJSONAdapter(client).WithResponseBodyLimit(maxResponseBodyBytes),
		NewQueryAdapter(client).WithResponseBodyLimit(maxResponseBodyBytes),
	} {
		_ = registry.Register(adapter)
	}
	return registry
}

// Register adds adapter under its kind. A kind can be registered once.
func (r *Registry) Register(adapter core.TransportAdapter) error {
	if r == nil {
		return fmt.Errorf("transport: registry is nil")
	}
	if adapter == nil {
		return fmt.Errorf("transport: adapter is nil")
	}
	kind := normalizeKind(adapter.Kind())
	if kind == "" {
		return fmt.Errorf("transport: adapter kind is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.adapters[kind]; exists {
		return fmt.Errorf("transport: adapter kind %q already registered", kind)
	}
	r.adapters[kind] = adapter
	return nil
}

func (r *Registry) Resolve(kind string) (core.TransportAdapter, error) {
	if r == nil {
		return nil, fmt.Errorf("transport: registry is nil")
	}
	normalized := normalizeKind(kind)
	if normalized == "" {
		return nil, fmt.Errorf("transport: adapter kind is required")
	}
	r.mu.RLock()
	adapter, ok := r.adapters[normalized]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("transport: adapter kind %q not registered", normalized)
	}
	return adapter, nil
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	kinds := make([]string, 0, len(r.adapters))
	for kind := range r.adapters {
		kinds = append(kinds, kind)
	}
	slices.Sort(kinds)
	return kinds
}

func normalizeKind(kind string) string {
	return strings.TrimSpace(strings.ToLower(kind))
}

var _ core.TransportResolver = (*Registry)(nil)
