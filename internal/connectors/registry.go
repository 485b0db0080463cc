package connectors

import (
	"io"
	"sync"

	"distributorsearch_api/internal/core/models"
)

// Constructor builds a connector from a supplier config. The writer receives
// connector log output, following the client convention of the HTTP clients.
type Constructor func(cfg models.SupplierConfig, writer io.Writer) Connector

// Registry maps supplier slugs to connector constructors. Pure lookup table;
// registration happens at process start, no network activity here.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// DefaultRegistry returns a registry preloaded with the built-in supplier
// connectors.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register("mustek", func(cfg models.SupplierConfig, writer io.Writer) Connector {
		return NewMustekConnector(cfg, writer)
	})
	r.Register("axiz", func(cfg models.SupplierConfig, writer io.Writer) Connector {
		return NewAxizConnector(cfg, writer)
	})
	r.Register("tarsus", func(cfg models.SupplierConfig, writer io.Writer) Connector {
		return NewTarsusConnector(cfg, writer)
	})
	return r
}

func (r *Registry) Register(slug string, ctor Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[slug] = ctor
}

// Get resolves a supplier config to a connector instance. Unregistered slugs
// resolve to the BaseConnector, whose fetches fail with ErrNotImplemented.
func (r *Registry) Get(cfg models.SupplierConfig, writer io.Writer) Connector {
	r.mu.RLock()
	ctor, ok := r.constructors[cfg.Slug]
	r.mu.RUnlock()
	if !ok {
		return NewBaseConnector(cfg)
	}
	return ctor(cfg, writer)
}

// Slugs lists registered slugs, mainly for startup logging.
func (r *Registry) Slugs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	slugs := make([]string, 0, len(r.constructors))
	for s := range r.constructors {
		slugs = append(slugs, s)
	}
	return slugs
}
