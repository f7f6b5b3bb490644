// Package metrics provides Prometheus instrumentation for authentication
// and authorization outcomes.
//
// Metrics are opt-in: when InitRegistry has not been called, constructors
// return nil and all recording paths are no-ops.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

var (
	mu       sync.Mutex
	registry *prometheus.Registry
)

// InitRegistry creates the process-wide metrics registry with the
// standard Go runtime and process collectors. Calling it again is a
// no-op.
func InitRegistry() {
	mu.Lock()
	defer mu.Unlock()

	if registry != nil {
		return
	}

	registry = prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// IsEnabled reports whether metrics collection is active.
func IsEnabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return registry != nil
}

// GetRegistry returns the process-wide registry, or nil when metrics are
// disabled.
func GetRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	return registry
}
