// Package health aggregates readiness checks for the scoring service's
// subsystems: the model artifact, the dataset store, and the database
// when one is configured.
package health

import (
	"context"
	"sync"
)

// Status is one subsystem's check result.
type Status struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Detail  string `json:"detail,omitempty"`
}

// Healthy builds a passing status. Detail is optional context, such as a
// dataset row count.
func Healthy(name, detail string) Status {
	return Status{Name: name, Healthy: true, Detail: detail}
}

// Unhealthy builds a failing status. Detail should say what is wrong,
// e.g. the model validation error.
func Unhealthy(name, detail string) Status {
	return Status{Name: name, Healthy: false, Detail: detail}
}

// Checker inspects one subsystem. Checkers must be safe to call
// concurrently with scoring traffic; checks that touch the dataset store
// should stay read-only.
type Checker func(ctx context.Context) Status

// Registry holds named checkers and runs them on demand for /health.
type Registry struct {
	mu     sync.RWMutex
	order  []string
	checks map[string]Checker
}

// NewRegistry creates an empty registry. With no checkers registered the
// service reports healthy.
func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]Checker)}
}

// Register adds a checker. Re-registering a name replaces the previous
// checker without changing its position in the report.
func (r *Registry) Register(name string, check Checker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.checks[name]; !exists {
		r.order = append(r.order, name)
	}
	r.checks[name] = check
}

// CheckAll runs every checker in registration order. The aggregate is
// healthy only when every check passes. Each status carries the name it
// was registered under, whatever the checker itself reported.
func (r *Registry) CheckAll(ctx context.Context) (healthy bool, statuses []Status) {
	r.mu.RLock()
	names := make([]string, len(r.order))
	copy(names, r.order)
	checks := make(map[string]Checker, len(r.checks))
	for name, check := range r.checks {
		checks[name] = check
	}
	r.mu.RUnlock()

	healthy = true
	statuses = make([]Status, 0, len(names))
	for _, name := range names {
		st := checks[name](ctx)
		st.Name = name
		if !st.Healthy {
			healthy = false
		}
		statuses = append(statuses, st)
	}
	return healthy, statuses
}
