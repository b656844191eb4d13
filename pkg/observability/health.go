package observability

import (
	"context"
	"sync"
	"time"
)

// HealthStatus grades a dependency. Degraded means the service still
// works but with reduced quality (estimates instead of routed travel
// times, events queueing in the outbox).
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResult is one dependency's answer.
type HealthCheckResult struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	DurationMS int64          `json:"duration_ms"`
	CheckedAt  time.Time      `json:"checked_at"`
	Details    map[string]any `json:"details,omitempty"`
}

// HealthChecker probes one dependency.
type HealthChecker func(ctx context.Context) HealthCheckResult

// HealthRegistry holds the named dependency checks a process exposes on
// its health endpoint.
type HealthRegistry struct {
	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthRegistry creates an empty registry.
func NewHealthRegistry() *HealthRegistry {
	return &HealthRegistry{checkers: make(map[string]HealthChecker)}
}

// Register adds a named check. Registering the same name twice replaces
// the earlier check.
func (r *HealthRegistry) Register(name string, checker HealthChecker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checkers[name] = checker
}

// Check probes every registered dependency concurrently and returns the
// results by name. A slow dependency delays the response but cannot
// block the others.
func (r *HealthRegistry) Check(ctx context.Context) map[string]HealthCheckResult {
	r.mu.RLock()
	checkers := make(map[string]HealthChecker, len(r.checkers))
	for name, checker := range r.checkers {
		checkers[name] = checker
	}
	r.mu.RUnlock()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]HealthCheckResult, len(checkers))
	)

	for name, checker := range checkers {
		wg.Add(1)
		go func(name string, checker HealthChecker) {
			defer wg.Done()
			start := time.Now()
			result := checker(ctx)
			result.DurationMS = time.Since(start).Milliseconds()
			result.CheckedAt = time.Now().UTC()

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, checker)
	}
	wg.Wait()

	return results
}

// OverallHealth is the aggregated answer a health endpoint serves.
type OverallHealth struct {
	Status    HealthStatus                 `json:"status"`
	CheckedAt time.Time                    `json:"checked_at"`
	Checks    map[string]HealthCheckResult `json:"checks"`
}

// GetOverallHealth runs every check and folds the results into a single
// status: unhealthy wins over degraded wins over healthy. An empty
// registry reports healthy.
func (r *HealthRegistry) GetOverallHealth(ctx context.Context) OverallHealth {
	checks := r.Check(ctx)

	status := HealthStatusHealthy
	for _, result := range checks {
		switch result.Status {
		case HealthStatusUnhealthy:
			status = HealthStatusUnhealthy
		case HealthStatusDegraded:
			if status == HealthStatusHealthy {
				status = HealthStatusDegraded
			}
		}
	}

	return OverallHealth{
		Status:    status,
		CheckedAt: time.Now().UTC(),
		Checks:    checks,
	}
}

// DatabaseHealthChecker probes database connectivity. The database is a
// hard dependency, so failures report unhealthy.
func DatabaseHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusUnhealthy,
				Message: "database unreachable: " + err.Error(),
			}
		}
		return HealthCheckResult{Status: HealthStatusHealthy}
	}
}

// RedisHealthChecker probes the travel cache. Travel lookups work
// without Redis, so failures report degraded.
func RedisHealthChecker(ping func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := ping(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: "travel cache unreachable: " + err.Error(),
			}
		}
		return HealthCheckResult{Status: HealthStatusHealthy}
	}
}

// RabbitMQHealthChecker probes the event broker. Events queue in the
// outbox while the broker is down, so failures report degraded.
func RabbitMQHealthChecker(check func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := check(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: "event broker unreachable: " + err.Error(),
			}
		}
		return HealthCheckResult{Status: HealthStatusHealthy}
	}
}

// RoutingHealthChecker probes the routing service. Travel times fall
// back to straight-line estimates when routing is down, so failures
// report degraded.
func RoutingHealthChecker(check func(ctx context.Context) error) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		if err := check(ctx); err != nil {
			return HealthCheckResult{
				Status:  HealthStatusDegraded,
				Message: "routing service unavailable: " + err.Error(),
			}
		}
		return HealthCheckResult{Status: HealthStatusHealthy}
	}
}
