package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCheck(status HealthStatus) HealthChecker {
	return func(ctx context.Context) HealthCheckResult {
		return HealthCheckResult{Status: status}
	}
}

func TestHealthRegistry_Check(t *testing.T) {
	t.Run("runs every registered check", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", staticCheck(HealthStatusHealthy))
		registry.Register("redis", staticCheck(HealthStatusDegraded))

		results := registry.Check(context.Background())

		require.Len(t, results, 2)
		assert.Equal(t, HealthStatusHealthy, results["database"].Status)
		assert.Equal(t, HealthStatusDegraded, results["redis"].Status)
		assert.False(t, results["database"].CheckedAt.IsZero())
	})

	t.Run("re-registering a name replaces the check", func(t *testing.T) {
		registry := NewHealthRegistry()
		registry.Register("database", staticCheck(HealthStatusUnhealthy))
		registry.Register("database", staticCheck(HealthStatusHealthy))

		results := registry.Check(context.Background())

		require.Len(t, results, 1)
		assert.Equal(t, HealthStatusHealthy, results["database"].Status)
	})
}

func TestHealthRegistry_GetOverallHealth(t *testing.T) {
	tests := []struct {
		name     string
		statuses []HealthStatus
		expected HealthStatus
	}{
		{"empty registry is healthy", nil, HealthStatusHealthy},
		{"all healthy", []HealthStatus{HealthStatusHealthy, HealthStatusHealthy}, HealthStatusHealthy},
		{"degraded wins over healthy", []HealthStatus{HealthStatusHealthy, HealthStatusDegraded}, HealthStatusDegraded},
		{"unhealthy wins over degraded", []HealthStatus{HealthStatusDegraded, HealthStatusUnhealthy, HealthStatusHealthy}, HealthStatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			registry := NewHealthRegistry()
			for i, status := range tt.statuses {
				registry.Register(string(rune('a'+i)), staticCheck(status))
			}

			overall := registry.GetOverallHealth(context.Background())

			assert.Equal(t, tt.expected, overall.Status)
			assert.Len(t, overall.Checks, len(tt.statuses))
			assert.False(t, overall.CheckedAt.IsZero())
		})
	}
}

func TestDatabaseHealthChecker(t *testing.T) {
	t.Run("healthy on successful ping", func(t *testing.T) {
		check := DatabaseHealthChecker(func(ctx context.Context) error { return nil })

		result := check(context.Background())

		assert.Equal(t, HealthStatusHealthy, result.Status)
		assert.Empty(t, result.Message)
	})

	t.Run("unhealthy on failed ping", func(t *testing.T) {
		check := DatabaseHealthChecker(func(ctx context.Context) error {
			return errors.New("connection refused")
		})

		result := check(context.Background())

		assert.Equal(t, HealthStatusUnhealthy, result.Status)
		assert.Contains(t, result.Message, "database unreachable")
		assert.Contains(t, result.Message, "connection refused")
	})
}

func TestSoftDependencyCheckers(t *testing.T) {
	// Redis, RabbitMQ and routing all have fallbacks, so their failures
	// grade the service degraded rather than unhealthy.
	boom := errors.New("boom")
	tests := []struct {
		name    string
		checker HealthChecker
		message string
	}{
		{
			name:    "redis",
			checker: RedisHealthChecker(func(ctx context.Context) error { return boom }),
			message: "travel cache unreachable",
		},
		{
			name:    "rabbitmq",
			checker: RabbitMQHealthChecker(func(ctx context.Context) error { return boom }),
			message: "event broker unreachable",
		},
		{
			name:    "routing",
			checker: RoutingHealthChecker(func(ctx context.Context) error { return boom }),
			message: "routing service unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.checker(context.Background())

			assert.Equal(t, HealthStatusDegraded, result.Status)
			assert.Contains(t, result.Message, tt.message)
		})
	}
}
