package rest

import (
	"context"
	"time"
)

// Pinger is anything whose liveness the health endpoint reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingerFunc adapts a plain function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) Ping(ctx context.Context) error { return f(ctx) }

// HealthService aggregates dependency liveness for /healthz.
type HealthService struct {
	deps map[string]Pinger
}

// HealthStatus is the /healthz response body.
type HealthStatus struct {
	Healthy bool              `json:"healthy"`
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// NewHealthService creates a health service over named dependencies.
func NewHealthService(deps map[string]Pinger) *HealthService {
	return &HealthService{deps: deps}
}

// Check pings every dependency with a short deadline.
func (s *HealthService) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := HealthStatus{Healthy: true, Status: "ok", Checks: map[string]string{}}
	for name, dep := range s.deps {
		if err := dep.Ping(ctx); err != nil {
			status.Healthy = false
			status.Status = "degraded"
			status.Checks[name] = err.Error()
			continue
		}
		status.Checks[name] = "ok"
	}
	return status
}
