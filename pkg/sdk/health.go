package filesearch

import (
	"context"

	healthuc "github.com/kailas-cloud/filesearch/internal/usecase/health"
)

// HealthStatus is the aggregated health of the record store and the Gemini API.
//
// Status is "ok", "degraded" (Gemini unreachable) or "error" (record store
// unreachable). Checks maps "database" and "gateway" to "ok" or "error".
type HealthStatus struct {
	Status string
	Checks map[string]string
}

// CanRead reports whether stored records can be listed and fetched.
func (h HealthStatus) CanRead() bool {
	return h.Status != string(healthuc.Unhealthy)
}

// CanIngest reports whether uploads, ingestion and queries can reach Gemini.
func (h HealthStatus) CanIngest() bool {
	return h.Status == string(healthuc.Healthy)
}

// Health runs the component checks concurrently.
func (c *Client) Health(ctx context.Context) HealthStatus {
	report := c.healthSvc.Check(ctx)
	h := HealthStatus{Status: string(report.Status), Checks: make(map[string]string, len(report.Checks))}
	for name, res := range report.Checks {
		h.Checks[name] = string(res)
	}
	return h
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Report
}
