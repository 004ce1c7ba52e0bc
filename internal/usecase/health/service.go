package health

import (
	"context"
	"sync"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the record store works but the gateway does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the record store is unavailable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

const defaultCheckTimeout = 5 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	gateway GatewayChecker
	timeout time.Duration
}

// New creates a Service. gateway can be nil.
func New(db DBPinger, gateway GatewayChecker) *Service {
	return &Service{db: db, gateway: gateway, timeout: defaultCheckTimeout}
}

// WithTimeout bounds each individual check.
func (s *Service) WithTimeout(d time.Duration) *Service {
	if d > 0 {
		s.timeout = d
	}
	return s
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]CheckResult)
	)

	run := func(name string, fn func(context.Context) error) {
		defer wg.Done()
		cctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		res := CheckOK
		if err := fn(cctx); err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	wg.Add(1)
	go run("database", s.db.Ping)
	if s.gateway != nil {
		wg.Add(1)
		go run("gateway", s.gateway.HealthCheck)
	}
	wg.Wait()

	status := Healthy
	switch {
	case checks["database"] == CheckError:
		status = Unhealthy
	case checks["gateway"] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
