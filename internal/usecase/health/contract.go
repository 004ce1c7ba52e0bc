package health

import "context"

// DBPinger checks record store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GatewayChecker checks file-search API availability.
type GatewayChecker interface {
	HealthCheck(ctx context.Context) error
}
