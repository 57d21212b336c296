package health

import "context"

// Pinger checks backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CompletionChecker checks language model provider availability.
type CompletionChecker interface {
	HealthCheck(ctx context.Context) error
}
