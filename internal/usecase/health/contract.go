package health

import "context"

// Pinger reaches the article store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderProbe asks the completion provider whether it accepts requests.
// Probes may cost a round-trip to a paid API, so results are cached.
type ProviderProbe interface {
	HealthCheck(ctx context.Context) error
}
