package driven

import "context"

// HealthProbe reports whether a backing dependency is reachable.
type HealthProbe interface {
	Ping(ctx context.Context) error
}
