package redpanda

import (
	"context"

	"github.com/drfirst/dental-claims/internal/domain/claim"
	"github.com/drfirst/dental-claims/pkg/circuitbreaker"
)

// GuardedPublisher sends events through a circuit breaker. While the circuit
// is open events are dropped without contacting the broker.
type GuardedPublisher struct {
	next    claim.Publisher
	breaker *circuitbreaker.CircuitBreaker
}

// NewGuardedPublisher wraps next with breaker.
func NewGuardedPublisher(next claim.Publisher, breaker *circuitbreaker.CircuitBreaker) *GuardedPublisher {
	return &GuardedPublisher{next: next, breaker: breaker}
}

// Publish implements claim.Publisher.
func (g *GuardedPublisher) Publish(ctx context.Context, topic, key string, value []byte) error {
	_, err := g.breaker.Execute(ctx, func() (interface{}, error) {
		return nil, g.next.Publish(ctx, topic, key, value)
	})
	return err
}
