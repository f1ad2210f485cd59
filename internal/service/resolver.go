package service

import (
	"math/rand/v2"
	"sync"

	"applet_portal/internal/domain"
)

// Resolver decides the terminal status of an execution when its
// settlement timer fires. The random resolver below is a simulation
// stand-in; a real execution backend can be substituted here without
// touching the pipeline.
type Resolver interface {
	Resolve(execution *domain.Execution) string
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(execution *domain.Execution) string

// Resolve calls the wrapped function
func (f ResolverFunc) Resolve(execution *domain.Execution) string {
	return f(execution)
}

// RandomResolver settles executions by a weighted coin flip.
type RandomResolver struct {
	SuccessRate float64 // Probability of success in [0,1]

	mu  sync.Mutex
	rng *rand.Rand // Seeded source for tests; nil uses the shared generator
}

// NewRandomResolver returns a resolver that succeeds with the given probability.
func NewRandomResolver(successRate float64) *RandomResolver {
	return &RandomResolver{SuccessRate: successRate}
}

// NewSeededResolver returns a deterministic resolver for tests.
func NewSeededResolver(successRate float64, seed uint64) *RandomResolver {
	return &RandomResolver{
		SuccessRate: successRate,
		rng:         rand.New(rand.NewPCG(seed, seed)),
	}
}

// Resolve draws one sample and returns the terminal status
func (r *RandomResolver) Resolve(_ *domain.Execution) string {
	var sample float64
	if r.rng != nil {
		r.mu.Lock()
		sample = r.rng.Float64()
		r.mu.Unlock()
	} else {
		sample = rand.Float64()
	}
	if sample < r.SuccessRate {
		return domain.StatusSuccess
	}
	return domain.StatusFailed
}
