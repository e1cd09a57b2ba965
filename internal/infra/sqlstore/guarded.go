package sqlstore

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/resilience"
	"github.com/hoclconnect/leads/internal/port"
)

// Guarded wraps a LeadStore with a per-call timeout and a circuit breaker.
// Requests are never retried.
type Guarded struct {
	next    port.LeadStore
	cb      *gobreaker.CircuitBreaker
	timeout time.Duration
}

// NewGuarded wraps next. A zero timeout disables the per-call deadline.
func NewGuarded(next port.LeadStore, timeout time.Duration, logger *zap.Logger) *Guarded {
	cb := resilience.NewCircuitBreaker("lead-store",
		resilience.WithSuccessFilter(func(err error) bool {
			var nf *domain.ErrNotFound
			return err == nil || errors.As(err, &nf)
		}),
		resilience.WithStateChange(func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}),
	)
	return &Guarded{next: next, cb: cb, timeout: timeout}
}

func guard[T any](g *Guarded, ctx context.Context, op string, fn func(context.Context) (T, error)) (T, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	res, err := g.cb.Execute(func() (any, error) {
		return fn(ctx)
	})
	if err != nil {
		var zero T
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, &domain.ErrStorage{Op: op, Err: err}
		}
		return zero, err
	}
	return res.(T), nil
}

// CreateLead implements port.LeadStore.
func (g *Guarded) CreateLead(ctx context.Context, in *domain.LeadInput) (*domain.Lead, error) {
	return guard(g, ctx, "create_lead", func(ctx context.Context) (*domain.Lead, error) {
		return g.next.CreateLead(ctx, in)
	})
}

// ListLeads implements port.LeadStore.
func (g *Guarded) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	return guard(g, ctx, "list_leads", func(ctx context.Context) ([]domain.Lead, error) {
		return g.next.ListLeads(ctx)
	})
}

// GetLead implements port.LeadStore.
func (g *Guarded) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	return guard(g, ctx, "get_lead", func(ctx context.Context) (*domain.Lead, error) {
		return g.next.GetLead(ctx, id)
	})
}

// Ping bypasses the breaker so readiness reflects the database itself.
func (g *Guarded) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

// State reports the breaker state.
func (g *Guarded) State() gobreaker.State {
	return g.cb.State()
}
