// Package port defines the interfaces (ports) that the service layer depends on.
// Infrastructure adapters (SQL store, Redis, RabbitMQ, SMTP) implement these.
package port

import (
	"context"
	"time"

	"github.com/hoclconnect/leads/internal/domain"
)

// LeadStore persists leads. There is no update or delete path.
type LeadStore interface {
	CreateLead(ctx context.Context, in *domain.LeadInput) (*domain.Lead, error)
	ListLeads(ctx context.Context) ([]domain.Lead, error)
	GetLead(ctx context.Context, id string) (*domain.Lead, error)
	Ping(ctx context.Context) error
}

// PartnerStore handles the partner directory.
type PartnerStore interface {
	CreatePartner(ctx context.Context, p *domain.Partner) (*domain.Partner, error)
	ListPartners(ctx context.Context) ([]domain.Partner, error)
	GetPartner(ctx context.Context, id string) (*domain.Partner, error)
}

// MatchStore records lead/partner introductions.
type MatchStore interface {
	CreateMatch(ctx context.Context, m *domain.Match) (*domain.Match, error)
	ListMatches(ctx context.Context) ([]domain.Match, error)
}

// IdempotencyStore remembers which lead an Idempotency-Key produced and a
// fingerprint of the request body. Lookup returns ok=false when the key is
// unknown or expired. Remember keeps the first record for a key.
type IdempotencyStore interface {
	Lookup(ctx context.Context, key string) (rec domain.IdempotencyRecord, ok bool, err error)
	Remember(ctx context.Context, key string, rec domain.IdempotencyRecord, ttl time.Duration) error
}

// LeadNotifier is told about every newly persisted lead.
type LeadNotifier interface {
	Name() string
	NotifyLeadCreated(ctx context.Context, lead *domain.Lead) error
}

