// Package service holds the lead intake use cases: schema validation,
// idempotent lead creation with notifier fan-out, and admin authentication.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/infra/observability"
	"github.com/hoclconnect/leads/internal/infra/resilience"
	"github.com/hoclconnect/leads/internal/port"
)

var leadTracer = otel.Tracer("service/leads")

const (
	defaultNotifyTimeout     = 10 * time.Second
	defaultNotifyConcurrency = 8
)

// LeadService validates, persists and announces leads.
type LeadService struct {
	store   port.LeadStore
	metrics *observability.Metrics
	logger  *zap.Logger

	idem    port.IdempotencyStore
	idemTTL time.Duration
	flight  singleflight.Group

	notifiers     []port.LeadNotifier
	notifyTimeout time.Duration
	bulkhead      *resilience.Bulkhead
	pending       sync.WaitGroup
}

// LeadServiceOption configures optional collaborators.
type LeadServiceOption func(*LeadService)

// WithIdempotency enables Idempotency-Key handling backed by store.
func WithIdempotency(store port.IdempotencyStore, ttl time.Duration) LeadServiceOption {
	return func(s *LeadService) {
		s.idem = store
		s.idemTTL = ttl
	}
}

// WithNotifiers registers notifiers told about every new lead.
func WithNotifiers(n ...port.LeadNotifier) LeadServiceOption {
	return func(s *LeadService) { s.notifiers = append(s.notifiers, n...) }
}

// WithNotifyTimeout bounds each notification round.
func WithNotifyTimeout(d time.Duration) LeadServiceOption {
	return func(s *LeadService) { s.notifyTimeout = d }
}

// NewLeadService creates the lead service with all dependencies injected.
func NewLeadService(store port.LeadStore, metrics *observability.Metrics, logger *zap.Logger, opts ...LeadServiceOption) *LeadService {
	s := &LeadService{
		store:         store,
		metrics:       metrics,
		logger:        logger,
		notifyTimeout: defaultNotifyTimeout,
		bulkhead:      resilience.NewBulkhead(defaultNotifyConcurrency),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateResult is the outcome of Create. Replayed is true when the lead came
// from an earlier request with the same Idempotency-Key.
type CreateResult struct {
	Lead     *domain.Lead
	Replayed bool
}

// Create validates body and persists a new lead. With a non-empty
// idempotencyKey, a repeated key with the same validated body returns the
// first lead instead of inserting again; concurrent repeats in this process
// share one insert. A repeated key with a different body is an ErrConflict.
func (s *LeadService) Create(ctx context.Context, body []byte, idempotencyKey string) (*CreateResult, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Create")
	defer span.End()

	in, err := ValidateLead(body)
	if err != nil {
		s.metrics.IncrValidationFailure()
		return nil, err
	}

	// the client score is only a preview
	in.Score = in.QualityScore()
	if !domain.KnownStatus(in.Status) {
		s.logger.Warn("lead status outside known values",
			zap.String("status", in.Status),
		)
	}
	span.SetAttributes(
		attribute.String("lead.intent", string(in.Intent)),
		attribute.Int("lead.score", in.Score),
	)

	if idempotencyKey == "" || s.idem == nil {
		lead, err := s.insert(ctx, in)
		if err != nil {
			return nil, err
		}
		return &CreateResult{Lead: lead}, nil
	}

	fp, err := fingerprint(in)
	if err != nil {
		return nil, err
	}

	executed := false
	v, err, _ := s.flight.Do(idempotencyKey, func() (any, error) {
		executed = true
		res, err := s.createOnce(ctx, in, idempotencyKey, fp)
		if err != nil {
			return nil, err
		}
		return &flightResult{res: res, fingerprint: fp}, nil
	})
	if err != nil {
		return nil, err
	}

	shared := v.(*flightResult)
	res := shared.res
	if !executed {
		if shared.fingerprint != fp {
			return nil, s.keyReused(idempotencyKey)
		}
		res = &CreateResult{Lead: res.Lead, Replayed: true}
	}
	if res.Replayed {
		s.metrics.IncrIdempotentReplay()
		span.SetAttributes(attribute.Bool("lead.replayed", true))
	}
	return res, nil
}

type flightResult struct {
	res         *CreateResult
	fingerprint string
}

func (s *LeadService) createOnce(ctx context.Context, in *domain.LeadInput, key, fp string) (*CreateResult, error) {
	rec, ok, err := s.idem.Lookup(ctx, key)
	switch {
	case err != nil:
		s.logger.Warn("idempotency lookup failed, creating lead", zap.Error(err))
	case ok && rec.Fingerprint != fp:
		return nil, s.keyReused(key)
	case ok:
		lead, err := s.store.GetLead(ctx, rec.LeadID)
		if err == nil {
			return &CreateResult{Lead: lead, Replayed: true}, nil
		}
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			s.metrics.IncrStorageError("get_lead")
			return nil, err
		}
		s.logger.Warn("idempotency key points at missing lead", zap.String("lead_id", rec.LeadID))
	}

	lead, err := s.insert(ctx, in)
	if err != nil {
		return nil, err
	}
	if err := s.idem.Remember(ctx, key, domain.IdempotencyRecord{LeadID: lead.ID, Fingerprint: fp}, s.idemTTL); err != nil {
		s.logger.Warn("failed to remember idempotency key",
			zap.String("lead_id", lead.ID),
			zap.Error(err),
		)
	}
	return &CreateResult{Lead: lead}, nil
}

// keyReused reports a reused key without revealing the stored lead.
func (s *LeadService) keyReused(key string) error {
	s.logger.Warn("idempotency key reused with a different body", zap.String("key", key))
	return &domain.ErrConflict{Message: "Idempotency-Key was already used for a different request"}
}

// fingerprint hashes the validated input, so formatting differences in the
// raw body do not count as a different request.
func fingerprint(in *domain.LeadInput) (string, error) {
	raw, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("fingerprint lead: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), nil
}

func (s *LeadService) insert(ctx context.Context, in *domain.LeadInput) (*domain.Lead, error) {
	lead, err := s.store.CreateLead(ctx, in)
	if err != nil {
		s.metrics.IncrStorageError("create_lead")
		s.logger.Error("failed to persist lead",
			zap.String("intent", string(in.Intent)),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.IncrLeadCreated(string(lead.Intent))
	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID),
		zap.String("intent", string(lead.Intent)),
		zap.Int("score", lead.Score),
	)
	s.notify(ctx, lead)
	return lead, nil
}

// notify fans out to every notifier in the background. Failures are logged
// and counted; they never reach the submitter.
func (s *LeadService) notify(ctx context.Context, lead *domain.Lead) {
	if len(s.notifiers) == 0 {
		return
	}

	s.pending.Add(1)
	go func() {
		defer s.pending.Done()

		nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notifyTimeout)
		defer cancel()

		var g errgroup.Group
		for _, n := range s.notifiers {
			g.Go(func() error {
				if err := s.bulkhead.Acquire(nctx); err != nil {
					s.notifyFailed(n, lead, err)
					return err
				}
				defer s.bulkhead.Release()

				if err := n.NotifyLeadCreated(nctx, lead); err != nil {
					s.notifyFailed(n, lead, err)
					return err
				}
				return nil
			})
		}
		_ = g.Wait()
	}()
}

func (s *LeadService) notifyFailed(n port.LeadNotifier, lead *domain.Lead, err error) {
	s.metrics.IncrNotifyError(n.Name())
	s.logger.Error("lead notification failed",
		zap.String("notifier", n.Name()),
		zap.String("lead_id", lead.ID),
		zap.Error(err),
	)
}

// Wait blocks until background notifications finish or ctx is done.
func (s *LeadService) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// List returns every lead. The slice is never nil.
func (s *LeadService) List(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.List")
	defer span.End()

	leads, err := s.store.ListLeads(ctx)
	if err != nil {
		s.metrics.IncrStorageError("list_leads")
		s.logger.Error("failed to list leads", zap.Error(err))
		return nil, err
	}
	if leads == nil {
		leads = []domain.Lead{}
	}
	return leads, nil
}

// Get returns one lead or *domain.ErrNotFound.
func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	lead, err := s.store.GetLead(ctx, id)
	if err != nil {
		var nf *domain.ErrNotFound
		if !errors.As(err, &nf) {
			s.metrics.IncrStorageError("get_lead")
			s.logger.Error("failed to get lead", zap.String("lead_id", id), zap.Error(err))
		}
		return nil, err
	}
	return lead, nil
}

// Ready checks that the store is reachable.
func (s *LeadService) Ready(ctx context.Context) error {
	return s.store.Ping(ctx)
}
