package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/service"
)

const (
	maxBodyBytes = 1 << 20

	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

// ============================================================
// Leads
// ============================================================

func createLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/leads")
		defer span.End()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				handleServiceError(w, &domain.ErrValidation{Issues: []domain.Issue{
					domain.NewIssue("", domain.CodeInvalidValue, "Request body too large"),
				}}, "", logger)
				return
			}
			handleServiceError(w, malformedBody(), "", logger)
			return
		}

		key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
		res, err := leadSvc.Create(ctx, body, key)
		if err != nil {
			handleServiceError(w, err, "failed to persist lead", logger)
			return
		}

		span.SetAttributes(attribute.String("lead.id", res.Lead.ID))
		if res.Replayed {
			w.Header().Set(replayedHeader, "true")
		}
		writeSuccess(w, http.StatusCreated, res.Lead, "Lead created successfully")
	}
}

func listLeadsHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/leads")
		defer span.End()

		leads, err := leadSvc.List(ctx)
		if err != nil {
			handleServiceError(w, err, "", logger)
			return
		}

		span.SetAttributes(attribute.Int("leads.count", len(leads)))
		logger.Info("admin listed leads",
			zap.String("admin", SubjectFromContext(ctx)),
			zap.Int("count", len(leads)),
		)
		writeSuccess(w, http.StatusOK, leads, "")
	}
}

func getLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/leads/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		span.SetAttributes(attribute.String("lead.id", id))

		lead, err := leadSvc.Get(ctx, id)
		if err != nil {
			handleServiceError(w, err, "", logger)
			return
		}

		logger.Info("admin read lead",
			zap.String("admin", SubjectFromContext(ctx)),
			zap.String("lead_id", lead.ID),
		)
		writeSuccess(w, http.StatusOK, lead, "")
	}
}

func malformedBody() error {
	return &domain.ErrValidation{Issues: []domain.Issue{
		domain.NewIssue("", domain.CodeInvalidType, "Malformed request body"),
	}}
}
