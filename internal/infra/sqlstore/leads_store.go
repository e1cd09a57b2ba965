package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/hoclconnect/leads/internal/domain"
)

// ============================================================
// Leads
// ============================================================

const leadColumns = `id, created_at, intent, industry, amount_band, cadence, timeline,
	strength_choice, format, packaging_goal, ack_purity, notes, companion_interest,
	region_pref, company, contact_name, email, phone, experience_level,
	unknown_fields, requirements, score, status`

// CreateLead inserts a lead with a fresh id and creation time.
func (s *Store) CreateLead(ctx context.Context, in *domain.LeadInput) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.CreateLead")
	defer span.End()

	lead := &domain.Lead{
		ID:        s.newID(),
		CreatedAt: s.timestamp(),
		LeadInput: *in,
	}
	if lead.Status == "" {
		lead.Status = domain.StatusNew
	}
	span.SetAttributes(attribute.String("lead.id", lead.ID))

	var unknown []byte
	if lead.UnknownFields != nil {
		b, err := json.Marshal(lead.UnknownFields)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "create_lead", Err: fmt.Errorf("encode unknown_fields: %w", err)}
		}
		unknown = b
	}

	query := s.dialect.rebind(`INSERT INTO leads (` + leadColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		lead.ID,
		s.dialect.timeArg(lead.CreatedAt),
		string(lead.Intent),
		lead.Industry,
		lead.AmountBand,
		lead.Cadence,
		lead.Timeline,
		lead.StrengthChoice,
		lead.Format,
		lead.PackagingGoal,
		lead.AckPurity,
		lead.Notes,
		lead.CompanionInterest,
		lead.RegionPref,
		lead.Company,
		lead.ContactName,
		lead.Email,
		lead.Phone,
		lead.ExperienceLevel,
		jsonArg(unknown),
		jsonArg(lead.Requirements),
		lead.Score,
		lead.Status,
	)
	if err != nil {
		s.logger.Error("sqlstore: insert lead failed", zap.String("lead_id", lead.ID), zap.Error(err))
		return nil, &domain.ErrStorage{Op: "create_lead", Err: err}
	}
	return lead, nil
}

// ListLeads returns every lead, oldest first.
func (s *Store) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.ListLeads")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT `+leadColumns+` FROM leads ORDER BY created_at, id`)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list_leads", Err: err}
	}
	defer rows.Close()

	leads := make([]domain.Lead, 0)
	for rows.Next() {
		var l domain.Lead
		if err := scanLead(rows, &l); err != nil {
			return nil, &domain.ErrStorage{Op: "list_leads", Err: err}
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list_leads", Err: err}
	}
	span.SetAttributes(attribute.Int("leads.count", len(leads)))
	return leads, nil
}

// GetLead returns the lead with id or *domain.ErrNotFound.
func (s *Store) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+leadColumns+` FROM leads WHERE id = ?`), id)

	var l domain.Lead
	if err := scanLead(row, &l); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
		}
		return nil, &domain.ErrStorage{Op: "get_lead", Err: err}
	}
	return &l, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLead(r rowScanner, l *domain.Lead) error {
	var (
		intent       string
		unknown      sql.NullString
		requirements sql.NullString
	)
	err := r.Scan(
		&l.ID,
		timeScanner{&l.CreatedAt},
		&intent,
		&l.Industry,
		&l.AmountBand,
		&l.Cadence,
		&l.Timeline,
		&l.StrengthChoice,
		&l.Format,
		&l.PackagingGoal,
		&l.AckPurity,
		&l.Notes,
		&l.CompanionInterest,
		&l.RegionPref,
		&l.Company,
		&l.ContactName,
		&l.Email,
		&l.Phone,
		&l.ExperienceLevel,
		&unknown,
		&requirements,
		&l.Score,
		&l.Status,
	)
	if err != nil {
		return err
	}
	l.Intent = domain.Intent(intent)
	if unknown.Valid && unknown.String != "" {
		if err := json.Unmarshal([]byte(unknown.String), &l.UnknownFields); err != nil {
			return fmt.Errorf("decode unknown_fields: %w", err)
		}
	}
	if requirements.Valid && requirements.String != "" {
		l.Requirements = json.RawMessage(requirements.String)
	}
	return nil
}
