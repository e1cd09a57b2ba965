package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hoclconnect/leads/internal/domain"
)

// ============================================================
// Partners & Matches (curated by hand, no HTTP surface)
// ============================================================

const partnerColumns = `id, created_at, company_name, type, industries, regions, containers,
	ppm_ranges, moq_notes, leadtime_range_weeks, certs_summary, contact_email, active`

// CreatePartner inserts a partner with a fresh id and creation time.
func (s *Store) CreatePartner(ctx context.Context, p *domain.Partner) (*domain.Partner, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.CreatePartner")
	defer span.End()

	out := *p
	out.ID = s.newID()
	out.CreatedAt = s.timestamp()

	lists := make([]any, 0, 4)
	for _, l := range [][]string{out.Industries, out.Regions, out.Containers, out.PPMRanges} {
		if l == nil {
			l = []string{}
		}
		b, err := json.Marshal(l)
		if err != nil {
			return nil, &domain.ErrStorage{Op: "create_partner", Err: err}
		}
		lists = append(lists, string(b))
	}

	query := s.dialect.rebind(`INSERT INTO partners (` + partnerColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.ExecContext(ctx, query,
		out.ID,
		s.dialect.timeArg(out.CreatedAt),
		out.CompanyName,
		string(out.Type),
		lists[0], lists[1], lists[2], lists[3],
		out.MOQNotes,
		out.LeadtimeRangeWeeks,
		out.CertsSummary,
		out.ContactEmail,
		out.Active,
	)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "create_partner", Err: err}
	}
	return &out, nil
}

// ListPartners returns every partner, oldest first.
func (s *Store) ListPartners(ctx context.Context) ([]domain.Partner, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.ListPartners")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT `+partnerColumns+` FROM partners ORDER BY created_at, id`)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list_partners", Err: err}
	}
	defer rows.Close()

	partners := make([]domain.Partner, 0)
	for rows.Next() {
		var p domain.Partner
		if err := scanPartner(rows, &p); err != nil {
			return nil, &domain.ErrStorage{Op: "list_partners", Err: err}
		}
		partners = append(partners, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list_partners", Err: err}
	}
	return partners, nil
}

// GetPartner returns the partner with id or *domain.ErrNotFound.
func (s *Store) GetPartner(ctx context.Context, id string) (*domain.Partner, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.GetPartner")
	defer span.End()

	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT `+partnerColumns+` FROM partners WHERE id = ?`), id)
	var p domain.Partner
	if err := scanPartner(row, &p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.ErrNotFound{Resource: "partner", ID: id}
		}
		return nil, &domain.ErrStorage{Op: "get_partner", Err: err}
	}
	return &p, nil
}

func scanPartner(r rowScanner, p *domain.Partner) error {
	var (
		typ                                      string
		industries, regions, containers, ppmRang string
	)
	err := r.Scan(
		&p.ID,
		timeScanner{&p.CreatedAt},
		&p.CompanyName,
		&typ,
		&industries,
		&regions,
		&containers,
		&ppmRang,
		&p.MOQNotes,
		&p.LeadtimeRangeWeeks,
		&p.CertsSummary,
		&p.ContactEmail,
		&p.Active,
	)
	if err != nil {
		return err
	}
	p.Type = domain.Intent(typ)
	for _, f := range []struct {
		raw  string
		dest *[]string
	}{
		{industries, &p.Industries},
		{regions, &p.Regions},
		{containers, &p.Containers},
		{ppmRang, &p.PPMRanges},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.dest); err != nil {
			return fmt.Errorf("decode partner list: %w", err)
		}
	}
	return nil
}

// CreateMatch records an introduction. Unknown lead or partner ids fail the
// foreign key constraint.
func (s *Store) CreateMatch(ctx context.Context, m *domain.Match) (*domain.Match, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.CreateMatch")
	defer span.End()

	out := *m
	out.ID = s.newID()
	out.MatchedAt = s.timestamp()

	query := s.dialect.rebind(`INSERT INTO matches (id, lead_id, partner_id, matched_at, reason) VALUES (?, ?, ?, ?, ?)`)
	if _, err := s.db.ExecContext(ctx, query,
		out.ID, out.LeadID, out.PartnerID, s.dialect.timeArg(out.MatchedAt), out.Reason,
	); err != nil {
		return nil, &domain.ErrStorage{Op: "create_match", Err: err}
	}
	return &out, nil
}

// ListMatches returns every match, oldest first.
func (s *Store) ListMatches(ctx context.Context) ([]domain.Match, error) {
	ctx, span := tracer.Start(ctx, "SQLStore.ListMatches")
	defer span.End()

	rows, err := s.db.QueryContext(ctx, `SELECT id, lead_id, partner_id, matched_at, reason FROM matches ORDER BY matched_at, id`)
	if err != nil {
		return nil, &domain.ErrStorage{Op: "list_matches", Err: err}
	}
	defer rows.Close()

	matches := make([]domain.Match, 0)
	for rows.Next() {
		var m domain.Match
		if err := rows.Scan(&m.ID, &m.LeadID, &m.PartnerID, timeScanner{&m.MatchedAt}, &m.Reason); err != nil {
			return nil, &domain.ErrStorage{Op: "list_matches", Err: err}
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &domain.ErrStorage{Op: "list_matches", Err: err}
	}
	return matches, nil
}
