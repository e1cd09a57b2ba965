// Package domain defines the core business entities for the lead intake
// service. These models are independent of storage and transport and represent
// the canonical data structures shared by the API, the store and the intake form.
package domain

import (
	"encoding/json"
	"time"
)

// Intent is the buyer intent recorded on a lead.
type Intent string

const (
	IntentSupplier     Intent = "supplier"
	IntentPrivateLabel Intent = "private-label"
)

// Intents lists every accepted intent in declaration order.
var Intents = []Intent{IntentSupplier, IntentPrivateLabel}

// Valid reports whether i is one of the accepted intents.
func (i Intent) Valid() bool {
	for _, v := range Intents {
		if i == v {
			return true
		}
	}
	return false
}

// Lead status values known to the ops team. Status is an open string: other
// values are stored as sent.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusMatched   = "matched"
)

// KnownStatus reports whether s is a documented status value.
func KnownStatus(s string) bool {
	switch s {
	case StatusNew, StatusContacted, StatusMatched:
		return true
	}
	return false
}

// ============================================================
// Lead
// ============================================================

// LeadInput is the client-supplied part of a lead, after schema validation.
// Nullable text columns are pointers so that null and "" stay distinct.
type LeadInput struct {
	Intent            Intent          `json:"intent"`
	Industry          string          `json:"industry"`
	AmountBand        *string         `json:"amountBand"`
	Cadence           *string         `json:"cadence"`
	Timeline          *string         `json:"timeline"`
	StrengthChoice    *string         `json:"strengthChoice"`
	Format            *string         `json:"format"`
	PackagingGoal     *string         `json:"packagingGoal"`
	AckPurity         bool            `json:"ackPurity"`
	Notes             *string         `json:"notes"`
	CompanionInterest bool            `json:"companionInterest"`
	RegionPref        *string         `json:"regionPref"`
	Company           *string         `json:"company"`
	ContactName       *string         `json:"contactName"`
	Email             *string         `json:"email"`
	Phone             *string         `json:"phone"`
	ExperienceLevel   *string         `json:"experienceLevel"`
	UnknownFields     map[string]bool `json:"unknownFields"`
	Requirements      json.RawMessage `json:"requirements"`
	Score             int             `json:"score"`
	Status            string          `json:"status"`
}

// IdempotencyRecord ties an Idempotency-Key to the lead it produced and to a
// fingerprint of the request that produced it.
type IdempotencyRecord struct {
	LeadID      string `json:"leadId"`
	Fingerprint string `json:"fingerprint"`
}

// Lead is a persisted lead record. ID and CreatedAt are assigned by the
// store once and never change.
type Lead struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	LeadInput
}

// QualityScore computes the completeness heuristic used to triage leads:
// intent +2, industry +2, amount band +1, timeline +1, region +1, company +1.
func (in *LeadInput) QualityScore() int {
	score := 0
	if in.Intent != "" {
		score += 2
	}
	if in.Industry != "" {
		score += 2
	}
	if present(in.AmountBand) {
		score++
	}
	if present(in.Timeline) {
		score++
	}
	if present(in.RegionPref) {
		score++
	}
	if present(in.Company) {
		score++
	}
	return score
}

func present(s *string) bool {
	return s != nil && *s != ""
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// LeadCreatedEvent is the message published after a lead is persisted.
type LeadCreatedEvent struct {
	EventType  string    `json:"eventType"`
	LeadID     string    `json:"leadId"`
	Intent     Intent    `json:"intent"`
	Industry   string    `json:"industry"`
	Score      int       `json:"score"`
	Company    *string   `json:"company"`
	Email      *string   `json:"email"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewLeadCreatedEvent builds the lead.created event for l.
func NewLeadCreatedEvent(l *Lead) LeadCreatedEvent {
	return LeadCreatedEvent{
		EventType:  "lead.created",
		LeadID:     l.ID,
		Intent:     l.Intent,
		Industry:   l.Industry,
		Score:      l.Score,
		Company:    l.Company,
		Email:      l.Email,
		OccurredAt: l.CreatedAt,
	}
}
