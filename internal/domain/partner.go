package domain

import "time"

// ============================================================
// Partners & Matches
// ============================================================

// Partner is a supplier or private-label manufacturer. Partner records are
// curated by hand; no API creates them.
type Partner struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	CompanyName        string    `json:"companyName"`
	Type               Intent    `json:"type"`
	Industries         []string  `json:"industries"`
	Regions            []string  `json:"regions"`
	Containers         []string  `json:"containers"`
	PPMRanges          []string  `json:"ppmRanges"`
	MOQNotes           *string   `json:"moqNotes"`
	LeadtimeRangeWeeks *string   `json:"leadtimeRangeWeeks"`
	CertsSummary       *string   `json:"certsSummary"`
	ContactEmail       *string   `json:"contactEmail"`
	Active             bool      `json:"active"`
}

// Match records a manual introduction between a lead and a partner.
type Match struct {
	ID        string    `json:"id"`
	LeadID    string    `json:"leadId"`
	PartnerID string    `json:"partnerId"`
	MatchedAt time.Time `json:"matchedAt"`
	Reason    *string   `json:"reason"`
}
