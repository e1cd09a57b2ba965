package intake

import "time"

// SummaryKey is the cache key of the last submitted lead summary.
const SummaryKey = "lastSubmittedLead"

// DefaultSummaryTTL is how long an unread summary is kept.
const DefaultSummaryTTL = 10 * time.Minute

// Summary is what the confirmation page shows after a submission.
type Summary struct {
	LeadID       string       `json:"lead_id,omitempty"`
	Path         Path         `json:"path"`
	Company      string       `json:"company,omitempty"`
	ContactName  string       `json:"contact_name"`
	Email        string       `json:"email"`
	Requirements Requirements `json:"requirements"`
	SubmittedAt  time.Time    `json:"submitted_at"`
}

// Title is the confirmation heading for the submitted path.
func (s Summary) Title() string {
	return s.Path.Label()
}

// SummaryCache stores the confirmation summary. Take must remove the entry.
// cache.InMemory[Summary] satisfies it.
type SummaryCache interface {
	Set(key string, s Summary)
	Take(key string) (Summary, bool)
}

// ConsumeSummary returns the last submitted summary and clears it, so the
// confirmation page shows it once.
func ConsumeSummary(c SummaryCache) (*Summary, bool) {
	s, ok := c.Take(SummaryKey)
	if !ok {
		return nil, false
	}
	return &s, true
}

type discardSummaries struct{}

func (discardSummaries) Set(string, Summary)          {}
func (discardSummaries) Take(string) (Summary, bool) { return Summary{}, false }
