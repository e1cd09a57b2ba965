package intake

import (
	"context"
	"errors"
	"fmt"

	"github.com/hoclconnect/leads/internal/analytics"
	"github.com/hoclconnect/leads/internal/toast"
)

// ThankYouPath is where a successful submission navigates.
const ThankYouPath = "/thank-you"

// Receipt is the server's answer to an accepted lead.
type Receipt struct {
	LeadID   string
	Replayed bool
}

// Submitter delivers a lead payload. Implementations return *RejectedError
// for validation failures and wrap everything else in ErrSubmissionFailed.
type Submitter interface {
	SubmitLead(ctx context.Context, p *LeadPayload, idempotencyKey string) (*Receipt, error)
}

var (
	missingInfoToast = toast.Toast{
		Kind:    toast.Error,
		Title:   "Missing Required Information",
		Message: "Please fill in all required fields before submitting.",
	}
	failedToast = toast.Toast{
		Kind:    toast.Error,
		Title:   "Submission Failed",
		Message: "Please try again or contact us directly.",
	}
	submittedToast = toast.Toast{
		Kind:    toast.Success,
		Title:   "Request Submitted Successfully",
		Message: "Thanks - we'll review and introduce you to best-fit partners within 1-3 business days.",
	}
)

// Submit sends the form through s. Every step's required answers must be
// present. While a submission is running a second call fails with
// ErrSubmitInFlight. On failure the form is left untouched so the visitor
// can retry; retries reuse the form's idempotency key.
func (f *Form) Submit(ctx context.Context, s Submitter) (*Summary, error) {
	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if !f.complete() {
		f.mu.Unlock()
		f.toasts.Notify(missingInfoToast)
		return nil, ErrIncomplete
	}
	b, err := f.brief()
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	campaign := f.campaign()
	payload := MapBrief(b, campaign)
	f.submitting = true
	f.mu.Unlock()

	receipt, err := s.SubmitLead(ctx, payload, f.idemKey)

	f.mu.Lock()
	f.submitting = false
	f.mu.Unlock()

	if err != nil {
		f.toasts.Notify(failedToast)
		var rejected *RejectedError
		if errors.As(err, &rejected) || errors.Is(err, ErrSubmissionFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrSubmissionFailed, err)
	}

	f.tracker.Track(analytics.EventLeadSubmitted, analytics.Properties{
		"path":         string(b.Path()),
		"industry":     payload.Industry,
		"score":        payload.Score,
		"utm_source":   campaign.Source,
		"utm_medium":   campaign.Medium,
		"utm_campaign": campaign.Campaign,
	})
	f.toasts.Notify(submittedToast)

	c := b.contact()
	summary := Summary{
		LeadID:       receipt.LeadID,
		Path:         b.Path(),
		Company:      c.Company,
		ContactName:  c.ContactName,
		Email:        c.Email,
		Requirements: payload.Requirements,
		SubmittedAt:  f.now().UTC(),
	}
	f.summaries.Set(SummaryKey, summary)
	f.nav.Navigate(ThankYouPath)

	return &summary, nil
}
