// Package intake implements the five-step lead intake form: path choice,
// category, quantity and timing, preference, and contact details. A Form
// holds one visitor's answers, gates navigation on required fields and
// submits the mapped lead through a Submitter.
package intake

import (
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hoclconnect/leads/internal/analytics"
	"github.com/hoclconnect/leads/internal/toast"
	"github.com/hoclconnect/leads/internal/utm"
)

// Navigator moves the visitor to another page.
type Navigator interface {
	Navigate(to string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(to string)

func (fn NavigatorFunc) Navigate(to string) { fn(to) }

// Form is one intake form instance. It is safe for concurrent use.
type Form struct {
	mu         sync.Mutex
	step       Step
	path       Path
	answers    map[Field]Answer
	text       map[Field]string
	started    bool
	submitting bool
	idemKey    string

	tracker    analytics.Tracker
	toasts     toast.Service
	nav        Navigator
	summaries  SummaryCache
	campaign   func() utm.Params
	now        func() time.Time
	sourcePage string
}

// FormOption configures a Form.
type FormOption func(*Form)

// WithTracker sets the analytics tracker.
func WithTracker(t analytics.Tracker) FormOption {
	return func(f *Form) { f.tracker = t }
}

// WithToasts sets the toast service used for submit feedback.
func WithToasts(s toast.Service) FormOption {
	return func(f *Form) { f.toasts = s }
}

// WithNavigator sets where a successful submit navigates.
func WithNavigator(n Navigator) FormOption {
	return func(f *Form) { f.nav = n }
}

// WithSummaryCache sets the cache the confirmation summary is written to.
func WithSummaryCache(c SummaryCache) FormOption {
	return func(f *Form) { f.summaries = c }
}

// WithCampaign sets the source of the session's UTM parameters.
func WithCampaign(fn func() utm.Params) FormOption {
	return func(f *Form) { f.campaign = fn }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) FormOption {
	return func(f *Form) { f.now = now }
}

// WithSourcePage sets the referrer reported with lead_started.
func WithSourcePage(page string) FormOption {
	return func(f *Form) { f.sourcePage = page }
}

// WithIdempotencyKey fixes the key sent with every submission of this form.
func WithIdempotencyKey(key string) FormOption {
	return func(f *Form) { f.idemKey = key }
}

// New creates an empty form on the first step.
func New(opts ...FormOption) *Form {
	f := &Form{
		answers:    map[Field]Answer{},
		text:       map[Field]string{},
		tracker:    analytics.Discard,
		toasts:     toast.Discard,
		nav:        NavigatorFunc(func(string) {}),
		summaries:  discardSummaries{},
		campaign:   func() utm.Params { return utm.Params{} },
		now:        time.Now,
		sourcePage: "direct",
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.idemKey == "" {
		f.idemKey = uuid.NewString()
	}
	return f
}

// ============================================================
// Navigation
// ============================================================

// Step returns the current step.
func (f *Form) Step() Step {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.step
}

// Total is the number of steps.
func (f *Form) Total() int { return stepCount }

// Progress is the completion percentage shown in the progress bar.
func (f *Form) Progress() float64 {
	return float64(f.Step()+1) / float64(stepCount) * 100
}

// CanProceed reports whether the current step's required answers are present.
func (f *Form) CanProceed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gate(f.step)
}

// Next advances one step. On the contact step it returns ErrLastStep.
func (f *Form) Next() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.step == StepContact {
		return ErrLastStep
	}
	if !f.gate(f.step) {
		return ErrIncomplete
	}
	f.step++
	return nil
}

// Back returns to the previous step. It never validates.
func (f *Form) Back() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.step > StepPath {
		f.step--
	}
}

// gate is the required-field check for step s. Caller holds f.mu.
func (f *Form) gate(s Step) bool {
	if s == StepPath {
		return f.path.valid()
	}
	if !f.path.valid() {
		return false
	}
	for field, c := range catalogues {
		if c.step != s || !Required(field) {
			continue
		}
		if c.path != "" && c.path != f.path {
			continue
		}
		if !f.answers[field].Answered() {
			return false
		}
	}
	for field, step := range textFields {
		if step == s && Required(field) && strings.TrimSpace(f.text[field]) == "" {
			return false
		}
	}
	return true
}

func (f *Form) complete() bool {
	for s := StepPath; s <= StepContact; s++ {
		if !f.gate(s) {
			return false
		}
	}
	return true
}

// ============================================================
// Answers
// ============================================================

// Path returns the chosen path, or "".
func (f *Form) Path() Path {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.path
}

// SelectPath chooses the bulk or private-label branch.
func (f *Form) SelectPath(p Path) error {
	return f.mutate(func() error {
		if !p.valid() {
			return fmt.Errorf("%w: path %q", ErrUnknownOption, p)
		}
		f.path = p
		return nil
	})
}

// Choose answers an enumerated field. Choosing the field's "not sure"
// option records an Unknown answer; an empty id clears the field.
func (f *Form) Choose(field Field, id string) error {
	return f.mutate(func() error {
		c, ok := catalogues[field]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		switch {
		case id == "":
			delete(f.answers, field)
		case !c.has(id):
			return fmt.Errorf("%w: %s=%q", ErrUnknownOption, field, id)
		case id == c.unknown:
			f.answers[field] = Unknown(id)
		default:
			f.answers[field] = Known(id)
		}
		return nil
	})
}

// SetText sets a free-text field.
func (f *Form) SetText(field Field, value string) error {
	return f.mutate(func() error {
		if _, ok := textFields[field]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
		f.text[field] = value
		return nil
	})
}

// Answer returns the current answer for an enumerated field.
func (f *Form) Answer(field Field) Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[field]
}

// Text returns the current value of a free-text field.
func (f *Form) Text(field Field) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text[field]
}

// mutate applies fn and fires lead_started on the first successful change.
func (f *Form) mutate(fn func() error) error {
	f.mu.Lock()
	before := f.path
	if err := fn(); err != nil {
		f.mu.Unlock()
		return err
	}
	first := !f.started
	f.started = true
	f.mu.Unlock()

	if first {
		props := analytics.Properties{"source_page": f.sourcePage}
		if before != "" {
			props["path"] = string(before)
		}
		f.tracker.Track(analytics.EventLeadStarted, props)
	}
	return nil
}

// Prefill seeds empty fields from landing-page query parameters: path
// (bulk|pl), use, category and email. Existing answers and unknown ids are
// left alone, and prefilling does not count as the visitor starting the form.
func (f *Form) Prefill(q url.Values) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.path == "" {
		switch q.Get("path") {
		case "bulk":
			f.path = PathBulk
		case "pl":
			f.path = PathPrivateLabel
		}
	}
	if use := q.Get("use"); use != "" && !f.answers[FieldBulkUseCase].Answered() &&
		catalogues[FieldBulkUseCase].has(use) {
		f.answers[FieldBulkUseCase] = Known(use)
	}
	if cat := q.Get("category"); cat != "" && !f.answers[FieldProductType].Answered() {
		if mapped, ok := productCategories[cat]; ok {
			cat = mapped
		}
		if catalogues[FieldProductType].has(cat) {
			f.answers[FieldProductType] = Known(cat)
		}
	}
	if email := strings.TrimSpace(q.Get("email")); email != "" && f.text[FieldEmail] == "" {
		f.text[FieldEmail] = email
	}
}

// ============================================================
// Brief & payload
// ============================================================

// Brief returns the answers for the chosen path. It fails with
// ErrIncomplete when no path is chosen.
func (f *Form) Brief() (Brief, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.brief()
}

func (f *Form) brief() (Brief, error) {
	contact := Contact{
		Company:     f.text[FieldCompany],
		ContactName: f.text[FieldContactName],
		Email:       f.text[FieldEmail],
		Phone:       f.text[FieldPhone],
		Region:      f.answers[FieldRegion],
	}
	switch f.path {
	case PathBulk:
		return BulkBrief{
			UseCase:  f.answers[FieldBulkUseCase],
			Amount:   f.answers[FieldAmountBand],
			Cadence:  f.answers[FieldCadence],
			Timeline: f.answers[FieldTimeline],
			Format:   f.answers[FieldBulkFormat],
			Notes:    f.text[FieldNotes],
			Contact:  contact,
		}, nil
	case PathPrivateLabel:
		return PrivateLabelBrief{
			ProductType:  f.answers[FieldProductType],
			EndFormat:    f.answers[FieldEndFormat],
			RunSize:      f.answers[FieldRunSize],
			LaunchWindow: f.answers[FieldLaunchWindow],
			Scope:        f.answers[FieldScope],
			Notes:        f.text[FieldNotes],
			Contact:      contact,
		}, nil
	}
	return nil, fmt.Errorf("%w: no path chosen", ErrIncomplete)
}

// Payload maps the current answers to the API body.
func (f *Form) Payload() (*LeadPayload, error) {
	b, err := f.Brief()
	if err != nil {
		return nil, err
	}
	return MapBrief(b, f.campaign()), nil
}

// Score is the lead-quality preview, 0 before a path is chosen.
func (f *Form) Score() int {
	b, err := f.Brief()
	if err != nil {
		return 0
	}
	return Score(b)
}

// IdempotencyKey is the key sent with every submission of this form.
func (f *Form) IdempotencyKey() string {
	return f.idemKey
}
