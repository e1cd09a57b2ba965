package intake

import (
	"strings"

	"github.com/hoclconnect/leads/internal/utm"
)

// Contact is the "About you" step, shared by both paths.
type Contact struct {
	Company     string
	ContactName string
	Email       string
	Phone       string
	Region      Answer
}

// Brief is the visitor's answers for one path: either BulkBrief or
// PrivateLabelBrief.
type Brief interface {
	Path() Path
	contact() Contact
	isBrief()
}

// BulkBrief is a request for bulk HOCl supply.
type BulkBrief struct {
	UseCase  Answer
	Amount   Answer
	Cadence  Answer
	Timeline Answer
	Format   Answer
	Notes    string
	Contact  Contact
}

func (BulkBrief) Path() Path         { return PathBulk }
func (b BulkBrief) contact() Contact { return b.Contact }
func (BulkBrief) isBrief()           {}

// PrivateLabelBrief is a request to launch a private-label HOCl product.
type PrivateLabelBrief struct {
	ProductType  Answer
	EndFormat    Answer
	RunSize      Answer
	LaunchWindow Answer
	Scope        Answer
	Notes        string
	Contact      Contact
}

func (PrivateLabelBrief) Path() Path         { return PathPrivateLabel }
func (b PrivateLabelBrief) contact() Contact { return b.Contact }
func (PrivateLabelBrief) isBrief()           {}

// Requirements is the structured blob stored alongside the lead. Only the
// submitted path's answers are included.
type Requirements struct {
	Path      Path       `json:"path"`
	UTMParams utm.Params `json:"utm_params"`

	BulkUseCase    string `json:"bulk_use_case,omitempty"`
	AmountBand     string `json:"amount_band,omitempty"`
	Cadence        string `json:"cadence,omitempty"`
	Timeline       string `json:"timeline,omitempty"`
	BulkFormatPref string `json:"bulk_format_pref,omitempty"`

	PLProductType  string `json:"pl_product_type,omitempty"`
	PLEndFormat    string `json:"pl_end_format,omitempty"`
	PLRunSizeBand  string `json:"pl_run_size_band,omitempty"`
	PLLaunchWindow string `json:"pl_launch_window,omitempty"`
	PLScope        string `json:"pl_scope,omitempty"`

	RegionPref    string          `json:"region_pref,omitempty"`
	UnknownFields map[string]bool `json:"unknown_fields"`
}

// LeadPayload is the body of POST /api/leads.
type LeadPayload struct {
	Intent            string          `json:"intent"`
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
	Requirements      Requirements    `json:"requirements"`
	Score             int             `json:"score"`
	Status            string          `json:"status"`
}

var productIndustries = map[string]string{
	"face-body-mist": "beauty",
	"cleanser-toner": "beauty",
	"multi-surface":  "jansan",
	"other":          "other",
}

// Industry is the API industry for a brief.
func Industry(b Brief) string {
	switch b := b.(type) {
	case BulkBrief:
		if b.UseCase.Answered() {
			return b.UseCase.Value()
		}
	case PrivateLabelBrief:
		if ind, ok := productIndustries[b.ProductType.Value()]; ok {
			return ind
		}
	}
	return "other"
}

// UnknownFields derives the unknownFields map: every answered field that
// offers a "not sure" option, mapped to whether that option was picked.
func UnknownFields(b Brief) map[string]bool {
	out := map[string]bool{}
	add := func(f Field, a Answer) {
		if a.Answered() && catalogues[f].unknown != "" {
			out[string(f)] = a.IsUnknown()
		}
	}
	switch b := b.(type) {
	case BulkBrief:
		add(FieldAmountBand, b.Amount)
		add(FieldCadence, b.Cadence)
		add(FieldBulkFormat, b.Format)
	case PrivateLabelBrief:
		add(FieldEndFormat, b.EndFormat)
		add(FieldLaunchWindow, b.LaunchWindow)
		add(FieldScope, b.Scope)
	}
	return out
}

// Score is the lead-quality preview: path +2, category +2, amount or run
// size +1, timeline or launch window +1, region +1, company +1.
func Score(b Brief) int {
	score := 2
	var category, amount, timing Answer
	switch b := b.(type) {
	case BulkBrief:
		category, amount, timing = b.UseCase, b.Amount, b.Timeline
	case PrivateLabelBrief:
		category, amount, timing = b.ProductType, b.RunSize, b.LaunchWindow
	}
	if category.Answered() {
		score += 2
	}
	if amount.Answered() {
		score++
	}
	if timing.Answered() {
		score++
	}
	c := b.contact()
	if c.Region.Answered() {
		score++
	}
	if strings.TrimSpace(c.Company) != "" {
		score++
	}
	return score
}

// MapBrief flattens a brief into the API payload. campaign is attached to
// the requirements blob.
func MapBrief(b Brief, campaign utm.Params) *LeadPayload {
	c := b.contact()
	unknown := UnknownFields(b)

	p := &LeadPayload{
		Industry:          Industry(b),
		AckPurity:         true,
		CompanionInterest: false,
		RegionPref:        c.Region.ptr(),
		Company:           textPtr(c.Company),
		ContactName:       textPtr(c.ContactName),
		Email:             textPtr(c.Email),
		Phone:             textPtr(c.Phone),
		UnknownFields:     unknown,
		Score:             Score(b),
		Status:            "new",
	}
	req := Requirements{
		Path:          b.Path(),
		UTMParams:     campaign,
		RegionPref:    c.Region.Value(),
		UnknownFields: unknown,
	}

	switch b := b.(type) {
	case BulkBrief:
		p.Intent = "supplier"
		p.AmountBand = b.Amount.ptr()
		p.Cadence = b.Cadence.ptr()
		p.Timeline = b.Timeline.ptr()
		p.Format = b.Format.ptr()
		p.Notes = textPtr(b.Notes)

		req.BulkUseCase = b.UseCase.Value()
		req.AmountBand = b.Amount.Value()
		req.Cadence = b.Cadence.Value()
		req.Timeline = b.Timeline.Value()
		req.BulkFormatPref = b.Format.Value()
	case PrivateLabelBrief:
		p.Intent = "private-label"
		p.AmountBand = b.RunSize.ptr()
		p.Timeline = b.LaunchWindow.ptr()
		p.Format = b.EndFormat.ptr()
		p.PackagingGoal = b.Scope.ptr()
		p.Notes = textPtr(b.Notes)

		req.PLProductType = b.ProductType.Value()
		req.PLEndFormat = b.EndFormat.Value()
		req.PLRunSizeBand = b.RunSize.Value()
		req.PLLaunchWindow = b.LaunchWindow.Value()
		req.PLScope = b.Scope.Value()
	}

	p.Requirements = req
	return p
}

func textPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
