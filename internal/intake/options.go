package intake

// Path is the top-level branch of the intake flow.
type Path string

const (
	PathBulk         Path = "bulk"
	PathPrivateLabel Path = "private-label"
)

// Label is the heading shown for a path.
func (p Path) Label() string {
	switch p {
	case PathBulk:
		return "Get Bulk HOCl Liquid"
	case PathPrivateLabel:
		return "Launch My Own HOCl Product"
	}
	return "HOCl Partner Matching"
}

func (p Path) valid() bool {
	return p == PathBulk || p == PathPrivateLabel
}

// Step indexes the five intake screens.
type Step int

const (
	StepPath Step = iota
	StepCategory
	StepQuantity
	StepPreference
	StepContact

	stepCount = int(StepContact) + 1
)

// Title is the screen heading for s on path p.
func (s Step) Title(p Path) string {
	bulk := p != PathPrivateLabel
	switch s {
	case StepPath:
		return "Choose your path"
	case StepCategory:
		if bulk {
			return "Where will you use it?"
		}
		return "What are you launching?"
	case StepQuantity:
		if bulk {
			return "How much & when?"
		}
		return "Packaging & run size"
	case StepPreference:
		if bulk {
			return "Format preference"
		}
		return "Scope"
	case StepContact:
		return "About you"
	}
	return ""
}

// Field names a form input. The values double as the keys of the
// requirements blob and the unknownFields map.
type Field string

const (
	FieldBulkUseCase  Field = "bulk_use_case"
	FieldAmountBand   Field = "amount_band"
	FieldCadence      Field = "cadence"
	FieldTimeline     Field = "timeline"
	FieldBulkFormat   Field = "bulk_format_pref"
	FieldProductType  Field = "pl_product_type"
	FieldEndFormat    Field = "pl_end_format"
	FieldRunSize      Field = "pl_run_size_band"
	FieldLaunchWindow Field = "pl_launch_window"
	FieldScope        Field = "pl_scope"
	FieldRegion       Field = "region_pref"

	FieldNotes       Field = "notes"
	FieldCompany     Field = "company"
	FieldContactName Field = "contact_name"
	FieldEmail       Field = "email"
	FieldPhone       Field = "phone"
)

// Option is one selectable answer.
type Option struct {
	ID          string
	Title       string
	Description string
}

type catalogue struct {
	step    Step
	path    Path // empty for fields shared by both paths
	options []Option
	unknown string // id of the "not sure" option, if any
}

func (c catalogue) has(id string) bool {
	for _, o := range c.options {
		if o.ID == id {
			return true
		}
	}
	return false
}

var catalogues = map[Field]catalogue{
	FieldBulkUseCase: {step: StepCategory, path: PathBulk, options: []Option{
		{"janitorial", "Janitorial/Facility", "Schools, gyms, offices, cleaning services"},
		{"agriculture", "Agriculture", "Farms, livestock, veterinary applications"},
		{"food-processing", "Food Processing", "Food safety, equipment sanitization"},
		{"clinical", "Clinical", "Healthcare, dental, medical facilities"},
		{"other", "Other", "Tell us about your specific use case"},
	}},
	FieldAmountBand: {step: StepQuantity, path: PathBulk, unknown: "not-sure-amount", options: []Option{
		{"cases", "A few cases (up to ~25 gal)", "Cases of bottles, small batches"},
		{"drums", "A few drums (~100-300 gal)", "A drum is about 55 gal, moderate volumes"},
		{"tote", "A tote (~275-330 gal)", "Larger operations"},
		{"not-sure-amount", "Not sure", "We'll help you figure it out"},
	}},
	FieldCadence: {step: StepQuantity, path: PathBulk, unknown: "not-sure-cadence", options: []Option{
		{"one-time", "One-time", ""},
		{"monthly", "Monthly", ""},
		{"quarterly", "Quarterly", ""},
		{"not-sure-cadence", "Not sure", ""},
	}},
	FieldTimeline: {step: StepQuantity, path: PathBulk, options: []Option{
		{"asap", "ASAP", "Rush order, very urgent"},
		{"2-4-weeks", "~2-4 weeks", "Standard timeframe"},
		{"1-2-months", "~1-2 months", "Planning ahead"},
	}},
	FieldBulkFormat: {step: StepPreference, path: PathBulk, unknown: "not-sure-format", options: []Option{
		{"ready-to-use", "Ready-to-use", "Use straight out of container"},
		{"concentrate", "Concentrate", "Dilute before use (lower shipping costs)"},
		{"not-sure-format", "Not sure", "Recommend for me"},
	}},
	FieldProductType: {step: StepCategory, path: PathPrivateLabel, options: []Option{
		{"face-body-mist", "Face & Body Mist", "Skincare, wellness, spa products"},
		{"cleanser-toner", "Cleanser & Toner", "Multi-purpose cleansing products"},
		{"multi-surface", "Multi-Surface Cleaner", "All-purpose cleaning solutions"},
		{"other", "Other", "Tell us about your product idea"},
	}},
	FieldEndFormat: {step: StepQuantity, path: PathPrivateLabel, unknown: "not-sure-format", options: []Option{
		{"bottles-ready", "Bottles ready to sell", "Consumer products with your branding"},
		{"not-sure-format", "Not sure", "Recommend for me"},
	}},
	FieldRunSize: {step: StepQuantity, path: PathPrivateLabel, options: []Option{
		{"pilot", "Pilot <1K", "Test the market"},
		{"1-5k", "1-5K", "Small launch"},
		{"5-20k", "5-20K", "Standard launch"},
		{"20k-plus", "20K+", "Large scale"},
	}},
	FieldLaunchWindow: {step: StepQuantity, path: PathPrivateLabel, unknown: "not-sure-timeline", options: []Option{
		{"asap", "ASAP", "Rush timeline"},
		{"4-8-weeks", "~4-8 weeks", "Standard timeline"},
		{"2-3-months", "~2-3 months", "Planning ahead"},
		{"not-sure-timeline", "Not sure", "Recommend for me"},
	}},
	FieldScope: {step: StepPreference, path: PathPrivateLabel, unknown: "not-sure-scope", options: []Option{
		{"turnkey", "Turnkey (partner supplies packaging)", "Partner handles bottles, labels, and packaging"},
		{"bring-packaging", "I'll bring packaging", "You supply bottles, labels, or other materials"},
		{"not-sure-scope", "Not sure", "Recommend the best approach for me"},
	}},
	FieldRegion: {step: StepContact, options: []Option{
		{"near-me", "Near me", "Lower shipping costs"},
		{"anywhere-us", "Anywhere in U.S.", ""},
		{"international", "International friendly", ""},
	}},
}

var textFields = map[Field]Step{
	FieldNotes:       StepPreference,
	FieldCompany:     StepContact,
	FieldContactName: StepContact,
	FieldEmail:       StepContact,
	FieldPhone:       StepContact,
}

// Options returns the catalogue for an enumerated field, or nil.
func Options(f Field) []Option {
	return catalogues[f].options
}

// FieldsFor lists the enumerated fields shown on step s for path p, in
// display order.
func FieldsFor(s Step, p Path) []Field {
	var order []Field
	switch {
	case s == StepCategory && p == PathBulk:
		order = []Field{FieldBulkUseCase}
	case s == StepCategory && p == PathPrivateLabel:
		order = []Field{FieldProductType}
	case s == StepQuantity && p == PathBulk:
		order = []Field{FieldAmountBand, FieldCadence, FieldTimeline}
	case s == StepQuantity && p == PathPrivateLabel:
		order = []Field{FieldEndFormat, FieldRunSize, FieldLaunchWindow}
	case s == StepPreference && p == PathBulk:
		order = []Field{FieldBulkFormat}
	case s == StepPreference && p == PathPrivateLabel:
		order = []Field{FieldScope}
	case s == StepContact:
		order = []Field{FieldRegion}
	}
	return order
}

// TextFieldsFor lists the free-text fields shown on step s, in display order.
func TextFieldsFor(s Step) []Field {
	switch s {
	case StepPreference:
		return []Field{FieldNotes}
	case StepContact:
		return []Field{FieldCompany, FieldContactName, FieldEmail, FieldPhone}
	}
	return nil
}

// Required reports whether f must be answered before leaving its step.
func Required(f Field) bool {
	switch f {
	case FieldBulkUseCase, FieldAmountBand, FieldTimeline, FieldBulkFormat,
		FieldProductType, FieldRunSize, FieldLaunchWindow, FieldScope,
		FieldContactName, FieldEmail:
		return true
	}
	return false
}

// productCategories maps the ?category= landing-page shorthand to a product type.
var productCategories = map[string]string{
	"skincare": "face-body-mist",
}
