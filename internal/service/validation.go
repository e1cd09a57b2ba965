package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/hoclconnect/leads/internal/domain"
)

// ValidateLead parses a lead-creation body and checks it against the lead
// schema. On failure it returns *domain.ErrValidation listing every failing
// field. Unknown keys and server-assigned fields (id, createdAt) are dropped.
// It has no side effects.
func ValidateLead(body []byte) (*domain.LeadInput, error) {
	body = bytes.TrimSpace(body)
	if !json.Valid(body) {
		return nil, &domain.ErrValidation{Issues: []domain.Issue{
			domain.NewIssue("", domain.CodeInvalidType, "Malformed JSON body"),
		}}
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return nil, &domain.ErrValidation{Issues: []domain.Issue{
			domain.NewIssue("", domain.CodeInvalidType, "Expected object, received "+kindOf(body)),
		}}
	}

	v := &leadValidator{raw: raw}
	in := &domain.LeadInput{}

	in.Intent = domain.Intent(v.requiredEnum("intent", intentNames()))
	in.Industry = v.requiredString("industry")

	in.AmountBand = v.optionalString("amountBand")
	in.Cadence = v.optionalString("cadence")
	in.Timeline = v.optionalString("timeline")
	in.StrengthChoice = v.optionalString("strengthChoice")
	in.Format = v.optionalString("format")
	in.PackagingGoal = v.optionalString("packagingGoal")
	in.Notes = v.optionalString("notes")
	in.RegionPref = v.optionalString("regionPref")
	in.Company = v.optionalString("company")
	in.ContactName = v.optionalString("contactName")
	in.Email = v.optionalString("email")
	in.Phone = v.optionalString("phone")
	in.ExperienceLevel = v.optionalString("experienceLevel")

	in.AckPurity = v.optionalBool("ackPurity")
	in.CompanionInterest = v.optionalBool("companionInterest")
	in.UnknownFields = v.flagMap("unknownFields")
	in.Requirements = v.object("requirements")
	in.Score = v.optionalInt("score")
	in.Status = v.optionalStatus("status")

	if len(v.issues) > 0 {
		sort.SliceStable(v.issues, func(i, j int) bool { return v.issues[i].Field < v.issues[j].Field })
		return nil, &domain.ErrValidation{Issues: v.issues}
	}
	return in, nil
}

func intentNames() []string {
	names := make([]string, len(domain.Intents))
	for i, it := range domain.Intents {
		names[i] = string(it)
	}
	return names
}

type leadValidator struct {
	raw    map[string]json.RawMessage
	issues []domain.Issue
}

func (v *leadValidator) fail(field, code, msg string) {
	v.issues = append(v.issues, domain.NewIssue(field, code, msg))
}

func (v *leadValidator) typeMismatch(field, want string, got json.RawMessage) {
	v.fail(field, domain.CodeInvalidType, fmt.Sprintf("Expected %s, received %s", want, kindOf(got)))
}

// lookup returns the raw value and whether the key was present and non-null.
func (v *leadValidator) lookup(field string) (json.RawMessage, bool) {
	r, ok := v.raw[field]
	if !ok || kindOf(r) == "null" {
		return nil, false
	}
	return r, true
}

func (v *leadValidator) requiredString(field string) string {
	r, ok := v.lookup(field)
	if !ok {
		v.fail(field, domain.CodeRequired, "Required")
		return ""
	}
	var s string
	if json.Unmarshal(r, &s) != nil {
		v.typeMismatch(field, "string", r)
		return ""
	}
	if strings.TrimSpace(s) == "" {
		v.fail(field, domain.CodeTooSmall, "String must contain at least 1 character(s)")
		return ""
	}
	return s
}

func (v *leadValidator) requiredEnum(field string, allowed []string) string {
	r, ok := v.lookup(field)
	if !ok {
		v.fail(field, domain.CodeRequired, "Required")
		return ""
	}
	var s string
	if json.Unmarshal(r, &s) != nil {
		v.typeMismatch(field, "string", r)
		return ""
	}
	for _, a := range allowed {
		if s == a {
			return s
		}
	}
	v.fail(field, domain.CodeInvalidEnum, fmt.Sprintf("Invalid enum value. Expected '%s', received '%s'",
		strings.Join(allowed, "' | '"), s))
	return ""
}

func (v *leadValidator) optionalString(field string) *string {
	r, ok := v.lookup(field)
	if !ok {
		return nil
	}
	var s string
	if json.Unmarshal(r, &s) != nil {
		v.typeMismatch(field, "string", r)
		return nil
	}
	return &s
}

func (v *leadValidator) optionalBool(field string) bool {
	r, present := v.raw[field]
	if !present {
		return false
	}
	var b bool
	if json.Unmarshal(r, &b) != nil || kindOf(r) != "boolean" {
		v.typeMismatch(field, "boolean", r)
		return false
	}
	return b
}

func (v *leadValidator) optionalInt(field string) int {
	r, present := v.raw[field]
	if !present {
		return 0
	}
	if kindOf(r) != "number" {
		v.typeMismatch(field, "number", r)
		return 0
	}
	var n json.Number
	_ = json.Unmarshal(r, &n)
	i, err := n.Int64()
	if err != nil {
		v.fail(field, domain.CodeInvalidType, "Expected integer, received float")
		return 0
	}
	return int(i)
}

// optionalStatus defaults a missing or empty status to "new". The column is
// not null, so an explicit null is a type error like the other defaults.
func (v *leadValidator) optionalStatus(field string) string {
	if r, present := v.raw[field]; present && kindOf(r) == "null" {
		v.typeMismatch(field, "string", r)
		return ""
	}
	s := v.optionalString(field)
	if s == nil || *s == "" {
		return domain.StatusNew
	}
	return *s
}

func (v *leadValidator) flagMap(field string) map[string]bool {
	r, ok := v.lookup(field)
	if !ok {
		return nil
	}
	var obj map[string]json.RawMessage
	if kindOf(r) != "object" || json.Unmarshal(r, &obj) != nil {
		v.typeMismatch(field, "object", r)
		return nil
	}
	out := make(map[string]bool, len(obj))
	for k, val := range obj {
		var b bool
		if kindOf(val) != "boolean" || json.Unmarshal(val, &b) != nil {
			v.typeMismatch(field+"."+k, "boolean", val)
			continue
		}
		out[k] = b
	}
	return out
}

func (v *leadValidator) object(field string) json.RawMessage {
	r, ok := v.lookup(field)
	if !ok {
		return nil
	}
	if kindOf(r) != "object" {
		v.typeMismatch(field, "object", r)
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, r); err != nil {
		v.typeMismatch(field, "object", r)
		return nil
	}
	return json.RawMessage(buf.Bytes())
}

// kindOf names the JSON type of a raw value the way validation messages do.
func kindOf(r []byte) string {
	r = bytes.TrimSpace(r)
	if len(r) == 0 {
		return "undefined"
	}
	switch r[0] {
	case '"':
		return "string"
	case '{':
		return "object"
	case '[':
		return "array"
	case 't', 'f':
		return "boolean"
	case 'n':
		return "null"
	}
	return "number"
}
