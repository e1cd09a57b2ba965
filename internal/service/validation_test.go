package service_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/hoclconnect/leads/internal/domain"
	"github.com/hoclconnect/leads/internal/service"
)

func issueFields(t *testing.T, err error) map[string]string {
	t.Helper()
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected *domain.ErrValidation, got %v", err)
	}
	out := map[string]string{}
	for _, is := range ve.Issues {
		out[is.Field] = is.Code
	}
	return out
}

func TestValidateLead_MinimalValid(t *testing.T) {
	in, err := service.ValidateLead([]byte(`{"intent":"supplier","industry":"janitorial"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Intent != domain.IntentSupplier || in.Industry != "janitorial" {
		t.Errorf("unexpected input: %+v", in)
	}
	if in.Status != "new" {
		t.Errorf("expected default status 'new', got %q", in.Status)
	}
	if in.AckPurity || in.CompanionInterest {
		t.Error("booleans should default to false")
	}
}

func TestValidateLead_MissingRequiredFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want map[string]string
	}{
		{"missing intent", `{"industry":"janitorial"}`, map[string]string{"intent": domain.CodeRequired}},
		{"missing industry", `{"intent":"supplier"}`, map[string]string{"industry": domain.CodeRequired}},
		{"missing both", `{}`, map[string]string{"intent": domain.CodeRequired, "industry": domain.CodeRequired}},
		{"null intent", `{"intent":null,"industry":"x"}`, map[string]string{"intent": domain.CodeRequired}},
		{"empty industry", `{"intent":"supplier","industry":""}`, map[string]string{"industry": domain.CodeTooSmall}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ValidateLead([]byte(tt.body))
			if diff := cmp.Diff(tt.want, issueFields(t, err)); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateLead_NullDefaultedFields(t *testing.T) {
	for _, field := range []string{"status", "score", "ackPurity", "companionInterest"} {
		t.Run(field, func(t *testing.T) {
			_, err := service.ValidateLead([]byte(`{"intent":"supplier","industry":"x","` + field + `":null}`))
			want := map[string]string{field: domain.CodeInvalidType}
			if diff := cmp.Diff(want, issueFields(t, err)); diff != "" {
				t.Errorf("issues mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestValidateLead_BadIntent(t *testing.T) {
	for _, intent := range []string{`"buyer"`, `"SUPPLIER"`, `""`} {
		_, err := service.ValidateLead([]byte(`{"intent":` + intent + `,"industry":"x"}`))
		got := issueFields(t, err)
		if got["intent"] != domain.CodeInvalidEnum {
			t.Errorf("intent %s: expected invalid_enum_value, got %v", intent, got)
		}
	}

	_, err := service.ValidateLead([]byte(`{"intent":5,"industry":"x"}`))
	if got := issueFields(t, err); got["intent"] != domain.CodeInvalidType {
		t.Errorf("numeric intent: expected invalid_type, got %v", got)
	}
}

func TestValidateLead_EnumeratesEveryFailure(t *testing.T) {
	body := `{
		"intent": "nope",
		"industry": 3,
		"email": 42,
		"ackPurity": "yes",
		"unknownFields": {"cadence": "maybe", "timeline": true},
		"requirements": [1, 2],
		"score": 2.5,
		"status": false
	}`

	_, err := service.ValidateLead([]byte(body))

	want := map[string]string{
		"intent":                domain.CodeInvalidEnum,
		"industry":              domain.CodeInvalidType,
		"email":                 domain.CodeInvalidType,
		"ackPurity":             domain.CodeInvalidType,
		"unknownFields.cadence": domain.CodeInvalidType,
		"requirements":          domain.CodeInvalidType,
		"score":                 domain.CodeInvalidType,
		"status":                domain.CodeInvalidType,
	}
	if diff := cmp.Diff(want, issueFields(t, err)); diff != "" {
		t.Errorf("issues mismatch (-want +got):\n%s", diff)
	}

	var ve *domain.ErrValidation
	errors.As(err, &ve)
	for i := 1; i < len(ve.Issues); i++ {
		if ve.Issues[i-1].Field > ve.Issues[i].Field {
			t.Fatalf("issues not sorted: %q before %q", ve.Issues[i-1].Field, ve.Issues[i].Field)
		}
	}
	for _, is := range ve.Issues {
		if is.Field == "unknownFields.cadence" {
			if diff := cmp.Diff([]string{"unknownFields", "cadence"}, is.Path); diff != "" {
				t.Errorf("path mismatch (-want +got):\n%s", diff)
			}
		}
	}
}

func TestValidateLead_StripsServerAssignedAndUnknownKeys(t *testing.T) {
	in, err := service.ValidateLead([]byte(`{
		"id": "forced-id",
		"createdAt": "2020-01-01T00:00:00Z",
		"intent": "private-label",
		"industry": "beauty",
		"favouriteColour": "teal"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Intent != domain.IntentPrivateLabel {
		t.Errorf("unexpected intent %q", in.Intent)
	}
}

func TestValidateLead_OptionalFields(t *testing.T) {
	in, err := service.ValidateLead([]byte(`{
		"intent": "supplier",
		"industry": "clinical",
		"company": null,
		"email": "ops@clinic.test",
		"ackPurity": true,
		"unknownFields": {"cadence": true},
		"requirements": {"path": "bulk", "utm_params": {"utm_source": "google"}},
		"score": 99,
		"status": "contacted"
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in.Company != nil {
		t.Error("null company should stay nil")
	}
	if domain.Deref(in.Email) != "ops@clinic.test" {
		t.Errorf("unexpected email %v", in.Email)
	}
	if !in.AckPurity {
		t.Error("expected ackPurity true")
	}
	if diff := cmp.Diff(map[string]bool{"cadence": true}, in.UnknownFields); diff != "" {
		t.Errorf("unknownFields mismatch: %s", diff)
	}
	if string(in.Requirements) != `{"path":"bulk","utm_params":{"utm_source":"google"}}` {
		t.Errorf("unexpected requirements %s", in.Requirements)
	}
	if in.Score != 99 || in.Status != "contacted" {
		t.Errorf("unexpected score/status %d/%q", in.Score, in.Status)
	}
}

func TestValidateLead_NotAnObject(t *testing.T) {
	for _, body := range []string{`[]`, `"lead"`, `null`, `{"intent":`, ``} {
		_, err := service.ValidateLead([]byte(body))
		got := issueFields(t, err)
		if len(got) != 1 || got[""] != domain.CodeInvalidType {
			t.Errorf("body %q: expected one root invalid_type issue, got %v", body, got)
		}
	}
}
