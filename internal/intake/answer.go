package intake

// Answer is the value chosen for an enumerated field. An Unknown answer
// means the visitor picked the "not sure, recommend for me" option; the
// option id is still carried so the lead records what was clicked.
type Answer struct {
	value   string
	unknown bool
}

// Known is a definite answer.
func Known(v string) Answer { return Answer{value: v} }

// Unknown is a "not sure" answer.
func Unknown(v string) Answer { return Answer{value: v, unknown: true} }

// Value returns the option id, or "" when unanswered.
func (a Answer) Value() string { return a.value }

// IsUnknown reports whether the visitor asked for a recommendation.
func (a Answer) IsUnknown() bool { return a.unknown }

// Answered reports whether any option was chosen.
func (a Answer) Answered() bool { return a.value != "" }

func (a Answer) ptr() *string {
	if a.value == "" {
		return nil
	}
	v := a.value
	return &v
}
