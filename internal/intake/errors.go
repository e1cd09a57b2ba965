package intake

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hoclconnect/leads/internal/domain"
)

var (
	// ErrIncomplete means a required answer for the current step, or for
	// submission, is missing.
	ErrIncomplete = errors.New("intake: required information missing")

	// ErrLastStep is returned by Next on the contact step; use Submit.
	ErrLastStep = errors.New("intake: already on the last step")

	// ErrUnknownOption means an option id is not in the field's catalogue.
	ErrUnknownOption = errors.New("intake: unknown option")

	// ErrUnknownField means the field does not accept the operation.
	ErrUnknownField = errors.New("intake: unknown field")

	// ErrSubmitInFlight means an earlier Submit has not returned yet.
	ErrSubmitInFlight = errors.New("intake: submission already in progress")

	// ErrSubmissionFailed wraps transport, timeout and server failures. The
	// form keeps its state, so the caller may retry.
	ErrSubmissionFailed = errors.New("intake: submission failed")
)

// RejectedError is a 400 from the lead API: the payload failed schema
// validation.
type RejectedError struct {
	Message string
	Issues  []domain.Issue
}

func (e *RejectedError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "Validation error"
	}
	if len(e.Issues) == 0 {
		return "intake: lead rejected: " + msg
	}
	fields := make([]string, 0, len(e.Issues))
	for _, is := range e.Issues {
		fields = append(fields, is.Field)
	}
	return fmt.Sprintf("intake: lead rejected: %s (%s)", msg, strings.Join(fields, ", "))
}
