package parsing

import "fmt"

// ParseError is a document-level failure to turn model output into an assessment.
// Message is safe to show to end users; Field names the offending top-level key.
type ParseError struct {
	Message string
	Field   string
	Cause   error
}

func (e *ParseError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s (%s)", e.Message, e.Field)
	}
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", msg, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", msg)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
