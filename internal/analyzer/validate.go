package analyzer

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// ValidationError reports a malformed request. It is the only error kind
// that surfaces to callers; the request never enters the pipeline.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (r Request) validate(maxTextLength int) error {
	if r.UserID <= 0 {
		return &ValidationError{Field: "user_id", Message: "must be positive"}
	}
	if strings.TrimSpace(r.Text) == "" {
		return &ValidationError{Field: "text", Message: "must not be empty"}
	}
	if utf8.RuneCountInString(r.Text) > maxTextLength {
		return &ValidationError{Field: "text", Message: fmt.Sprintf("exceeds %d characters", maxTextLength)}
	}
	return nil
}
