package domain

import (
	"fmt"
	"strings"
)

// ErrOptionsViolation is returned when a definition's options document
// does not conform to the configured JSON schema.
type ErrOptionsViolation struct {
	Errors []string
}

func (e *ErrOptionsViolation) Error() string {
	return fmt.Sprintf("options validation failed: %s", strings.Join(e.Errors, "; "))
}
