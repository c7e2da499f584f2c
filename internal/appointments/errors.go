package appointments

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned when an appointment does not exist in the org.
	ErrNotFound = errors.New("appointment not found")

	// ErrProviderNotFound is returned when a provider id does not resolve.
	ErrProviderNotFound = errors.New("provider not found")
)

// ValidationError carries field-level validation failures.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	return "validation failed: " + strings.Join(names, ", ")
}

// AsValidationError unwraps err into a *ValidationError if it is one.
func AsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
