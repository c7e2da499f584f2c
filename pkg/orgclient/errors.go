package orgclient

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// APIError is returned when the server answers with a non-2xx status or a
// failure envelope. Message carries the server's human-readable message
// verbatim; FieldErrors carries per-field validation messages when the
// server sent any; Body is the raw response body for diagnostics.
type APIError struct {
	Status      int
	Message     string
	FieldErrors map[string][]string
	Body        string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("orgclient: %s (status %d)", e.Message, e.Status)
	}
	return fmt.Sprintf("orgclient: request failed with status %d", e.Status)
}

// IsAuthError reports whether err is an APIError with a 401 status.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}

// MalformedResponseError is returned when the server answered with a success
// status but the body could not be decoded.
type MalformedResponseError struct {
	Body string
	Err  error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("orgclient: invalid response from server: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// RequestError is returned when the request never produced an HTTP response:
// connection refused, DNS failure, timeout, cancelled context.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("orgclient: request failed: %v", e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a RequestError: the request never
// reached the server or no response came back.
func IsNetworkError(err error) bool {
	var reqErr *RequestError
	return errors.As(err, &reqErr)
}

// ValidationError is raised client-side, before any request is made, when an
// operation's input cannot possibly be accepted by the server.
type ValidationError struct {
	Fields map[string][]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "orgclient: validation failed"
	}
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("orgclient: validation failed: ")
	for i, f := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f)
		b.WriteString(": ")
		b.WriteString(strings.Join(e.Fields[f], ", "))
	}
	return b.String()
}

// AsValidationError unwraps err as a *ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
