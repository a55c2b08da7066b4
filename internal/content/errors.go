package content

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	ErrNotFound       = errors.New("content not found")
	ErrInvalidHash    = errors.New("invalid content hash")
	ErrInvalidJSON    = errors.New("content is not valid JSON")
	ErrTooLarge       = errors.New("content exceeds size limit")
	ErrUnsupportedURI = errors.New("unsupported content uri")
)

// StatusError is returned for non-success HTTP responses other than 404.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("GET %s: unexpected status %d: %s", e.URL, e.StatusCode, e.Body)
}
