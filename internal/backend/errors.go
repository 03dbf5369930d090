package backend

import (
	"fmt"
	"net/http"
)

// StatusError reports a non-2xx answer from the service.
type StatusError struct {
	Path   string
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api %s returned status %d", e.Path, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Path, e.Status, e.Detail)
}

// ExtractionError is returned when the extract call fails for any reason,
// including a malformed response body.
type ExtractionError struct {
	Link   string
	Status int // zero when no response was received
	Err    error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %q: %v", e.Link, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }

// UploadError is returned when the custom image upload fails.
type UploadError struct {
	SessionID string
	Status    int
	Err       error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload image for session %s: %v", e.SessionID, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// FinalizeError is returned when the finalize call fails.
type FinalizeError struct {
	SessionID string
	Status    int
	Err       error
}

func (e *FinalizeError) Error() string {
	return fmt.Sprintf("finalize session %s: %v", e.SessionID, e.Err)
}

func (e *FinalizeError) Unwrap() error { return e.Err }

// IsServerSide reports whether status is a 5xx answer.
func IsServerSide(status int) bool {
	return status >= http.StatusInternalServerError && status <= 599
}
