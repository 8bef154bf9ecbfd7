package terminal

import (
	"errors"
	"fmt"
)

// Engine errors. All of them are locally recoverable: they set an inline
// message on the active draft and never abort the mode.
var (
	ErrScanNotFound   = errors.New("code not found")
	ErrNotABin        = errors.New("this is not a bin")
	ErrNotAnItem      = errors.New("this is not an item")
	ErrNotInOrder     = errors.New("item is not part of this order")
	ErrNotAtLocation  = errors.New("item is not expected at this location")
	ErrEmptyPayload   = errors.New("nothing to submit")
	ErrSessionMissing = errors.New("no active audit session")
	ErrPrintAccess    = errors.New("access to print settings denied")
	ErrBusy           = errors.New("submission already in progress")
)

// ValidationError reports a bad quantity or missing draft field
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// APIError carries a non-success response from the warehouse service
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.Status)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}
