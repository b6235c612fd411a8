package recorder_errors

import "errors"

// Common errors
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidInput = errors.New("invalid input")
	ErrNetworking   = errors.New("networking error")
)

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
