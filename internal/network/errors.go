package network

import (
	"errors"
	"fmt"

	recorder_errors "mazi-recorder/pkg/errors"
)

// Error codes carried by NetworkError. CodeRequestFailed matches the single
// code older clients reported for every failure.
const (
	CodeRequestFailed = 0
	CodeBadStatus     = 1
	CodeMissingID     = 2
	CodeTimeout       = 3
	CodeEncoding      = 4
	CodeDecode        = 5
)

// NetworkError is the one failure value a submission reports. It matches
// recorder_errors.ErrNetworking with errors.Is.
type NetworkError struct {
	Op     string
	URL    string
	Code   int
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	msg := fmt.Sprintf("%s %s: code %d", e.Op, e.URL, e.Code)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *NetworkError) Unwrap() []error {
	if e.Err == nil {
		return []error{recorder_errors.ErrNetworking}
	}
	return []error{recorder_errors.ErrNetworking, e.Err}
}

// ErrorCode extracts the code of a NetworkError, or CodeRequestFailed for
// any other error.
func ErrorCode(err error) int {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Code
	}
	return CodeRequestFailed
}
