package zentty

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingEndpoint is returned by New when Config.Endpoint is empty.
	ErrMissingEndpoint = errors.New("zentty: client config must contain a server endpoint")

	// ErrMissingEntityID and ErrMissingFile are returned by UploadFile before
	// any network call.
	ErrMissingEntityID = errors.New("zentty: entity ID missing")
	ErrMissingFile     = errors.New("zentty: file missing")

	// ErrPrepareRejected is returned when the server answers prepareFileUpload
	// with false.
	ErrPrepareRejected = errors.New("zentty: server rejected upload preparation")

	// ErrUploadIncomplete is returned when every byte has been sent but the
	// server still does not report the file as complete.
	ErrUploadIncomplete = errors.New("zentty: server did not confirm upload completion")
)

// FieldError is a server-reported validation failure scoped to one input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the list of field errors a mutation such as
// registerUser or loginUser reports instead of a result.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "zentty: validation failed"
	}

	parts := make([]string, 0, len(v))
	for _, fe := range v {
		parts = append(parts, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}

	return "zentty: validation failed: " + strings.Join(parts, "; ")
}
