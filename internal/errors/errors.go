package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for expected failure modes
var (
	ErrUnsupportedFormat = errors.New("unsupported composition format")
	ErrFileTooLarge      = errors.New("file exceeds size limit")
	ErrNoTimeFormat      = errors.New("midi file has no metric time format")
)

// ValidationError reports malformed input handed over by a codec.
// It is surfaced to the caller immediately, never repaired.
type ValidationError struct {
	Track int    // track index
	Event int    // event index within the track
	Field string // "pitch", "duration", "order", ...
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid composition: track %d event %d: %s: %s", e.Track, e.Event, e.Field, e.Msg)
}

// NewValidationError creates a ValidationError
func NewValidationError(track, event int, field, msg string) *ValidationError {
	return &ValidationError{Track: track, Event: event, Field: field, Msg: msg}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
