package colour

import (
	"errors"
	"fmt"
)

// ErrEmptyPalette matches an EmptyResultWarning when used with errors.Is.
var ErrEmptyPalette = errors.New("empty palette")

// DecodeError reports input that could not be interpreted as pixel data.
type DecodeError struct {
	// Source is the path or URL the image came from, if known.
	Source string
	// Format is the detected image format, if decoding got that far.
	Format string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := "failed to decode image"
	if e.Source != "" {
		msg += " " + e.Source
	}
	if e.Format != "" {
		msg += fmt.Sprintf(" (format: %s)", e.Format)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ConfigurationError reports an invalid extraction option.
type ConfigurationError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// EmptyResultWarning is attached to a palette when every pixel was excluded
// from sampling. It is never returned as an error from Extract.
type EmptyResultWarning struct {
	// Excluded is the number of pixels dropped by the alpha threshold.
	Excluded int
}

func (w *EmptyResultWarning) Error() string {
	return fmt.Sprintf("no visible pixels to sample (%d excluded below alpha threshold)", w.Excluded)
}

// Is reports whether target is ErrEmptyPalette.
func (w *EmptyResultWarning) Is(target error) bool {
	return target == ErrEmptyPalette
}
