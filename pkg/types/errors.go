// Package types holds the error taxonomy shared by the image-splitter packages.
package types

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the library wraps exactly one of these.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDegenerateState       = errors.New("degenerate state")
	ErrCapabilityUnavailable = errors.New("capability unavailable")
	ErrIOFailure             = errors.New("i/o failure")
)

// Specific errors
var (
	ErrInvalidGrid       = fmt.Errorf("%w: rows and columns must be between 1 and 20", ErrInvalidInput)
	ErrInvalidQuality    = fmt.Errorf("%w: quality must be between 0 and 1", ErrInvalidInput)
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported image format", ErrInvalidInput)
	ErrFileTooLarge      = fmt.Errorf("%w: file too large", ErrInvalidInput)
	ErrInvalidHandle     = fmt.Errorf("%w: unknown resize handle", ErrInvalidInput)
	ErrDragInProgress    = fmt.Errorf("%w: a drag session is already active", ErrInvalidInput)

	ErrDegenerateImage = fmt.Errorf("%w: image has zero size", ErrDegenerateState)
	ErrEmptySource     = fmt.Errorf("%w: no image loaded", ErrDegenerateState)
	ErrNoTiles         = fmt.Errorf("%w: no tiles to export", ErrDegenerateState)
	ErrNotInitialized  = fmt.Errorf("%w: crop box not initialized", ErrDegenerateState)

	ErrArchiveUnavailable = fmt.Errorf("%w: archiving is not available", ErrCapabilityUnavailable)

	ErrCorruptFile = fmt.Errorf("%w: image could not be decoded", ErrIOFailure)
)

// Kind classifies an error into one of the four taxonomy buckets.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidInput
	KindDegenerateState
	KindCapabilityUnavailable
	KindIOFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindDegenerateState:
		return "degenerate_state"
	case KindCapabilityUnavailable:
		return "capability_unavailable"
	case KindIOFailure:
		return "io_failure"
	default:
		return "unknown"
	}
}

// KindOf reports which taxonomy bucket err belongs to.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrDegenerateState):
		return KindDegenerateState
	case errors.Is(err, ErrCapabilityUnavailable):
		return KindCapabilityUnavailable
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	default:
		return KindUnknown
	}
}

// UserMessage turns err into the single human-readable line shown to a user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindInvalidInput:
		return "Invalid input: " + err.Error()
	case KindDegenerateState:
		return "Nothing to process: " + err.Error()
	case KindCapabilityUnavailable:
		return "Feature unavailable: " + err.Error()
	case KindIOFailure:
		return "Could not read or write the image: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
