package types

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, KindUnknown},
		{errors.New("boom"), KindUnknown},
		{ErrInvalidGrid, KindInvalidInput},
		{ErrInvalidQuality, KindInvalidInput},
		{ErrUnsupportedFormat, KindInvalidInput},
		{ErrFileTooLarge, KindInvalidInput},
		{ErrInvalidHandle, KindInvalidInput},
		{ErrDragInProgress, KindInvalidInput},
		{ErrDegenerateImage, KindDegenerateState},
		{ErrEmptySource, KindDegenerateState},
		{ErrNoTiles, KindDegenerateState},
		{ErrNotInitialized, KindDegenerateState},
		{ErrArchiveUnavailable, KindCapabilityUnavailable},
		{ErrCorruptFile, KindIOFailure},
		{fmt.Errorf("3x0: %w", ErrInvalidGrid), KindInvalidInput},
		{fmt.Errorf("open: %w: %w", ErrIOFailure, errors.New("no such file")), KindIOFailure},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.want {
			t.Errorf("KindOf(%v) = %s, expected %s", tt.err, got, tt.want)
		}
	}
}

func TestSpecificErrorsKeepIdentity(t *testing.T) {
	err := fmt.Errorf("slicing 0x3: %w", ErrInvalidGrid)
	if !errors.Is(err, ErrInvalidGrid) || !errors.Is(err, ErrInvalidInput) {
		t.Error("Wrapped error should match both the specific error and its kind")
	}
	if errors.Is(err, ErrDegenerateState) {
		t.Error("Wrapped error should not match other kinds")
	}
}

func TestUserMessage(t *testing.T) {
	if UserMessage(nil) != "" {
		t.Error("Expected empty message for nil")
	}

	tests := map[error]string{
		ErrInvalidGrid:        "Invalid input:",
		ErrNoTiles:            "Nothing to process:",
		ErrArchiveUnavailable: "Feature unavailable:",
		ErrCorruptFile:        "Could not read or write the image:",
		errors.New("x"):       "Unexpected error:",
	}
	for err, prefix := range tests {
		msg := UserMessage(err)
		if !strings.HasPrefix(msg, prefix) {
			t.Errorf("UserMessage(%v) = %q, expected prefix %q", err, msg, prefix)
		}
		if strings.Contains(msg, "\n") {
			t.Errorf("UserMessage(%v) should be a single line", err)
		}
	}
}

func TestKindString(t *testing.T) {
	if KindCapabilityUnavailable.String() != "capability_unavailable" || Kind(99).String() != "unknown" {
		t.Error("Unexpected kind names")
	}
}
