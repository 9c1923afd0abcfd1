package core

import (
	"errors"
	"fmt"
)

// Error taxonomy. Every failed sweep carries exactly one of these, wrapped
// in a *SweepError, so callers can branch with errors.Is.
var (
	// ErrUnsupportedFormat is returned for an unknown or unreadable format tag.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrDecodeFailure is returned when the input bytes are not valid text
	// in the expected encoding.
	ErrDecodeFailure = errors.New("encoding error")

	// ErrMalformedInput is returned when the input is structurally invalid
	// for its declared format.
	ErrMalformedInput = errors.New("malformed input")

	// ErrSerializationUnsupported is returned when the target format cannot
	// be written, either because no writer is available or because the
	// table cannot be represented in it.
	ErrSerializationUnsupported = errors.New("serialization unsupported")
)

// Stage names the pipeline step that failed.
type Stage string

const (
	StageDetect    Stage = "detect"
	StageIngest    Stage = "ingest"
	StageNormalize Stage = "normalize"
	StageSerialize Stage = "serialize"
)

// SweepError records which stage failed and for which format.
type SweepError struct {
	Stage  Stage
	Format Format
	Err    error
}

func (e *SweepError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Format, e.Err)
}

func (e *SweepError) Unwrap() error {
	return e.Err
}

// stageError wraps err unless it is already a *SweepError.
func stageError(stage Stage, format Format, err error) error {
	var se *SweepError
	if errors.As(err, &se) {
		return err
	}
	return &SweepError{Stage: stage, Format: format, Err: err}
}

// Malformed wraps err as ErrMalformedInput.
func Malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

// Unsupported wraps a message as ErrSerializationUnsupported.
func Unsupported(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSerializationUnsupported, fmt.Sprintf(format, args...))
}
