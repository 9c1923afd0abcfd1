package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "unsupported format sentinel",
			err:         fmt.Errorf("%w: .exe", ErrUnsupportedFormat),
			wantCode:    "FMT001",
			wantMessage: "The file type is not supported",
		},
		{
			name:        "sweep error wrapping malformed input",
			err:         stageError(StageIngest, FormatJSON, Malformed("expected an array")),
			wantCode:    "FILE002",
			wantMessage: "The file content does not match its type",
		},
		{
			name:        "decode failure sentinel",
			err:         stageError(StageIngest, FormatText, ErrDecodeFailure),
			wantCode:    "FILE003",
			wantMessage: "File contains invalid characters",
		},
		{
			name:        "serialization unsupported sentinel",
			err:         stageError(StageSerialize, FormatPDF, Unsupported("no writer")),
			wantCode:    "FMT002",
			wantMessage: "The file cannot be written in the requested format",
		},
		{
			name:        "busy limiter",
			err:         ErrTooManySweeps,
			wantCode:    "UPL002",
			wantMessage: "Too many sweeps in progress",
		},
		{
			name:        "file too large maps correctly",
			err:         errors.New("file too large: 200MB exceeds limit"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "http body limit maps to file too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds the maximum size limit",
		},
		{
			name:        "missing file",
			err:         errors.New("no file provided"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "cancelled context",
			err:         fmt.Errorf("sweep: %w", context.Canceled),
			wantCode:    "UPL004",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline exceeded",
			err:         fmt.Errorf("sweep: %w", context.DeadlineExceeded),
			wantCode:    "UPL005",
			wantMessage: "Request timed out",
		},
		{
			name:        "rate limit maps correctly",
			err:         errors.New("rate limit exceeded"),
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("INVALID FORM: target"),
			wantCode:    "VAL001",
			wantMessage: "One of the form fields is invalid",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	err := fmt.Errorf("%w: .exe", ErrUnsupportedFormat)
	result := FormatUserError(err)

	expected := "The file type is not supported (Code: FMT001). Upload a CSV, XLSX, TXT, JSON, YAML, DOCX, PDF or Parquet file"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}

	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{
			name: "nil error is not user facing",
			err:  nil,
			want: false,
		},
		{
			name: "known error is user facing",
			err:  ErrMalformedInput,
			want: true,
		},
		{
			name: "unknown error is not user facing",
			err:  errors.New("random internal error xyz"),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsUserFacing(tt.err)
			if got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := stageError(StageIngest, FormatCSV, ErrDecodeFailure)
		userErr := NewUserError(techErr)

		if userErr.Error() != "File contains invalid characters" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}

		if !errors.Is(userErr, ErrDecodeFailure) {
			t.Error("Unwrap() should reach the sentinel")
		}
	})
}
