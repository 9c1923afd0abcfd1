// Package core provides the data sweeping pipeline.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. Users can quote the code when they report a problem.
//
// # Format Errors (FMT001-FMT099)
//
//	FMT001 - Unsupported format: The file type is not supported
//	         Action: Upload a CSV, XLSX, TXT, JSON, YAML, DOCX, PDF or Parquet file
//	         Matched by: ErrUnsupportedFormat
//
//	FMT002 - Output unavailable: The file cannot be written in the requested format
//	         Action: Choose a different download format
//	         Matched by: ErrSerializationUnsupported
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Malformed file: The file content does not match its type
//	          Action: Check that the file opens correctly and matches its extension
//	          Matched by: ErrMalformedInput
//
//	FILE003 - Encoding error: File contains invalid characters
//	          Action: Save the file as UTF-8
//	          Matched by: ErrDecodeFailure, pattern "encoding error"
//
//	FILE004 - No file: No file was selected
//	          Action: Please select a file to upload
//	          Patterns: "no file provided"
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL002 - System busy: Too many sweeps in progress
//	         Action: Please wait a moment and try again
//	         Matched by: ErrTooManySweeps
//
//	UPL004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	UPL005 - Request timeout: Request timed out
//	         Action: Try a smaller file or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid request: One of the form fields is invalid
//	         Action: Check the selected output format and preview size
//	         Patterns: "invalid form"
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//	          Action: Please wait a moment before trying again
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Please try again or contact support
//
// # Matching
//
// Sentinel errors are checked first with errors.Is, so wrapped errors map
// correctly regardless of their text. Remaining errors are matched
// case-insensitively against patterns with strings.Contains; the first
// match wins.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgUnsupportedFormat = UserMessage{
		Message: "The file type is not supported",
		Action:  "Upload a CSV, XLSX, TXT, JSON, YAML, DOCX, PDF or Parquet file",
		Code:    "FMT001",
	}
	msgSerializationUnsupported = UserMessage{
		Message: "The file cannot be written in the requested format",
		Action:  "Choose a different download format",
		Code:    "FMT002",
	}
	msgMalformed = UserMessage{
		Message: "The file content does not match its type",
		Action:  "Check that the file opens correctly and matches its extension",
		Code:    "FILE002",
	}
	msgEncoding = UserMessage{
		Message: "File contains invalid characters",
		Action:  "Save the file as UTF-8",
		Code:    "FILE003",
	}
	msgBusy = UserMessage{
		Message: "Too many sweeps in progress",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}
)

// sentinelMessages is checked before the text patterns.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrUnsupportedFormat, msgUnsupportedFormat},
	{ErrSerializationUnsupported, msgSerializationUnsupported},
	{ErrDecodeFailure, msgEncoding},
	{ErrMalformedInput, msgMalformed},
	{ErrTooManySweeps, msgBusy},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns go first.
var errorPatterns = []errorPattern{
	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "encoding error",
		msg:     msgEncoding,
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "invalid form",
		msg: UserMessage{
			Message: "One of the form fields is invalid",
			Action:  "Check the selected output format and preview size",
			Code:    "VAL001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, err := registry.Ingest(data, FormatJSON)
//	msg := MapError(err)
//	// msg.Code == "FILE002" for a bare JSON object
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a one-line error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
