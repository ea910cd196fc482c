// Package core provides the normalization and fusion engine for fleet data.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Source Errors (SRC001-SRC099)
//
// Errors related to the two input datasets:
//
//	SRC001 - Missing source: A required dataset is missing or has no rows
//	         Action: Upload both the operations and the maintenance workbooks
//	         Patterns: "missing source table"
//
//	SRC002 - Source file not found: A configured workbook path does not exist
//	         Action: Check PIPELINE_OPERATIONS_FILE and PIPELINE_MAINTENANCE_FILE
//	         Patterns: "source file not found"
//
// # File Errors (FILE001-FILE099)
//
// Errors related to uploaded workbooks:
//
//	FILE001 - File too large: Workbook exceeds the maximum upload size
//	          Action: Remove unused sheets or split the workbook
//	          Patterns: "file too large"
//
//	FILE002 - Invalid workbook: File is not a readable .xlsx workbook
//	          Action: Save the file as Excel Workbook (.xlsx)
//	          Patterns: "invalid workbook"
//
//	FILE003 - No file: A workbook field was left empty
//	          Action: Select both workbooks before starting a run
//	          Patterns: "no file provided"
//
// # Run Errors (RUN001-RUN099)
//
// Errors related to pipeline runs:
//
//	RUN001 - System busy: Too many runs in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent runs"
//
//	RUN002 - Run not found: The run id is unknown or expired
//	         Action: Start a new run
//	         Patterns: "run not found"
//
//	RUN003 - Unknown table: The requested output table does not exist
//	         Action: Use one of the table names listed in the run summary
//	         Patterns: "unknown table"
//
//	RUN004 - Request cancelled: Request was cancelled
//	         Action: Please try again
//	         Patterns: "context canceled"
//
//	RUN005 - Request timeout: Request timed out
//	         Action: Try smaller workbooks or check your connection
//	         Patterns: "context deadline exceeded"
//
// # Store Errors (DB001-DB099)
//
// Errors related to persisting run output:
//
//	DB001 - Connection refused: Unable to connect to database
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused"
//
//	DB002 - Connection reset: Database connection was interrupted
//	        Action: Please try again
//	        Patterns: "connection reset"
//
//	DB003 - Timeout: Operation timed out
//	        Action: Please try again later
//	        Patterns: "timeout"
//
//	DB004 - Duplicate run: Output for this run was already stored
//	        Action: Start a new run
//	        Patterns: "duplicate key"
//
// # Fallback (ERR000)
//
//	ERR000 - Unexpected error
//	         Action: Please try again or contact support
package core

import (
	"fmt"
	"strings"
)

// UserMessage contains a user-friendly error description.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern maps an error substring to a user-friendly message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns is searched in order; the first match wins.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Source Errors (SRC001-SRC002)
	// =========================================================================
	// A missing file also wraps ErrMissingSource; match the specific case first.
	{
		pattern: "source file not found",
		msg: UserMessage{
			Message: "A configured workbook path does not exist",
			Action:  "Check PIPELINE_OPERATIONS_FILE and PIPELINE_MAINTENANCE_FILE",
			Code:    "SRC002",
		},
	},
	{
		pattern: "missing source table",
		msg: UserMessage{
			Message: "A required dataset is missing or has no rows",
			Action:  "Upload both the operations and the maintenance workbooks",
			Code:    "SRC001",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE003)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "Workbook exceeds the maximum upload size",
			Action:  "Remove unused sheets or split the workbook",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "File is not a readable .xlsx workbook",
			Action:  "Save the file as Excel Workbook (.xlsx)",
			Code:    "FILE002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A workbook field was left empty",
			Action:  "Select both workbooks before starting a run",
			Code:    "FILE003",
		},
	},

	// =========================================================================
	// Run Errors (RUN001-RUN005)
	// =========================================================================
	{
		pattern: "too many concurrent runs",
		msg: UserMessage{
			Message: "Too many runs in progress",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "The run id is unknown or expired",
			Action:  "Start a new run",
			Code:    "RUN002",
		},
	},
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "The requested output table does not exist",
			Action:  "Use one of the table names listed in the run summary",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "RUN004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try smaller workbooks or check your connection",
			Code:    "RUN005",
		},
	},

	// =========================================================================
	// Store Errors (DB001-DB004)
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "Output for this run was already stored",
			Action:  "Start a new run",
			Code:    "DB004",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical
// error when users report ERR000.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It searches through known error patterns (case-insensitive) and returns
// the first match. If no pattern matches, a generic fallback message with
// code ERR000 is returned.
//
// Example:
//
//	err := fmt.Errorf("operations: %w", ErrMissingSource)
//	msg := MapError(err)
//	// msg.Code == "SRC001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
// Returns true if the error matches a specific pattern (not the generic ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging while providing a clean message for users.
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

// NewUserError creates a UserError by mapping a technical error to a user-friendly message.
// Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
