package core

// error_messages.go maps technical errors to user-facing messages with a
// support code.
//
// Codes are grouped by category:
//
//	WB001-WB099    workbook and upload problems
//	JOB001-JOB099  migration job lifecycle
//	IMP001-IMP099  import scheduling and cancellation
//	VAL001-VAL099  sheet content that could not be read
//	DB001-DB099    database constraints and connectivity
//	RATE001        request throttling
//	ERR000         fallback; check the logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Workbook
	{
		pattern: "workbook cannot be opened",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Save the file as .xlsx and upload it again",
			Code:    "WB001",
		},
	},
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "The workbook exceeds the maximum upload size",
			Action:  "Remove unused sheets or images and try again",
			Code:    "WB002",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No workbook was selected",
			Action:  "Choose an .xlsx workbook to upload",
			Code:    "WB003",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded workbook is empty",
			Action:  "Check that you selected the right file",
			Code:    "WB004",
		},
	},

	// Jobs
	{
		pattern: "migration job not found",
		msg: UserMessage{
			Message: "Migration job not found",
			Action:  "Run the dry run again to start a new migration",
			Code:    "JOB001",
		},
	},
	{
		pattern: "migration job expired",
		msg: UserMessage{
			Message: "This migration preview has expired",
			Action:  "Run the dry run again before importing",
			Code:    "JOB002",
		},
	},
	{
		pattern: "import already running",
		msg: UserMessage{
			Message: "An import for this workbook is already running",
			Action:  "Wait for it to finish and review the result",
			Code:    "JOB003",
		},
	},
	{
		pattern: "migration job already imported",
		msg: UserMessage{
			Message: "This preview has already been imported",
			Action:  "Run the dry run again to import the workbook a second time",
			Code:    "JOB004",
		},
	},

	// Import scheduling
	{
		pattern: "too many imports",
		msg: UserMessage{
			Message: "The system is busy with other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The import timed out",
			Action:  "Try again; imports are safe to re-run",
			Code:    "IMP003",
		},
	},

	// Sheet content
	{
		pattern: "header not found",
		msg: UserMessage{
			Message: "A sheet is missing its header row",
			Action:  "Check the sheet still has its original column headings",
			Code:    "VAL001",
		},
	},
	{
		pattern: "no reference week",
		msg: UserMessage{
			Message: "The cash position sheet could not be dated",
			Action:  "Include the Financial sheet or add an As At date",
			Code:    "VAL002",
		},
	},
	{
		pattern: "no recognizable blocks",
		msg: UserMessage{
			Message: "A sheet does not contain any of its expected sections",
			Action:  "Check the section titles (for example PROJECTS and SALES)",
			Code:    "VAL003",
		},
	},

	// Database
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A row with the same week and key already exists",
			Action:  "Re-run the import; it updates existing rows",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates check constraint",
		msg: UserMessage{
			Message: "A value was rejected by the database",
			Action:  "Review the warnings for out-of-range values",
			Code:    "DB002",
		},
	},
	{
		pattern: "does not exist",
		msg: UserMessage{
			Message: "A target table or column is missing",
			Action:  "Ask an administrator to apply the database schema",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Throttling
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Returns the zero UserMessage for a nil error and ERR000 when nothing matches.
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

// FormatUserError renders an error as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
