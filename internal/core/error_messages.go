package core

// # Error Codes Reference
//
// User-facing messages with codes for support reference. Codes are grouped
// by category:
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum size limit
//	          Action: Split the file into smaller files
//	          Patterns: "file too large", "request body too large"
//
//	FILE002 - Unsupported type: File is not Excel, text or CSV
//	          Action: Upload a .xlsx, .xls, .csv or .txt file
//	          Patterns: "unsupported file type"
//
//	FILE003 - Unreadable workbook: Excel file could not be opened
//	          Action: Re-save the workbook in Excel and try again
//	          Patterns: "open workbook", "open legacy workbook"
//
//	FILE004 - No file: No file was selected
//	          Action: Choose a file to clean
//	          Patterns: "no file provided"
//
//	FILE005 - Empty file: The file is empty
//	          Action: Choose a file that contains data
//	          Patterns: "empty file"
//
//	FILE006 - Malformed text: Delimited text could not be parsed
//	          Action: Ensure the file is comma or tab delimited
//	          Patterns: "parse delimited text"
//
//	FILE007 - Output failed: The cleaned file could not be written
//	          Action: Check the output folder exists and is writable
//	          Patterns: "create output", "write workbook", "write delimited text"
//
//	FILE008 - Invalid path: An input file or output folder does not exist
//	          Action: Check the path and try again
//	          Patterns: "path does not exist", "not a directory", "not a file",
//	          "overwrite the input"
//
// # Cleaning Warnings (CLN001-CLN099)
//
// Non-fatal conditions reported on the run summary:
//
//	CLN001 - Empty table: The file has no rows
//	CLN002 - Malformed cell: A cell could not be read as text and was left unchanged
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - System busy: Too many cleaning runs in progress
//	         Patterns: "too many cleaning runs"
//
//	RUN002 - Run not found: The run does not exist or has expired
//	         Patterns: "run not found"
//
//	RUN003 - Request cancelled
//	         Patterns: "context canceled"
//
//	RUN004 - Request timeout
//	         Patterns: "context deadline exceeded"
//
//	RUN005 - History unavailable: Run history is not configured
//	         Patterns: "history disabled"
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when no pattern matches. Check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

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
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "File type must be either Excel, Text as comma or tab delimited, or CSV",
			Action:  "Upload a .xlsx, .xls, .csv or .txt file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "open workbook",
		msg: UserMessage{
			Message: "The Excel file could not be opened",
			Action:  "Re-save the workbook in Excel and try again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "open legacy workbook",
		msg: UserMessage{
			Message: "The Excel file could not be opened",
			Action:  "Re-save the workbook as .xlsx and try again",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Choose a file to clean",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Choose a file that contains data",
			Code:    "FILE005",
		},
	},
	{
		pattern: "parse delimited text",
		msg: UserMessage{
			Message: "The text file could not be parsed",
			Action:  "Ensure the file is comma or tab delimited",
			Code:    "FILE006",
		},
	},
	{
		pattern: "path does not exist",
		msg: UserMessage{
			Message: "The selected path does not exist",
			Action:  "Check the path and try again",
			Code:    "FILE008",
		},
	},
	{
		pattern: "not a directory",
		msg: UserMessage{
			Message: "The output location is not a folder",
			Action:  "Choose an existing folder for the cleaned file",
			Code:    "FILE008",
		},
	},
	{
		pattern: "not a file",
		msg: UserMessage{
			Message: "The input is a folder, not a file",
			Action:  "Choose a file to clean",
			Code:    "FILE008",
		},
	},
	{
		pattern: "overwrite the input",
		msg: UserMessage{
			Message: "The cleaned file would replace the original",
			Action:  "Choose a different file name or folder",
			Code:    "FILE008",
		},
	},
	{
		pattern: "create output",
		msg: UserMessage{
			Message: "The cleaned file could not be written",
			Action:  "Check the output folder exists and is writable",
			Code:    "FILE007",
		},
	},
	{
		pattern: "write workbook",
		msg: UserMessage{
			Message: "The cleaned file could not be written",
			Action:  "Check the output folder exists and is writable",
			Code:    "FILE007",
		},
	},
	{
		pattern: "write delimited text",
		msg: UserMessage{
			Message: "The cleaned file could not be written",
			Action:  "Check the output folder exists and is writable",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Run Errors
	// =========================================================================
	{
		pattern: "too many cleaning runs",
		msg: UserMessage{
			Message: "Too many files are being cleaned right now",
			Action:  "Please wait a moment and try again",
			Code:    "RUN001",
		},
	},
	{
		pattern: "run not found",
		msg: UserMessage{
			Message: "The cleaning run was not found",
			Action:  "The result may have expired. Clean the file again",
			Code:    "RUN002",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "The request was cancelled",
			Action:  "Please try again",
			Code:    "RUN003",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The request timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "RUN004",
		},
	},
	{
		pattern: "history disabled",
		msg: UserMessage{
			Message: "Run history is not available",
			Action:  "Configure DATABASE_URL to keep a history of runs",
			Code:    "RUN005",
		},
	},

	// =========================================================================
	// Rate Limiting
	// =========================================================================
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

// MapError converts a technical error to a user-friendly message. It returns
// the first matching pattern, or the ERR000 fallback.
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

// FormatUserError formats err as "Message (Code: XXX). Action".
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
