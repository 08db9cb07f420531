package core

// error_messages.go maps technical errors to user-facing messages with codes
// that support staff can look up.
//
// # Feed Errors (FEED001-FEED099)
//
//	FEED001 - No feed file exists for the requested date
//	FEED002 - The feed key is not registered
//	FEED003 - The date is not a valid ISO date (YYYY-MM-DD) or month (YYYY-MM)
//	FEED004 - Too many feeds are being loaded at once
//	FEED005 - The feed file could not be fetched from its source
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - The request was cancelled
//	REQ002 - The request timed out
//
// # Fallback
//
//	GEN001 - Anything else; check application logs for the technical error
//
// Sentinel errors are matched with errors.Is first. Text patterns are a
// fallback for errors crossing process boundaries, where wrapping is lost.

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors returned by the service layer.
var (
	ErrFeedNotFound   = errors.New("feed not found")
	ErrInvalidDate    = errors.New("invalid date")
	ErrTooManyFetches = errors.New("too many concurrent feed loads")
	ErrFetchFailed    = errors.New("feed fetch failed")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorMapping struct {
	target  error
	pattern string
	msg     UserMessage
}

var errorMappings = []errorMapping{
	{
		target:  ErrFeedNotFound,
		pattern: "feed not found",
		msg: UserMessage{
			Message: "No feed file was found for this date",
			Action:  "Check that the day's file was published",
			Code:    "FEED001",
		},
	},
	{
		target:  ErrUnknownFeed,
		pattern: "unknown feed",
		msg: UserMessage{
			Message: "This feed does not exist",
			Action:  "Use one of the feeds listed at /api/feeds",
			Code:    "FEED002",
		},
	},
	{
		target:  ErrInvalidDate,
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date",
			Action:  "Use YYYY-MM-DD for days and YYYY-MM for months",
			Code:    "FEED003",
		},
	},
	{
		target:  ErrTooManyFetches,
		pattern: "too many concurrent",
		msg: UserMessage{
			Message: "The system is busy loading other feeds",
			Action:  "Please wait a moment and try again",
			Code:    "FEED004",
		},
	},
	{
		target:  ErrFetchFailed,
		pattern: "fetch failed",
		msg: UserMessage{
			Message: "The feed file could not be read from its source",
			Action:  "Try again later; if it persists, check the file storage",
			Code:    "FEED005",
		},
	},
	{
		target:  context.Canceled,
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		target:  context.DeadlineExceeded,
		pattern: "deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a shorter date range or try again later",
			Code:    "REQ002",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "GEN001",
}

// MapError converts a technical error to a user-friendly message.
// Returns an empty UserMessage for nil.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.msg
		}
	}
	lower := strings.ToLower(err.Error())
	for _, m := range errorMappings {
		if strings.Contains(lower, m.pattern) {
			return m.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than GEN001.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
