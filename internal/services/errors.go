// Package services defines the business logic for conversations and mood
// journaling. This file centralizes common service-level error values so that
// they can be consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a chat request contains no message
	// after trimming whitespace.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrEmptyMood is returned when a journal submission is missing the mood
	// or thoughts field.
	ErrEmptyMood = errors.New("mood and thoughts are required")
)
