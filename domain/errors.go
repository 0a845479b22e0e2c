package domain

import "errors"

var (
	// ErrNetwork indicates a fetch or mutation could not complete.
	ErrNetwork = errors.New("network failure")

	// ErrStaleFetch indicates a history page no longer chains onto the window.
	ErrStaleFetch = errors.New("stale fetch")

	// ErrRateExceeded indicates a refresh was requested faster than the poll interval.
	ErrRateExceeded = errors.New("refresh rate exceeded")

	// ErrBusy indicates another fetch for the same window is in flight.
	ErrBusy = errors.New("fetch already in flight")

	// ErrNoHistory indicates there is nothing older to load.
	ErrNoHistory = errors.New("no older messages")

	// ErrClosed indicates the conversation was closed or switched.
	ErrClosed = errors.New("conversation closed")

	// ErrEmptyMessage indicates the user tried to send an empty message.
	ErrEmptyMessage = errors.New("message cannot be empty")

	// ErrInvalidPoll indicates a poll without a question or with fewer than two options.
	ErrInvalidPoll = errors.New("a poll needs a question and at least two options")

	// ErrUnknownMessage indicates the target message is not in the loaded window.
	ErrUnknownMessage = errors.New("message not loaded")

	// ErrUnsupported indicates the action is not available for this kind of conversation.
	ErrUnsupported = errors.New("not supported for this conversation")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("unauthorized")
)
