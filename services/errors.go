package services

import "errors"

// Error taxonomy shared by every service. Controllers translate these into
// the HTTP vocabulary; nothing below the controllers speaks HTTP.
var (
	// ErrInvalidInput — malformed or empty input, locally recoverable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound — the code (or session) does not resolve to a guest.
	ErrNotFound = errors.New("not found")

	// ErrUpstreamUnavailable — the directory or store transport failed.
	// Retryable. Must never be collapsed into ErrNotFound: an outage is
	// not an invalid code.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrDuplicate — a submission for this identity is already recorded.
	ErrDuplicate = errors.New("already submitted")

	// ErrEventClosed — the event window no longer accepts RSVPs.
	ErrEventClosed = errors.New("event is not accepting RSVPs")
)
