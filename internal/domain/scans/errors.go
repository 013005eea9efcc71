package scans

import "errors"

var (
	// ErrNotFound covers both a missing scan and one owned by another user.
	ErrNotFound = errors.New("scan not found")
	// ErrInvalidTransition is returned when a status update would not move
	// the scan forward.
	ErrInvalidTransition = errors.New("invalid scan status transition")
)

// ErrInvalidInput is returned when a submission is missing its url or owner.
var ErrInvalidInput = errors.New("invalid scan input")
