package tasks

import "errors"

var (
	// ErrCheckFailed wraps transport and decoding failures of a check.
	ErrCheckFailed = errors.New("availability check failed")

	// ErrNotificationFailed wraps a failed primary notification.
	ErrNotificationFailed = errors.New("notification delivery failed")
)
