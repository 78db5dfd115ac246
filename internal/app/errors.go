package service

import "errors"

// Sentinel kinds for service errors.
var (
	ErrNoSchedule    = errors.New("no schedule source configured")
	ErrQueueRejected = errors.New("fetch queue rejected job")
)
