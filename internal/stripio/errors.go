package stripio

import "errors"

var (
	// ErrConfiguration reports missing or contradictory image parameters,
	// or a buffer that does not fit them.
	ErrConfiguration = errors.New("invalid image configuration")

	// ErrContainer reports a failed open, close, tag or strip call on the
	// underlying container.
	ErrContainer = errors.New("container operation failed")

	// ErrTruncated reports a strip transfer that moved fewer bytes than the
	// strip holds.
	ErrTruncated = errors.New("truncated strip transfer")
)
