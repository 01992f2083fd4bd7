package probe

import "errors"

// Sentinel errors returned by the probe.
var (
	ErrChecksFailed = errors.New("checks failed")
	ErrUnhealthy    = errors.New("service unhealthy")
	ErrBadResponse  = errors.New("unexpected response")
)
