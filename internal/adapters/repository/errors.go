package repository

import "errors"

// Sentinel kinds for snapshot errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrUpstreamRead    = errors.New("snapshot read failed")
	ErrInvalidPageSize = errors.New("invalid page size")
)
