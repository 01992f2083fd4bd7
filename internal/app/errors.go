package service

import "errors"

// Sentinel error kinds returned by the service.
var (
	ErrVehicleNotFound  = errors.New("vehicle not found")
	ErrInvalidTolerance = errors.New("invalid tolerance")
	ErrNotConfigured    = errors.New("service has no snapshot reader")
)
