package storage

import "errors"

var (
	// ErrNotFound indicates the requested device is not registered.
	ErrNotFound = errors.New("device not found")
	// ErrEmptyIdentity is returned when a device key is blank.
	ErrEmptyIdentity = errors.New("identity is required")
)
