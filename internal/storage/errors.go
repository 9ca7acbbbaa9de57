package storage

import "errors"

var (
	ErrNotFound = errors.New("not found")
	// ErrConflict reports a stale version on write.
	ErrConflict = errors.New("conflict")
	// ErrDuplicate reports a violated uniqueness rule: a taken id or email.
	ErrDuplicate = errors.New("duplicate")
	// ErrUnavailable wraps any backend failure: unreachable server, full disk, quota.
	ErrUnavailable = errors.New("storage unavailable")
	// ErrInvalidReference is returned when a record points at a missing record.
	ErrInvalidReference = errors.New("invalid reference")
)
