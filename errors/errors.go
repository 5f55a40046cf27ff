package opsdesk_errors

import "github.com/pkg/errors"

var (
	// unlock lifecycle errors
	ErrInvalidSecret = errors.New("invalid master password")
	ErrNotUnlocked   = errors.New("datastore is locked")

	// seed data errors
	ErrMissingSeedData     = errors.New("required seed record is missing")
	ErrCredentialsNotFound = errors.New("credentials not found for service")

	// job errors
	ErrJobTimeout  = errors.New("job exceeded wall-clock timeout")
	ErrJobNotFound = errors.New("job not found")

	// ticket errors
	ErrTicketNotFound = errors.New("ticket not found")
)
