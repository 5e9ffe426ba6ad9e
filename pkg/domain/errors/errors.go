package errors

import "errors"

var (
	// requested entity is not found.
	ErrMissing = errors.New("missing")

	// the database cannot serve requests, for example, the connection is lost.
	ErrUnavailable = errors.New("database is unavailable")
)
