package postgres

import (
	"errors"
	"fmt"

	domerr "github.com/heatcare/heatcare/pkg/domain/errors"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
)

// requested data is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s", m.Identity, m.Table)
}

func (m Missing) Unwrap() error {
	return domerr.ErrMissing
}

// the database has failed to serve a request because of its connection.
type Unavailable struct {
	Cause error
}

var _ error = Unavailable{}

func (u Unavailable) Error() string {
	return fmt.Sprintf("database is unavailable: %v", u.Cause)
}

func (u Unavailable) Unwrap() []error {
	return []error{domerr.ErrUnavailable, u.Cause}
}

// Code returns the SQLSTATE of err, or "" if err is not from PostgreSQL.
func Code(err error) string {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) {
		return pgerr.Code
	}
	return ""
}

// IsForeignKeyViolation tells whether err is caused by a missing referenced row.
func IsForeignKeyViolation(err error) bool {
	return Code(err) == pgerrcode.ForeignKeyViolation
}

// IsUndefinedTable tells whether err is caused by a query to a table not created yet.
func IsUndefinedTable(err error) bool {
	return Code(err) == pgerrcode.UndefinedTable
}

// IsConnectionFailure tells whether err is an error of PostgreSQL connections
// (SQLSTATE class 08) or of a server going down.
func IsConnectionFailure(err error) bool {
	code := Code(err)
	switch code {
	case pgerrcode.AdminShutdown, pgerrcode.CrashShutdown, pgerrcode.CannotConnectNow:
		return true
	}
	return pgerrcode.IsConnectionException(code)
}

// Classify wraps err with Unavailable when it is a connection failure.
//
// Other errors are returned as they are.
func Classify(err error) error {
	if err == nil || !IsConnectionFailure(err) {
		return err
	}
	return Unavailable{Cause: err}
}
