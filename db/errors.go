package db

import (
	"strings"

	"github.com/teranos/chronicle/errors"
)

// ErrDatabaseClosed marks operations on a closed cache database
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports whether err comes from a closed connection.
// database/sql returns an unmarked error, so the message is checked too.
func IsDatabaseClosed(err error) bool {
	return err != nil && (errors.Is(err, ErrDatabaseClosed) || strings.Contains(err.Error(), "sql: database is closed"))
}
