package types

import (
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/go-sqlite"
	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	mssql "github.com/microsoft/go-mssqldb"
	sqlite3 "modernc.org/sqlite/lib"
)

// ConnectionError is returned when the target database can't be reached.
type ConnectionError struct {
	Err error
}

// Error returns a string representation of the error.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed connecting to database: %s", e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// LoadError represents an error that occurred while loading data from the database.
type LoadError struct {
	ModelName string
	Err       error
}

// Error returns a string representation of the error.
func (e *LoadError) Error() string {
	return fmt.Sprintf("failed loading %s: %s", e.ModelName, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LoadError) Unwrap() error {
	return e.Err
}

// ScanError represents an error that occurred while scanning database results
// into Go types.
type ScanError struct {
	ModelName string
	Err       error
}

// Error returns a string representation of the error.
func (e *ScanError) Error() string {
	return fmt.Sprintf("failed scanning %s data: %s", e.ModelName, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Err
}

// IsUniqueViolation returns true if err is a unique or primary key constraint
// violation reported by any of the supported drivers.
func IsUniqueViolation(err error) bool {
	var (
		sqliteErr *sqlite.Error
		pqErr     *pq.Error
		mysqlErr  *mysql.MySQLError
	)
	switch {
	case errors.As(err, &sqliteErr):
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	case errors.As(err, &pqErr):
		return pqErr.Code == "23505"
	case errors.As(err, &mysqlErr):
		return mysqlErr.Number == 1062
	}
	if n, ok := mssqlErrNumber(err); ok {
		return n == 2627 || n == 2601
	}

	return false
}

// IsUndefinedTable returns true if err reports that a queried table doesn't
// exist.
func IsUndefinedTable(err error) bool {
	var (
		sqliteErr *sqlite.Error
		pqErr     *pq.Error
		mysqlErr  *mysql.MySQLError
	)
	switch {
	case errors.As(err, &sqliteErr):
		return strings.Contains(sqliteErr.Error(), "no such table")
	case errors.As(err, &pqErr):
		return pqErr.Code == "42P01" || pqErr.Code == "3F000"
	case errors.As(err, &mysqlErr):
		return mysqlErr.Number == 1146
	}
	if n, ok := mssqlErrNumber(err); ok {
		return n == 208
	}

	return false
}

// mssqlErrNumber returns the error number of a SQL Server error, which the
// driver may return either by value or by reference.
func mssqlErrNumber(err error) (int32, bool) {
	var errVal mssql.Error
	if errors.As(err, &errVal) {
		return errVal.Number, true
	}
	var errPtr *mssql.Error
	if errors.As(err, &errPtr) {
		return errPtr.Number, true
	}
	return 0, false
}
