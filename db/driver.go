package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Driver identifies a supported database engine.
type Driver string

// All supported database drivers.
const (
	DriverSQLServer Driver = "sqlserver"
	DriverPostgres  Driver = "postgres"
	DriverMySQL     Driver = "mysql"
	DriverSQLite    Driver = "sqlite"
)

// DriverFromString returns a valid Driver for the given string, or an error if
// the value is invalid.
func DriverFromString(val string) (Driver, error) {
	switch strings.ToLower(val) {
	case "sqlserver", "mssql":
		return DriverSQLServer, nil
	case "postgres", "postgresql":
		return DriverPostgres, nil
	case "mysql", "mariadb":
		return DriverMySQL, nil
	case "sqlite", "sqlite3":
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("unsupported database driver '%s'", val)
}

// sqlName is the name the driver is registered as in database/sql.
func (d Driver) sqlName() string {
	return string(d)
}

// LedgerTable is the default name of the table that records applied scripts.
func (d Driver) LedgerTable() string {
	switch d {
	case DriverSQLServer, DriverPostgres:
		return "dbo.DbScripts"
	default:
		return "DbScripts"
	}
}

// Placeholder returns the bind parameter for the n-th (1-based) query argument.
func (d Driver) Placeholder(n int) string {
	switch d {
	case DriverPostgres:
		return "$" + strconv.Itoa(n)
	case DriverSQLServer:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}
