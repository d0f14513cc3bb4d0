package db

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"
	"time"

	//nolint:revive,nolintlint // Idiomatic way of loading DB libraries.
	_ "github.com/glebarez/go-sqlite"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"

	"go.hackfix.me/scriptomate/db/types"
)

// DB wraps sql.DB with the driver it was opened with.
type DB struct {
	*sql.DB
	driver Driver
}

var _ types.Querier = (*DB)(nil)

// Open prepares a connection pool to the target database. No connection is
// established until the database is first used.
func Open(ctx context.Context, driver Driver, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("a data source name is required for the %s driver", driver)
	}

	sqlDB, err := sql.Open(driver.sqlName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed opening %s database: %w", driver, err)
	}

	d := &DB{DB: sqlDB, driver: driver}

	if driver == DriverSQLite {
		if strings.Contains(dsn, "mode=memory") || strings.Contains(dsn, ":memory:") {
			// Keep in-memory databases alive between connections.
			// See https://github.com/mattn/go-sqlite3#faq
			d.SetMaxIdleConns(10)
			d.SetConnMaxLifetime(time.Duration(math.Inf(1)))
		}
		_, err = d.ExecContext(ctx, `PRAGMA foreign_keys = ON;`)
		if err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed enabling foreign key enforcement: %w", err)
		}
	}

	return d, nil
}

// Driver returns the driver the database was opened with.
func (d *DB) Driver() Driver {
	return d.driver
}
