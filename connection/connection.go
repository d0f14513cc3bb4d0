// Package connection contains the named target database connections stored in
// the application configuration.
package connection

import (
	"context"
	"database/sql"
	"fmt"

	"go.hackfix.me/scriptomate/db"
)

// Connection is a named target database that scripts can be applied to.
type Connection struct {
	Name        sql.Null[string]    `json:"name"`
	Driver      sql.Null[db.Driver] `json:"driver"`
	DSN         sql.Null[string]    `json:"dsn"`
	LedgerTable sql.Null[string]    `json:"ledger_table"`
}

// Ledger returns the name of the applied-script ledger table, falling back to
// the driver's default.
func (c Connection) Ledger() string {
	if c.LedgerTable.Valid && c.LedgerTable.V != "" {
		return c.LedgerTable.V
	}
	return c.Driver.V.LedgerTable()
}

// Validate returns an error if the connection can't be opened.
func (c Connection) Validate() error {
	if !c.Driver.Valid {
		return fmt.Errorf("connection '%s' has no driver", c.Name.V)
	}
	if !c.DSN.Valid || c.DSN.V == "" {
		return fmt.Errorf("connection '%s' has no DSN", c.Name.V)
	}
	return nil
}

// Open opens the connection's database.
func (c Connection) Open(ctx context.Context) (*db.DB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return db.Open(ctx, c.Driver.V, c.DSN.V)
}
