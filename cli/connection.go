package cli

import (
	"database/sql"
	"fmt"
	"slices"

	"github.com/alecthomas/kong"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
	"go.hackfix.me/scriptomate/connection"
	"go.hackfix.me/scriptomate/db"
)

// Connection manages the database connections stored in the configuration.
type Connection struct {
	Add struct {
		ConnectionFields `embed:""`
	} `kong:"cmd,help='Add a new connection.'"`
	Remove struct {
		Name string `arg:"" help:"Connection name."`
	} `kong:"cmd,help='Remove a connection.',aliases='rm'"`
	Update struct {
		ConnectionFields `embed:""`
	} `kong:"cmd,help='Update a connection.'"`
	List struct{} `kong:"cmd,help='List all connections.',aliases='ls'"`
}

// ConnectionFields are the arguments describing a connection.
type ConnectionFields struct {
	Name        string    `arg:"" help:"Connection name."`
	Driver      db.Driver `arg:"" type:"driver" help:"Database driver (sqlserver, postgres, mysql or sqlite)."`
	DSN         string    `arg:"" help:"Database connection string."`
	LedgerTable string    `help:"Name of the table that logs applied scripts. Defaults to the driver's ledger table."`
}

func (f ConnectionFields) connection() connection.Connection {
	return connection.Connection{
		Name:        sql.Null[string]{V: f.Name, Valid: true},
		Driver:      sql.Null[db.Driver]{V: f.Driver, Valid: true},
		DSN:         sql.Null[string]{V: f.DSN, Valid: true},
		LedgerTable: sql.Null[string]{V: f.LedgerTable, Valid: f.LedgerTable != ""},
	}
}

// Run the connection command.
func (c *Connection) Run(kctx *kong.Context, appCtx *actx.Context) error {
	conns := appCtx.Config.Connections

	var (
		action string
		name   string
	)
	switch kctx.Selected().Name {
	case "add":
		name = c.Add.Name
		if _, ok := conns[name]; ok {
			return aerrors.NewWith("connection already exists", "name", name)
		}
		conn := c.Add.connection()
		if err := conn.Validate(); err != nil {
			return err //nolint:wrapcheck // Validation error.
		}
		conns[name] = conn
		action = "adding"
	case "remove":
		name = c.Remove.Name
		if _, ok := conns[name]; !ok {
			return aerrors.NewWith("connection doesn't exist", "name", name)
		}
		delete(conns, name)
		action = "removing"
	case "update":
		name = c.Update.Name
		if _, ok := conns[name]; !ok {
			return aerrors.NewWith("connection doesn't exist", "name", name)
		}
		conn := c.Update.connection()
		if err := conn.Validate(); err != nil {
			return err //nolint:wrapcheck // Validation error.
		}
		conns[name] = conn
		action = "updating"
	case "list":
		return listConnections(appCtx, conns)
	}

	if err := appCtx.Config.Save(); err != nil {
		return aerrors.NewWithCause(fmt.Sprintf("failed %s connection", action), err, "name", name)
	}

	return nil
}

func listConnections(appCtx *actx.Context, conns map[string]connection.Connection) error {
	if len(conns) == 0 {
		return nil
	}

	names := make([]string, 0, len(conns))
	for name := range conns {
		names = append(names, name)
	}
	slices.Sort(names)

	data := make([][]string, 0, len(names))
	for _, name := range names {
		conn := conns[name]
		data = append(data, []string{name, string(conn.Driver.V), conn.Ledger()})
	}

	if err := renderTable([]string{"Name", "Driver", "Ledger Table"}, data, appCtx.Stdout); err != nil {
		return fmt.Errorf("failed rendering table: %w", err)
	}

	return nil
}
