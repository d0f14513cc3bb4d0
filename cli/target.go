package cli

import (
	"database/sql"
	"fmt"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/scriptomate/app/config"
	aerrors "go.hackfix.me/scriptomate/app/errors"
	"go.hackfix.me/scriptomate/connection"
	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/sequence"
)

// Target selects the database scripts are applied to, either by the name of a
// configured connection, or by an explicit driver and DSN.
type Target struct {
	Connection  string    `short:"c" help:"Name of a configured connection."`
	Driver      db.Driver `type:"driver" help:"Database driver (sqlserver, postgres, mysql or sqlite). Used with --dsn."`
	DSN         string    `help:"Database connection string. Used with --driver."`
	LedgerTable string    `help:"Name of the table that logs applied scripts. Defaults to the driver's ledger table."`
}

// resolve returns the connection selected by the flags.
func (t Target) resolve(cfg *config.Config) (connection.Connection, error) {
	var conn connection.Connection
	switch {
	case t.Connection != "" && t.DSN != "":
		return conn, aerrors.NewWith("--connection and --dsn are mutually exclusive")
	case t.Connection != "":
		var ok bool
		conn, ok = cfg.Connections[t.Connection]
		if !ok {
			return conn, aerrors.NewWith("unknown connection", "name", t.Connection)
		}
	case t.DSN != "":
		if t.Driver == "" {
			return conn, aerrors.NewWith("--driver is required with --dsn")
		}
		conn = connection.Connection{
			Name:   sql.Null[string]{V: string(t.Driver), Valid: true},
			Driver: sql.Null[db.Driver]{V: t.Driver, Valid: true},
			DSN:    sql.Null[string]{V: t.DSN, Valid: true},
		}
	default:
		return conn, aerrors.NewWith("either --connection or --driver and --dsn are required")
	}

	if t.LedgerTable != "" {
		conn.LedgerTable = sql.Null[string]{V: t.LedgerTable, Valid: true}
	}

	return conn, conn.Validate()
}

// SequenceFlags select how sequence numbers are allocated.
type SequenceFlags struct {
	Mode sequence.Mode `type:"mode" help:"Sequence allocation mode (local, remote or table). Defaults to the configured mode."`
}

// checkDir returns a *DirNotFoundError if dir doesn't exist or isn't a directory.
func checkDir(fs vfs.FileSystem, dir string) error {
	fi, err := fs.Stat(dir)
	if err != nil {
		if vfs.IsErrNotExist(err) {
			return &DirNotFoundError{Dir: dir}
		}
		return fmt.Errorf("failed reading directory '%s': %w", dir, err)
	}
	if !fi.IsDir() {
		return &DirNotFoundError{Dir: dir}
	}
	return nil
}
