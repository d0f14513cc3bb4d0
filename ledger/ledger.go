// Package ledger reads the set of scripts already applied to a target
// database, as recorded in its ledger table.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"

	"go.hackfix.me/scriptomate/db/types"
	"go.hackfix.me/scriptomate/script"
)

var tableNameRx = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Client reads the applied ledger table.
type Client struct {
	table  string
	logger *slog.Logger
}

// NewClient returns a new ledger Client for the given table name, which may be
// schema qualified, e.g. "dbo.DbScripts".
func NewClient(table string, logger *slog.Logger) (*Client, error) {
	if !tableNameRx.MatchString(table) {
		return nil, fmt.Errorf("invalid ledger table name '%s'", table)
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{table: table, logger: logger.With("component", "ledger")}, nil
}

// Table returns the ledger table name.
func (c *Client) Table() string {
	return c.table
}

// GetAppliedNumbers returns the numbers of all scripts recorded as applied.
// It returns a *types.ConnectionError if the database can't be reached, and a
// *MissingError if the ledger table doesn't exist.
func (c *Client) GetAppliedNumbers(ctx context.Context, q types.Querier) (Set, error) {
	if err := q.PingContext(ctx); err != nil {
		return nil, &types.ConnectionError{Err: err}
	}

	//nolint:gosec // The table name is validated in NewClient.
	rows, err := q.QueryContext(ctx, fmt.Sprintf(`SELECT ScriptNumber FROM %s`, c.table))
	if err != nil {
		if types.IsUndefinedTable(err) {
			return nil, &MissingError{Table: c.table, Err: err}
		}
		return nil, &types.LoadError{ModelName: "applied scripts", Err: err}
	}
	defer rows.Close()

	applied := Set{}
	for rows.Next() {
		var raw any
		if err = rows.Scan(&raw); err != nil {
			return nil, &types.ScanError{ModelName: "applied scripts", Err: err}
		}
		key, perr := script.ParseDecimal(numberText(raw))
		if perr != nil {
			return nil, &types.ScanError{ModelName: "applied scripts", Err: perr}
		}
		applied.Add(key)
	}
	if err = rows.Err(); err != nil {
		return nil, &types.LoadError{ModelName: "applied scripts", Err: err}
	}

	c.logger.Debug("loaded applied scripts", "table", c.table, "count", applied.Len())

	return applied, nil
}

// numberText returns the decimal text of a ScriptNumber value, which drivers
// return as integers, floats or text depending on the column type.
func numberText(v any) string {
	switch n := v.(type) {
	case int64:
		return strconv.FormatInt(n, 10)
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64)
	case []byte:
		return string(n)
	case string:
		return n
	default:
		return fmt.Sprint(n)
	}
}
