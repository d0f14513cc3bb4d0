package ledger_test

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/db/types"
	"go.hackfix.me/scriptomate/ledger"
	"go.hackfix.me/scriptomate/script"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()

	rndName := make([]byte, 12)
	_, err := rand.Read(rndName)
	require.NoError(t, err)

	// Not using just :memory: to avoid 'no such table' issue.
	// See https://github.com/mattn/go-sqlite3#faq
	d, err := db.Open(t.Context(), db.DriverSQLite,
		fmt.Sprintf("file:ledger-%x?mode=memory&cache=shared", rndName))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	return d
}

func key(t *testing.T, s string) script.OrderKey {
	t.Helper()
	k, err := script.ParseDecimal(s)
	require.NoError(t, err)
	return k
}

func TestClientGetAppliedNumbers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		setup      []string
		expPresent []string
		expAbsent  []string
		expErr     string
		expErrType any
	}{
		{
			name: "ok/numeric_column",
			setup: []string{
				`CREATE TABLE DbScripts (ScriptNumber DECIMAL(18,4) NOT NULL)`,
				`INSERT INTO DbScripts VALUES (1), (14.20), (250101120000)`,
			},
			expPresent: []string{"001", "14.2", "250101120000"},
			expAbsent:  []string{"2", "14.21"},
		},
		{
			name: "ok/text_column",
			setup: []string{
				`CREATE TABLE DbScripts (ScriptNumber TEXT NOT NULL)`,
				`INSERT INTO DbScripts VALUES ('003'), ('3.50')`,
			},
			expPresent: []string{"3", "3.5"},
		},
		{
			name:      "ok/empty",
			setup:     []string{`CREATE TABLE DbScripts (ScriptNumber DECIMAL(18,4) NOT NULL)`},
			expAbsent: []string{"1"},
		},
		{
			name:       "err/missing_table",
			expErr:     "ledger table 'DbScripts' doesn't exist",
			expErrType: &ledger.MissingError{},
		},
		{
			name: "err/invalid_value",
			setup: []string{
				`CREATE TABLE DbScripts (ScriptNumber TEXT NOT NULL)`,
				`INSERT INTO DbScripts VALUES ('abc')`,
			},
			expErr:     "invalid decimal number 'abc'",
			expErrType: &types.ScanError{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := newTestDB(t)
			for _, stmt := range tt.setup {
				_, err := d.ExecContext(t.Context(), stmt)
				require.NoError(t, err)
			}

			client, err := ledger.NewClient("DbScripts", slog.New(slog.DiscardHandler))
			require.NoError(t, err)

			applied, err := client.GetAppliedNumbers(t.Context(), d)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.ErrorContains(t, err, tt.expErr)
				assert.IsType(t, tt.expErrType, err)
				assert.Nil(t, applied)
				return
			}

			require.NoError(t, err)
			for _, p := range tt.expPresent {
				assert.True(t, applied.Contains(key(t, p)), p)
			}
			for _, a := range tt.expAbsent {
				assert.False(t, applied.Contains(key(t, a)), a)
			}
		})
	}
}

func TestClientConnectionError(t *testing.T) {
	t.Parallel()

	d := newTestDB(t)
	require.NoError(t, d.Close())

	client, err := ledger.NewClient("DbScripts", nil)
	require.NoError(t, err)

	_, err = client.GetAppliedNumbers(t.Context(), d)
	var connErr *types.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.ErrorContains(t, err, "failed connecting to database")
}

func TestNewClientInvalidTable(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"dbo.DbScripts", "DbScripts", "public.db_scripts"} {
		_, err := ledger.NewClient(name, nil)
		assert.NoError(t, err, name)
	}
	for _, name := range []string{"", "DbScripts; DROP TABLE x", "a.b.c", "1table"} {
		_, err := ledger.NewClient(name, nil)
		assert.Error(t, err, name)
	}
}
