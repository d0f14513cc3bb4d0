package config_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/mandelsoft/vfs/pkg/memoryfs"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/scriptomate/app/config"
	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/sequence"
	"go.hackfix.me/scriptomate/sequence/store"
)

func TestConfigLoad(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		json   string
		check  func(t *testing.T, cfg *config.Config)
		expErr string
	}{
		{
			name: "ok/full",
			json: `{
				"connections": {"main": {"driver": "mssql", "dsn": "sqlserver://localhost", "ledger_table": "dbo.Log"}},
				"execution": {"statement_timeout": "90s"},
				"sequence": {
					"mode": "table", "store": "sql", "driver": "postgresql",
					"dsn": "postgres://localhost/seq", "table": "Numbers"
				},
				"server": {"address": ":9090", "password": "secret"}
			}`,
			check: func(t *testing.T, cfg *config.Config) {
				conn := cfg.Connections["main"]
				assert.Equal(t, "main", conn.Name.V)
				assert.Equal(t, db.DriverSQLServer, conn.Driver.V)
				assert.Equal(t, "dbo.Log", conn.Ledger())
				assert.Equal(t, 90*time.Second, cfg.Execution.StatementTimeout.V)
				assert.Equal(t, sequence.ModeTableStorage, cfg.Sequence.Mode.V)

				opts := cfg.Sequence.StoreOptions()
				assert.Equal(t, store.TypeSQL, opts.Type)
				assert.Equal(t, db.DriverPostgres, opts.Driver)
				assert.Equal(t, "postgres://localhost/seq", opts.DSN)
				assert.Equal(t, "Numbers", opts.Table)

				assert.Equal(t, sql.Null[string]{V: ":9090", Valid: true}, cfg.Server.Address)
				assert.Equal(t, sql.Null[string]{V: "secret", Valid: true}, cfg.Server.Password)
			},
		},
		{
			name: "ok/defaults",
			json: ``,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Empty(t, cfg.Connections)
				assert.Equal(t, config.DefaultStatementTimeout, cfg.Execution.StatementTimeout.V)
				assert.Equal(t, sequence.ModeLocal, cfg.Sequence.Mode.V)
				assert.Equal(t, store.TypeMemory, cfg.Sequence.Store.V)
				assert.Equal(t, ":8080", cfg.Server.Address.V)
				assert.False(t, cfg.Server.Password.Valid)
			},
		},
		{
			name: "ok/default_ledger_table",
			json: `{"connections": {"a": {"driver": "mysql", "dsn": "x"}, "b": {"driver": "postgres", "dsn": "y"}}}`,
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "DbScripts", cfg.Connections["a"].Ledger())
				assert.Equal(t, "dbo.DbScripts", cfg.Connections["b"].Ledger())
			},
		},
		{
			name:   "err/invalid_driver",
			json:   `{"connections": {"main": {"driver": "oracle", "dsn": "x"}}}`,
			expErr: "invalid driver for connection main: unsupported database driver 'oracle'",
		},
		{
			name:   "err/invalid_timeout",
			json:   `{"execution": {"statement_timeout": "soon"}}`,
			expErr: "failed parsing statement timeout",
		},
		{
			name:   "err/negative_timeout",
			json:   `{"execution": {"statement_timeout": "-1s"}}`,
			expErr: "statement timeout must be positive",
		},
		{
			name:   "err/invalid_mode",
			json:   `{"sequence": {"mode": "cloud"}}`,
			expErr: "unsupported sequence mode 'cloud'",
		},
		{
			name:   "err/invalid_json",
			json:   `{"server": `,
			expErr: "failed parsing configuration file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			fs := memoryfs.New()
			if tt.json != "" {
				require.NoError(t, vfs.WriteFile(fs, "/config.json", []byte(tt.json), 0o644))
			}

			cfg := config.NewConfig(fs, "/config.json")
			err := cfg.Load()
			if tt.expErr != "" {
				assert.ErrorContains(t, err, tt.expErr)
				return
			}
			require.NoError(t, err)
			cfg.SetDefaults()
			tt.check(t, cfg)
		})
	}
}

func TestConfigSave(t *testing.T) {
	t.Parallel()

	fs := memoryfs.New()
	cfg := config.NewConfig(fs, "/etc/scriptomate/config.json")
	require.NoError(t, cfg.Load())
	cfg.SetDefaults()
	cfg.Sequence.RemoteURL = sql.Null[string]{V: "http://numbers/api/nextnumber", Valid: true}
	cfg.Sequence.Mode = sql.Null[sequence.Mode]{V: sequence.ModeRemote, Valid: true}
	require.NoError(t, cfg.Save())

	data, err := vfs.ReadFile(fs, "/etc/scriptomate/config.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"execution": {"statement_timeout": "10m0s"},
		"sequence": {"mode": "remote", "remote_url": "http://numbers/api/nextnumber", "store": "memory"},
		"server": {"address": ":8080"}
	}`, string(data))

	loaded := config.NewConfig(fs, cfg.Path())
	require.NoError(t, loaded.Load())
	assert.Equal(t, cfg.Sequence.RemoteURL, loaded.Sequence.RemoteURL)
	assert.Equal(t, cfg.Execution.StatementTimeout, loaded.Execution.StatementTimeout)
}
