package config

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mandelsoft/vfs/pkg/vfs"

	"go.hackfix.me/scriptomate/connection"
	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/sequence"
	"go.hackfix.me/scriptomate/sequence/store"
)

// DefaultStatementTimeout is the time a single script may run for, unless
// configured otherwise.
const DefaultStatementTimeout = 600 * time.Second

// Config represents the application configuration, backed by a filesystem for
// persistence.
type Config struct {
	Connections map[string]connection.Connection
	Execution   Execution
	Sequence    Sequence
	Server      Server

	fs   vfs.FileSystem
	path string
}

// NewConfig creates a new Config instance with the specified filesystem
// and configuration file path.
func NewConfig(fs vfs.FileSystem, path string) *Config {
	return &Config{fs: fs, path: path}
}

// Load reads and parses the configuration file from the filesystem.
// If the file doesn't exist, it initializes with an empty configuration.
func (c *Config) Load() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}

	configJSON, err := vfs.ReadFile(c.fs, c.path)
	if err != nil && !vfs.IsErrNotExist(err) {
		return fmt.Errorf("failed reading configuration file: %w", err)
	}

	// Ensure that unmarshalling JSON doesn't fail if the file doesn't exist or is empty.
	if len(configJSON) == 0 {
		configJSON = []byte("{}")
	}

	if err = json.Unmarshal(configJSON, c); err != nil {
		return fmt.Errorf("failed parsing configuration file: %w", err)
	}

	return nil
}

// Path returns the filesystem path where the configuration is stored.
func (c *Config) Path() string {
	return c.path
}

// Save writes the current configuration to the filesystem as JSON.
func (c *Config) Save() error {
	if err := c.fs.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("failed creating configuration directory: %w", err)
	}
	configJSON, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed serializing configuration data: %w", err)
	}
	if err = vfs.WriteFile(c.fs, c.path, configJSON, 0o644); err != nil {
		return fmt.Errorf("failed writing configuration file: %w", err)
	}

	return nil
}

// Execution defines options of the migration executor.
type Execution struct {
	// StatementTimeout is the time a single script may run for before it's
	// cancelled and rolled back.
	StatementTimeout sql.Null[time.Duration] `json:"statement_timeout"`
}

// Sequence defines options of the sequence number allocator.
type Sequence struct {
	// Mode is the default allocation mode.
	Mode sql.Null[sequence.Mode] `json:"mode"`
	// RemoteURL is the address of the number service used in remote mode.
	RemoteURL sql.Null[string] `json:"remote_url"`
	// Password is the shared secret sent to the number service.
	Password sql.Null[string] `json:"password"`
	// Store is the counter backend used in table mode.
	Store sql.Null[store.Type] `json:"store"`
	// Table is the counter table name, or the key prefix for Redis.
	Table sql.Null[string] `json:"table"`
	// ConnectionString is the Azure storage account connection string.
	ConnectionString sql.Null[string] `json:"connection_string"`
	// Driver and DSN identify the database of the sql backend.
	Driver sql.Null[db.Driver] `json:"driver"`
	DSN    sql.Null[string]    `json:"dsn"`
	// RedisAddress is the [host]:port of the Redis server.
	RedisAddress sql.Null[string] `json:"redis_address"`
	// AWSRegion overrides the region resolved from the AWS environment.
	AWSRegion sql.Null[string] `json:"aws_region"`
}

// StoreOptions returns the options for opening the configured counter store.
func (s Sequence) StoreOptions() store.Options {
	return store.Options{
		Type:             s.Store.V,
		Table:            s.Table.V,
		ConnectionString: s.ConnectionString.V,
		Driver:           s.Driver.V,
		DSN:              s.DSN.V,
		RedisAddress:     s.RedisAddress.V,
		AWSRegion:        s.AWSRegion.V,
	}
}

// Server defines configuration options specific to the number service.
type Server struct {
	// Address is the network address in [host]:port format the server will listen on.
	Address sql.Null[string] `json:"address"`
	// Password is the shared secret clients must send. It's either the bcrypt
	// hash printed by the hash-password command, or the plain password.
	Password sql.Null[string] `json:"password"`
}

type cfgWrapper struct {
	Connections map[string]connWrapper `json:"connections,omitempty"`
	Execution   execCfgWrapper         `json:"execution"`
	Sequence    seqCfgWrapper          `json:"sequence"`
	Server      srvCfgWrapper          `json:"server"`
}
type connWrapper struct {
	Driver      string `json:"driver"`
	DSN         string `json:"dsn"`
	LedgerTable string `json:"ledger_table,omitempty"`
}
type execCfgWrapper struct {
	StatementTimeout string `json:"statement_timeout,omitempty"`
}
type seqCfgWrapper struct {
	Mode             string `json:"mode,omitempty"`
	RemoteURL        string `json:"remote_url,omitempty"`
	Password         string `json:"password,omitempty"`
	Store            string `json:"store,omitempty"`
	Table            string `json:"table,omitempty"`
	ConnectionString string `json:"connection_string,omitempty"`
	Driver           string `json:"driver,omitempty"`
	DSN              string `json:"dsn,omitempty"`
	RedisAddress     string `json:"redis_address,omitempty"`
	AWSRegion        string `json:"aws_region,omitempty"`
}
type srvCfgWrapper struct {
	Address  string `json:"address,omitempty"`
	Password string `json:"password,omitempty"`
}

// MarshalJSON implements custom JSON marshaling to convert sql.Null values
// to their underlying types, omitting invalid/null fields from the output.
func (c Config) MarshalJSON() ([]byte, error) {
	w := cfgWrapper{}

	if len(c.Connections) > 0 {
		w.Connections = make(map[string]connWrapper, len(c.Connections))
	}
	for name, conn := range c.Connections {
		w.Connections[name] = connWrapper{
			Driver:      string(conn.Driver.V),
			DSN:         conn.DSN.V,
			LedgerTable: conn.LedgerTable.V,
		}
	}

	if c.Execution.StatementTimeout.Valid {
		w.Execution.StatementTimeout = c.Execution.StatementTimeout.V.String()
	}

	s := c.Sequence
	w.Sequence = seqCfgWrapper{
		Mode:             string(s.Mode.V),
		RemoteURL:        s.RemoteURL.V,
		Password:         s.Password.V,
		Store:            string(s.Store.V),
		Table:            s.Table.V,
		ConnectionString: s.ConnectionString.V,
		Driver:           string(s.Driver.V),
		DSN:              s.DSN.V,
		RedisAddress:     s.RedisAddress.V,
		AWSRegion:        s.AWSRegion.V,
	}

	w.Server.Address = c.Server.Address.V
	w.Server.Password = c.Server.Password.V

	//nolint:wrapcheck // This is fine.
	return json.Marshal(w)
}

// UnmarshalJSON implements custom JSON unmarshaling to convert plain values
// into sql.Null types and parse duration strings into time.Duration values.
func (c *Config) UnmarshalJSON(data []byte) error {
	var w cfgWrapper
	if err := json.Unmarshal(data, &w); err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	c.Connections = make(map[string]connection.Connection, len(w.Connections))
	for name, cw := range w.Connections {
		driver, err := db.DriverFromString(cw.Driver)
		if err != nil {
			return fmt.Errorf("invalid driver for connection %s: %w", name, err)
		}
		c.Connections[name] = connection.Connection{
			Name:        sql.Null[string]{V: name, Valid: true},
			Driver:      sql.Null[db.Driver]{V: driver, Valid: true},
			DSN:         nullString(cw.DSN),
			LedgerTable: nullString(cw.LedgerTable),
		}
	}

	if w.Execution.StatementTimeout != "" {
		dur, err := time.ParseDuration(w.Execution.StatementTimeout)
		if err != nil {
			return fmt.Errorf("failed parsing statement timeout: %w", err)
		}
		if dur <= 0 {
			return fmt.Errorf("statement timeout must be positive, got %s", dur)
		}
		c.Execution.StatementTimeout = sql.Null[time.Duration]{V: dur, Valid: true}
	}

	s := w.Sequence
	if s.Mode != "" {
		mode, err := sequence.ParseMode(s.Mode)
		if err != nil {
			return err
		}
		c.Sequence.Mode = sql.Null[sequence.Mode]{V: mode, Valid: true}
	}
	if s.Store != "" {
		st, err := store.TypeFromString(s.Store)
		if err != nil {
			return err
		}
		c.Sequence.Store = sql.Null[store.Type]{V: st, Valid: true}
	}
	if s.Driver != "" {
		driver, err := db.DriverFromString(s.Driver)
		if err != nil {
			return fmt.Errorf("invalid sequence store driver: %w", err)
		}
		c.Sequence.Driver = sql.Null[db.Driver]{V: driver, Valid: true}
	}
	c.Sequence.RemoteURL = nullString(s.RemoteURL)
	c.Sequence.Password = nullString(s.Password)
	c.Sequence.Table = nullString(s.Table)
	c.Sequence.ConnectionString = nullString(s.ConnectionString)
	c.Sequence.DSN = nullString(s.DSN)
	c.Sequence.RedisAddress = nullString(s.RedisAddress)
	c.Sequence.AWSRegion = nullString(s.AWSRegion)

	c.Server.Address = nullString(w.Server.Address)
	c.Server.Password = nullString(w.Server.Password)

	return nil
}

// SetDefaults sets default configuration values if they weren't set already.
func (c *Config) SetDefaults() {
	if c.Connections == nil {
		c.Connections = map[string]connection.Connection{}
	}
	if !c.Execution.StatementTimeout.Valid {
		c.Execution.StatementTimeout = sql.Null[time.Duration]{V: DefaultStatementTimeout, Valid: true}
	}
	if !c.Sequence.Mode.Valid {
		c.Sequence.Mode = sql.Null[sequence.Mode]{V: sequence.ModeLocal, Valid: true}
	}
	if !c.Sequence.Store.Valid {
		c.Sequence.Store = sql.Null[store.Type]{V: store.TypeMemory, Valid: true}
	}
	if !c.Server.Address.Valid {
		c.Server.Address = sql.Null[string]{V: ":8080", Valid: true}
	}
}

func nullString(v string) sql.Null[string] {
	return sql.Null[string]{V: v, Valid: v != ""}
}
