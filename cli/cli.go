package cli

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/alecthomas/kong"

	"go.hackfix.me/scriptomate/app/config"
	actx "go.hackfix.me/scriptomate/app/context"
)

// CLI is the command line interface of scriptomate.
type CLI struct {
	Apply        Apply        `kong:"cmd,help='Apply pending scripts to a database.'"`
	Status       Status       `kong:"cmd,help='List scripts not yet applied to a database.'"`
	Next         Next         `kong:"cmd,help='Allocate the next script sequence number.'"`
	NewScript    NewScript    `kong:"cmd,name='new',help='Create a new script from the directory template.'"`
	Setup        Setup        `kong:"cmd,help='Create the database objects scripts rely on.'"`
	Serve        Serve        `kong:"cmd,help='Start the sequence number service.'"`
	Connection   Connection   `kong:"cmd,help='Manage database connections.',aliases='conn'"`
	HashPassword HashPassword `kong:"cmd,name='hash-password',help='Print the bcrypt hash of a server password.'"`

	Log struct {
		Level slog.Level `enum:"DEBUG,INFO,WARN,ERROR" default:"INFO" help:"Set the app logging level."`
	} `embed:"" prefix:"log-"`
	// NOTE: I'm deliberately not using kong.ConfigFlag or its support for reading
	// values from configuration files, since I want to manage configuration
	// independently from the CLI.
	ConfigFile string           `kong:"default='${configFile}',help='Path to the configuration file.'"`
	Version    kong.VersionFlag `kong:"help='Output version and exit.'"`

	kong *kong.Kong
	kctx *kong.Context
}

// New initializes the command-line interface.
func New(name, configFilePath, version string) (*CLI, error) {
	c := &CLI{}
	kparser, err := kong.New(c,
		kong.Name(name),
		kong.UsageOnError(),
		kong.DefaultEnvars(strings.ToUpper(name)),
		kong.NamedMapper("driver", DriverMapper{}),
		kong.NamedMapper("mode", ModeMapper{}),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			Summary:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"configFile": configFilePath,
			"version":    version,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed creating the Kong parser: %w", err)
	}

	c.kong = kparser

	return c, nil
}

// Execute starts the command execution. Parse must be called before this method.
func (c *CLI) Execute(appCtx *actx.Context) error {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	c.kong.Stdout = appCtx.Stdout
	c.kong.Stderr = appCtx.Stderr

	//nolint:wrapcheck // This is fine.
	return c.kctx.Run(appCtx)
}

// Parse the given command line arguments. This method must be called before
// Execute.
func (c *CLI) Parse(args []string) error {
	kctx, err := c.kong.Parse(args)
	if err != nil {
		return fmt.Errorf("failed parsing CLI arguments: %w", err)
	}
	c.kctx = kctx

	return nil
}

// Command returns the full path of the executed command.
func (c *CLI) Command() string {
	if c.kctx == nil {
		panic("the CLI wasn't initialized properly")
	}
	cmdPath := []string{}
	for _, p := range c.kctx.Path {
		if p.Command != nil {
			cmdPath = append(cmdPath, p.Command.Name)
		}
	}

	return strings.Join(cmdPath, " ")
}

// ApplyConfig applies configuration values to the CLI, but only if they weren't
// already set.
func (c *CLI) ApplyConfig(cfg *config.Config) {
	if c.Serve.Address == "" && cfg.Server.Address.Valid {
		c.Serve.Address = cfg.Server.Address.V
	}
	if c.Serve.Password == "" && cfg.Server.Password.Valid {
		c.Serve.Password = cfg.Server.Password.V
	}
	if c.Apply.Timeout == 0 && cfg.Execution.StatementTimeout.Valid {
		c.Apply.Timeout = cfg.Execution.StatementTimeout.V
	}
	if c.Setup.Timeout == 0 && cfg.Execution.StatementTimeout.Valid {
		c.Setup.Timeout = cfg.Execution.StatementTimeout.V
	}
	for _, sel := range []*SequenceFlags{&c.Next.SequenceFlags, &c.NewScript.SequenceFlags} {
		if sel.Mode == "" && cfg.Sequence.Mode.Valid {
			sel.Mode = cfg.Sequence.Mode.V
		}
	}
}
