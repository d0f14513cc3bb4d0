package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	actx "go.hackfix.me/scriptomate/app/context"
	aerrors "go.hackfix.me/scriptomate/app/errors"
	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/ledger"
	"go.hackfix.me/scriptomate/migrate"
	"go.hackfix.me/scriptomate/script"
)

// Apply runs the scripts in a directory that haven't been applied to the
// target database yet.
type Apply struct {
	Dir         string `arg:"" help:"Directory containing the database scripts."`
	Target      `embed:""`
	Interactive bool          `short:"i" help:"Ask for confirmation first, and whether to skip or abort when a script fails."`
	Timeout     time.Duration `help:"Time a single script may run for. Defaults to the configured statement timeout."`
}

// Run the apply command.
func (c *Apply) Run(appCtx *actx.Context) error {
	in := bufio.NewReader(appCtx.Stdin)
	var opts []migrate.Option
	if c.Interactive {
		opts = append(opts, migrate.WithDecider(&promptDecider{in: in, out: appCtx.Stdout}))
	}

	exec, closeDB, err := newExecutor(appCtx, c.Dir, c.Target, c.Timeout, opts...)
	if err != nil {
		return err
	}
	defer closeDB()

	pending, err := exec.Pending(appCtx.Ctx, c.Dir)
	if err != nil {
		return err //nolint:wrapcheck // Typed errors.
	}
	if err = printPending(appCtx.Stdout, pending); err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}

	policy := migrate.PolicyBatch
	if c.Interactive {
		policy = migrate.PolicyInteractive
		ok, perr := confirm(appCtx.Stdout, in)
		if perr != nil {
			return perr
		}
		if !ok {
			return nil
		}
	}

	report, err := exec.Apply(appCtx.Ctx, c.Dir, policy)
	if report != nil {
		if perr := printReport(appCtx.Stdout, report); perr != nil && err == nil {
			err = perr
		}
	}

	return err //nolint:wrapcheck // Typed errors.
}

// newExecutor opens the target database and returns an executor for the
// scripts in dir, along with a function that closes the database.
func newExecutor(
	appCtx *actx.Context, dir string, target Target, timeout time.Duration, opts ...migrate.Option,
) (*migrate.Executor, func(), error) {
	if err := checkDir(appCtx.FS, dir); err != nil {
		return nil, nil, err
	}

	conn, err := target.resolve(appCtx.Config)
	if err != nil {
		return nil, nil, err
	}

	d, err := conn.Open(appCtx.Ctx)
	if err != nil {
		return nil, nil, aerrors.NewWithCause("failed opening database", err,
			"connection", conn.Name.V, "driver", conn.Driver.V)
	}
	closeDB := func() {
		if cerr := d.Close(); cerr != nil {
			appCtx.Logger.Warn("failed closing database", "error", cerr.Error())
		}
	}

	exec, err := executorFor(appCtx, d, conn.Ledger(), timeout, opts...)
	if err != nil {
		closeDB()
		return nil, nil, err
	}

	return exec, closeDB, nil
}

func executorFor(
	appCtx *actx.Context, d *db.DB, ledgerTable string, timeout time.Duration, extra ...migrate.Option,
) (*migrate.Executor, error) {
	lc, err := ledger.NewClient(ledgerTable, appCtx.Logger)
	if err != nil {
		return nil, err //nolint:wrapcheck // Validation error.
	}

	opts := []migrate.Option{migrate.WithLogger(appCtx.Logger)}
	if timeout > 0 {
		opts = append(opts, migrate.WithStatementTimeout(timeout))
	}
	opts = append(opts, extra...)

	//nolint:wrapcheck // Validation errors.
	return migrate.NewExecutor(script.NewRepository(appCtx.FS, appCtx.Logger), lc, d, opts...)
}

func printPending(w io.Writer, pending []script.File) error {
	if len(pending) == 0 {
		_, err := fmt.Fprintln(w, "No scripts pending.")
		return err //nolint:wrapcheck // This is fine.
	}

	if _, err := fmt.Fprintf(w, "%d scripts not yet applied:\n", len(pending)); err != nil {
		return err //nolint:wrapcheck // This is fine.
	}
	for _, f := range pending {
		if _, err := fmt.Fprintln(w, truncateName(f.Name)); err != nil {
			return err //nolint:wrapcheck // This is fine.
		}
	}

	return nil
}

func printReport(w io.Writer, r *migrate.Report) error {
	_, err := fmt.Fprintf(w, "Applied %d of %d scripts", len(r.Applied), len(r.Pending))
	if err != nil {
		return err //nolint:wrapcheck // This is fine.
	}
	if len(r.Skipped) > 0 {
		_, err = fmt.Fprintf(w, ", skipped %d", len(r.Skipped))
	}
	if err == nil && r.Aborted {
		_, err = fmt.Fprint(w, ", aborted")
	}
	if err == nil {
		_, err = fmt.Fprintln(w, ".")
	}

	return err //nolint:wrapcheck // This is fine.
}

// confirm asks whether the pending scripts should be applied.
func confirm(w io.Writer, in *bufio.Reader) (bool, error) {
	_, err := fmt.Fprint(w, "Apply them one at a time, stopping on errors?\n"+
		"1 - Yes, apply them now.\n"+
		"2 - No, I'll apply them later.\n")
	if err != nil {
		return false, err //nolint:wrapcheck // This is fine.
	}

	choice, err := readChoice(in)
	if err != nil {
		return false, err
	}

	return choice == "1", nil
}

// promptDecider asks the user whether to skip or abort after a failed script.
type promptDecider struct {
	in  *bufio.Reader
	out io.Writer
}

var _ migrate.Decider = (*promptDecider)(nil)

func (d *promptDecider) Decide(_ context.Context, failure *migrate.ScriptExecutionError) (migrate.Decision, error) {
	_, err := fmt.Fprintf(d.out, "Failed: %s\n1 - Skip, 2 - Abort?\n", failure.Err)
	if err != nil {
		return migrate.DecisionAbort, err //nolint:wrapcheck // This is fine.
	}

	for {
		choice, err := readChoice(d.in)
		if err != nil {
			return migrate.DecisionAbort, err
		}
		switch choice {
		case "1":
			return migrate.DecisionSkip, nil
		case "2":
			return migrate.DecisionAbort, nil
		}
		if _, err = fmt.Fprintln(d.out, "Please enter 1 or 2."); err != nil {
			return migrate.DecisionAbort, err //nolint:wrapcheck // This is fine.
		}
	}
}

func readChoice(in *bufio.Reader) (string, error) {
	line, err := in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("failed reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}
