package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.hackfix.me/scriptomate/db"
	"go.hackfix.me/scriptomate/ledger"
	"go.hackfix.me/scriptomate/metrics"
	"go.hackfix.me/scriptomate/script"
)

// Executor applies pending scripts to a target database.
type Executor struct {
	repo    *script.Repository
	ledger  *ledger.Client
	target  *db.DB
	decider Decider
	timeout time.Duration
	logger  *slog.Logger
}

// NewExecutor returns a new Executor instance.
func NewExecutor(repo *script.Repository, lc *ledger.Client, target *db.DB, opts ...Option) (*Executor, error) {
	switch {
	case repo == nil:
		return nil, errors.New("script repository is required")
	case lc == nil:
		return nil, errors.New("ledger client is required")
	case target == nil:
		return nil, errors.New("target database is required")
	}

	e := &Executor{repo: repo, ledger: lc, target: target}

	opts = append(DefaultOptions(), opts...)
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Pending returns the scripts in dir that aren't recorded in the ledger, in
// the order they would be applied.
func (e *Executor) Pending(ctx context.Context, dir string) ([]script.File, error) {
	listing, err := e.repo.ListOrderedScripts(ctx, dir)
	if err != nil {
		return nil, err //nolint:wrapcheck // Typed error.
	}

	applied, err := e.ledger.GetAppliedNumbers(ctx, e.target)
	if err != nil {
		return nil, err //nolint:wrapcheck // Typed error.
	}

	var pending []script.File
	for _, f := range listing.Scripts {
		if !applied.Contains(f.Key) {
			pending = append(pending, f)
		}
	}

	e.logger.Debug("computed pending scripts",
		"dir", dir, "total", len(listing.Scripts), "applied", applied.Len(), "pending", len(pending))

	return pending, nil
}

// Apply executes all pending scripts in dir sequentially. The ledger is read
// once at the start of the run.
//
// With PolicyBatch the run stops at the first failed script, and a *FailedError
// is returned along with the report. With PolicyInteractive the Decider is
// asked whether to skip the script or abort the run; aborting isn't an error.
func (e *Executor) Apply(ctx context.Context, dir string, policy Policy) (*Report, error) {
	if policy == PolicyInteractive && e.decider == nil {
		return nil, errors.New("interactive mode requires a decider")
	}

	pending, err := e.Pending(ctx, dir)
	if err != nil {
		return nil, err
	}

	report := &Report{Pending: pending}
	if len(pending) == 0 {
		e.logger.Info("database is up to date", "dir", dir)
		return report, nil
	}

	e.logger.Info("applying scripts", "count", len(pending), "policy", policy.String())

	for _, f := range pending {
		serr := e.execute(ctx, f)
		if serr == nil {
			report.Applied = append(report.Applied, f)
			continue
		}

		if policy == PolicyBatch {
			report.Failed = serr
			return report, &FailedError{Err: serr}
		}

		decision, derr := e.decider.Decide(ctx, serr)
		if derr != nil {
			report.Failed = serr
			return report, fmt.Errorf("failed getting decision for script '%s': %w", f.Name, derr)
		}

		if decision == DecisionSkip {
			e.logger.Warn("skipped failed script", "script", f.Name)
			report.Skipped = append(report.Skipped, serr)
			continue
		}

		e.logger.Warn("aborted migration", "script", f.Name)
		report.Failed = serr
		report.Aborted = true
		return report, nil
	}

	return report, nil
}

// InfraResult is the outcome of running a single infrastructure script.
type InfraResult struct {
	Script script.File
	Err    *ScriptExecutionError
}

// RunInfrastructure runs every .sql file under
// <root>/_DbInfrastructure/DbObjects sorted by file name, creating the ledger
// table and any other objects the migration scripts rely on. A failed script
// doesn't stop the run; every result is returned.
func (e *Executor) RunInfrastructure(ctx context.Context, root string) ([]InfraResult, error) {
	dir := filepath.Join(root, "_DbInfrastructure", "DbObjects")
	files, err := e.repo.ListSQLFiles(ctx, dir)
	if err != nil {
		return nil, err //nolint:wrapcheck // Typed error.
	}

	results := make([]InfraResult, 0, len(files))
	for _, f := range files {
		results = append(results, InfraResult{Script: f, Err: e.execute(ctx, f)})
	}

	return results, nil
}

func (e *Executor) execute(ctx context.Context, f script.File) *ScriptExecutionError {
	logger := e.logger.With("script", f.Name)
	logger.Info("executing script")

	start := time.Now()
	err := e.runAtomic(ctx, f, logger)
	metrics.ScriptDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.ScriptsExecutedTotal.WithLabelValues("failed").Inc()
		serr := &ScriptExecutionError{Script: f, Err: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
		if serr.Timeout {
			serr.Err = fmt.Errorf("timed out after %s: %w", e.timeout, err)
		}
		logger.Error("failed executing script", "error", serr.Err.Error())
		return serr
	}

	metrics.ScriptsExecutedTotal.WithLabelValues("applied").Inc()
	logger.Info("applied script", "duration", time.Since(start).Round(time.Millisecond))

	return nil
}

// runAtomic runs the script in its own connection and transaction. Any failure
// rolls back the transaction; a failed rollback is logged, and the original
// error is returned.
func (e *Executor) runAtomic(ctx context.Context, f script.File, logger *slog.Logger) (rerr error) {
	content, err := f.Content(e.repo.FS())
	if err != nil {
		return err //nolint:wrapcheck // Already wrapped.
	}

	batches := e.target.Driver().Batches(content)
	if len(batches) == 0 {
		return errors.New("script is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	defer func() {
		// Drivers don't always report an interrupted statement as a context error.
		if rerr != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) &&
			!errors.Is(rerr, context.DeadlineExceeded) {
			rerr = fmt.Errorf("%w: %w", context.DeadlineExceeded, rerr)
		}
	}()

	conn, err := e.target.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed acquiring connection: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			logger.Warn("failed closing connection", "error", cerr.Error())
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed starting transaction: %w", err)
	}

	for i, batch := range batches {
		if _, err = tx.ExecContext(ctx, batch); err != nil {
			if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
				logger.Error("failed rolling back transaction", "error", rerr.Error())
			}
			if len(batches) > 1 {
				return fmt.Errorf("batch %d of %d: %w", i+1, len(batches), err)
			}
			return err //nolint:wrapcheck // Wrapped in ScriptExecutionError.
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed committing transaction: %w", err)
	}

	return nil
}
