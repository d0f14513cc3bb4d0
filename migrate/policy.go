package migrate

import "context"

// Policy determines how the Executor reacts to a failed script.
type Policy int

const (
	// PolicyBatch stops at the first failure.
	PolicyBatch Policy = iota
	// PolicyInteractive asks a Decider whether to skip a failed script or abort.
	PolicyInteractive
)

func (p Policy) String() string {
	switch p {
	case PolicyBatch:
		return "batch"
	case PolicyInteractive:
		return "interactive"
	default:
		return "unknown"
	}
}

// Decision is the action to take after a script fails in interactive mode.
type Decision int

const (
	// DecisionAbort stops the run.
	DecisionAbort Decision = iota
	// DecisionSkip continues with the next pending script. Later scripts that
	// depend on the skipped one may fail as a result.
	DecisionSkip
)

// Decider chooses what to do after a script fails.
type Decider interface {
	Decide(ctx context.Context, failure *ScriptExecutionError) (Decision, error)
}

// DeciderFunc is an adapter to allow the use of ordinary functions as Deciders.
type DeciderFunc func(ctx context.Context, failure *ScriptExecutionError) (Decision, error)

// Decide calls f(ctx, failure).
func (f DeciderFunc) Decide(ctx context.Context, failure *ScriptExecutionError) (Decision, error) {
	return f(ctx, failure)
}
