package migrate

import "go.hackfix.me/scriptomate/script"

// Report is the outcome of an Apply run.
type Report struct {
	// Pending are the scripts that weren't applied when the run started.
	Pending []script.File
	// Applied are the scripts committed during the run, in execution order.
	Applied []script.File
	// Skipped are the failures the Decider chose to skip.
	Skipped []*ScriptExecutionError
	// Failed is the failure that stopped the run, if any.
	Failed *ScriptExecutionError
	// Aborted is true if the Decider chose to stop the run.
	Aborted bool
}

// Succeeded returns true if every pending script was applied.
func (r *Report) Succeeded() bool {
	return r.Failed == nil && len(r.Skipped) == 0
}
