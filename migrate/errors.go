package migrate

import (
	"fmt"

	"go.hackfix.me/scriptomate/script"
)

// ScriptExecutionError is a failure to apply a single script. Its effects were
// rolled back.
type ScriptExecutionError struct {
	Script script.File
	Err    error
	// Timeout is true if the script exceeded the statement timeout.
	Timeout bool
}

// Error returns a string representation of the error.
func (e *ScriptExecutionError) Error() string {
	return fmt.Sprintf("failed executing script '%s': %s", e.Script.Name, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScriptExecutionError) Unwrap() error {
	return e.Err
}

// FailedError is returned when a batch run stopped because of a failed script.
type FailedError struct {
	Err *ScriptExecutionError
}

// Error returns a string representation of the error.
func (e *FailedError) Error() string {
	return fmt.Sprintf("migration stopped: %s", e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *FailedError) Unwrap() error {
	return e.Err
}
