package ledger

import "fmt"

// MissingError is returned when the ledger table doesn't exist in the target
// database, usually because the infrastructure setup wasn't run.
type MissingError struct {
	Table string
	Err   error
}

// Error returns a string representation of the error.
func (e *MissingError) Error() string {
	return fmt.Sprintf("ledger table '%s' doesn't exist; run the setup command first", e.Table)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *MissingError) Unwrap() error {
	return e.Err
}
