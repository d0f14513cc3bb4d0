package script

import "fmt"

// ScanError is returned when a scripts directory can't be read.
type ScanError struct {
	Dir string
	Err error
}

// Error returns a string representation of the error.
func (e *ScanError) Error() string {
	return fmt.Sprintf("failed scanning scripts directory '%s': %s", e.Dir, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ScanError) Unwrap() error {
	return e.Err
}
