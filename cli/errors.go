package cli

import (
	"errors"
	"fmt"

	"go.hackfix.me/scriptomate/migrate"
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitError        = 1
	ExitDirNotFound  = 2
	ExitBatchFailure = 3
)

// DirNotFoundError is returned when a scripts directory doesn't exist.
type DirNotFoundError struct {
	Dir string
}

// Error returns a string representation of the error.
func (e *DirNotFoundError) Error() string {
	return fmt.Sprintf("directory '%s' does not exist", e.Dir)
}

// ExitCode returns the process exit code for the error returned by a command.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		dirErr    *DirNotFoundError
		failedErr *migrate.FailedError
	)
	switch {
	case errors.As(err, &dirErr):
		return ExitDirNotFound
	case errors.As(err, &failedErr):
		return ExitBatchFailure
	default:
		return ExitError
	}
}
