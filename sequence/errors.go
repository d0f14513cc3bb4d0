package sequence

import "fmt"

// ParseError is returned when a stored counter isn't an integer. The counter
// is left untouched.
type ParseError struct {
	Key   string
	Value string
	Err   error
}

// Error returns a string representation of the error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse counter '%s' value: '%s'", e.Key, e.Value)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// RemoteServiceError is returned when the remote number service fails.
type RemoteServiceError struct {
	Key string
	Err error
}

// Error returns a string representation of the error.
func (e *RemoteServiceError) Error() string {
	return fmt.Sprintf("remote number service failed for key '%s': %s", e.Key, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *RemoteServiceError) Unwrap() error {
	return e.Err
}
