package exec

import "fmt"

// StatementNotFoundError reports an execution request for an id the
// configuration never registered.
type StatementNotFoundError struct {
	ID string
}

func (e *StatementNotFoundError) Error() string {
	return fmt.Sprintf("exec: statement %q not found", e.ID)
}

// TooManyResultsError reports a single-row select that matched more rows.
type TooManyResultsError struct {
	ID    string
	Count int
}

func (e *TooManyResultsError) Error() string {
	return fmt.Sprintf("exec: statement %q expected one result, got %d", e.ID, e.Count)
}

// BindError reports a parameter that could not be read from the input.
type BindError struct {
	Property string
	Err      error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("exec: bind %s: %v", e.Property, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }
