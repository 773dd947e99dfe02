package loader

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIncomplete marks the "not yet resolvable" signal. It is not a failure:
// builders convert it into a pending registry entry, and it only surfaces as
// an error when entries are still pending after the last scheduled pass.
var ErrIncomplete = errors.New("reference not yet resolvable")

// IncompleteError names the reference a fragment could not resolve yet.
type IncompleteError struct {
	// Reference is the identifier that was not available.
	Reference string
	// Cause optionally carries the underlying lookup failure.
	Cause error
}

// Error implements the error interface
func (e *IncompleteError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("reference %q not yet resolvable: %v", e.Reference, e.Cause)
	}
	return fmt.Sprintf("reference %q not yet resolvable", e.Reference)
}

// Unwrap allows errors.Is(err, ErrIncomplete)
func (e *IncompleteError) Unwrap() error { return ErrIncomplete }

// Incomplete builds the not-yet-resolvable signal for a reference.
func Incomplete(reference string) error {
	return &IncompleteError{Reference: reference}
}

// IncompleteCause wraps a lookup failure as not-yet-resolvable.
func IncompleteCause(reference string, cause error) error {
	return &IncompleteError{Reference: reference, Cause: cause}
}

// IsIncomplete reports whether err carries the not-yet-resolvable signal.
func IsIncomplete(err error) bool {
	return errors.Is(err, ErrIncomplete)
}

// ConfigurationError reports a malformed fragment: a missing required
// attribute, mutually exclusive attributes both set, a duplicate identifier.
// It aborts the originating source's load.
type ConfigurationError struct {
	// Resource is the originating configuration source.
	Resource string
	// Message describes what was malformed.
	Message string
	// Err optionally wraps an underlying error.
	Err error
}

// Error implements the error interface
func (e *ConfigurationError) Error() string {
	msg := e.Message
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	if e.Resource != "" {
		return fmt.Sprintf("%s: %s", e.Resource, msg)
	}
	return msg
}

// Unwrap returns the wrapped error.
func (e *ConfigurationError) Unwrap() error { return e.Err }

func configErrorf(resource, format string, args ...interface{}) error {
	return &ConfigurationError{Resource: resource, Message: fmt.Sprintf(format, args...)}
}

// UnresolvedError aggregates every fragment still pending at the end of the
// load into one report.
type UnresolvedError struct {
	Fragments []UnresolvedFragment
}

// UnresolvedFragment identifies one still-pending fragment.
type UnresolvedFragment struct {
	// Kind is the fragment queue the entry sat in.
	Kind FragmentKind
	// Identity names the fragment.
	Identity string
	// Resource is the originating configuration source.
	Resource string
	// Reference is the identifier it was waiting for.
	Reference string
}

// Error implements the error interface
func (e *UnresolvedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d configuration fragment(s) could not be resolved:", len(e.Fragments))
	for _, f := range e.Fragments {
		fmt.Fprintf(&b, "\n  %s %q (from %s)", f.Kind, f.Identity, f.Resource)
		if f.Reference != "" {
			fmt.Fprintf(&b, " waiting on %q", f.Reference)
		}
	}
	return b.String()
}
