// Package errs defines the engine's closed error taxonomy (spec §7). Errors
// carry a Kind for programmatic dispatch and, where useful, a *Location for
// human-facing rendering. The shape (code/phase/span, one wrapper type) is
// adapted from sunholo-data-ailang's internal/errors.Report: a compiler
// diagnostics reporter generalized here into a simulation-runtime one.
package errs

import "fmt"

// Kind is the closed taxonomy of error categories the engine produces.
// It is not an open extension point: new kinds are added here, not by
// callers.
type Kind int

const (
	// IO covers file and socket failures.
	IO Kind = iota
	// Parse covers script, address, number, bool and serialization
	// format failures.
	Parse
	// Model covers unknown prefab, unknown component, duplicate entity
	// name, and other simulation-model consistency failures.
	Model
	// Lookup covers a variable missing from storage, or an entity
	// missing by id or name.
	Lookup
	// ScriptRuntime covers unknown command, invalid command body, bad
	// nesting, empty stack, storage access failure, and invalid
	// address — always paired with a Location when one is available.
	ScriptRuntime
	// Distribution covers would-block, host unreachable, and timed-out
	// conditions in the cluster protocol.
	Distribution
	// Snapshot covers read, decompression, and creation failures.
	Snapshot
	// Panic wraps an unexpected failure recovered from a foreign call.
	Panic
)

func (k Kind) String() string {
	switch k {
	case IO:
		return "IO"
	case Parse:
		return "Parse"
	case Model:
		return "Model"
	case Lookup:
		return "Lookup"
	case ScriptRuntime:
		return "ScriptRuntime"
	case Distribution:
		return "Distribution"
	case Snapshot:
		return "Snapshot"
	case Panic:
		return "Panic"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Code is a short machine-readable sub-classification within a Kind, e.g.
// "TypeMismatch", "WouldBlock", "BadNesting". Kept as a plain string rather
// than a second enum: sub-codes are added far more often than Kinds, and a
// string lets a single Kind's sub-codes live next to the code that raises
// them instead of in one central registry.
type Code string

// Error is the engine's single error type. All engine-raised errors are
// *Error so callers can type-assert once (errors.As) regardless of kind.
type Error struct {
	Kind     Kind
	Code     Code
	Message  string
	Location *Location // nil when the error has no source-level origin
	Cause    error      // wrapped underlying error, if any
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Location != nil {
		return fmt.Sprintf("%s: %s: %s (%s)", e.Kind, e.Code, e.Message, e.Location.Short())
	}
	return fmt.Sprintf("%s: %s: %s", e.Kind, e.Code, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no location.
func New(kind Kind, code Code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error around an existing error.
func Wrap(kind Kind, code Code, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// At attaches a Location to an existing *Error (used by callers that only
// learn the location after construction, e.g. prototype conversion).
func (e *Error) At(loc Location) *Error {
	e.Location = &loc
	return e
}

// Is reports whether err is an *Error of the given Kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}
