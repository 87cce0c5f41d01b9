package buildops

import "fmt"

// Namespace prefixes every sentinel error message under a package-wide
// error namespace.
const Namespace = "buildops"

// InvalidStateError reports a violation of an executor invariant that is
// always a programming error: no current operation where one was required,
// or an artificial root requested while a current operation already exists.
type InvalidStateError struct {
	Message string
}

func (e *InvalidStateError) Error() string { return Namespace + ": " + e.Message }

func newInvalidStateError(message string) error {
	return &InvalidStateError{Message: message}
}

// ParentNotRunningError reports that an operation's resolved parent was not
// running at the instant the operation started.
type ParentNotRunningError struct {
	ChildDisplayName  string
	ParentDisplayName string
}

func (e *ParentNotRunningError) Error() string {
	return fmt.Sprintf(
		"%s: parent operation (%s) is not running; cannot start child operation (%s)",
		Namespace, e.ParentDisplayName, e.ChildDisplayName,
	)
}

// ParentCompletedEarlyError reports that an operation's parent finished
// before the operation itself did, a lifecycle violation detected when the
// envelope re-checks parent.running after the body returns.
type ParentCompletedEarlyError struct {
	ChildDisplayName  string
	ParentDisplayName string
}

func (e *ParentCompletedEarlyError) Error() string {
	return fmt.Sprintf(
		"%s: parent operation (%s) completed before child operation (%s) finished",
		Namespace, e.ParentDisplayName, e.ChildDisplayName,
	)
}

// ErrStopped is returned by Run, Call, and RunAll once Stop has been called
// and no further work is accepted.
var ErrStopped = newInvalidStateError("executor has been stopped; no new operations are accepted")
