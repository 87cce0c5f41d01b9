package buildops

import "context"

// Go has no goroutine-local storage, so the current-operation slot is
// carried explicitly through context.Context instead: every nested call
// receives the context the envelope produced for it, and restoring "the
// slot" on exit is simply not propagating the updated context back to the
// caller. See DESIGN.md, "Open Question resolutions", #1.

type contextKey int

const (
	currentOperationKey contextKey = iota
	managedKey
)

// withCurrentOperation returns a copy of ctx carrying state as the current
// operation.
func withCurrentOperation(ctx context.Context, state *State) context.Context {
	return context.WithValue(ctx, currentOperationKey, state)
}

// currentOperationFrom returns the state wrapping ctx, if any.
func currentOperationFrom(ctx context.Context) (*State, bool) {
	state, ok := ctx.Value(currentOperationKey).(*State)
	return state, ok
}

// withManaged marks ctx as having been produced by this executor's own
// dispatch machinery (RunAll handing a job to a pool worker). Nested
// Run/Call calls made with this context do not trigger unmanaged-thread
// parent fabrication even if they carry no current operation yet: they
// are still reachable from a captured parent by the time they reach the
// envelope.
func withManaged(ctx context.Context) context.Context {
	return context.WithValue(ctx, managedKey, true)
}

// isManaged reports whether ctx descends from this executor's own dispatch.
func isManaged(ctx context.Context) bool {
	v, _ := ctx.Value(managedKey).(bool)
	return v
}

// GetCurrentOperation returns the state currently wrapping ctx. It fails
// with InvalidStateError if ctx carries no current operation.
func GetCurrentOperation(ctx context.Context) (*State, error) {
	state, ok := currentOperationFrom(ctx)
	if !ok {
		return nil, newInvalidStateError("no current build operation for this context")
	}
	return state, nil
}
