package buildops

import "sync/atomic"

// OperationID is an opaque integer identifier, unique within a single
// process run. Positive ids are minted by a monotonically increasing
// counter for normal operations; negative ids are minted by a separate
// monotonically decreasing counter for synthetic "unmanaged thread"
// operations. Id 0 is reserved for the artificial root fixture.
type OperationID int64

// RootOperationID is the artificial root created by CreateRunningRootOperation.
const RootOperationID OperationID = 0

// idGenerator mints OperationIDs for one Executor. Normal operations get
// strictly increasing positive ids; unmanaged-thread parents get strictly
// decreasing negative ids. The two counters are independent so that minting
// one never perturbs the other's sequence.
type idGenerator struct {
	nextID      atomic.Int64
	unmanagedID atomic.Int64
}

// nextNormalID returns the next positive id, starting at 1.
func (g *idGenerator) nextNormalID() OperationID {
	return OperationID(g.nextID.Add(1))
}

// nextUnmanagedID returns the next negative id, starting at -1.
func (g *idGenerator) nextUnmanagedID() OperationID {
	return OperationID(g.unmanagedID.Add(-1))
}
