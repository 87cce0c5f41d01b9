package grouping

import (
	"fmt"
	"sync"
)

// Sink receives the batches a Pipeline emits downstream. Emit is called
// synchronously while the pipeline's mutex is held; implementations must
// not call back into the Pipeline that invoked them.
type Sink interface {
	Emit(events []Event)
}

// SinkFunc adapts a plain function into a Sink.
type SinkFunc func(events []Event)

func (f SinkFunc) Emit(events []Event) { f(events) }

// group is the buffered state of one open output group, keyed by build
// operation id.
type group struct {
	buf        []Event
	renderable bool
}

// Pipeline consumes a single stream of events in strict arrival order,
// buffering per-operation output and releasing each group as one contiguous
// downstream batch when its operation completes. All public methods are
// guarded by a single mutex; events are expected to arrive from a single
// dispatch goroutine.
type Pipeline struct {
	mu sync.Mutex

	sink Sink

	// forest maps a build operation id to its parent's id, nil for a root
	// operation.
	forest map[int64]*int64

	// progress maps a progress operation id to the build operation id it was
	// announced under.
	progress map[int64]int64

	groups      map[int64]*group
	groupOrder  []int64
	lastRenderedOpID *int64
}

// New constructs a Pipeline forwarding released batches to sink.
func New(sink Sink) *Pipeline {
	return &Pipeline{
		sink:     sink,
		forest:   make(map[int64]*int64),
		progress: make(map[int64]int64),
		groups:   make(map[int64]*group),
	}
}

// Consume dispatches a single event according to its kind.
func (p *Pipeline) Consume(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch ev := e.(type) {
	case EndOutput:
		p.flushAllLocked()
		p.forwardLocked(e)

	case ProgressStart:
		p.consumeProgressStartLocked(ev)

	case Progress:
		p.consumeProgressLocked(ev)

	case LogEvent:
		p.consumeRenderableLocked(e, ev.BuildOperationID)

	case StyledTextOutput:
		p.consumeRenderableLocked(e, ev.BuildOperationID)

	case ProgressComplete:
		p.consumeProgressCompleteLocked(ev)

	default:
		p.forwardLocked(e)
	}
}

func (p *Pipeline) consumeProgressStartLocked(ev ProgressStart) {
	if ev.BuildOperationID == nil {
		p.forwardLocked(ev)
		return
	}

	opID := *ev.BuildOperationID
	p.forest[opID] = ev.ParentBuildOperationID
	p.progress[ev.ProgressOperationID] = opID

	if !ev.OperationType.Groups() {
		p.groupOrForwardLocked(opID, ev)
		return
	}

	header := LogEvent{
		Timestamp: ev.Timestamp,
		Category:  ev.Category,
		Level:     LevelQuiet,
		Message:   fmt.Sprintf("[%s]", ev.Description),
	}
	p.groups[opID] = &group{buf: []Event{header, ev}}
	p.groupOrder = append(p.groupOrder, opID)
}

func (p *Pipeline) consumeProgressLocked(ev Progress) {
	opID, ok := p.progress[ev.ProgressOperationID]
	if !ok {
		p.forwardLocked(ev)
		return
	}
	p.groupOrForwardLocked(opID, ev)
}

func (p *Pipeline) consumeRenderableLocked(e Event, buildOperationID *int64) {
	if buildOperationID == nil {
		p.forwardLocked(e)
		return
	}
	p.groupOrForwardLocked(*buildOperationID, e)
}

func (p *Pipeline) consumeProgressCompleteLocked(ev ProgressComplete) {
	opID, ok := p.progress[ev.ProgressOperationID]
	if !ok {
		p.forwardLocked(ev)
		return
	}

	if _, isGroup := p.groups[opID]; isGroup {
		p.closeGroupLocked(opID, ev)
		return
	}

	parent, ok := p.forest[opID]
	if !ok || parent == nil {
		p.forwardLocked(ev)
		return
	}
	p.groupOrForwardLocked(*parent, ev)
}

// groupOrForwardLocked walks upward from opID through the forest; at each
// step, if the current id keys an open group, the event is appended there.
// If the walk reaches the root with no hit, the event is forwarded directly.
func (p *Pipeline) groupOrForwardLocked(opID int64, e Event) {
	cur := opID
	for {
		if g, ok := p.groups[cur]; ok {
			g.buf = append(g.buf, e)
			if isRenderable(e) {
				g.renderable = true
			}
			return
		}

		parent, ok := p.forest[cur]
		if !ok || parent == nil {
			p.forwardLocked(e)
			return
		}
		cur = *parent
	}
}

// closeGroupLocked implements "close-the-group": drop an empty group
// silently, otherwise append the complete event and a trailing blank
// LogEvent and emit the whole buffer as one batch.
func (p *Pipeline) closeGroupLocked(opID int64, complete ProgressComplete) {
	g := p.groups[opID]
	delete(p.groups, opID)
	p.removeFromOrderLocked(opID)

	if !g.renderable {
		return
	}

	g.buf = append(g.buf, complete, LogEvent{Timestamp: complete.Timestamp, Level: LevelQuiet})
	p.sink.Emit(g.buf)
	id := opID
	p.lastRenderedOpID = &id
}

// flushAllLocked implements "flush-all": every still-open, non-empty group
// is emitted in insertion order, then reset to just its header so it can be
// flushed again with visual continuity preserved.
func (p *Pipeline) flushAllLocked() {
	for _, opID := range p.groupOrder {
		g, ok := p.groups[opID]
		if !ok || !g.renderable {
			continue
		}

		var batch []Event
		if p.lastRenderedOpID == nil || *p.lastRenderedOpID != opID {
			batch = make([]Event, 0, len(g.buf)+1)
			batch = append(batch, LogEvent{Level: LevelQuiet})
			batch = append(batch, g.buf...)
		} else {
			batch = append([]Event(nil), g.buf...)
		}
		p.sink.Emit(batch)

		id := opID
		p.lastRenderedOpID = &id

		header := g.buf[0]
		g.buf = []Event{header}
		g.renderable = false
	}
}

func (p *Pipeline) removeFromOrderLocked(opID int64) {
	for i, id := range p.groupOrder {
		if id == opID {
			p.groupOrder = append(p.groupOrder[:i], p.groupOrder[i+1:]...)
			return
		}
	}
}

func (p *Pipeline) forwardLocked(e Event) {
	p.sink.Emit([]Event{e})
}
