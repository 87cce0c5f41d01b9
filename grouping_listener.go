package buildops

import (
	"context"
	"time"

	"github.com/ygrebnov/buildops/grouping"
)

// GroupingListener adapts started/finished events into package grouping's
// progress vocabulary, so a build's output can be hierarchically buffered
// per operation and released as contiguous batches.
type GroupingListener struct {
	pipeline *grouping.Pipeline
}

// NewGroupingListener wires a Listener that forwards every started/finished
// pair to pipeline as a ProgressStart/ProgressComplete pair keyed by the
// operation's id.
func NewGroupingListener(pipeline *grouping.Pipeline) *GroupingListener {
	return &GroupingListener{pipeline: pipeline}
}

func (l *GroupingListener) Started(d Descriptor, e StartEvent) {
	id := int64(d.ID)
	l.pipeline.Consume(grouping.ProgressStart{
		ProgressOperationID:    id,
		Timestamp:              e.StartTime,
		Category:               d.OperationType.String(),
		Description:            d.DisplayName,
		ShortDescription:       d.DisplayName,
		Status:                 "STARTED",
		BuildOperationID:       &id,
		ParentBuildOperationID: parentIDOf(d),
		OperationType:          groupingOperationType(d.OperationType),
	})
}

func (l *GroupingListener) Finished(d Descriptor, e FinishEvent) {
	status := "SUCCESS"
	if e.Failure != nil {
		status = "FAILED"
	}
	l.pipeline.Consume(grouping.ProgressComplete{
		ProgressOperationID: int64(d.ID),
		Timestamp:           e.EndTime,
		Category:            d.OperationType.String(),
		Description:         d.DisplayName,
		Status:              status,
	})
}

func parentIDOf(d Descriptor) *int64 {
	if d.ParentID == nil {
		return nil
	}
	p := int64(*d.ParentID)
	return &p
}

func groupingOperationType(t OperationType) grouping.OperationType {
	switch t {
	case Task:
		return grouping.Task
	case ConfigureProject:
		return grouping.ConfigureProject
	default:
		return grouping.Uncategorized
	}
}

// Log emits a renderable log line tied to ctx's current operation (if any),
// so it is grouped alongside that operation's own progress events rather
// than forwarded standalone.
func Log(ctx context.Context, pipeline *grouping.Pipeline, level grouping.LogLevel, message string) {
	var buildOpID *int64
	if state, ok := currentOperationFrom(ctx); ok {
		id := int64(state.Descriptor().ID)
		buildOpID = &id
	}
	pipeline.Consume(grouping.LogEvent{
		Timestamp:        time.Now(),
		Level:            level,
		Message:          message,
		BuildOperationID: buildOpID,
	})
}
