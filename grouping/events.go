// Package grouping implements the output event pipeline that buffers a
// build's progress and log events per operation, releasing each group's
// events downstream as one contiguous batch when the operation completes.
package grouping

import "time"

// OperationType mirrors buildops.OperationType for the subset of
// information the pipeline needs to decide whether an operation groups its
// own output. Kept independent of package buildops so the pipeline can be
// wired to any event source, not only this module's own executor.
type OperationType int

const (
	Uncategorized OperationType = iota
	Task
	ConfigureProject
)

// Groups reports whether operations of this type open an output group.
func (t OperationType) Groups() bool {
	return t == Task || t == ConfigureProject
}

// LogLevel is the severity of a LogEvent.
type LogLevel string

const (
	LevelQuiet LogLevel = "QUIET"
	LevelWarn  LogLevel = "WARN"
	LevelInfo  LogLevel = "INFO"
	LevelError LogLevel = "ERROR"
)

// Event is any value the pipeline can consume. The concrete types below are
// the pipeline's full vocabulary; Opaque carries anything else through
// unmodified.
type Event interface {
	isEvent()
}

// ProgressStart announces a new unit of progress, optionally tied to a build
// operation.
type ProgressStart struct {
	ProgressOperationID       int64
	ParentProgressOperationID int64
	Timestamp                 time.Time
	Category                  string
	Description               string
	ShortDescription          string
	LoggingHeader             string
	Status                    string
	BuildOperationID          *int64
	ParentBuildOperationID    *int64
	OperationType             OperationType
}

func (ProgressStart) isEvent() {}

// Progress reports an incremental status update for a previously started
// progress operation.
type Progress struct {
	ProgressOperationID int64
	Timestamp           time.Time
	Status              string
}

func (Progress) isEvent() {}

// ProgressComplete closes a previously started progress operation.
type ProgressComplete struct {
	ProgressOperationID int64
	Timestamp           time.Time
	Category            string
	Description         string
	Status              string
}

func (ProgressComplete) isEvent() {}

// LogEvent is a single renderable log line, optionally tied to a build
// operation for grouping purposes.
type LogEvent struct {
	Timestamp        time.Time
	Category         string
	Level            LogLevel
	Message          string
	Throwable        error
	BuildOperationID *int64
}

func (LogEvent) isEvent() {}

// StyledTextOutput is a renderable chunk of styled text, treated the same as
// LogEvent for grouping purposes.
type StyledTextOutput struct {
	Timestamp        time.Time
	Text             string
	BuildOperationID *int64
}

func (StyledTextOutput) isEvent() {}

// EndOutput signals the end of the event stream. The pipeline flushes every
// still-open group before forwarding it.
type EndOutput struct{}

func (EndOutput) isEvent() {}

// Opaque carries any event kind the pipeline does not interpret, forwarded
// unchanged.
type Opaque struct {
	Payload any
}

func (Opaque) isEvent() {}

func isRenderable(e Event) bool {
	switch e.(type) {
	case LogEvent, StyledTextOutput:
		return true
	default:
		return false
	}
}

func buildOperationIDOf(e Event) (int64, bool) {
	switch ev := e.(type) {
	case LogEvent:
		if ev.BuildOperationID == nil {
			return 0, false
		}
		return *ev.BuildOperationID, true
	case StyledTextOutput:
		if ev.BuildOperationID == nil {
			return 0, false
		}
		return *ev.BuildOperationID, true
	default:
		return 0, false
	}
}
