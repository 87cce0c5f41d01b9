package buildops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/buildops/grouping"
)

type collectingSink struct {
	batches [][]grouping.Event
}

func (s *collectingSink) Emit(events []grouping.Event) {
	s.batches = append(s.batches, events)
}

func TestGroupingListener_TaskProducesOneBatch(t *testing.T) {
	sink := &collectingSink{}
	pipeline := grouping.New(sink)
	listener := NewGroupingListener(pipeline)

	e := NewExecutor(Config{}, WithListener(listener))

	err := e.Run(context.Background(), fakeOp{
		name: "compile",
		opType: Task,
		run: func(ctx context.Context, opCtx *Context) error {
			Log(ctx, pipeline, grouping.LevelWarn, "low disk space")
			return nil
		},
	})
	require.NoError(t, err)
	require.Len(t, sink.batches, 1)

	batch := sink.batches[0]
	require.Len(t, batch, 5) // header, start, warn, complete, trailer
	warn, ok := batch[2].(grouping.LogEvent)
	require.True(t, ok)
	require.Equal(t, grouping.LevelWarn, warn.Level)
	require.Equal(t, "low disk space", warn.Message)
}

func TestGroupingListener_UncategorizedForwardsIndividually(t *testing.T) {
	sink := &collectingSink{}
	pipeline := grouping.New(sink)
	listener := NewGroupingListener(pipeline)

	e := NewExecutor(Config{}, WithListener(listener))

	err := e.Run(context.Background(), fakeOp{
		name: "standalone",
		run: func(ctx context.Context, opCtx *Context) error {
			return nil
		},
	})
	require.NoError(t, err)

	// Uncategorized operations never group: started + finished are each
	// forwarded as their own single-event batch.
	require.Len(t, sink.batches, 2)
	require.Len(t, sink.batches[0], 1)
	require.Len(t, sink.batches[1], 1)
}

func TestLog_WithoutCurrentOperation_ForwardsStandalone(t *testing.T) {
	sink := &collectingSink{}
	pipeline := grouping.New(sink)

	Log(context.Background(), pipeline, grouping.LevelInfo, "no operation in flight")

	require.Len(t, sink.batches, 1)
	require.Len(t, sink.batches[0], 1)
	logEvent, ok := sink.batches[0][0].(grouping.LogEvent)
	require.True(t, ok)
	require.Nil(t, logEvent.BuildOperationID)
}
