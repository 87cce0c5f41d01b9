package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ygrebnov/buildops"
	"github.com/ygrebnov/buildops/grouping"
)

// loggingOp is a nested build operation: it logs its own start through the
// grouping pipeline, then runs its children in order on the same executor.
type loggingOp struct {
	exec     *buildops.Executor
	pipeline *grouping.Pipeline
	name     string
	opType   buildops.OperationType
	children []loggingOp
}

func (o loggingOp) Description() *buildops.DescriptorBuilder {
	return buildops.NewDescriptorBuilder(o.name).OfType(o.opType)
}

func (o loggingOp) Run(ctx context.Context, opCtx *buildops.Context) error {
	buildops.Log(ctx, o.pipeline, grouping.LevelInfo, fmt.Sprintf("running %s", o.name))
	for _, child := range o.children {
		child.exec = o.exec
		child.pipeline = o.pipeline
		if err := o.exec.Run(ctx, child); err != nil {
			return err
		}
	}
	return nil
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run a small nested task tree sequentially",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, pipeline, err := buildSession()
			if err != nil {
				return err
			}

			tree := loggingOp{
				exec:     session.Executor,
				pipeline: pipeline,
				name:     "configure project",
				opType:   buildops.ConfigureProject,
				children: []loggingOp{
					{name: "compile", opType: buildops.Task},
					{name: "test", opType: buildops.Task},
				},
			}

			if err := session.Run(cmd.Context(), tree); err != nil {
				return err
			}
			pipeline.Consume(grouping.EndOutput{})
			return nil
		},
	}
}
