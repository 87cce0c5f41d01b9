package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ygrebnov/buildops"
	"github.com/ygrebnov/buildops/grouping"
	"github.com/ygrebnov/buildops/queue"
)

type printOp struct {
	name string
}

func (o printOp) Description() *buildops.DescriptorBuilder {
	return buildops.NewDescriptorBuilder(o.name).OfType(buildops.Task)
}

func (o printOp) Run(ctx context.Context, opCtx *buildops.Context) error {
	fmt.Printf("finished %s\n", o.name)
	return nil
}

func newRunAllCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "runall",
		Short: "Run a batch of independent tasks across the worker pool",
		RunE: func(cmd *cobra.Command, args []string) error {
			session, pipeline, err := buildSession()
			if err != nil {
				return err
			}

			builder := buildops.NewDescriptorBuilder("demo batch").OfType(buildops.ConfigureProject)
			err = session.RunAll(cmd.Context(), builder, func(q *queue.Queue) error {
				for i := 0; i < count; i++ {
					op := printOp{name: fmt.Sprintf("job-%d", i)}
					if err := q.Enqueue(func(ctx context.Context) error {
						return session.Run(ctx, op)
					}); err != nil {
						return err
					}
				}
				return nil
			})
			if err != nil {
				return err
			}
			pipeline.Consume(grouping.EndOutput{})
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 4, "number of independent jobs to enqueue")
	return cmd
}
