// Command buildops-demo exercises the buildops Executor end to end: a
// sequential task tree run via the run subcommand, and a parallel batch run
// via the runall subcommand.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ygrebnov/buildops"
	"github.com/ygrebnov/buildops/grouping"
)

var (
	flagConfigPath string
	flagMaxWorkers uint
	flagVerbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "buildops-demo",
		Short: "Exercises the buildops build operation executor",
	}

	cmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a buildops config YAML file")
	cmd.PersistentFlags().UintVar(&flagMaxWorkers, "max-workers", 0, "bound the RunAll worker pool (0 = dynamic)")
	cmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug-level diagnostic logging")

	cmd.AddCommand(newRunCmd(), newRunAllCmd())
	return cmd
}

// buildSession constructs a Session wired to print grouped output batches to
// stdout as the returned pipeline releases them.
func buildSession() (*buildops.Session, *grouping.Pipeline, error) {
	cfg := buildops.Config{MaxWorkers: flagMaxWorkers}
	if flagConfigPath != "" {
		loaded, err := buildops.LoadConfig(flagConfigPath)
		if err != nil {
			return nil, nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = *loaded
	}

	logLevel := zap.NewAtomicLevelAt(zap.InfoLevel)
	if flagVerbose {
		logLevel.SetLevel(zap.DebugLevel)
	}
	loggerCfg := zap.NewProductionConfig()
	loggerCfg.Level = logLevel
	logger, err := loggerCfg.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("building logger: %w", err)
	}

	pipeline := grouping.New(grouping.SinkFunc(printBatch))
	session := buildops.NewSession(
		cfg,
		buildops.WithLogger(logger),
		buildops.WithListener(buildops.NewGroupingListener(pipeline)),
	)
	return session, pipeline, nil
}

// printBatch is the grouping pipeline's sink: it prints one released batch
// of events as a contiguous block, in arrival order.
func printBatch(batch []grouping.Event) {
	for _, e := range batch {
		switch ev := e.(type) {
		case grouping.LogEvent:
			fmt.Printf("[%s] %s\n", ev.Level, ev.Message)
		case grouping.ProgressStart:
			fmt.Printf("> %s\n", ev.Description)
		case grouping.ProgressComplete:
			fmt.Printf("< %s (%s)\n", ev.Description, ev.Status)
		case grouping.EndOutput:
			// no-op marker; nothing to print
		default:
			fmt.Printf("%v\n", ev)
		}
	}
}
