package buildops

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/ygrebnov/buildops/metrics"
)

// Config holds Executor configuration.
type Config struct {
	// MaxWorkers bounds the worker pool RunAll dispatches onto. Zero
	// (default) selects a dynamic, sync.Pool-backed pool.
	MaxWorkers uint `yaml:"maxWorkers"`

	// QueueTasksBufferSize sets the buffer size of the channel an Operation
	// Queue uses to hand jobs to pool workers.
	QueueTasksBufferSize uint `yaml:"queueTasksBufferSize"`
}

// defaultConfig centralizes Config defaults.
func defaultConfig() Config {
	return Config{
		MaxWorkers:           0,
		QueueTasksBufferSize: 0,
	}
}

// validateConfig performs lightweight invariant checks, reserved for future
// expansion.
func validateConfig(_ *Config) error {
	return nil
}

// Option configures an Executor built via NewExecutor.
type Option func(*executorOptions)

type executorOptions struct {
	cfg            Config
	listener       Listener
	clock          Clock
	progressLogger ProgressLogger
	logger         *zap.Logger
	metrics        metrics.Provider
}

// WithMaxWorkers selects a fixed-size worker pool with the given capacity.
// Zero selects the dynamic pool (the default).
func WithMaxWorkers(n uint) Option {
	return func(o *executorOptions) { o.cfg.MaxWorkers = n }
}

// WithQueueTasksBuffer sets the buffer size of the Operation Queue's
// internal job channel.
func WithQueueTasksBuffer(n uint) Option {
	return func(o *executorOptions) { o.cfg.QueueTasksBufferSize = n }
}

// WithListener sets the Listener notified of started/finished events.
// Defaults to NoopListener.
func WithListener(l Listener) Option {
	return func(o *executorOptions) { o.listener = l }
}

// WithClock overrides the Clock used to timestamp start/finish events.
// Defaults to SystemClock.
func WithClock(c Clock) Option {
	return func(o *executorOptions) { o.clock = c }
}

// WithProgressLogger overrides the ProgressLogger opened for operations
// that declare a ProgressDisplayName. Defaults to NoopProgressLogger.
func WithProgressLogger(p ProgressLogger) Option {
	return func(o *executorOptions) { o.progressLogger = p }
}

// WithLogger sets the *zap.Logger the executor uses for its own diagnostic
// logging (recovered operation panics, fabricated unmanaged-thread
// parents), distinct from
// Listener, which carries the domain's own start/finish events. Defaults to
// zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(o *executorOptions) { o.logger = l }
}

// WithMetrics sets the metrics.Provider instrumented from inside the
// execution envelope. Defaults to metrics.NoopProvider.
func WithMetrics(p metrics.Provider) Option {
	return func(o *executorOptions) { o.metrics = p }
}

// LoadConfig reads a Config from a YAML document at path. Fields absent
// from the document keep defaultConfig's values.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: reading config %q: %w", Namespace, path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%s: parsing config %q: %w", Namespace, path, err)
	}

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("%s: invalid config %q: %w", Namespace, path, err)
	}

	return &cfg, nil
}
