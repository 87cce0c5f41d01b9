package buildops

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Session bundles an Executor with the identity and diagnostic logger of one
// build invocation, tagging every log record it produces with a uuid.New()
// session id.
type Session struct {
	*Executor

	ID     uuid.UUID
	logger *zap.Logger
}

// NewSession creates a Session with a freshly minted id, building its
// Executor from cfg and opts. The session id is attached to every log record
// the session's Logger emits.
func NewSession(cfg Config, opts ...Option) *Session {
	id := uuid.New()

	o := executorOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	logger := o.logger.With(zap.String("session_id", id.String()))

	allOpts := append(append([]Option{}, opts...), WithLogger(logger))
	return &Session{
		Executor: NewExecutor(cfg, allOpts...),
		ID:       id,
		logger:   logger,
	}
}

// Logger returns the session-scoped *zap.Logger, every record from which
// carries this session's id.
func (s *Session) Logger() *zap.Logger {
	return s.logger
}
