package eventstate

import "time"

// CycleLogEvent describes one cycle operation for logging.
type CycleLogEvent struct {
	CycleID  string
	Op       string
	State    string
	Duration time.Duration
	Err      error
}

// Cycle operation names recorded on CycleLogEvent.Op.
const (
	OpBegin  = "begin"
	OpCreate = "create"
	OpFinish = "finish"
)

// CycleLogger records cycle events.
type CycleLogger interface {
	LogCycle(CycleLogEvent)
}

// CycleLoggerFunc adapts a function to CycleLogger.
type CycleLoggerFunc func(CycleLogEvent)

// LogCycle implements CycleLogger.
func (f CycleLoggerFunc) LogCycle(event CycleLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopCycleLogger struct{}

func (noopCycleLogger) LogCycle(CycleLogEvent) {}

// WithCycleLogger attaches a cycle logger to the manager.
func WithCycleLogger(logger CycleLogger) Option {
	return func(cfg *managerConfig) {
		if logger == nil {
			cfg.logger = noopCycleLogger{}
			return
		}
		cfg.logger = logger
	}
}
