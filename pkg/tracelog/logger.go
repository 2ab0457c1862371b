package tracelog

// Logger receives trace events emitted by the runtime. Implementations
// must tolerate concurrent calls and must not block: Log sits on the
// frame and input paths.
type Logger interface {
	Log(event Event)
}

// NoopLogger drops every event. The zero value is ready to use, so a
// runtime constructed without tracing can hold one instead of nil.
type NoopLogger struct{}

func (NoopLogger) Log(Event) {}

// MultiLogger fans each event out to several loggers in order, for
// example a trace file next to console output.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger wraps the given loggers. A nil entry panics on first
// use; filter them out before calling.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var (
	_ Logger = NoopLogger{}
	_ Logger = (*MultiLogger)(nil)
)
