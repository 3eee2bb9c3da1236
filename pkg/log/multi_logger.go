package log

// MultiLogger fans one event stream out to several sinks, typically a
// capture file plus console output.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger combines the given loggers. Nil entries are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{sinks: make([]Logger, 0, len(loggers))}
	for _, l := range loggers {
		if l != nil {
			m.sinks = append(m.sinks, l)
		}
	}
	return m
}

// Log delivers the event to every sink in order.
func (m *MultiLogger) Log(event Event) {
	for _, s := range m.sinks {
		s.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)
