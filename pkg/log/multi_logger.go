package log

// MultiLogger fans events out to several loggers, e.g. a SlogAdapter for
// the console and a FileLogger for later analysis.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to all configured loggers.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

var _ Logger = (*MultiLogger)(nil)

// categoryLogger forwards only events of selected categories.
type categoryLogger struct {
	next Logger
	keep [CategorySample + 1]bool
}

// OnlyCategories wraps l so it sees just the listed categories. The console
// uses it to stay quiet at control-loop rate while the file keeps every line
// and sample. A nil l yields nil so the result can go to NewMultiLogger.
func OnlyCategories(l Logger, cats ...Category) Logger {
	if l == nil {
		return nil
	}
	c := &categoryLogger{next: l}
	for _, cat := range cats {
		if int(cat) < len(c.keep) {
			c.keep[cat] = true
		}
	}
	return c
}

func (c *categoryLogger) Log(event Event) {
	if int(event.Category) < len(c.keep) && c.keep[event.Category] {
		c.next.Log(event)
	}
}
