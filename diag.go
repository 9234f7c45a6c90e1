package tickbook

import "fmt"

// Level classifies a diagnostic finding.
type Level int

const (
	LevelInfo Level = iota
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Diagnostic is one non-fatal finding produced during an invocation.
// Ticker is empty for findings that are not tied to a single ticker.
type Diagnostic struct {
	Level   Level
	Ticker  string
	Message string
}

func (d Diagnostic) String() string {
	if d.Ticker == "" {
		return fmt.Sprintf("[%s] %s", d.Level, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Level, d.Ticker, d.Message)
}

// Diagnostics accumulates findings in order. Components append to it
// instead of failing: only invariant-violating preconditions surface
// as errors.
type Diagnostics struct {
	list []Diagnostic
}

func (d *Diagnostics) add(level Level, ticker, format string, args ...any) {
	d.list = append(d.list, Diagnostic{Level: level, Ticker: ticker, Message: fmt.Sprintf(format, args...)})
}

// Infof records an informational finding.
func (d *Diagnostics) Infof(ticker, format string, args ...any) {
	d.add(LevelInfo, ticker, format, args...)
}

// Warnf records a warning.
func (d *Diagnostics) Warnf(ticker, format string, args ...any) {
	d.add(LevelWarn, ticker, format, args...)
}

// Errorf records a per-ticker failure that did not abort the run.
func (d *Diagnostics) Errorf(ticker, format string, args ...any) {
	d.add(LevelError, ticker, format, args...)
}

// All returns the accumulated findings in the order they were recorded.
func (d *Diagnostics) All() []Diagnostic { return d.list }

// Len returns the number of findings.
func (d *Diagnostics) Len() int { return len(d.list) }
