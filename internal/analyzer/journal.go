package analyzer

import "fmt"

// Journal accumulates the logs and warnings of a single run. It is not safe
// for concurrent use; each run owns its own.
type Journal struct {
	logs     []string
	warnings []string
	observer Observer
}

// NewJournal returns an empty journal that forwards entries to obs (nil is
// allowed).
func NewJournal(obs Observer) *Journal {
	if obs == nil {
		obs = noopObserver{}
	}
	return &Journal{logs: []string{}, warnings: []string{}, observer: obs}
}

// Log records an informational line.
func (j *Journal) Log(msg string) {
	j.logs = append(j.logs, msg)
	j.observer.Observe(Event{Type: EventLog, Message: msg})
}

// Logf records a formatted informational line.
func (j *Journal) Logf(format string, args ...any) {
	j.Log(fmt.Sprintf(format, args...))
}

// Logs records each line in order.
func (j *Journal) Logs(lines ...string) {
	for _, l := range lines {
		j.Log(l)
	}
}

// Warn records a recoverable problem.
func (j *Journal) Warn(msg string) {
	j.warnings = append(j.warnings, msg)
	j.observer.Observe(Event{Type: EventWarning, Message: msg})
}

// Warnf records a formatted warning.
func (j *Journal) Warnf(format string, args ...any) {
	j.Warn(fmt.Sprintf(format, args...))
}

// Entries returns copies of the accumulated logs and warnings.
func (j *Journal) Entries() (logs, warnings []string) {
	return append([]string{}, j.logs...), append([]string{}, j.warnings...)
}
