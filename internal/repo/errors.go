package repo

import (
	"fmt"
	"strings"
)

// Acquisition kinds.
const (
	KindClone   = "clone"
	KindArchive = "archive"
	KindPath    = "path"
)

// AcquisitionError reports a repository that could not be made available.
// Logs carries everything recorded up to the failure.
type AcquisitionError struct {
	Kind    string
	Locator string
	Branch  string
	Logs    []string
	Err     error
}

func (e *AcquisitionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "repo: %s %s", e.Kind, e.Locator)
	if e.Branch != "" {
		fmt.Fprintf(&b, " (branch %s)", e.Branch)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

// Describe returns a one-line, user-facing explanation.
func (e *AcquisitionError) Describe() string {
	switch e.Kind {
	case KindClone:
		if e.Branch != "" {
			return fmt.Sprintf("Could not clone repository %s (branch %s).", e.Locator, e.Branch)
		}
		return fmt.Sprintf("Could not clone repository %s.", e.Locator)
	case KindArchive:
		return fmt.Sprintf("Could not extract or use archive %s.", e.Locator)
	default:
		return fmt.Sprintf("Could not use local repository path %s.", e.Locator)
	}
}
