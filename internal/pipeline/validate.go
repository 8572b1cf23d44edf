package pipeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPipeline is matched by every InvariantError.
var ErrInvalidPipeline = errors.New("pipeline: invalid structure")

// InvariantError reports a structural defect that would make rendering
// impossible. It indicates a builder bug, not bad user input.
type InvariantError struct {
	Stage  string
	Job    string
	Reason string
}

func (e *InvariantError) Error() string {
	var b strings.Builder
	b.WriteString("pipeline: ")
	if e.Stage != "" {
		fmt.Fprintf(&b, "stage %q: ", e.Stage)
	}
	if e.Job != "" {
		fmt.Fprintf(&b, "job %q: ", e.Job)
	}
	b.WriteString(e.Reason)
	return b.String()
}

func (e *InvariantError) Unwrap() error { return ErrInvalidPipeline }

// reservedJobNames are GitLab top-level keywords; a job with one of these
// names would collide with the pipeline's own keys.
var reservedJobNames = map[string]struct{}{
	"after_script":  {},
	"before_script": {},
	"cache":         {},
	"default":       {},
	"image":         {},
	"include":       {},
	"services":      {},
	"stages":        {},
	"variables":     {},
	"workflow":      {},
}

// Validate checks that stage and job names are present and unique and that
// every dependency points to a job defined earlier in stage order. Job names
// are also checked against GitLab keywords and against stage names, which
// Jenkins requires to be unique pipeline-wide.
func Validate(p Pipeline) error {
	stages := map[string]struct{}{}
	for _, s := range p.Stages {
		if strings.TrimSpace(s.Name) == "" {
			return &InvariantError{Reason: "stage name is empty"}
		}
		if _, dup := stages[s.Name]; dup {
			return &InvariantError{Stage: s.Name, Reason: "duplicate stage"}
		}
		stages[s.Name] = struct{}{}
	}

	defined := map[string]struct{}{}
	for _, s := range p.Stages {
		if len(s.Jobs) == 0 {
			return &InvariantError{Stage: s.Name, Reason: "stage has no jobs"}
		}
		for _, j := range s.Jobs {
			if strings.TrimSpace(j.Name) == "" {
				return &InvariantError{Stage: s.Name, Reason: "job name is empty"}
			}
			if _, reserved := reservedJobNames[j.Name]; reserved {
				return &InvariantError{Stage: s.Name, Job: j.Name, Reason: "job name is a reserved GitLab keyword"}
			}
			if strings.HasPrefix(j.Name, ".") {
				return &InvariantError{Stage: s.Name, Job: j.Name, Reason: "job name starts with a dot"}
			}
			if _, clash := stages[j.Name]; clash {
				return &InvariantError{Stage: s.Name, Job: j.Name, Reason: "job name reuses a stage name"}
			}
			if _, dup := defined[j.Name]; dup {
				return &InvariantError{Stage: s.Name, Job: j.Name, Reason: "duplicate job name"}
			}
			if len(j.Commands) == 0 {
				return &InvariantError{Stage: s.Name, Job: j.Name, Reason: "job has no commands"}
			}
			for _, dep := range j.DependsOn {
				if dep == j.Name {
					return &InvariantError{Stage: s.Name, Job: j.Name, Reason: "job depends on itself"}
				}
				if _, ok := defined[dep]; !ok {
					return &InvariantError{Stage: s.Name, Job: j.Name, Reason: fmt.Sprintf("dependency %q is not defined earlier", dep)}
				}
			}
			defined[j.Name] = struct{}{}
		}
	}
	return nil
}
