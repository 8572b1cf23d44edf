package analyzer

import (
	"repo2pipe/internal/pipeline"
	"repo2pipe/internal/render"
	"repo2pipe/internal/stack"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Request names the repository to analyse and the CI system the caller wants.
type Request struct {
	Repository string `json:"repository"`
	Branch     string `json:"branch,omitempty"`
	Target     string `json:"type,omitempty"`
}

// Response is everything a presentation layer needs from a run.
// PipelineSummary is nil and CITemplates is empty unless Status is StatusOK.
type Response struct {
	Status          string            `json:"status"`
	Stack           stack.Info        `json:"stack"`
	CITemplates     map[string]string `json:"ci_templates"`
	Warnings        []string          `json:"warnings"`
	Logs            []string          `json:"logs"`
	PipelineSummary *pipeline.Summary `json:"pipeline_summary"`
	RunID           string            `json:"run_id,omitempty"`
	Target          string            `json:"target"`
}

// OK reports whether the run succeeded.
func (r *Response) OK() bool { return r != nil && r.Status == StatusOK }

// Template returns the rendered text for the requested target.
func (r *Response) Template() (string, bool) {
	if r == nil {
		return "", false
	}
	text, ok := r.CITemplates[r.Target]
	return text, ok
}

// FileName is the conventional output file for the requested target, or
// empty when the target is not registered.
func (r *Response) FileName() string {
	if r == nil {
		return ""
	}
	rd, ok := render.Lookup(r.Target)
	if !ok {
		return ""
	}
	return rd.FileName()
}
