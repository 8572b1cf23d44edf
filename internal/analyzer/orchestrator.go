// Package analyzer sequences one analysis run: acquire the repository,
// detect its stack, build the abstract pipeline and render it for every
// supported CI system.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"repo2pipe/internal/pipeline"
	"repo2pipe/internal/render"
	"repo2pipe/internal/repo"
	"repo2pipe/internal/stack"
)

// ErrInternal marks a broken builder or renderer contract. It is never
// returned for problems with the analysed repository.
var ErrInternal = errors.New("analyzer: internal error")

const (
	msgAcquireFailed = "Could not acquire the repository."
	msgNotPerformed  = "Stack analysis and pipeline generation were not performed."
	msgNoStack       = "No recognizable stack detected. The generated pipeline is a placeholder; edit it before use."
	msgReview        = "Review the generated pipeline before committing it: commands and images are inferred from repository files and have not been executed."
)

// Checkout is an acquired, read-only repository tree.
type Checkout interface {
	Tree() fs.FS
	Notes() []string
	Cleanup() error
}

// Provider acquires repositories.
type Provider interface {
	Acquire(ctx context.Context, locator, branch string) (Checkout, error)
}

// Store persists finished responses. Save sets resp.RunID.
type Store interface {
	Save(ctx context.Context, resp *Response) error
}

// Orchestrator runs analyses. Provider is required; Store and Observer are
// optional.
type Orchestrator struct {
	Provider Provider
	Detector stack.Detector
	Store    Store
	Observer Observer
}

// New returns an Orchestrator acquiring through p.
func New(p Provider) *Orchestrator {
	return &Orchestrator{Provider: p}
}

// Run performs one analysis. Problems with the repository are reported in
// the response (Status == StatusError); a non-nil error always wraps
// ErrInternal or is a misconfiguration of the orchestrator itself.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Response, error) {
	return o.run(ctx, req, o.Observer)
}

// RunObserved is Run with a per-call observer, used when several runs share
// one orchestrator.
func (o *Orchestrator) RunObserved(ctx context.Context, req Request, obs Observer) (*Response, error) {
	return o.run(ctx, req, obs)
}

func (o *Orchestrator) run(ctx context.Context, req Request, obs Observer) (*Response, error) {
	if o.Provider == nil {
		return nil, errors.New("analyzer: no repository provider configured")
	}
	j := NewJournal(obs)
	target := NormalizeTarget(req.Target)
	resp := &Response{
		Status:      StatusError,
		Stack:       stack.UnknownInfo(),
		CITemplates: map[string]string{},
		Target:      target,
	}

	if _, ok := render.Lookup(target); !ok {
		j.Warnf("Unsupported CI type %q. Supported types: %s.", req.Target, strings.Join(render.Targets(), ", "))
		j.Warn(msgNotPerformed)
		return o.finish(ctx, j, resp), nil
	}

	if req.Branch != "" {
		j.Logf("analyzing %s (branch %s) for %s", req.Repository, req.Branch, target)
	} else {
		j.Logf("analyzing %s for %s", req.Repository, target)
	}

	co, err := o.Provider.Acquire(ctx, req.Repository, req.Branch)
	if err != nil {
		var acq *repo.AcquisitionError
		if errors.As(err, &acq) {
			j.Logs(acq.Logs...)
			j.Warn(msgAcquireFailed + " " + acq.Describe())
		} else {
			j.Warn(msgAcquireFailed)
		}
		j.Logf("acquisition error: %v", err)
		j.Warn(msgNotPerformed)
		return o.finish(ctx, j, resp), nil
	}
	j.Logs(co.Notes()...)

	err = o.analyze(j, co.Tree(), resp)
	if cerr := co.Cleanup(); cerr != nil {
		j.Warnf("Temporary files could not be removed: %v", cerr)
	}
	if err != nil {
		return nil, err
	}
	return o.finish(ctx, j, resp), nil
}

func (o *Orchestrator) analyze(j *Journal, tree fs.FS, resp *Response) error {
	info := o.Detector.Detect(tree)
	resp.Stack = info
	j.Logs(info.DetectionNotes...)
	if !info.Known() {
		j.Warn(msgNoStack)
	}

	p := pipeline.Build(info)
	if err := pipeline.Validate(p); err != nil {
		return fmt.Errorf("%w: %w", ErrInternal, err)
	}
	summary := pipeline.Summarize(p)
	j.Log(summary.Description)

	for _, r := range render.All() {
		text, err := r.Render(p)
		if err != nil {
			return fmt.Errorf("%w: render %s: %w", ErrInternal, r.Name(), err)
		}
		resp.CITemplates[r.Name()] = text
		j.Logf("rendered %s (%s)", r.Name(), r.FileName())
	}

	resp.PipelineSummary = &summary
	resp.Status = StatusOK
	j.Warn(msgReview)
	return nil
}

func (o *Orchestrator) finish(ctx context.Context, j *Journal, resp *Response) *Response {
	resp.Logs, resp.Warnings = j.Entries()
	if o.Store == nil {
		return resp
	}
	if err := o.Store.Save(ctx, resp); err != nil {
		j.Warnf("The result could not be saved: %v", err)
		resp.Logs, resp.Warnings = j.Entries()
		resp.RunID = ""
		return resp
	}
	j.Logf("result saved as run %s", resp.RunID)
	resp.Logs, resp.Warnings = j.Entries()
	return resp
}

// NormalizeTarget lower-cases t and defaults it to GitLab.
func NormalizeTarget(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return render.GitLabTarget
	}
	return t
}
