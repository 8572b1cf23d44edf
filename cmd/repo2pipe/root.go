package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"repo2pipe/internal/analyzer"
	"repo2pipe/internal/config"
	"repo2pipe/internal/console"
	"repo2pipe/internal/progress"
	"repo2pipe/internal/render"
	"repo2pipe/internal/repo"
	"repo2pipe/internal/results"
)

// errFailed marks errors that have already been reported to the user.
var errFailed = errors.New("pipeline generation failed")

func reported(err error) error {
	return fmt.Errorf("%w: %w", errFailed, err)
}

type options struct {
	target  string
	output  string
	verbose bool
	quiet   bool
	save    bool
	json    bool
}

func newRootCmd(cfg *config.Config, printer *console.Printer) *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:   "repo2pipe <repository> [branch]",
		Short: "Generate a CI pipeline for a repository",
		Long: "repo2pipe inspects a repository (URL, archive or local directory), detects its stack\n" +
			"and writes a GitLab CI or Jenkins pipeline for it.",
		Args:          cobra.RangeArgs(1, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := analyzer.Request{Repository: args[0], Target: opts.target}
			if len(args) > 1 {
				req.Branch = args[1]
			}
			printer.Quiet = opts.quiet || opts.json
			return run(cmd.Context(), cfg, printer, opts, req)
		},
	}
	cmd.Flags().StringVarP(&opts.target, "type", "t", render.GitLabTarget, "CI system: "+strings.Join(render.Targets(), " or "))
	cmd.Flags().StringVarP(&opts.output, "output", "o", ".", "directory to write the pipeline file into")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "print analysis logs as they happen")
	cmd.Flags().BoolVarP(&opts.quiet, "quiet", "q", false, "print only the pipeline and problems")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the result in the configured result store")
	cmd.Flags().BoolVar(&opts.json, "json", false, "print the full analysis response as JSON")
	return cmd
}

func run(ctx context.Context, cfg *config.Config, printer *console.Printer, opts *options, req analyzer.Request) error {
	orch := analyzer.New(analyzer.RepoProvider{
		Provider: repo.NewProvider(cfg.WorkDir, cfg.DefaultBranch, cfg.CloneDepth),
	})
	if opts.verbose && !opts.json {
		orch.Observer = analyzer.ObserverFunc(func(e analyzer.Event) {
			if e.Type == analyzer.EventLog {
				printer.Info("%s", e.Message)
			}
		})
	}
	if opts.save {
		if err := cfg.Validate(); err != nil {
			printer.Error("%v", err)
			return reported(err)
		}
		store, closeStore, err := results.Open(ctx, cfg.Results)
		if err != nil {
			printer.Error("%v", err)
			return reported(err)
		}
		defer closeStore()
		orch.Store = results.NewService(store)
	}

	printer.Title("Analysing %s", req.Repository)
	analyse := func(ctx context.Context) (*analyzer.Response, error) { return orch.Run(ctx, req) }
	var (
		resp *analyzer.Response
		err  error
	)
	if opts.verbose || opts.quiet || opts.json {
		resp, err = analyse(ctx)
	} else {
		resp, err = progress.Run(ctx, os.Stderr, "Analysing repository...", analyse)
	}
	if err != nil {
		printer.Error("Internal error: %v", err)
		return reported(err)
	}

	if opts.json {
		enc := json.NewEncoder(printer.Out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		if !resp.OK() {
			return errFailed
		}
		return nil
	}

	if !resp.OK() {
		for _, l := range resp.Logs {
			printer.Info("%s", l)
		}
		for _, w := range resp.Warnings {
			printer.Warning("%s", w)
		}
		printer.Error("Pipeline generation failed. No file was written.")
		return errFailed
	}

	text, _ := resp.Template()
	path, err := writeTemplate(opts.output, resp.FileName(), text)
	if err != nil {
		printer.Error("Could not write the pipeline: %v", err)
		return reported(err)
	}

	printer.Info("Stack: %s", describeStack(resp))
	if resp.PipelineSummary != nil {
		printer.Info("%s", resp.PipelineSummary.Description)
	}
	printer.Separator()
	printer.Document(text)
	printer.Separator()
	for _, w := range resp.Warnings {
		printer.Warning("%s", w)
	}
	printer.Success("Wrote %s", path)
	if resp.RunID != "" {
		printer.Success("Saved as run %s", resp.RunID)
	}
	return nil
}

func writeTemplate(dir, name, text string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("no output file name for this CI type")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func describeStack(resp *analyzer.Response) string {
	s := resp.Stack
	parts := []string{string(s.PrimaryLanguage)}
	if s.BuildTool != "" {
		parts = append(parts, s.BuildTool)
	}
	if len(s.Frameworks) > 0 {
		parts = append(parts, strings.Join(s.Frameworks, ", "))
	}
	if s.ProjectDir != "" && s.ProjectDir != "." {
		parts = append(parts, "in "+s.ProjectDir)
	}
	return strings.Join(parts, " / ")
}
