// Package render turns an abstract pipeline into CI configuration text.
package render

import (
	"sort"
	"strings"

	"repo2pipe/internal/pipeline"
)

// Renderer produces one CI system's configuration. Implementations must be
// pure: the same pipeline always yields byte-identical output, and a
// structurally valid pipeline (including an empty one) always renders.
type Renderer interface {
	// Name is the registry key, e.g. "gitlab".
	Name() string
	// FileName is the conventional file the output is written to.
	FileName() string
	Render(p pipeline.Pipeline) (string, error)
}

const (
	GitLabTarget  = "gitlab"
	JenkinsTarget = "jenkins"
)

const (
	headerLine      = "Generated by repo2pipe. Review before committing."
	placeholderName = "placeholder"
	placeholderMsg  = "No recognizable stack detected. Edit this pipeline to add real stages."
)

var registry = map[string]Renderer{
	GitLabTarget:  GitLab{},
	JenkinsTarget: Jenkins{},
}

// Lookup returns the renderer registered under name (case-insensitive).
func Lookup(name string) (Renderer, bool) {
	r, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return r, ok
}

// Targets lists registered renderer names in sorted order.
func Targets() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// All returns every registered renderer, sorted by name.
func All() []Renderer {
	out := make([]Renderer, 0, len(registry))
	for _, name := range Targets() {
		out = append(out, registry[name])
	}
	return out
}
