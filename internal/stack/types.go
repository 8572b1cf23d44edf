// Package stack infers a repository's technology stack from file presence
// and manifest contents.
package stack

import "slices"

// Language is the primary language of a repository.
type Language string

const (
	Python     Language = "python"
	JavaScript Language = "javascript"
	Go         Language = "go"
	Java       Language = "java"
	Unknown    Language = "unknown"
)

// Build tools reported in Info.BuildTool.
const (
	ToolPoetry    = "poetry"
	ToolPipenv    = "pipenv"
	ToolPip       = "pip"
	ToolYarn      = "yarn"
	ToolPnpm      = "pnpm"
	ToolNpm       = "npm"
	ToolGoModules = "go-modules"
	ToolMaven     = "maven"
	ToolGradle    = "gradle"
)

// Deploy target kinds.
const (
	DeployKubernetes = "kubernetes"
	DeployHelm       = "helm"
	DeployCompose    = "compose"
)

// Dockerfile locates one container build.
type Dockerfile struct {
	Path    string `json:"path"`
	Context string `json:"context"`
	Name    string `json:"name"`
}

// DeployTarget is a deployment descriptor found in the tree.
type DeployTarget struct {
	Kind string `json:"kind"`
	Path string `json:"path"`
}

// Info is the result of detection. When PrimaryLanguage is Unknown the
// language-scoped fields (Frameworks, BuildTool, BuildWrapper, Lockfile,
// ProjectDir, LanguageVersion, HasBuildScript, PackageScripts) are empty.
type Info struct {
	PrimaryLanguage Language `json:"primary_language"`
	Frameworks      []string `json:"frameworks"`
	BuildTool       string   `json:"build_tool,omitempty"`
	HasDockerfile   bool     `json:"has_dockerfile"`
	HasTests        bool     `json:"has_tests"`
	HasLintConfig   bool     `json:"has_lint_config"`
	DetectionNotes  []string `json:"detection_notes"`

	ProjectDir      string         `json:"project_dir,omitempty"`
	LanguageVersion string         `json:"language_version,omitempty"`
	BuildWrapper    string         `json:"build_wrapper,omitempty"`
	Lockfile        string         `json:"lockfile,omitempty"`
	HasBuildScript  bool           `json:"has_build_script,omitempty"`
	PackageScripts  []string       `json:"package_scripts,omitempty"`
	LintConfigs     []string       `json:"lint_configs,omitempty"`
	LintTools       []string       `json:"lint_tools,omitempty"`
	Dockerfiles     []Dockerfile   `json:"dockerfiles,omitempty"`
	DeployTargets   []DeployTarget `json:"deploy_targets,omitempty"`
}

// UnknownInfo is the stack reported when nothing could be inferred.
func UnknownInfo(notes ...string) Info {
	return Info{
		PrimaryLanguage: Unknown,
		Frameworks:      []string{},
		DetectionNotes:  append([]string{}, notes...),
	}
}

// Known reports whether a primary language was identified.
func (i Info) Known() bool {
	return i.PrimaryLanguage != "" && i.PrimaryLanguage != Unknown
}

// HasFramework reports whether name was detected.
func (i Info) HasFramework(name string) bool {
	return slices.Contains(i.Frameworks, name)
}

// HasScript reports whether package.json declares the named script.
func (i Info) HasScript(name string) bool {
	return slices.Contains(i.PackageScripts, name)
}

// HasLintTool reports whether lint configuration for tool was found.
func (i Info) HasLintTool(tool string) bool {
	return slices.Contains(i.LintTools, tool)
}

// DeployKinds returns the distinct deploy target kinds in detection order.
func (i Info) DeployKinds() []string {
	var out []string
	for _, t := range i.DeployTargets {
		if !slices.Contains(out, t.Kind) {
			out = append(out, t.Kind)
		}
	}
	return out
}
