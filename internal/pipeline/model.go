// Package pipeline turns a detected stack into a CI-agnostic pipeline of
// ordered stages and jobs.
package pipeline

// Canonical stage names in emission order.
const (
	StageInstall = "install"
	StageLint    = "lint"
	StageBuild   = "build"
	StageTest    = "test"
	StagePackage = "package"
	StageDeploy  = "deploy"
)

// StageOrder lists every stage the builder can emit, in order.
var StageOrder = []string{StageInstall, StageLint, StageBuild, StageTest, StagePackage, StageDeploy}

// Job is one unit of work. Commands run in order; DependsOn names jobs of
// earlier stages that must succeed first.
type Job struct {
	Name      string   `json:"name"`
	Commands  []string `json:"commands"`
	Image     string   `json:"image,omitempty"`
	DependsOn []string `json:"depends_on,omitempty"`
	Artifacts []string `json:"artifacts,omitempty"`
}

// Stage groups jobs that may run together.
type Stage struct {
	Name string `json:"name"`
	Jobs []Job  `json:"jobs"`
}

// Pipeline is an ordered list of stages. A pipeline with no stages is valid.
type Pipeline struct {
	Stages []Stage `json:"stages"`
}

// Empty reports whether the pipeline has no stages.
func (p Pipeline) Empty() bool { return len(p.Stages) == 0 }

// StageNames returns stage names in order.
func (p Pipeline) StageNames() []string {
	out := make([]string, 0, len(p.Stages))
	for _, s := range p.Stages {
		out = append(out, s.Name)
	}
	return out
}

// Jobs returns all jobs flattened in stage order.
func (p Pipeline) Jobs() []Job {
	var out []Job
	for _, s := range p.Stages {
		out = append(out, s.Jobs...)
	}
	return out
}

// Stage returns the named stage.
func (p Pipeline) Stage(name string) (Stage, bool) {
	for _, s := range p.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return Stage{}, false
}

// StageOf returns the name of the stage that holds job.
func (p Pipeline) StageOf(job string) string {
	for _, s := range p.Stages {
		for _, j := range s.Jobs {
			if j.Name == job {
				return s.Name
			}
		}
	}
	return ""
}
