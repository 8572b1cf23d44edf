package pipeline

import (
	"fmt"
	"strings"
)

// Summary is a read-only digest of a pipeline for presentation layers.
type Summary struct {
	StagesCount int      `json:"stages_count"`
	JobsCount   int      `json:"jobs_count"`
	Stages      []string `json:"stages"`
	JobNames    []string `json:"job_names"`
	Description string   `json:"description"`
}

// Summarize counts stages and jobs and describes the pipeline in one sentence.
func Summarize(p Pipeline) Summary {
	s := Summary{
		Stages:   p.StageNames(),
		JobNames: []string{},
	}
	for _, j := range p.Jobs() {
		s.JobNames = append(s.JobNames, j.Name)
	}
	s.StagesCount = len(s.Stages)
	s.JobsCount = len(s.JobNames)
	if s.StagesCount == 0 && s.JobsCount == 0 {
		s.Description = "Pipeline is empty. Edit the configuration."
		return s
	}
	s.Description = fmt.Sprintf("Generated pipeline with %d %s and %d %s: stages %s.",
		s.StagesCount, plural(s.StagesCount, "stage"),
		s.JobsCount, plural(s.JobsCount, "job"),
		strings.Join(s.Stages, ", "))
	return s
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
