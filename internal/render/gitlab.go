package render

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"repo2pipe/internal/pipeline"
)

// GitLab renders .gitlab-ci.yml. Stage order becomes the top-level stages
// list and DependsOn becomes needs, so GitLab can start a job as soon as its
// dependencies finish.
type GitLab struct{}

func (GitLab) Name() string     { return GitLabTarget }
func (GitLab) FileName() string { return ".gitlab-ci.yml" }

func (GitLab) Render(p pipeline.Pipeline) (string, error) {
	if err := pipeline.Validate(p); err != nil {
		return "", fmt.Errorf("render gitlab: %w", err)
	}
	root := mapping()
	root.HeadComment = headerLine

	if p.Empty() {
		appendPair(root, "stages", sequence(placeholderName))
		job := mapping()
		appendPair(job, "stage", str(placeholderName))
		appendPair(job, "script", sequence("echo "+pipeline.QuoteShell(placeholderMsg)))
		appendPair(root, placeholderName, job)
		return encodeYAML(root)
	}

	appendPair(root, "stages", sequence(p.StageNames()...))
	for _, s := range p.Stages {
		for _, j := range s.Jobs {
			appendPair(root, j.Name, gitlabJob(s.Name, j))
		}
	}
	return encodeYAML(root)
}

func gitlabJob(stage string, j pipeline.Job) *yaml.Node {
	job := mapping()
	appendPair(job, "stage", str(stage))
	if j.Image != "" {
		appendPair(job, "image", str(j.Image))
	}
	if len(j.DependsOn) > 0 {
		appendPair(job, "needs", sequence(j.DependsOn...))
	}
	appendPair(job, "script", sequence(j.Commands...))
	if len(j.Artifacts) > 0 {
		arts := mapping()
		appendPair(arts, "paths", sequence(j.Artifacts...))
		appendPair(job, "artifacts", arts)
	}
	return job
}

func encodeYAML(root *yaml.Node) (string, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return "", fmt.Errorf("render gitlab: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("render gitlab: %w", err)
	}
	return buf.String(), nil
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode} }

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func sequence(values ...string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		seq.Content = append(seq.Content, str(v))
	}
	return seq
}

func appendPair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, str(key), value)
}
