package render

import (
	"fmt"
	"strings"

	"repo2pipe/internal/pipeline"
)

// Jenkins renders a declarative Jenkinsfile.
//
// Declarative pipelines have no job graph, so each abstract stage becomes an
// outer stage whose jobs run as nested sequential stages in list order.
// DependsOn is implied by stage order and is not emitted.
type Jenkins struct{}

func (Jenkins) Name() string     { return JenkinsTarget }
func (Jenkins) FileName() string { return "Jenkinsfile" }

func (Jenkins) Render(p pipeline.Pipeline) (string, error) {
	if err := pipeline.Validate(p); err != nil {
		return "", fmt.Errorf("render jenkins: %w", err)
	}
	w := &groovyWriter{}
	w.line("// " + headerLine)
	w.open("pipeline")
	w.line("agent any")
	w.open("stages")
	if p.Empty() {
		w.open("stage(" + groovyString(placeholderName) + ")")
		w.open("steps")
		w.line("echo " + groovyString(placeholderMsg))
		w.close()
		w.close()
	}
	for _, s := range p.Stages {
		w.open("stage(" + groovyString(s.Name) + ")")
		w.open("stages")
		for _, j := range s.Jobs {
			writeJenkinsJob(w, j)
		}
		w.close()
		w.close()
	}
	w.close()
	w.close()
	return w.String(), nil
}

func writeJenkinsJob(w *groovyWriter, j pipeline.Job) {
	w.open("stage(" + groovyString(j.Name) + ")")
	if j.Image != "" {
		w.open("agent")
		w.open("docker")
		w.line("image " + groovyString(j.Image))
		w.line("reuseNode true")
		w.close()
		w.close()
	}
	w.open("steps")
	w.line("sh " + groovyScript(j.Commands))
	w.close()
	if len(j.Artifacts) > 0 {
		w.open("post")
		w.open("success")
		w.line("archiveArtifacts artifacts: " + groovyString(strings.Join(j.Artifacts, ", ")) + ", allowEmptyArchive: true")
		w.close()
		w.close()
	}
	w.close()
}

// groovyString renders s as a single-quoted Groovy literal.
func groovyString(s string) string {
	return "'" + escapeGroovy(s) + "'"
}

// groovyScript joins commands into one triple-quoted sh body so they share
// a shell, the way a GitLab script block does.
func groovyScript(commands []string) string {
	if len(commands) == 1 {
		return groovyString(commands[0])
	}
	var b strings.Builder
	b.WriteString("'''\n")
	for _, c := range commands {
		b.WriteString(escapeGroovy(c))
		b.WriteString("\n")
	}
	b.WriteString("'''")
	return b.String()
}

func escapeGroovy(s string) string {
	r := strings.NewReplacer(
		`\`, `\\`,
		`'`, `\'`,
		"\n", `\n`,
		"\r", `\r`,
		"\t", `\t`,
	)
	return r.Replace(s)
}

type groovyWriter struct {
	b     strings.Builder
	depth int
}

func (w *groovyWriter) line(s string) {
	w.b.WriteString(strings.Repeat("    ", w.depth))
	w.b.WriteString(s)
	w.b.WriteString("\n")
}

func (w *groovyWriter) open(head string) {
	w.line(head + " {")
	w.depth++
}

func (w *groovyWriter) close() {
	w.depth--
	w.line("}")
}

func (w *groovyWriter) String() string { return w.b.String() }
