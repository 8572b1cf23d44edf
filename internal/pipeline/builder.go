package pipeline

import (
	"fmt"

	"repo2pipe/internal/stack"
)

// Build derives the pipeline for info. It is a pure function: the same Info
// always yields the same Pipeline. Stages that do not apply are omitted, never
// emitted empty, and an unknown stack yields a pipeline with no stages.
func Build(info stack.Info) Pipeline {
	p := Pipeline{Stages: []Stage{}}
	r, ok := recipeFor(info)
	if !info.Known() || !ok {
		return p
	}

	lang := func(stage string, commands, artifacts []string) Job {
		return languageJob(info.ProjectDir, r, stage, commands, artifacts)
	}

	p.add(StageInstall, lang(StageInstall, r.install, r.installArtifacts))
	if info.HasLintConfig && len(r.lint) > 0 {
		p.add(StageLint, lang(StageLint, r.lint, nil))
	}
	if len(r.build) > 0 {
		p.add(StageBuild, lang(StageBuild, r.build, r.buildArtifacts))
	}
	if info.HasTests && len(r.test) > 0 {
		p.add(StageTest, lang(StageTest, r.test, nil))
	}
	if info.HasDockerfile {
		var jobs []Job
		seen := map[string]int{}
		for _, df := range info.Dockerfiles {
			job := dockerJob(df)
			seen[job.Name]++
			if n := seen[job.Name]; n > 1 {
				job.Name = fmt.Sprintf("%s_%d", job.Name, n)
			}
			jobs = append(jobs, job)
		}
		if len(jobs) == 0 {
			jobs = append(jobs, dockerJob(stack.Dockerfile{Path: "Dockerfile", Context: ".", Name: "app"}))
		}
		p.add(StagePackage, jobs...)
	}
	if len(info.DeployTargets) > 0 {
		var jobs []Job
		seen := map[string]bool{}
		for _, t := range info.DeployTargets {
			job := deployJob(t)
			if seen[job.Name] {
				continue
			}
			seen[job.Name] = true
			jobs = append(jobs, job)
		}
		p.add(StageDeploy, jobs...)
	}

	linkStages(&p)
	return p
}

func (p *Pipeline) add(name string, jobs ...Job) {
	if len(jobs) == 0 {
		return
	}
	p.Stages = append(p.Stages, Stage{Name: name, Jobs: jobs})
}

// linkStages makes every job depend on every job of the preceding stage.
func linkStages(p *Pipeline) {
	for i := 1; i < len(p.Stages); i++ {
		prev := p.Stages[i-1].Jobs
		names := make([]string, 0, len(prev))
		for _, j := range prev {
			names = append(names, j.Name)
		}
		for k := range p.Stages[i].Jobs {
			p.Stages[i].Jobs[k].DependsOn = append([]string(nil), names...)
		}
	}
}

func languageJob(dir string, r recipe, stage string, commands, artifacts []string) Job {
	var cmds []string
	if dir != "" && dir != "." {
		cmds = append(cmds, "cd "+QuoteShell(dir))
	}
	if stage != StageInstall {
		cmds = append(cmds, r.setup...)
	}
	cmds = append(cmds, commands...)

	var arts []string
	for _, a := range artifacts {
		arts = append(arts, joinDir(dir, a))
	}
	return Job{
		Name:      r.prefix + "_" + stage,
		Commands:  cmds,
		Image:     r.image,
		Artifacts: arts,
	}
}

func joinDir(dir, rel string) string {
	if dir == "" || dir == "." {
		return rel
	}
	return dir + "/" + rel
}
