package pipeline

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"repo2pipe/internal/stack"
)

func pythonWithTests() stack.Info {
	return stack.Info{
		PrimaryLanguage: stack.Python,
		Frameworks:      []string{},
		BuildTool:       stack.ToolPip,
		HasTests:        true,
		ProjectDir:      ".",
	}
}

func fullGo() stack.Info {
	return stack.Info{
		PrimaryLanguage: stack.Go,
		Frameworks:      []string{"gin"},
		BuildTool:       stack.ToolGoModules,
		HasDockerfile:   true,
		HasTests:        true,
		HasLintConfig:   true,
		LintTools:       []string{"golangci-lint"},
		ProjectDir:      ".",
		LanguageVersion: "1.23",
		Dockerfiles: []stack.Dockerfile{
			{Path: "Dockerfile", Context: ".", Name: "app"},
			{Path: "worker/Dockerfile", Context: "worker", Name: "worker"},
		},
		DeployTargets: []stack.DeployTarget{
			{Kind: stack.DeployKubernetes, Path: "k8s/deploy.yaml"},
			{Kind: stack.DeployCompose, Path: "docker-compose.yml"},
		},
	}
}

func sampleInfos() []stack.Info {
	js := stack.Info{
		PrimaryLanguage: stack.JavaScript,
		BuildTool:       stack.ToolPnpm,
		HasBuildScript:  true,
		HasLintConfig:   true,
		PackageScripts:  []string{"build", "lint", "test"},
		HasTests:        true,
		ProjectDir:      "web",
	}
	java := stack.Info{
		PrimaryLanguage: stack.Java,
		BuildTool:       stack.ToolGradle,
		BuildWrapper:    "./gradlew",
		HasDockerfile:   true,
		ProjectDir:      ".",
	}
	poetry := stack.Info{
		PrimaryLanguage: stack.Python,
		BuildTool:       stack.ToolPoetry,
		HasLintConfig:   true,
		LintTools:       []string{"ruff"},
		ProjectDir:      ".",
	}
	return []stack.Info{pythonWithTests(), fullGo(), js, java, poetry, stack.UnknownInfo()}
}

func TestBuildScenarioPythonInstallTest(t *testing.T) {
	p := Build(pythonWithTests())

	require.Equal(t, []string{StageInstall, StageTest}, p.StageNames())
	install, _ := p.Stage(StageInstall)
	test, _ := p.Stage(StageTest)
	require.Len(t, install.Jobs, 1)
	require.Len(t, test.Jobs, 1)
	assert.Equal(t, "python_install", install.Jobs[0].Name)
	assert.Empty(t, install.Jobs[0].DependsOn)
	assert.Equal(t, []string{"python_install"}, test.Jobs[0].DependsOn)
	assert.Equal(t, "python:3.11-slim", test.Jobs[0].Image)
	assert.Equal(t, []string{".venv/"}, install.Jobs[0].Artifacts)
	assert.Contains(t, test.Jobs[0].Commands, "pytest")
}

func TestBuildOmitsInapplicableStages(t *testing.T) {
	p := Build(stack.Info{PrimaryLanguage: stack.Go, BuildTool: stack.ToolGoModules, ProjectDir: "."})

	assert.Equal(t, []string{StageInstall, StageBuild}, p.StageNames())
	for _, s := range p.Stages {
		assert.NotEmpty(t, s.Jobs, "stage %s emitted empty", s.Name)
	}
}

func TestBuildUnknownIsEmpty(t *testing.T) {
	p := Build(stack.UnknownInfo("nothing here"))

	assert.True(t, p.Empty())
	assert.NotNil(t, p.Stages)
	s := Summarize(p)
	assert.Equal(t, 0, s.StagesCount)
	assert.Equal(t, 0, s.JobsCount)
	assert.Equal(t, "Pipeline is empty. Edit the configuration.", s.Description)
}

func TestBuildFullStack(t *testing.T) {
	p := Build(fullGo())

	require.Equal(t, StageOrder, p.StageNames())
	pkg, _ := p.Stage(StagePackage)
	deploy, _ := p.Stage(StageDeploy)
	assert.Equal(t, []string{"docker_build_app", "docker_build_worker"}, jobNames(pkg.Jobs))
	assert.Equal(t, []string{"deploy_kubernetes", "deploy_compose"}, jobNames(deploy.Jobs))
	for _, j := range deploy.Jobs {
		assert.Equal(t, []string{"docker_build_app", "docker_build_worker"}, j.DependsOn)
	}
	assert.Equal(t, "docker build -f worker/Dockerfile -t worker:latest worker", pkg.Jobs[1].Commands[0])
	assert.Equal(t, "kubectl apply -f k8s", deploy.Jobs[0].Commands[0])

	lint, _ := p.Stage(StageLint)
	assert.Equal(t, "golang:1.23", lint.Jobs[0].Image)
	assert.Contains(t, lint.Jobs[0].Commands, "golangci-lint run ./...")
}

func TestBuildProjectDirPrefix(t *testing.T) {
	info := sampleInfos()[2]
	p := Build(info)

	require.Equal(t, []string{StageInstall, StageLint, StageBuild, StageTest}, p.StageNames())
	for _, j := range p.Jobs() {
		assert.Equal(t, "cd web", j.Commands[0], "job %s", j.Name)
	}
	install, _ := p.Stage(StageInstall)
	assert.Equal(t, []string{"web/node_modules/"}, install.Jobs[0].Artifacts)
	build, _ := p.Stage(StageBuild)
	assert.Equal(t, []string{"cd web", "corepack enable", "pnpm run build"}, build.Jobs[0].Commands)
}

func TestBuildStageOrderingInvariant(t *testing.T) {
	for _, info := range sampleInfos() {
		p := Build(info)
		require.NoError(t, Validate(p), "language %s", info.PrimaryLanguage)

		names := p.StageNames()
		last := -1
		for _, n := range names {
			idx := slices.Index(StageOrder, n)
			require.Greater(t, idx, last, "stage %s out of order for %s", n, info.PrimaryLanguage)
			last = idx
		}
		for i := 1; i < len(p.Stages); i++ {
			prev := jobNames(p.Stages[i-1].Jobs)
			for _, j := range p.Stages[i].Jobs {
				assert.Equal(t, prev, j.DependsOn)
			}
		}
	}
}

func TestBuildIsDeterministic(t *testing.T) {
	for _, info := range sampleInfos() {
		assert.Equal(t, Build(info), Build(info))
	}
}

func TestBuildDeduplicatesDockerJobNames(t *testing.T) {
	info := stack.Info{
		PrimaryLanguage: stack.Go,
		HasDockerfile:   true,
		ProjectDir:      ".",
		Dockerfiles: []stack.Dockerfile{
			{Path: "a-b/Dockerfile", Context: "a-b", Name: "a-b"},
			{Path: "a_b/Dockerfile", Context: "a_b", Name: "a_b"},
		},
	}
	p := Build(info)
	pkg, _ := p.Stage(StagePackage)
	assert.Equal(t, []string{"docker_build_a_b", "docker_build_a_b_2"}, jobNames(pkg.Jobs))
	assert.NoError(t, Validate(p))
}

func TestSummarize(t *testing.T) {
	s := Summarize(Build(pythonWithTests()))

	assert.Equal(t, 2, s.StagesCount)
	assert.Equal(t, 2, s.JobsCount)
	assert.Equal(t, []string{"python_install", "python_test"}, s.JobNames)
	assert.Equal(t, "Generated pipeline with 2 stages and 2 jobs: stages install, test.", s.Description)
}

func TestValidateRejectsBrokenPipelines(t *testing.T) {
	cases := map[string]Pipeline{
		"duplicate job": {Stages: []Stage{
			{Name: "install", Jobs: []Job{{Name: "a", Commands: []string{"x"}}}},
			{Name: "test", Jobs: []Job{{Name: "a", Commands: []string{"y"}}}},
		}},
		"forward reference": {Stages: []Stage{
			{Name: "install", Jobs: []Job{{Name: "a", Commands: []string{"x"}, DependsOn: []string{"b"}}}},
			{Name: "test", Jobs: []Job{{Name: "b", Commands: []string{"y"}}}},
		}},
		"self reference": {Stages: []Stage{
			{Name: "install", Jobs: []Job{{Name: "a", Commands: []string{"x"}, DependsOn: []string{"a"}}}},
		}},
		"empty stage": {Stages: []Stage{{Name: "install"}}},
		"gitlab keyword": {Stages: []Stage{
			{Name: "build", Jobs: []Job{{Name: "stages", Commands: []string{"x"}}}},
		}},
		"hidden job": {Stages: []Stage{
			{Name: "build", Jobs: []Job{{Name: ".template", Commands: []string{"x"}}}},
		}},
		"job named like a stage": {Stages: []Stage{
			{Name: "install", Jobs: []Job{{Name: "deps", Commands: []string{"x"}}}},
			{Name: "test", Jobs: []Job{{Name: "install", Commands: []string{"y"}, DependsOn: []string{"deps"}}}},
		}},
		"no commands": {Stages: []Stage{{Name: "install", Jobs: []Job{{Name: "a"}}}}},
	}
	for name, p := range cases {
		err := Validate(p)
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, ErrInvalidPipeline), name)
		var inv *InvariantError
		assert.True(t, errors.As(err, &inv), name)
	}
	assert.NoError(t, Validate(Pipeline{}))
}

func jobNames(jobs []Job) []string {
	out := make([]string, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, j.Name)
	}
	return out
}

func TestBuildQuotesPathsWithSpaces(t *testing.T) {
	p := Build(stack.Info{
		PrimaryLanguage: stack.Python,
		BuildTool:       stack.ToolPip,
		ProjectDir:      "my service",
		HasDockerfile:   true,
		Dockerfiles:     []stack.Dockerfile{{Path: "my service/Dockerfile", Context: "my service", Name: "my-service"}},
		DeployTargets:   []stack.DeployTarget{{Kind: stack.DeployCompose, Path: "deploy/it's compose.yml"}},
	})

	install := p.Stages[0].Jobs[0]
	assert.Equal(t, "cd 'my service'", install.Commands[0])

	pkg, ok := p.Stage(StagePackage)
	require.True(t, ok)
	assert.Equal(t, "docker build -f 'my service/Dockerfile' -t my-service:latest 'my service'", pkg.Jobs[0].Commands[0])

	deploy, ok := p.Stage(StageDeploy)
	require.True(t, ok)
	assert.Equal(t, `docker compose -f 'deploy/it'\''s compose.yml' up -d`, deploy.Jobs[0].Commands[0])
}

func TestQuoteShell(t *testing.T) {
	cases := map[string]string{
		"web":              "web",
		"services/api":     "services/api",
		"":                 "''",
		"a b":              "'a b'",
		"$(rm -rf /)":      "'$(rm -rf /)'",
		"it's":             `'it'\''s'`,
		"charts/app-1.2.0": "charts/app-1.2.0",
	}
	for in, want := range cases {
		assert.Equal(t, want, QuoteShell(in), "input %q", in)
	}
}
