package pipeline

import (
	"fmt"
	"path"
	"strings"

	"repo2pipe/internal/stack"
)

const (
	defaultPythonVersion = "3.11"
	defaultNodeVersion   = "20"
	defaultGoVersion     = "1.22"
	defaultJavaVersion   = "17"

	dockerImage  = "docker:24"
	kubectlImage = "bitnami/kubectl:latest"
	helmImage    = "alpine/helm:3"
)

// recipe holds the language-specific commands for each stage. A nil slice
// means the stage does not apply to the stack.
type recipe struct {
	prefix string
	image  string
	// setup runs at the start of every language job after changing into
	// the project directory.
	setup []string

	install          []string
	installArtifacts []string
	lint             []string
	build            []string
	buildArtifacts   []string
	test             []string
}

func recipeFor(info stack.Info) (recipe, bool) {
	switch info.PrimaryLanguage {
	case stack.Python:
		return pythonRecipe(info), true
	case stack.JavaScript:
		return nodeRecipe(info), true
	case stack.Go:
		return goRecipe(info), true
	case stack.Java:
		return javaRecipe(info), true
	}
	return recipe{}, false
}

func pythonRecipe(info stack.Info) recipe {
	ver := orDefault(info.LanguageVersion, defaultPythonVersion)
	r := recipe{
		prefix:           "python",
		image:            fmt.Sprintf("python:%s-slim", ver),
		setup:            []string{". .venv/bin/activate"},
		installArtifacts: []string{".venv/"},
	}
	switch info.BuildTool {
	case stack.ToolPoetry:
		r.install = []string{
			"python -m venv .venv",
			". .venv/bin/activate",
			"pip install --upgrade pip poetry",
			"poetry config virtualenvs.create false",
			"poetry install --no-interaction",
		}
		r.build = []string{"poetry build"}
		r.buildArtifacts = []string{"dist/"}
	case stack.ToolPipenv:
		r.install = []string{
			"python -m venv .venv",
			". .venv/bin/activate",
			"pip install --upgrade pip pipenv",
			"pipenv install --dev --system",
		}
	default:
		r.install = []string{
			"python -m venv .venv",
			". .venv/bin/activate",
			"pip install --upgrade pip",
			"if [ -f requirements.txt ]; then pip install -r requirements.txt; fi",
			"if [ -f pyproject.toml ] || [ -f setup.py ]; then pip install -e .; fi",
		}
	}
	switch {
	case info.HasLintTool("ruff"):
		r.lint = []string{"pip install ruff", "ruff check ."}
	case info.HasLintTool("pylint"):
		r.lint = []string{"pip install pylint", "pylint $(git ls-files '*.py')"}
	default:
		r.lint = []string{"pip install flake8", "flake8 ."}
	}
	if info.HasFramework("django") {
		r.test = []string{"python manage.py test"}
	} else {
		r.test = []string{"pip install pytest", "pytest"}
	}
	return r
}

func nodeRecipe(info stack.Info) recipe {
	ver := orDefault(info.LanguageVersion, defaultNodeVersion)
	pm := orDefault(info.BuildTool, stack.ToolNpm)
	r := recipe{
		prefix:           "javascript",
		image:            fmt.Sprintf("node:%s-alpine", ver),
		installArtifacts: []string{"node_modules/"},
	}
	switch pm {
	case stack.ToolYarn:
		r.setup = []string{"corepack enable"}
		r.install = []string{"corepack enable", "yarn install --frozen-lockfile"}
	case stack.ToolPnpm:
		r.setup = []string{"corepack enable"}
		r.install = []string{"corepack enable", "pnpm install --frozen-lockfile"}
	default:
		if info.Lockfile != "" {
			r.install = []string{"npm ci"}
		} else {
			r.install = []string{"npm install"}
		}
	}
	if info.HasScript("lint") {
		r.lint = []string{pm + " run lint"}
	} else {
		r.lint = []string{"npx eslint ."}
	}
	if info.HasBuildScript {
		r.build = []string{pm + " run build"}
		r.buildArtifacts = []string{"dist/"}
	}
	if info.HasScript("test") {
		r.test = []string{pm + " test"}
	} else {
		r.test = []string{"npx --yes jest --passWithNoTests"}
	}
	return r
}

func goRecipe(info stack.Info) recipe {
	ver := orDefault(info.LanguageVersion, defaultGoVersion)
	r := recipe{
		prefix:  "go",
		image:   "golang:" + ver,
		install: []string{"go mod download"},
		build:   []string{"go build ./..."},
		test:    []string{"go test ./..."},
	}
	if info.HasLintTool("golangci-lint") {
		r.lint = []string{
			"go install github.com/golangci/golangci-lint/cmd/golangci-lint@latest",
			"golangci-lint run ./...",
		}
	} else {
		r.lint = []string{"go vet ./..."}
	}
	return r
}

func javaRecipe(info stack.Info) recipe {
	jdk := orDefault(info.LanguageVersion, defaultJavaVersion)
	if info.BuildTool == stack.ToolGradle {
		cmd := orDefault(info.BuildWrapper, "gradle")
		return recipe{
			prefix:         "java",
			image:          fmt.Sprintf("gradle:8-jdk%s", jdk),
			install:        []string{cmd + " dependencies --no-daemon"},
			lint:           []string{cmd + " checkstyleMain --no-daemon"},
			build:          []string{cmd + " assemble --no-daemon"},
			buildArtifacts: []string{"build/libs/"},
			test:           []string{cmd + " test --no-daemon"},
		}
	}
	cmd := orDefault(info.BuildWrapper, "mvn")
	return recipe{
		prefix:         "java",
		image:          fmt.Sprintf("maven:3.9-eclipse-temurin-%s", jdk),
		install:        []string{cmd + " -B dependency:go-offline"},
		lint:           []string{cmd + " -B checkstyle:check"},
		build:          []string{cmd + " -B package -DskipTests"},
		buildArtifacts: []string{"target/*.jar"},
		test:           []string{cmd + " -B test"},
	}
}

func dockerJob(df stack.Dockerfile) Job {
	return Job{
		Name:  "docker_build_" + jobSlug(df.Name),
		Image: dockerImage,
		Commands: []string{
			fmt.Sprintf("docker build -f %s -t %s:latest %s", QuoteShell(df.Path), QuoteShell(df.Name), QuoteShell(df.Context)),
		},
	}
}

func deployJob(target stack.DeployTarget) Job {
	switch target.Kind {
	case stack.DeployKubernetes:
		return Job{
			Name:     "deploy_kubernetes",
			Image:    kubectlImage,
			Commands: []string{"kubectl apply -f " + QuoteShell(path.Dir(target.Path))},
		}
	case stack.DeployHelm:
		release := path.Base(target.Path)
		if release == "." || release == "/" {
			release = "app"
		}
		return Job{
			Name:     "deploy_helm",
			Image:    helmImage,
			Commands: []string{fmt.Sprintf("helm upgrade --install %s %s", jobSlug(release), QuoteShell(target.Path))},
		}
	default:
		return Job{
			Name:     "deploy_" + jobSlug(target.Kind),
			Image:    dockerImage,
			Commands: []string{fmt.Sprintf("docker compose -f %s up -d", QuoteShell(target.Path))},
		}
	}
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func jobSlug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "app"
	}
	return b.String()
}
