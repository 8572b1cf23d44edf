package stack

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func file(content string) *fstest.MapFile {
	return &fstest.MapFile{Data: []byte(content)}
}

func hasNote(info Info, substr string) bool {
	for _, n := range info.DetectionNotes {
		if strings.Contains(n, substr) {
			return true
		}
	}
	return false
}

func TestDetectPythonFastAPI(t *testing.T) {
	info := Detect(fstest.MapFS{
		"requirements.txt":  file("fastapi==0.110\nuvicorn[standard]>=0.29 # server\n"),
		"app/main.py":       file("from fastapi import FastAPI\n"),
		"tests/test_api.py": file("def test_ok(): pass\n"),
	})

	assert.Equal(t, Python, info.PrimaryLanguage)
	assert.Equal(t, ToolPip, info.BuildTool)
	assert.Equal(t, []string{"fastapi"}, info.Frameworks)
	assert.True(t, info.HasTests)
	assert.False(t, info.HasDockerfile)
	assert.False(t, info.HasLintConfig)
	assert.Equal(t, ".", info.ProjectDir)
	assert.True(t, hasNote(info, "language: python (found requirements.txt)"))
	assert.True(t, hasNote(info, "framework: fastapi (requirements.txt)"))
	assert.True(t, hasNote(info, "indexed 3 files in 2 directories"))
}

func TestDetectPythonOutranksPackageJSON(t *testing.T) {
	info := Detect(fstest.MapFS{
		"requirements.txt": file("flask\n"),
		"package.json":     file(`{"dependencies":{"react":"^18.0.0"}}`),
	})

	assert.Equal(t, Python, info.PrimaryLanguage)
	assert.Equal(t, []string{"flask"}, info.Frameworks)
	assert.False(t, info.HasFramework("react"))
	assert.True(t, hasNote(info, "ambiguous markers: package.json (javascript)"))
}

func TestDetectEmptyTree(t *testing.T) {
	info := Detect(fstest.MapFS{})

	assert.Equal(t, Unknown, info.PrimaryLanguage)
	assert.Empty(t, info.Frameworks)
	assert.NotNil(t, info.Frameworks)
	assert.Empty(t, info.BuildTool)
	assert.NotEmpty(t, info.DetectionNotes)
}

func TestDetectUnknownKeepsPresenceSignals(t *testing.T) {
	info := Detect(fstest.MapFS{
		"Dockerfile": file("FROM alpine\n"),
		"README.md":  file("# hi\n"),
	})

	assert.Equal(t, Unknown, info.PrimaryLanguage)
	assert.True(t, info.HasDockerfile)
	assert.Empty(t, info.Frameworks)
	assert.Empty(t, info.BuildTool)
	assert.Empty(t, info.ProjectDir)
	assert.True(t, hasNote(info, "no recognizable language markers"))
}

func TestDetectGoService(t *testing.T) {
	info := Detect(fstest.MapFS{
		"go.mod": file(`module example.com/svc

go 1.22.3

require (
	github.com/gin-gonic/gin v1.9.1
	github.com/labstack/echo/v4 v4.11.0
)
`),
		"main.go":             file("package main\n"),
		"internal/x_test.go":  file("package internal\n"),
		".golangci.yml":       file("linters: {}\n"),
		"Dockerfile":          file("FROM golang:1.22\n"),
		"k8s/deployment.yaml": file("apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: svc\n"),
	})

	assert.Equal(t, Go, info.PrimaryLanguage)
	assert.Equal(t, ToolGoModules, info.BuildTool)
	assert.Equal(t, []string{"echo", "gin"}, info.Frameworks)
	assert.Equal(t, "1.22", info.LanguageVersion)
	assert.True(t, info.HasTests)
	assert.True(t, info.HasLintConfig)
	assert.Equal(t, []string{"golangci-lint"}, info.LintTools)
	require.Len(t, info.Dockerfiles, 1)
	assert.Equal(t, Dockerfile{Path: "Dockerfile", Context: ".", Name: "app"}, info.Dockerfiles[0])
	assert.Equal(t, []DeployTarget{{Kind: DeployKubernetes, Path: "k8s/deployment.yaml"}}, info.DeployTargets)
}

func TestDetectNodeYarnReact(t *testing.T) {
	info := Detect(fstest.MapFS{
		"package.json": file(`{
  "scripts": {"build": "vite build", "test": "vitest", "lint": "eslint ."},
  "dependencies": {"react": "^18.2.0", "@vue/compat": "3"},
  "engines": {"node": ">=18"}
}`),
		"yarn.lock":          file(""),
		"src/App.test.tsx":   file(""),
		"eslint.config.js":   file("export default []\n"),
		"docker-compose.yml": file("services: {}\n"),
	})

	assert.Equal(t, JavaScript, info.PrimaryLanguage)
	assert.Equal(t, ToolYarn, info.BuildTool)
	assert.Equal(t, []string{"react", "vue"}, info.Frameworks)
	assert.Equal(t, "18", info.LanguageVersion)
	assert.True(t, info.HasBuildScript)
	assert.True(t, info.HasScript("lint"))
	assert.True(t, info.HasTests)
	assert.Equal(t, []string{"eslint"}, info.LintTools)
	assert.Equal(t, []string{DeployCompose}, info.DeployKinds())
}

func TestDetectJavaMavenSpring(t *testing.T) {
	info := Detect(fstest.MapFS{
		"pom.xml": file(`<project>
  <parent><groupId>org.springframework.boot</groupId><artifactId>spring-boot-starter-parent</artifactId></parent>
  <properties><java.version>17</java.version></properties>
  <dependencies>
    <dependency><groupId>org.springframework.boot</groupId><artifactId>spring-boot-starter-web</artifactId></dependency>
  </dependencies>
</project>`),
		"mvnw":                       file("#!/bin/sh\n"),
		"src/test/java/AppTest.java": file("class AppTest {}\n"),
	})

	assert.Equal(t, Java, info.PrimaryLanguage)
	assert.Equal(t, ToolMaven, info.BuildTool)
	assert.Equal(t, "./mvnw", info.BuildWrapper)
	assert.Equal(t, []string{"spring"}, info.Frameworks)
	assert.Equal(t, "17", info.LanguageVersion)
	assert.True(t, info.HasTests)
}

func TestDetectGradleLegacyJavaVersion(t *testing.T) {
	info := Detect(fstest.MapFS{
		"build.gradle": file("plugins { id 'java' }\nsourceCompatibility = '1.8'\ndependencies { implementation 'io.ktor:ktor-server-core:2.3.0' }\n"),
	})

	assert.Equal(t, Java, info.PrimaryLanguage)
	assert.Equal(t, ToolGradle, info.BuildTool)
	assert.Equal(t, "8", info.LanguageVersion)
	assert.Equal(t, []string{"ktor"}, info.Frameworks)
}

func TestDetectPoetryProject(t *testing.T) {
	info := Detect(fstest.MapFS{
		"pyproject.toml": file(`[tool.poetry]
name = "svc"

[tool.poetry.dependencies]
python = "^3.12"
django = "^5.0"

[tool.ruff]
line-length = 100
`),
	})

	assert.Equal(t, Python, info.PrimaryLanguage)
	assert.Equal(t, ToolPoetry, info.BuildTool)
	assert.Equal(t, []string{"django"}, info.Frameworks)
	assert.Equal(t, "3.12", info.LanguageVersion)
	assert.Equal(t, []string{"ruff"}, info.LintTools)
	assert.Equal(t, []string{"pyproject.toml"}, info.LintConfigs)
}

func TestDetectNestedProject(t *testing.T) {
	info := Detect(fstest.MapFS{
		"README.md":                   file("monorepo\n"),
		"services/api/go.mod":         file("module api\n\ngo 1.21\n"),
		"web/app/client/package.json": file(`{}`),
		"services/api/Dockerfile":     file("FROM golang:1.21\n"),
	})

	assert.Equal(t, Go, info.PrimaryLanguage)
	assert.Equal(t, "services/api", info.ProjectDir)
	require.Len(t, info.Dockerfiles, 1)
	assert.Equal(t, "api", info.Dockerfiles[0].Name)
	assert.Equal(t, "services/api", info.Dockerfiles[0].Context)
}

func TestDockerImageNames(t *testing.T) {
	cases := map[string][2]string{
		"app":    {".", "Dockerfile"},
		"dev":    {".", "Dockerfile.dev"},
		"worker": {"worker", "Dockerfile"},
		"web":    {"ops", "web.Dockerfile"},
	}
	for want, in := range cases {
		if got := dockerImageName(in[0], in[1]); got != want {
			t.Fatalf("dockerImageName(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}

func TestDetectIsDeterministic(t *testing.T) {
	fsys := fstest.MapFS{
		"requirements.txt": file("django\nflask\nfastapi\n"),
		"Dockerfile":       file("FROM python:3.10-slim\n"),
		"api/Dockerfile":   file("FROM python:3.10-slim\n"),
		".flake8":          file("[flake8]\n"),
		"tests/test_a.py":  file(""),
	}
	first := Detect(fsys)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, Detect(fsys))
	}
	assert.Equal(t, []string{"django", "fastapi", "flask"}, first.Frameworks)
	assert.Equal(t, "3.10", first.LanguageVersion)
}

func TestDetectPyprojectIgnoresNonDependencyStrings(t *testing.T) {
	info := Detect(fstest.MapFS{
		"pyproject.toml": file(`[project]
name = "toolkit"
keywords = ["flask", "django"]
requires-python = ">=3.10"
dependencies = ["requests>=2"]

[project.optional-dependencies]
web = ["fastapi[all]>=0.100; python_version >= '3.10'"]

[project.urls]
flask = "https://example.com/flask"
`),
	})

	assert.Equal(t, Python, info.PrimaryLanguage)
	assert.Equal(t, ToolPip, info.BuildTool)
	assert.Equal(t, []string{"fastapi"}, info.Frameworks)
	assert.Equal(t, "3.10", info.LanguageVersion)
}

func TestDetectPoetryGroupDependencies(t *testing.T) {
	info := Detect(fstest.MapFS{
		"pyproject.toml": file(`[tool.poetry]
name = "svc"
description = "not a django app"

[tool.poetry.dependencies]
python = "~3.11"

[tool.poetry.group.web.dependencies]
Flask = { version = "^3.0", extras = ["async"] }
`),
	})

	assert.Equal(t, ToolPoetry, info.BuildTool)
	assert.Equal(t, []string{"flask"}, info.Frameworks)
	assert.Equal(t, "3.11", info.LanguageVersion)
}

func TestDetectPipfilePackages(t *testing.T) {
	info := Detect(fstest.MapFS{
		"Pipfile": file(`[[source]]
name = "pypi"
url = "https://pypi.org/simple"

[packages]
django = "*"

[dev-packages]
pytest = "*"

[scripts]
flask = "python -m flask run"

[requires]
python_version = "3.12"
`),
	})

	assert.Equal(t, ToolPipenv, info.BuildTool)
	assert.Equal(t, []string{"django"}, info.Frameworks)
	assert.Equal(t, "3.12", info.LanguageVersion)
}

func TestDetectSetupPyInstallRequiresOnly(t *testing.T) {
	info := Detect(fstest.MapFS{
		"setup.py": file(`from setuptools import setup

setup(
    name="flask-helpers",
    keywords=["django"],
    install_requires=[
        "requests>=2",
        "fastapi",
    ],
)
`),
	})

	assert.Equal(t, []string{"fastapi"}, info.Frameworks)
}

func TestDetectInvalidPyprojectIsNoted(t *testing.T) {
	info := Detect(fstest.MapFS{
		"pyproject.toml": file("[project\ndependencies = [\"flask\"]\n"),
	})

	assert.Equal(t, Python, info.PrimaryLanguage)
	assert.Empty(t, info.Frameworks)
	assert.True(t, hasNote(info, "pyproject.toml unreadable"))
}
