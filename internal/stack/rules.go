package stack

import (
	"bytes"
	"regexp"
	"strings"
)

type languageRule struct {
	lang    Language
	rank    int
	markers []string

	buildTool  func(p *survey, dir string) (tool, why string)
	wrapper    func(p *survey, dir, tool string) string
	frameworks func(p *survey, dir string, found map[string]string)
	version    func(p *survey, dir string) (ver, source string)
	extras     func(p *survey, dir string, info *Info)
}

// languageRules is evaluated top to bottom; the first rule whose marker is
// present wins. Python outranks JavaScript so that a Python service with a
// package.json for frontend tooling is still reported as Python.
var languageRules = []languageRule{
	{
		lang:       Python,
		rank:       0,
		markers:    []string{"pyproject.toml", "requirements.txt", "Pipfile", "setup.py"},
		buildTool:  pythonBuildTool,
		frameworks: pythonFrameworks,
		version:    pythonVersion,
	},
	{
		lang:       JavaScript,
		rank:       1,
		markers:    []string{"package.json"},
		buildTool:  nodeBuildTool,
		frameworks: nodeFrameworks,
		version:    nodeVersion,
		extras:     nodeScripts,
	},
	{
		lang:       Go,
		rank:       2,
		markers:    []string{"go.mod"},
		buildTool:  func(*survey, string) (string, string) { return ToolGoModules, "go.mod" },
		frameworks: goFrameworks,
		version:    goVersion,
	},
	{
		lang:       Java,
		rank:       3,
		markers:    []string{"pom.xml", "build.gradle", "build.gradle.kts"},
		buildTool:  javaBuildTool,
		wrapper:    javaWrapper,
		frameworks: javaFrameworks,
		version:    javaVersion,
	},
}

var (
	reDockerFromPy    = regexp.MustCompile(`(?mi)^\s*FROM\s+(?:--platform=\S+\s+)?python:(\d+\.\d+)`)
	reMajorMinor      = regexp.MustCompile(`(\d+)\.(\d+)`)
	reMajor           = regexp.MustCompile(`(\d+)`)
	reInstallRequires = regexp.MustCompile(`(?s)install_requires\s*=\s*\[(.*?)\]`)
	reQuoted          = regexp.MustCompile(`["']([^"']+)["']`)
	reGradleSpring    = regexp.MustCompile(`org\.springframework`)
	reGradleKtor      = regexp.MustCompile(`io\.ktor`)
	reGradleJava      = regexp.MustCompile(`(?:sourceCompatibility\s*=\s*(?:JavaVersion\.VERSION_)?['"]?([0-9_.]+)|JavaLanguageVersion\.of\(\s*(\d+)\s*\))`)
)

func pythonBuildTool(p *survey, dir string) (string, string) {
	pyproject, _ := parsePyProject(p.read(join(dir, "pyproject.toml")))
	switch {
	case p.has(join(dir, "poetry.lock")):
		return ToolPoetry, join(dir, "poetry.lock")
	case pyproject != nil && pyproject.usesPoetry():
		return ToolPoetry, join(dir, "pyproject.toml") + " [tool.poetry]"
	case p.has(join(dir, "Pipfile")):
		return ToolPipenv, join(dir, "Pipfile")
	case p.has(join(dir, "requirements.txt")):
		return ToolPip, join(dir, "requirements.txt")
	case p.has(join(dir, "pyproject.toml")):
		return ToolPip, join(dir, "pyproject.toml")
	case p.has(join(dir, "setup.py")):
		return ToolPip, join(dir, "setup.py")
	}
	return "", ""
}

var pythonFrameworkDeps = map[string]string{
	"fastapi": "fastapi",
	"flask":   "flask",
	"django":  "django",
}

func pythonFrameworks(p *survey, dir string, found map[string]string) {
	for _, name := range []string{"requirements.txt", "pyproject.toml", "Pipfile", "setup.py"} {
		rel := join(dir, name)
		data := p.read(rel)
		if data == nil {
			continue
		}
		var deps map[string]struct{}
		switch name {
		case "requirements.txt":
			deps = parseRequirements(data)
		case "pyproject.toml":
			doc, err := parsePyProject(data)
			if err != nil {
				p.note("%s unreadable: %v", rel, err)
				continue
			}
			deps = doc.deps()
		case "Pipfile":
			doc, err := parsePipfile(data)
			if err != nil {
				p.note("%s unreadable: %v", rel, err)
				continue
			}
			deps = doc.deps()
		case "setup.py":
			deps = parseSetupPy(data)
		}
		for dep, fw := range pythonFrameworkDeps {
			if _, ok := deps[dep]; ok {
				if _, seen := found[fw]; !seen {
					found[fw] = rel
				}
			}
		}
	}
}

func pythonVersion(p *survey, dir string) (string, string) {
	for _, rel := range []string{join(dir, ".python-version"), ".python-version"} {
		if data := p.read(rel); data != nil {
			line := strings.TrimSpace(firstLine(data))
			if m := reMajorMinor.FindString(line); m != "" {
				return m, rel
			}
		}
	}
	if doc, err := parsePyProject(p.read(join(dir, "pyproject.toml"))); err == nil {
		if v := reMajorMinor.FindString(doc.pythonConstraint()); v != "" {
			return v, join(dir, "pyproject.toml")
		}
	}
	if doc, err := parsePipfile(p.read(join(dir, "Pipfile"))); err == nil {
		if v := reMajorMinor.FindString(doc.Requires.PythonVersion); v != "" {
			return v, join(dir, "Pipfile")
		}
	}
	for _, rel := range []string{join(dir, "Dockerfile"), "Dockerfile"} {
		if m := reDockerFromPy.FindSubmatch(p.read(rel)); m != nil {
			return string(m[1]), rel
		}
	}
	return "", ""
}

func nodeBuildTool(p *survey, dir string) (string, string) {
	switch {
	case p.has(join(dir, "yarn.lock")):
		return ToolYarn, join(dir, "yarn.lock")
	case p.has(join(dir, "pnpm-lock.yaml")):
		return ToolPnpm, join(dir, "pnpm-lock.yaml")
	case p.has(join(dir, "package-lock.json")):
		return ToolNpm, join(dir, "package-lock.json")
	}
	return ToolNpm, "no lockfile, defaulting to npm"
}

func nodeFrameworks(p *survey, dir string, found map[string]string) {
	rel := join(dir, "package.json")
	pkg, err := parsePackageJSON(p.read(rel))
	if err != nil {
		p.note("package.json unreadable: %v", err)
		return
	}
	for dep := range pkg.allDeps() {
		if fw := nodeFramework(dep); fw != "" {
			if _, seen := found[fw]; !seen {
				found[fw] = rel
			}
		}
	}
}

func nodeFramework(dep string) string {
	switch {
	case dep == "react":
		return "react"
	case dep == "vue" || strings.HasPrefix(dep, "@vue/"):
		return "vue"
	case dep == "@angular/core":
		return "angular"
	case dep == "express":
		return "express"
	case dep == "@nestjs/core":
		return "nestjs"
	case dep == "next":
		return "next"
	}
	return ""
}

func nodeVersion(p *survey, dir string) (string, string) {
	rel := join(dir, "package.json")
	if pkg, err := parsePackageJSON(p.read(rel)); err == nil {
		if m := reMajor.FindString(pkg.Engines["node"]); m != "" {
			return m, rel + " engines.node"
		}
	}
	for _, f := range []string{".nvmrc", ".node-version"} {
		if data := p.read(join(dir, f)); data != nil {
			if m := reMajor.FindString(firstLine(data)); m != "" {
				return m, join(dir, f)
			}
		}
	}
	return "", ""
}

func nodeScripts(p *survey, dir string, info *Info) {
	pkg, err := parsePackageJSON(p.read(join(dir, "package.json")))
	if err != nil {
		return
	}
	info.PackageScripts = pkg.scriptNames()
	for _, lock := range []string{"yarn.lock", "pnpm-lock.yaml", "package-lock.json", "npm-shrinkwrap.json"} {
		if p.has(join(dir, lock)) {
			info.Lockfile = lock
			break
		}
	}
	if strings.TrimSpace(pkg.Scripts["build"]) != "" {
		info.HasBuildScript = true
		p.note("package.json declares a build script")
	}
}

var goFrameworkModules = map[string]string{
	"github.com/gin-gonic/gin": "gin",
	"github.com/labstack/echo": "echo",
	"github.com/gofiber/fiber": "fiber",
	"github.com/go-chi/chi":    "chi",
	"github.com/gorilla/mux":   "gorilla",
}

func goFrameworks(p *survey, dir string, found map[string]string) {
	rel := join(dir, "go.mod")
	mod, err := parseGoMod(rel, p.read(rel))
	if err != nil {
		p.note("go.mod unreadable: %v", err)
		return
	}
	for _, req := range mod.requires {
		if fw := goFramework(req); fw != "" {
			if _, seen := found[fw]; !seen {
				found[fw] = rel
			}
		}
	}
}

// goFramework matches a module path, ignoring a trailing major version.
func goFramework(modPath string) string {
	if fw, ok := goFrameworkModules[modPath]; ok {
		return fw
	}
	if i := strings.LastIndex(modPath, "/v"); i > 0 {
		if _, ok := goFrameworkModules[modPath[:i]]; ok && reMajor.MatchString(modPath[i+2:]) {
			return goFrameworkModules[modPath[:i]]
		}
	}
	return ""
}

func goVersion(p *survey, dir string) (string, string) {
	rel := join(dir, "go.mod")
	mod, err := parseGoMod(rel, p.read(rel))
	if err != nil || mod.goVersion == "" {
		return "", ""
	}
	return reMajorMinor.FindString(mod.goVersion), rel
}

func javaBuildTool(p *survey, dir string) (string, string) {
	switch {
	case p.has(join(dir, "pom.xml")):
		return ToolMaven, join(dir, "pom.xml")
	case p.has(join(dir, "build.gradle")):
		return ToolGradle, join(dir, "build.gradle")
	case p.has(join(dir, "build.gradle.kts")):
		return ToolGradle, join(dir, "build.gradle.kts")
	}
	return "", ""
}

func javaWrapper(p *survey, dir, tool string) string {
	switch {
	case tool == ToolMaven && p.has(join(dir, "mvnw")):
		return "./mvnw"
	case tool == ToolGradle && p.has(join(dir, "gradlew")):
		return "./gradlew"
	}
	return ""
}

func javaFrameworks(p *survey, dir string, found map[string]string) {
	rel := join(dir, "pom.xml")
	if data := p.read(rel); data != nil {
		pom, err := parsePOM(data)
		if err != nil {
			p.note("pom.xml unreadable: %v", err)
		} else {
			for _, fw := range pom.frameworks() {
				if _, seen := found[fw]; !seen {
					found[fw] = rel
				}
			}
		}
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		rel := join(dir, name)
		data := p.read(rel)
		if data == nil {
			continue
		}
		if _, seen := found["spring"]; !seen && reGradleSpring.Match(data) {
			found["spring"] = rel
		}
		if _, seen := found["ktor"]; !seen && reGradleKtor.Match(data) {
			found["ktor"] = rel
		}
	}
}

func javaVersion(p *survey, dir string) (string, string) {
	rel := join(dir, "pom.xml")
	if data := p.read(rel); data != nil {
		if pom, err := parsePOM(data); err == nil {
			if v := pom.javaVersion(); v != "" {
				return normalizeJavaVersion(v), rel
			}
		}
	}
	for _, name := range []string{"build.gradle", "build.gradle.kts"} {
		rel := join(dir, name)
		if m := reGradleJava.FindSubmatch(p.read(rel)); m != nil {
			v := string(m[1])
			if v == "" {
				v = string(m[2])
			}
			return normalizeJavaVersion(strings.ReplaceAll(v, "_", ".")), rel
		}
	}
	return "", ""
}

// normalizeJavaVersion maps legacy "1.8" style versions to "8".
func normalizeJavaVersion(v string) string {
	v = strings.TrimSpace(v)
	if rest, ok := strings.CutPrefix(v, "1."); ok {
		v = rest
	}
	return reMajor.FindString(v)
}

func firstLine(data []byte) string {
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		return string(data[:i])
	}
	return string(data)
}
