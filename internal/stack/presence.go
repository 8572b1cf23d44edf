package stack

import (
	"bytes"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var testDirNames = map[string]struct{}{
	"test":      {},
	"tests":     {},
	"__tests__": {},
	"spec":      {},
}

var testFilePatterns = []string{
	"**/test_*.py",
	"**/*_test.py",
	"**/*_test.go",
	"**/*.{test,spec}.{js,jsx,ts,tsx,mjs,cjs}",
	"**/*Test.java",
	"**/*Tests.java",
	"**/*Test.kt",
}

// lintConfigFiles maps a config file base name to the lint tool it configures.
var lintConfigFiles = map[string]string{
	".flake8":           "flake8",
	".pylintrc":         "pylint",
	"pylintrc":          "pylint",
	"ruff.toml":         "ruff",
	".ruff.toml":        "ruff",
	".eslintrc":         "eslint",
	".eslintrc.js":      "eslint",
	".eslintrc.cjs":     "eslint",
	".eslintrc.json":    "eslint",
	".eslintrc.yml":     "eslint",
	".eslintrc.yaml":    "eslint",
	"eslint.config.js":  "eslint",
	"eslint.config.mjs": "eslint",
	"eslint.config.cjs": "eslint",
	"eslint.config.ts":  "eslint",
	".golangci.yml":     "golangci-lint",
	".golangci.yaml":    "golangci-lint",
	".golangci.toml":    "golangci-lint",
	".golangci.json":    "golangci-lint",
	"checkstyle.xml":    "checkstyle",
}

var (
	reSetupCfgLint = regexp.MustCompile(`(?m)^\[(flake8|pylint)[\].]`)
	reImageName    = regexp.MustCompile(`[^a-z0-9_.-]+`)
)

var composeFiles = []string{"docker-compose.yml", "docker-compose.yaml", "compose.yml", "compose.yaml"}

var manifestDirs = map[string]struct{}{
	"k8s":        {},
	"kubernetes": {},
	"manifests":  {},
	"deploy":     {},
	"deployment": {},
}

func isDockerfile(base string) bool {
	lower := strings.ToLower(base)
	return lower == "dockerfile" || strings.HasPrefix(lower, "dockerfile.") || strings.HasSuffix(lower, ".dockerfile")
}

func (p *survey) detectDockerfiles(info *Info) {
	used := map[string]int{}
	for _, f := range p.tree.Files() {
		base := path.Base(f)
		if !isDockerfile(base) {
			continue
		}
		dir := path.Dir(f)
		name := dockerImageName(dir, base)
		used[name]++
		if n := used[name]; n > 1 {
			name = name + "-" + strconv.Itoa(n)
		}
		info.Dockerfiles = append(info.Dockerfiles, Dockerfile{Path: f, Context: dir, Name: name})
		p.note("dockerfile: %s (image %s)", f, name)
	}
	info.HasDockerfile = len(info.Dockerfiles) > 0
}

// dockerImageName derives a short image name: the suffix of
// "Dockerfile.<x>" or "<x>.Dockerfile", else the directory name, else "app".
func dockerImageName(dir, base string) string {
	lower := strings.ToLower(base)
	var name string
	switch {
	case strings.HasPrefix(lower, "dockerfile."):
		name = lower[len("dockerfile."):]
	case strings.HasSuffix(lower, ".dockerfile"):
		name = strings.TrimSuffix(lower, ".dockerfile")
	case dir != ".":
		name = path.Base(dir)
	}
	name = strings.Trim(reImageName.ReplaceAllString(strings.ToLower(name), "-"), "-.")
	if name == "" {
		return "app"
	}
	return name
}

func (p *survey) detectTests(info *Info) {
	for _, d := range p.tree.Dirs() {
		if _, ok := testDirNames[path.Base(d)]; ok || d == "src/test" || strings.HasSuffix(d, "/src/test") {
			info.HasTests = true
			p.note("tests: %s/ directory", d)
			return
		}
	}
	if f, ok := p.tree.AnyGlob(testFilePatterns...); ok {
		info.HasTests = true
		p.note("tests: %s", f)
	}
}

// detectLint looks at the repository root and, when different, the project
// directory of the primary language.
func (p *survey) detectLint(info *Info, projectDir string) {
	dirs := []string{"."}
	if projectDir != "" && projectDir != "." {
		dirs = append(dirs, projectDir)
	}
	tools := map[string]struct{}{}
	add := func(rel, tool string) {
		info.LintConfigs = append(info.LintConfigs, rel)
		if _, ok := tools[tool]; !ok {
			tools[tool] = struct{}{}
			info.LintTools = append(info.LintTools, tool)
		}
		p.note("lint config: %s (%s)", rel, tool)
	}
	for _, dir := range dirs {
		for _, f := range p.tree.Files() {
			if path.Dir(f) != dir {
				continue
			}
			base := path.Base(f)
			if tool, ok := lintConfigFiles[base]; ok {
				add(f, tool)
				continue
			}
			switch base {
			case "pyproject.toml":
				if doc, err := parsePyProject(p.read(f)); err == nil {
					if tool := doc.lintTool(); tool != "" {
						add(f, tool)
					}
				}
			case "setup.cfg", "tox.ini":
				if m := reSetupCfgLint.FindSubmatch(p.read(f)); m != nil {
					add(f, string(m[1]))
				}
			case "package.json":
				if pkg, err := parsePackageJSON(p.read(f)); err == nil && len(pkg.EslintConfig) > 0 {
					add(f, "eslint")
				}
			}
		}
	}
	info.HasLintConfig = len(info.LintConfigs) > 0
	sort.Strings(info.LintTools)
}

func (p *survey) detectDeploy(info *Info) {
	seen := map[string]bool{}
	add := func(kind, rel string) {
		if seen[kind] {
			return
		}
		seen[kind] = true
		info.DeployTargets = append(info.DeployTargets, DeployTarget{Kind: kind, Path: rel})
		p.note("deploy: %s (%s)", kind, rel)
	}

	var charts []string
	for _, f := range p.tree.FindBase("Chart.yaml") {
		charts = append(charts, path.Dir(f))
	}
	for _, f := range p.tree.Files() {
		if !isYAML(f) || insideAny(f, charts) || !inManifestDir(f) {
			continue
		}
		if isKubernetesManifest(p.read(f)) {
			add(DeployKubernetes, f)
			break
		}
	}
	if len(charts) > 0 {
		add(DeployHelm, charts[0])
	}
	for _, name := range composeFiles {
		if hits := p.tree.FindBase(name); len(hits) > 0 {
			add(DeployCompose, hits[0])
			break
		}
	}
}

func isYAML(rel string) bool {
	ext := strings.ToLower(path.Ext(rel))
	return ext == ".yaml" || ext == ".yml"
}

func inManifestDir(rel string) bool {
	for _, seg := range strings.Split(path.Dir(rel), "/") {
		if _, ok := manifestDirs[seg]; ok {
			return true
		}
	}
	return false
}

func insideAny(rel string, dirs []string) bool {
	for _, d := range dirs {
		if d == "." || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}

// isKubernetesManifest reports whether any YAML document in data is a
// mapping carrying both apiVersion and kind.
func isKubernetesManifest(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc map[string]any
		if err := dec.Decode(&doc); err != nil {
			return false
		}
		_, hasAPI := doc["apiVersion"]
		_, hasKind := doc["kind"]
		if hasAPI && hasKind {
			return true
		}
	}
}
