package stack

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"golang.org/x/mod/modfile"
)

var errMissing = errors.New("file missing or unreadable")

type packageJSON struct {
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
	Engines         map[string]string `json:"engines"`
	EslintConfig    json.RawMessage   `json:"eslintConfig"`
}

func parsePackageJSON(data []byte) (*packageJSON, error) {
	if data == nil {
		return nil, errMissing
	}
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parse package.json: %w", err)
	}
	return &pkg, nil
}

func (p *packageJSON) allDeps() map[string]struct{} {
	out := make(map[string]struct{}, len(p.Dependencies)+len(p.DevDependencies))
	for k := range p.Dependencies {
		out[k] = struct{}{}
	}
	for k := range p.DevDependencies {
		out[k] = struct{}{}
	}
	return out
}

func (p *packageJSON) scriptNames() []string {
	var out []string
	for k, v := range p.Scripts {
		if strings.TrimSpace(v) != "" {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

type goModule struct {
	goVersion string
	requires  []string
}

func parseGoMod(rel string, data []byte) (*goModule, error) {
	if data == nil {
		return nil, errMissing
	}
	f, err := modfile.ParseLax(rel, data, nil)
	if err != nil {
		return nil, err
	}
	mod := &goModule{}
	if f.Go != nil {
		mod.goVersion = f.Go.Version
	}
	for _, r := range f.Require {
		mod.requires = append(mod.requires, r.Mod.Path)
	}
	return mod, nil
}

type pomProject struct {
	Parent struct {
		GroupID    string `xml:"groupId"`
		ArtifactID string `xml:"artifactId"`
	} `xml:"parent"`
	Properties struct {
		Entries []pomProperty `xml:",any"`
	} `xml:"properties"`
	Dependencies []pomDependency `xml:"dependencies>dependency"`
	Plugins      []pomDependency `xml:"build>plugins>plugin"`
}

type pomProperty struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

type pomDependency struct {
	GroupID    string `xml:"groupId"`
	ArtifactID string `xml:"artifactId"`
}

func parsePOM(data []byte) (*pomProject, error) {
	var pom pomProject
	if err := xml.Unmarshal(data, &pom); err != nil {
		return nil, fmt.Errorf("parse pom.xml: %w", err)
	}
	return &pom, nil
}

func (p *pomProject) property(name string) string {
	for _, e := range p.Properties.Entries {
		if e.XMLName.Local == name {
			return strings.TrimSpace(e.Value)
		}
	}
	return ""
}

func (p *pomProject) javaVersion() string {
	for _, key := range []string{"maven.compiler.release", "maven.compiler.source", "java.version"} {
		if v := p.property(key); v != "" && !strings.HasPrefix(v, "${") {
			return v
		}
	}
	return ""
}

func (p *pomProject) frameworks() []string {
	var spring, ktor bool
	deps := append([]pomDependency{{GroupID: p.Parent.GroupID, ArtifactID: p.Parent.ArtifactID}}, p.Dependencies...)
	for _, d := range deps {
		g := strings.TrimSpace(d.GroupID)
		a := strings.TrimSpace(d.ArtifactID)
		if strings.HasPrefix(g, "org.springframework") || strings.HasPrefix(a, "spring-boot-starter") {
			spring = true
		}
		if strings.HasPrefix(g, "io.ktor") {
			ktor = true
		}
	}
	var out []string
	if ktor {
		out = append(out, "ktor")
	}
	if spring {
		out = append(out, "spring")
	}
	return out
}

// parseRequirements extracts lower-cased distribution names from a pip
// requirements file. Options, includes and URLs are skipped.
func parseRequirements(data []byte) map[string]struct{} {
	out := map[string]struct{}{}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := sc.Text()
		if i := strings.Index(line, "#"); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-") || strings.Contains(line, "://") {
			continue
		}
		addDist(out, requirementName(line))
	}
	return out
}

// requirementName returns the distribution name of a PEP 508 requirement
// such as "uvicorn[standard]>=0.29; python_version>'3.8'".
func requirementName(req string) string {
	req = strings.TrimSpace(req)
	if end := strings.IndexAny(req, "<>=!~;[ @("); end >= 0 {
		req = req[:end]
	}
	return normalizeDist(req)
}

type pyProject struct {
	Project struct {
		RequiresPython       string              `toml:"requires-python"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies    map[string]any `toml:"dependencies"`
			DevDependencies map[string]any `toml:"dev-dependencies"`
			Group           map[string]struct {
				Dependencies map[string]any `toml:"dependencies"`
			} `toml:"group"`
		} `toml:"poetry"`
	} `toml:"tool"`

	meta toml.MetaData
}

func parsePyProject(data []byte) (*pyProject, error) {
	if data == nil {
		return nil, errMissing
	}
	var doc pyProject
	md, err := toml.Decode(string(data), &doc)
	if err != nil {
		return nil, fmt.Errorf("parse pyproject.toml: %w", err)
	}
	doc.meta = md
	return &doc, nil
}

// deps collects PEP 621 and Poetry dependency names, optional and group
// dependencies included.
func (p *pyProject) deps() map[string]struct{} {
	out := map[string]struct{}{}
	for _, req := range p.Project.Dependencies {
		addDist(out, requirementName(req))
	}
	for _, reqs := range p.Project.OptionalDependencies {
		for _, req := range reqs {
			addDist(out, requirementName(req))
		}
	}
	poetry := p.Tool.Poetry
	tables := []map[string]any{poetry.Dependencies, poetry.DevDependencies}
	for _, g := range poetry.Group {
		tables = append(tables, g.Dependencies)
	}
	for _, t := range tables {
		for name := range t {
			if name != "python" {
				addDist(out, normalizeDist(name))
			}
		}
	}
	return out
}

func (p *pyProject) usesPoetry() bool {
	return p.meta.IsDefined("tool", "poetry")
}

// pythonConstraint is requires-python, or Poetry's python dependency.
func (p *pyProject) pythonConstraint() string {
	if v := strings.TrimSpace(p.Project.RequiresPython); v != "" {
		return v
	}
	if v, ok := p.Tool.Poetry.Dependencies["python"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// lintTool names the first linter configured under [tool.*].
func (p *pyProject) lintTool() string {
	for _, tool := range []string{"ruff", "flake8", "pylint"} {
		if p.meta.IsDefined("tool", tool) {
			return tool
		}
	}
	return ""
}

type pipfile struct {
	Packages    map[string]any `toml:"packages"`
	DevPackages map[string]any `toml:"dev-packages"`
	Requires    struct {
		PythonVersion string `toml:"python_version"`
	} `toml:"requires"`
}

func parsePipfile(data []byte) (*pipfile, error) {
	if data == nil {
		return nil, errMissing
	}
	var doc pipfile
	if _, err := toml.Decode(string(data), &doc); err != nil {
		return nil, fmt.Errorf("parse Pipfile: %w", err)
	}
	return &doc, nil
}

func (p *pipfile) deps() map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range []map[string]any{p.Packages, p.DevPackages} {
		for name := range t {
			addDist(out, normalizeDist(name))
		}
	}
	return out
}

// parseSetupPy reads the quoted requirements of an install_requires list.
// Other strings in setup.py are ignored.
func parseSetupPy(data []byte) map[string]struct{} {
	out := map[string]struct{}{}
	for _, block := range reInstallRequires.FindAllSubmatch(data, -1) {
		for _, m := range reQuoted.FindAllSubmatch(block[1], -1) {
			addDist(out, requirementName(string(m[1])))
		}
	}
	return out
}

func addDist(set map[string]struct{}, name string) {
	if name != "" {
		set[name] = struct{}{}
	}
}

func normalizeDist(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.ReplaceAll(name, "_", "-")
}
