package stack

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"repo2pipe/internal/scan"
)

// maxManifestBytes caps how much of any single file detection reads.
const maxManifestBytes = 1 << 20

// Detector runs the ordered rule table over a file tree. The zero value is
// ready to use.
type Detector struct {
	// Scan controls which directories are skipped while indexing.
	Scan scan.Options
}

// Detect runs the default detector over fsys.
func Detect(fsys fs.FS) Info {
	var d Detector
	return d.Detect(fsys)
}

// Detect never fails: unreadable or empty trees come back as Unknown with a
// note saying why.
func (d *Detector) Detect(fsys fs.FS) Info {
	if fsys == nil {
		return UnknownInfo("repository tree is not readable")
	}
	tree, err := scan.Index(fsys, d.Scan)
	if err != nil {
		return UnknownInfo(fmt.Sprintf("repository tree is not readable: %v", err))
	}
	if tree.Empty() {
		return UnknownInfo("repository contains no files")
	}

	p := &survey{fsys: fsys, tree: tree, cache: map[string][]byte{}}
	p.note("%s", tree.Summary())

	info := Info{PrimaryLanguage: Unknown, Frameworks: []string{}}
	if rule, dir, marker, ok := p.selectLanguage(); ok {
		p.applyLanguage(&info, rule, dir, marker)
	} else {
		p.note("no recognizable language markers found")
	}

	p.detectDockerfiles(&info)
	p.detectTests(&info)
	p.detectLint(&info, info.ProjectDir)
	p.detectDeploy(&info)

	info.DetectionNotes = p.notes
	return info
}

// survey carries per-detection state: the index, a read cache and the notes.
type survey struct {
	fsys  fs.FS
	tree  *scan.Tree
	cache map[string][]byte
	notes []string
}

func (p *survey) note(format string, args ...any) {
	p.notes = append(p.notes, fmt.Sprintf(format, args...))
}

// read returns the file contents, or nil when the file is missing, unreadable
// or too large.
func (p *survey) read(rel string) []byte {
	if b, ok := p.cache[rel]; ok {
		return b
	}
	var data []byte
	if info, err := fs.Stat(p.fsys, rel); err == nil && !info.IsDir() && info.Size() <= maxManifestBytes {
		if b, err := fs.ReadFile(p.fsys, rel); err == nil {
			data = b
		}
	}
	p.cache[rel] = data
	return data
}

func (p *survey) has(rel string) bool { return p.tree.HasFile(rel) }

func (p *survey) selectLanguage() (languageRule, string, string, bool) {
	for _, rule := range languageRules {
		for _, m := range rule.markers {
			if p.has(m) {
				return rule, ".", m, true
			}
		}
	}

	best := -1
	var (
		bestRule   languageRule
		bestMarker string
	)
	for _, rule := range languageRules {
		for _, m := range rule.markers {
			for _, hit := range p.tree.FindBase(m) {
				depth := scan.Depth(hit)
				if best == -1 || depth < best || (depth == best && rule.rank < bestRule.rank) ||
					(depth == best && rule.rank == bestRule.rank && hit < bestMarker) {
					best, bestRule, bestMarker = depth, rule, hit
				}
			}
		}
	}
	if best == -1 {
		return languageRule{}, "", "", false
	}
	return bestRule, path.Dir(bestMarker), bestMarker, true
}

func (p *survey) applyLanguage(info *Info, rule languageRule, dir, marker string) {
	info.PrimaryLanguage = rule.lang
	info.ProjectDir = dir
	if dir == "." {
		p.note("language: %s (found %s)", rule.lang, marker)
	} else {
		p.note("language: %s (found %s, no markers at the repository root)", rule.lang, marker)
	}
	p.noteCompetingMarkers(rule, dir)

	if tool, why := rule.buildTool(p, dir); tool != "" {
		info.BuildTool = tool
		p.note("build tool: %s (%s)", tool, why)
	}
	if rule.wrapper != nil {
		if w := rule.wrapper(p, dir, info.BuildTool); w != "" {
			info.BuildWrapper = w
			p.note("build wrapper: %s", w)
		}
	}

	found := map[string]string{}
	rule.frameworks(p, dir, found)
	names := make([]string, 0, len(found))
	for name := range found {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p.note("framework: %s (%s)", name, found[name])
	}
	info.Frameworks = names

	if ver, src := rule.version(p, dir); ver != "" {
		info.LanguageVersion = ver
		p.note("language version: %s (%s)", ver, src)
	}
	if rule.extras != nil {
		rule.extras(p, dir, info)
	}
}

// noteCompetingMarkers records markers of lower-priority languages sitting
// next to the winning one. They never contribute frameworks or tools.
func (p *survey) noteCompetingMarkers(winner languageRule, dir string) {
	var ignored []string
	for _, rule := range languageRules {
		if rule.lang == winner.lang {
			continue
		}
		for _, m := range rule.markers {
			if p.has(join(dir, m)) {
				ignored = append(ignored, fmt.Sprintf("%s (%s)", join(dir, m), rule.lang))
			}
		}
	}
	if len(ignored) > 0 {
		p.note("ambiguous markers: %s ignored; %s takes precedence", strings.Join(ignored, ", "), winner.lang)
	}
}

func join(dir, name string) string {
	if dir == "" || dir == "." {
		return name
	}
	return dir + "/" + name
}
