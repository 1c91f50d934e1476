// Package rank implements tilth's deterministic multi-factor match scoring,
// ported from the original search/rank.rs scoring function.
package rank

import (
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// vendorDirs are path components that incur the vendor penalty.
var vendorDirs = map[string]struct{}{
	"node_modules": {}, "vendor": {}, "dist": {}, "build": {}, ".git": {},
	"target": {}, "__pycache__": {}, ".venv": {}, "venv": {}, "pkg": {}, "out": {},
}

// manifests mark a package root when present in a directory.
var manifests = []string{
	"Cargo.toml", "package.json", "pyproject.toml", "setup.py", "go.mod",
	"pom.xml", "build.gradle",
}

// Scored is the subset of Match fields the ranking function needs. Callers
// adapt their own Match type to this interface (or embed it) rather than
// this package depending on a concrete Match type from another package.
type Scored interface {
	RankPath() string
	RankLine() int
	RankIsDefinition() bool
	RankDefWeight() int
	RankExact() bool
	RankFileLines() int
	RankMTime() time.Time
}

// DirExists abstracts filesystem access for package-root discovery so this
// package stays testable without touching disk in every test.
type DirExists func(dir string) bool

// Score computes a match's ranking score. scope is the search scope root;
// contextPath is the optional caller-supplied context file (empty if none).
func Score[M Scored](m M, query, scope, contextPath string, exists DirExists) int {
	score := 0

	if m.RankIsDefinition() {
		score += m.RankDefWeight() * 10
	}

	if m.RankExact() {
		score += 500
	}

	score += scopeProximity(m.RankPath(), scope)
	score += recency(m.RankMTime())

	if lines := m.RankFileLines(); lines > 0 && lines < 200 {
		score += 50
	}

	if contextPath != "" {
		score += contextProximity(m.RankPath(), contextPath, exists)
	}

	score += basenameBoost(m.RankPath(), query)

	if isVendorPath(m.RankPath()) {
		score -= 200
	}

	return score
}

// Sort orders matches by descending score, tie-breaking on (path, line)
// ascending. The sort is stable and deterministic for identical inputs.
func Sort[M Scored](matches []M, query, scope, contextPath string, exists DirExists) {
	scores := make([]int, len(matches))
	for i, m := range matches {
		scores[i] = Score(m, query, scope, contextPath, exists)
	}

	idx := make([]int, len(matches))
	for i := range idx {
		idx[i] = i
	}

	sort.SliceStable(idx, func(i, j int) bool {
		a, b := idx[i], idx[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}

		pa, pb := matches[a].RankPath(), matches[b].RankPath()
		if pa != pb {
			return pa < pb
		}

		return matches[a].RankLine() < matches[b].RankLine()
	})

	out := make([]M, len(matches))
	for i, j := range idx {
		out[i] = matches[j]
	}

	copy(matches, out)
}

func basenameBoost(path, query string) int {
	if query == "" {
		return 0
	}

	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stemLower := strings.ToLower(stem)
	queryLower := strings.ToLower(query)

	switch {
	case stemLower == queryLower:
		return 300
	case strings.HasPrefix(stemLower, queryLower) && len(stemLower) > len(queryLower) &&
		(stemLower[len(queryLower)] == '_' || stemLower[len(queryLower)] == '.'):
		return 150
	case strings.Contains(stemLower, queryLower):
		return 100
	default:
		return 0
	}
}

func scopeProximity(path, scope string) int {
	rel, err := filepath.Rel(scope, path)
	if err != nil {
		rel = path
	}

	depth := len(strings.Split(filepath.ToSlash(rel), "/"))

	score := 200 - depth*20
	if score < 0 {
		return 0
	}

	return score
}

func contextProximity(matchPath, contextPath string, exists DirExists) int {
	ctxDir := filepath.Dir(contextPath)
	if filepath.Dir(matchPath) == ctxDir {
		return 100
	}

	ctxRoot := packageRoot(ctxDir, exists)
	if ctxRoot == "" {
		return 0
	}

	matchRoot := packageRoot(filepath.Dir(matchPath), exists)
	if matchRoot != "" && matchRoot == ctxRoot {
		return 75
	}

	return 0
}

// PackageRoot walks up from dir looking for a manifest file, returning the
// directory it was found in or "" if none exists up to the filesystem root.
// Exported for the faceting pass, which groups usages by package locality
// using the same manifest-root definition as context proximity scoring.
func PackageRoot(dir string, exists DirExists) string {
	return packageRoot(dir, exists)
}

func packageRoot(dir string, exists DirExists) string {
	if exists == nil {
		return ""
	}

	for {
		for _, manifest := range manifests {
			if exists(filepath.Join(dir, manifest)) {
				return dir
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}

		dir = parent
	}
}

func isVendorPath(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if _, ok := vendorDirs[part]; ok {
			return true
		}
	}

	return false
}

// Recency buckets, in seconds.
const (
	hourSeconds  = 3600
	daySeconds   = 86400
	weekSeconds  = 604800
	monthSeconds = 2_592_000
)

func recency(mtime time.Time) int {
	if mtime.IsZero() {
		return 0
	}

	age := time.Since(mtime)

	switch {
	case age <= hourSeconds*time.Second:
		return 100
	case age <= daySeconds*time.Second:
		return 80
	case age <= weekSeconds*time.Second:
		return 50
	case age <= monthSeconds*time.Second:
		return 20
	default:
		return 0
	}
}
