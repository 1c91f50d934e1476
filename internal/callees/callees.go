// Package callees implements the transitive callee resolver: given a
// rendered definition, find the functions/methods it calls (first hop) and
// the functions those call (second hop), bounded by a shared edge budget.
// No exact original-implementation source for this component was retrieved
// in the reference pack; it is built from the specification's description,
// grounded on the siblings resolver's tree-sitter usage and the symbol
// index / Bloom cache it's designed to consume.
package callees

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pityka/tilth/internal/bloomcache"
	"github.com/pityka/tilth/internal/decl"
	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
	"github.com/pityka/tilth/internal/rank"
	"github.com/pityka/tilth/internal/skipdirs"
	"github.com/pityka/tilth/internal/symbolindex"
)

// Node is one resolved callee, with its second-hop callees nested below it.
type Node struct {
	Name      string
	Path      string
	StartLine int
	EndLine   int
	Signature string
	Children  []Node
}

const (
	firstHopCap     = 8
	secondHopBudget = 15
	maxDepth        = 2
)

// visited is a (path, line) key set shared across a whole resolution to
// avoid expanding the same definition twice.
type visited map[string]struct{}

func visitKey(path string, line int) string {
	return path + ":" + strconv.Itoa(line)
}

// Resolve extracts call-position identifiers from defContent (the text
// spanning defRange within hostPath), resolves each against idx (or a
// Bloom-gated fallback scan of scope when idx has no entry), and returns the
// first-hop callee tree with second-hop children attached, per the
// spec's depth-2, 8/15-edge budget.
func Resolve(
	defName string,
	defContent []byte,
	lang langtag.Lang,
	hostPath, scope string,
	idx *symbolindex.Index,
	bloom *bloomcache.Cache,
) []Node {
	seen := make(visited)

	names := extractCallNames(defContent)

	candidates := make([]symbolindex.Location, 0, len(names))
	nameByLoc := make(map[string]string)

	for _, name := range names {
		if name == defName {
			continue
		}

		loc, ok := resolveOne(name, hostPath, scope, idx, bloom, lang)
		if !ok {
			continue
		}

		key := visitKey(loc.Path, loc.Line)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		candidates = append(candidates, loc)
		nameByLoc[key] = name
	}

	candidates = capFirstHop(candidates, hostPath)

	remaining := secondHopBudget

	nodes := make([]Node, 0, len(candidates))

	for _, loc := range candidates {
		key := visitKey(loc.Path, loc.Line)
		name := nameByLoc[key]

		node := Node{
			Name: name, Path: loc.Path, StartLine: loc.Line, EndLine: loc.EndLine,
			Signature: readSignature(loc.Path, loc.Line),
		}

		if remaining > 0 {
			children, used := secondHop(name, loc, scope, idx, bloom, seen, remaining)
			node.Children = children
			remaining -= used
		}

		nodes = append(nodes, node)
	}

	return nodes
}

func secondHop(
	parentName string, loc symbolindex.Location, scope string,
	idx *symbolindex.Index, bloom *bloomcache.Cache, seen visited, budget int,
) ([]Node, int) {
	content, err := os.ReadFile(loc.Path)
	if err != nil || loc.EndLine == 0 {
		return nil, 0
	}

	lines := strings.Split(string(content), "\n")
	if loc.Line < 1 || loc.EndLine > len(lines) {
		return nil, 0
	}

	body := []byte(strings.Join(lines[loc.Line-1:loc.EndLine], "\n"))
	lang := langtag.Detect(loc.Path, content)

	used := 0

	var children []Node

	for _, name := range extractCallNames(body) {
		if used >= budget {
			break
		}

		if name == parentName {
			continue
		}

		childLoc, ok := resolveOne(name, loc.Path, scope, idx, bloom, lang)
		if !ok {
			continue
		}

		key := visitKey(childLoc.Path, childLoc.Line)
		if _, dup := seen[key]; dup {
			continue
		}

		seen[key] = struct{}{}
		used++

		children = append(children, Node{
			Name: name, Path: childLoc.Path, StartLine: childLoc.Line, EndLine: childLoc.EndLine,
			Signature: readSignature(childLoc.Path, childLoc.Line),
		})
	}

	return children, used
}

// capFirstHop enforces the 8-callee first hop limit, dropping same-file
// entries first so cross-file callees (the more informative ones) survive.
func capFirstHop(locs []symbolindex.Location, hostPath string) []symbolindex.Location {
	if len(locs) <= firstHopCap {
		return locs
	}

	cross := make([]symbolindex.Location, 0, len(locs))
	same := make([]symbolindex.Location, 0, len(locs))

	for _, l := range locs {
		if l.Path == hostPath {
			same = append(same, l)
		} else {
			cross = append(cross, l)
		}
	}

	out := cross
	if len(out) > firstHopCap {
		return out[:firstHopCap]
	}

	for _, l := range same {
		if len(out) >= firstHopCap {
			break
		}

		out = append(out, l)
	}

	return out
}

// resolveOne finds the best definition for name: via the symbol index when
// it covers scope, else by scanning scope with a Bloom pre-filter so only
// files that might contain the identifier get parsed.
func resolveOne(
	name, hostPath, scope string, idx *symbolindex.Index, bloom *bloomcache.Cache, lang langtag.Lang,
) (symbolindex.Location, bool) {
	var candidates []symbolindex.Location

	if idx != nil && idx.IsBuilt(scope) {
		candidates = idx.LookupDefinitions(name, scope)
	}

	if len(candidates) == 0 {
		candidates = bloomScan(name, scope, bloom, lang)
	}

	if len(candidates) == 0 {
		return symbolindex.Location{}, false
	}

	exists := func(dir string) bool {
		_, err := os.Stat(dir)
		return err == nil
	}

	best := candidates[0]
	bestScore := -1 << 31

	for _, c := range candidates {
		score := c.Kind.Weight()

		switch {
		case c.Path == hostPath:
			score += 200
		case rank.PackageRoot(dirOf(c.Path), exists) != "" &&
			rank.PackageRoot(dirOf(c.Path), exists) == rank.PackageRoot(dirOf(hostPath), exists):
			score += 100
		}

		if score > bestScore {
			bestScore = score
			best = c
		}
	}

	return best, true
}

func dirOf(path string) string {
	idx := strings.LastIndexByte(path, '/')
	if idx < 0 {
		return "."
	}

	return path[:idx]
}

// bloomScan walks scope, skipping files the Bloom cache reports as
// definitely not containing name (or whose language doesn't match lang —
// calls almost always resolve within the same language), and extracts
// definitions from the rest.
func bloomScan(name, scope string, bloom *bloomcache.Cache, lang langtag.Lang) []symbolindex.Location {
	var out []symbolindex.Location

	_ = filepath.WalkDir(scope, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan, skip unreadable entries
		}

		if d.IsDir() {
			if path != scope && skipdirs.Skip(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > 500_000 {
			return nil
		}

		fileLang := langtag.Detect(path, nil)
		if fileLang != lang || decl.ForLang(fileLang) == nil {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}

		if bloom != nil && !bloom.Contains(path, info.ModTime(), content, name) {
			return nil
		}

		for _, def := range outline.ExtractDefinitions(fileLang, content) {
			if def.Name == name {
				out = append(out, symbolindex.Location{
					Path: path, Line: def.Line, EndLine: def.EndLine, IsDefinition: true,
					Kind: def.Kind, MTime: info.ModTime(),
				})
			}
		}

		return nil
	})

	return out
}

func readSignature(path string, line int) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(content), "\n")
	if line < 1 || line > len(lines) {
		return ""
	}

	return strings.TrimSpace(lines[line-1])
}

// extractCallNames scans src for identifiers immediately followed (modulo
// whitespace) by '(', tree-sitter-free per the spec's "simple AST walk"
// allowance, deduplicated in first-occurrence order.
func extractCallNames(src []byte) []string {
	var (
		out  []string
		seen = make(map[string]struct{})
	)

	n := len(src)
	i := 0

	for i < n {
		c := src[i]

		switch {
		case c == '"' || c == '\'' || c == '`':
			i = skipString(src, i, c)
		case c == '/' && i+1 < n && src[i+1] == '/':
			for i < n && src[i] != '\n' {
				i++
			}
		case c == '/' && i+1 < n && src[i+1] == '*':
			i += 2
			for i+1 < n && !(src[i] == '*' && src[i+1] == '/') {
				i++
			}

			i += 2
		case isIdentStart(c):
			start := i
			i++

			for i < n && isIdentCont(src[i]) {
				i++
			}

			name := string(src[start:i])

			j := i
			for j < n && (src[j] == ' ' || src[j] == '\t') {
				j++
			}

			if j < n && src[j] == '(' {
				if _, dup := seen[name]; !dup {
					seen[name] = struct{}{}
					out = append(out, name)
				}
			}
		default:
			i++
		}
	}

	return out
}

func skipString(src []byte, i int, quote byte) int {
	n := len(src)
	i++

	for i < n {
		if src[i] == '\\' && i+1 < n {
			i += 2

			continue
		}

		if src[i] == quote {
			return i + 1
		}

		i++
	}

	return i
}

func isIdentStart(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func isIdentCont(b byte) bool {
	return isIdentStart(b) || (b >= '0' && b <= '9')
}
