// Package dirmap implements tilth_map: a depth-bounded recursive directory
// tree annotated with a one-line declaration summary per source file. Named
// in the tool table (spec.md §6) but left unspecified beyond "recursive
// directory map with outline summaries"; grounded on the same walk/skip-dir
// conventions internal/search uses, plus the outline engine for per-file
// summaries.
package dirmap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
	"github.com/pityka/tilth/internal/outlinecache"
	"github.com/pityka/tilth/internal/skipdirs"
)

// DefaultDepth is tilth_map's default recursion depth when the caller omits
// one.
const DefaultDepth = 3

// summaryEntryCount bounds how many top-level declaration names appear in a
// file's one-line summary.
const summaryEntryCount = 3

// Request is one tilth_map call's parameters.
type Request struct {
	Scope  string
	Depth  int
	Budget int // token budget; 0 means unbounded
}

// node is one directory-tree entry, a directory with children or a leaf
// file with an optional summary.
type node struct {
	name     string
	isDir    bool
	children []node
	summary  string
}

// Build renders req's directory tree, depth-first, alphabetically within
// each directory, stopping once Budget tokens have been emitted (when
// Budget > 0).
func Build(req Request, cache *outlinecache.Cache) string {
	depth := req.Depth
	if depth <= 0 {
		depth = DefaultDepth
	}

	root := scan(req.Scope, depth, cache)

	var b strings.Builder

	fmt.Fprintf(&b, "# %s", req.Scope)

	budget := req.Budget
	truncated := render(&b, root, "", budget)

	if truncated {
		b.WriteString("\n\n... truncated. Narrow scope or raise budget.")
	}

	return b.String()
}

func scan(dir string, depthLeft int, cache *outlinecache.Cache) node {
	n := node{name: filepath.Base(dir), isDir: true}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return n
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())

		if e.IsDir() {
			if skipdirs.Skip(e.Name()) {
				continue
			}

			if depthLeft <= 1 {
				n.children = append(n.children, node{name: e.Name(), isDir: true})

				continue
			}

			n.children = append(n.children, scan(path, depthLeft-1, cache))

			continue
		}

		n.children = append(n.children, node{name: e.Name(), summary: fileSummary(path, cache)})
	}

	return n
}

func fileSummary(path string, cache *outlinecache.Cache) string {
	info, err := os.Stat(path)
	if err != nil {
		return ""
	}

	lang := langtag.Detect(path, nil)
	if !lang.IsCode() {
		return ""
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	entries, _, ok := outline.BuildEntries(lang, content)
	if !ok || len(entries) == 0 {
		return ""
	}

	names := make([]string, 0, summaryEntryCount)

	for _, e := range entries {
		if e.Name == "" {
			continue
		}

		names = append(names, e.Name)

		if len(names) == summaryEntryCount {
			break
		}
	}

	if len(names) == 0 {
		return ""
	}

	suffix := ""
	if len(entries) > len(names) {
		suffix = fmt.Sprintf(", +%d more", len(entries)-len(names))
	}

	_ = info

	return strings.Join(names, ", ") + suffix
}

// render writes n's children as tree-drawn lines under prefix, returning
// true if budget ran out before the whole tree was emitted.
func render(b *strings.Builder, n node, prefix string, budget int) bool {
	for i, child := range n.children {
		last := i == len(n.children)-1

		connector := "├── "
		nextPrefix := prefix + "│   "

		if last {
			connector = "└── "
			nextPrefix = prefix + "    "
		}

		line := "\n" + prefix + connector + child.name
		if child.isDir {
			line += "/"
		} else if child.summary != "" {
			line += "  — " + child.summary
		}

		if budget > 0 && langtag.EstimateTokens(b.Len()+len(line)) > budget {
			return true
		}

		b.WriteString(line)

		if child.isDir && len(child.children) > 0 {
			if render(b, child, nextPrefix, budget) {
				return true
			}
		}
	}

	return false
}
