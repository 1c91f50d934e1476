// Package symbolindex maintains a materialized name -> locations map built
// by walking a directory tree and extracting definitions from every
// supported code file, so symbol lookups are O(1) hash lookups plus a
// scope filter instead of a fresh AST walk per query.
package symbolindex

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/pityka/tilth/internal/decl"
	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
	"github.com/pityka/tilth/internal/skipdirs"
)

// maxIndexFileSize matches the 500 KB cap search applies to indexed files.
const maxIndexFileSize = 500_000

// Location is a single place a symbol was found.
type Location struct {
	Path         string
	Line         int
	EndLine      int
	IsDefinition bool
	Kind         decl.Kind
	ImplTarget   string
	MTime        time.Time
}

// Index is a concurrent symbol_name -> []Location map, plus a record of
// which files have been indexed and at what mtime.
type Index struct {
	mu      sync.RWMutex
	symbols map[string][]Location
	files   map[string]time.Time
}

// New returns an empty symbol index.
func New() *Index {
	return &Index{
		symbols: make(map[string][]Location),
		files:   make(map[string]time.Time),
	}
}

// Build walks scope (skipping junk directories) and indexes every code file
// under maxIndexFileSize with a supported grammar, in parallel across
// min(NumCPU, 8) workers.
func (idx *Index) Build(scope string) error {
	paths := idx.discover(scope)

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}

	if workers < 1 {
		workers = 1
	}

	jobs := make(chan string, len(paths))
	type result struct {
		path  string
		mtime time.Time
		defs  []outline.Definition
	}
	results := make(chan result, len(paths))

	var wg sync.WaitGroup

	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()

			for path := range jobs {
				content, mtime, ok := readFile(path)
				if !ok {
					continue
				}

				lang := langtag.Detect(path, content)
				defs := outline.ExtractDefinitions(lang, content)
				results <- result{path: path, mtime: mtime, defs: defs}
			}
		}()
	}

	for _, p := range paths {
		jobs <- p
	}

	close(jobs)
	wg.Wait()
	close(results)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	for r := range results {
		idx.files[r.path] = r.mtime

		for _, d := range r.defs {
			loc := Location{
				Path: r.path, Line: d.Line, EndLine: d.EndLine, IsDefinition: true,
				Kind: d.Kind, ImplTarget: d.ImplTarget, MTime: r.mtime,
			}
			idx.symbols[d.Name] = append(idx.symbols[d.Name], loc)
		}
	}

	return nil
}

// discover collects candidate code file paths under scope.
func (idx *Index) discover(scope string) []string {
	var paths []string

	_ = filepath.WalkDir(scope, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort walk, skip unreadable entries
		}

		if d.IsDir() {
			if path != scope && skipdirs.Skip(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		lang := langtag.Detect(path, nil)
		if !lang.IsCode() || decl.ForLang(lang) == nil {
			return nil
		}

		info, err := d.Info()
		if err != nil || info.Size() > maxIndexFileSize {
			return nil
		}

		paths = append(paths, path)

		return nil
	})

	return paths
}

func readFile(path string) ([]byte, time.Time, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, false
	}

	return content, info.ModTime(), true
}

// IsBuilt reports whether any indexed file falls under scope.
func (idx *Index) IsBuilt(scope string) bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for path := range idx.files {
		if isUnder(path, scope) {
			return true
		}
	}

	return false
}

// Lookup returns every location of name within scope.
func (idx *Index) Lookup(name, scope string) []Location {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []Location

	for _, loc := range idx.symbols[name] {
		if isUnder(loc.Path, scope) {
			out = append(out, loc)
		}
	}

	return out
}

// LookupDefinitions is Lookup filtered to definitions only.
func (idx *Index) LookupDefinitions(name, scope string) []Location {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []Location

	for _, loc := range idx.symbols[name] {
		if loc.IsDefinition && isUnder(loc.Path, scope) {
			out = append(out, loc)
		}
	}

	return out
}

// IndexFile re-extracts path's definitions, first removing any entries
// already recorded for it. Used for incremental updates after tilth_edit
// rewrites a file.
func (idx *Index) IndexFile(path string, content []byte) {
	mtime := time.Now()
	if info, err := os.Stat(path); err == nil {
		mtime = info.ModTime()
	}

	lang := langtag.Detect(path, content)
	defs := outline.ExtractDefinitions(lang, content)

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if _, known := idx.files[path]; known {
		for name, locs := range idx.symbols {
			filtered := locs[:0]

			for _, loc := range locs {
				if loc.Path != path {
					filtered = append(filtered, loc)
				}
			}

			idx.symbols[name] = filtered
		}
	}

	idx.files[path] = mtime

	for _, d := range defs {
		loc := Location{
			Path: path, Line: d.Line, EndLine: d.EndLine, IsDefinition: true,
			Kind: d.Kind, ImplTarget: d.ImplTarget, MTime: mtime,
		}
		idx.symbols[d.Name] = append(idx.symbols[d.Name], loc)
	}
}

// SymbolCount returns the number of distinct symbol names in the index.
func (idx *Index) SymbolCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.symbols)
}

// FileCount returns the number of indexed files.
func (idx *Index) FileCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.files)
}

func isUnder(path, scope string) bool {
	rel, err := filepath.Rel(scope, path)
	if err != nil {
		return false
	}

	return rel == "." || !strings.HasPrefix(rel, "..")
}
