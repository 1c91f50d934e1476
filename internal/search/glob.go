package search

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// FileEntry is one glob match: its path and a one-line content preview.
type FileEntry struct {
	Path    string
	Preview string
}

// GlobResult is the tilth_files response payload.
type GlobResult struct {
	Pattern             string
	Scope               string
	Files               []FileEntry
	TotalFound          int
	AvailableExtensions []string
}

// previewMaxLen caps a glob match's inline content preview.
const previewMaxLen = 80

// Glob matches pattern (a doublestar glob, supporting ** recursive
// segments) against every file under scope, tried against both the
// scope-relative path and the bare basename so `*.go` and `internal/**/*.go`
// both behave as expected. When nothing matches, it reports the distinct
// extensions seen in scope as a hint.
func Glob(pattern, scope string) GlobResult {
	var files []FileEntry

	extSet := make(map[string]struct{})

	walkFiles(scope, func(path string, d fs.DirEntry) {
		rel, err := filepath.Rel(scope, path)
		if err != nil {
			rel = path
		}

		rel = filepath.ToSlash(rel)
		base := filepath.Base(path)

		matched, _ := doublestar.Match(pattern, rel)
		if !matched {
			matched, _ = doublestar.Match(pattern, base)
		}

		if matched {
			files = append(files, FileEntry{Path: path, Preview: previewLine(path)})

			return
		}

		if ext := filepath.Ext(base); ext != "" {
			extSet[ext] = struct{}{}
		}
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	total := len(files)
	if len(files) > MaxMatches {
		files = files[:MaxMatches]
	}

	var exts []string
	for e := range extSet {
		exts = append(exts, e)
	}

	sort.Strings(exts)

	return GlobResult{
		Pattern: pattern, Scope: scope, Files: files,
		TotalFound: total, AvailableExtensions: exts,
	}
}

// previewLine returns the first non-blank line of path, trimmed and
// truncated, or "" if the file can't be read or has no such line.
func previewLine(path string) string {
	content, err := os.ReadFile(path)
	if err != nil {
		return ""
	}

	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if len(trimmed) > previewMaxLen {
			trimmed = trimmed[:previewMaxLen] + "…"
		}

		return trimmed
	}

	return ""
}

// FormatGlobResult renders a glob search result: header, per-file lines with
// previews, an omitted-count footer, and an available-extensions hint on a
// zero-match result.
func FormatGlobResult(result GlobResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Glob: %q in %s — %d files", result.Pattern, result.Scope, result.TotalFound)

	for _, f := range result.Files {
		fmt.Fprintf(&b, "\n  %s", f.Path)

		if f.Preview != "" {
			fmt.Fprintf(&b, "  (%s)", f.Preview)
		}
	}

	if result.TotalFound > len(result.Files) {
		fmt.Fprintf(&b, "\n\n... and %d more files. Narrow with scope.", result.TotalFound-len(result.Files))
	}

	if len(result.Files) == 0 && len(result.AvailableExtensions) > 0 {
		fmt.Fprintf(&b, "\n\nNo matches. Available extensions in scope: %s", strings.Join(result.AvailableExtensions, ", "))
	}

	return b.String()
}
