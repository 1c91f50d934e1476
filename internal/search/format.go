package search

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pityka/tilth/internal/bloomcache"
	"github.com/pityka/tilth/internal/expand"
	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
	"github.com/pityka/tilth/internal/outlinecache"
	"github.com/pityka/tilth/internal/respformat"
	"github.com/pityka/tilth/internal/session"
	"github.com/pityka/tilth/internal/symbolindex"
)

// maxOutlineContextSize bounds which files get outline-context rendering in
// a search response, matching the index's cap on parseable file size.
const maxOutlineContextSize = 500_000

// FormatResult renders a symbol/content search result: a header line, then
// for every match a "## path:line [kind]" block with outline context (or a
// bare "→ [line]   text" fallback), and for the first n matches (n = the
// tool call's expand parameter) a full match-expansion block — fenced
// source plus the definition's callees/siblings footer or a usage's
// related-files list, deduplicated against sess and capped to one expansion
// per file by expand.FilterBatch. A nil idx skips the callees footer; a nil
// bloom resolves callees without the Bloom pre-filter; sess may be nil to
// skip cross-call dedup.
func FormatResult(
	result Result, cache *outlinecache.Cache, n int,
	idx *symbolindex.Index, bloom *bloomcache.Cache, sess *session.Session,
) string {
	var b strings.Builder

	b.WriteString(respformat.SearchHeader(result.Query, result.Scope, len(result.Matches), result.Definitions, result.Usages))

	expandReqs := make([]expand.Request, 0, n)

	for i, m := range result.Matches {
		if i >= n {
			break
		}

		expandReqs = append(expandReqs, expand.Request{
			Path: m.Path, Line: m.Line, DefRange: m.DefRange,
			IsDefinition: m.IsDefinition, DefName: m.Text, Kind: m.Kind, Scope: result.Scope,
		})
	}

	eligible := make(map[string]bool, len(expandReqs))
	for _, r := range expand.FilterBatch(expandReqs, sess) {
		eligible[expandKey(r.Path, r.Line)] = true
	}

	for i, m := range result.Matches {
		kind := "usage"
		if m.IsDefinition {
			kind = "definition"
		}

		fmt.Fprintf(&b, "\n\n## %s:%d [%s]", m.Path, m.Line, kind)

		if ctx, ok := outlineContextForMatch(m.Path, m.Line, cache); ok {
			b.WriteString(ctx)
		} else {
			fmt.Fprintf(&b, "\n→ [%d]   %s", m.Line, m.Text)
		}

		if i < n && eligible[expandKey(m.Path, m.Line)] {
			req := expand.Request{
				Path: m.Path, Line: m.Line, DefRange: m.DefRange,
				IsDefinition: m.IsDefinition, DefName: m.Text, Kind: m.Kind, Scope: result.Scope,
			}

			if exp, ok := expand.Expand(req, idx, bloom, sess); ok {
				b.WriteByte('\n')
				b.WriteString(exp.Body)
				b.WriteString(expand.FormatFooter(exp))
			}
		}
	}

	if result.TotalFound > len(result.Matches) {
		fmt.Fprintf(&b, "\n\n... and %d more matches. Narrow with scope.", result.TotalFound-len(result.Matches))
	}

	return b.String()
}

func expandKey(path string, line int) string {
	return path + ":" + strconv.Itoa(line)
}

// outlineContextForMatch renders the match's file outline with the
// bracketing entry marked by →, or ok=false if the file isn't code, is too
// large, or no outline entry brackets the match line.
func outlineContextForMatch(path string, matchLine int, cache *outlinecache.Cache) (string, bool) {
	lang := langtag.Detect(path, nil)
	if !lang.IsCode() {
		return "", false
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() > maxOutlineContextSize {
		return "", false
	}

	outlineStr := cache.GetOrCompute(path, info.ModTime(), func() string {
		content, err := os.ReadFile(path)
		if err != nil {
			return ""
		}

		return outline.Generate(path, lang, content, false)
	})

	lines := strings.Split(strings.TrimRight(outlineStr, "\n"), "\n")
	if len(lines) == 0 || lines[0] == "" {
		return "", false
	}

	var b strings.Builder

	found := false

	for _, line := range lines {
		isMatch := false

		if start, end, ok := extractLineRange(line); ok {
			isMatch = matchLine >= start && matchLine <= end
		}

		if isMatch {
			fmt.Fprintf(&b, "\n→ %s", line)

			found = true
		} else {
			fmt.Fprintf(&b, "\n  %s", line)
		}
	}

	if !found {
		return "", false
	}

	return b.String(), true
}

// extractLineRange parses an outline entry's leading "[N-M]" or "[N]" range.
// An empty end (the collapsed-import form "[1-]") is treated as equal to
// start.
func extractLineRange(line string) (start, end int, ok bool) {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "[") {
		return 0, 0, false
	}

	closeIdx := strings.IndexByte(trimmed, ']')
	if closeIdx < 0 {
		return 0, 0, false
	}

	rangeStr := trimmed[1:closeIdx]

	if a, b, hasDash := strings.Cut(rangeStr, "-"); hasDash {
		startN, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			return 0, 0, false
		}

		b = strings.TrimSpace(b)
		if b == "" {
			return startN, startN, true
		}

		endN, err := strconv.Atoi(b)
		if err != nil {
			return 0, 0, false
		}

		return startN, endN, true
	}

	n, err := strconv.Atoi(strings.TrimSpace(rangeStr))
	if err != nil {
		return 0, 0, false
	}

	return n, n, true
}
