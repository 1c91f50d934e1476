package search

import (
	"os"
	"strings"

	"github.com/pityka/tilth/internal/decl"
	"github.com/pityka/tilth/internal/identscan"
	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
	"github.com/pityka/tilth/internal/rank"
)

// Symbol performs symbol-mode search: walks scope collecting definition
// nodes whose name contains query and usage lines referencing it, ranks the
// combined candidate set, and truncates to MaxMatches.
func Symbol(query, scope, contextPath string) Result {
	queryLower := strings.ToLower(query)

	var matches []Match

	definitions, usages := 0, 0

	walkFiles(scope, func(path string, d os.DirEntry) {
		info, err := d.Info()
		if err != nil || info.Size() > maxSearchFileSize {
			return
		}

		lang := langtag.Detect(path, nil)
		if !lang.IsCode() || decl.ForLang(lang) == nil {
			return
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return
		}

		estLines := int(info.Size() / 40)
		if estLines < 1 {
			estLines = 1
		}

		defLines := make(map[int]struct{})

		for _, def := range outline.ExtractDefinitions(lang, content) {
			if !strings.Contains(strings.ToLower(def.Name), queryLower) {
				continue
			}

			defLines[def.Line] = struct{}{}

			m := Match{
				Path:         path,
				Line:         def.Line,
				Text:         def.Name,
				IsDefinition: true,
				Exact:        def.Name == query,
				DefWeight:    def.Kind.Weight(),
				Kind:         def.Kind,
				FileLines:    estLines,
				MTime:        info.ModTime(),
			}

			if def.EndLine > 0 {
				m.DefRange = [2]int{def.Line, def.EndLine}
			}

			if def.Kind == decl.KindImpl && def.ImplTarget != "" {
				m.ImplTarget = def.ImplTarget
			}

			matches = append(matches, m)
			definitions++
		}

		lines := strings.Split(string(content), "\n")

		for i, line := range lines {
			if _, isDef := defLines[i+1]; isDef {
				continue
			}

			if !lineReferencesQuery(line, queryLower) {
				continue
			}

			matches = append(matches, Match{
				Path:      path,
				Line:      i + 1,
				Text:      strings.TrimSpace(line),
				Exact:     false,
				FileLines: estLines,
				MTime:     info.ModTime(),
			})
			usages++
		}
	})

	exists := func(dir string) bool {
		_, err := os.Stat(dir)
		return err == nil
	}

	rank.Sort(matches, query, scope, contextPath, exists)

	total := len(matches)
	if len(matches) > MaxMatches {
		matches = matches[:MaxMatches]
	}

	return Result{
		Query: query, Scope: scope, Matches: matches,
		TotalFound: total, Definitions: definitions, Usages: usages,
	}
}

// lineReferencesQuery reports whether any identifier token on line contains
// query as a case-insensitive substring. identscan's comment/string-aware
// tokenizer naturally excludes matches inside comments and string literals,
// giving "identifier-boundary matches ... in non-comment lines" for free.
func lineReferencesQuery(line, queryLower string) bool {
	found := false

	identscan.Scan([]byte(line), func(ident []byte) {
		if found {
			return
		}

		if strings.Contains(strings.ToLower(string(ident)), queryLower) {
			found = true
		}
	})

	return found
}
