package search

import (
	"os"
	"regexp"
	"strings"

	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/rank"
)

// parsePattern detects the `/pattern/` regex delimiter syntax, returning the
// inner pattern and whether it should be compiled as a regular expression.
func parsePattern(query string) (pattern string, isRegex bool) {
	if len(query) > 2 && strings.HasPrefix(query, "/") && strings.HasSuffix(query, "/") {
		return query[1 : len(query)-1], true
	}

	return query, false
}

// Content performs content/regex-mode search: a line-oriented literal or
// regular-expression match over every code or text file in scope under the
// 500 KB cap. kindRegex forces regex mode even without `/.../` delimiters
// (the tool surface's explicit kind=regex override).
func Content(query, scope, contextPath string, kindRegex bool) Result {
	pattern, isRegex := parsePattern(query)
	isRegex = isRegex || kindRegex

	var matcher func(line string) bool

	if isRegex {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return Result{Query: query, Scope: scope}
		}

		matcher = re.MatchString
	} else {
		patternLower := strings.ToLower(pattern)
		matcher = func(line string) bool {
			return strings.Contains(strings.ToLower(line), patternLower)
		}
	}

	var matches []Match

	walkFiles(scope, func(path string, d os.DirEntry) {
		info, err := d.Info()
		if err != nil || info.Size() > maxSearchFileSize {
			return
		}

		lang := langtag.Detect(path, nil)
		if !searchableText(lang) {
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

		for i, line := range strings.Split(string(content), "\n") {
			if !matcher(line) {
				continue
			}

			matches = append(matches, Match{
				Path:      path,
				Line:      i + 1,
				Text:      strings.TrimSpace(line),
				FileLines: estLines,
				MTime:     info.ModTime(),
			})
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

	return Result{Query: query, Scope: scope, Matches: matches, TotalFound: total, Usages: total}
}

// searchableText reports whether lang is code or plain text worth scanning
// line-by-line; binary and generated files are excluded.
func searchableText(lang langtag.Lang) bool {
	switch lang {
	case langtag.Binary, langtag.Generated, langtag.Unknown:
		return false
	default:
		return true
	}
}
