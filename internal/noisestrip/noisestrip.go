// Package noisestrip removes logging noise, redundant comments, and
// consecutive blank lines from expanded function bodies, ported line-for-
// line from the original content's strip-noise rules. Detection is pure
// line-prefix text matching; no AST is needed.
package noisestrip

import (
	"path/filepath"
	"strings"
)

type lang int

const (
	langUnsupported lang = iota
	langRust
	langPython
	langGo
	langJsTs
	langJavaKotlinCSharp
	langCppC
)

func detectLang(path string) lang {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "rs":
		return langRust
	case "py", "pyi":
		return langPython
	case "go":
		return langGo
	case "js", "jsx", "ts", "tsx", "mjs", "cjs":
		return langJsTs
	case "java", "kt", "kts", "cs", "scala", "sc":
		return langJavaKotlinCSharp
	case "c", "h", "cpp", "hpp", "cc", "cxx":
		return langCppC
	default:
		return langUnsupported
	}
}

// keepMarkers are annotations that protect a comment from being stripped.
var keepMarkers = []string{"TODO", "FIXME", "NOTE", "HACK", "SAFETY", "WARN"}

// Skip returns the set of 1-based line numbers to omit when rendering
// lines[rangeStart-1 : rangeEnd] (inclusive, 1-based). Returns an empty set
// if path's extension maps to an unsupported language.
func Skip(lines []string, path string, rangeStart, rangeEnd int) map[int]struct{} {
	skip := make(map[int]struct{})

	l := detectLang(path)
	if l == langUnsupported {
		return skip
	}

	consecutiveBlanks := 0

	for lineNum := rangeStart; lineNum <= rangeEnd; lineNum++ {
		idx := lineNum - 1
		if idx < 0 || idx >= len(lines) {
			break
		}

		trimmed := strings.TrimSpace(lines[idx])

		if trimmed == "" {
			consecutiveBlanks++
			if consecutiveBlanks >= 2 {
				skip[lineNum] = struct{}{}
			}

			continue
		}

		consecutiveBlanks = 0

		if isDebugLog(trimmed, l) {
			skip[lineNum] = struct{}{}

			continue
		}

		if isStrippableComment(trimmed, l) {
			skip[lineNum] = struct{}{}
		}
	}

	return skip
}

// isDebugLog reports whether trimmed is a single-line debug/trace logging
// statement. Only matches lines that are *only* a log call.
func isDebugLog(trimmed string, l lang) bool {
	switch l {
	case langRust:
		return hasAnyPrefix(trimmed,
			"log::debug!", "log::trace!", "tracing::debug!", "tracing::trace!",
			"debug!(", "trace!(", "dbg!(")
	case langPython:
		return hasAnyPrefix(trimmed,
			"logger.debug(", "logging.debug(", "print(", "pprint(", "pprint.pprint(")
	case langGo:
		return hasAnyPrefix(trimmed,
			"log.Printf(", "log.Println(", "log.Print(",
			"fmt.Printf(", "fmt.Println(", "fmt.Print(")
	case langJsTs:
		return hasAnyPrefix(trimmed, "console.log(", "console.debug(", "console.trace(")
	case langJavaKotlinCSharp:
		return hasAnyPrefix(trimmed,
			"System.out.print", "logger.debug(", "log.debug(", "Log.d(", "println(")
	case langCppC:
		return hasAnyPrefix(trimmed, "printf(", "std::cout", "cout ", "cout<<")
	default:
		return false
	}
}

// isStrippableComment reports whether trimmed is a plain comment line that
// should be stripped, preserving doc comments and keep-marker comments.
func isStrippableComment(trimmed string, l lang) bool {
	var isComment bool

	switch l {
	case langRust:
		if hasAnyPrefix(trimmed, "///", "//!", "/**", "#[doc") {
			return false
		}

		isComment = strings.HasPrefix(trimmed, "//")

	case langPython:
		if hasAnyPrefix(trimmed, `"""`, "'''") {
			return false
		}

		isComment = strings.HasPrefix(trimmed, "#")

	case langGo:
		isComment = strings.HasPrefix(trimmed, "//")

	case langJsTs:
		if hasAnyPrefix(trimmed, "/**", "* ") || trimmed == "*/" {
			return false
		}

		isComment = strings.HasPrefix(trimmed, "//")

	case langJavaKotlinCSharp:
		if hasAnyPrefix(trimmed, "/**", "///") {
			return false
		}

		isComment = strings.HasPrefix(trimmed, "//")

	case langCppC:
		if hasAnyPrefix(trimmed, "/**", "///", "//!") {
			return false
		}

		isComment = strings.HasPrefix(trimmed, "//")
	}

	if !isComment {
		return false
	}

	upper := strings.ToUpper(trimmed)
	for _, marker := range keepMarkers {
		if strings.Contains(upper, marker) {
			return false
		}
	}

	return true
}

func hasAnyPrefix(s string, prefixes ...string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}

	return false
}
