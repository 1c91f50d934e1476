package search

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pityka/tilth/internal/rank"
)

// FacetThreshold is the match count above which faceting applies. Facet
// does not consult it (it buckets whatever it is given), and FormatResult
// neither calls Facet nor checks this value: search responses are rendered
// as one flat ranked list.
const FacetThreshold = 5

// Faceted groups matches into five ordered buckets for presentation when a
// result set is large enough that a flat list stops being scannable.
type Faceted struct {
	Definitions     []Match
	Implementations []Match
	Tests           []Match
	UsagesLocal     []Match
	UsagesCross     []Match
}

// Facet partitions matches into Faceted buckets, preserving each match's
// global rank order within its bucket. The primary definition's package
// root (the first is_definition match) determines local vs cross locality
// for usages.
func Facet(matches []Match) Faceted {
	exists := func(dir string) bool {
		_, err := os.Stat(dir)
		return err == nil
	}

	var primaryPkg string

	for _, m := range matches {
		if m.IsDefinition {
			primaryPkg = rank.PackageRoot(filepath.Dir(m.Path), exists)
			break
		}
	}

	var f Faceted

	for _, m := range matches {
		switch {
		case m.IsDefinition && m.ImplTarget != "":
			f.Implementations = append(f.Implementations, m)
		case m.IsDefinition:
			f.Definitions = append(f.Definitions, m)
		case isTestMatch(m):
			f.Tests = append(f.Tests, m)
		case primaryPkg != "" && rank.PackageRoot(filepath.Dir(m.Path), exists) == primaryPkg:
			f.UsagesLocal = append(f.UsagesLocal, m)
		default:
			f.UsagesCross = append(f.UsagesCross, m)
		}
	}

	return f
}

func isTestMatch(m Match) bool {
	path := filepath.ToSlash(m.Path)
	if strings.Contains(path, "_test.") || strings.Contains(path, "/test/") ||
		strings.Contains(path, "/tests/") || strings.Contains(path, "_spec.") ||
		strings.Contains(path, "/spec/") {
		return true
	}

	text := m.Text

	return strings.Contains(text, "#[test]") || strings.Contains(text, "#[cfg(test)]") ||
		strings.Contains(text, "@Test") || strings.Contains(text, "def test_") ||
		strings.Contains(text, `it("`) || strings.Contains(text, "it('") ||
		strings.Contains(text, `describe("`) || strings.Contains(text, "describe('") ||
		strings.Contains(text, "func Test")
}
