// Package siblings resolves the fields and methods of a method's parent
// type that its body actually references, for the sibling footer appended
// after a method's match expansion.
package siblings

import (
	"context"
	"sort"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/pityka/tilth/internal/decl"
	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
)

// MaxSiblings caps how many resolved siblings surface in the footer.
const MaxSiblings = 6

// Resolved is a single field or method resolved from the body's self/this
// references against its parent type's declared members.
type Resolved struct {
	Name      string
	Kind      decl.Kind
	Signature string
	StartLine int
	EndLine   int
}

// queryByLang holds the self/this member-access query for each language
// that supports sibling resolution. Only languages with a well-known,
// single-shape self/this accessor are listed; others return no siblings.
var queryByLang = map[langtag.Lang]string{
	langtag.Rust: "(field_expression value: (self) field: (field_identifier) @ref)\n" +
		"(call_expression function: (field_expression value: (self) field: (field_identifier) @ref))",
	langtag.Python:     "(attribute object: (identifier) @obj attribute: (identifier) @ref)",
	langtag.TypeScript: "(member_expression object: (this) property: (property_identifier) @ref)",
	langtag.TSX:        "(member_expression object: (this) property: (property_identifier) @ref)",
	langtag.JavaScript: "(member_expression object: (this) property: (property_identifier) @ref)",
	langtag.Java: "(field_access object: (this) field: (identifier) @ref)\n" +
		"(method_invocation object: (this) name: (identifier) @ref)",
	langtag.Go: "(selector_expression operand: (identifier) @recv field: (field_identifier) @ref)",
}

const goReceiverQuery = "(method_declaration receiver: (parameter_list (parameter_declaration name: (identifier) @recv)))"

// ExtractReferences parses content as lang and returns the sorted, deduped
// set of self/this-qualified member names referenced within
// [defStart, defEnd] (1-based, inclusive).
func ExtractReferences(lang langtag.Lang, content []byte, defStart, defEnd int) []string {
	queryStr, ok := queryByLang[lang]
	if !ok {
		return nil
	}

	tsLang := grammarLanguage(lang)
	if tsLang == nil {
		return nil
	}

	query, err := sitter.NewQuery(tsLang, []byte(queryStr))
	if err != nil {
		return nil
	}

	refIdx := captureIndex(query, "ref")
	objIdx := captureIndex(query, "obj")
	recvIdx := captureIndex(query, "recv")

	var goReceiver string

	if lang == langtag.Go {
		goReceiver = extractGoReceiver(tsLang, content)
		if goReceiver == "" {
			return nil
		}
	}

	tree, root, ok := parseTree(tsLang, content)
	if !ok {
		return nil
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	matches := cursor.Matches(query, root, content)

	var names []string

	for {
		m := matches.Next()
		if m == nil {
			break
		}

		if lang == langtag.Python && objIdx >= 0 && !captureTextEquals(m, objIdx, content, "self") {
			continue
		}

		if lang == langtag.Go && !captureTextEquals(m, recvIdx, content, goReceiver) {
			continue
		}

		for _, cap := range m.Captures {
			if int(cap.Index) != refIdx {
				continue
			}

			line := int(cap.Node.StartPoint().Row) + 1
			if line < defStart || line > defEnd {
				continue
			}

			names = append(names, captureText(cap.Node, content))
		}
	}

	sort.Strings(names)

	return dedup(names)
}

func extractGoReceiver(tsLang *sitter.Language, content []byte) string {
	query, err := sitter.NewQuery(tsLang, []byte(goReceiverQuery))
	if err != nil {
		return ""
	}

	recvIdx := captureIndex(query, "recv")

	tree, root, ok := parseTree(tsLang, content)
	if !ok {
		return ""
	}
	defer tree.Close()

	cursor := sitter.NewQueryCursor()
	matches := cursor.Matches(query, root, content)

	m := matches.Next()
	if m == nil {
		return ""
	}

	for _, cap := range m.Captures {
		if int(cap.Index) == recvIdx {
			return captureText(cap.Node, content)
		}
	}

	return ""
}

func parseTree(tsLang *sitter.Language, content []byte) (tree *sitter.Tree, root sitter.Node, ok bool) {
	parser := sitter.NewParser()
	parser.SetLanguage(tsLang)

	var err error

	tree, err = parser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil, sitter.Node{}, false
	}

	root = tree.RootNode()
	if root.IsNull() {
		tree.Close()

		return nil, sitter.Node{}, false
	}

	return tree, root, true
}

func captureIndex(query *sitter.Query, name string) int {
	count := query.CaptureCount()

	for i := range count {
		if query.CaptureNameForID(i) == name {
			return int(i)
		}
	}

	return -1
}

func captureText(node sitter.Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}

	return string(content[start:end])
}

func captureTextEquals(m *sitter.QueryMatch, idx int, content []byte, want string) bool {
	if idx < 0 {
		return false
	}

	for _, cap := range m.Captures {
		if int(cap.Index) == idx && captureText(cap.Node, content) == want {
			return true
		}
	}

	return false
}

func dedup(names []string) []string {
	out := names[:0]

	var prev string

	for i, n := range names {
		if i == 0 || n != prev {
			out = append(out, n)
			prev = n
		}
	}

	return out
}

// ResolveSiblings matches sibling names against a parent entry's children,
// preferring methods over fields, then alphabetical within each group, and
// caps the result at MaxSiblings.
func ResolveSiblings(names []string, parentChildren []outline.Entry) []Resolved {
	var resolved []Resolved

	for _, name := range names {
		for _, child := range parentChildren {
			if child.Name == name {
				sig := child.Signature
				if sig == "" {
					sig = child.Name
				}

				resolved = append(resolved, Resolved{
					Name:      name,
					Kind:      child.Kind,
					Signature: sig,
					StartLine: child.StartLine,
					EndLine:   child.EndLine,
				})

				break
			}
		}
	}

	sort.SliceStable(resolved, func(i, j int) bool {
		iFn := resolved[i].Kind == decl.KindFunction || resolved[i].Kind == decl.KindMethod
		jFn := resolved[j].Kind == decl.KindFunction || resolved[j].Kind == decl.KindMethod

		if iFn != jFn {
			return iFn
		}

		return resolved[i].Name < resolved[j].Name
	})

	if len(resolved) > MaxSiblings {
		resolved = resolved[:MaxSiblings]
	}

	return resolved
}

// FindParentEntry returns the entry whose children contain a member
// starting at methodLine.
func FindParentEntry(entries []outline.Entry, methodLine int) (outline.Entry, bool) {
	for _, entry := range entries {
		for _, child := range entry.Children {
			if child.StartLine == methodLine {
				return entry, true
			}
		}
	}

	return outline.Entry{}, false
}

// grammarLanguage exposes the outline package's cached grammar lookup
// without re-deriving the grammarFuncs table here.
func grammarLanguage(lang langtag.Lang) *sitter.Language {
	return outline.Language(lang)
}
