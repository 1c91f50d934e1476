package outline

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/pityka/tilth/internal/decl"
	"github.com/pityka/tilth/internal/langtag"
)

// maxDepth caps recursive descent into nested declarations, per the spec's
// "avoid anonymous-block descent" rule.
const maxDepth = 3

// Entry is one declaration in an outline tree.
type Entry struct {
	StartLine int
	EndLine   int
	Name      string
	Kind      decl.Kind
	Signature string
	Depth     int
	Children  []Entry
}

// Generate produces the outline text for a file. sizeCapped indicates the
// caller truncated content before handing it here (e.g. an oversized file);
// callers that pass true should expect the outline to reflect only the
// truncated prefix, which Generate does transparently since it only sees
// what it's given.
func Generate(path string, lang langtag.Lang, content []byte, sizeCapped bool) string {
	switch {
	case lang == langtag.Markdown:
		return generateMarkdown(content)
	case lang == langtag.StructuredData:
		return generateStructuredData(content)
	case lang.IsCode():
		out := generateCode(lang, content)
		if out == "" {
			return generateHeaderOnly(path, content)
		}

		if sizeCapped {
			out += "\n(truncated: file exceeds size cap)"
		}

		return out
	default:
		return generateHeaderOnly(path, content)
	}
}

// generateHeaderOnly degrades to a first-line-plus-line-count view for file
// types the outline engine has no structural parser for.
func generateHeaderOnly(path string, content []byte) string {
	lines := splitLines(content)

	first := ""
	if len(lines) > 0 {
		first = strings.TrimSpace(lines[0])
	}

	if first == "" {
		return fmt.Sprintf("%s (%d lines)", path, len(lines))
	}

	return fmt.Sprintf("%s (%d lines): %s", path, len(lines), first)
}

func generateCode(lang langtag.Lang, content []byte) string {
	entries, importSpan, ok := BuildEntries(lang, content)
	if !ok {
		return ""
	}

	var b strings.Builder

	if importSpan[1] > 0 {
		fmt.Fprintf(&b, "[%d-%d] imports\n", importSpan[0], importSpan[1])
	}

	renderEntries(&b, entries)

	return strings.TrimRight(b.String(), "\n")
}

// BuildEntries parses content as lang and returns its declaration tree plus
// the [first,last] 1-indexed line span of the import/re-export statements
// the walk reaches (top level, wrapper nodes, and nestable declaration
// bodies; zero value if none). ok is false if lang has no grammar wired
// or parsing failed. Exposed for the sibling resolver, which needs a
// definition's parent entry (and its children) rather than rendered text.
func BuildEntries(lang langtag.Lang, content []byte) (entries []Entry, importSpan [2]int, ok bool) {
	table := decl.ForLang(lang)
	if table == nil {
		return nil, [2]int{}, false
	}

	parser, put, ok := checkoutParser(lang)
	if !ok {
		return nil, [2]int{}, false
	}
	defer put()

	tree, err := parser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil, [2]int{}, false
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil, [2]int{}, false
	}

	entries, importSpan = walk(root, content, table, 0)

	return entries, importSpan, true
}

// walk collects declaration entries among node's named children at the
// current depth, along with the [first,last] 1-indexed line span of any
// import/re-export nodes found at this level, inside wrapper nodes, or in
// nestable declaration bodies (0,0 if none).
func walk(node sitter.Node, content []byte, table decl.Table, depth int) (entries []Entry, importSpan [2]int) {
	count := node.NamedChildCount()

	for i := range count {
		child := node.NamedChild(i)
		if child.IsNull() {
			continue
		}

		rule, ok := table[child.Type()]
		if !ok {
			// Not a declaration node itself; its declarations (if any) are
			// still reachable by descending without consuming a depth level
			// for wrapper nodes like expression_statement or block.
			sub, span := walk(child, content, table, depth)
			entries = append(entries, sub...)
			importSpan = mergeSpan(importSpan, span)

			continue
		}

		if rule.Kind == decl.KindReexport {
			line := int(child.StartPoint().Row) + 1
			importSpan = mergeSpan(importSpan, [2]int{line, line})

			continue
		}

		entry := buildEntry(child, content, rule)

		if rule.Nestable && depth < maxDepth {
			children, span := walk(child, content, table, depth+1)
			entry.Children = children
			importSpan = mergeSpan(importSpan, span)
		}

		entries = append(entries, entry)
	}

	return entries, importSpan
}

func mergeSpan(a, b [2]int) [2]int {
	if b[1] == 0 {
		return a
	}

	if a[1] == 0 {
		return b
	}

	out := a
	if b[0] < out[0] {
		out[0] = b[0]
	}

	if b[1] > out[1] {
		out[1] = b[1]
	}

	return out
}

func buildEntry(node sitter.Node, content []byte, rule decl.Rule) Entry {
	name := fieldText(node, content, rule.NameField)

	if rule.NameFields2 != "" {
		other := fieldText(node, content, rule.NameFields2)
		if other != "" && name != "" {
			name = other + " for " + name
		} else if other != "" {
			name = other
		}
	}

	if name == "" {
		name = firstIdentifierText(node, content)
	}

	start := int(node.StartPoint().Row) + 1
	end := int(node.EndPoint().Row) + 1

	return Entry{
		StartLine: start,
		EndLine:   end,
		Name:      name,
		Kind:      rule.Kind,
		Signature: signatureLine(node, content),
	}
}

// fieldText returns the text of node's named field, or "" if field is
// empty or the field doesn't exist on this node.
func fieldText(node sitter.Node, content []byte, field string) string {
	if field == "" {
		return ""
	}

	target := node.ChildByFieldName(field)
	if target.IsNull() {
		return ""
	}

	return text(target, content)
}

// firstIdentifierText scans node's direct named children for the first one
// whose type looks like an identifier, used when a grammar exposes no
// "name" field for a declaration kind.
func firstIdentifierText(node sitter.Node, content []byte) string {
	count := node.NamedChildCount()

	for i := range count {
		child := node.NamedChild(i)
		if strings.Contains(child.Type(), "identifier") {
			return text(child, content)
		}
	}

	return ""
}

// signatureLine renders the node's first source line, trimmed, as its
// displayed signature; any body text on that line (e.g. an opening brace)
// is included.
func signatureLine(node sitter.Node, content []byte) string {
	full := text(node, content)

	if idx := strings.IndexByte(full, '\n'); idx >= 0 {
		full = full[:idx]
	}

	return strings.TrimSpace(full)
}

func text(node sitter.Node, content []byte) string {
	start, end := node.StartByte(), node.EndByte()
	if int(end) > len(content) || start > end {
		return ""
	}

	return string(content[start:end])
}

func renderEntries(b *strings.Builder, entries []Entry) {
	renderEntriesIndented(b, entries, 0)
}

func renderEntriesIndented(b *strings.Builder, entries []Entry, depth int) {
	indent := strings.Repeat("  ", depth)

	for _, e := range entries {
		fmt.Fprintf(b, "[%d-%d] %s%s  %s\n", e.StartLine, e.EndLine, indent, e.Name, e.Signature)
		renderEntriesIndented(b, e.Children, depth+1)
	}
}

func splitLines(content []byte) []string {
	if len(content) == 0 {
		return nil
	}

	return strings.Split(strings.TrimRight(string(content), "\n"), "\n")
}
