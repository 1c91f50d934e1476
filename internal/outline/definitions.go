package outline

import (
	"context"
	"strings"

	sitter "github.com/alexaandru/go-tree-sitter-bare"

	"github.com/pityka/tilth/internal/decl"
	"github.com/pityka/tilth/internal/langtag"
)

// Definition is one flattened definition extracted from a parsed file,
// used by the symbol index and by symbol-mode search. Unlike Entry (which
// nests children for rendering), Definition is a flat list: the symbol
// index only needs name/line/kind, not structure.
type Definition struct {
	Name string
	Line int
	// EndLine is the definition node's last line, used as the def_range
	// upper bound for match expansion. Rust impl trait/type entries carry
	// the impl block's end line; implemented-interface entries leave it
	// zero.
	EndLine int
	Kind    decl.Kind
	// ImplTarget is set on a Rust impl block's trait-name entry to the
	// type it's implemented for, so symbol search can report
	// "impl Trait for T" when the query matches the trait name.
	ImplTarget string
}

// maxDefinitionDepth mirrors the outline engine's depth cap: nested
// definitions up to 3 levels deep (impl blocks, class bodies, modules) are
// still indexed, but anonymous block descent stops there.
const maxDefinitionDepth = 3

// ExtractDefinitions parses content as lang and returns every definition
// node found, depth-capped at 3. Rust impl blocks additionally yield their
// trait name and implementing type as separate definitions (so a symbol
// lookup for either resolves to the impl), and TS/Java classes yield
// their implemented interfaces similarly. Returns nil if lang has no
// grammar wired or parsing fails.
func ExtractDefinitions(lang langtag.Lang, content []byte) []Definition {
	table := decl.ForLang(lang)
	if table == nil {
		return nil
	}

	parser, put, ok := checkoutParser(lang)
	if !ok {
		return nil
	}
	defer put()

	tree, err := parser.ParseString(context.Background(), nil, content)
	if err != nil {
		return nil
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.IsNull() {
		return nil
	}

	var out []Definition

	walkDefinitions(root, content, table, 0, &out)

	return out
}

func walkDefinitions(node sitter.Node, content []byte, table decl.Table, depth int, out *[]Definition) {
	if depth > maxDefinitionDepth {
		return
	}

	rule, isDecl := table[node.Type()]
	if isDecl && rule.Kind != decl.KindReexport {
		if name := definitionName(node, content, rule); name != "" {
			line := int(node.StartPoint().Row) + 1
			endLine := int(node.EndPoint().Row) + 1
			*out = append(*out, Definition{Name: name, Line: line, EndLine: endLine, Kind: rule.Kind})
		}

		if rule.Kind == decl.KindImpl {
			appendImplNames(node, content, rule, out)
		}

		if rule.Kind == decl.KindClass {
			appendImplementedInterfaces(node, content, out)
		}
	}

	count := node.NamedChildCount()
	for i := range count {
		walkDefinitions(node.NamedChild(i), content, table, depth+1, out)
	}
}

func definitionName(node sitter.Node, content []byte, rule decl.Rule) string {
	if name := fieldText(node, content, rule.NameField); name != "" {
		return name
	}

	return firstIdentifierText(node, content)
}

// appendImplNames records the trait name and the implementing type of a
// Rust `impl Trait for Type` block as independent definitions.
func appendImplNames(node sitter.Node, content []byte, rule decl.Rule, out *[]Definition) {
	line := int(node.StartPoint().Row) + 1
	endLine := int(node.EndPoint().Row) + 1
	typeName := fieldText(node, content, rule.NameField)

	if traitName := fieldText(node, content, rule.NameFields2); traitName != "" {
		*out = append(*out, Definition{
			Name: traitName, Line: line, EndLine: endLine, Kind: decl.KindImpl, ImplTarget: typeName,
		})
	}

	if typeName != "" {
		*out = append(*out, Definition{Name: typeName, Line: line, EndLine: endLine, Kind: decl.KindImpl})
	}
}

// appendImplementedInterfaces records interface/protocol names a class
// declares conformance to (TS `implements`, Java `implements`), best-effort:
// it scans the class node's direct named children for a heritage-style node
// and collects identifier text from within it.
func appendImplementedInterfaces(node sitter.Node, content []byte, out *[]Definition) {
	line := int(node.StartPoint().Row) + 1

	count := node.NamedChildCount()

	for i := range count {
		child := node.NamedChild(i)

		t := child.Type()
		if !strings.Contains(t, "implements") && !strings.Contains(t, "heritage") && t != "super_interfaces" {
			continue
		}

		collectIdentifiers(child, content, func(name string) {
			*out = append(*out, Definition{Name: name, Line: line, Kind: decl.KindInterface})
		})
	}
}

func collectIdentifiers(node sitter.Node, content []byte, yield func(name string)) {
	if strings.Contains(node.Type(), "identifier") {
		yield(text(node, content))

		return
	}

	count := node.NamedChildCount()
	for i := range count {
		collectIdentifiers(node.NamedChild(i), content, yield)
	}
}
