package outline

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxStructuredEntries caps the number of key paths emitted, guarding
// against pathological deeply-array-heavy documents.
const maxStructuredEntries = 500

// generateStructuredData renders a key-path outline for JSON and YAML
// documents. JSON is valid YAML, so a single yaml.v3 decode handles both.
// Other structured formats (TOML, XML, INI, .env) go through the same YAML
// decoder: content it cannot parse degrades to a header-only view, and
// content it does parse is outlined as YAML reads it.
func generateStructuredData(content []byte) string {
	var doc yaml.Node

	if err := yaml.Unmarshal(content, &doc); err != nil {
		return generateHeaderOnly("", content)
	}

	var b strings.Builder

	n := 0
	walkYAML(&doc, "", &b, &n)

	return strings.TrimRight(b.String(), "\n")
}

func walkYAML(node *yaml.Node, path string, b *strings.Builder, n *int) {
	if *n >= maxStructuredEntries {
		return
	}

	switch node.Kind {
	case yaml.DocumentNode:
		for _, child := range node.Content {
			walkYAML(child, path, b, n)
		}

	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key := node.Content[i]
			val := node.Content[i+1]

			childPath := key.Value
			if path != "" {
				childPath = path + "." + key.Value
			}

			emitOrDescend(val, childPath, b, n)
		}

	case yaml.SequenceNode:
		for i, item := range node.Content {
			childPath := fmt.Sprintf("%s[%d]", path, i)
			emitOrDescend(item, childPath, b, n)
		}

	default:
		emitLeaf(node, path, b, n)
	}
}

func emitOrDescend(node *yaml.Node, path string, b *strings.Builder, n *int) {
	switch node.Kind {
	case yaml.MappingNode, yaml.SequenceNode:
		walkYAML(node, path, b, n)
	default:
		emitLeaf(node, path, b, n)
	}
}

func emitLeaf(node *yaml.Node, path string, b *strings.Builder, n *int) {
	if *n >= maxStructuredEntries {
		return
	}

	value := node.Value
	if len(value) > 60 {
		value = truncateStr(value, 57) + "..."
	}

	fmt.Fprintf(b, "[%d] %s: %s\n", node.Line, path, value)
	*n++
}
