package mcpserver

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// editsSchema enforces the anchor wire format ("<decimal_line>:<3_hex_hash>")
// at the JSON boundary, a constraint the generic struct-derived tool schema
// can express as a string field but not as a pattern. Validated once per
// tilth_edit call ahead of hashline.ParseAnchor.
const editsSchema = `{
  "type": "object",
  "required": ["path", "edits"],
  "properties": {
    "path": {"type": "string", "minLength": 1},
    "edits": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["start", "content"],
        "properties": {
          "start": {"type": "string", "pattern": "^[0-9]+:[0-9a-f]{3}$"},
          "end": {"type": "string", "pattern": "^[0-9]+:[0-9a-f]{3}$"},
          "content": {"type": "string"}
        }
      }
    }
  }
}`

var editsSchemaLoader = gojsonschema.NewStringLoader(editsSchema)

// validateEditInput checks in's shape against editsSchema before any anchor
// parsing, turning a malformed anchor into a single aggregated error instead
// of a per-field parse failure.
func validateEditInput(in EditInput) error {
	raw := map[string]any{"path": in.Path}

	edits := make([]map[string]any, 0, len(in.Edits))

	for _, e := range in.Edits {
		op := map[string]any{"start": e.Start, "content": e.Content}
		if e.End != "" {
			op["end"] = e.End
		}

		edits = append(edits, op)
	}

	raw["edits"] = edits

	result, err := gojsonschema.Validate(editsSchemaLoader, gojsonschema.NewGoLoader(raw))
	if err != nil {
		return fmt.Errorf("tilth_edit: schema validation error: %w", err)
	}

	if result.Valid() {
		return nil
	}

	descs := make([]string, 0, len(result.Errors()))
	for _, verr := range result.Errors() {
		descs = append(descs, verr.String())
	}

	return fmt.Errorf("tilth_edit: invalid params: %v", descs)
}
