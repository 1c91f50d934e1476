package mcpserver

import (
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants, matching spec.md §6's tool table.
const (
	ToolNameRead    = "tilth_read"
	ToolNameSearch  = "tilth_search"
	ToolNameFiles   = "tilth_files"
	ToolNameMap     = "tilth_map"
	ToolNameSession = "tilth_session"
	ToolNameEdit    = "tilth_edit"
)

// ReadInput is tilth_read's input schema.
type ReadInput struct {
	Path    string `json:"path"              jsonschema:"path to the file or directory to read"`
	Section string `json:"section,omitempty" jsonschema:"optional inclusive line range \"start-end\" to read verbatim"`
	Full    bool   `json:"full,omitempty"    jsonschema:"force full file content even above the token budget"`
	Budget  int    `json:"budget,omitempty"  jsonschema:"token budget above which an outline is returned instead of full content"`
}

// SearchInput is tilth_search's input schema.
type SearchInput struct {
	Query   string `json:"query"             jsonschema:"symbol name, literal text, or /regex/ pattern to search for"`
	Scope   string `json:"scope,omitempty"   jsonschema:"directory to search under (default \".\")"`
	Kind    string `json:"kind,omitempty"    jsonschema:"search mode: symbol, content, or regex (default symbol)"`
	Expand  int    `json:"expand,omitempty"  jsonschema:"number of top matches to expand inline with source and callees/siblings"`
	Context string `json:"context,omitempty" jsonschema:"calling file's path, used to boost same-directory results"`
	Budget  int    `json:"budget,omitempty"  jsonschema:"token budget hint for the response"`
}

// FilesInput is tilth_files's input schema.
type FilesInput struct {
	Pattern string `json:"pattern"          jsonschema:"doublestar glob pattern, e.g. \"**/*.go\""`
	Scope   string `json:"scope,omitempty"  jsonschema:"directory to match under (default \".\")"`
	Budget  int    `json:"budget,omitempty" jsonschema:"token budget hint for the response"`
}

// MapInput is tilth_map's input schema.
type MapInput struct {
	Scope  string `json:"scope,omitempty"  jsonschema:"directory to map (default \".\")"`
	Depth  int    `json:"depth,omitempty"  jsonschema:"maximum recursion depth (default 3)"`
	Budget int    `json:"budget,omitempty" jsonschema:"token budget above which the map is truncated"`
}

// SessionInput is tilth_session's input schema.
type SessionInput struct {
	Action string `json:"action,omitempty" jsonschema:"summary or reset (default summary)"`
}

// EditOp is one replacement within a tilth_edit call.
type EditOp struct {
	Start   string `json:"start"           jsonschema:"start line anchor \"<line>:<3-hex-hash>\""`
	End     string `json:"end,omitempty"   jsonschema:"end line anchor, defaults to start for a single-line edit"`
	Content string `json:"content"         jsonschema:"replacement text for the anchored range"`
}

// EditInput is tilth_edit's input schema (registered only in edit mode).
type EditInput struct {
	Path  string   `json:"path"  jsonschema:"file to edit"`
	Edits []EditOp `json:"edits" jsonschema:"non-overlapping hashline-anchored replacements"`
}

// ToolOutput wraps a tool handler's rendered text for AddTool's generic
// structured-output slot. Tilth's tools all render a single plain-text
// response, so there's no structured payload beyond the text itself.
type ToolOutput struct {
	Text string `json:"text"`
}

// textResult builds a successful CallToolResult carrying s as its sole text
// content block.
func textResult(s string) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: s}},
	}, ToolOutput{Text: s}, nil
}

// errorResult builds a CallToolResult with IsError set, per §7's rule that
// per-request tool failures surface as readable error content rather than
// JSON-RPC errors.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

// Tool description constants.
const (
	readToolDescription = "Read a file or directory. Returns full content for small files, " +
		"a structural outline for large ones, a line range with --section, or a directory listing."
	searchToolDescription = "Search for a symbol, literal text, or regex pattern across a directory tree. " +
		"Ranks definitions above usages and supports inline expansion of top matches."
	filesToolDescription = "Glob-match file paths under a scope, with a one-line content preview per match."
	mapToolDescription   = "Render a depth-bounded directory tree annotated with a one-line declaration " +
		"summary per source file."
	sessionToolDescription = "Report or reset this session's read/search/expansion activity counters."
	editToolDescription    = "Apply one or more hashline-anchored edits to a file atomically. " +
		"Each edit's anchors must match the file's current content or the call fails with a diff-free diagnostic."
)

const (
	readOnlyInstructions = "tilth exposes read-only code intelligence: tilth_read, tilth_search, " +
		"tilth_files, tilth_map, and tilth_session. Prefer tilth_search with a small expand count over " +
		"reading whole files; large files return outlines instead of full content."
	editModeInstructions = readOnlyInstructions + " tilth_edit is also available: each edit is anchored " +
		"by a \"<line>:<hash>\" pair taken from a prior read's hashlined view, and a stale anchor fails the " +
		"whole call with a HashMismatch diagnostic rather than applying partially."
)
