package mcpserver

import (
	"context"
	"fmt"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pityka/tilth/internal/dirmap"
	"github.com/pityka/tilth/internal/editengine"
	"github.com/pityka/tilth/internal/hashline"
	"github.com/pityka/tilth/internal/readpipeline"
	"github.com/pityka/tilth/internal/search"
	"github.com/pityka/tilth/internal/session"
)

func (s *Server) handleRead(
	_ context.Context, _ *mcpsdk.CallToolRequest, in ReadInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.Path == "" {
		return errorResult(fmt.Errorf("tilth_read: path is required"))
	}

	s.sess.RecordRead(in.Path)

	out, err := readpipeline.Read(readpipeline.Request{
		Path: in.Path, Section: in.Section, Full: in.Full, EditMode: s.editMode, Budget: in.Budget,
	}, s.outlineCache)
	if err != nil {
		return errorResult(err)
	}

	return textResult(out)
}

func (s *Server) handleSearch(
	_ context.Context, _ *mcpsdk.CallToolRequest, in SearchInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.Query == "" {
		return errorResult(fmt.Errorf("tilth_search: query is required"))
	}

	scope := in.Scope
	if scope == "" {
		scope = "."
	}

	s.sess.RecordSearch(in.Query)

	if in.Expand > 0 && !s.symbolIndex.IsBuilt(scope) {
		_ = s.symbolIndex.Build(scope)
	}

	var result search.Result

	switch in.Kind {
	case "content", "regex":
		result = search.Content(in.Query, scope, in.Context, in.Kind == "regex")
	default:
		result = search.Symbol(in.Query, scope, in.Context)
	}

	text := search.FormatResult(result, s.outlineCache, in.Expand, s.symbolIndex, s.bloomCache, s.sess)

	return textResult(text)
}

func (s *Server) handleFiles(
	_ context.Context, _ *mcpsdk.CallToolRequest, in FilesInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.Pattern == "" {
		return errorResult(fmt.Errorf("tilth_files: pattern is required"))
	}

	scope := in.Scope
	if scope == "" {
		scope = "."
	}

	result := search.Glob(in.Pattern, scope)

	return textResult(search.FormatGlobResult(result))
}

func (s *Server) handleMap(
	_ context.Context, _ *mcpsdk.CallToolRequest, in MapInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	scope := in.Scope
	if scope == "" {
		scope = "."
	}

	s.sess.RecordMapCall()

	text := dirmap.Build(dirmap.Request{Scope: scope, Depth: in.Depth, Budget: in.Budget}, s.outlineCache)

	return textResult(text)
}

func (s *Server) handleSession(
	_ context.Context, _ *mcpsdk.CallToolRequest, in SessionInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.Action == "reset" {
		s.sess.Reset()

		return textResult("session reset")
	}

	return textResult(session.FormatSummary(s.sess.Summarize()))
}

func (s *Server) handleEdit(
	_ context.Context, _ *mcpsdk.CallToolRequest, in EditInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if in.Path == "" {
		return errorResult(fmt.Errorf("tilth_edit: path is required"))
	}

	if err := validateEditInput(in); err != nil {
		return errorResult(err)
	}

	edits := make([]editengine.Edit, 0, len(in.Edits))

	for i, op := range in.Edits {
		start, err := hashline.ParseAnchor(op.Start)
		if err != nil {
			return errorResult(fmt.Errorf("tilth_edit: edits[%d]: %w", i, err))
		}

		end := start
		if op.End != "" {
			end, err = hashline.ParseAnchor(op.End)
			if err != nil {
				return errorResult(fmt.Errorf("tilth_edit: edits[%d]: %w", i, err))
			}
		}

		edits = append(edits, editengine.Edit{
			StartLine: start.Line, EndLine: end.Line,
			StartHash: start.Hash, EndHash: end.Hash,
			Content: op.Content,
		})
	}

	result, err := editengine.Apply(in.Path, edits)
	if err != nil {
		return errorResult(err)
	}

	if !result.Applied {
		return textResult(formatMismatch(in.Path, result))
	}

	s.outlineCache.Invalidate(in.Path)
	s.bloomCache.Invalidate(in.Path)

	return textResult(result.Header + "\n\n" + result.Diff)
}

func formatMismatch(path string, result editengine.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# HashMismatch: %s", path)

	for _, m := range result.Mismatches {
		fmt.Fprintf(&b, "\nline %d: expected %s, got %s", m.Line, m.Expected, m.Actual)
	}

	b.WriteString("\n\n")
	b.WriteString(result.Diagnostic)

	return b.String()
}
