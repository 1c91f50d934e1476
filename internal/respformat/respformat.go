// Package respformat renders the header lines and line-numbered bodies
// shared across tilth's read, search, and map tool responses, ported from
// the original implementation's format module.
package respformat

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pityka/tilth/internal/langtag"
)

// FileHeader builds the standard header line:
// "# path/to/file.ts (N lines, ~X.Xk tokens) [mode]".
func FileHeader(path string, byteLen int64, lineCount int, mode string) string {
	tokens := langtag.EstimateTokens(int(byteLen))

	var tokenStr string
	if tokens >= 1000 {
		tokenStr = fmt.Sprintf("~%d.%dk tokens", tokens/1000, (tokens%1000)/100)
	} else {
		tokenStr = fmt.Sprintf("~%d tokens", tokens)
	}

	return fmt.Sprintf("# %s (%d lines, %s) [%s]", path, lineCount, tokenStr, mode)
}

// BinaryHeader builds the header for binary files:
// "# path (binary, size, mime) [skipped]".
func BinaryHeader(path string, byteLen int64, mime string) string {
	return fmt.Sprintf("# %s (binary, %s, %s) [skipped]", path, humanize.Bytes(uint64(byteLen)), mime)
}

// SearchHeader builds the header for search results.
func SearchHeader(query, scope string, total, defs, usages int) string {
	var parts string
	if defs == 0 {
		parts = fmt.Sprintf("%d matches", total)
	} else {
		parts = fmt.Sprintf("%d matches (%d definitions, %d usages)", total, defs, usages)
	}

	return fmt.Sprintf("# Search: %q in %s — %s", query, scope, parts)
}

// NumberLines prefixes each line of content with its 1-indexed line number,
// right-aligned to the width of the largest line number in the block.
func NumberLines(content string, start int) string {
	lines := strings.Split(strings.TrimSuffix(content, "\n"), "\n")

	last := start + len(lines) - 1
	if last < 1 {
		last = 1
	}

	width := len(strconv.Itoa(last))

	var b strings.Builder

	for i, line := range lines {
		num := start + i
		fmt.Fprintf(&b, "%*d  %s\n", width, num, line)
	}

	return b.String()
}

// fencedLineWidth mirrors the original implementation's 4-character minimum
// line-number gutter used in fenced code blocks (search expansion, map
// previews), independent of NumberLines' dynamic width.
const fencedLineWidth = 4

// FencedLine renders one line of a fenced code block: "NNNN │ content",
// right-aligned to at least fencedLineWidth digits.
func FencedLine(lineNum int, content string) string {
	width := fencedLineWidth
	if digits := len(strconv.Itoa(lineNum)); digits > width {
		width = digits
	}

	return fmt.Sprintf("%*d │ %s", width, lineNum, content)
}

// OmittedMarker renders the "... (K lines omitted)" placeholder for a
// collapsed run of skipped lines, left-padded to align with FencedLine's
// gutter.
func OmittedMarker(count int) string {
	return strings.Repeat(" ", fencedLineWidth) + fmt.Sprintf("   ... (%d lines omitted)", count)
}
