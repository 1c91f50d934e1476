package outline

import (
	"bytes"
	"fmt"
	"strings"
)

// maxMarkdownEntries caps the number of headings collected, guarding against
// pathological files with thousands of "#" lines.
const maxMarkdownEntries = 500

// generateMarkdown scans content for lines starting with "#" (up to level
// 6), indenting by heading level and tracking fenced code blocks so a "#"
// inside one isn't mistaken for a heading. Ported line-for-line from the
// original Rust outline generator.
func generateMarkdown(content []byte) string {
	var entries []string

	pos := 0
	lineNum := 0
	codeBlocks := 0
	inCodeBlock := false

	for pos < len(content) && len(entries) < maxMarkdownEntries {
		lineNum++

		lineEnd := bytes.IndexByte(content[pos:], '\n')
		if lineEnd < 0 {
			lineEnd = len(content)
		} else {
			lineEnd += pos
		}

		line := content[pos:lineEnd]

		if bytes.HasPrefix(line, []byte("```")) {
			inCodeBlock = !inCodeBlock
			if inCodeBlock {
				codeBlocks++
			}

			pos = lineEnd + 1

			continue
		}

		if !inCodeBlock && len(line) > 0 && line[0] == '#' {
			level := 0
			for level < len(line) && line[level] == '#' {
				level++
			}

			if level <= 6 {
				textStart := level
				if textStart < len(line) && line[textStart] == ' ' {
					textStart++
				}

				text := string(line[textStart:])
				indent := strings.Repeat("  ", max0(level-1))

				if len(text) > 80 {
					text = truncateStr(text, 77) + "..."
				}

				entries = append(entries, fmt.Sprintf("[%d] %s%s", lineNum, indent, text))
			}
		}

		pos = lineEnd + 1
	}

	if codeBlocks > 0 {
		entries = append(entries, fmt.Sprintf("\n(%d code blocks)", codeBlocks))
	}

	return strings.Join(entries, "\n")
}

func max0(n int) int {
	if n < 0 {
		return 0
	}

	return n
}

// truncateStr cuts s to at most n runes, never splitting a multi-byte rune.
func truncateStr(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n])
}
