// Package readpipeline implements tilth_read's decision tree (§4.16):
// missing-file suggestions, directory listing, line-section extraction,
// binary/generated detection, and the full-vs-outline dispatch, ported from
// the original implementation's read::read_file.
package readpipeline

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	enry "github.com/src-d/enry/v2"

	"github.com/pityka/tilth/internal/hashline"
	"github.com/pityka/tilth/internal/langtag"
	"github.com/pityka/tilth/internal/outline"
	"github.com/pityka/tilth/internal/outlinecache"
	"github.com/pityka/tilth/internal/respformat"
	"github.com/pityka/tilth/pkg/levenshtein"
)

const (
	tokenThreshold        = 1500
	fileSizeCap           = 500_000
	binarySniffLen        = 8192
	generatedMarkerWindow = 2048
	suggestMaxDistance    = 3
)

// Request is one tilth_read call's parameters.
type Request struct {
	Path     string
	Section  string
	Full     bool
	EditMode bool
	// Budget overrides tokenThreshold for this call when positive.
	Budget int
}

// NotFoundError reports a missing path and, when one was found, a "did you
// mean?" suggestion from a Levenshtein-3 scan of the parent directory.
type NotFoundError struct {
	Path       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	if e.Suggestion == "" {
		return fmt.Sprintf("not found: %s", e.Path)
	}

	return fmt.Sprintf("not found: %s (did you mean %q?)", e.Path, e.Suggestion)
}

// Read implements the full §4.16 decision tree and returns the rendered
// response text.
func Read(req Request, cache *outlinecache.Cache) (string, error) {
	info, err := os.Stat(req.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: req.Path, Suggestion: suggestSimilar(req.Path)}
		}

		return "", fmt.Errorf("readpipeline: stat %s: %w", req.Path, err)
	}

	if info.IsDir() {
		return listDirectory(req.Path)
	}

	if req.Section != "" {
		return readSection(req.Path, req.Section)
	}

	byteLen := info.Size()
	if byteLen == 0 {
		return respformat.FileHeader(req.Path, 0, 0, "empty"), nil
	}

	content, err := os.ReadFile(req.Path)
	if err != nil {
		return "", fmt.Errorf("readpipeline: read %s: %w", req.Path, err)
	}

	if isBinary(content) {
		return respformat.BinaryHeader(req.Path, byteLen, mimeFromExt(req.Path)), nil
	}

	lineCount := strings.Count(string(content), "\n") + 1

	if enry.IsGenerated(req.Path, truncateBytes(content, generatedMarkerWindow)) {
		return respformat.FileHeader(req.Path, byteLen, lineCount, "generated"), nil
	}

	tokens := langtag.EstimateTokens(int(byteLen))

	threshold := tokenThreshold
	if req.Budget > 0 {
		threshold = req.Budget
	}

	if req.Full || tokens <= threshold {
		header := respformat.FileHeader(req.Path, byteLen, lineCount, "full")

		body := string(content)
		if req.EditMode {
			body = hashline.Render(strings.Split(strings.TrimSuffix(body, "\n"), "\n"))
		}

		return header + "\n\n" + body, nil
	}

	lang := langtag.Detect(req.Path, content)
	capped := byteLen > fileSizeCap

	outlineStr := cache.GetOrCompute(req.Path, info.ModTime(), func() string {
		return outline.Generate(req.Path, lang, content, capped)
	})

	mode := "outline"
	if lang == langtag.StructuredData {
		mode = "keys"
	}

	header := respformat.FileHeader(req.Path, byteLen, lineCount, mode)

	return header + "\n\n" + outlineStr, nil
}

func truncateBytes(content []byte, n int) []byte {
	if len(content) > n {
		return content[:n]
	}

	return content
}

// isBinary applies the spec's fixed byte-level rule: a NUL byte, or more
// than 30% non-printable bytes, within the first 8 KB.
func isBinary(content []byte) bool {
	window := truncateBytes(content, binarySniffLen)
	if len(window) == 0 {
		return false
	}

	if bytes.IndexByte(window, 0) >= 0 {
		return true
	}

	nonPrintable := 0

	for _, b := range window {
		switch {
		case b == '\n' || b == '\r' || b == '\t':
		case b < 0x20 || b == 0x7f:
			nonPrintable++
		}
	}

	return float64(nonPrintable)/float64(len(window)) > 0.30
}

// readSection returns lines [start,end] (1-based, inclusive) verbatim and
// numbered, regardless of file size.
func readSection(path, section string) (string, error) {
	start, end, ok := parseRange(section)
	if !ok {
		return "", fmt.Errorf("readpipeline: invalid section %q: expected \"start-end\"", section)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("readpipeline: read %s: %w", path, err)
	}

	lines := strings.Split(strings.TrimSuffix(string(content), "\n"), "\n")
	total := len(lines)

	s := start - 1
	if s < 0 {
		s = 0
	}

	if s > total {
		s = total
	}

	e := end
	if e > total {
		e = total
	}

	if s >= e {
		return "", fmt.Errorf("readpipeline: range out of bounds (file has %d lines)", total)
	}

	selected := strings.Join(lines[s:e], "\n")
	header := respformat.FileHeader(path, int64(len(selected)), e-s, "section")
	numbered := respformat.NumberLines(selected, start)

	return header + "\n\n" + numbered, nil
}

func parseRange(s string) (start, end int, ok bool) {
	a, b, found := strings.Cut(s, "-")
	if !found {
		return 0, 0, false
	}

	start, err := strconv.Atoi(strings.TrimSpace(a))
	if err != nil {
		return 0, 0, false
	}

	end, err = strconv.Atoi(strings.TrimSpace(b))
	if err != nil {
		return 0, 0, false
	}

	if start == 0 || end < start {
		return 0, 0, false
	}

	return start, end, true
}

// listDirectory treats a directory path as a plain entry listing: name,
// kind suffix, and a token estimate for regular files.
func listDirectory(path string) (string, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return "", fmt.Errorf("readpipeline: read dir %s: %w", path, err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var b strings.Builder

	fmt.Fprintf(&b, "# %s (%d items)", path, len(entries))

	for _, e := range entries {
		var suffix string

		switch {
		case e.IsDir():
			suffix = "/"
		case e.Type()&os.ModeSymlink != 0:
			suffix = " →"
		default:
			if info, err := e.Info(); err == nil {
				suffix = fmt.Sprintf("  (%d tokens)", langtag.EstimateTokens(int(info.Size())))
			}
		}

		fmt.Fprintf(&b, "\n  %s%s", e.Name(), suffix)
	}

	return b.String(), nil
}

// suggestSimilar scans path's parent directory for the closest name by
// Levenshtein distance, capped at 3 edits.
func suggestSimilar(path string) string {
	dir := filepath.Dir(path)
	name := filepath.Base(path)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var ctx levenshtein.Context

	best := ""
	bestDist := suggestMaxDistance + 1

	for _, e := range entries {
		dist := ctx.Distance(name, e.Name())
		if dist <= suggestMaxDistance && dist < bestDist {
			bestDist = dist
			best = e.Name()
		}
	}

	return best
}

// mimeFromExt guesses a MIME type from extension for binary file headers.
func mimeFromExt(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".svg":
		return "image/svg+xml"
	case ".webp":
		return "image/webp"
	case ".ico":
		return "image/x-icon"
	case ".pdf":
		return "application/pdf"
	case ".zip":
		return "application/zip"
	case ".gz", ".tgz":
		return "application/gzip"
	case ".tar":
		return "application/x-tar"
	case ".wasm":
		return "application/wasm"
	case ".woff", ".woff2":
		return "font/woff2"
	case ".ttf", ".otf":
		return "font/ttf"
	case ".mp3":
		return "audio/mpeg"
	case ".mp4":
		return "video/mp4"
	default:
		return "application/octet-stream"
	}
}
