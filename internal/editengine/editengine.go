// Package editengine implements tilth_edit's hashline edit protocol: verify
// every edit's line anchors against the file's current content, apply
// non-overlapping replacements in descending order, and write the result
// atomically. Grounded on the specification's apply_edits algorithm and the
// teacher's line-diff idiom (sergi/go-diff's rune-based line diffing, as
// used for change previews).
package editengine

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/pityka/tilth/internal/hashline"
	"github.com/pityka/tilth/internal/respformat"
)

// Edit is one hashline-anchored replacement: the inclusive 1-based
// [StartLine, EndLine] span, each verified against its current content hash
// before Content (split on '\n') replaces it.
type Edit struct {
	StartLine int
	EndLine   int
	StartHash string
	EndHash   string
	Content   string
}

// Mismatch reports one anchor that failed to verify against the file's
// current content.
type Mismatch struct {
	Line     int
	Expected string
	Actual   string
}

// Result is apply_edits' outcome: either Applied with the new file's header
// and a preview diff, or a failed verification carrying Mismatches plus a
// fresh hashlined Diagnostic view so the caller can recompute anchors.
type Result struct {
	Applied    bool
	Header     string
	Diff       string
	Mismatches []Mismatch
	Diagnostic string
}

// fileLocks serializes concurrent edits to the same path, per the spec's
// exclusive-write requirement.
var fileLocks sync.Map

func lockFor(path string) *sync.Mutex {
	l, _ := fileLocks.LoadOrStore(path, &sync.Mutex{})

	return l.(*sync.Mutex) //nolint:forcetypeassert // fileLocks only ever stores *sync.Mutex
}

// Apply reads path, verifies every edit's anchors, rejects overlapping
// edits, applies them in descending line order so earlier line numbers stay
// valid, and writes the result via a temp-file-plus-rename swap.
func Apply(path string, edits []Edit) (Result, error) {
	mu := lockFor(path)
	mu.Lock()
	defer mu.Unlock()

	content, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("editengine: read %s: %w", path, err)
	}

	before := string(content)
	lines := strings.Split(before, "\n")

	if mismatches := verify(lines, edits); len(mismatches) > 0 {
		return Result{
			Mismatches: mismatches,
			Diagnostic: hashline.Render(lines),
		}, nil
	}

	ordered := make([]Edit, len(edits))
	copy(ordered, edits)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartLine > ordered[j].StartLine })

	if err := checkOverlap(ordered); err != nil {
		return Result{}, err
	}

	for _, e := range ordered {
		lines = spliceLines(lines, e.StartLine, e.EndLine, strings.Split(e.Content, "\n"))
	}

	after := strings.Join(lines, "\n")

	if err := writeAtomic(path, after); err != nil {
		return Result{}, err
	}

	return Result{
		Applied: true,
		Header:  respformat.FileHeader(path, int64(len(after)), len(lines), "full"),
		Diff:    renderDiff(before, after),
	}, nil
}

// verify checks every edit's start/end anchors against lines' current
// hashes, collecting every mismatch rather than stopping at the first so
// the caller's retry can fix them all at once.
func verify(lines []string, edits []Edit) []Mismatch {
	var mismatches []Mismatch

	checkAnchor := func(line int, want string) {
		if line < 1 || line > len(lines) {
			mismatches = append(mismatches, Mismatch{Line: line, Expected: want, Actual: "line out of range"})

			return
		}

		if actual := hashline.HashLine(lines[line-1]); actual != want {
			mismatches = append(mismatches, Mismatch{Line: line, Expected: want, Actual: actual})
		}
	}

	for _, e := range edits {
		checkAnchor(e.StartLine, e.StartHash)

		if e.EndLine != e.StartLine {
			checkAnchor(e.EndLine, e.EndHash)
		}
	}

	return mismatches
}

// checkOverlap requires ordered (sorted by StartLine descending) to have no
// two edits whose ranges intersect.
func checkOverlap(ordered []Edit) error {
	for i := 0; i+1 < len(ordered); i++ {
		if ordered[i+1].EndLine >= ordered[i].StartLine {
			return fmt.Errorf("editengine: overlapping edits at lines %d-%d and %d-%d",
				ordered[i+1].StartLine, ordered[i+1].EndLine, ordered[i].StartLine, ordered[i].EndLine)
		}
	}

	return nil
}

// spliceLines returns a new slice with lines[start-1:end] (1-based,
// inclusive) replaced by replacement, built fresh to avoid the backing-array
// aliasing hazard of append-based in-place splicing across repeated calls.
func spliceLines(lines []string, start, end int, replacement []string) []string {
	out := make([]string, 0, len(lines)-(end-start+1)+len(replacement))
	out = append(out, lines[:start-1]...)
	out = append(out, replacement...)
	out = append(out, lines[end:]...)

	return out
}

func writeAtomic(path, content string) error {
	tmp := path + ".tmp"

	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("editengine: create temp file: %w", err)
	}

	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(tmp)

		return fmt.Errorf("editengine: write temp file: %w", err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)

		return fmt.Errorf("editengine: fsync temp file: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)

		return fmt.Errorf("editengine: close temp file: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)

		return fmt.Errorf("editengine: rename temp file: %w", err)
	}

	return nil
}

// renderDiff builds a line-level preview diff, mirroring the diff pipeline's
// rune-mapped line diffing: map whole lines to runes so DiffMainRunes
// compares lines as units, then expand the result back to text.
func renderDiff(before, after string) string {
	dmp := diffmatchpatch.New()

	src, dst, lineArray := dmp.DiffLinesToRunes(before, after)
	diffs := dmp.DiffMainRunes(src, dst, false)
	diffs = dmp.DiffCharsToLines(diffs, lineArray)
	diffs = dmp.DiffCleanupSemantic(diffs)

	return dmp.DiffPrettyText(diffs)
}
