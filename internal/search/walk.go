package search

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pityka/tilth/internal/skipdirs"
)

// maxSearchFileSize bounds which files symbol/content search will open and
// parse, mirroring the index's 500 KB cap.
const maxSearchFileSize = 500_000

// walkFiles visits every regular file under scope, skipping junk
// directories, exactly mirroring the original walker()/SKIP_DIRS builder:
// it does not consult .gitignore, so locally-relevant gitignored files
// remain searchable.
func walkFiles(scope string, fn func(path string, d fs.DirEntry)) {
	_ = filepath.WalkDir(scope, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort walk, skip unreadable entries
		}

		if d.IsDir() {
			if path != scope && skipdirs.Skip(d.Name()) {
				return filepath.SkipDir
			}

			return nil
		}

		fn(path, d)

		return nil
	})
}

// fileMetadata returns a file's estimated line count (byte_len/40, minimum
// 1) and mtime from a single stat() call.
func fileMetadata(path string) (estLines int, mtime time.Time, ok bool) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, time.Time{}, false
	}

	est := int(info.Size() / 40)
	if est < 1 {
		est = 1
	}

	return est, info.ModTime(), true
}
