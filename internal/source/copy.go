package source

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// CopyLocked copies a database file a live application may hold an exclusive
// lock on (Chrome keeps its History file locked while running) into a private
// temporary file. The returned cleanup func removes the copy and must be
// called on every exit path, success or failure.
func CopyLocked(path string) (string, func(), error) {
	dst := filepath.Join(os.TempDir(), fmt.Sprintf("recollect-%s.db", uuid.NewString()))

	in, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return "", nil, fmt.Errorf("create temp copy: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", nil, fmt.Errorf("copy %s: %w", path, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dst)
		return "", nil, fmt.Errorf("flush temp copy: %w", err)
	}

	cleanup := func() { os.Remove(dst) }
	return dst, cleanup, nil
}
