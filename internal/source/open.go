package source

import (
	"database/sql"
	"fmt"
	"os"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// fullDiskAccessHint is appended to permission failures on stores that macOS
// protects behind the Full Disk Access privacy setting.
const fullDiskAccessHint = "Full Disk Access is required: " +
	"System Settings > Privacy & Security > Full Disk Access, " +
	"enable it for your terminal application"

// OpenReadOnly opens a SQLite database strictly read-only and verifies it is
// reachable. Failures are classified: an absent file yields NotFound, an
// OS-level refusal yields PermissionDenied with the Full Disk Access hint,
// anything else QueryFailed.
func OpenReadOnly(source, path string) (*sql.DB, *ReadError) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NotFoundError(source, path)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, ClassifyOpen(source, path, err)
	}
	// sql.Open is lazy; force the actual open so permission errors surface
	// here rather than on the first query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, ClassifyOpen(source, path, err)
	}
	return db, nil
}

// ClassifyOpen turns a SQLite open failure into a typed ReadError.
func ClassifyOpen(source, path string, err error) *ReadError {
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "unable to open") ||
		strings.Contains(msg, "authorization denied") ||
		strings.Contains(msg, "permission denied") {
		return &ReadError{
			Source: source,
			Kind:   PermissionDenied,
			Msg:    fmt.Sprintf("cannot open %s — %s", path, fullDiskAccessHint),
			Err:    err,
		}
	}
	return &ReadError{
		Source: source,
		Kind:   QueryFailed,
		Msg:    fmt.Sprintf("failed to open %s", path),
		Err:    err,
	}
}
