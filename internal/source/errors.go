// Package source holds the pieces shared by all local-database readers:
// failure classification, window clamping, exclusion matching, and safe
// copying of databases a live application may hold locked.
package source

import "fmt"

// Kind classifies why a reader could not serve a request.
type Kind int

const (
	// NotFound means the backing store does not exist on this machine.
	NotFound Kind = iota
	// PermissionDenied means the store exists but the OS refused to open
	// it; the error message names the permission to grant.
	PermissionDenied
	// QueryFailed means the store opened but a query against it failed.
	QueryFailed
)

// ReadError is the typed failure for a single source read.
type ReadError struct {
	Source string // "safari", "chrome", "imessage", "whatsapp"
	Kind   Kind
	Msg    string
	Err    error
}

func (e *ReadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Msg)
}

func (e *ReadError) Unwrap() error { return e.Err }

// NotFoundError builds a ReadError for an absent store.
func NotFoundError(source, path string) *ReadError {
	return &ReadError{
		Source: source,
		Kind:   NotFound,
		Msg:    fmt.Sprintf("database not found at %s", path),
	}
}

// QueryError wraps a failed query.
func QueryError(source string, err error) *ReadError {
	return &ReadError{Source: source, Kind: QueryFailed, Msg: "query failed", Err: err}
}
