// Package browser reads Safari and Chrome history databases, normalizing
// visits into a single record shape bounded by a lookback window.
package browser

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"github.com/runnerr0/recollect/internal/source"
)

// maxWindowDays hard-caps browser ingestion; larger windows are clamped.
const maxWindowDays = 30

// Reader fetches windowed browser history. Paths default to the standard
// macOS locations and are overridable for tests.
type Reader struct {
	SafariPath      string
	ChromeDir       string
	ExcludedDomains []string
	Logger          *slog.Logger
}

// NewReader builds a Reader pointed at the standard store locations.
func NewReader() *Reader {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Reader{
		SafariPath: filepath.Join(home, "Library", "Safari", "History.db"),
		ChromeDir:  filepath.Join(home, "Library", "Application Support", "Google", "Chrome"),
		Logger:     slog.Default(),
	}
}

// FetchVisits reads visits newer than days ago from the enabled sources.
// The limit applies per source before the merged result is re-sorted newest
// first and truncated to limit globally.
//
// Per-source failures are collected into the returned map and do not abort
// the fetch; the error return is non-nil only when every enabled source
// failed and no records were produced (the first failure is surfaced).
func (r *Reader) FetchVisits(ctx context.Context, days, limit int, includeSafari, includeChrome bool) ([]Visit, map[string]error, error) {
	days = source.ClampDays(days, maxWindowDays)
	if limit < 1 {
		limit = 1
	}

	var visits []Visit
	sourceErrs := make(map[string]error)
	var firstErr error

	if includeSafari {
		sv, err := r.fetchSafari(ctx, days, limit)
		if err != nil {
			sourceErrs["safari"] = err
			if firstErr == nil {
				firstErr = err
			}
			r.logger().Warn("safari history fetch failed", "error", err)
		} else {
			visits = append(visits, sv...)
		}
	}
	if includeChrome {
		cv, err := r.fetchChrome(ctx, days, limit)
		if err != nil {
			sourceErrs["chrome"] = err
			if firstErr == nil {
				firstErr = err
			}
			r.logger().Warn("chrome history fetch failed", "error", err)
		} else {
			visits = append(visits, cv...)
		}
	}

	if len(visits) == 0 && len(sourceErrs) > 0 && firstErr != nil &&
		len(sourceErrs) == enabledCount(includeSafari, includeChrome) {
		return nil, sourceErrs, firstErr
	}

	sort.Slice(visits, func(i, j int) bool {
		return visits[i].VisitedAt.After(visits[j].VisitedAt)
	})
	if len(visits) > limit {
		visits = visits[:limit]
	}
	return visits, sourceErrs, nil
}

func enabledCount(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
