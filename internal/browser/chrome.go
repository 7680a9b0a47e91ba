package browser

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/recollect/internal/epoch"
	"github.com/runnerr0/recollect/internal/source"
)

// chromeWorkers bounds how many profile databases are copied and queried at
// once.
const chromeWorkers = 4

// fetchChrome reads recent visits across all Chrome profiles. A running
// Chrome holds its History files locked, so each profile DB is copied to a
// temporary file first; the copy is removed on every exit path. Per-profile
// failures are logged and skipped — one broken profile must not sink the
// rest.
func (r *Reader) fetchChrome(ctx context.Context, days, limit int) ([]Visit, error) {
	paths := r.chromeHistoryPaths()
	if len(paths) == 0 {
		r.logger().Info("chrome history not found", "dir", r.ChromeDir)
		return nil, nil
	}

	since := time.Now().AddDate(0, 0, -days)
	chromeSince := epoch.TimeToChrome(since)

	perProfileLimit := limit / len(paths)
	if perProfileLimit < 50 {
		perProfileLimit = 50
	}

	var (
		mu     sync.Mutex
		visits []Visit
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(chromeWorkers)

	for _, historyPath := range paths {
		historyPath := historyPath
		g.Go(func() error {
			profile := filepath.Base(filepath.Dir(historyPath))
			pv, err := r.fetchChromeProfile(gctx, historyPath, profile, chromeSince, perProfileLimit)
			if err != nil {
				r.logger().Warn("chrome profile fetch failed", "profile", profile, "error", err)
				return nil // isolate the failure
			}
			mu.Lock()
			visits = append(visits, pv...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(visits, func(i, j int) bool {
		return visits[i].VisitedAt.After(visits[j].VisitedAt)
	})
	if len(visits) > limit {
		visits = visits[:limit]
	}
	return visits, nil
}

func (r *Reader) fetchChromeProfile(ctx context.Context, historyPath, profile string, chromeSince int64, limit int) ([]Visit, error) {
	dbCopy, cleanup, err := source.CopyLocked(historyPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	db, err := sql.Open("sqlite3", "file:"+dbCopy+"?mode=ro")
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `
		SELECT
			v.id AS visit_id,
			v.visit_time AS visit_time,
			v.transition AS transition,
			COALESCE(u.url, '') AS url,
			COALESCE(u.title, '') AS title,
			COALESCE(u.visit_count, 1) AS visit_count
		FROM visits v
		JOIN urls u ON u.id = v.url
		WHERE v.visit_time >= ?
		ORDER BY v.visit_time DESC
		LIMIT ?`, chromeSince, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var (
			visitID    int64
			visitTime  sql.NullInt64
			transition sql.NullInt64
			url, title string
			visitCount int
		)
		if err := rows.Scan(&visitID, &visitTime, &transition, &url, &title, &visitCount); err != nil {
			r.logger().Warn("skipping unreadable chrome row", "profile", profile, "error", err)
			continue
		}

		visitedAt := epoch.ChromeToTime(visitTime.Int64)
		if visitedAt.IsZero() {
			continue
		}

		domain := source.DomainFromURL(url)
		if source.DomainExcluded(domain, r.ExcludedDomains) {
			continue
		}

		id := strconv.FormatInt(visitID, 10)
		visits = append(visits, Visit{
			UID:           visitUID("chrome", profile, id),
			SourceType:    "chrome",
			Profile:       profile,
			SourceVisitID: id,
			URL:           url,
			Title:         title,
			Domain:        domain,
			VisitCount:    visitCount,
			Transition:    strconv.FormatInt(transition.Int64, 10),
			VisitedAt:     visitedAt,
		})
	}
	return visits, rows.Err()
}

// chromeHistoryPaths lists the History database of every profile directory
// under the Chrome base dir, skipping the System Profile.
func (r *Reader) chromeHistoryPaths() []string {
	entries, err := os.ReadDir(r.ChromeDir)
	if err != nil {
		return nil
	}

	var paths []string
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == "System Profile" {
			continue
		}
		history := filepath.Join(r.ChromeDir, entry.Name(), "History")
		if _, err := os.Stat(history); err == nil {
			paths = append(paths, history)
		}
	}
	sort.Strings(paths)
	return paths
}
