package browser

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/runnerr0/recollect/internal/epoch"
	"github.com/runnerr0/recollect/internal/source"
)

// fetchSafari reads recent visits from History.db. An absent database is an
// empty result, not an error — Safari may simply never have run. A present
// but unopenable one surfaces the Full Disk Access hint.
func (r *Reader) fetchSafari(ctx context.Context, days, limit int) ([]Visit, error) {
	if _, err := os.Stat(r.SafariPath); os.IsNotExist(err) {
		r.logger().Info("safari history not found", "path", r.SafariPath)
		return nil, nil
	}

	db, rerr := source.OpenReadOnly("safari", r.SafariPath)
	if rerr != nil {
		return nil, rerr
	}
	defer db.Close()

	since := time.Now().AddDate(0, 0, -days)
	safariSince := epoch.TimeToApple(since, epoch.Seconds)

	// History.db schema drifted across macOS versions; feature-detect the
	// optional columns instead of assuming them.
	itemCols, err := tableColumns(ctx, db, "history_items")
	if err != nil {
		return nil, source.QueryError("safari", err)
	}
	visitCols, err := tableColumns(ctx, db, "history_visits")
	if err != nil {
		return nil, source.QueryError("safari", err)
	}

	titleExpr := "''"
	if visitCols["title"] {
		titleExpr = "COALESCE(hv.title, '')"
	} else if itemCols["title"] {
		titleExpr = "COALESCE(hi.title, '')"
	}
	visitCountExpr := "1"
	if itemCols["visit_count"] {
		visitCountExpr = "COALESCE(hi.visit_count, 1)"
	}

	query := fmt.Sprintf(`
		SELECT
			hv.id AS visit_id,
			hv.visit_time AS visit_time,
			COALESCE(hi.url, '') AS url,
			%s AS title,
			%s AS visit_count
		FROM history_visits hv
		JOIN history_items hi ON hi.id = hv.history_item
		WHERE hv.visit_time >= ?
		ORDER BY hv.visit_time DESC
		LIMIT ?`, titleExpr, visitCountExpr)

	rows, err := db.QueryContext(ctx, query, safariSince, limit)
	if err != nil {
		return nil, source.QueryError("safari", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var (
			visitID    int64
			visitTime  sql.NullFloat64
			url, title string
			visitCount int
		)
		if err := rows.Scan(&visitID, &visitTime, &url, &title, &visitCount); err != nil {
			r.logger().Warn("skipping unreadable safari row", "error", err)
			continue
		}

		visitedAt := epoch.AppleToTime(visitTime.Float64, epoch.Seconds)
		if visitedAt.IsZero() {
			continue
		}

		domain := source.DomainFromURL(url)
		if source.DomainExcluded(domain, r.ExcludedDomains) {
			continue
		}

		id := strconv.FormatInt(visitID, 10)
		visits = append(visits, Visit{
			UID:           visitUID("safari", "Default", id),
			SourceType:    "safari",
			Profile:       "Default",
			SourceVisitID: id,
			URL:           url,
			Title:         title,
			Domain:        domain,
			VisitCount:    visitCount,
			VisitedAt:     visitedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, source.QueryError("safari", err)
	}
	return visits, nil
}

// tableColumns returns the column names of a table via PRAGMA table_info.
func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]bool)
	for rows.Next() {
		var (
			cid     int
			name    string
			ctype   string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		cols[name] = true
	}
	return cols, rows.Err()
}
