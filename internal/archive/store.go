// Package archive persists normalized connector records in a local SQLite
// database with full-text search. Writes are idempotent: a record is keyed
// by its deterministic uid, and re-ingesting the same rows replaces rather
// than duplicates.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Store defines the interface for archive data operations.
type Store interface {
	Put(ctx context.Context, rec *Record) error
	PutBatch(ctx context.Context, recs []Record) (int, error)
	Get(ctx context.Context, uid string) (*Record, error)
	Search(ctx context.Context, query SearchQuery) ([]Record, error)
	Delete(ctx context.Context, uid string) error
	PruneBefore(ctx context.Context, olderThan time.Time) (int64, error)
	PurgeAll(ctx context.Context) error
	GetStats(ctx context.Context) (*Stats, error)
	Close() error
}

// SQLiteStore implements Store backed by a SQLite database.
type SQLiteStore struct {
	db *sql.DB

	// Prepared statements
	upsertRecord *sql.Stmt
	getRecord    *sql.Stmt
	deleteRecord *sql.Stmt
	deleteFTS    *sql.Stmt
	insertFTS    *sql.Stmt

	// Cached exclusion rules (loaded once at init)
	domainExclusions []string
	regexExclusions  []*regexp.Regexp
}

// NewSQLiteStore creates a new SQLiteStore from an already-opened and
// migrated database.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}

	if err := s.initFTS(); err != nil {
		return nil, fmt.Errorf("init FTS: %w", err)
	}

	if err := s.prepareStatements(); err != nil {
		return nil, fmt.Errorf("prepare statements: %w", err)
	}

	if err := s.loadExclusions(); err != nil {
		return nil, fmt.Errorf("load exclusions: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) prepareStatements() error {
	var err error

	s.upsertRecord, err = s.db.Prepare(`
		INSERT INTO records (uid, kind, source, account, url, title, body, domain, sender, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uid) DO UPDATE SET
			kind = excluded.kind,
			source = excluded.source,
			account = excluded.account,
			url = excluded.url,
			title = excluded.title,
			body = excluded.body,
			domain = excluded.domain,
			sender = excluded.sender,
			ts = excluded.ts,
			updated_at = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return err
	}

	s.getRecord, err = s.db.Prepare(`
		SELECT uid, kind, source, account, url, title, body, domain, sender, ts
		FROM records WHERE uid = ?
	`)
	if err != nil {
		return err
	}

	s.deleteRecord, err = s.db.Prepare(`DELETE FROM records WHERE uid = ?`)
	if err != nil {
		return err
	}

	s.deleteFTS, err = s.db.Prepare(`DELETE FROM records_fts WHERE uid = ?`)
	if err != nil {
		return err
	}

	s.insertFTS, err = s.db.Prepare(`
		INSERT INTO records_fts (uid, title, url, body) VALUES (?, ?, ?, ?)
	`)
	return err
}

// initFTS creates the FTS5 virtual table for full-text search if it doesn't exist.
func (s *SQLiteStore) initFTS() error {
	_, err := s.db.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS records_fts USING fts5(
			uid UNINDEXED,
			title,
			url,
			body,
			tokenize='unicode61'
		)
	`)
	return err
}

// loadExclusions loads domain and regex exclusion rules from the database.
func (s *SQLiteStore) loadExclusions() error {
	rows, err := s.db.Query("SELECT rule_type, rule_value FROM exclusions")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var ruleType, ruleValue string
		if err := rows.Scan(&ruleType, &ruleValue); err != nil {
			return err
		}
		switch ruleType {
		case "domain":
			s.domainExclusions = append(s.domainExclusions, ruleValue)
		case "regex":
			re, err := regexp.Compile(ruleValue)
			if err != nil {
				continue // skip invalid regex
			}
			s.regexExclusions = append(s.regexExclusions, re)
		}
	}

	return rows.Err()
}

// isExcluded checks if a domain is blocked by exclusion rules.
func (s *SQLiteStore) isExcluded(domain string) bool {
	for _, d := range s.domainExclusions {
		if d == domain {
			return true
		}
	}
	for _, re := range s.regexExclusions {
		if re.MatchString(domain) {
			return true
		}
	}
	return false
}

// ftsQuery converts a user search string into a valid FTS5 query.
// Each word becomes a quoted prefix token joined with OR.
func ftsQuery(input string) string {
	words := strings.Fields(input)
	if len(words) == 0 {
		return ""
	}
	var parts []string
	for _, w := range words {
		// Quote each term, add prefix wildcard for partial matching
		parts = append(parts, `"`+w+`"*`)
	}
	return strings.Join(parts, " OR ")
}

// parseTimestamp tries several common SQLite timestamp formats.
func parseTimestamp(s string) (time.Time, error) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp: %s", s)
}

// Put upserts a record keyed by its uid. Records with an excluded domain
// are silently skipped. A missing uid is an error: idempotency depends on
// the caller-supplied deterministic identifier.
func (s *SQLiteStore) Put(ctx context.Context, rec *Record) error {
	if rec.UID == "" {
		return fmt.Errorf("record has no uid")
	}

	if s.isExcluded(rec.Domain) {
		return nil // silently skip
	}

	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	tsFormatted := rec.Timestamp.UTC().Format(time.RFC3339)
	_, err = tx.StmtContext(ctx, s.upsertRecord).ExecContext(ctx,
		rec.UID, rec.Kind, rec.Source, rec.Account, rec.URL,
		rec.Title, rec.Text, rec.Domain, rec.Sender, tsFormatted,
	)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}

	// Replace the FTS row so re-ingestion never duplicates index entries.
	if _, err := tx.StmtContext(ctx, s.deleteFTS).ExecContext(ctx, rec.UID); err != nil {
		return fmt.Errorf("delete FTS entry: %w", err)
	}
	if _, err := tx.StmtContext(ctx, s.insertFTS).ExecContext(ctx,
		rec.UID, rec.Title, rec.URL, rec.Text,
	); err != nil {
		return fmt.Errorf("insert FTS: %w", err)
	}

	return tx.Commit()
}

// PutBatch upserts records one by one and returns how many were stored.
// Excluded records are skipped without counting.
func (s *SQLiteStore) PutBatch(ctx context.Context, recs []Record) (int, error) {
	stored := 0
	for i := range recs {
		if s.isExcluded(recs[i].Domain) {
			continue
		}
		if err := s.Put(ctx, &recs[i]); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}

// Get retrieves a single record by uid.
func (s *SQLiteStore) Get(ctx context.Context, uid string) (*Record, error) {
	var r Record
	var tsStr string

	err := s.getRecord.QueryRowContext(ctx, uid).Scan(
		&r.UID, &r.Kind, &r.Source, &r.Account, &r.URL,
		&r.Title, &r.Text, &r.Domain, &r.Sender, &tsStr,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("record %s not found", uid)
		}
		return nil, fmt.Errorf("get record: %w", err)
	}

	r.Timestamp, _ = parseTimestamp(tsStr)
	return &r, nil
}

// Search queries records with optional filters.
func (s *SQLiteStore) Search(ctx context.Context, q SearchQuery) ([]Record, error) {
	if q.Limit <= 0 {
		q.Limit = 50
	}

	// If there's a text query, use FTS
	if q.Query != "" {
		return s.searchFTS(ctx, q)
	}

	return s.searchFiltered(ctx, q)
}

// searchFTS uses the FTS5 index for keyword search, then joins with the
// records table for filtering.
func (s *SQLiteStore) searchFTS(ctx context.Context, q SearchQuery) ([]Record, error) {
	var clauses []string
	var args []interface{}

	baseQuery := `
		SELECT r.uid, r.kind, r.source, r.account, r.url, r.title, r.body,
		       r.domain, r.sender, r.ts
		FROM records_fts f
		JOIN records r ON r.uid = f.uid
	`

	clauses = append(clauses, "records_fts MATCH ?")
	args = append(args, ftsQuery(q.Query))

	if q.Source != "" {
		clauses = append(clauses, "r.source = ?")
		args = append(args, q.Source)
	}
	if q.Kind != "" {
		clauses = append(clauses, "r.kind = ?")
		args = append(args, q.Kind)
	}
	if q.Domain != "" {
		clauses = append(clauses, "r.domain = ?")
		args = append(args, q.Domain)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "r.ts >= ?")
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "r.ts <= ?")
		args = append(args, q.Until.UTC().Format(time.RFC3339))
	}

	fullQuery := baseQuery + " WHERE " + strings.Join(clauses, " AND ") +
		" ORDER BY rank LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	return s.scanRecords(ctx, fullQuery, args...)
}

// searchFiltered queries records using standard SQL filters (no FTS).
func (s *SQLiteStore) searchFiltered(ctx context.Context, q SearchQuery) ([]Record, error) {
	var clauses []string
	var args []interface{}

	baseQuery := `
		SELECT uid, kind, source, account, url, title, body, domain, sender, ts
		FROM records
	`

	if q.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, q.Source)
	}
	if q.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, q.Kind)
	}
	if q.Domain != "" {
		clauses = append(clauses, "domain = ?")
		args = append(args, q.Domain)
	}
	if !q.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, q.Since.UTC().Format(time.RFC3339))
	}
	if !q.Until.IsZero() {
		clauses = append(clauses, "ts <= ?")
		args = append(args, q.Until.UTC().Format(time.RFC3339))
	}

	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	fullQuery := baseQuery + where + " ORDER BY ts DESC LIMIT ? OFFSET ?"
	args = append(args, q.Limit, q.Offset)

	return s.scanRecords(ctx, fullQuery, args...)
}

// scanRecords executes a query and scans results into Record slices.
func (s *SQLiteStore) scanRecords(ctx context.Context, query string, args ...interface{}) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		var tsStr string
		if err := rows.Scan(
			&r.UID, &r.Kind, &r.Source, &r.Account, &r.URL,
			&r.Title, &r.Text, &r.Domain, &r.Sender, &tsStr,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Timestamp, _ = parseTimestamp(tsStr)
		records = append(records, r)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Return empty slice rather than nil
	if records == nil {
		records = []Record{}
	}

	return records, nil
}

// Delete removes a record by uid, including its FTS entry.
func (s *SQLiteStore) Delete(ctx context.Context, uid string) error {
	if _, err := s.deleteFTS.ExecContext(ctx, uid); err != nil {
		return fmt.Errorf("delete FTS entry: %w", err)
	}

	res, err := s.deleteRecord.ExecContext(ctx, uid)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("record %s not found", uid)
	}

	return nil
}

// PruneBefore deletes records with timestamps before olderThan.
func (s *SQLiteStore) PruneBefore(ctx context.Context, olderThan time.Time) (int64, error) {
	tsFormatted := olderThan.UTC().Format(time.RFC3339)

	// Clean FTS entries first
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM records_fts WHERE uid IN (
			SELECT uid FROM records WHERE ts < ?
		)`, tsFormatted,
	)
	if err != nil {
		return 0, fmt.Errorf("prune FTS: %w", err)
	}

	res, err := s.db.ExecContext(ctx, "DELETE FROM records WHERE ts < ?", tsFormatted)
	if err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}

	return res.RowsAffected()
}

// PurgeAll deletes all records.
func (s *SQLiteStore) PurgeAll(ctx context.Context) error {
	stmts := []string{
		"DROP TABLE IF EXISTS records_fts",
		"DELETE FROM records",
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("purge (%s): %w", stmt, err)
		}
	}
	// Recreate FTS table
	return s.initFTS()
}

// GetStats returns aggregate statistics about the database.
func (s *SQLiteStore) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}

	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM records").Scan(&stats.TotalRecords)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}

	// Oldest and newest (handle empty DB)
	if stats.TotalRecords > 0 {
		var oldestStr, newestStr string
		err = s.db.QueryRowContext(ctx, "SELECT MIN(ts), MAX(ts) FROM records").Scan(&oldestStr, &newestStr)
		if err != nil {
			return nil, fmt.Errorf("record time range: %w", err)
		}
		stats.OldestRecord, _ = parseTimestamp(oldestStr)
		stats.NewestRecord, _ = parseTimestamp(newestStr)
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, COUNT(*) as cnt FROM records GROUP BY source ORDER BY cnt DESC",
	)
	if err != nil {
		return nil, fmt.Errorf("count by source: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var sc SourceCount
		if err := rows.Scan(&sc.Source, &sc.Count); err != nil {
			return nil, err
		}
		stats.BySource = append(stats.BySource, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	domRows, err := s.db.QueryContext(ctx,
		"SELECT domain, COUNT(*) as cnt FROM records WHERE domain != '' GROUP BY domain ORDER BY cnt DESC LIMIT 10",
	)
	if err != nil {
		return nil, fmt.Errorf("top domains: %w", err)
	}
	defer domRows.Close()
	for domRows.Next() {
		var dc DomainCount
		if err := domRows.Scan(&dc.Domain, &dc.Count); err != nil {
			return nil, err
		}
		stats.TopDomains = append(stats.TopDomains, dc)
	}

	return stats, domRows.Err()
}

// Close releases all prepared statements. The underlying *sql.DB is NOT
// closed — that is the caller's responsibility.
func (s *SQLiteStore) Close() error {
	stmts := []*sql.Stmt{
		s.upsertRecord, s.getRecord, s.deleteRecord,
		s.deleteFTS, s.insertFTS,
	}
	for _, stmt := range stmts {
		if stmt != nil {
			stmt.Close()
		}
	}
	return nil
}
