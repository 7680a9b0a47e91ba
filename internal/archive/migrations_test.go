package archive

import (
	"database/sql"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrationRunner_FreshDB(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	err := runner.Run()
	require.NoError(t, err)

	expectedTables := []string{
		"records",
		"exclusions",
		"audit_log",
		"schema_migrations",
	}
	for _, table := range expectedTables {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrationRunner_IndexesCreated(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	expectedIndexes := []string{
		"idx_records_ts",
		"idx_records_source",
		"idx_records_kind",
		"idx_records_domain",
		"idx_records_ts_source",
		"idx_exclusions_rule",
		"idx_audit_log_ts",
	}
	for _, idx := range expectedIndexes {
		var name string
		err := db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='index' AND name=?", idx,
		).Scan(&name)
		require.NoError(t, err, "index %s should exist", idx)
		assert.Equal(t, idx, name)
	}
}

func TestMigrationRunner_DefaultExclusions(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM exclusions WHERE is_default = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 18, count, "should have 18 default exclusion rules")

	var domainCount, regexCount int
	err = db.QueryRow("SELECT COUNT(*) FROM exclusions WHERE rule_type = 'domain'").Scan(&domainCount)
	require.NoError(t, err)
	assert.Equal(t, 17, domainCount, "should have 17 domain rules")

	err = db.QueryRow("SELECT COUNT(*) FROM exclusions WHERE rule_type = 'regex'").Scan(&regexCount)
	require.NoError(t, err)
	assert.Equal(t, 1, regexCount, "should have 1 regex rule")
}

func TestMigrationRunner_Idempotent(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)

	// Run migrations twice
	require.NoError(t, runner.Run())
	require.NoError(t, runner.Run())

	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "should have exactly 1 migration recorded after double-run")

	err = db.QueryRow("SELECT COUNT(*) FROM exclusions WHERE is_default = 1").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 18, count, "exclusions should not be duplicated on re-run")
}

func TestMigrationRunner_SchemaMigrationsTracking(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var version int
	var name string
	err := db.QueryRow("SELECT version, name FROM schema_migrations WHERE version = 1").Scan(&version, &name)
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.Equal(t, "initial_schema", name)
}

func TestMigrationRunner_WALMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	// In-memory databases use "memory" journal mode; WAL is set but only
	// takes effect on file-backed DBs. We verify the pragma was executed
	// by checking it's either "wal" or "memory".
	assert.Contains(t, []string{"wal", "memory"}, journalMode,
		"journal_mode should be wal (file) or memory (in-memory)")
}

func TestMigrationRunner_ConfiguredJournalMode(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	runner.JournalMode = "memory"
	require.NoError(t, runner.Run())

	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	assert.Equal(t, "memory", journalMode)
}

func TestMigrationRunner_EmptyJournalModeDefaultsToWAL(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	runner.JournalMode = ""
	require.NoError(t, runner.Run())

	var journalMode string
	err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode)
	require.NoError(t, err)
	assert.Contains(t, []string{"wal", "memory"}, journalMode)
}

func TestMigrationRunner_InvalidJournalModeRejected(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	runner.JournalMode = "wal; DROP TABLE records"

	err := runner.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported journal mode")
}

func TestMigrationRunner_BusyTimeoutApplied(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	runner.BusyTimeout = 2500 * time.Millisecond
	require.NoError(t, runner.Run())

	var timeoutMs int
	err := db.QueryRow("PRAGMA busy_timeout").Scan(&timeoutMs)
	require.NoError(t, err)
	assert.Equal(t, 2500, timeoutMs)
}

func TestMigrationRunner_RecordsTableColumns(t *testing.T) {
	db := openTestDB(t)
	runner := NewMigrationRunner(db)
	require.NoError(t, runner.Run())

	_, err := db.Exec(`
		INSERT INTO records (uid, kind, source, account, url, title, body, domain, sender, ts)
		VALUES ('safari:Default:1', 'visit', 'safari', '', 'https://example.com', 'Test', '', 'example.com', '', CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	var uid, kind, srcName, url, domain string
	err = db.QueryRow("SELECT uid, kind, source, url, domain FROM records WHERE uid = 'safari:Default:1'").
		Scan(&uid, &kind, &srcName, &url, &domain)
	require.NoError(t, err)
	assert.Equal(t, "safari:Default:1", uid)
	assert.Equal(t, "visit", kind)
	assert.Equal(t, "safari", srcName)
	assert.Equal(t, "https://example.com", url)
	assert.Equal(t, "example.com", domain)
}
