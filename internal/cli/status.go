package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/recollect/internal/archive"
	"github.com/runnerr0/recollect/internal/config"
)

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version           string            `json:"version"`
	DatabasePath      string            `json:"database_path"`
	DatabaseSizeBytes int64             `json:"database_size_bytes"`
	TotalRecords      int64             `json:"total_records"`
	OldestRecord      string            `json:"oldest_record,omitempty"`
	NewestRecord      string            `json:"newest_record,omitempty"`
	RetentionDays     int               `json:"retention_days"`
	BySource          []sourceCountJSON `json:"by_source"`
	TopDomains        []domainCountJSON `json:"top_domains"`
}

type sourceCountJSON struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

type domainCountJSON struct {
	Domain string `json:"domain"`
	Count  int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	store, db, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	dbPath, err := archiveDBPath(cfg)
	if err != nil {
		return err
	}
	return c.executeWithStore(store, db, dbPath, cfg)
}

// executeWithStore runs status against a provided store and db (for testing).
func (c *StatusCommand) executeWithStore(store *archive.SQLiteStore, db *sql.DB, dbPath string, cfg *config.Config) error {
	stats, err := store.GetStats(context.Background())
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	dbSize := getDatabaseSize(db, dbPath)
	retentionDays := cfg.Archive.RetentionDays

	if c.globals != nil && c.globals.JSON {
		return c.printStatusJSON(stats, dbPath, dbSize, retentionDays)
	}
	return c.printStatusHuman(stats, dbPath, dbSize, retentionDays, cfg)
}

func (c *StatusCommand) printStatusHuman(stats *archive.Stats, dbPath string, dbSize int64, retentionDays int, cfg *config.Config) error {
	fmt.Println("Recollect Status")
	fmt.Println("================")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	fmt.Printf("Records:       %s\n", formatNumber(stats.TotalRecords))

	if stats.TotalRecords > 0 {
		fmt.Printf("Oldest:        %s\n", stats.OldestRecord.Local().Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", stats.NewestRecord.Local().Format("2006-01-02"))
	}

	fmt.Printf("Retention:     %d days\n", retentionDays)

	if len(stats.BySource) > 0 {
		fmt.Println()
		fmt.Println("By Source:")
		for _, s := range stats.BySource {
			fmt.Printf("  %-12s %s\n", s.Source, formatNumber(s.Count))
		}
	}

	if len(stats.TopDomains) > 0 {
		fmt.Println()
		fmt.Println("Top Domains:")
		for _, d := range stats.TopDomains {
			fmt.Printf("  %-20s %s\n", d.Domain, formatNumber(d.Count))
		}
	}

	fmt.Println()
	fmt.Println("Sources:")
	fmt.Printf("  safari:      %s\n", enabledWord(cfg.Sources.Safari))
	fmt.Printf("  chrome:      %s\n", enabledWord(cfg.Sources.Chrome))
	fmt.Printf("  imessage:    %s\n", enabledWord(cfg.Sources.IMessage))
	fmt.Printf("  whatsapp:    %s\n", enabledWord(cfg.Sources.WhatsApp))

	return nil
}

func enabledWord(on bool) string {
	if on {
		return "enabled"
	}
	return "disabled"
}

func (c *StatusCommand) printStatusJSON(stats *archive.Stats, dbPath string, dbSize int64, retentionDays int) error {
	out := statusJSON{
		Version:           c.version,
		DatabasePath:      dbPath,
		DatabaseSizeBytes: dbSize,
		TotalRecords:      stats.TotalRecords,
		RetentionDays:     retentionDays,
		BySource:          make([]sourceCountJSON, len(stats.BySource)),
		TopDomains:        make([]domainCountJSON, len(stats.TopDomains)),
	}

	if stats.TotalRecords > 0 {
		out.OldestRecord = stats.OldestRecord.UTC().Format(time.RFC3339)
		out.NewestRecord = stats.NewestRecord.UTC().Format(time.RFC3339)
	}

	for i, s := range stats.BySource {
		out.BySource[i] = sourceCountJSON{Source: s.Source, Count: s.Count}
	}
	for i, d := range stats.TopDomains {
		out.TopDomains[i] = domainCountJSON{Domain: d.Domain, Count: d.Count}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	// Try file stat first
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	// Fallback: query SQLite for in-memory or unavailable file
	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}
