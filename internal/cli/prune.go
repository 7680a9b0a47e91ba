package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/recollect/internal/archive"
)

// Execute implements the go-flags Commander interface for PruneCommand.
func (c *PruneCommand) Execute(args []string) error {
	var override time.Duration
	if c.OlderThan != "" {
		var err error
		override, err = parseDuration(c.OlderThan)
		if err != nil {
			return fmt.Errorf("invalid --older-than value %q: %w", c.OlderThan, err)
		}
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	retention := time.Duration(cfg.Archive.RetentionDays) * 24 * time.Hour
	if override > 0 {
		retention = override
	}

	store, db, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(store, retention)
}

// executeWithStore runs the prune against a provided store (for testing).
func (c *PruneCommand) executeWithStore(store *archive.SQLiteStore, retention time.Duration) error {
	ctx := context.Background()
	cutoff := time.Now().Add(-retention)

	if c.DryRun {
		old, err := store.Search(ctx, archive.SearchQuery{Until: cutoff, Limit: 100000})
		if err != nil {
			return fmt.Errorf("count prunable records: %w", err)
		}
		if c.globals != nil && c.globals.JSON {
			out := map[string]interface{}{"dry_run": true, "would_prune": len(old)}
			enc := json.NewEncoder(os.Stdout)
			return enc.Encode(out)
		}
		fmt.Printf("Would prune %d records older than %s\n", len(old), cutoff.Local().Format("2006-01-02"))
		return nil
	}

	pruned, err := store.PruneBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("prune failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		out := map[string]interface{}{"pruned": pruned}
		enc := json.NewEncoder(os.Stdout)
		return enc.Encode(out)
	}

	fmt.Printf("Pruned %d records older than %s\n", pruned, cutoff.Local().Format("2006-01-02"))
	return nil
}
