package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/recollect/internal/browser"
)

// Execute implements the go-flags Commander interface for HistoryCommand.
func (c *HistoryCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	reader := browser.NewReader()
	reader.ExcludedDomains = cfg.Exclusions.Domains
	reader.Logger = newLogger(cfg, c.globals)

	includeSafari := cfg.Sources.Safari && c.Source != "chrome"
	includeChrome := cfg.Sources.Chrome && c.Source != "safari"

	return c.executeWithReader(reader, includeSafari, includeChrome)
}

// executeWithReader runs the history read against a provided reader (for testing).
func (c *HistoryCommand) executeWithReader(reader *browser.Reader, includeSafari, includeChrome bool) error {
	visits, sourceErrs, err := reader.FetchVisits(context.Background(), c.Days, c.Limit, includeSafari, includeChrome)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}

	for src, serr := range sourceErrs {
		fmt.Fprintf(os.Stderr, "warning: %s: %v\n", src, serr)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(visits)
	}
	return c.printHuman(visits)
}

func (c *HistoryCommand) printHuman(visits []browser.Visit) error {
	if len(visits) == 0 {
		fmt.Printf("No visits found in the last %d days\n", c.Days)
		return nil
	}

	fmt.Printf("Found %d visits (last %d days)\n\n", len(visits), c.Days)
	for i, v := range visits {
		title := v.Title
		if title == "" {
			title = v.URL
		}
		fmt.Printf("%d. %s", i+1, title)
		if v.Domain != "" {
			fmt.Printf(" — %s", v.Domain)
		}
		fmt.Println()
		fmt.Printf("   %s\n", v.URL)
		fmt.Printf("   %s · %s\n", v.VisitedAt.Local().Format("2006-01-02 15:04"), v.SourceType)
		if i < len(visits)-1 {
			fmt.Println()
		}
	}
	return nil
}
