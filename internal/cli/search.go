package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/recollect/internal/webfetch"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("search requires a query")
	}
	query := strings.Join(args, " ")

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	client, err := webfetch.NewSearchClient(os.Getenv(cfg.Search.APIKeyEnv))
	if err != nil {
		return fmt.Errorf("search unavailable: set %s: %w", cfg.Search.APIKeyEnv, err)
	}
	client.Logger = newLogger(cfg, c.globals)

	count := c.Count
	if count <= 0 {
		count = cfg.Search.MaxResults
	}

	results, err := client.Search(context.Background(), query, count)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		fmt.Printf("No results found for %q\n", query)
		return nil
	}
	fmt.Printf("Found %d results for %q\n\n", len(results), query)
	for i, r := range results {
		fmt.Printf("%d. %s\n", i+1, r.Title)
		fmt.Printf("   %s\n", r.URL)
		if r.Description != "" {
			fmt.Printf("   %s\n", r.Description)
		}
		if i < len(results)-1 {
			fmt.Println()
		}
	}
	return nil
}
