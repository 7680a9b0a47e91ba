package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/runnerr0/recollect/internal/archive"
)

// Execute implements the go-flags Commander interface for RecallCommand.
func (c *RecallCommand) Execute(args []string) error {
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

	return c.executeWithStore(store, args)
}

// executeWithStore runs the search against a provided store (for testing).
func (c *RecallCommand) executeWithStore(store *archive.SQLiteStore, args []string) error {
	query := strings.Join(args, " ")

	now := time.Now()
	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = now.Add(-dur)
	}

	var until time.Time
	if c.Until != "" {
		dur, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("invalid --until value %q: %w", c.Until, err)
		}
		until = now.Add(-dur)
	}

	sq := archive.SearchQuery{
		Query:  query,
		Source: c.Source,
		Kind:   c.Kind,
		Domain: c.Domain,
		Since:  since,
		Until:  until,
		Limit:  c.Limit,
		Offset: c.Offset,
	}

	results, err := store.Search(context.Background(), sq)
	if err != nil {
		return fmt.Errorf("recall failed: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		return c.printJSON(query, results)
	}
	return c.printHuman(query, results)
}

func (c *RecallCommand) printHuman(query string, results []archive.Record) error {
	if len(results) == 0 {
		if query != "" {
			fmt.Printf("No results found for %q (since %s)\n", query, c.Since)
		} else {
			fmt.Printf("No results found (since %s)\n", c.Since)
		}
		return nil
	}

	resultWord := "results"
	if len(results) == 1 {
		resultWord = "result"
	}
	if query != "" {
		fmt.Printf("Found %d %s for %q (since %s)\n\n", len(results), resultWord, query, c.Since)
	} else {
		fmt.Printf("Found %d %s (since %s)\n\n", len(results), resultWord, c.Since)
	}

	for i, r := range results {
		title := r.Title
		if title == "" && r.Text != "" {
			title = r.Text
			if len(title) > 80 {
				title = title[:80] + "…"
			}
		}
		fmt.Printf("%d. %s", i+1+c.Offset, title)
		if r.Domain != "" {
			fmt.Printf(" — %s", r.Domain)
		}
		fmt.Println()

		if r.URL != "" {
			fmt.Printf("   %s\n", r.URL)
		}

		meta := r.Timestamp.Local().Format("2006-01-02 15:04")
		if r.Source != "" {
			meta += " · " + r.Source
		}
		if r.Sender != "" {
			meta += " · " + r.Sender
		}
		fmt.Printf("   %s\n", meta)

		if i < len(results)-1 {
			fmt.Println()
		}
	}

	return nil
}

type jsonResult struct {
	UID       string `json:"uid"`
	Kind      string `json:"kind"`
	Source    string `json:"source"`
	URL       string `json:"url,omitempty"`
	Title     string `json:"title,omitempty"`
	Text      string `json:"text,omitempty"`
	Domain    string `json:"domain,omitempty"`
	Sender    string `json:"sender,omitempty"`
	Timestamp string `json:"timestamp"`
}

type jsonSearchOutput struct {
	Count   int          `json:"count"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *RecallCommand) printJSON(query string, results []archive.Record) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		out.Results[i] = jsonResult{
			UID:       r.UID,
			Kind:      r.Kind,
			Source:    r.Source,
			URL:       r.URL,
			Title:     r.Title,
			Text:      r.Text,
			Domain:    r.Domain,
			Sender:    r.Sender,
			Timestamp: r.Timestamp.UTC().Format(time.RFC3339),
		}
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
