package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/recollect/internal/archive"
	"github.com/runnerr0/recollect/internal/source"
	"github.com/runnerr0/recollect/internal/webfetch"
)

// Execute implements the go-flags Commander interface for FetchCommand.
func (c *FetchCommand) Execute(args []string) error {
	if c.URL == "" {
		return fmt.Errorf("--url is required")
	}

	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}

	fetcher := webfetch.NewFetcher()
	fetcher.Logger = newLogger(cfg, c.globals)
	if cfg.Fetch.MaxRedirects > 0 {
		fetcher.MaxRedirects = cfg.Fetch.MaxRedirects
	}
	if cfg.Fetch.MaxResponseBytes > 0 {
		fetcher.MaxResponseBytes = int64(cfg.Fetch.MaxResponseBytes)
	}
	if cfg.Fetch.TimeoutSeconds > 0 {
		fetcher.Timeout = time.Duration(cfg.Fetch.TimeoutSeconds) * time.Second
	}
	result, err := fetcher.Fetch(context.Background(), c.URL, c.mode(), c.MaxLength)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}

	if c.Save {
		store, db, err := openArchive(cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		defer store.Close()

		rec := &archive.Record{
			UID:       "web:page:" + result.FinalURL,
			Kind:      "page",
			Source:    "web",
			URL:       result.FinalURL,
			Title:     result.FinalURL,
			Text:      result.Content,
			Domain:    source.DomainFromURL(result.FinalURL),
			Timestamp: time.Now(),
		}
		if err := store.Put(context.Background(), rec); err != nil {
			return fmt.Errorf("save page: %w", err)
		}
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return c.printHuman(result)
}

func (c *FetchCommand) mode() webfetch.ExtractMode {
	switch c.Mode {
	case "raw":
		return webfetch.ModeRaw
	case "links":
		return webfetch.ModeLinks
	default:
		return webfetch.ModeText
	}
}

func (c *FetchCommand) printHuman(result *webfetch.Result) error {
	fmt.Printf("%s (%d)\n\n", result.FinalURL, result.StatusCode)
	if c.Mode == "links" {
		fmt.Printf("Found %d links", result.LinkCount)
		if result.LinkCount > len(result.Links) {
			fmt.Printf(" (showing %d)", len(result.Links))
		}
		fmt.Println()
		for _, l := range result.Links {
			if l.Text != "" {
				fmt.Printf("  %s — %s\n", l.Text, l.Href)
			} else {
				fmt.Printf("  %s\n", l.Href)
			}
		}
		return nil
	}
	fmt.Println(result.Content)
	return nil
}
