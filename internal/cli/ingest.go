package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/recollect/internal/archive"
	"github.com/runnerr0/recollect/internal/browser"
	"github.com/runnerr0/recollect/internal/imessage"
	"github.com/runnerr0/recollect/internal/whatsapp"
)

// ingestReport summarizes one ingest run.
type ingestReport struct {
	Stored       int               `json:"stored"`
	BySource     map[string]int    `json:"by_source"`
	SourceErrors map[string]string `json:"source_errors,omitempty"`
}

// Execute implements the go-flags Commander interface for IngestCommand.
func (c *IngestCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, c.globals)

	store, db, err := openArchive(cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	ctx := context.Background()
	report := ingestReport{
		BySource:     make(map[string]int),
		SourceErrors: make(map[string]string),
	}
	enabled := 0

	if cfg.Sources.Safari || cfg.Sources.Chrome {
		enabled++
		reader := browser.NewReader()
		reader.ExcludedDomains = cfg.Exclusions.Domains
		reader.Logger = logger

		visits, sourceErrs, err := reader.FetchVisits(ctx, c.Days, c.Limit, cfg.Sources.Safari, cfg.Sources.Chrome)
		for src, serr := range sourceErrs {
			report.SourceErrors[src] = serr.Error()
		}
		if err != nil {
			report.SourceErrors["browser"] = err.Error()
		} else {
			n, err := store.PutBatch(ctx, visitRecords(visits))
			if err != nil {
				return fmt.Errorf("store browser visits: %w", err)
			}
			report.BySource["browser"] = n
			report.Stored += n
		}
	}

	if cfg.Sources.IMessage {
		enabled++
		reader := imessage.NewReader()
		reader.Logger = logger

		msgs, err := reader.Messages(ctx, "", c.Days, c.Limit)
		if err != nil {
			report.SourceErrors["imessage"] = err.Error()
		} else {
			n, err := store.PutBatch(ctx, imessageRecords(msgs))
			if err != nil {
				return fmt.Errorf("store imessage messages: %w", err)
			}
			report.BySource["imessage"] = n
			report.Stored += n
		}
	}

	if cfg.Sources.WhatsApp {
		enabled++
		reader := whatsapp.NewReader()
		reader.ExcludedContacts = cfg.Exclusions.Contacts
		reader.Logger = logger

		convs, accountErrs, err := reader.Conversations(ctx, c.Days, c.Limit)
		for acct, aerr := range accountErrs {
			report.SourceErrors["whatsapp:"+acct] = aerr.Error()
		}
		if err != nil {
			report.SourceErrors["whatsapp"] = err.Error()
		} else {
			n, err := store.PutBatch(ctx, whatsappRecords(convs))
			if err != nil {
				return fmt.Errorf("store whatsapp conversations: %w", err)
			}
			report.BySource["whatsapp"] = n
			report.Stored += n
		}
	}

	if enabled == 0 {
		return fmt.Errorf("no sources enabled in config")
	}

	// Partial failure is reported but not fatal; raise only when every
	// enabled source failed and nothing was stored.
	if report.Stored == 0 && len(report.BySource) == 0 && len(report.SourceErrors) > 0 {
		return fmt.Errorf("all sources failed: %v", report.SourceErrors)
	}

	if len(report.SourceErrors) == 0 {
		report.SourceErrors = nil
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Printf("Stored %d records (last %d days)\n", report.Stored, c.Days)
	for src, n := range report.BySource {
		fmt.Printf("  %-10s %d\n", src, n)
	}
	for src, msg := range report.SourceErrors {
		fmt.Fprintf(os.Stderr, "warning: %s: %s\n", src, msg)
	}
	return nil
}

func visitRecords(visits []browser.Visit) []archive.Record {
	recs := make([]archive.Record, 0, len(visits))
	for _, v := range visits {
		recs = append(recs, archive.Record{
			UID:       v.UID,
			Kind:      "visit",
			Source:    v.SourceType,
			Account:   v.Profile,
			URL:       v.URL,
			Title:     v.Title,
			Domain:    v.Domain,
			Timestamp: v.VisitedAt,
		})
	}
	return recs
}

func imessageRecords(msgs []imessage.Message) []archive.Record {
	recs := make([]archive.Record, 0, len(msgs))
	for _, m := range msgs {
		sender := m.HandleID
		if m.FromMe {
			sender = "me"
		}
		recs = append(recs, archive.Record{
			UID:       m.UID,
			Kind:      "message",
			Source:    "imessage",
			Text:      m.Text,
			Sender:    sender,
			Timestamp: m.Date,
		})
	}
	return recs
}

func whatsappRecords(convs []whatsapp.Conversation) []archive.Record {
	recs := make([]archive.Record, 0, len(convs))
	for _, conv := range convs {
		title := conv.Name
		if title == "" {
			title = conv.ContactJID
		}
		recs = append(recs, archive.Record{
			UID:       conv.ChatGUID,
			Kind:      "conversation",
			Source:    "whatsapp",
			Account:   conv.Account,
			Title:     title,
			Sender:    conv.ContactJID,
			Timestamp: conv.LastActivity,
		})
	}
	return recs
}
