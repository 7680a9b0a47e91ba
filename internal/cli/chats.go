package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/runnerr0/recollect/internal/imessage"
	"github.com/runnerr0/recollect/internal/whatsapp"
)

// Execute implements the go-flags Commander interface for ChatsCommand.
func (c *ChatsCommand) Execute(args []string) error {
	cfg, err := loadConfig(c.globals)
	if err != nil {
		return err
	}
	logger := newLogger(cfg, c.globals)

	switch c.Source {
	case "whatsapp":
		if !cfg.Sources.WhatsApp {
			return fmt.Errorf("whatsapp source is disabled in config")
		}
		reader := whatsapp.NewReader()
		reader.ExcludedContacts = cfg.Exclusions.Contacts
		reader.Logger = logger
		return c.executeWhatsApp(reader)
	default:
		if !cfg.Sources.IMessage {
			return fmt.Errorf("imessage source is disabled in config")
		}
		reader := imessage.NewReader()
		reader.Logger = logger
		return c.executeIMessage(reader, cfg.Exclusions.Contacts)
	}
}

func (c *ChatsCommand) executeIMessage(reader *imessage.Reader, excludedContacts []string) error {
	convs, err := reader.Conversations(context.Background(), c.Days, c.Limit, excludedContacts)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(convs)
	}

	if len(convs) == 0 {
		fmt.Printf("No conversations found in the last %d days\n", c.Days)
		return nil
	}
	fmt.Printf("Found %d conversations (last %d days)\n\n", len(convs), c.Days)
	for i, conv := range convs {
		name := conv.DisplayName
		if name == "" {
			name = conv.ChatIdentifier
		}
		fmt.Printf("%d. %s", i+1, name)
		if conv.IsGroup {
			fmt.Printf(" (group, %d participants)", len(conv.Participants))
		}
		fmt.Println()
		fmt.Printf("   %s · %s\n", conv.ChatGUID, conv.LastActivity.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func (c *ChatsCommand) executeWhatsApp(reader *whatsapp.Reader) error {
	convs, accountErrs, err := reader.Conversations(context.Background(), c.Days, c.Limit)
	if err != nil {
		return fmt.Errorf("list conversations: %w", err)
	}
	for acct, aerr := range accountErrs {
		fmt.Fprintf(os.Stderr, "warning: account %s: %v\n", acct, aerr)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(convs)
	}

	if len(convs) == 0 {
		fmt.Printf("No conversations found in the last %d days\n", c.Days)
		return nil
	}
	fmt.Printf("Found %d conversations (last %d days)\n\n", len(convs), c.Days)
	for i, conv := range convs {
		name := conv.Name
		if name == "" {
			name = conv.ContactJID
		}
		fmt.Printf("%d. %s", i+1, name)
		if conv.IsGroup {
			fmt.Printf(" (group, %d participants)", len(conv.Participants))
		}
		fmt.Println()
		meta := []string{conv.ChatGUID, conv.LastActivity.Local().Format("2006-01-02 15:04")}
		if conv.Account != "" {
			meta = append(meta, conv.Account)
		}
		fmt.Printf("   %s\n", strings.Join(meta, " · "))
	}
	return nil
}
