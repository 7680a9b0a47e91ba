package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/runnerr0/recollect/internal/imessage"
	"github.com/runnerr0/recollect/internal/whatsapp"
)

// Execute implements the go-flags Commander interface for MessagesCommand.
func (c *MessagesCommand) Execute(args []string) error {
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
		if c.Chat == "" {
			return fmt.Errorf("--chat is required for whatsapp messages")
		}
		reader := whatsapp.NewReader()
		reader.Logger = logger
		acct, ok := findAccount(reader.Accounts, c.Account)
		if !ok {
			return fmt.Errorf("whatsapp account %q not found", c.Account)
		}
		return c.executeWhatsApp(reader, acct)
	default:
		if !cfg.Sources.IMessage {
			return fmt.Errorf("imessage source is disabled in config")
		}
		reader := imessage.NewReader()
		reader.Logger = logger
		return c.executeIMessage(reader)
	}
}

func findAccount(accounts []whatsapp.Account, name string) (whatsapp.Account, bool) {
	for _, a := range accounts {
		if a.Name == name {
			return a, true
		}
	}
	return whatsapp.Account{}, false
}

func (c *MessagesCommand) executeIMessage(reader *imessage.Reader) error {
	msgs, err := reader.Messages(context.Background(), c.Chat, c.Days, c.Limit)
	if err != nil {
		return fmt.Errorf("read messages: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}

	if len(msgs) == 0 {
		fmt.Printf("No messages found in the last %d days\n", c.Days)
		return nil
	}
	for _, m := range msgs {
		sender := m.HandleID
		if m.FromMe {
			sender = "me"
		}
		fmt.Printf("[%s] %s: %s\n", m.Date.Local().Format("2006-01-02 15:04"), sender, m.Text)
	}
	return nil
}

func (c *MessagesCommand) executeWhatsApp(reader *whatsapp.Reader, acct whatsapp.Account) error {
	msgs, err := reader.Messages(context.Background(), acct, c.Chat, c.Days, c.Limit)
	if err != nil {
		return fmt.Errorf("read messages: %w", err)
	}

	if c.globals != nil && c.globals.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(msgs)
	}

	if len(msgs) == 0 {
		fmt.Printf("No messages found in the last %d days\n", c.Days)
		return nil
	}
	for _, m := range msgs {
		sender := m.FromJID
		if m.FromMe {
			sender = "me"
		}
		fmt.Printf("[%s] %s: %s\n", m.Date.Local().Format("2006-01-02 15:04"), sender, m.Text)
	}
	return nil
}
