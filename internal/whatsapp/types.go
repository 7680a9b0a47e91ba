package whatsapp

import (
	"fmt"
	"time"
)

// Account is one discovered WhatsApp data store. The desktop app keeps one
// store per signed-in account.
type Account struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Conversation is a normalized chat session.
type Conversation struct {
	ChatGUID     string    `json:"chat_guid"`
	Account      string    `json:"account"`
	ContactJID   string    `json:"contact_jid"`
	Name         string    `json:"name"`
	IsGroup      bool      `json:"is_group"`
	MessageCount int       `json:"message_count"`
	Participants []string  `json:"participant_ids"`
	LastActivity time.Time `json:"last_activity"`
}

// Message is a normalized message row.
type Message struct {
	UID      string    `json:"uid"`
	ChatGUID string    `json:"chat_guid"`
	Text     string    `json:"text"`
	Date     time.Time `json:"date"`
	FromMe   bool      `json:"is_from_me"`
	FromJID  string    `json:"from_jid"`
	ToJID    string    `json:"to_jid"`
}

// chatGUID builds the stable identifier for a session. Sessions normally
// carry a JID; the primary key is the fallback for rows that lost theirs.
func chatGUID(jid string, pk int64) string {
	if jid != "" {
		return "whatsapp:" + jid
	}
	return fmt.Sprintf("whatsapp:pk:%d", pk)
}

// messageUID builds the deterministic composite identifier for a message
// row, scoped by account so two stores never collide.
func messageUID(account string, pk int64) string {
	return fmt.Sprintf("whatsapp:%s:%d", account, pk)
}
