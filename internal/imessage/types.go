package imessage

import (
	"fmt"
	"time"
)

// Conversation is a normalized chat from the Messages database.
type Conversation struct {
	ChatGUID       string    `json:"chat_guid"`
	ChatIdentifier string    `json:"chat_identifier"`
	DisplayName    string    `json:"display_name"`
	IsGroup        bool      `json:"is_group"`
	Service        string    `json:"service"`
	Participants   []string  `json:"participant_ids"`
	LastActivity   time.Time `json:"last_activity"`
}

// Message is a normalized message row.
type Message struct {
	UID                  string    `json:"uid"`
	GUID                 string    `json:"guid"`
	Text                 string    `json:"text"`
	Date                 time.Time `json:"date"`
	FromMe               bool      `json:"is_from_me"`
	IsRead               bool      `json:"is_read"`
	Service              string    `json:"service"`
	HasAttachments       bool      `json:"has_attachments"`
	AssociatedType       int       `json:"associated_message_type"`
	AssociatedGUID       string    `json:"associated_message_guid"`
	ThreadOriginatorGUID string    `json:"thread_originator_guid"`
	HandleID             string    `json:"handle_id"`
}

// messageUID builds the deterministic composite identifier for a message
// row. There is one local Messages account per machine, so the middle
// segment is fixed.
func messageUID(rowID int64) string {
	return fmt.Sprintf("imessage:local:%d", rowID)
}
