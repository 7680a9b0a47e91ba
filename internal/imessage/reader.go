// Package imessage reads the macOS Messages database (chat.db) read-only,
// normalizing conversations and messages bounded by a lookback window.
package imessage

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/runnerr0/recollect/internal/epoch"
	"github.com/runnerr0/recollect/internal/source"
)

// maxWindowDays caps the lookback window for message reads.
const maxWindowDays = 30

// Reader provides read-only access to chat.db. The timestamp unit (seconds
// on older macOS, nanoseconds on newer) is detected on first use and cached
// for the reader's lifetime; each call opens and closes its own connection.
type Reader struct {
	DBPath string
	Logger *slog.Logger

	unit *epoch.Unit
}

// NewReader points a Reader at the standard chat.db location.
func NewReader() *Reader {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Reader{
		DBPath: filepath.Join(home, "Library", "Messages", "chat.db"),
		Logger: slog.Default(),
	}
}

func (r *Reader) open() (*sql.DB, error) {
	db, rerr := source.OpenReadOnly("imessage", r.DBPath)
	if rerr != nil {
		return nil, rerr
	}
	return db, nil
}

// detectUnit classifies the store's timestamp resolution from
// MAX(ABS(date)) in the message table. Detection runs at most once per
// Reader and must precede any conversion in either direction.
func (r *Reader) detectUnit(ctx context.Context, db *sql.DB) (epoch.Unit, error) {
	if r.unit != nil {
		return *r.unit, nil
	}
	var maxDate sql.NullFloat64
	err := db.QueryRowContext(ctx, "SELECT MAX(ABS(date)) FROM message").Scan(&maxDate)
	if err != nil {
		return epoch.Seconds, source.QueryError("imessage", err)
	}
	u := epoch.DetectUnit(maxDate.Float64)
	r.unit = &u
	return u, nil
}

// Conversations returns chats with activity inside the window, newest
// first, with participant handles resolved. Contacts matching any excluded
// fragment are dropped.
func (r *Reader) Conversations(ctx context.Context, days, limit int, excludedContacts []string) ([]Conversation, error) {
	days = source.ClampDays(days, maxWindowDays)
	if limit < 1 {
		limit = 1
	}

	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	unit, err := r.detectUnit(ctx, db)
	if err != nil {
		return nil, err
	}
	since := epoch.TimeToApple(time.Now().AddDate(0, 0, -days), unit)

	rows, err := db.QueryContext(ctx, `
		SELECT
			c.ROWID AS chat_id,
			c.guid AS chat_guid,
			COALESCE(c.chat_identifier, '') AS chat_identifier,
			COALESCE(c.display_name, '') AS display_name,
			COALESCE(c.service_name, '') AS service_name,
			MAX(m.date) AS last_activity
		FROM chat c
		JOIN chat_message_join cmj ON cmj.chat_id = c.ROWID
		JOIN message m ON m.ROWID = cmj.message_id
		WHERE m.date > ?
		GROUP BY c.ROWID
		ORDER BY last_activity DESC
		LIMIT ?`, since, limit)
	if err != nil {
		return nil, source.QueryError("imessage", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var (
			chatID, lastActivity                       int64
			guid, identifier, displayName, serviceName string
		)
		if err := rows.Scan(&chatID, &guid, &identifier, &displayName, &serviceName, &lastActivity); err != nil {
			r.logger().Warn("skipping unreadable chat row", "error", err)
			continue
		}

		participants, err := r.participants(ctx, db, chatID)
		if err != nil {
			r.logger().Warn("participant lookup failed", "chat_id", chatID, "error", err)
		}

		if source.ContactExcluded(identifier, excludedContacts) {
			continue
		}
		excluded := false
		for _, p := range participants {
			if source.ContactExcluded(p, excludedContacts) {
				excluded = true
				break
			}
		}
		if excluded {
			continue
		}

		convs = append(convs, Conversation{
			ChatGUID:       guid,
			ChatIdentifier: identifier,
			DisplayName:    displayName,
			IsGroup:        len(participants) > 1 || displayName != "",
			Service:        serviceName,
			Participants:   participants,
			LastActivity:   epoch.AppleToTime(float64(lastActivity), unit),
		})
	}
	return convs, rows.Err()
}

// Messages returns messages inside the window in ascending date order,
// optionally restricted to a single chat GUID. Rows with zero or
// unparseable dates are skipped, never fatal.
func (r *Reader) Messages(ctx context.Context, chatGUID string, days, limit int) ([]Message, error) {
	days = source.ClampDays(days, maxWindowDays)
	if limit < 1 {
		limit = 1
	}

	db, err := r.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	unit, err := r.detectUnit(ctx, db)
	if err != nil {
		return nil, err
	}
	since := epoch.TimeToApple(time.Now().AddDate(0, 0, -days), unit)

	const selectCols = `
			m.ROWID,
			COALESCE(m.guid, ''),
			COALESCE(m.text, ''),
			m.date,
			COALESCE(m.is_from_me, 0),
			COALESCE(m.is_read, 0),
			COALESCE(m.service, ''),
			COALESCE(m.cache_has_attachments, 0),
			COALESCE(m.associated_message_type, 0),
			COALESCE(m.associated_message_guid, ''),
			COALESCE(m.thread_originator_guid, ''),
			COALESCE(h.id, '')`

	var rows *sql.Rows
	if chatGUID != "" {
		rows, err = db.QueryContext(ctx, `
			SELECT `+selectCols+`
			FROM message m
			JOIN chat_message_join cmj ON cmj.message_id = m.ROWID
			JOIN chat c ON c.ROWID = cmj.chat_id
			LEFT JOIN handle h ON h.ROWID = m.handle_id
			WHERE c.guid = ? AND m.date > ?
			ORDER BY m.date ASC
			LIMIT ?`, chatGUID, since, limit)
	} else {
		rows, err = db.QueryContext(ctx, `
			SELECT `+selectCols+`
			FROM message m
			LEFT JOIN handle h ON h.ROWID = m.handle_id
			WHERE m.date > ?
			ORDER BY m.date ASC
			LIMIT ?`, since, limit)
	}
	if err != nil {
		return nil, source.QueryError("imessage", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			rowID                                int64
			date                                 sql.NullFloat64
			fromMe, isRead, hasAttachments       int
			associatedType                       int
			guid, text, service                  string
			associatedGUID, threadGUID, handleID string
		)
		if err := rows.Scan(&rowID, &guid, &text, &date, &fromMe, &isRead, &service,
			&hasAttachments, &associatedType, &associatedGUID, &threadGUID, &handleID); err != nil {
			r.logger().Warn("skipping unreadable message row", "error", err)
			continue
		}

		when := epoch.AppleToTime(date.Float64, unit)
		if when.IsZero() {
			continue
		}

		messages = append(messages, Message{
			UID:                  messageUID(rowID),
			GUID:                 guid,
			Text:                 text,
			Date:                 when,
			FromMe:               fromMe != 0,
			IsRead:               isRead != 0,
			Service:              service,
			HasAttachments:       hasAttachments != 0,
			AssociatedType:       associatedType,
			AssociatedGUID:       associatedGUID,
			ThreadOriginatorGUID: threadGUID,
			HandleID:             handleID,
		})
	}
	return messages, rows.Err()
}

// MessageCount counts messages inside the window.
func (r *Reader) MessageCount(ctx context.Context, days int) (int, error) {
	days = source.ClampDays(days, maxWindowDays)

	db, err := r.open()
	if err != nil {
		return 0, err
	}
	defer db.Close()

	unit, err := r.detectUnit(ctx, db)
	if err != nil {
		return 0, err
	}
	since := epoch.TimeToApple(time.Now().AddDate(0, 0, -days), unit)

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM message WHERE date > ?", since).Scan(&count); err != nil {
		return 0, source.QueryError("imessage", err)
	}
	return count, nil
}

func (r *Reader) participants(ctx context.Context, db *sql.DB, chatID int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT h.id
		FROM handle h
		JOIN chat_handle_join chj ON chj.handle_id = h.ROWID
		WHERE chj.chat_id = ?`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
