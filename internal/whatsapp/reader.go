// Package whatsapp reads the WhatsApp desktop ChatStorage.sqlite stores
// read-only, normalizing conversations and messages bounded by a lookback
// window. Multiple signed-in accounts are read concurrently and merged.
package whatsapp

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runnerr0/recollect/internal/epoch"
	"github.com/runnerr0/recollect/internal/source"
)

const (
	// maxWindowDays caps the lookback window for chat reads.
	maxWindowDays = 30

	// accountWorkers bounds how many account stores are queried at once.
	accountWorkers = 2

	// sessionTypeStatus marks broadcast/status sessions, which are noise.
	sessionTypeStatus = 3

	// sessionTypeGroup marks group chats.
	sessionTypeGroup = 1
)

// Reader provides read-only access to one or more ChatStorage.sqlite
// stores.
type Reader struct {
	Accounts         []Account
	ExcludedContacts []string
	Logger           *slog.Logger
}

// NewReader discovers the local WhatsApp stores and points a Reader at
// them.
func NewReader() *Reader {
	return &Reader{
		Accounts: DiscoverAccounts(),
		Logger:   slog.Default(),
	}
}

// DiscoverAccounts locates ChatStorage.sqlite stores on this machine. The
// group container is the canonical location; iCloud-synced copies under
// Mobile Documents are picked up as secondary accounts.
func DiscoverAccounts() []Account {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}

	var accounts []Account
	primary := filepath.Join(home, "Library", "Group Containers",
		"group.net.whatsapp.WhatsApp.shared", "ChatStorage.sqlite")
	if _, err := os.Stat(primary); err == nil {
		accounts = append(accounts, Account{Name: "primary", Path: primary})
	}

	pattern := filepath.Join(home, "Library", "Mobile Documents", "*WhatsApp*", "Documents", "ChatStorage.sqlite")
	matches, _ := filepath.Glob(pattern)
	sort.Strings(matches)
	for _, m := range matches {
		name := filepath.Base(filepath.Dir(filepath.Dir(m)))
		accounts = append(accounts, Account{Name: name, Path: m})
	}
	return accounts
}

// Conversations returns chat sessions with activity inside the window
// across all accounts, newest first. Status broadcasts and excluded
// contacts are dropped. Per-account failures are collected; an error is
// raised only when every account failed and nothing was read.
func (r *Reader) Conversations(ctx context.Context, days, limit int) ([]Conversation, map[string]error, error) {
	days = source.ClampDays(days, maxWindowDays)
	if limit < 1 {
		limit = 1
	}
	if len(r.Accounts) == 0 {
		r.logger().Info("no whatsapp stores found")
		return nil, nil, nil
	}

	perAccountLimit := limit / len(r.Accounts)
	if perAccountLimit < 50 {
		perAccountLimit = 50
	}

	var (
		mu       sync.Mutex
		convs    []Conversation
		errs     = make(map[string]error)
		firstErr error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(accountWorkers)

	for _, acct := range r.Accounts {
		acct := acct
		g.Go(func() error {
			ac, err := r.accountConversations(gctx, acct, days, perAccountLimit)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				r.logger().Warn("whatsapp account read failed", "account", acct.Name, "error", err)
				errs[acct.Name] = err
				if firstErr == nil {
					firstErr = err
				}
				return nil
			}
			convs = append(convs, ac...)
			return nil
		})
	}
	_ = g.Wait()

	if len(convs) == 0 && len(errs) == len(r.Accounts) {
		return nil, errs, firstErr
	}

	sort.Slice(convs, func(i, j int) bool {
		return convs[i].LastActivity.After(convs[j].LastActivity)
	})
	if len(convs) > limit {
		convs = convs[:limit]
	}
	if len(errs) == 0 {
		errs = nil
	}
	return convs, errs, nil
}

func (r *Reader) accountConversations(ctx context.Context, acct Account, days, limit int) ([]Conversation, error) {
	db, rerr := source.OpenReadOnly("whatsapp", acct.Path)
	if rerr != nil {
		return nil, rerr
	}
	defer db.Close()

	since := epoch.TimeToApple(time.Now().AddDate(0, 0, -days), epoch.Seconds)
	hasMembers, err := tableExists(ctx, db, "ZWAGROUPMEMBER")
	if err != nil {
		return nil, source.QueryError("whatsapp", err)
	}

	rows, err := db.QueryContext(ctx, `
		SELECT
			Z_PK,
			COALESCE(ZCONTACTJID, '') AS contact_jid,
			COALESCE(ZPARTNERNAME, '') AS partner_name,
			COALESCE(ZSESSIONTYPE, 0) AS session_type,
			COALESCE(ZMESSAGECOUNTER, 0) AS message_count,
			COALESCE(ZLASTMESSAGEDATE, 0) AS last_message_date
		FROM ZWACHATSESSION
		WHERE ZLASTMESSAGEDATE > ? AND COALESCE(ZSESSIONTYPE, 0) != ?
		ORDER BY ZLASTMESSAGEDATE DESC
		LIMIT ?`, since, sessionTypeStatus, limit)
	if err != nil {
		return nil, source.QueryError("whatsapp", err)
	}
	defer rows.Close()

	var convs []Conversation
	for rows.Next() {
		var (
			pk, messageCount        int64
			sessionType             int
			contactJID, partnerName string
			lastMessageDate         sql.NullFloat64
		)
		if err := rows.Scan(&pk, &contactJID, &partnerName, &sessionType, &messageCount, &lastMessageDate); err != nil {
			r.logger().Warn("skipping unreadable session row", "account", acct.Name, "error", err)
			continue
		}

		if source.ContactExcluded(contactJID, r.ExcludedContacts) ||
			source.ContactExcluded(partnerName, r.ExcludedContacts) {
			continue
		}

		conv := Conversation{
			ChatGUID:     chatGUID(contactJID, pk),
			Account:      acct.Name,
			ContactJID:   contactJID,
			Name:         partnerName,
			IsGroup:      sessionType == sessionTypeGroup,
			MessageCount: int(messageCount),
			LastActivity: epoch.AppleToTime(lastMessageDate.Float64, epoch.Seconds),
		}
		if conv.IsGroup && hasMembers {
			members, err := r.groupMembers(ctx, db, pk)
			if err != nil {
				r.logger().Warn("group member lookup failed", "account", acct.Name, "chat", pk, "error", err)
			}
			conv.Participants = members
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

// Messages returns messages for one chat JID inside the window, ascending
// by date. Rows with zero dates are skipped.
func (r *Reader) Messages(ctx context.Context, acct Account, contactJID string, days, limit int) ([]Message, error) {
	days = source.ClampDays(days, maxWindowDays)
	if limit < 1 {
		limit = 1
	}

	db, rerr := source.OpenReadOnly("whatsapp", acct.Path)
	if rerr != nil {
		return nil, rerr
	}
	defer db.Close()

	since := epoch.TimeToApple(time.Now().AddDate(0, 0, -days), epoch.Seconds)

	rows, err := db.QueryContext(ctx, `
		SELECT
			m.Z_PK,
			COALESCE(m.ZTEXT, '') AS text,
			COALESCE(m.ZMESSAGEDATE, 0) AS message_date,
			COALESCE(m.ZISFROMME, 0) AS is_from_me,
			COALESCE(m.ZFROMJID, '') AS from_jid,
			COALESCE(m.ZTOJID, '') AS to_jid,
			COALESCE(s.ZCONTACTJID, '') AS contact_jid,
			s.Z_PK AS session_pk
		FROM ZWAMESSAGE m
		JOIN ZWACHATSESSION s ON s.Z_PK = m.ZCHATSESSION
		WHERE s.ZCONTACTJID = ? AND m.ZMESSAGEDATE > ?
		ORDER BY m.ZMESSAGEDATE ASC
		LIMIT ?`, contactJID, since, limit)
	if err != nil {
		return nil, source.QueryError("whatsapp", err)
	}
	defer rows.Close()

	var messages []Message
	for rows.Next() {
		var (
			pk, sessionPK             int64
			fromMe                    int
			text, fromJID, toJID, jid string
			messageDate               sql.NullFloat64
		)
		if err := rows.Scan(&pk, &text, &messageDate, &fromMe, &fromJID, &toJID, &jid, &sessionPK); err != nil {
			r.logger().Warn("skipping unreadable message row", "account", acct.Name, "error", err)
			continue
		}

		when := epoch.AppleToTime(messageDate.Float64, epoch.Seconds)
		if when.IsZero() {
			continue
		}

		messages = append(messages, Message{
			UID:      messageUID(acct.Name, pk),
			ChatGUID: chatGUID(jid, sessionPK),
			Text:     text,
			Date:     when,
			FromMe:   fromMe != 0,
			FromJID:  fromJID,
			ToJID:    toJID,
		})
	}
	return messages, rows.Err()
}

func (r *Reader) groupMembers(ctx context.Context, db *sql.DB, sessionPK int64) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT COALESCE(ZMEMBERJID, '')
		FROM ZWAGROUPMEMBER
		WHERE ZCHATSESSION = ?`, sessionPK)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var jid string
		if err := rows.Scan(&jid); err != nil {
			return members, err
		}
		if jid != "" {
			members = append(members, jid)
		}
	}
	return members, rows.Err()
}

// tableExists reports whether a table is present. Older exports lack the
// group member table; its absence degrades participants, not the read.
func tableExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var n int
	err := db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *Reader) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}
