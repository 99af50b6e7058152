package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	gosync "sync"
	"time"

	"github.com/emersion/go-message/mail"

	"github.com/nanafuji/estimail/internal/database"
	"github.com/nanafuji/estimail/internal/parser"
	"github.com/nanafuji/estimail/pkg/models"
)

// ErrSyncInProgress is returned when a pass is requested while another one
// is still running. The caller retries on its next interval.
var ErrSyncInProgress = errors.New("sync already in progress")

// Session is the slice of a mailbox connection the engine needs. Satisfied
// by *mailbox.Session; tests substitute a fake.
type Session interface {
	UIDValidity() uint32
	SearchAll() ([]uint32, error)
	SearchSince(since time.Time) ([]uint32, error)
	FetchRaw(uid uint32) ([]byte, error)
	Close() error
}

// Opener establishes a fresh session for one pass
type Opener func() (Session, error)

// Store is the persistence boundary of the engine
type Store interface {
	CreateEmail(ctx context.Context, email *models.Email) error
	GetEmailByMessageID(ctx context.Context, messageID string) (*models.Email, error)
}

// Notifier is told about every newly saved email
type Notifier interface {
	NotifyNewEmail(ctx context.Context, email *models.Email)
}

// Engine fetches estimate mails from the mailbox and stores them.
// At most one pass runs at a time; overlapping invocations are rejected,
// not queued.
type Engine struct {
	open     Opener
	store    Store
	decoder  *parser.Decoder
	filter   string
	notifier Notifier
	logger   *slog.Logger
	mu       gosync.Mutex
}

// NewEngine creates a sync engine. filter is the substring a decoded subject
// must contain for the message to be stored.
func NewEngine(open Opener, store Store, filter string, logger *slog.Logger) *Engine {
	return &Engine{
		open:    open,
		store:   store,
		decoder: parser.NewDecoder(),
		filter:  filter,
		logger:  logger.With("component", "sync"),
	}
}

// SetNotifier sets the handler for newly saved emails
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

// SyncLatest fetches the `limit` highest-UID messages, newest first.
// "Recent" deliberately means highest UID, not youngest date: after a
// UIDVALIDITY change the two can disagree, and UID order is what the
// server actually hands out.
func (e *Engine) SyncLatest(ctx context.Context, limit int) (int, error) {
	if !e.mu.TryLock() {
		return 0, ErrSyncInProgress
	}
	defer e.mu.Unlock()

	sess, err := e.open()
	if err != nil {
		return 0, fmt.Errorf("failed to open mailbox: %w", err)
	}
	defer sess.Close()

	uids, err := sess.SearchAll()
	if err != nil {
		return 0, fmt.Errorf("failed to list mailbox: %w", err)
	}

	// Server order is ascending; the tail holds the highest UIDs
	if limit > 0 && len(uids) > limit {
		uids = uids[len(uids)-limit:]
	}
	newestFirst := make([]uint32, 0, len(uids))
	for i := len(uids) - 1; i >= 0; i-- {
		newestFirst = append(newestFirst, uids[i])
	}

	e.logger.Info("sync pass started", "mode", "latest", "candidates", len(newestFirst))
	saved := e.processUIDs(ctx, sess, newestFirst)
	e.logger.Info("sync pass finished", "mode", "latest", "saved", saved)
	return saved, nil
}

// SyncSinceDays fetches every message whose internal date falls within the
// last `days` days, in server order. The SINCE predicate is date-granular,
// so a message dated exactly on the boundary day is included.
func (e *Engine) SyncSinceDays(ctx context.Context, days int) (int, error) {
	if !e.mu.TryLock() {
		return 0, ErrSyncInProgress
	}
	defer e.mu.Unlock()

	sess, err := e.open()
	if err != nil {
		return 0, fmt.Errorf("failed to open mailbox: %w", err)
	}
	defer sess.Close()

	since := time.Now().AddDate(0, 0, -days)
	uids, err := sess.SearchSince(since)
	if err != nil {
		return 0, fmt.Errorf("failed to search mailbox: %w", err)
	}

	e.logger.Info("sync pass started", "mode", "window", "days", days, "candidates", len(uids))
	saved := e.processUIDs(ctx, sess, uids)
	e.logger.Info("sync pass finished", "mode", "window", "saved", saved)
	return saved, nil
}

// processUIDs walks the candidate set and stores each matching message with
// an immediate per-record commit. Every per-message failure is contained in
// its own iteration; a bad message never aborts the pass.
func (e *Engine) processUIDs(ctx context.Context, sess Session, uids []uint32) int {
	uidValidity := sess.UIDValidity()
	saved := 0

	for _, uid := range uids {
		raw, err := sess.FetchRaw(uid)
		if err != nil {
			e.logger.Warn("fetch failed, skipping", "uid", uid, "error", err)
			continue
		}
		if len(raw) == 0 {
			e.logger.Warn("empty payload, skipping", "uid", uid)
			continue
		}

		entity, err := e.decoder.Parse(raw)
		if err != nil {
			e.logger.Warn("unparseable message, skipping", "uid", uid, "error", err)
			continue
		}

		// A subject that fails to decode comes back best-effort and simply
		// won't match the filter
		subject := e.decoder.DecodeHeader(entity.Header.Get("Subject"))
		if !strings.Contains(subject, e.filter) {
			continue
		}

		header := mail.Header{Header: entity.Header}
		messageID, err := header.MessageID()
		if err != nil || messageID == "" {
			messageID = strings.Trim(e.decoder.DecodeHeader(entity.Header.Get("Message-Id")), "<> \t")
		}
		if messageID == "" {
			e.logger.Warn("message without Message-ID, skipping", "uid", uid)
			continue
		}

		if _, err := e.store.GetEmailByMessageID(ctx, messageID); err == nil {
			e.logger.Debug("duplicate skipped", "uid", uid, "message_id", messageID)
			continue
		} else if !errors.Is(err, database.ErrNotFound) {
			e.logger.Warn("dedup lookup failed, skipping", "uid", uid, "error", err)
			continue
		}

		date, err := header.Date()
		if err != nil {
			date = time.Time{}
		}

		email := &models.Email{
			UIDValidity: uidValidity,
			UID:         uid,
			MessageID:   messageID,
			Subject:     subject,
			FromAddr:    e.decoder.DecodeHeader(entity.Header.Get("From")),
			ToAddr:      e.decoder.DecodeHeader(entity.Header.Get("To")),
			Date:        date,
			Body:        e.decoder.ExtractBody(entity),
			RawContent:  strings.ToValidUTF8(string(raw), ""),
			Status:      models.StatusNew,
		}

		// Per-record commit: a later failure cannot roll this back. The
		// unique constraint catches duplicates the lookup raced with.
		if err := e.store.CreateEmail(ctx, email); err != nil {
			if errors.Is(err, database.ErrAlreadyExists) {
				e.logger.Debug("duplicate skipped on insert", "uid", uid, "message_id", messageID)
			} else {
				e.logger.Error("failed to save email", "uid", uid, "error", err)
			}
			continue
		}

		saved++
		e.logger.Info("saved email", "uid", uid, "message_id", messageID, "subject", subject)

		if e.notifier != nil {
			e.notifier.NotifyNewEmail(ctx, email)
		}
	}

	return saved
}
