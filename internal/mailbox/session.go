package mailbox

import (
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
)

// Config connection settings for one mailbox
type Config struct {
	Addr        string // host:port
	Username    string
	Password    string
	Mailbox     string // defaults to INBOX
	DialTimeout time.Duration
}

// Session is one authenticated IMAP connection with a mailbox selected.
// It is not safe for concurrent use; the sync engine runs one pass at a time.
type Session struct {
	client      *client.Client
	uidValidity uint32
	logger      *slog.Logger
}

// Open connects, logs in and selects the mailbox. Any failure closes the
// connection before returning; retry is the caller's concern.
func Open(cfg Config, logger *slog.Logger) (*Session, error) {
	timeout := cfg.DialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", cfg.Addr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	imapClient, err := client.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create IMAP client: %w", err)
	}

	if err := imapClient.Login(cfg.Username, cfg.Password); err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to login: %w", err)
	}

	name := cfg.Mailbox
	if name == "" {
		name = "INBOX"
	}

	// Read-only select; the sync never changes flags
	mbox, err := imapClient.Select(name, true)
	if err != nil {
		imapClient.Logout()
		return nil, fmt.Errorf("failed to select %s: %w", name, err)
	}

	logger.Debug("mailbox selected", "mailbox", name, "uidvalidity", mbox.UidValidity, "messages", mbox.Messages)

	return &Session{
		client:      imapClient,
		uidValidity: mbox.UidValidity,
		logger:      logger,
	}, nil
}

// UIDValidity returns the mailbox generation token captured at select time.
// UIDs are only comparable against rows stamped with the same value.
func (s *Session) UIDValidity() uint32 {
	return s.uidValidity
}

// SearchAll returns the UIDs of all messages in the mailbox, ascending
func (s *Session) SearchAll() ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search: %w", err)
	}
	return uids, nil
}

// SearchSince returns the UIDs of messages whose internal date is on or after
// the given day. IMAP SINCE is date-granular; the time of day is ignored.
func (s *Session) SearchSince(since time.Time) ([]uint32, error) {
	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := s.client.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("failed to search since %s: %w", since.Format("2006-01-02"), err)
	}
	return uids, nil
}

// FetchRaw fetches the full RFC 822 content of a single message. A UID the
// server no longer knows yields an empty slice, not an error.
func (s *Session) FetchRaw(uid uint32) ([]byte, error) {
	seqSet := new(imap.SeqSet)
	seqSet.AddNum(uid)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{section.FetchItem()}

	messages := make(chan *imap.Message, 1)
	done := make(chan error, 1)

	go func() {
		done <- s.client.UidFetch(seqSet, items, messages)
	}()

	var raw []byte
	for msg := range messages {
		r := msg.GetBody(section)
		if r == nil {
			continue
		}
		b, err := io.ReadAll(r)
		if err != nil {
			s.logger.Warn("failed to read message literal", "uid", uid, "error", err)
			continue
		}
		raw = b
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("failed to fetch uid %d: %w", uid, err)
	}

	return raw, nil
}

// Close signs off the session. A hung logout is force-terminated after a
// short grace period so server-side session slots are not leaked.
func (s *Session) Close() error {
	done := make(chan error, 1)
	go func() {
		done <- s.client.Logout()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		return s.client.Terminate()
	}
}
