package models

import "time"

// StatusNew is the workflow status assigned to freshly synced emails.
const StatusNew = "new"

// Email is one synced estimate mail. The composite (UIDValidity, UID) key is
// only meaningful within a single mailbox generation; MessageID is the global
// deduplication key.
type Email struct {
	UIDValidity uint32    `db:"uidvalidity"` // IMAP UIDVALIDITY at fetch time
	UID         uint32    `db:"uid"`         // IMAP UID within that generation
	MessageID   string    `db:"message_id"`  // Message-ID header, unique
	Subject     string    `db:"subject"`     // decoded subject
	FromAddr    string    `db:"from_addr"`   // decoded From header
	ToAddr      string    `db:"to_addr"`     // decoded To header
	Date        time.Time `db:"date"`        // Date header
	Body        string    `db:"body"`        // extracted plain-text body
	RawContent  string    `db:"raw_content"` // full original message, kept for reprocessing
	Status      string    `db:"status"`      // mutable workflow label
	FetchedAt   time.Time `db:"fetched_at"`
}

// Note is a per-page staff annotation attached to an email.
type Note struct {
	ID          int64     `db:"id"`
	UIDValidity uint32    `db:"uidvalidity"`
	UID         uint32    `db:"uid"`
	Page        int       `db:"page"`
	Content     string    `db:"content"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// Photo is an uploaded image attached to an email.
type Photo struct {
	ID          int64     `db:"id"`
	UIDValidity uint32    `db:"uidvalidity"`
	UID         uint32    `db:"uid"`
	Filename    string    `db:"filename"`
	UploadedAt  time.Time `db:"uploaded_at"`
}
