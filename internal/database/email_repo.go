package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nanafuji/estimail/pkg/models"
)

// ErrNotFound is returned when a record is not found
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists is returned when trying to insert a duplicate record
var ErrAlreadyExists = errors.New("record already exists")

// CreateEmail inserts a synced email. A message_id already present in the
// table makes the insert a no-op and returns ErrAlreadyExists; the unique
// constraint is the atomic backstop against concurrent writers.
func (db *DB) CreateEmail(ctx context.Context, email *models.Email) error {
	query := `
		INSERT OR IGNORE INTO emails (uidvalidity, uid, message_id, subject, from_addr, to_addr, date, body, raw_content, status, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	status := email.Status
	if status == "" {
		status = models.StatusNew
	}
	result, err := db.ExecContext(ctx, query,
		email.UIDValidity,
		email.UID,
		email.MessageID,
		email.Subject,
		email.FromAddr,
		email.ToAddr,
		email.Date,
		email.Body,
		email.RawContent,
		status,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create email: %w", err)
	}

	// Check if row was actually inserted (not ignored due to duplicate)
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAlreadyExists
	}

	email.Status = status
	email.FetchedAt = now
	return nil
}

// GetEmailByMessageID returns an email by its Message-ID header
func (db *DB) GetEmailByMessageID(ctx context.Context, messageID string) (*models.Email, error) {
	var email models.Email
	query := `SELECT * FROM emails WHERE message_id = ?`
	err := db.GetContext(ctx, &email, query, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return &email, nil
}

// GetEmail returns an email by its (uidvalidity, uid) key
func (db *DB) GetEmail(ctx context.Context, uidValidity, uid uint32) (*models.Email, error) {
	var email models.Email
	query := `SELECT * FROM emails WHERE uidvalidity = ? AND uid = ?`
	err := db.GetContext(ctx, &email, query, uidValidity, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	return &email, nil
}

// ListEmails returns all emails ordered by date descending
func (db *DB) ListEmails(ctx context.Context) ([]*models.Email, error) {
	var emails []*models.Email
	query := `SELECT * FROM emails ORDER BY date DESC`
	err := db.SelectContext(ctx, &emails, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	return emails, nil
}

// CountEmails returns the number of stored emails
func (db *DB) CountEmails(ctx context.Context) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM emails`
	err := db.GetContext(ctx, &count, query)
	if err != nil {
		return 0, fmt.Errorf("failed to count emails: %w", err)
	}
	return count, nil
}

// UpdateEmailStatus updates the workflow status of an email
func (db *DB) UpdateEmailStatus(ctx context.Context, uidValidity, uid uint32, status string) error {
	query := `UPDATE emails SET status = ? WHERE uidvalidity = ? AND uid = ?`
	result, err := db.ExecContext(ctx, query, status, uidValidity, uid)
	if err != nil {
		return fmt.Errorf("failed to update email status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
