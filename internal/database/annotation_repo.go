package database

import (
	"context"
	"fmt"
	"time"

	"github.com/nanafuji/estimail/pkg/models"
)

// UpsertNote creates or replaces the note for a (uidvalidity, uid, page) slot
func (db *DB) UpsertNote(ctx context.Context, note *models.Note) error {
	query := `
		INSERT INTO notes (uidvalidity, uid, page, content, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(uidvalidity, uid, page) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at
	`
	now := time.Now()
	_, err := db.ExecContext(ctx, query, note.UIDValidity, note.UID, note.Page, note.Content, now)
	if err != nil {
		return fmt.Errorf("failed to upsert note: %w", err)
	}
	note.UpdatedAt = now
	return nil
}

// ListNotes returns all notes for an email ordered by page
func (db *DB) ListNotes(ctx context.Context, uidValidity, uid uint32) ([]*models.Note, error) {
	var notes []*models.Note
	query := `SELECT * FROM notes WHERE uidvalidity = ? AND uid = ? ORDER BY page`
	err := db.SelectContext(ctx, &notes, query, uidValidity, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list notes: %w", err)
	}
	return notes, nil
}

// AddPhoto records an uploaded photo for an email
func (db *DB) AddPhoto(ctx context.Context, photo *models.Photo) error {
	query := `
		INSERT INTO photos (uidvalidity, uid, filename, uploaded_at)
		VALUES (?, ?, ?, ?)
	`
	now := time.Now()
	result, err := db.ExecContext(ctx, query, photo.UIDValidity, photo.UID, photo.Filename, now)
	if err != nil {
		return fmt.Errorf("failed to add photo: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	photo.ID = id
	photo.UploadedAt = now
	return nil
}

// ListPhotos returns all photos for an email, oldest first
func (db *DB) ListPhotos(ctx context.Context, uidValidity, uid uint32) ([]*models.Photo, error) {
	var photos []*models.Photo
	query := `SELECT * FROM photos WHERE uidvalidity = ? AND uid = ? ORDER BY uploaded_at`
	err := db.SelectContext(ctx, &photos, query, uidValidity, uid)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	return photos, nil
}
