package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nanafuji/estimail/pkg/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("creating test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("closing test database: %v", err)
		}
	})
	return db
}

func testEmail(uidValidity, uid uint32, messageID string, date time.Time) *models.Email {
	return &models.Email{
		UIDValidity: uidValidity,
		UID:         uid,
		MessageID:   messageID,
		Subject:     "クリーニング見積もり",
		FromAddr:    "customer@example.com",
		ToAddr:      "shop@example.com",
		Date:        date,
		Body:        "body",
		RawContent:  "raw",
	}
}

func TestCreateEmailAndGet(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	email := testEmail(100, 1, "<m1@example.com>", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	if err := db.CreateEmail(ctx, email); err != nil {
		t.Fatalf("CreateEmail: %v", err)
	}
	if email.Status != models.StatusNew {
		t.Errorf("Status = %q, want %q", email.Status, models.StatusNew)
	}
	if email.FetchedAt.IsZero() {
		t.Error("FetchedAt not set")
	}

	got, err := db.GetEmail(ctx, 100, 1)
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if got.MessageID != "<m1@example.com>" || got.Subject != "クリーニング見積もり" {
		t.Errorf("GetEmail = %+v", got)
	}

	byID, err := db.GetEmailByMessageID(ctx, "<m1@example.com>")
	if err != nil {
		t.Fatalf("GetEmailByMessageID: %v", err)
	}
	if byID.UIDValidity != 100 || byID.UID != 1 {
		t.Errorf("GetEmailByMessageID key = (%d, %d), want (100, 1)", byID.UIDValidity, byID.UID)
	}

	if _, err := db.GetEmail(ctx, 100, 2); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetEmail(missing) error = %v, want ErrNotFound", err)
	}
}

func TestCreateEmailDuplicateMessageID(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := testEmail(100, 1, "<dup@example.com>", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	if err := db.CreateEmail(ctx, first); err != nil {
		t.Fatalf("CreateEmail: %v", err)
	}

	// Same message refetched under a different mailbox generation
	second := testEmail(200, 50, "<dup@example.com>", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	if err := db.CreateEmail(ctx, second); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("CreateEmail(duplicate) error = %v, want ErrAlreadyExists", err)
	}

	count, err := db.CountEmails(ctx)
	if err != nil {
		t.Fatalf("CountEmails: %v", err)
	}
	if count != 1 {
		t.Errorf("CountEmails = %d, want 1", count)
	}

	// The original row wins
	got, err := db.GetEmailByMessageID(ctx, "<dup@example.com>")
	if err != nil {
		t.Fatalf("GetEmailByMessageID: %v", err)
	}
	if got.UIDValidity != 100 || got.UID != 1 {
		t.Errorf("stored key = (%d, %d), want (100, 1)", got.UIDValidity, got.UID)
	}
}

func TestListEmailsOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	for i, offset := range []int{2, 0, 1} {
		email := testEmail(100, uint32(i+1), "<m"+string(rune('a'+i))+"@example.com>", base.AddDate(0, 0, offset))
		if err := db.CreateEmail(ctx, email); err != nil {
			t.Fatalf("CreateEmail: %v", err)
		}
	}

	emails, err := db.ListEmails(ctx)
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(emails) != 3 {
		t.Fatalf("ListEmails returned %d rows, want 3", len(emails))
	}
	for i := 1; i < len(emails); i++ {
		if emails[i].Date.After(emails[i-1].Date) {
			t.Errorf("ListEmails not sorted by date descending: %v before %v", emails[i-1].Date, emails[i].Date)
		}
	}
}

func TestUpdateEmailStatus(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	email := testEmail(100, 1, "<m1@example.com>", time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC))
	if err := db.CreateEmail(ctx, email); err != nil {
		t.Fatalf("CreateEmail: %v", err)
	}

	if err := db.UpdateEmailStatus(ctx, 100, 1, "対応中"); err != nil {
		t.Fatalf("UpdateEmailStatus: %v", err)
	}

	got, err := db.GetEmail(ctx, 100, 1)
	if err != nil {
		t.Fatalf("GetEmail: %v", err)
	}
	if got.Status != "対応中" {
		t.Errorf("Status = %q, want %q", got.Status, "対応中")
	}

	if err := db.UpdateEmailStatus(ctx, 100, 99, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateEmailStatus(missing) error = %v, want ErrNotFound", err)
	}
}
