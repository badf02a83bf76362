package notes

import (
	"errors"
	"testing"
	"time"
)

func TestService_CreateNote(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))

	note, err := svc.CreateNote("tnt_acme", "usr_a", "admin@acme.test", "hello", "world")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}
	if note.ID == "" {
		t.Error("Expected generated note id")
	}
	if note.TenantID != "tnt_acme" || note.UserID != "usr_a" {
		t.Errorf("Unexpected ownership: %+v", note)
	}
	if note.CreatedAt == 0 || note.UpdatedAt != note.CreatedAt {
		t.Errorf("Unexpected timestamps: created=%d updated=%d", note.CreatedAt, note.UpdatedAt)
	}
}

func TestService_CreateNoteValidation(t *testing.T) {
	repo := NewRepository(setupTestDB(t))
	svc := NewService(repo)

	_, err := svc.CreateNote("tnt_acme", "usr_a", "a@b.test", "", "content")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("Expected ValidationError, got %v", err)
	}

	// Nothing persisted on validation failure
	count, err := repo.CountByTenant("tnt_acme")
	if err != nil {
		t.Fatalf("CountByTenant failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Expected no notes, got %d", count)
	}
}

func TestService_CreateNoteQuota(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateNote("tnt_acme", "usr_a", "a@b.test", "t", "c"); err != nil {
			t.Fatalf("Create %d failed: %v", i+1, err)
		}
	}

	_, err := svc.CreateNote("tnt_acme", "usr_a", "a@b.test", "t", "c")
	if !errors.Is(err, ErrLimitReached) {
		t.Fatalf("Expected ErrLimitReached, got %v", err)
	}
}

func TestService_UpdateNote(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))

	created, err := svc.CreateNote("tnt_acme", "usr_a", "a@b.test", "before", "before")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	time.Sleep(5 * time.Millisecond)

	updated, err := svc.UpdateNote("tnt_acme", created.ID, "after", "after")
	if err != nil {
		t.Fatalf("UpdateNote failed: %v", err)
	}
	if updated == nil {
		t.Fatal("Expected updated note, got nil")
	}
	if updated.Title != "after" || updated.Content != "after" {
		t.Errorf("Update not applied: %+v", updated)
	}
	if updated.UpdatedAt <= updated.CreatedAt {
		t.Errorf("Expected updated_at > created_at, got %d <= %d", updated.UpdatedAt, updated.CreatedAt)
	}

	// Unknown note reports not-found as (nil, nil)
	missing, err := svc.UpdateNote("tnt_acme", "note_missing", "t", "c")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if missing != nil {
		t.Error("Expected nil for missing note")
	}
}

func TestService_DeleteNote(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))

	created, err := svc.CreateNote("tnt_acme", "usr_a", "a@b.test", "t", "c")
	if err != nil {
		t.Fatalf("CreateNote failed: %v", err)
	}

	deleted, err := svc.DeleteNote("tnt_acme", created.ID)
	if err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if !deleted {
		t.Error("Expected delete to succeed")
	}

	deleted, err = svc.DeleteNote("tnt_acme", created.ID)
	if err != nil {
		t.Fatalf("DeleteNote failed: %v", err)
	}
	if deleted {
		t.Error("Expected second delete to report not-found")
	}
}
