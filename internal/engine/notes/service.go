package notes

import (
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) CreateNote(tenantID, userID, authorEmail, title, content string) (*Note, error) {
	if err := ValidateNote(title, content); err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	note := &Note{
		ID:          "note_" + uuid.NewString(),
		TenantID:    tenantID,
		UserID:      userID,
		AuthorEmail: authorEmail,
		Title:       title,
		Content:     content,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *Service) ListNotes(tenantID string) ([]*Note, error) {
	return s.repo.ListByTenant(tenantID)
}

func (s *Service) GetNote(tenantID, noteID string) (*Note, error) {
	return s.repo.GetByID(tenantID, noteID)
}

// UpdateNote replaces title and content. Returns (nil, nil) when the note does
// not exist in this tenant.
func (s *Service) UpdateNote(tenantID, noteID, title, content string) (*Note, error) {
	if err := ValidateNote(title, content); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(tenantID, noteID, title, content, time.Now().UnixMilli())
	if err != nil {
		return nil, err
	}
	if !updated {
		return nil, nil
	}

	return s.repo.GetByID(tenantID, noteID)
}

func (s *Service) DeleteNote(tenantID, noteID string) (bool, error) {
	return s.repo.Delete(tenantID, noteID)
}
