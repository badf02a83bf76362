package notes

import (
	"errors"
	"fmt"
)

type Note struct {
	ID          string `json:"id"`
	TenantID    string `json:"tenant_id"`
	UserID      string `json:"user_id"`
	AuthorEmail string `json:"author_email,omitempty"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

// ErrLimitReached is returned when a FREE tenant is at its note cap.
var ErrLimitReached = errors.New("note limit reached")

// ValidationError marks rejected input so handlers can answer 400 instead of 500.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}
