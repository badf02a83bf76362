package models

const (
	PlanFree = "FREE"
	PlanPro  = "PRO"

	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// UnlimitedNotes is the note_limit sentinel for tenants without a cap.
const UnlimitedNotes = -1

type Tenant struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Plan      string `json:"plan"`
	NoteLimit int    `json:"note_limit"`
	CreatedAt int64  `json:"created_at"`
	UpdatedAt int64  `json:"updated_at"`
}

type User struct {
	ID           string `json:"id"`
	TenantID     string `json:"tenant_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         string `json:"role"`
	CreatedAt    int64  `json:"created_at"`
	UpdatedAt    int64  `json:"updated_at"`

	Tenant *Tenant `json:"tenant,omitempty"`
}
