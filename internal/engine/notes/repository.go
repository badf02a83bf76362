package notes

import (
	"database/sql"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the note only while the owning tenant is under its plan
// limit. The count-and-insert is a single statement so concurrent creates
// cannot slip past the cap. Zero rows affected means the cap was hit.
func (r *Repository) Create(note *Note) error {
	query := `
		INSERT INTO notes (id, tenant_id, user_id, title, content, created_at, updated_at)
		SELECT ?, ?, ?, ?, ?, ?, ?
		WHERE EXISTS (
			SELECT 1 FROM tenants t
			WHERE t.id = ?
			  AND (t.plan = 'PRO'
			       OR t.note_limit < 0
			       OR (SELECT COUNT(*) FROM notes n WHERE n.tenant_id = t.id) < t.note_limit)
		)
	`

	res, err := r.db.Exec(query,
		note.ID,
		note.TenantID,
		note.UserID,
		note.Title,
		note.Content,
		note.CreatedAt,
		note.UpdatedAt,
		note.TenantID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrLimitReached
	}
	return nil
}

func (r *Repository) ListByTenant(tenantID string) ([]*Note, error) {
	query := `
		SELECT n.id, n.tenant_id, n.user_id, u.email, n.title, n.content, n.created_at, n.updated_at
		FROM notes n
		LEFT JOIN users u ON u.id = n.user_id
		WHERE n.tenant_id = ?
		ORDER BY n.created_at DESC
	`
	rows, err := r.db.Query(query, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notes := []*Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, note)
	}
	return notes, rows.Err()
}

// GetByID resolves a note within a tenant. A note belonging to another tenant
// is reported the same as a missing one.
func (r *Repository) GetByID(tenantID, noteID string) (*Note, error) {
	query := `
		SELECT n.id, n.tenant_id, n.user_id, u.email, n.title, n.content, n.created_at, n.updated_at
		FROM notes n
		LEFT JOIN users u ON u.id = n.user_id
		WHERE n.tenant_id = ? AND n.id = ?
	`
	note, err := scanNote(r.db.QueryRow(query, tenantID, noteID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return note, nil
}

func (r *Repository) Update(tenantID, noteID, title, content string, updatedAt int64) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE notes SET title = ?, content = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`, title, content, updatedAt, tenantID, noteID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) Delete(tenantID, noteID string) (bool, error) {
	res, err := r.db.Exec(`DELETE FROM notes WHERE tenant_id = ? AND id = ?`, tenantID, noteID)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (r *Repository) CountByTenant(tenantID string) (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM notes WHERE tenant_id = ?`, tenantID).Scan(&count)
	return count, err
}

func scanNote(s interface {
	Scan(dest ...interface{}) error
}) (*Note, error) {
	var note Note
	var authorEmail sql.NullString

	err := s.Scan(
		&note.ID,
		&note.TenantID,
		&note.UserID,
		&authorEmail,
		&note.Title,
		&note.Content,
		&note.CreatedAt,
		&note.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if authorEmail.Valid {
		note.AuthorEmail = authorEmail.String
	}
	return &note, nil
}
