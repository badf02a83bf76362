package repositories

import (
	"database/sql"
	"time"

	"notably/internal/platform/models"
)

type TenantRepository struct {
	db *sql.DB
}

func NewTenantRepository(db *sql.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) BeginTx() (*sql.Tx, error) {
	return r.db.Begin()
}

func (r *TenantRepository) CreateTx(tx *sql.Tx, tenant *models.Tenant) error {
	_, err := tx.Exec(`
		INSERT INTO tenants (id, slug, name, plan, note_limit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tenant.ID, tenant.Slug, tenant.Name, tenant.Plan, tenant.NoteLimit, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}

func (r *TenantRepository) Create(tenant *models.Tenant) error {
	_, err := r.db.Exec(`
		INSERT INTO tenants (id, slug, name, plan, note_limit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, tenant.ID, tenant.Slug, tenant.Name, tenant.Plan, tenant.NoteLimit, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}

func (r *TenantRepository) GetByID(id string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := r.db.QueryRow(`
		SELECT id, slug, name, plan, note_limit, created_at, updated_at
		FROM tenants WHERE id = ?
	`, id).Scan(&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.Plan, &tenant.NoteLimit, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

func (r *TenantRepository) GetBySlug(slug string) (*models.Tenant, error) {
	tenant := &models.Tenant{}
	err := r.db.QueryRow(`
		SELECT id, slug, name, plan, note_limit, created_at, updated_at
		FROM tenants WHERE slug = ?
	`, slug).Scan(&tenant.ID, &tenant.Slug, &tenant.Name, &tenant.Plan, &tenant.NoteLimit, &tenant.CreatedAt, &tenant.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return tenant, nil
}

// Upgrade moves a tenant to the PRO plan with an unlimited note cap. The slug
// and id must both match so a session can never upgrade a foreign tenant; a
// mismatch reports not-found.
func (r *TenantRepository) Upgrade(slug, tenantID string) (*models.Tenant, error) {
	res, err := r.db.Exec(`
		UPDATE tenants SET plan = ?, note_limit = ?, updated_at = ?
		WHERE slug = ? AND id = ?
	`, models.PlanPro, models.UnlimitedNotes, time.Now().UnixMilli(), slug, tenantID)
	if err != nil {
		return nil, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, nil
	}

	return r.GetByID(tenantID)
}

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) CreateTx(tx *sql.Tx, user *models.User) error {
	_, err := tx.Exec(`
		INSERT INTO users (id, tenant_id, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.TenantID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) Create(user *models.User) error {
	_, err := r.db.Exec(`
		INSERT INTO users (id, tenant_id, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.TenantID, user.Email, user.PasswordHash, user.Role, user.CreatedAt, user.UpdatedAt)
	return err
}

func (r *UserRepository) GetByID(id string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, tenant_id, email, password_hash, role, created_at, updated_at
		FROM users WHERE id = ?
	`, id).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	user := &models.User{}
	err := r.db.QueryRow(`
		SELECT id, tenant_id, email, password_hash, role, created_at, updated_at
		FROM users WHERE email = ?
	`, email).Scan(&user.ID, &user.TenantID, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}
