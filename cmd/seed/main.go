package main

import (
	"flag"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"notably/internal/platform/config"
	"notably/internal/platform/database"
	"notably/internal/platform/models"
	"notably/internal/platform/repositories"
)

// Seeds the canonical test fixtures: two FREE tenants with one ADMIN and one
// MEMBER each, all with password "password". Existing data is cleared first.
func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	connector := database.NewConnector(cfg.Database)
	db, err := connector.Get()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer connector.Close()

	for _, table := range []string{"notes", "users", "tenants"} {
		if _, err := db.Exec("DELETE FROM " + table); err != nil {
			log.Fatalf("Failed to clear %s: %v", table, err)
		}
	}

	tenantRepo := repositories.NewTenantRepository(db)
	userRepo := repositories.NewUserRepository(db)

	now := time.Now().UnixMilli()

	acme := &models.Tenant{
		ID:        "tnt_" + uuid.NewString(),
		Slug:      "acme",
		Name:      "Acme",
		Plan:      models.PlanFree,
		NoteLimit: cfg.Tenants.FreeNoteLimit,
		CreatedAt: now,
		UpdatedAt: now,
	}
	globex := &models.Tenant{
		ID:        "tnt_" + uuid.NewString(),
		Slug:      "globex",
		Name:      "Globex",
		Plan:      models.PlanFree,
		NoteLimit: cfg.Tenants.FreeNoteLimit,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, tenant := range []*models.Tenant{acme, globex} {
		if err := tenantRepo.Create(tenant); err != nil {
			log.Fatalf("Failed to create tenant %s: %v", tenant.Slug, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	users := []*models.User{
		{Email: "admin@acme.test", Role: models.RoleAdmin, TenantID: acme.ID},
		{Email: "user@acme.test", Role: models.RoleMember, TenantID: acme.ID},
		{Email: "admin@globex.test", Role: models.RoleAdmin, TenantID: globex.ID},
		{Email: "user@globex.test", Role: models.RoleMember, TenantID: globex.ID},
	}

	for _, user := range users {
		user.ID = "usr_" + uuid.NewString()
		user.PasswordHash = string(hash)
		user.CreatedAt = now
		user.UpdatedAt = now
		if err := userRepo.Create(user); err != nil {
			log.Fatalf("Failed to create user %s: %v", user.Email, err)
		}
	}

	log.Println("Database seeded successfully")
}
