package api

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"notably/internal/api/handlers"
	"notably/internal/api/middleware"
	"notably/internal/engine/notes"
	"notably/internal/platform/auth"
	"notably/internal/platform/config"
	"notably/internal/platform/database"
	"notably/internal/platform/models"
	"notably/internal/platform/repositories"
)

const testSchema = `
CREATE TABLE tenants (
	id TEXT PRIMARY KEY,
	slug TEXT UNIQUE NOT NULL,
	name TEXT NOT NULL,
	plan TEXT NOT NULL DEFAULT 'FREE',
	note_limit INTEGER NOT NULL DEFAULT 3,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE users (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'MEMBER',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE notes (
	id TEXT PRIMARY KEY,
	tenant_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
`

type testServer struct {
	router http.Handler
	db     *sql.DB
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if _, err := db.Exec(testSchema); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	now := time.Now().UnixMilli()
	fixtures := []struct {
		query string
		args  []interface{}
	}{
		{"INSERT INTO tenants VALUES (?, ?, ?, ?, ?, ?, ?)", []interface{}{"tnt_acme", "acme", "Acme", "FREE", 3, now, now}},
		{"INSERT INTO tenants VALUES (?, ?, ?, ?, ?, ?, ?)", []interface{}{"tnt_globex", "globex", "Globex", "FREE", 3, now, now}},
		{"INSERT INTO users VALUES (?, ?, ?, ?, ?, ?, ?)", []interface{}{"usr_acme_admin", "tnt_acme", "admin@acme.test", string(hash), "ADMIN", now, now}},
		{"INSERT INTO users VALUES (?, ?, ?, ?, ?, ?, ?)", []interface{}{"usr_acme_member", "tnt_acme", "user@acme.test", string(hash), "MEMBER", now, now}},
		{"INSERT INTO users VALUES (?, ?, ?, ?, ?, ?, ?)", []interface{}{"usr_globex_admin", "tnt_globex", "admin@globex.test", string(hash), "ADMIN", now, now}},
		{"INSERT INTO users VALUES (?, ?, ?, ?, ?, ?, ?)", []interface{}{"usr_globex_member", "tnt_globex", "user@globex.test", string(hash), "MEMBER", now, now}},
	}
	for _, f := range fixtures {
		if _, err := db.Exec(f.query, f.args...); err != nil {
			t.Fatalf("Failed to insert fixture: %v", err)
		}
	}

	tenantRepo := repositories.NewTenantRepository(db)
	userRepo := repositories.NewUserRepository(db)
	noteRepo := notes.NewRepository(db)

	tokenSvc := auth.NewTokenService(config.JWTConfig{Secret: "test-secret", TokenTTL: time.Hour})
	noteSvc := notes.NewService(noteRepo)

	deps := &Dependencies{
		AuthHandler:      handlers.NewAuthHandler(userRepo, tenantRepo, tokenSvc, config.TenantsConfig{FreeNoteLimit: 3}),
		NoteHandler:      handlers.NewNoteHandler(noteSvc),
		TenantHandler:    handlers.NewTenantHandler(tenantRepo),
		HealthHandler:    handlers.NewHealthHandler(database.NewConnector(config.DatabaseConfig{Path: ":memory:"})),
		AuthMiddleware:   middleware.NewAuthMiddleware(tokenSvc),
		TenantMiddleware: middleware.NewTenantMiddleware(userRepo, tenantRepo),
	}

	return &testServer{router: NewRouter(deps), db: db}
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("Failed to encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()

	rr := s.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "password",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Login as %s failed: %d %s", email, rr.Code, rr.Body.String())
	}

	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode login response: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("Expected token in login response")
	}
	return resp.Token
}

func decodeErrorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	return resp.Code
}

func TestQuotaUpgradeAndIsolationFlow(t *testing.T) {
	srv := newTestServer(t)

	tokenA := srv.login(t, "admin@acme.test")

	// Three notes fit the FREE plan
	for i := 1; i <= 3; i++ {
		rr := srv.do(t, "POST", "/api/notes", tokenA, map[string]string{
			"title":   fmt.Sprintf("note %d", i),
			"content": "body",
		})
		if rr.Code != http.StatusCreated {
			t.Fatalf("Create note %d: expected 201, got %d %s", i, rr.Code, rr.Body.String())
		}
	}

	// The fourth hits the cap with the machine-readable code
	rr := srv.do(t, "POST", "/api/notes", tokenA, map[string]string{
		"title":   "note 4",
		"content": "body",
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("Expected 400 at limit, got %d %s", rr.Code, rr.Body.String())
	}
	if code := decodeErrorCode(t, rr); code != "NOTE_LIMIT_REACHED" {
		t.Errorf("Expected code NOTE_LIMIT_REACHED, got %s", code)
	}

	// Globex sees none of Acme's notes
	tokenB := srv.login(t, "user@globex.test")
	rr = srv.do(t, "GET", "/api/notes", tokenB, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("List notes: expected 200, got %d", rr.Code)
	}
	var globexNotes []*notes.Note
	if err := json.Unmarshal(rr.Body.Bytes(), &globexNotes); err != nil {
		t.Fatalf("Failed to decode notes: %v", err)
	}
	if len(globexNotes) != 0 {
		t.Errorf("Expected zero notes for Globex, got %d", len(globexNotes))
	}

	// A Globex session cannot upgrade Acme, and learns nothing about the slug
	rr = srv.do(t, "POST", "/api/tenants/acme/upgrade", tokenB, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for foreign tenant upgrade, got %d", rr.Code)
	}

	// An Acme MEMBER hits the role gate instead
	tokenMember := srv.login(t, "user@acme.test")
	rr = srv.do(t, "POST", "/api/tenants/acme/upgrade", tokenMember, nil)
	if rr.Code != http.StatusForbidden {
		t.Errorf("Expected 403 for member upgrade, got %d", rr.Code)
	}

	// The Acme ADMIN upgrades, then the fourth note fits
	rr = srv.do(t, "POST", "/api/tenants/acme/upgrade", tokenA, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Expected 200 for admin upgrade, got %d %s", rr.Code, rr.Body.String())
	}
	var upgradeResp struct {
		Tenant *models.Tenant `json:"tenant"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &upgradeResp); err != nil {
		t.Fatalf("Failed to decode upgrade response: %v", err)
	}
	if upgradeResp.Tenant.Plan != models.PlanPro {
		t.Errorf("Expected plan PRO, got %s", upgradeResp.Tenant.Plan)
	}

	rr = srv.do(t, "POST", "/api/notes", tokenA, map[string]string{
		"title":   "note 4",
		"content": "body",
	})
	if rr.Code != http.StatusCreated {
		t.Errorf("Expected 201 after upgrade, got %d %s", rr.Code, rr.Body.String())
	}
}

func TestNoteCrossTenantAccessIs404(t *testing.T) {
	srv := newTestServer(t)

	tokenAcme := srv.login(t, "admin@acme.test")
	tokenGlobex := srv.login(t, "admin@globex.test")

	rr := srv.do(t, "POST", "/api/notes", tokenAcme, map[string]string{
		"title":   "secret",
		"content": "acme only",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d", rr.Code)
	}
	var created notes.Note
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode note: %v", err)
	}

	for _, tc := range []struct {
		method string
		body   interface{}
	}{
		{"GET", nil},
		{"PUT", map[string]string{"title": "x", "content": "y"}},
		{"DELETE", nil},
	} {
		rr := srv.do(t, tc.method, "/api/notes/"+created.ID, tokenGlobex, tc.body)
		if rr.Code != http.StatusNotFound {
			t.Errorf("%s cross-tenant: expected 404, got %d", tc.method, rr.Code)
		}
	}

	// The owner still reads it
	rr = srv.do(t, "GET", "/api/notes/"+created.ID, tokenAcme, nil)
	if rr.Code != http.StatusOK {
		t.Errorf("Owner get: expected 200, got %d", rr.Code)
	}
}

func TestNoteRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	token := srv.login(t, "admin@acme.test")

	rr := srv.do(t, "POST", "/api/notes", token, map[string]string{
		"title":   "draft",
		"content": "first version",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Create failed: %d", rr.Code)
	}
	var created notes.Note
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("Failed to decode note: %v", err)
	}

	rr = srv.do(t, "GET", "/api/notes/"+created.ID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Get failed: %d", rr.Code)
	}
	var fetched notes.Note
	if err := json.Unmarshal(rr.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("Failed to decode note: %v", err)
	}
	if fetched.Title != created.Title || fetched.Content != created.Content {
		t.Errorf("Round trip mismatch: %+v vs %+v", fetched, created)
	}

	time.Sleep(5 * time.Millisecond)

	rr = srv.do(t, "PUT", "/api/notes/"+created.ID, token, map[string]string{
		"title":   "final",
		"content": "second version",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("Update failed: %d %s", rr.Code, rr.Body.String())
	}
	var updated notes.Note
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("Failed to decode note: %v", err)
	}
	if updated.Title != "final" || updated.Content != "second version" {
		t.Errorf("Update not reflected: %+v", updated)
	}
	if updated.UpdatedAt <= updated.CreatedAt {
		t.Errorf("Expected updated_at > created_at, got %d <= %d", updated.UpdatedAt, updated.CreatedAt)
	}

	rr = srv.do(t, "DELETE", "/api/notes/"+created.ID, token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("Delete failed: %d", rr.Code)
	}

	rr = srv.do(t, "GET", "/api/notes/"+created.ID, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected 404 after delete, got %d", rr.Code)
	}
}

func TestRegisterFlow(t *testing.T) {
	srv := newTestServer(t)

	// New organization name creates a FREE tenant
	rr := srv.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":      "founder@initech.test",
		"password":   "hunter22",
		"tenantName": "Initech Inc",
		"role":       "ADMIN",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Register failed: %d %s", rr.Code, rr.Body.String())
	}
	var resp struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	if resp.User.Tenant == nil || resp.User.Tenant.Slug != "initech-inc" {
		t.Fatalf("Expected tenant slug initech-inc, got %+v", resp.User.Tenant)
	}
	if resp.User.Tenant.Plan != models.PlanFree || resp.User.Tenant.NoteLimit != 3 {
		t.Errorf("Expected FREE plan with limit 3, got %+v", resp.User.Tenant)
	}

	// Same organization name, different casing and spacing, joins that tenant
	rr = srv.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":      "coworker@initech.test",
		"password":   "hunter22",
		"tenantName": "  initech   INC ",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("Second register failed: %d %s", rr.Code, rr.Body.String())
	}
	var second struct {
		User *models.User `json:"user"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &second); err != nil {
		t.Fatalf("Failed to decode register response: %v", err)
	}
	if second.User.TenantID != resp.User.TenantID {
		t.Errorf("Expected both users in the same tenant, got %s and %s", second.User.TenantID, resp.User.TenantID)
	}
	if second.User.Role != models.RoleMember {
		t.Errorf("Expected default role MEMBER, got %s", second.User.Role)
	}

	// Duplicate email conflicts
	rr = srv.do(t, "POST", "/api/auth/register", "", map[string]string{
		"email":      "founder@initech.test",
		"password":   "other",
		"tenantName": "Initech Inc",
	})
	if rr.Code != http.StatusConflict {
		t.Errorf("Expected 409 for duplicate email, got %d", rr.Code)
	}

	// Missing fields
	rr = srv.do(t, "POST", "/api/auth/register", "", map[string]string{"email": "x@y.test"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", rr.Code)
	}
}

func TestLoginUniformError(t *testing.T) {
	srv := newTestServer(t)

	wrongPassword := srv.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "admin@acme.test",
		"password": "wrong",
	})
	unknownEmail := srv.do(t, "POST", "/api/auth/login", "", map[string]string{
		"email":    "ghost@acme.test",
		"password": "password",
	})

	if wrongPassword.Code != http.StatusUnauthorized || unknownEmail.Code != http.StatusUnauthorized {
		t.Fatalf("Expected 401 for both, got %d and %d", wrongPassword.Code, unknownEmail.Code)
	}

	var a, b struct {
		Message string `json:"message"`
	}
	json.Unmarshal(wrongPassword.Body.Bytes(), &a)
	json.Unmarshal(unknownEmail.Body.Bytes(), &b)
	if a.Message != b.Message {
		t.Errorf("Credential errors must be indistinguishable: %q vs %q", a.Message, b.Message)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/health", "/api/health"} {
		rr := srv.do(t, "GET", path, "", nil)
		if rr.Code != http.StatusOK {
			t.Errorf("%s: expected 200, got %d", path, rr.Code)
			continue
		}
		var resp struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("Failed to decode health response: %v", err)
		}
		if resp.Status != "ok" {
			t.Errorf("%s: expected status ok, got %s", path, resp.Status)
		}
	}
}

func TestNotesRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	rr := srv.do(t, "GET", "/api/notes", "", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rr.Code)
	}

	rr = srv.do(t, "POST", "/api/notes", "garbage-token", map[string]string{"title": "t", "content": "c"})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 with bad token, got %d", rr.Code)
	}
}
