package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"notably/internal/engine/tenants"
	"notably/internal/pkg/errors"
	"notably/internal/pkg/validator"
	"notably/internal/platform/auth"
	"notably/internal/platform/config"
	"notably/internal/platform/models"
	"notably/internal/platform/repositories"
)

type AuthHandler struct {
	userRepo   *repositories.UserRepository
	tenantRepo *repositories.TenantRepository
	tokenSvc   *auth.TokenService
	tenantCfg  config.TenantsConfig
}

func NewAuthHandler(userRepo *repositories.UserRepository, tenantRepo *repositories.TenantRepository, tokenSvc *auth.TokenService, tenantCfg config.TenantsConfig) *AuthHandler {
	if tenantCfg.FreeNoteLimit == 0 {
		tenantCfg.FreeNoteLimit = 3
	}
	return &AuthHandler{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
		tokenSvc:   tokenSvc,
		tenantCfg:  tenantCfg,
	}
}

type RegisterRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantName string `json:"tenantName"`
	Role       string `json:"role"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	if req.Email == "" || req.Password == "" || req.TenantName == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "email, password and tenantName are required", nil)
		return
	}

	if err := validator.ValidateEmail(req.Email); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, err.Error(), nil)
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleMember
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "role must be ADMIN or MEMBER", nil)
		return
	}

	slug := tenants.Slugify(req.TenantName)
	if slug == "" {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "tenantName must contain at least one alphanumeric character", nil)
		return
	}

	existingUser, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if existingUser != nil {
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Email already registered", nil)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to hash password", nil)
		return
	}

	// A matching slug joins the existing tenant, otherwise a new FREE tenant
	// is created alongside the user in one transaction.
	tenant, err := h.tenantRepo.GetBySlug(slug)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	now := time.Now().UnixMilli()

	tx, err := h.tenantRepo.BeginTx()
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	defer tx.Rollback()

	if tenant == nil {
		tenant = &models.Tenant{
			ID:        "tnt_" + uuid.NewString(),
			Slug:      slug,
			Name:      req.TenantName,
			Plan:      models.PlanFree,
			NoteLimit: h.tenantCfg.FreeNoteLimit,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := h.tenantRepo.CreateTx(tx, tenant); err != nil {
			log.Error().Err(err).Str("slug", slug).Msg("failed to create tenant")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to create tenant", nil)
			return
		}
	}

	user := &models.User{
		ID:           "usr_" + uuid.NewString(),
		TenantID:     tenant.ID,
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.userRepo.CreateTx(tx, user); err != nil {
		log.Error().Err(err).Str("email", req.Email).Msg("failed to create user")
		errors.WriteError(w, http.StatusConflict, errors.ErrCodeConflict, "Email already registered", nil)
		return
	}

	if err := tx.Commit(); err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	user.Tenant = tenant

	token, err := h.tokenSvc.GenerateToken(user.ID, user.Email, user.Role, user.TenantID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Token: token,
		User:  user,
	})
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	user, err := h.userRepo.GetByEmail(req.Email)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	// Unknown email and wrong password answer identically
	if user == nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid credentials", nil)
		return
	}

	token, err := h.tokenSvc.GenerateToken(user.ID, user.Email, user.Role, user.TenantID)
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to generate token", nil)
		return
	}

	tenant, err := h.tenantRepo.GetByID(user.TenantID)
	if err == nil {
		user.Tenant = tenant
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Token: token,
		User:  user,
	})
}
