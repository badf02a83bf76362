package middleware

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	apiContext "notably/internal/api/context"
	"notably/internal/pkg/errors"
	"notably/internal/platform/auth"
	"notably/internal/platform/models"
	"notably/internal/platform/repositories"
)

// TenantContext is what every downstream note query filters by. It is built
// from the verified session only; tenant identifiers in request bodies or
// query parameters are never consulted.
type TenantContext struct {
	User   *models.User
	Tenant *models.Tenant
}

type TenantMiddleware struct {
	userRepo   *repositories.UserRepository
	tenantRepo *repositories.TenantRepository
}

func NewTenantMiddleware(userRepo *repositories.UserRepository, tenantRepo *repositories.TenantRepository) *TenantMiddleware {
	return &TenantMiddleware{
		userRepo:   userRepo,
		tenantRepo: tenantRepo,
	}
}

// Handle re-resolves the user on every request: the token only says who the
// caller is, the database decides role and tenant. Role or tenant changes
// therefore apply immediately rather than at next login.
func (m *TenantMiddleware) Handle(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
		if !ok {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "No authentication claims found", nil)
			return
		}

		user, err := m.userRepo.GetByID(claims.UserID)
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("failed to load user")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load user", nil)
			return
		}
		if user == nil {
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Invalid token - user not found", nil)
			return
		}

		tenant, err := m.tenantRepo.GetByID(user.TenantID)
		if err != nil {
			log.Error().Err(err).Str("tenant_id", user.TenantID).Msg("failed to load tenant")
			errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Failed to load tenant", nil)
			return
		}
		if tenant == nil {
			// Unreachable while the users.tenant_id FK holds, but defended
			errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "User has no associated tenant", nil)
			return
		}

		ctx := context.WithValue(r.Context(), apiContext.Tenant, &TenantContext{
			User:   user,
			Tenant: tenant,
		})

		next(w, r.WithContext(ctx))
	}
}
