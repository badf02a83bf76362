package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apiContext "notably/internal/api/context"
	"notably/internal/api/handlers"
	"notably/internal/api/middleware"
	"notably/internal/pkg/errors"
	"notably/internal/platform/auth"
)

type Dependencies struct {
	AuthHandler      *handlers.AuthHandler
	NoteHandler      *handlers.NoteHandler
	TenantHandler    *handlers.TenantHandler
	HealthHandler    *handlers.HealthHandler
	AuthMiddleware   *middleware.AuthMiddleware
	TenantMiddleware *middleware.TenantMiddleware
}

func NewRouter(deps *Dependencies) *httprouter.Router {
	router := httprouter.New()

	router.GET("/", wrap(deps.HealthHandler.Root))
	router.GET("/health", wrap(deps.HealthHandler.Check))
	router.GET("/api/health", wrap(deps.HealthHandler.Simple))

	// Authentication routes
	router.POST("/api/auth/register", wrap(deps.AuthHandler.Register))
	router.POST("/api/auth/login", wrap(deps.AuthHandler.Login))

	// Middleware references
	authMid := deps.AuthMiddleware
	tenantMid := deps.TenantMiddleware

	// Notes, always behind the resolved session tenant
	router.POST("/api/notes",
		chain(deps.NoteHandler.Create, authMid.Handle, tenantMid.Handle))
	router.GET("/api/notes",
		chain(deps.NoteHandler.List, authMid.Handle, tenantMid.Handle))
	router.GET("/api/notes/:id",
		chain(deps.NoteHandler.Get, authMid.Handle, tenantMid.Handle))
	router.PUT("/api/notes/:id",
		chain(deps.NoteHandler.Update, authMid.Handle, tenantMid.Handle))
	router.DELETE("/api/notes/:id",
		chain(deps.NoteHandler.Delete, authMid.Handle, tenantMid.Handle))

	// Plan management. The slug check runs before the role gate so a foreign
	// slug answers 404 regardless of the caller's role.
	router.POST("/api/tenants/:slug/upgrade",
		chain(deps.TenantHandler.Upgrade, authMid.Handle, tenantMid.Handle, requireOwnTenantSlug("slug"), requireRole("ADMIN")))

	return router
}

// Helper function to chain middlewares
func chain(handler http.HandlerFunc, middlewares ...func(http.HandlerFunc) http.HandlerFunc) httprouter.Handle {
	for i := len(middlewares) - 1; i >= 0; i-- {
		handler = middlewares[i](handler)
	}
	return wrap(handler)
}

// Convert http.HandlerFunc to httprouter.Handle
func wrap(handler http.HandlerFunc) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		// Inject params into context
		ctx := context.WithValue(r.Context(), apiContext.Params, ps)
		handler(w, r.WithContext(ctx))
	}
}

// requireOwnTenantSlug rejects requests whose slug path parameter names any
// tenant other than the session's own. The answer is 404, not 403, so other
// tenants' slugs cannot be confirmed to exist.
func requireOwnTenantSlug(param string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			tenantCtx, ok := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
			if !ok {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Authentication required", nil)
				return
			}

			params, _ := r.Context().Value(apiContext.Params).(httprouter.Params)
			if params.ByName(param) != tenantCtx.Tenant.Slug {
				errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Tenant not found", nil)
				return
			}

			next(w, r)
		}
	}
}

func requireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := r.Context().Value(apiContext.Claims).(*auth.Claims)
			if !ok {
				errors.WriteError(w, http.StatusUnauthorized, errors.ErrCodeUnauthorized, "Authentication required", nil)
				return
			}

			// Role comes from the freshly resolved user when the tenant
			// middleware ran first, not from the token
			if tenantCtx, ok := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext); ok {
				claims = &auth.Claims{UserID: claims.UserID, TenantID: claims.TenantID, Role: tenantCtx.User.Role, Email: claims.Email}
			}

			allowed := false
			for _, role := range roles {
				if claims.Role == role {
					allowed = true
					break
				}
			}

			if !allowed {
				errors.WriteError(w, http.StatusForbidden, errors.ErrCodeForbidden, "Insufficient permissions", map[string]interface{}{
					"required": roles,
					"current":  claims.Role,
				})
				return
			}

			next(w, r)
		}
	}
}
