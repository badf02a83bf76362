package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "notably/internal/api/context"
	"notably/internal/api/middleware"
	"notably/internal/pkg/errors"
	"notably/internal/platform/repositories"
)

type TenantHandler struct {
	tenantRepo *repositories.TenantRepository
}

func NewTenantHandler(tenantRepo *repositories.TenantRepository) *TenantHandler {
	return &TenantHandler{tenantRepo: tenantRepo}
}

type UpgradeResponse struct {
	Message string      `json:"message"`
	Tenant  interface{} `json:"tenant"`
}

// Upgrade moves the session's own tenant to the PRO plan. A slug naming any
// other tenant answers 404 so foreign slugs cannot be probed.
func (h *TenantHandler) Upgrade(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)
	slug := params.ByName("slug")

	if slug != tenantCtx.Tenant.Slug {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Tenant not found", nil)
		return
	}

	tenant, err := h.tenantRepo.Upgrade(slug, tenantCtx.Tenant.ID)
	if err != nil {
		log.Error().Err(err).Str("slug", slug).Msg("failed to upgrade tenant")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if tenant == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Tenant not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UpgradeResponse{
		Message: "Successfully upgraded to Pro plan",
		Tenant:  tenant,
	})
}
