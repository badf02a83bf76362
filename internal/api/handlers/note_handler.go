package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog/log"

	apiContext "notably/internal/api/context"
	"notably/internal/api/middleware"
	"notably/internal/engine/notes"
	"notably/internal/pkg/errors"
)

type NoteHandler struct {
	service *notes.Service
}

func NewNoteHandler(service *notes.Service) *NoteHandler {
	return &NoteHandler{service: service}
}

type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *NoteHandler) Create(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	note, err := h.service.CreateNote(tenantCtx.Tenant.ID, tenantCtx.User.ID, tenantCtx.User.Email, req.Title, req.Content)
	if err != nil {
		writeNoteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(note)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)

	notesList, err := h.service.ListNotes(tenantCtx.Tenant.ID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantCtx.Tenant.ID).Msg("failed to list notes")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(notesList)
}

func (h *NoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	note, err := h.service.GetNote(tenantCtx.Tenant.ID, params.ByName("id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if note == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Note not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(note)
}

func (h *NoteHandler) Update(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	var req NoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	note, err := h.service.UpdateNote(tenantCtx.Tenant.ID, params.ByName("id"), req.Title, req.Content)
	if err != nil {
		writeNoteError(w, err)
		return
	}
	if note == nil {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Note not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(note)
}

func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	tenantCtx := r.Context().Value(apiContext.Tenant).(*middleware.TenantContext)
	params := r.Context().Value(apiContext.Params).(httprouter.Params)

	deleted, err := h.service.DeleteNote(tenantCtx.Tenant.ID, params.ByName("id"))
	if err != nil {
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
		return
	}
	if !deleted {
		errors.WriteError(w, http.StatusNotFound, errors.ErrCodeNotFound, "Note not found", nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Note deleted successfully"})
}

func writeNoteError(w http.ResponseWriter, err error) {
	var validationErr *notes.ValidationError
	switch {
	case stderrors.Is(err, notes.ErrLimitReached):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeNoteLimitReached,
			"Note limit reached. Upgrade to Pro for unlimited notes.", nil)
	case stderrors.As(err, &validationErr):
		errors.WriteError(w, http.StatusBadRequest, errors.ErrCodeInvalidInput, validationErr.Error(), nil)
	default:
		log.Error().Err(err).Msg("note operation failed")
		errors.WriteError(w, http.StatusInternalServerError, errors.ErrCodeInternal, "Database error", nil)
	}
}
