package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"notably/internal/platform/database"
)

type HealthHandler struct {
	connector *database.Connector
}

func NewHealthHandler(connector *database.Connector) *HealthHandler {
	return &HealthHandler{connector: connector}
}

func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string)

	db, err := h.connector.Get()
	if err != nil {
		checks["database"] = "unhealthy: " + err.Error()
	} else if err := db.Ping(); err != nil {
		checks["database"] = "unhealthy: " + err.Error()
	} else {
		checks["database"] = "healthy"
	}

	status := "ok"
	statusCode := http.StatusOK
	if checks["database"] != "healthy" {
		status = "degraded"
		statusCode = http.StatusServiceUnavailable
	}

	response := struct {
		Status    string            `json:"status"`
		Timestamp int64             `json:"timestamp"`
		Checks    map[string]string `json:"checks"`
	}{
		Status:    status,
		Timestamp: time.Now().Unix(),
		Checks:    checks,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(response)
}

// Simple serves the bare liveness shape used by automated test harnesses.
func (h *HealthHandler) Simple(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Notably API", "status": "ok"})
}
