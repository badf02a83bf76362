package main

import (
	"fmt"
	"log"
	"net/http"

	"notably/internal/api"
	"notably/internal/api/handlers"
	"notably/internal/api/middleware"
	"notably/internal/engine/notes"
	"notably/internal/pkg/logger"
	"notably/internal/platform/auth"
	"notably/internal/platform/config"
	"notably/internal/platform/database"
	"notably/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	// Database connection, established once and shared
	connector := database.NewConnector(cfg.Database)
	db, err := connector.Get()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer connector.Close()

	// Repositories
	tenantRepo := repositories.NewTenantRepository(db)
	userRepo := repositories.NewUserRepository(db)
	noteRepo := notes.NewRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.JWT)
	noteSvc := notes.NewService(noteRepo)

	// Handlers
	authHandler := handlers.NewAuthHandler(userRepo, tenantRepo, tokenSvc, cfg.Tenants)
	noteHandler := handlers.NewNoteHandler(noteSvc)
	tenantHandler := handlers.NewTenantHandler(tenantRepo)
	healthHandler := handlers.NewHealthHandler(connector)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc)
	tenantMiddleware := middleware.NewTenantMiddleware(userRepo, tenantRepo)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.CORS)

	// Router
	deps := &api.Dependencies{
		AuthHandler:      authHandler,
		NoteHandler:      noteHandler,
		TenantHandler:    tenantHandler,
		HealthHandler:    healthHandler,
		AuthMiddleware:   authMiddleware,
		TenantMiddleware: tenantMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      corsMiddleware.Handle(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
