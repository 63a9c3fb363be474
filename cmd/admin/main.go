// cmd/admin/main.go
//
// Admin sidecar: a minimal operations surface kept off the public API port.
// Exposes manual backup triggering and archive browsing.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/haysimo/siteops/internal/archive"
	"github.com/haysimo/siteops/internal/cache"
	"github.com/haysimo/siteops/internal/config"
	"github.com/haysimo/siteops/internal/repository/postgres"
	"github.com/haysimo/siteops/internal/scheduler"
	"github.com/haysimo/siteops/internal/service"
)

type adminHandler struct {
	backups *scheduler.Scheduler
	archive *archive.Client
}

func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	if !cfg.Archive.Enabled {
		log.Fatal("admin sidecar requires ARCHIVE_ENABLED")
	}

	ctx := context.Background()

	// Initialize Database
	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	store := postgres.NewStore(db)
	snapshots := service.NewSnapshotService(store, cache.NewNoopAuditCache())

	archiveClient, err := archive.NewClient(ctx, cfg.Archive)
	if err != nil {
		log.Fatalf("Failed to connect to snapshot archive: %v", err)
	}

	h := &adminHandler{
		backups: scheduler.New(cfg.Backup.Schedule, snapshots, archiveClient),
		archive: archiveClient,
	}

	// Create router
	r := mux.NewRouter()
	r.HandleFunc("/backups", h.triggerBackup).Methods("POST")
	r.HandleFunc("/backups", h.listBackups).Methods("GET")
	r.HandleFunc("/backups/{name}", h.downloadBackup).Methods("GET")

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.AdminPort)
	log.Printf("Admin server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}

func (h *adminHandler) triggerBackup(w http.ResponseWriter, r *http.Request) {
	name, err := h.backups.RunBackup(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"object": name})
}

func (h *adminHandler) listBackups(w http.ResponseWriter, r *http.Request) {
	objects, err := h.archive.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, objects)
}

func (h *adminHandler) downloadBackup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	data, err := h.archive.Download(r.Context(), name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
