// main.go
package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gewnthar/verif-rotation/config"
	"github.com/gewnthar/verif-rotation/database"
	"github.com/gewnthar/verif-rotation/handlers"
	"github.com/gewnthar/verif-rotation/metrics"
	"github.com/gewnthar/verif-rotation/reference"
	"github.com/gewnthar/verif-rotation/routing"
	"github.com/gewnthar/verif-rotation/services"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Println("Starting verif-rotation API...")

	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("WARN: could not load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}
	log.Printf("Configuration loaded. Port: %s, OSRM: %s, reference: %s",
		cfg.Server.Port, cfg.Routing.BaseURL, cfg.Reference.Path)

	metrics.RegisterDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Without reference data no import can resolve anything: refuse to start.
	index, err := reference.Load(ctx, cfg.Reference.Path, reference.ColumnsFrom(cfg.Reference))
	if err != nil {
		log.Fatalf("Error loading reference data: %v", err)
	}
	metrics.ReferencePoints.Set(float64(index.Len()))
	log.Printf("EMP loaded: %d points", index.Len())

	deps := handlers.RouterDeps{
		Index:          index,
		CORSOrigin:     cfg.Server.CORSOrigin,
		MaxUploadBytes: cfg.Server.MaxUploadBytes(),
	}

	var (
		db       *sql.DB
		recorder services.ImportRecorder
	)
	if cfg.Database.Enabled() {
		db, err = database.Open(ctx, cfg.Database)
		if err != nil {
			log.Fatalf("Error initializing database: %v", err)
		}
		store := database.NewImportStore(db)
		recorder = store
		deps.History = store
	} else {
		log.Println("Database: import history disabled")
	}
	defer database.CloseDB(db)

	deps.Importer = services.NewTripImportService(index, routing.NewClient(cfg.Routing), recorder)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       2 * time.Minute,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on http://0.0.0.0%s", server.Addr)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			log.Printf("ERROR: server stopped: %v", err)
		}
	case <-ctx.Done():
		log.Println("Shutdown signal received, draining requests...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("ERROR: graceful shutdown failed: %v", err)
		}
	}
	log.Println("Server stopped")
}
