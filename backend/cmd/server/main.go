// ============================================================================
// backend/cmd/server/main.go
// Entry point for the TrainTrack backend server
// ============================================================================

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"traintrack/backend/internal/attendance"
	"traintrack/backend/internal/auth"
	"traintrack/backend/internal/gateway"
	"traintrack/backend/internal/grooming"
	"traintrack/backend/internal/identity"
	"traintrack/backend/internal/joiner"
	"traintrack/backend/internal/performance"
	"traintrack/backend/internal/report"
	"traintrack/backend/internal/shared"
	"traintrack/backend/internal/sheetsync"
	"traintrack/backend/internal/upload"
)

func main() {
	log.Println("Starting TrainTrack server...")

	// Load environment variables
	shared.LoadEnv(".env")

	// Load configuration
	config, err := shared.LoadServiceConfig("traintrack")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to MongoDB
	client, db, err := shared.ConnectMongoDB(&config.MongoDB)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := shared.DisconnectMongoDB(client); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	// Wire services
	identitySvc := identity.NewService(db)
	store := report.NewStore(db)
	joinerSvc := joiner.NewService(db)
	authSvc := auth.NewService(db, config.Security)
	fetcher := upload.NewHTTPFetcher(config.Sheets.FetchTimeout)
	uploader := upload.NewCoordinator(identitySvc, store, fetcher)
	performanceSvc := performance.NewService(identitySvc, store, joinerSvc)
	attendanceSvc := attendance.NewService(db, identitySvc, store)
	groomingSvc := grooming.NewService(identitySvc, store)
	writer := sheetsync.NewWebhookWriter(config.Sheets.WebhookURL, config.Sheets.FetchTimeout)
	syncSvc := sheetsync.NewService(identitySvc, joinerSvc, store, writer)

	router := gateway.SetupRoutes(&gateway.Services{
		Auth:        authSvc,
		Identity:    identitySvc,
		Store:       store,
		Uploader:    uploader,
		Performance: performanceSvc,
		Attendance:  attendanceSvc,
		Grooming:    groomingSvc,
		Joiners:     joinerSvc,
		Sync:        syncSvc,
	}, config.CORS)

	server := &http.Server{
		Addr:         ":" + config.HTTPPort,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Printf("TrainTrack server listening on port %s (%s)", config.HTTPPort, config.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down TrainTrack server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Graceful shutdown failed: %v", err)
	}
	log.Println("TrainTrack server stopped")
}
