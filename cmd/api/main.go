// Package main provides the entry point for the DocVault API server
// @title DocVault API
// @version 1.0
// @description Authentication and account security backend for the DocVault file-access portal.
// @host localhost:8080
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token authentication
// @Security BearerAuth
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"docvault/internal/api/routes"
	"docvault/internal/config"
	"docvault/internal/database"
	"docvault/internal/maintenance"
	"docvault/internal/repository/postgres"
	"docvault/internal/validation"

	"github.com/joho/godotenv"
)

func main() {
	envFile := flag.String("env", ".env", "Path to env file")
	flag.Parse()

	if err := godotenv.Load(*envFile); err != nil && *envFile == ".env" {
		log.Printf("Warning: %v", err)
	}

	cfg := &config.Config{}
	if err := cfg.LoadFromEnv(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.Database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	validation.Initialize()

	router := routes.SetupRoutes(cfg, db)

	port, err := strconv.Atoi(cfg.API.Port)
	if err != nil {
		log.Fatalf("Invalid port number: %v", err)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic cleanup of expired sessions and old login history
	maintenanceManager := maintenance.NewManager(
		cfg.Maintenance,
		postgres.NewSessionRepository(db),
		postgres.NewLoginHistoryRepository(db),
	)
	go func() {
		if err := maintenanceManager.Start(ctx); err != nil {
			log.Printf("Maintenance scheduler error: %v", err)
		}
	}()

	go func() {
		log.Printf("Starting server on port %d", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	// Give outstanding requests 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
