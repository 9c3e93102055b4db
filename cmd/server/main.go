// Package main is the entry point for the StageLights engine server.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/bbernstein/stagelights-go/internal/api"
	"github.com/bbernstein/stagelights-go/internal/config"
	"github.com/bbernstein/stagelights-go/internal/controller"
	"github.com/bbernstein/stagelights-go/internal/services/mqtt"
	"github.com/bbernstein/stagelights-go/internal/services/pubsub"
)

// Version information (set at build time)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load .env file if present
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	printBanner(cfg)

	events := pubsub.New()

	// Create and initialize the lighting controller
	ctrl := controller.New(cfg, events)
	if !ctrl.Initialize() {
		log.Fatalf("Failed to initialize lighting controller (mode %q)", cfg.DMXMode)
	}

	// Drive the tick loop
	tickCtx, stopTicking := context.WithCancel(context.Background())
	go ctrl.Run(tickCtx)

	// Optional MQTT discovery bridge
	var publisher *mqtt.Publisher
	if cfg.MQTTBrokerURL != "" {
		var err error
		publisher, err = mqtt.NewPublisher(cfg.MQTTBrokerURL, cfg.MQTTTopicPrefix)
		if err != nil {
			log.Printf("Warning: MQTT publisher disabled: %v", err)
		} else {
			publisher.Start(events)
		}
	}

	// Create router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	// CORS
	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin, "http://localhost:3000", "http://localhost:4000"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		Debug:            cfg.IsDevelopment(),
	})
	router.Use(corsMiddleware.Handler)

	// Routes
	router.Get("/health", healthCheckHandler)
	api.NewHandler(ctrl, events).Routes(router)

	// Create HTTP server
	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on http://localhost:%s\n", cfg.Port)
		log.Printf("Control API: http://localhost:%s/api, events: ws://localhost:%s/ws\n", cfg.Port, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cleanup services in reverse order
	if publisher != nil {
		publisher.Stop(events)
	}
	stopTicking()
	ctrl.Shutdown()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// healthCheckHandler returns the server health status.
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	response := fmt.Sprintf(`{
  "status": "ok",
  "timestamp": "%s",
  "version": "%s"
}`, time.Now().UTC().Format(time.RFC3339), Version)

	_, _ = w.Write([]byte(response))
}

// printBanner prints the startup banner.
func printBanner(cfg *config.Config) {
	fmt.Println("============================================")
	fmt.Println("  StageLights Engine")
	fmt.Printf("  Version: %s\n", Version)
	fmt.Printf("  Build:   %s\n", BuildTime)
	fmt.Printf("  Commit:  %s\n", GitCommit)
	fmt.Println("============================================")
	fmt.Printf("  Environment: %s\n", cfg.Env)
	fmt.Printf("  Port:        %s\n", cfg.Port)
	fmt.Printf("  DMX mode:    %s\n", cfg.DMXMode)
	fmt.Printf("  Tick rate:   %d Hz\n", cfg.TickRate)
	fmt.Printf("  RDM:         %v\n", cfg.RDMEnabled)
	fmt.Println("============================================")
}
