/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the club billing server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Initialize SQLite store
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, env PORT)
  -db      SQLite database path (default: billing.db, env DATABASE_PATH)
           Use ":memory:" for an in-memory database
  -docs    Directory for generated statement PDFs (default: ./documents,
           env DOCUMENTS_DIR)
  -seed    Season config JSON imported at startup (optional,
           env SEASON_CONFIG)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close database connection
  4. Exit
*/
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

	"github.com/joho/godotenv"

	"github.com/warp/billing-engine/api"
	"github.com/warp/billing-engine/seed"
	"github.com/warp/billing-engine/store/sqlite"
)

func main() {
	// .env is optional; flags override it.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DATABASE_PATH", "billing.db"), "SQLite database path")
	docsDir := flag.String("docs", envStr("DOCUMENTS_DIR", "./documents"), "directory for generated statement documents")
	seedPath := flag.String("seed", envStr("SEASON_CONFIG", ""), "season config JSON to import at startup")
	flag.Parse()

	if err := os.MkdirAll(*docsDir, 0o755); err != nil {
		log.Fatalf("Failed to create documents directory: %v", err)
	}

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	if *seedPath != "" {
		cfg, err := seed.ParseFile(*seedPath)
		if err != nil {
			log.Fatalf("Failed to load season config: %v", err)
		}
		if err := cfg.Apply(context.Background(), store); err != nil {
			log.Fatalf("Failed to import season config: %v", err)
		}
		log.Printf("Imported season config from %s", *seedPath)
	}

	handler := api.NewHandler(store, *docsDir)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Billing server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
