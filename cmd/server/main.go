/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the staffing engine server: configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load environment config (.env honored), then command-line flags
  2. Initialize SQLite store
  3. Create API handler with store + system clock
  4. Configure HTTP router
  5. Start server with graceful shutdown

CONFIGURATION:
  PORT / -port      HTTP server port (default: 8080)
  DB_PATH / -db     SQLite database path (default: staffing.db)
                    Use ":memory:" for an in-memory database
  Flags take precedence over environment values.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, wait for active
  requests (30s timeout), close the database, exit.

SEE ALSO:
  - api/server.go: router configuration
  - store/sqlite: database implementation
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
	"syscall"
	"time"

	"github.com/warp/staffing-engine/api"
	"github.com/warp/staffing-engine/config"
	"github.com/warp/staffing-engine/core"
	"github.com/warp/staffing-engine/store/sqlite"
)

func main() {
	cfg := config.Load(8080, "staffing.db")
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	flag.Parse()

	st, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer st.Close()

	handler := api.NewHandler(st, core.SystemClock{})
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
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
