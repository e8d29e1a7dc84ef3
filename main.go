package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

const shutdownTimeout = 5 * time.Second

func main() {
	cfg, err := LoadConfig(".env", os.Args[1:])
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := OpenDB(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	analytics := NewAnalytics(db)

	game := NewGame(cfg.Sim(), analytics)
	go game.Run()

	hub := NewHub(game, db, NewAuth(db, cfg.JWTSecret), analytics, HubLimits{
		MaxConnsPerIP: cfg.MaxConnsPerIP,
		MaxTotalConns: cfg.MaxTotalConns,
	})
	go hub.Run()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	server := &http.Server{Addr: cfg.Addr, Handler: SetupRoutes(hub)}

	go func() {
		log.Printf("Server starting on %s (store: %s)", cfg.Addr, cfg.DBDriver)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	game.Stop()
	analytics.Stop()
	if n := analytics.Dropped(); n > 0 {
		log.Printf("analytics dropped %d events", n)
	}
	if err := db.Close(); err != nil {
		log.Printf("store close: %v", err)
	}
}
