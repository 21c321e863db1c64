package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rankpilot/backend/internal/api"
	"github.com/rankpilot/backend/internal/cache"
	"github.com/rankpilot/backend/internal/config"
	"github.com/rankpilot/backend/internal/database"
)

func main() {
	// Load a local .env in development; missing files are fine
	_ = godotenv.Load()

	cfg := config.Load()

	log.Printf("[main] Starting RankPilot API (env=%s)", cfg.Env)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Connect to database
	dbCfg := database.DefaultConfig(cfg.DatabaseURL)
	db, err := database.New(ctx, dbCfg)
	if err != nil {
		log.Fatalf("[main] Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis when configured; otherwise rate limiting runs
	// in-process
	var redisCache *cache.Redis
	if cfg.RedisURL != "" {
		redisCache, err = cache.NewRedisFromURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("[main] Failed to connect to Redis: %v", err)
		}
		defer redisCache.Close()
	} else {
		log.Println("[main] REDIS_URL not set, using in-process rate limiting")
	}

	router := api.NewRouter(cfg, db, redisCache)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[main] Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[main] Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] Server forced to shutdown: %v", err)
	}

	log.Println("[main] Server stopped")
}
