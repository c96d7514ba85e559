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

	"github.com/joho/godotenv"

	"dokanpos/internal/cache"
	"dokanpos/internal/config"
	"dokanpos/internal/httpapi"
	"dokanpos/internal/service"
	"dokanpos/internal/store"
	"dokanpos/internal/store/memory"
	sqlitestore "dokanpos/internal/store/sqlite"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("could not load .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	if err := validateSecurityConfig(cfg); err != nil {
		log.Fatalf("invalid security configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var repo store.Repository
	closers := make([]func() error, 0, 2)

	if cfg.DBPath != "" {
		db, err := sqlitestore.New(ctx, cfg.DBPath)
		if err != nil {
			log.Fatalf("sqlite unavailable (%v) and DB_PATH is set; refusing to start with in-memory fallback", err)
		}
		repo = db
		closers = append(closers, db.Close)
		log.Printf("repository: sqlite (%s)", cfg.DBPath)
	} else {
		repo = memory.NewSeeded()
		log.Println("repository: in-memory")
	}

	invoiceCache := cache.InvoiceCache(cache.NoopInvoiceCache{})
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisInvoiceCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("redis unavailable (%v), using noop cache", err)
		} else {
			invoiceCache = redisCache
			closers = append(closers, redisCache.Close)
			log.Println("cache: redis")
		}
	} else {
		log.Println("cache: noop")
	}

	svc := service.New(repo, invoiceCache, cfg.InvoiceCacheTTL)
	if err := svc.EnsureAdminUser(ctx, cfg.SeedAdminPassword); err != nil {
		log.Fatalf("seed admin user: %v", err)
	}

	auth := httpapi.NewAuthManager(cfg.AuthSecret, cfg.AccessTokenTTL, repo)
	api := httpapi.New(svc, auth, cfg.AllowedOrigin)

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           api.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("POS backend listening on %s", cfg.Address())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 8*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			log.Printf("close error: %v", err)
		}
	}

	log.Println("server stopped")
}

func validateSecurityConfig(cfg *config.Config) error {
	if len(cfg.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be set and at least 32 characters")
	}
	return nil
}
