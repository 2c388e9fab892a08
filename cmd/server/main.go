package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/diewo77/go-freelance/auth"
	"github.com/diewo77/go-freelance/internal/cache"
	"github.com/diewo77/go-freelance/internal/config"
	"github.com/diewo77/go-freelance/internal/db"
	"github.com/diewo77/go-freelance/internal/policy"
	"github.com/diewo77/go-freelance/internal/receipts"
	"github.com/diewo77/go-freelance/internal/store"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Run DB seed and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	cfg := config.Load()
	if !cfg.App.Dev && cfg.Auth.SessionSecret == "devsessionsecret" {
		log.Fatal("SESSION_SECRET must be set outside dev mode")
	}

	dbConn, err := db.Connect(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn, cfg); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Migrations completed successfully")
		return
	}

	if *seedOnlyFlag {
		if err := db.Seed(dbConn); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		log.Println("Seeding completed successfully")
		return
	}

	if err := db.Migrate(dbConn, cfg); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if cfg.App.Seed {
		if err := db.Seed(dbConn); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
	}

	st := store.New(dbConn)
	auth.SetUserVerifier(st.UserExists)

	overviewCache := newCache(cfg.Redis)
	if closer, ok := overviewCache.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	appHandler := NewApp(Deps{
		Store:    st,
		Cache:    overviewCache,
		CacheTTL: cfg.Redis.CacheTTL,
		Receipts: newReceiptStorage(cfg.Minio, cfg.App.Dev),
		TokenTTL: cfg.Auth.TokenTTL,
		Gate:     policy.NewGate(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      withLogging(appHandler),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	go func() {
		log.Printf("Server starting on port %s (dev=%v)", cfg.Server.Port, cfg.App.Dev)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server stopped gracefully")
}

// newCache returns the Redis cache when configured and reachable, the
// in-process cache otherwise.
func newCache(cfg config.RedisConfig) cache.Cache {
	if !cfg.Enabled() {
		return cache.NewMemory()
	}
	rc, err := cache.NewRedis(cfg.Addr, cfg.Password, cfg.DB, "freelance:")
	if err != nil {
		log.Printf("Redis unavailable, using in-memory cache: %v", err)
		return cache.NewMemory()
	}
	log.Printf("Overview cache: redis %s", cfg.Addr)
	return rc
}

// newReceiptStorage returns MinIO storage when configured. Dev mode falls
// back to memory; otherwise uploads are disabled.
func newReceiptStorage(cfg config.MinioConfig, dev bool) receipts.Storage {
	if cfg.Enabled() {
		m, err := receipts.NewMinio(cfg.Endpoint, cfg.AccessKey, cfg.SecretKey, cfg.Bucket, cfg.Secure)
		if err == nil {
			return m
		}
		log.Printf("MinIO unavailable: %v", err)
	}
	if dev {
		return receipts.NewMemory()
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// withLogging adds request logging middleware.
func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
