package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vinylvault/pos/config"
	"github.com/vinylvault/pos/internal/adapter/handler"
	"github.com/vinylvault/pos/internal/adapter/storage"
	"github.com/vinylvault/pos/internal/core/service"
	"github.com/vinylvault/pos/internal/port"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	setLogLevel(cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage: the ledger is the single point of truth for stock.
	var (
		repo      port.DatabaseRepository
		customers port.CustomerDirectory
	)
	switch cfg.StorageBackend {
	case "memory":
		mem := storage.NewMemoryAdapter()
		repo, customers = mem, mem
		log.Warn().Msg("using in-memory storage; state is lost on exit")
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open mysql")
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)
		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping mysql")
		}
		defer db.Close()
		log.Info().Msg("connected to mysql")

		adapter := storage.NewMySQLAdapter(db)
		repo, customers = adapter, adapter
	default:
		log.Fatal().Str("backend", cfg.StorageBackend).Msg("unknown storage backend")
	}

	// Redis catalog cache is optional; reads fall through to the ledger
	// when it is absent or unreachable.
	var cache port.CacheRepository
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, catalog caching disabled")
		} else {
			defer rdb.Close()
			cache = storage.NewRedisAdapter(rdb)
			log.Info().Msg("connected to redis")
		}
	}

	catalogService := service.NewCatalogService(repo, cache)
	inventoryService := service.NewInventoryService(repo, cache)
	orderService := service.NewOrderService(repo, customers, cache)

	httpHandler := handler.NewHTTPHandler(catalogService, inventoryService, orderService, customers)
	mux := http.NewServeMux()
	httpHandler.Register(mux)

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info().Msg("HTTP server stopped")
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
