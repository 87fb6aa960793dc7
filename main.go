package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"

	"moodlog/internal/api"
	"moodlog/internal/auth"
	"moodlog/internal/completion"
	"moodlog/internal/config"
	"moodlog/internal/ledger"
	"moodlog/internal/logging"
	"moodlog/internal/redis"
	"moodlog/internal/responder"
	"moodlog/internal/sentiment"
	"moodlog/internal/service/journal"
	"moodlog/internal/storage"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadEnv(os.Getenv("MOODLOG_ENV_FILE"))
	cfg, err := config.Load(os.Getenv("MOODLOG_CONFIG"))
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.InitLogger(cfg.Logging)

	dbType := cfg.BasicConfig.Driver
	slog.Info("[Main] opening database", slog.String("driver", dbType))
	db, err := storage.Open(dbType, cfg)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	// Create necessary tables: users, user_tokens, mood_entries, settings
	if err := storage.Migrate(db, dbType); err != nil {
		log.Fatalf("migrate database: %v", err)
	}

	var rdb *redis.Client
	if redis.Enabled(cfg) {
		rdb, err = redis.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("create redis client: %v", err)
		}
		defer rdb.Close()
	}

	cipher, err := ledger.CipherFromEnv()
	if err != nil {
		log.Fatalf("entry cipher: %v", err)
	}
	if cipher == nil {
		slog.Warn("[Main] " + ledger.EntryKeyEnv + " not set, journal text is stored in plain text")
	}

	completer := newCompleter(cfg)
	entries := ledger.New(db, cipher)
	journalService := journal.NewService(db, entries,
		sentiment.NewClassifier(completer),
		responder.New(completer),
		cfg.BasicConfig.HistoryLimit,
	)
	authService := auth.NewService(db, rdb, cfg.TokenTTL())

	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	defer purgeCancel()
	authService.StartPurgeLoop(purgeCtx, cfg.TokenPurgeInterval())

	router := gin.New()
	router.Use(gin.Recovery(), api.RequestLogger(), api.CORS())
	api.NewHandler(journalService, authService).RegisterRoutes(router)

	addr := cfg.ServerAddress()
	slog.Info("[Main] listening", slog.String("addr", addr))
	if err := router.Run(addr); err != nil {
		log.Fatalf("server stopped: %v", err)
	}
}

// newCompleter builds the configured chat model. Without a usable provider the
// service still runs: replies fall back to canned text and sentiment to the
// lexical tier.
func newCompleter(cfg *config.Config) completion.Completer {
	name, pc, ok := cfg.Provider()
	if !ok {
		slog.Warn("[Main] no API key for completion provider, running without a model", slog.String("provider", name))
		return completion.Disabled{}
	}
	client, err := completion.NewClient(context.Background(), name, pc, cfg.CompletionTimeout())
	if err != nil {
		if !errors.Is(err, completion.ErrNotConfigured) {
			slog.Error("[Main] init completion client", slog.String("provider", name), slog.Any("err", err))
		}
		return completion.Disabled{}
	}
	slog.Info("[Main] completion provider ready", slog.String("provider", name))
	return client
}
