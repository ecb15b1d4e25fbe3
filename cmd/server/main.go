package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xaenox/chatter-assist/internal/chat"
	"github.com/xaenox/chatter-assist/internal/classifier"
	"github.com/xaenox/chatter-assist/internal/drafter"
	"github.com/xaenox/chatter-assist/internal/notify"
	"github.com/xaenox/chatter-assist/internal/pricing"
	"github.com/xaenox/chatter-assist/internal/server"
	"github.com/xaenox/chatter-assist/internal/storage"
	"github.com/xaenox/chatter-assist/pkg/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the config file")
	flag.Parse()

	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, _ := zap.NewProduction()
	if cfg.Log.Development {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	// Initialize storage
	store, err := openStorage(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	keywords, err := classifier.LoadKeywords(cfg.Classifier.KeywordsFile)
	if err != nil {
		logger.Fatal("Failed to load keywords", zap.Error(err), zap.String("path", cfg.Classifier.KeywordsFile))
	}
	clf := classifier.NewClassifier(keywords, classifier.Thresholds{
		ConnectionMessages: cfg.Chat.ConnectionThreshold,
		OfferLookback:      cfg.Chat.OfferLookback,
	})

	llm := drafter.NewOpenAIDrafter(
		cfg.OpenAI.BaseURL,
		cfg.OpenAI.Model,
		cfg.OpenAI.MaxTokens,
		cfg.OpenAI.Temperature,
		logger.Named("drafter"),
	)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Telegram.Token != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID, logger.Named("telegram"))
		if err != nil {
			logger.Fatal("Failed to create Telegram notifier", zap.Error(err))
		}
		notifier = tg
	}

	svc := chat.NewService(store, clf, llm, notifier, pricing.FromFloats(cfg.Pricing.TierMultipliers), chat.Options{
		HistoryFetchLimit:  cfg.Chat.HistoryFetchLimit,
		HistoryReplayLimit: cfg.Chat.HistoryReplayLimit,
		FallbackAPIKey:     cfg.OpenAI.APIKey,
	}, logger.Named("chat"))

	router := server.NewRouter(server.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	}, chat.NewHandler(svc, logger.Named("http")), logger.Named("http"))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Shutdown error", zap.Error(err))
	}
}

func openStorage(cfg config.DatabaseConfig, logger *zap.Logger) (storage.Storage, error) {
	if cfg.UseInMemory {
		store := storage.NewMemoryStorage()
		if cfg.SeedFile == "" {
			logger.Warn("Using in-memory storage without seed data, every lookup will be not found")
			return store, nil
		}
		seed, err := storage.LoadSeed(cfg.SeedFile)
		if err != nil {
			return nil, err
		}
		store.Apply(seed)
		logger.Info("Using in-memory storage",
			zap.String("seed_file", cfg.SeedFile),
			zap.Int("models", len(seed.Models)),
			zap.Int("fans", len(seed.Fans)))
		return store, nil
	}

	logger.Info("Using SQL storage", zap.String("driver", cfg.Driver))
	store, err := storage.NewSQLStorage(storage.DatabaseConfig{
		Driver:   cfg.Driver,
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		DBName:   cfg.DBName,
		SSLMode:  cfg.SSLMode,
		Path:     cfg.Path,
	}, logger.Named("storage"))
	if err != nil {
		return nil, err
	}
	return store, nil
}
