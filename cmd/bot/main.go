package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/MishaNyaCopilot/MyAvitoHost/internal/avito"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/bot"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/config"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/database"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/events"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/repository"
	"github.com/MishaNyaCopilot/MyAvitoHost/internal/worker"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Ошибка загрузки конфигурации: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Некорректная конфигурация: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create database directory")
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("failed to create export directory")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Redis необязателен: без него клиент работает без кеша
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if err := repository.Ping(ctx, redisClient); err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, api cache disabled")
			redisClient = nil
		} else {
			defer repository.Close(redisClient)
		}
	}

	tokens := avito.NewStaticTokenProvider(cfg.Avito.AccessToken)
	avitoClient := avito.NewClient(cfg.Avito.BaseURL, cfg.Avito.AccountID, tokens, logger)
	if redisClient != nil && cfg.Avito.CacheTTLSeconds > 0 {
		avitoClient.UseRedisCache(redisClient, time.Duration(cfg.Avito.CacheTTLSeconds)*time.Second)
	}

	eventBus := events.NewEventBus()
	metrics := bot.NewMetrics()

	telegramBot, err := bot.NewBot(cfg, db, avitoClient, eventBus, metrics, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create bot")
	}

	subscribeBookingEvents(ctx, eventBus, db, telegramBot, logger)

	if cfg.Worker.Enabled {
		retryPolicy := worker.RetryPolicy{MaxRetries: 5, InitialDelay: 2 * time.Second, MaxDelay: time.Minute, BackoffFactor: 2}
		syncWorker := worker.NewSyncWorker(db, avitoClient, eventBus, telegramBot, retryPolicy, logger,
			time.Duration(cfg.Worker.SyncIntervalMinutes)*time.Minute, cfg.Worker.SyncWindowMonths)
		go syncWorker.Start(ctx)
	}

	if cfg.Monitoring.PrometheusEnabled {
		go serveMetrics(cfg.Monitoring.PrometheusPort, logger)
	}

	logger.Info().Str("app", cfg.App.Name).Str("env", cfg.App.Environment).Msg("бот запущен")
	go telegramBot.Start(ctx)

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	var out = os.Stdout
	logger := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if cfg.Format == "console" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339})
	}
	return logger
}

func serveMetrics(port int, logger zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	addr := fmt.Sprintf(":%d", port)
	logger.Info().Str("addr", addr).Msg("metrics server listening")
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("metrics server stopped")
	}
}

// subscribeBookingEvents транслирует события синхронизации в уведомления
// операторам: новая бронь и смена статуса.
func subscribeBookingEvents(ctx context.Context, bus *events.EventBus, db *database.DB, telegramBot *bot.Bot, logger zerolog.Logger) {
	decode := func(ev events.Event) (events.BookingEventPayload, bool) {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("failed to decode event payload")
			return payload, false
		}
		return payload, true
	}

	bus.Subscribe(events.EventBookingCreated, func(ev events.Event) error {
		payload, ok := decode(ev)
		if !ok {
			return nil
		}

		booking, err := db.GetBookingByAvitoID(ctx, payload.AvitoBookingID)
		if err != nil || booking == nil {
			logger.Error().Err(err).Str("booking_id", payload.AvitoBookingID).Msg("failed to load booking for notification")
			return nil
		}

		title := fmt.Sprintf("Объявление ID %d", booking.ListingID)
		if listing, err := db.GetListingByID(ctx, booking.ListingID); err == nil && listing != nil && listing.Title != "" {
			title = listing.Title
		}

		var price *float64
		if booking.BasePrice > 0 {
			price = &booking.BasePrice
		}
		telegramBot.NotifyOperators(bot.NewBookingMessage(title, booking.ContactName,
			booking.CheckIn.Format("02-01-2006"), booking.CheckOut.Format("02-01-2006"),
			price, booking.AvitoBookingID))
		return nil
	})

	bus.Subscribe(events.EventBookingStatusChanged, func(ev events.Event) error {
		payload, ok := decode(ev)
		if !ok {
			return nil
		}
		telegramBot.NotifyOperators(bot.StatusChangeMessage(payload.AvitoBookingID, payload.Status))
		return nil
	})
}
