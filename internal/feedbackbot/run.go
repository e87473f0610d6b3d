package feedbackbot

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/workeazeedawg-lang/Korus-Feedback/internal/config"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/intake"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/logging"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/metrics"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/ratelimit"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/sink"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/speech"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/store/postgres"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/telegram"
	"github.com/workeazeedawg-lang/Korus-Feedback/internal/workflow"
)

// Run запускает сервис сбора отзывов и блокирует выполнение до остановки.
func Run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("redis url parse failed", slog.String("error", err.Error()))
		} else {
			redisClient = redis.NewClient(opts)
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Error("redis ping failed", slog.String("error", err.Error()))
				_ = redisClient.Close()
				redisClient = nil
			}
		}
	}
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error("redis close failed", slog.String("error", err.Error()))
			}
		}()
	}

	var db *sql.DB
	var userStore store.UserStore
	var vacancyStore store.VacancyStore
	var feedbackBuffer store.FeedbackBuffer

	if cfg.DatabaseURL == "" {
		logger.Warn("database url missing, using in-memory stores")
		userStore = store.NewMemoryUserStore()
		vacancyStore = store.NewMemoryVacancyStore()
		feedbackBuffer = store.NewMemoryFeedbackBuffer()
	} else {
		openCtx, cancel := context.WithTimeout(context.Background(), 35*time.Second)
		db, err = postgres.Open(openCtx, postgres.Config{
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxIdle:     cfg.DBConnMaxIdle,
			ConnMaxLifetime: cfg.DBConnMaxLife,
		})
		cancel()
		if err != nil {
			return fmt.Errorf("database connect failed: %w", err)
		}
		defer db.Close()
		userStore = postgres.NewUserStore(db)
		vacancyStore = postgres.NewVacancyStore(db)
		feedbackBuffer = postgres.NewFeedbackBuffer(db)
	}
	// Дедупликация живет в памяти процесса: набор ID растет до перезапуска.
	dedupStore := store.NewMemoryEventDedupStore()

	telegramClient := telegram.NewClient(cfg.BotToken, &http.Client{Timeout: cfg.TelegramTimeout})
	pollerClient := telegramClient
	if cfg.TelegramPollingEnabled {
		pollTimeout := cfg.TelegramPollingTimeout + 5*time.Second
		if pollTimeout < cfg.TelegramTimeout {
			pollTimeout = cfg.TelegramTimeout
		}
		pollerClient = telegram.NewClient(cfg.BotToken, &http.Client{Timeout: pollTimeout})
	}

	var sinkClient *sink.Client
	if cfg.SheetsWebhookURL == "" {
		logger.Warn("sheets webhook url missing, feedback will be buffered locally")
	} else {
		sinkClient = sink.NewClient(cfg.SheetsWebhookURL, cfg.SheetsWebhookKey, &http.Client{Timeout: cfg.SheetsTimeout}, logger)
	}

	var transcriber speech.Transcriber
	if cfg.SpeechAPIURL == "" {
		logger.Warn("speech api url missing, voice feedback disabled")
	} else {
		transcriber = speech.NewHTTPClient(cfg.SpeechAPIURL, cfg.SpeechLanguageCode, &http.Client{Timeout: 30 * time.Second})
	}

	collector := metrics.NewCollector()
	writer := sink.NewWriter(appenderOrNil(sinkClient), feedbackBuffer, collector, logger)

	limiterFactory := func(limit int, window time.Duration, prefix string) ratelimit.Limiter {
		if limit <= 0 || window <= 0 {
			return ratelimit.NoopLimiter{}
		}
		if redisClient != nil {
			return ratelimit.NewRedisLimiter(redisClient, limit, window, prefix)
		}
		return ratelimit.NewMemoryLimiter(limit, window)
	}
	var inboundLimiter ratelimit.Limiter
	if cfg.TelegramInboundRateLimit > 0 {
		inboundLimiter = limiterFactory(cfg.TelegramInboundRateLimit, time.Minute, "telegram:inbound")
	}
	var intakeLimiter ratelimit.Limiter
	if cfg.IntakeRateLimit > 0 {
		intakeLimiter = limiterFactory(cfg.IntakeRateLimit, time.Minute, "friendwork:inbound")
	}

	bot := workflow.NewBot(workflow.BotDeps{
		Sender:       telegramClient,
		Files:        telegramClient,
		Users:        userStore,
		Vacancies:    vacancyStore,
		Buffer:       feedbackBuffer,
		Writer:       writer,
		Transcriber:  transcriber,
		Sessions:     workflow.NewSessionStore(),
		Limiter:      inboundLimiter,
		AdminChatID:  cfg.AdminChatID,
		AdminContact: cfg.AdminContact,
		BufferLimit:  cfg.BufferRecentLimit,
		Logger:       logger,
	})
	webhookHandler := telegram.NewWebhookHandler(bot, cfg.WebhookSecret, logger)

	intakeService := intake.NewService(telegramClient, userStore, vacancyStore, dedupStore, cfg.AdminChatID, logger)
	intakeHandler := intake.NewWebhookHandler(intakeService, cfg.FriendworkSecret, intakeLimiter, collector, logger)

	var poller *telegram.Poller
	if cfg.TelegramPollingEnabled {
		poller = telegram.NewPoller(pollerClient, bot, logger, cfg.TelegramPollingTimeout, cfg.TelegramPollingInterval, cfg.TelegramPollingLimit, cfg.TelegramPollingDropPending, true)
	} else if cfg.TelegramWebhookURL == "" {
		logger.Warn("telegram webhook url missing; bot will not receive updates")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := telegramClient.SetWebhook(ctx, cfg.TelegramWebhookURL, cfg.WebhookSecret, cfg.TelegramWebhookDropPending); err != nil {
			return fmt.Errorf("telegram set webhook failed: %w", err)
		}
		logger.Info("telegram webhook configured", slog.String("url", cfg.TelegramWebhookURL))
	}

	mux := http.NewServeMux()
	mux.Handle("/telegram/webhook", webhookHandler)
	mux.Handle("/friendwork/webhook", intakeHandler)
	mux.Handle("/metrics", metrics.NewHandler(collector))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	handler := withMetrics(collector, withRequestID(logger, mux))
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       30 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("feedback bot listening", slog.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("feedback bot server error", slog.String("error", err.Error()))
		}
	}()
	if poller != nil {
		go poller.Run(ctx)
		logger.Info("telegram polling enabled", slog.Duration("timeout", cfg.TelegramPollingTimeout))
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("feedback bot shutdown error", slog.String("error", err.Error()))
	}

	return nil
}

// appenderOrNil прячет типизированный nil за nil-интерфейсом, чтобы Writer
// видел ненастроенную таблицу как отсутствующую.
func appenderOrNil(client *sink.Client) sink.Appender {
	if client == nil {
		return nil
	}
	return client
}
