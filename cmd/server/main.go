package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/westend/backend/internal/ai"
	"github.com/westend/backend/internal/chatbot"
	"github.com/westend/backend/internal/config"
	"github.com/westend/backend/internal/db"
	httpapi "github.com/westend/backend/internal/http"
	"github.com/westend/backend/internal/http/middleware"
	"github.com/westend/backend/internal/kv"
	"github.com/westend/backend/internal/models"
	"github.com/westend/backend/internal/notify"
	"github.com/westend/backend/internal/quota"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "westend-backend").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect db")
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to apply schema")
	}

	var cache kv.Store
	if cfg.RedisURL != "" {
		rs, err := kv.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer rs.Close()
		cache = rs
	} else {
		cache = kv.NewMemoryStore(10 * time.Minute)
		logger.Info().Msg("REDIS_URL not set, using in-process cache")
	}

	company := models.CompanyInfo{
		Name:     cfg.CompanyName,
		Business: cfg.CompanyBusiness,
		Address:  cfg.CompanyAddress,
		Phone:    cfg.CompanyPhone,
		Email:    cfg.CompanyEmail,
		Hours:    cfg.CompanyHours,
	}

	budget := quota.NewBudget(cache, cfg.AIDailyTokenLimit, logger)
	tokens, err := ai.NewTokenEstimator(cfg.AIModel)
	if err != nil {
		logger.Warn().Err(err).Msg("token estimator unavailable, falling back to length heuristic")
	}
	assistant := &ai.Client{
		BaseURL:      cfg.AIBaseURL,
		Model:        cfg.AIModel,
		APIKey:       cfg.AIAPIKey,
		MaxTokens:    cfg.AIMaxTokens,
		Temperature:  cfg.AITemperature,
		Timeout:      cfg.AITimeout,
		Budget:       budget,
		Cache:        cache,
		CacheEnabled: cfg.AIEnableCaching,
		Catalog:      store,
		Company:      company,
		Tokens:       tokens,
		Logger:       logger,
	}
	if !assistant.Available() {
		logger.Info().Msg("AI_API_KEY not set, chat will use templates and fallbacks only")
	}

	var mailer notify.Mailer
	if cfg.SMTPHost != "" {
		mailer = notify.SMTPMailer{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
		}
	} else {
		mailer = notify.LogMailer{Logger: logger}
		logger.Info().Msg("SMTP_HOST not set, notification mail is logged only")
	}
	dispatcher := notify.NewDispatcher(mailer, logger)

	chat := &chatbot.Service{
		Conversations: store,
		Answers:       store,
		Resolver: &chatbot.Resolver{
			Intents:         store,
			ExactConfidence: cfg.IntentExactConfidence,
			FuzzyThreshold:  cfg.IntentFuzzyThreshold,
		},
		Searcher: &chatbot.Searcher{
			Catalog:   store,
			Cache:     cache,
			CacheTTL:  cfg.SearchCacheTTL,
			Threshold: cfg.IntentFuzzyThreshold,
			Logger:    logger,
		},
		Catalog:            store,
		Completer:          assistant,
		Notifier:           dispatcher,
		Policy:             cfg.RoutingPolicy,
		CacheMinConfidence: cfg.CacheMinConfidence,
		AnswerTTL:          cfg.CachedAnswerTTL,
		Company:            company,
		SupportEmail:       cfg.SupportEmail,
		Logger:             logger,
	}
	go chat.RunPurgeLoop(ctx, cfg.CachePurgeInterval)

	limiter := middleware.NewIPRateLimiter(cfg.RateLimitRPM, cfg.RateLimitBurst, logger)
	go func() {
		t := time.NewTicker(5 * time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				limiter.Sweep()
			}
		}
	}()

	router := httpapi.Router(cfg, store, chat, budget, dispatcher, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + cfg.AITimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	stop()

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	if err := dispatcher.Wait(ctxShutdown); err != nil {
		logger.Warn().Err(err).Msg("pending notification mail abandoned")
	}
	logger.Info().Msg("server stopped")
}
