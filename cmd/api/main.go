package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "meiras_yachting/internal/adapters/http_server"
	"meiras_yachting/internal/adapters/mail"
	"meiras_yachting/internal/adapters/observability"
	"meiras_yachting/internal/adapters/queue"
	"meiras_yachting/internal/adapters/ratelimit"
	"meiras_yachting/internal/adapters/recaptcha"
	redisad "meiras_yachting/internal/adapters/redis"
	"meiras_yachting/internal/app"
	"meiras_yachting/internal/domain"
	"meiras_yachting/internal/shared"
	"meiras_yachting/internal/storage"
	"meiras_yachting/internal/storage/filesystem"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Str("env", cfg.AppEnv).Msg("invalid configuration")
	}
	trusted, err := server.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid TRUSTED_PROXIES")
	}

	reg := observability.InitRegistry()
	observability.Serve(cfg.MetricsAddr, reg)

	// store
	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("record store unavailable")
	}
	defer closeStore()

	// redis is optional: cache + shared limiter when present, in-memory limiter otherwise
	var (
		cache   domain.Cache
		limiter domain.RateLimiter
	)
	if cfg.RedisAddr != "" {
		rdb, err := redisad.NewClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Fatal().Err(err).Str("addr", cfg.RedisAddr).Msg("redis ping failed")
		}
		defer rdb.Close()
		cache = redisad.New(rdb, "meiras:")
		limiter = redisad.NewSlidingWindow(rdb, cfg.ContactRateLimit, cfg.ContactRateWindow)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis connection ok")
	} else {
		mem := ratelimit.NewSlidingWindow(cfg.ContactRateLimit, cfg.ContactRateWindow)
		mem.StartJanitor(ctx)
		limiter = mem
	}

	// contact collaborators
	var verifier domain.Verifier
	if cfg.RecaptchaSecret != "" {
		rc, err := recaptcha.New(cfg.RecaptchaVerifyURL, cfg.RecaptchaSecret, 20)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize reCAPTCHA client")
		}
		verifier = rc
	} else {
		log.Warn().Str("env", cfg.AppEnv).Msg("RECAPTCHA_SECRET_KEY is empty; contact form submissions are not verified")
	}
	var events domain.EventPublisher
	if cfg.AMQPURL != "" {
		pub, err := queue.Dial(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			// contact events are best effort; the form keeps working without them
			log.Error().Err(err).Msg("amqp unavailable, contact events disabled")
		} else {
			defer pub.Close()
			events = pub
		}
	}
	mailer := mail.NewSMTP(cfg.SMTPHost, cfg.SMTPPort, cfg.EmailUser, cfg.EmailPass)

	listing := app.NewListingService(store, cache, cfg.CacheTTL)
	contact := app.NewContactService(limiter, verifier, mailer, events, app.ContactConfig{
		From:     cfg.EmailUser,
		To:       cfg.RecipientEmail,
		SiteName: cfg.SiteName,
		MinScore: cfg.RecaptchaMinScore,
	})

	// http
	srv := server.New(cfg.CORSOrigins, trusted)
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{
		Listing:   listing,
		Contact:   contact,
		Gallery:   filesystem.NewGallery(cfg.ImagesDir),
		SiteKey:   cfg.RecaptchaSiteKey,
		ImagesDir: cfg.ImagesDir,
	})

	httpSrv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Mux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpSrv.Shutdown(sctx)
	}()

	log.Info().Str("addr", cfg.HTTPAddr).Str("store", cfg.StoreDriver).Msg("API listening")
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
