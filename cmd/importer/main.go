package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"meiras_yachting/internal/adapters/observability"
	redisad "meiras_yachting/internal/adapters/redis"
	"meiras_yachting/internal/app"
	"meiras_yachting/internal/domain"
	"meiras_yachting/internal/shared"
	"meiras_yachting/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := shared.Load()

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	kind := domain.Kind(cfg.ImportKind)
	if !kind.Valid() {
		log.Fatal().Str("kind", cfg.ImportKind).Msg("IMPORT_KIND must be yacht or brokerage")
	}
	if cfg.ImportFile == "" {
		log.Fatal().Msg("IMPORT_FILE is required")
	}

	log.Info().
		Str("file", cfg.ImportFile).
		Str("kind", string(kind)).
		Int("workers", cfg.ImportWorkers).
		Msg("importer starting")

	raw, err := os.ReadFile(cfg.ImportFile)
	if err != nil {
		log.Fatal().Err(err).Msg("read import file failed")
	}
	var recs []domain.Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		log.Fatal().Err(err).Msg("import file must be a JSON array of records")
	}

	store, closeStore, err := storage.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.StoreDriver).Msg("record store unavailable")
	}
	defer closeStore()

	// evict the API's cached lists so imported records show up right away
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rdb, err := redisad.NewClient(ctx, cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err != nil {
			log.Warn().Err(err).Msg("redis unavailable, cached lists expire on their own")
		} else {
			defer rdb.Close()
			cache = redisad.New(rdb, "meiras:")
		}
	}

	listing := app.NewListingService(store, cache, cfg.CacheTTL)
	rep, err := app.NewImportService(listing, cfg.ImportWorkers).Import(ctx, kind, recs)
	if err != nil {
		log.Error().Err(err).Msg("import interrupted")
	}
	log.Info().
		Int("total", len(recs)).
		Int("created", len(rep.Created)).
		Int("failed", len(rep.Failed)).
		Msg("import completed")
}
