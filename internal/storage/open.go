// Package storage picks the RecordStore backend from configuration.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	"meiras_yachting/internal/domain"
	"meiras_yachting/internal/shared"
	"meiras_yachting/internal/storage/memory"
	mongostore "meiras_yachting/internal/storage/mongo"
	mysqlrepo "meiras_yachting/internal/storage/mysql"
)

// Open connects the configured backend. The returned func releases it.
func Open(ctx context.Context, cfg shared.Config) (domain.RecordStore, func(), error) {
	switch cfg.StoreDriver {
	case "mongo", "":
		c, err := mongostore.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo connect: %w", err)
		}
		log.Info().Str("db", cfg.MongoDB).Msg("mongo connection ok")
		return mongostore.New(c.Database(cfg.MongoDB)), func() { _ = c.Disconnect(context.Background()) }, nil

	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("sql.Open: %w", err)
		}
		if err := db.PingContext(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("db.Ping: %w", err)
		}
		log.Info().Msg("database connection ok")
		return mysqlrepo.New(db), func() { _ = db.Close() }, nil

	case "memory":
		log.Warn().Msg("using in-memory record store; data is lost on restart")
		return memory.New(), func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}
