package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/carlostcba/GustadosPOS-sub000/internal/config"
)

// Connections bundles the writer and reader bun handles. Settlement and
// register mutations always go through Writer; reporting queries prefer
// Reader so a heavy end-of-day report cannot stall checkout lanes.
type Connections struct {
	Writer *bun.DB
	Reader *bun.DB
}

// Module registers the database connections with Fx.
var Module = fx.Provide(New)

// New opens the writer pool and, when a distinct reader DSN is configured,
// a replica pool. The schema depends on postgres features (partial unique
// indexes guard the one-open-register and idempotency rules), so postgres
// is the only supported driver.
func New(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Connections, error) {
	if cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	writer, err := open(cfg.Database.WriterDSN, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open writer: %w", err)
	}

	reader := writer
	if cfg.Database.ReaderDSN != "" && cfg.Database.ReaderDSN != cfg.Database.WriterDSN {
		reader, err = open(cfg.Database.ReaderDSN, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("open reader: %w", err)
		}
	}

	conns := &Connections{Writer: writer, Reader: reader}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := ping(ctx, writer); err != nil {
				return fmt.Errorf("ping writer: %w", err)
			}
			if reader != writer {
				if err := ping(ctx, reader); err != nil {
					return fmt.Errorf("ping reader: %w", err)
				}
			}
			logger.Info("database connected",
				zap.Bool("read_replica", reader != writer))
			return nil
		},
		OnStop: func(context.Context) error {
			var closeErr error
			if err := writer.Close(); err != nil {
				closeErr = fmt.Errorf("close writer: %w", err)
			}
			if reader != writer {
				if err := reader.Close(); err != nil && closeErr == nil {
					closeErr = fmt.Errorf("close reader: %w", err)
				}
			}
			return closeErr
		},
	})

	return conns, nil
}

func open(dsn string, cfg config.Database) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("empty DSN")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.MaxConnLifetime > 0 {
		sqldb.SetConnMaxLifetime(cfg.MaxConnLifetime)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func ping(ctx context.Context, db *bun.DB) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return db.DB.PingContext(pingCtx)
}
