package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/cryptox"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/denylist"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/redis/go-redis/v9"
)

// Components are the long-lived objects shared by the server and the admin
// tool. Close releases the database pool and the Redis client.
type Components struct {
	Auth  *services.AuthService
	DB    *sql.DB
	close []func() error
}

func (c *Components) Close() error {
	var errs []error
	for i := len(c.close) - 1; i >= 0; i-- {
		errs = append(errs, c.close[i]())
	}
	return errors.Join(errs...)
}

// Wire opens the database, applies migrations, connects the deny-list and
// builds the auth service from cfg.
func Wire(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	c := &Components{}

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	c.DB = db
	c.close = append(c.close, db.Close)

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var dl denylist.Denylist = denylist.Nop{}
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		c.close = append(c.close, client.Close)
		rd := denylist.NewRedis(client)
		if err := rd.Ping(ctx); err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("redis error: %w", err)
		}
		dl = rd
	} else {
		logger.Warn(ctx, "redis address not set, access token deny-list disabled")
	}

	issuer, err := auth.NewIssuer(cfg)
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	svc, err := services.NewAuthService(services.Deps{
		DB:     db,
		Tx:     dbx.NewSQLTransactor(db, &sql.TxOptions{Isolation: sql.LevelReadCommitted}),
		Repos:  rm,
		Issuer: issuer,
		Hasher: cryptox.NewArgon2Hasher(cryptox.Argon2Params{
			Memory:      cfg.Argon2Memory,
			Iterations:  cfg.Argon2Iterations,
			Parallelism: cfg.Argon2Parallelism,
		}),
		Denylist: dl,
		Config:   cfg,
		Logger:   logger,
	})
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.Auth = svc

	return c, nil
}
