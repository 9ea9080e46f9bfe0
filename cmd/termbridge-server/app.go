package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/termbridge/termbridge/internal/config"
	"github.com/termbridge/termbridge/internal/domain/mapping"
	"github.com/termbridge/termbridge/internal/domain/namaste"
	"github.com/termbridge/termbridge/internal/platform/db"
	"github.com/termbridge/termbridge/internal/platform/icd11"
)

// app holds the wired components shared by the server and the one-shot
// commands.
type app struct {
	cfg    *config.Config
	logger zerolog.Logger

	pool  *pgxpool.Pool
	redis *redis.Client

	catalog   namaste.Repository
	concepts  *namaste.Service
	lookup    *icd11.Client
	mapper    *mapping.Service
	assembler *mapping.Assembler
}

func newLogger(cfg *config.Config, out io.Writer) zerolog.Logger {
	if cfg.IsDev() {
		out = zerolog.ConsoleWriter{Out: out}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.LogLevel))
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

// loadConfig reads and validates configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newApp wires every component from cfg. The source catalog comes from
// Postgres when DATABASE_URL is set, else from CATALOG_PATH, else the
// built-in sample set. The lookup cache is Redis-backed when REDIS_URL is set.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	catalog, err := a.openCatalog(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.catalog = catalog

	cache, err := a.openCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	hc := icd11.NewHTTPClient(ctx, cfg.ICD11Timeout, icd11.Credentials{
		ClientID:     cfg.ICD11ClientID,
		ClientSecret: cfg.ICD11ClientSecret,
		TokenURL:     cfg.ICD11TokenURL,
		Scopes:       cfg.ICD11Scopes(),
	})
	a.lookup = icd11.NewClient(cfg.ICD11SearchURL,
		icd11.WithHTTPClient(hc),
		icd11.WithTimeout(cfg.ICD11Timeout),
		icd11.WithDisplayFields(cfg.ICD11DisplayFields),
		icd11.WithCache(cache),
		icd11.WithLogger(logger.With().Str("component", "icd11").Logger()),
	)

	a.concepts = namaste.NewService(catalog, logger.With().Str("component", "namaste").Logger())
	a.mapper = mapping.NewService(catalog, a.lookup,
		mapping.WithScheduler(mapping.NewPacedScheduler(cfg.BatchPacing)),
		mapping.WithDefaults(cfg.MappingMaxResults, cfg.MappingConfidenceThreshold),
		mapping.WithServiceLogger(logger.With().Str("component", "mapping").Logger()),
	)
	a.assembler = mapping.NewAssembler()
	return a, nil
}

func (a *app) openCatalog(ctx context.Context) (namaste.Repository, error) {
	switch {
	case a.cfg.DatabaseURL != "":
		pool, err := db.NewPool(ctx, a.cfg.DatabaseURL, a.cfg.DBMaxConns, a.cfg.DBMinConns)
		if err != nil {
			return nil, err
		}
		a.pool = pool
		a.logger.Info().Msg("serving catalog from database")
		return namaste.NewRepoPG(pool), nil
	case a.cfg.CatalogPath != "":
		concepts, err := namaste.LoadCatalogFile(a.cfg.CatalogPath)
		if err != nil {
			return nil, err
		}
		a.logger.Info().Str("path", a.cfg.CatalogPath).Int("concepts", len(concepts)).Msg("loaded catalog file")
		return namaste.NewMemoryRepo(concepts), nil
	default:
		a.logger.Info().Msg("serving built-in sample catalog")
		return namaste.NewMemoryRepo(namaste.DefaultConcepts()), nil
	}
}

func (a *app) openCache(ctx context.Context) (icd11.Cache, error) {
	if a.cfg.RedisURL == "" {
		return icd11.NewMemoryCache(a.cfg.CacheTTL), nil
	}
	rdb, err := icd11.NewRedisClient(ctx, a.cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	a.redis = rdb
	a.logger.Info().Msg("lookup cache backed by redis")
	return icd11.NewRedisCache(rdb, a.cfg.CacheTTL, a.logger.With().Str("component", "icd11-cache").Logger()), nil
}

// Close releases database and Redis connections.
func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing redis")
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
}

// openPool connects to DATABASE_URL for the commands that require it.
func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
}

// serverLogger logs to stdout; cliLogger keeps stdout free for command output.
func serverLogger(cfg *config.Config) zerolog.Logger { return newLogger(cfg, os.Stdout) }

func cliLogger(cfg *config.Config) zerolog.Logger { return newLogger(cfg, os.Stderr) }
