// Package app wires configuration into the long-lived services of the
// crawler: store, parsers, catalog, notifier, backup and normalizer.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/game-genres-crawler/internal/artifact"
	"github.com/JakeFAU/game-genres-crawler/internal/backup"
	"github.com/JakeFAU/game-genres-crawler/internal/catalog"
	"github.com/JakeFAU/game-genres-crawler/internal/clock"
	"github.com/JakeFAU/game-genres-crawler/internal/config"
	"github.com/JakeFAU/game-genres-crawler/internal/crawler"
	collyfetcher "github.com/JakeFAU/game-genres-crawler/internal/fetcher/colly"
	"github.com/JakeFAU/game-genres-crawler/internal/id/uuid"
	"github.com/JakeFAU/game-genres-crawler/internal/normalize"
	"github.com/JakeFAU/game-genres-crawler/internal/notify"
	"github.com/JakeFAU/game-genres-crawler/internal/notify/pubsub"
	"github.com/JakeFAU/game-genres-crawler/internal/parsers"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/gcs"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/local"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/memory"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/postgres"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/s3"
	"github.com/JakeFAU/game-genres-crawler/internal/storage/sqlite"
)

// App holds the shared services built from one Config.
type App struct {
	Config     config.Config
	Logger     *zap.Logger
	Clock      crawler.Clock
	IDs        crawler.IDGenerator
	Store      crawler.Store
	Notifier   crawler.Notifier
	Catalog    catalog.Provider
	Backup     *backup.Service
	Artifacts  *artifact.Store
	Normalizer *normalize.Normalizer

	factories     map[string]parsers.Factory
	normalizeOpts []normalize.Option
	registry      *parsers.Registry
	closers       []func() error
}

// Option customizes New.
type Option func(*App)

// WithParserFactories replaces the built-in sources.
func WithParserFactories(factories map[string]parsers.Factory) Option {
	return func(a *App) { a.factories = factories }
}

// WithNormalizeOptions passes extra options to the normalizer.
func WithNormalizeOptions(opts ...normalize.Option) Option {
	return func(a *App) { a.normalizeOpts = append(a.normalizeOpts, opts...) }
}

// New builds every service. It fails fast when any of them cannot start.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Clock:     clock.New(),
		IDs:       uuid.New(),
		factories: parsers.Builtin,
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	logger.Info("application services initialized",
		zap.String("store", cfg.Store.Driver),
		zap.String("backup", cfg.Backup.Driver),
		zap.String("notify", cfg.Notify.Driver),
		zap.String("catalog", cfg.Catalog.Source),
	)
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	store, err := openStore(ctx, cfg.Store, a.Logger)
	if err != nil {
		return fmt.Errorf("init store: %w", err)
	}
	a.Store = store
	a.closers = append(a.closers, store.Close)

	notifier, closeNotifier, err := openNotifier(ctx, cfg.Notify, a.Logger)
	if err != nil {
		return fmt.Errorf("init notifier: %w", err)
	}
	a.Notifier = notifier
	if closeNotifier != nil {
		a.closers = append(a.closers, closeNotifier)
	}

	blobs, closeBlobs, err := openBackupStore(ctx, cfg.Backup)
	if err != nil {
		return fmt.Errorf("init backup store: %w", err)
	}
	if closeBlobs != nil {
		a.closers = append(a.closers, closeBlobs)
	}
	a.Backup = backup.New(store, blobs, a.Clock, cfg.Backup.Prefix, a.Logger)

	var artifactBackups crawler.BlobStore
	if cfg.Normalize.BackupDir != "" {
		artifactBackups, err = local.New(local.Config{BaseDir: cfg.Normalize.BackupDir})
		if err != nil {
			return fmt.Errorf("init artifact backups: %w", err)
		}
	}
	a.Artifacts, err = artifact.New(cfg.Normalize.DataDir, artifactBackups, a.Clock, a.Logger)
	if err != nil {
		return fmt.Errorf("init artifacts: %w", err)
	}

	normalizeOpts := []normalize.Option{WithConfiguredRules(cfg.Normalize.Compression)}
	normalizeOpts = append(normalizeOpts, a.normalizeOpts...)
	a.Normalizer = normalize.New(store, a.Artifacts, notifier, a.Logger, normalizeOpts...)

	a.Catalog = buildCatalog(cfg)
	return nil
}

// Registry instantiates the configured parsers on first use.
func (a *App) Registry() (*parsers.Registry, error) {
	if a.registry != nil {
		return a.registry, nil
	}
	cfg := a.Config
	registry, err := parsers.NewRegistry(a.factories, cfg.Crawler.ExcludeSites, parsers.Options{
		UserAgent:         cfg.Crawler.UserAgent,
		Timeout:           cfg.RequestTimeout(),
		RequestsPerSecond: cfg.Crawler.RequestsPerSecond,
		ErrorsDir:         cfg.Crawler.ErrorsDir,
		BaseURLs:          cfg.Crawler.BaseURLs,
		Clock:             a.Clock,
		Strict:            cfg.Crawler.StrictExclusions,
	}, a.Logger)
	if err != nil {
		return nil, err
	}
	a.registry = registry
	return registry, nil
}

// Close releases every service in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	if err := errors.Join(errs...); err != nil {
		a.Logger.Warn("error closing services", zap.Error(err))
		return err
	}
	return nil
}

// WithConfiguredRules converts configured compression rules; an empty list
// keeps the defaults.
func WithConfiguredRules(rules []config.CompressionRule) normalize.Option {
	converted := make([]normalize.CompressionRule, 0, len(rules))
	for _, r := range rules {
		converted = append(converted, normalize.CompressionRule{First: r.First, Second: r.Second, Compound: r.Compound})
	}
	return normalize.WithRules(converted)
}

func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (crawler.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
			if err := os.MkdirAll(dir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
		return sqlite.Open(cfg.SQLitePath, logger)
	case "postgres":
		return postgres.NewStore(ctx, postgres.StoreConfig{DSN: cfg.PostgresDSN, MaxConns: cfg.MaxConns})
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, &crawler.ConfigurationError{Field: "store.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}
}

func openNotifier(ctx context.Context, cfg config.NotifyConfig, logger *zap.Logger) (crawler.Notifier, func() error, error) {
	switch cfg.Driver {
	case "log":
		return notify.NewLog(logger), nil, nil
	case "none":
		return notify.Nop{}, nil, nil
	case "pubsub":
		n, err := pubsub.New(ctx, cfg.ProjectID, cfg.Topic)
		if err != nil {
			return nil, nil, err
		}
		return n, n.Close, nil
	default:
		return nil, nil, &crawler.ConfigurationError{Field: "notify.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}
}

func openBackupStore(ctx context.Context, cfg config.BackupConfig) (crawler.BlobStore, func() error, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil, nil
	case "local":
		blobs, err := local.New(local.Config{BaseDir: cfg.LocalDir})
		return blobs, nil, err
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("create gcs client: %w", err)
		}
		blobs, err := gcs.New(client, gcs.Config{Bucket: cfg.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		return blobs, client.Close, nil
	case "s3":
		blobs, err := s3.New(ctx, s3.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			PathStyle:       cfg.S3.PathStyle,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
		})
		return blobs, nil, err
	default:
		return nil, nil, &crawler.ConfigurationError{Field: "backup.driver", Reason: fmt.Sprintf("unknown driver %q", cfg.Driver)}
	}
}

func buildCatalog(cfg config.Config) catalog.Provider {
	switch cfg.Catalog.Source {
	case "url":
		return catalog.URL{
			Fetcher: collyfetcher.New(collyfetcher.Config{
				UserAgent: cfg.Crawler.UserAgent,
				Timeout:   cfg.RequestTimeout(),
			}),
			Address:      cfg.Catalog.URL,
			LinkSelector: cfg.Catalog.LinkSelector,
		}
	case "static":
		return catalog.Static(cfg.Catalog.Titles)
	default:
		return catalog.File{Path: cfg.Catalog.Path}
	}
}
