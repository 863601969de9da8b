package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"github.com/dedsfe/cinevibe/internal/api"
	"github.com/dedsfe/cinevibe/internal/catalog"
	"github.com/dedsfe/cinevibe/internal/config"
	"github.com/dedsfe/cinevibe/internal/enrich"
	"github.com/dedsfe/cinevibe/internal/logging"
	"github.com/dedsfe/cinevibe/internal/notifications"
	"github.com/dedsfe/cinevibe/internal/repair"
	"github.com/dedsfe/cinevibe/internal/resolver"
	"github.com/dedsfe/cinevibe/internal/store"
	"github.com/dedsfe/cinevibe/internal/workers"
)

// Daemon wires the worker pool, repair loop, and API server into a single
// lifecycle with flock-based locking to prevent multiple instances.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	pool     *workers.Pool
	repairer *repair.Loop
	server   *api.Server
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil {
		return nil, errors.New("daemon requires config")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	st, err := store.Open(filepath.Join(cfg.Paths.DataDir, "results.db"))
	if err != nil {
		return nil, fmt.Errorf("open result store: %w", err)
	}

	notifier := notifications.NewService(cfg)
	enricher := buildEnricher(cfg, logger)

	factory := resolverFactory(cfg, st, enricher, logger)
	pool, err := workers.NewPool(cfg.Resolver.Workers, cfg.Resolver.BackgroundJobs, factory, notifier, logger)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	d := &Daemon{
		cfg:      cfg,
		logger:   logging.WithComponent(logger, "daemon"),
		store:    st,
		pool:     pool,
		server:   api.NewServer(pool, st, cfg.Paths.APIToken, logger),
		notifier: notifier,
		lockPath: filepath.Join(cfg.Paths.DataDir, "cinevibed.lock"),
	}
	d.lock = flock.New(d.lockPath)

	if cfg.Repair.Enabled {
		repairResolver, err := factory(cfg.Resolver.Workers + cfg.Resolver.BackgroundJobs)
		if err != nil {
			_ = st.Close()
			return nil, err
		}
		d.repairer = repair.NewLoop(repairResolver, st, enricher, notifier, repair.Config{
			PassInterval:    cfg.RepairPassInterval(),
			ItemDelay:       cfg.RepairItemDelay(),
			MissingCeiling:  cfg.Repair.MissingCeiling,
			SuspectCeiling:  cfg.Repair.SuspectCeiling,
			DeprecatedHosts: cfg.Catalog.DeprecatedHosts,
		}, logger)
	}
	return d, nil
}

// Run blocks until ctx is cancelled, then shuts everything down in order:
// API drain first, then workers, then the repair loop's session.
func (d *Daemon) Run(ctx context.Context) error {
	if !d.running.CompareAndSwap(false, true) {
		return errors.New("daemon already running")
	}
	defer d.running.Store(false)

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock %s: %w", d.lockPath, err)
	}
	if !ok {
		return fmt.Errorf("another instance holds %s", d.lockPath)
	}
	defer func() {
		_ = d.lock.Unlock()
		_ = d.store.Close()
	}()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.pool.Start(runCtx)

	var wg sync.WaitGroup
	if d.repairer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.repairer.Run(runCtx)
		}()
	}

	d.logger.Info("daemon started",
		logging.String("bind", d.cfg.Paths.APIBind),
		logging.Int("workers", d.cfg.Resolver.Workers),
		logging.Bool("repair", d.repairer != nil))

	serveErr := d.server.Run(runCtx, d.cfg.Paths.APIBind)

	cancel()
	d.pool.Wait()
	wg.Wait()
	d.logger.Info("daemon stopped")
	return serveErr
}

// LockPath returns the single-instance lock location.
func (d *Daemon) LockPath() string { return d.lockPath }

func buildEnricher(cfg *config.Config, logger *slog.Logger) *enrich.Enricher {
	if cfg.TMDB.APIKey == "" {
		return enrich.NewEnricher(nil, logger)
	}
	client, err := enrich.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		logging.WithComponent(logger, "daemon").Warn("tmdb client unavailable", logging.Error(err))
		return enrich.NewEnricher(nil, logger)
	}
	return enrich.NewEnricher(client, logger)
}

func resolverFactory(cfg *config.Config, st *store.Store, enricher *enrich.Enricher, logger *slog.Logger) workers.Factory {
	return func(shard int) (*resolver.Resolver, error) {
		client := catalog.NewWebClient(catalog.WebConfig{
			BaseURL:        cfg.Catalog.BaseURL,
			Username:       cfg.Catalog.Username,
			Password:       cfg.Catalog.Password,
			RequestTimeout: time.Duration(cfg.Catalog.RequestTimeout) * time.Second,
			PollAttempts:   cfg.Catalog.LocatorPollAttempts,
			PollInterval:   time.Duration(cfg.Catalog.LocatorPollSeconds) * time.Second,
		})
		session := catalog.NewSession(client, cfg.SessionMaxAge())
		opts := resolver.Options{
			MinSimilarity: cfg.Resolver.MinSimilarity,
			ShortTitleLen: cfg.Resolver.ShortTitleLen,
			YearTolerance: cfg.Resolver.YearTolerance,
		}
		return resolver.New(session, st, enricher, opts, logger), nil
	}
}
