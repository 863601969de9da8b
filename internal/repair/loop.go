package repair

import (
	"context"
	"log/slog"
	"time"

	"github.com/dedsfe/cinevibe/internal/catalog"
	"github.com/dedsfe/cinevibe/internal/enrich"
	"github.com/dedsfe/cinevibe/internal/logging"
	"github.com/dedsfe/cinevibe/internal/notifications"
	"github.com/dedsfe/cinevibe/internal/resolver"
	"github.com/dedsfe/cinevibe/internal/store"
)

// Config tunes the repair rotation.
type Config struct {
	// PassInterval is the sleep between passes.
	PassInterval time.Duration
	// ItemDelay throttles consecutive catalog walks inside a pass.
	ItemDelay time.Duration
	// MissingCeiling caps how many NOT_FOUND rows one pass retries.
	MissingCeiling int
	// SuspectCeiling caps how many deprecated-host rows one pass revalidates.
	SuspectCeiling int
	// DeprecatedHosts marks locator hosts whose links are presumed dead.
	DeprecatedHosts []string
}

// Summary reports one pass.
type Summary struct {
	MissingScanned int
	SuspectScanned int
	Repaired       int
	Drifted        int
	Failed         int
}

// Loop periodically revisits rows the store flags as broken: exhausted
// resolutions and locators on deprecated hosts. It owns a dedicated resolver
// (and with it a dedicated catalog session) so repairs never contend with
// request traffic for a session.
type Loop struct {
	resolver   *resolver.Resolver
	store      *store.Store
	enricher   *enrich.Enricher
	notifier   notifications.Service
	cfg        Config
	deprecated map[string]struct{}
	logger     *slog.Logger
}

// NewLoop builds a repair loop. The enricher and notifier may be nil.
func NewLoop(res *resolver.Resolver, st *store.Store, enricher *enrich.Enricher, notifier notifications.Service, cfg Config, logger *slog.Logger) *Loop {
	if cfg.MissingCeiling <= 0 {
		cfg.MissingCeiling = 10
	}
	if cfg.SuspectCeiling <= 0 {
		cfg.SuspectCeiling = 5
	}
	if cfg.PassInterval <= 0 {
		cfg.PassInterval = time.Hour
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	if enricher == nil {
		enricher = enrich.NewEnricher(nil, nil)
	}
	deprecated := make(map[string]struct{}, len(cfg.DeprecatedHosts))
	for _, host := range cfg.DeprecatedHosts {
		deprecated[host] = struct{}{}
	}
	return &Loop{
		resolver:   res,
		store:      st,
		enricher:   enricher,
		notifier:   notifier,
		cfg:        cfg,
		deprecated: deprecated,
		logger:     logging.WithComponent(logger, "repair"),
	}
}

// Run executes passes until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) {
	for {
		start := time.Now()
		summary, err := l.RunPass(ctx)
		elapsed := time.Since(start)
		switch {
		case err != nil && ctx.Err() != nil:
			return
		case err != nil:
			l.logger.Error("repair pass aborted", logging.Error(err))
			if l.notifier != nil {
				_ = l.notifier.NotifyError(ctx, err, "repair pass")
			}
		case summary.Repaired+summary.Failed > 0:
			if l.notifier != nil {
				_ = l.notifier.NotifyRepairPass(ctx, summary.Repaired, summary.Failed, elapsed)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.cfg.PassInterval):
		}
	}
}

// RunPass scans the retry rotation once. Session failures abort the pass;
// per-row misses only bump that row's repair counter.
func (l *Loop) RunPass(ctx context.Context) (Summary, error) {
	var summary Summary

	missing, err := l.store.MissingRecords(ctx, l.cfg.MissingCeiling)
	if err != nil {
		return summary, err
	}
	summary.MissingScanned = len(missing)

	suspects, err := l.store.SuspectRecords(ctx, l.cfg.SuspectCeiling, l.isDeprecated)
	if err != nil {
		return summary, err
	}
	summary.SuspectScanned = len(suspects)

	items := make([]*store.Record, 0, len(missing)+len(suspects))
	items = append(items, missing...)
	items = append(items, suspects...)
	if len(items) == 0 {
		return summary, nil
	}
	l.logger.Info("repair pass starting",
		logging.Int("missing", len(missing)),
		logging.Int("suspect", len(suspects)))

	for i, rec := range items {
		if i > 0 && l.cfg.ItemDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(l.cfg.ItemDelay):
			}
		}
		if err := l.repairOne(ctx, rec, &summary); err != nil {
			return summary, err
		}
	}

	l.logger.Info("repair pass finished",
		logging.Int("repaired", summary.Repaired),
		logging.Int("drifted", summary.Drifted),
		logging.Int("failed", summary.Failed))
	return summary, nil
}

func (l *Loop) repairOne(ctx context.Context, rec *store.Record, summary *Summary) error {
	probe, err := l.resolver.Probe(ctx, resolver.Request{
		Title:  rec.Title,
		Year:   rec.Year,
		TMDBID: rec.TMDBID,
	})
	if err != nil {
		return err
	}

	if probe.Reason != "" {
		summary.Failed++
		l.logger.Debug("repair attempt failed",
			logging.String(logging.FieldTitle, rec.Title),
			logging.String("reason", probe.Reason))
		return l.store.RecordRepairFailure(ctx, rec.ID)
	}

	if rec.MediaID != "" && rec.MediaID != probe.MediaID {
		summary.Drifted++
		l.logger.Warn("locator drifted to a different asset",
			logging.String(logging.FieldTitle, rec.Title),
			logging.String("old_media_id", rec.MediaID),
			logging.String("new_media_id", probe.MediaID))
	}
	if err := l.store.ReplaceLocator(ctx, rec.ID, probe.LocatorURI, probe.MediaID, probe.MatchedTitle); err != nil {
		return err
	}
	summary.Repaired++
	l.logger.Info("locator repaired", logging.String(logging.FieldTitle, rec.Title))

	l.backfill(ctx, rec, probe)
	return nil
}

// backfill fills in missing enrichment while the row is in hand. Best effort.
func (l *Loop) backfill(ctx context.Context, rec *store.Record, probe *resolver.ProbeResult) {
	if rec.TMDBID != 0 || !l.enricher.Enabled() {
		return
	}
	year := rec.Year
	if year == 0 {
		year = probe.Year
	}
	meta, err := l.enricher.Lookup(ctx, rec.Title, year)
	if err != nil {
		l.logger.Warn("repair backfill failed",
			logging.String(logging.FieldTitle, rec.Title),
			logging.Error(err))
		return
	}
	if meta == nil {
		return
	}
	_, err = l.store.Upsert(ctx, &store.Record{
		Title:       rec.Title,
		TMDBID:      meta.TMDBID,
		Year:        meta.Year,
		PosterURL:   meta.PosterURL,
		BackdropURL: meta.BackdropURL,
		Overview:    meta.Overview,
	})
	if err != nil {
		l.logger.Warn("repair backfill persist failed",
			logging.String(logging.FieldTitle, rec.Title),
			logging.Error(err))
	}
}

func (l *Loop) isDeprecated(locatorURI string) bool {
	host := catalog.HostOf(locatorURI)
	if host == "" {
		return false
	}
	_, ok := l.deprecated[host]
	return ok
}
