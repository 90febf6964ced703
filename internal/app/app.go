package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/textcorpus/internal/cache"
	"github.com/hyperifyio/textcorpus/internal/dataset"
	"github.com/hyperifyio/textcorpus/internal/exclude"
	"github.com/hyperifyio/textcorpus/internal/extract"
	"github.com/hyperifyio/textcorpus/internal/fetch"
	"github.com/hyperifyio/textcorpus/internal/ledger"
	"github.com/hyperifyio/textcorpus/internal/pipeline"
	"github.com/hyperifyio/textcorpus/internal/urllist"
)

// ErrNoURLs is returned when the input list yields no URLs after blank and
// comment lines are dropped. The CLI maps it to a non-zero exit.
var ErrNoURLs = errors.New("no URLs to process")

// App owns the resources of one corpus build.
type App struct {
	cfg      Config
	dataset  *dataset.Dataset
	ledger   *ledger.Ledger
	pipeline *pipeline.Pipeline
}

// New validates cfg and opens the output directory, the optional HTTP cache
// and the optional ledger. Any failure here aborts before a URL is touched.
func New(cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	extractor, err := extract.ByName(cfg.Extractor)
	if err != nil {
		return nil, err
	}

	var httpCache *cache.HTTPCache
	if cfg.CacheDir != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if cfg.CacheMaxAge > 0 {
			if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache purge failed")
			} else if n > 0 {
				log.Debug().Int("removed", n).Msg("purged stale cache entries")
			}
		}
		httpCache = &cache.HTTPCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	ds, err := dataset.Open(cfg.OutputDir)
	if err != nil {
		return nil, err
	}
	a := &App{cfg: cfg, dataset: ds}

	if cfg.LedgerPath != "" {
		l, err := ledger.Open(cfg.LedgerPath, time.Now().UTC().Format(time.RFC3339Nano))
		if err != nil {
			_ = ds.Close()
			return nil, err
		}
		a.ledger = l
		log.Debug().Str("path", l.Path()).Str("run_id", l.RunID()).Msg("ledger opened")
	}

	rules := exclude.NewRuleset(cfg.ExcludeDomains, cfg.ExcludeExtensions, cfg.UseDefaultExcludes)
	domains, extensions := rules.Len()
	log.Debug().Int("domains", domains).Int("extensions", extensions).Msg("exclusion rules loaded")

	a.pipeline = &pipeline.Pipeline{
		Options: pipeline.Options{
			MinWords:         cfg.MinWords,
			DedupPrefixWords: cfg.DedupPrefixWords,
			Workers:          cfg.Workers,
			MaxURLs:          cfg.MaxURLs,
			Resume:           cfg.Resume,
		},
		Excluder: rules,
		Fetcher: &fetch.Client{
			HTTPClient: newFetchHTTPClient(cfg.Workers, cfg.FetchTimeout),
			UserAgent:  cfg.UserAgent,
			Timeout:    cfg.FetchTimeout,
			Cache:      httpCache,
		},
		Extractor: extractor,
		Sink:      ds,
	}
	if a.ledger != nil {
		a.pipeline.Recorder = a.ledger
	}
	return a, nil
}

// Run reads the URL list and drives it through the pipeline. On cancellation
// the counters gathered so far are returned together with the context error.
func (a *App) Run(ctx context.Context) (pipeline.Stats, error) {
	urls, err := urllist.Read(a.cfg.InputPath, a.cfg.CommentPrefix)
	if err != nil {
		return pipeline.Stats{OutputDir: a.cfg.OutputDir}, err
	}
	if a.cfg.UniqueURLs {
		before := len(urls)
		urls = urllist.Unique(urls)
		if dropped := before - len(urls); dropped > 0 {
			log.Info().Int("dropped", dropped).Msg("removed repeated input URLs")
		}
	}
	if len(urls) == 0 {
		return pipeline.Stats{OutputDir: a.cfg.OutputDir}, fmt.Errorf("%w in %s", ErrNoURLs, a.cfg.InputPath)
	}

	start := time.Now()
	stats, err := a.pipeline.Run(ctx, urls)
	ev := log.Info()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Int("success", stats.Success).
		Int("failed", stats.Failed).
		Int("too_short", stats.TooShort).
		Int("duplicates", stats.Duplicates).
		Int("excluded", stats.Excluded).
		Dur("elapsed", time.Since(start)).
		Str("output", stats.OutputDir).
		Msg("run finished")
	return stats, err
}

// LedgerCounts returns the outcome counts recorded for this run, or nil when
// no ledger is configured.
func (a *App) LedgerCounts(ctx context.Context) (map[string]int, error) {
	if a.ledger == nil {
		return nil, nil
	}
	return a.ledger.Counts(ctx)
}

// Close releases the dataset manifests and the ledger.
func (a *App) Close() error {
	var errs []error
	if a.dataset != nil {
		errs = append(errs, a.dataset.Close())
	}
	if a.ledger != nil {
		errs = append(errs, a.ledger.Close())
	}
	return errors.Join(errs...)
}
