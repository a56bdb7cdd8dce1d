package series

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/mackresearch/tickersent/pkg/sentiment"
	"github.com/mackresearch/tickersent/pkg/source"
)

// ErrNoTicker is returned when a request carries no ticker symbol.
var ErrNoTicker = errors.New("no ticker supplied")

// Options configures one aggregation request.
type Options struct {
	Policy        Policy
	LookbackDays  int
	IntervalDays  int
	Rescale       bool
	SourceTimeout time.Duration

	// Now pins the reference time for the whole request so the lookback
	// cutoff and bucket boundaries stay consistent. Zero means wall clock.
	Now time.Time
}

func (o Options) reference() time.Time {
	if o.Now.IsZero() {
		return time.Now().UTC()
	}
	return o.Now.UTC()
}

func (o Options) lookback() int {
	if o.LookbackDays <= 0 {
		return 90
	}
	return o.LookbackDays
}

// RecordCache persists fetched raw records and fetch outcomes. Satisfied by
// the sqlite store; nil disables caching.
type RecordCache interface {
	InsertRecords(ctx context.Context, ticker string, src source.SourceType, recs []source.Record) error
	LogFetch(ctx context.Context, ticker string, src source.SourceType, count int, fetchErr error) error
}

// Coordinator runs the aggregation pipeline over an ordered list of sources.
// Each request is self-contained: the coordinator holds no per-request state
// and is safe for concurrent use.
type Coordinator struct {
	analyzer sentiment.Analyzer
	sources  []source.Adapter
	cache    RecordCache
	logger   *log.Logger
}

// NewCoordinator creates a coordinator. Sources are tried in the given
// priority order; cache and logger may be nil.
func NewCoordinator(analyzer sentiment.Analyzer, sources []source.Adapter, cache RecordCache, logger *log.Logger) *Coordinator {
	return &Coordinator{
		analyzer: analyzer,
		sources:  sources,
		cache:    cache,
		logger:   logger,
	}
}

// SeriesFor produces the sentiment time series for a ticker. Sources are
// tried strictly in order; the first one yielding a non-empty in-scope item
// set wins. Source failures are logged and treated the same as empty yields.
// When every source is exhausted the result is a valid empty series, not an
// error: sentiment unavailability is not fatal to the caller.
func (c *Coordinator) SeriesFor(ctx context.Context, ticker string, opts Options) (Series, error) {
	ticker, err := c.validate(ticker, &opts)
	if err != nil {
		return EmptySeries(), err
	}

	now := opts.reference()
	cutoff := now.AddDate(0, 0, -opts.lookback())

	for _, src := range c.sources {
		items := c.collect(ctx, src, ticker, cutoff, now, opts)
		if len(items) == 0 {
			continue
		}
		buckets := Partition(items, opts.Policy, now, opts.lookback(), opts.IntervalDays)
		return Aggregate(buckets, opts.Rescale), nil
	}

	return EmptySeries(), nil
}

// ScoreFor produces a single average sentiment score for a ticker over the
// lookback window. When want names a source, only that adapter is consulted;
// otherwise the usual fallback order applies. An empty in-scope set yields
// the neutral score.
func (c *Coordinator) ScoreFor(ctx context.Context, ticker string, want source.SourceType, opts Options) (float64, error) {
	ticker, err := c.validate(ticker, &opts)
	if err != nil {
		return 0, err
	}

	sources := c.sources
	if want != "" {
		sources = nil
		for _, src := range c.sources {
			if src.Name() == want {
				sources = []source.Adapter{src}
				break
			}
		}
		if sources == nil {
			return 0, fmt.Errorf("source %q not configured", want)
		}
	}

	now := opts.reference()
	cutoff := now.AddDate(0, 0, -opts.lookback())

	for _, src := range sources {
		items := c.collect(ctx, src, ticker, cutoff, now, opts)
		if len(items) == 0 {
			continue
		}

		sum := 0.0
		for _, it := range items {
			sum += it.Score
		}
		mean := sum / float64(len(items))
		if opts.Rescale {
			return Rescale(mean), nil
		}
		return round(mean, 2), nil
	}

	return NeutralScore(opts.Rescale), nil
}

// validate checks the only configuration that can hard-fail a request,
// before any source is contacted.
func (c *Coordinator) validate(ticker string, opts *Options) (string, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return "", ErrNoTicker
	}
	if opts.Policy == "" {
		opts.Policy = PolicyWeekly
	}
	if _, err := ParsePolicy(string(opts.Policy)); err != nil {
		return "", err
	}
	return ticker, nil
}

// collect fetches one source and runs its records through normalization,
// scoring and the cutoff filter. Any failure is absorbed: the caller sees an
// empty slice and moves on to the next source.
func (c *Coordinator) collect(ctx context.Context, src source.Adapter, ticker string, cutoff, now time.Time, opts Options) []ScoredItem {
	fctx := ctx
	if opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		fctx, cancel = context.WithTimeout(ctx, opts.SourceTimeout)
		defer cancel()
	}

	recs, err := src.Fetch(fctx, ticker, cutoff)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn().Str("ticker", ticker).Str("source", string(src.Name())).Err(err).Msg("source fetch failed")
		}
		if c.cache != nil {
			_ = c.cache.LogFetch(ctx, ticker, src.Name(), 0, err)
		}
		return nil
	}

	if c.cache != nil {
		if err := c.cache.InsertRecords(ctx, ticker, src.Name(), recs); err != nil && c.logger != nil {
			c.logger.Warn().Str("ticker", ticker).Str("source", string(src.Name())).Err(err).Msg("cache write failed")
		}
		_ = c.cache.LogFetch(ctx, ticker, src.Name(), len(recs), nil)
	}

	var items []ScoredItem
	for _, rec := range recs {
		cand, ok := Normalize(rec)
		if !ok {
			continue
		}
		if cand.Timestamp.Before(cutoff) {
			continue
		}
		// Trailing windows end at the reference time; future-dated items
		// would fall outside every window.
		if opts.Policy == PolicyTrailing && !cand.Timestamp.Before(now) {
			continue
		}
		items = append(items, ScoredItem{
			Timestamp: cand.Timestamp,
			Score:     c.analyzer.Score(cand.Text),
		})
	}

	if c.logger != nil {
		c.logger.Debug().Str("ticker", ticker).Str("source", string(src.Name())).
			Int("fetched", len(recs)).Int("in_scope", len(items)).Msg("source collected")
	}
	return items
}
