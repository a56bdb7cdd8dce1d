package scheduler

import (
	"context"
	"time"

	"github.com/phuslu/log"

	"github.com/mackresearch/tickersent/pkg/alert"
	"github.com/mackresearch/tickersent/pkg/series"
)

// Scheduler periodically refreshes the watchlist tickers through the
// pipeline (warming the record cache as a side effect) and raises alerts
// when a ticker's latest bucket crosses a sentiment threshold.
type Scheduler struct {
	coord    *series.Coordinator
	alertMgr *alert.Manager
	tickers  []string
	interval time.Duration
	opts     series.Options
	bullish  float64
	bearish  float64
	logger   *log.Logger

	// last alerted bucket label per ticker, so a threshold crossing fires
	// once per bucket rather than on every refresh.
	lastAlert map[string]string
}

// New creates a new scheduler. Thresholds are on the 1-10 presentation
// scale; the scheduler forces rescaling for its own requests.
func New(coord *series.Coordinator, alertMgr *alert.Manager, tickers []string, interval time.Duration, opts series.Options, bullish, bearish float64, logger *log.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	if bullish == 0 {
		bullish = 8.0
	}
	if bearish == 0 {
		bearish = 3.0
	}
	opts.Rescale = true
	return &Scheduler{
		coord:     coord,
		alertMgr:  alertMgr,
		tickers:   tickers,
		interval:  interval,
		opts:      opts,
		bullish:   bullish,
		bearish:   bearish,
		logger:    logger,
		lastAlert: make(map[string]string),
	}
}

// Run starts the refresh loop. Blocks until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	if s.logger != nil {
		s.logger.Info().Int("tickers", len(s.tickers)).Dur("interval", s.interval).Msg("watchlist scheduler running")
	}
	s.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.Info().Msg("watchlist scheduler stopped")
			}
			return ctx.Err()
		case <-ticker.C:
			s.refresh(ctx)
		}
	}
}

func (s *Scheduler) refresh(ctx context.Context) {
	for _, t := range s.tickers {
		result, err := s.coord.SeriesFor(ctx, t, s.opts)
		if err != nil {
			if s.logger != nil {
				s.logger.Warn().Str("ticker", t).Err(err).Msg("watchlist refresh failed")
			}
			continue
		}
		if len(result.Labels) == 0 {
			continue
		}

		latest := len(result.Labels) - 1
		s.maybeAlert(ctx, t, result.Labels[latest], result.Values[latest])
	}
}

func (s *Scheduler) maybeAlert(ctx context.Context, ticker, label string, score float64) {
	if s.alertMgr == nil || !s.alertMgr.HasNotifiers() {
		return
	}

	direction := ""
	switch {
	case score >= s.bullish:
		direction = "bullish"
	case score <= s.bearish:
		direction = "bearish"
	default:
		return
	}

	if s.lastAlert[ticker] == label {
		return
	}

	n := &alert.Notification{
		Ticker:    ticker,
		Label:     label,
		Score:     score,
		Direction: direction,
	}
	if err := s.alertMgr.Broadcast(ctx, n); err != nil {
		if s.logger != nil {
			s.logger.Warn().Str("ticker", ticker).Err(err).Msg("alert delivery failed")
		}
		return
	}

	s.lastAlert[ticker] = label
	if s.logger != nil {
		s.logger.Info().Str("ticker", ticker).Str("label", label).Float64("score", score).
			Str("direction", direction).Msg("sentiment alert sent")
	}
}
