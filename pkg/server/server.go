package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/phuslu/log"

	"github.com/mackresearch/tickersent/internal/store"
	"github.com/mackresearch/tickersent/pkg/series"
	"github.com/mackresearch/tickersent/pkg/source"
)

// Pipeline is the aggregation surface the server exposes.
type Pipeline interface {
	SeriesFor(ctx context.Context, ticker string, opts series.Options) (series.Series, error)
	ScoreFor(ctx context.Context, ticker string, want source.SourceType, opts series.Options) (float64, error)
}

// Server provides the HTTP API.
type Server struct {
	pipeline Pipeline
	store    store.Store
	defaults series.Options
	port     int
	logger   *log.Logger
}

// New creates a new HTTP server. The store may be nil when caching is
// disabled; defaults seed per-request pipeline options.
func New(pipeline Pipeline, st store.Store, defaults series.Options, port int, logger *log.Logger) *Server {
	if port == 0 {
		port = 8080
	}
	return &Server{
		pipeline: pipeline,
		store:    st,
		defaults: defaults,
		port:     port,
		logger:   logger,
	}
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/v1/sentiment/timeseries", s.handleTimeseries)
	mux.HandleFunc("/api/v1/sentiment/score", s.handleScore)
	mux.HandleFunc("/api/v1/records", s.handleRecords)
	mux.HandleFunc("/api/v1/sources", s.handleSources)
	return mux
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf(":%d", s.port)
	if s.logger != nil {
		s.logger.Info().Str("addr", addr).Msg("tickersent server listening")
	}
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleTimeseries serves the per-ticker sentiment time series.
// Query: ticker (required), period (e.g. 12w/6m/1y), policy, rescale.
func (s *Server) handleTimeseries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts, period, err := s.requestOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	ticker := r.URL.Query().Get("ticker")
	result, err := s.pipeline.SeriesFor(r.Context(), ticker, opts)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ticker":      strings.ToUpper(strings.TrimSpace(ticker)),
		"period":      period,
		"time_series": result,
	})
}

// handleScore serves a single average score for a ticker, optionally
// restricted to one source.
func (s *Server) handleScore(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	opts, _, err := s.requestOptions(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	var want source.SourceType
	if name := r.URL.Query().Get("source"); name != "" {
		st, ok := source.ParseSourceType(name)
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("unknown source %q", name)})
			return
		}
		want = st
	}

	ticker := r.URL.Query().Get("ticker")
	score, err := s.pipeline.ScoreFor(r.Context(), ticker, want, opts)
	if err != nil {
		writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
		return
	}

	resp := map[string]any{
		"ticker": strings.ToUpper(strings.TrimSpace(ticker)),
		"score":  score,
	}
	if want != "" {
		resp["source"] = string(want)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "record cache disabled"})
		return
	}

	opts := store.ListOpts{Limit: 100}
	q := r.URL.Query()
	if t := q.Get("ticker"); t != "" {
		opts.Ticker = strings.ToUpper(strings.TrimSpace(t))
	}
	if src := q.Get("source"); src != "" {
		opts.Source = source.SourceType(src)
	}
	if since := q.Get("since"); since != "" {
		if t, err := time.Parse(time.RFC3339, since); err == nil {
			opts.Since = t
		}
	}

	records, err := s.store.ListRecords(r.Context(), opts)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  records,
		"count": len(records),
	})
}

func (s *Server) handleSources(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	counts := map[source.SourceType]int{}
	if s.store != nil {
		var err error
		counts, err = s.store.CountBySource(r.Context())
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
	}

	type sourceInfo struct {
		Name    string `json:"name"`
		Records int    `json:"records"`
	}

	infos := []sourceInfo{}
	for _, st := range source.AllSourceTypes() {
		infos = append(infos, sourceInfo{Name: string(st), Records: counts[st]})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  infos,
		"count": len(infos),
	})
}

// requestOptions builds pipeline options from query parameters on top of the
// configured defaults, returning the effective period string.
func (s *Server) requestOptions(r *http.Request) (series.Options, string, error) {
	opts := s.defaults
	q := r.URL.Query()

	period := q.Get("period")
	switch {
	case period != "":
		opts.LookbackDays = ParsePeriod(period)
	case opts.LookbackDays > 0:
		period = FormatPeriod(opts.LookbackDays)
	default:
		period = "12w"
		opts.LookbackDays = ParsePeriod(period)
	}

	if p := q.Get("policy"); p != "" {
		policy, err := series.ParsePolicy(p)
		if err != nil {
			return opts, period, err
		}
		opts.Policy = policy
	}

	if v := q.Get("rescale"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return opts, period, fmt.Errorf("invalid rescale value %q", v)
		}
		opts.Rescale = b
	}

	return opts, period, nil
}

// ParsePeriod translates a period string like "12w", "6m" or "1y" into days.
// Malformed values fall back to 90 days.
func ParsePeriod(period string) int {
	if len(period) < 2 {
		return 90
	}

	n, err := strconv.Atoi(period[:len(period)-1])
	if err != nil || n <= 0 {
		return 90
	}

	switch period[len(period)-1] {
	case 'w':
		return n * 7
	case 'm':
		return n * 30
	case 'y':
		return n * 365
	}
	return 90
}

// FormatPeriod renders a lookback in days as the shortest period string.
func FormatPeriod(days int) string {
	switch {
	case days%365 == 0:
		return fmt.Sprintf("%dy", days/365)
	case days%30 == 0:
		return fmt.Sprintf("%dm", days/30)
	case days%7 == 0:
		return fmt.Sprintf("%dw", days/7)
	}
	return fmt.Sprintf("%dd", days)
}

// statusFor maps pipeline errors to HTTP status codes. Only configuration
// errors surface; everything upstream is absorbed by the coordinator.
func statusFor(err error) int {
	if errors.Is(err, series.ErrNoTicker) {
		return http.StatusBadRequest
	}
	// Remaining error classes are also request-shaped (unknown policy or
	// source), never provider failures.
	return http.StatusBadRequest
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
