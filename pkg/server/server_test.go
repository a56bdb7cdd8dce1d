package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mackresearch/tickersent/pkg/series"
	"github.com/mackresearch/tickersent/pkg/source"
)

type fakePipeline struct {
	series   series.Series
	score    float64
	err      error
	ticker   string
	opts     series.Options
	wantSeen source.SourceType
}

func (f *fakePipeline) SeriesFor(ctx context.Context, ticker string, opts series.Options) (series.Series, error) {
	f.ticker = ticker
	f.opts = opts
	if f.err != nil {
		return series.EmptySeries(), f.err
	}
	return f.series, nil
}

func (f *fakePipeline) ScoreFor(ctx context.Context, ticker string, want source.SourceType, opts series.Options) (float64, error) {
	f.ticker = ticker
	f.opts = opts
	f.wantSeen = want
	if f.err != nil {
		return 0, f.err
	}
	return f.score, nil
}

func newTestServer(p *fakePipeline) *httptest.Server {
	srv := New(p, nil, series.Options{Policy: series.PolicyWeekly}, 8080, nil)
	return httptest.NewServer(srv.Handler())
}

func getJSON(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	return resp.StatusCode
}

func TestHealth(t *testing.T) {
	ts := newTestServer(&fakePipeline{})
	defer ts.Close()

	var body map[string]string
	code := getJSON(t, ts.URL+"/health", &body)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestTimeseriesPayload(t *testing.T) {
	p := &fakePipeline{series: series.Series{
		Labels: []string{"2024-01-01", "2024-01-08"},
		Values: []float64{0.1, 0.8},
	}}
	ts := newTestServer(p)
	defer ts.Close()

	var body struct {
		Ticker     string `json:"ticker"`
		Period     string `json:"period"`
		TimeSeries struct {
			Date     []string  `json:"date"`
			AvgScore []float64 `json:"avg_score"`
		} `json:"time_series"`
	}
	code := getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=nvda", &body)

	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "NVDA", body.Ticker)
	assert.Equal(t, "12w", body.Period)
	assert.Equal(t, []string{"2024-01-01", "2024-01-08"}, body.TimeSeries.Date)
	assert.Equal(t, []float64{0.1, 0.8}, body.TimeSeries.AvgScore)
}

func TestTimeseriesMissingTicker(t *testing.T) {
	p := &fakePipeline{err: series.ErrNoTicker}
	ts := newTestServer(p)
	defer ts.Close()

	var body map[string]string
	code := getJSON(t, ts.URL+"/api/v1/sentiment/timeseries", &body)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body["error"])
}

func TestTimeseriesPeriodControlsLookback(t *testing.T) {
	p := &fakePipeline{series: series.EmptySeries()}
	ts := newTestServer(p)
	defer ts.Close()

	var body map[string]any
	getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=NVDA&period=6m", &body)
	assert.Equal(t, 180, p.opts.LookbackDays)
	assert.Equal(t, "6m", body["period"])
}

func TestTimeseriesDefaultsToConfiguredLookback(t *testing.T) {
	p := &fakePipeline{series: series.EmptySeries()}
	srv := New(p, nil, series.Options{Policy: series.PolicyWeekly, LookbackDays: 60}, 8080, nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	var body map[string]any
	getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=NVDA", &body)
	assert.Equal(t, 60, p.opts.LookbackDays)
	assert.Equal(t, "2m", body["period"])

	// An explicit period still wins over the configured lookback.
	getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=NVDA&period=1y", &body)
	assert.Equal(t, 365, p.opts.LookbackDays)
}

func TestTimeseriesBadPolicy(t *testing.T) {
	p := &fakePipeline{series: series.EmptySeries()}
	ts := newTestServer(p)
	defer ts.Close()

	var body map[string]string
	code := getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=NVDA&policy=hourly", &body)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTimeseriesBadRescale(t *testing.T) {
	p := &fakePipeline{series: series.EmptySeries()}
	ts := newTestServer(p)
	defer ts.Close()

	var body map[string]string
	code := getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=NVDA&rescale=maybe", &body)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestTimeseriesRescaleParam(t *testing.T) {
	p := &fakePipeline{series: series.EmptySeries()}
	ts := newTestServer(p)
	defer ts.Close()

	var body map[string]any
	getJSON(t, ts.URL+"/api/v1/sentiment/timeseries?ticker=NVDA&rescale=true&policy=isoweek", &body)
	assert.True(t, p.opts.Rescale)
	assert.Equal(t, series.PolicyISOWeek, p.opts.Policy)
}

func TestScoreRestrictedSource(t *testing.T) {
	p := &fakePipeline{score: 7.2}
	ts := newTestServer(p)
	defer ts.Close()

	var body map[string]any
	code := getJSON(t, ts.URL+"/api/v1/sentiment/score?ticker=NVDA&source=stocktwits", &body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, source.SourceStockTwits, p.wantSeen)
	assert.Equal(t, 7.2, body["score"])
	assert.Equal(t, "stocktwits", body["source"])
}

func TestScoreUnknownSource(t *testing.T) {
	ts := newTestServer(&fakePipeline{})
	defer ts.Close()

	var body map[string]string
	code := getJSON(t, ts.URL+"/api/v1/sentiment/score?ticker=NVDA&source=telegram", &body)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestRecordsWithoutStore(t *testing.T) {
	ts := newTestServer(&fakePipeline{})
	defer ts.Close()

	var body map[string]string
	code := getJSON(t, ts.URL+"/api/v1/records", &body)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newTestServer(&fakePipeline{})
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/v1/sentiment/timeseries", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestParsePeriod(t *testing.T) {
	cases := []struct {
		period string
		days   int
	}{
		{"12w", 84},
		{"6m", 180},
		{"1y", 365},
		{"2w", 14},
		{"", 90},
		{"w", 90},
		{"0w", 90},
		{"-3w", 90},
		{"12d", 90},
		{"abc", 90},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.days, ParsePeriod(tc.period), "period %q", tc.period)
	}
}

func TestFormatPeriod(t *testing.T) {
	cases := []struct {
		days   int
		period string
	}{
		{365, "1y"},
		{730, "2y"},
		{60, "2m"},
		{84, "12w"},
		{14, "2w"},
		{45, "45d"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.period, FormatPeriod(tc.days), "days %d", tc.days)
	}
}
