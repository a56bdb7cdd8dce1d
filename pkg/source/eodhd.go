package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const eodhdBaseURL = "https://eodhd.com/api"

// EODHD collects financial news articles from the EODHD news API.
type EODHD struct {
	client  *http.Client
	limiter *rate.Limiter
	baseURL string
	apiKey  string
	limit   int
}

// NewEODHD creates a new EODHD news adapter.
func NewEODHD(apiKey string, limit int) *EODHD {
	if limit <= 0 {
		limit = 50
	}
	return &EODHD{
		client:  &http.Client{Timeout: 30 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 10),
		baseURL: eodhdBaseURL,
		apiKey:  apiKey,
		limit:   limit,
	}
}

func (e *EODHD) Name() SourceType { return SourceNews }

func (e *EODHD) Fetch(ctx context.Context, ticker string, since time.Time) ([]Record, error) {
	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("eodhd rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("s", ticker)
	params.Set("limit", fmt.Sprintf("%d", e.limit))
	params.Set("from", since.UTC().Format("2006-01-02"))
	params.Set("api_token", e.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s/news?%s", e.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create eodhd request: %w", err)
	}
	req.Header.Set("User-Agent", "tickersent/1.0")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch eodhd news %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("eodhd news %s status %d", ticker, resp.StatusCode)
	}

	var articles []eodhdArticle
	if err := json.NewDecoder(resp.Body).Decode(&articles); err != nil {
		return nil, fmt.Errorf("decode eodhd news %s: %w", ticker, err)
	}

	records := make([]Record, 0, len(articles))
	for _, a := range articles {
		records = append(records, Record{
			Title: a.Title,
			Body:  truncate(a.Content, 2000),
			Date:  a.Date,
		})
	}
	return records, nil
}

type eodhdArticle struct {
	Date    string   `json:"date"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Link    string   `json:"link"`
	Symbols []string `json:"symbols"`
}
