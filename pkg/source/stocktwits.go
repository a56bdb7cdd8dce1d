package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const stocktwitsBaseURL = "https://api.stocktwits.com/api/2"

// StockTwits collects messages from a symbol's public StockTwits stream.
type StockTwits struct {
	client  *http.Client
	baseURL string
	limit   int
}

// NewStockTwits creates a new StockTwits adapter.
func NewStockTwits(limit int) *StockTwits {
	if limit <= 0 || limit > 30 {
		limit = 30 // API maximum per page
	}
	return &StockTwits{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: stocktwitsBaseURL,
		limit:   limit,
	}
}

func (s *StockTwits) Name() SourceType { return SourceStockTwits }

func (s *StockTwits) Fetch(ctx context.Context, ticker string, since time.Time) ([]Record, error) {
	reqURL := fmt.Sprintf("%s/streams/symbol/%s.json?limit=%d", s.baseURL, ticker, s.limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create stocktwits request %s: %w", ticker, err)
	}
	req.Header.Set("User-Agent", "tickersent/1.0")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stocktwits %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stocktwits %s status %d", ticker, resp.StatusCode)
	}

	var stream stocktwitsStream
	if err := json.NewDecoder(resp.Body).Decode(&stream); err != nil {
		return nil, fmt.Errorf("decode stocktwits %s: %w", ticker, err)
	}

	records := make([]Record, 0, len(stream.Messages))
	for _, msg := range stream.Messages {
		records = append(records, Record{
			Title: msg.Body,
			Date:  msg.CreatedAt,
		})
	}
	return records, nil
}

type stocktwitsStream struct {
	Messages []stocktwitsMessage `json:"messages"`
}

type stocktwitsMessage struct {
	ID        int64  `json:"id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}
