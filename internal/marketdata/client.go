package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrRateLimited is returned when a provider answers with a throttling
// notice instead of data.
var ErrRateLimited = errors.New("provider rate limit reached")

const userAgent = "quantfolio/1.0 (github.com)"

// Client is a rate-limited HTTP client shared by the provider adapters.
type Client struct {
	http   *http.Client
	sem    chan struct{}
	rawDir string
	log    zerolog.Logger
}

// NewClient creates a provider client. Free market data tiers throttle
// aggressively, so concurrency is capped at 4 in-flight requests.
// rawDir receives untouched provider responses; empty disables that.
func NewClient(rawDir string) *Client {
	return &Client{
		http:   &http.Client{Timeout: 30 * time.Second},
		sem:    make(chan struct{}, 4),
		rawDir: rawDir,
		log:    log.With().Str("component", "marketdata").Logger(),
	}
}

// get fetches a URL and returns the raw body. Non-200 responses surface
// the body in the error since providers put diagnostics there.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	c.sem <- struct{}{}
	defer func() { <-c.sem }()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// getJSON fetches a URL, snapshots the raw body and decodes it into dst.
func (c *Client) getJSON(ctx context.Context, url, ticker, timeframe string, dst interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	c.snapshot(ticker, timeframe, body)
	return json.Unmarshal(body, dst)
}

// snapshot archives the raw provider response under
// rawDir/{ticker}/{timeframe}/{date}/raw.json. A failed snapshot is
// logged but never fails the fetch.
func (c *Client) snapshot(ticker, timeframe string, body []byte) {
	if c.rawDir == "" {
		return
	}
	dir := filepath.Join(c.rawDir, ticker, timeframe, time.Now().UTC().Format("2006-01-02"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("raw snapshot dir")
		return
	}
	if err := os.WriteFile(filepath.Join(dir, "raw.json"), body, 0o644); err != nil {
		c.log.Warn().Err(err).Str("ticker", ticker).Msg("raw snapshot write")
	}
}
