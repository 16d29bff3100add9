package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"quantfolio/internal/engine"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantage fetches close prices from the Alpha Vantage time-series
// endpoints.
type AlphaVantage struct {
	client    *Client
	apiKey    string
	timeframe string
	start     time.Time
	end       time.Time
	baseURL   string
}

// NewAlphaVantage builds an adapter for the given timeframe (daily,
// weekly, monthly) and inclusive date window. Zero start/end leave that
// side of the window open.
func NewAlphaVantage(client *Client, apiKey, timeframe string, start, end time.Time) *AlphaVantage {
	return &AlphaVantage{
		client:    client,
		apiKey:    apiKey,
		timeframe: timeframe,
		start:     start,
		end:       end,
		baseURL:   alphaVantageBaseURL,
	}
}

type alphaVantageBar struct {
	Close string `json:"4. close"`
}

type alphaVantageResponse struct {
	// Note and Information carry throttling notices; ErrorMessage carries
	// everything else (bad symbol, bad key). All arrive with HTTP 200.
	Note         string `json:"Note"`
	Information  string `json:"Information"`
	ErrorMessage string `json:"Error Message"`

	Daily   map[string]alphaVantageBar `json:"Time Series (Daily)"`
	Weekly  map[string]alphaVantageBar `json:"Weekly Time Series"`
	Monthly map[string]alphaVantageBar `json:"Monthly Time Series"`
}

// Series fetches the close-price history for one ticker.
func (a *AlphaVantage) Series(ctx context.Context, ticker string) ([]engine.PriceObservation, error) {
	function := map[string]string{
		"daily":   "TIME_SERIES_DAILY",
		"weekly":  "TIME_SERIES_WEEKLY",
		"monthly": "TIME_SERIES_MONTHLY",
	}[a.timeframe]
	if function == "" {
		return nil, fmt.Errorf("alphavantage: unsupported timeframe %q", a.timeframe)
	}

	q := url.Values{}
	q.Set("function", function)
	q.Set("symbol", ticker)
	q.Set("outputsize", "full")
	q.Set("apikey", a.apiKey)

	var resp alphaVantageResponse
	if err := a.client.getJSON(ctx, a.baseURL+"?"+q.Encode(), ticker, a.timeframe, &resp); err != nil {
		return nil, fmt.Errorf("alphavantage %s: %w", ticker, err)
	}
	if resp.Note != "" || resp.Information != "" {
		return nil, fmt.Errorf("alphavantage %s: %w: %s", ticker, ErrRateLimited, strings.TrimSpace(resp.Note+resp.Information))
	}
	if resp.ErrorMessage != "" {
		return nil, fmt.Errorf("alphavantage %s: %s", ticker, resp.ErrorMessage)
	}

	series := resp.Daily
	switch a.timeframe {
	case "weekly":
		series = resp.Weekly
	case "monthly":
		series = resp.Monthly
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("alphavantage %s: empty time series", ticker)
	}

	obs := make([]engine.PriceObservation, 0, len(series))
	for dateStr, bar := range series {
		date, err := time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("alphavantage %s: bad date %q: %w", ticker, dateStr, err)
		}
		if !inWindow(date, a.start, a.end) {
			continue
		}
		price, err := strconv.ParseFloat(bar.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("alphavantage %s: bad close %q on %s: %w", ticker, bar.Close, dateStr, err)
		}
		obs = append(obs, engine.PriceObservation{Date: date, Asset: ticker, Price: price})
	}
	// Map iteration order is random; callers get chronological series.
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs, nil
}

func inWindow(date, start, end time.Time) bool {
	if !start.IsZero() && date.Before(start) {
		return false
	}
	if !end.IsZero() && date.After(end) {
		return false
	}
	return true
}
