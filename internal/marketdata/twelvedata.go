package marketdata

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"quantfolio/internal/engine"
)

const twelveDataBaseURL = "https://api.twelvedata.com/time_series"

// TwelveData fetches close prices from the Twelve Data time-series
// endpoint.
type TwelveData struct {
	client    *Client
	apiKey    string
	timeframe string
	start     time.Time
	end       time.Time
	baseURL   string
}

// NewTwelveData builds an adapter for the given timeframe (daily,
// weekly, monthly) and inclusive date window.
func NewTwelveData(client *Client, apiKey, timeframe string, start, end time.Time) *TwelveData {
	return &TwelveData{
		client:    client,
		apiKey:    apiKey,
		timeframe: timeframe,
		start:     start,
		end:       end,
		baseURL:   twelveDataBaseURL,
	}
}

type twelveDataResponse struct {
	// Status is "ok" on success; errors come back with HTTP 200 and
	// status "error" plus a message and numeric code.
	Status  string `json:"status"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Values  []struct {
		Datetime string `json:"datetime"`
		Close    string `json:"close"`
	} `json:"values"`
}

// Series fetches the close-price history for one ticker.
func (t *TwelveData) Series(ctx context.Context, ticker string) ([]engine.PriceObservation, error) {
	interval := map[string]string{
		"daily":   "1day",
		"weekly":  "1week",
		"monthly": "1month",
	}[t.timeframe]
	if interval == "" {
		return nil, fmt.Errorf("twelvedata: unsupported timeframe %q", t.timeframe)
	}

	q := url.Values{}
	q.Set("symbol", ticker)
	q.Set("interval", interval)
	q.Set("outputsize", "5000")
	q.Set("apikey", t.apiKey)
	if !t.start.IsZero() {
		q.Set("start_date", t.start.Format("2006-01-02"))
	}
	if !t.end.IsZero() {
		q.Set("end_date", t.end.Format("2006-01-02"))
	}

	var resp twelveDataResponse
	if err := t.client.getJSON(ctx, t.baseURL+"?"+q.Encode(), ticker, t.timeframe, &resp); err != nil {
		return nil, fmt.Errorf("twelvedata %s: %w", ticker, err)
	}
	if resp.Status == "error" {
		if resp.Code == 429 {
			return nil, fmt.Errorf("twelvedata %s: %w: %s", ticker, ErrRateLimited, resp.Message)
		}
		return nil, fmt.Errorf("twelvedata %s: %s", ticker, resp.Message)
	}
	if len(resp.Values) == 0 {
		return nil, fmt.Errorf("twelvedata %s: empty time series", ticker)
	}

	obs := make([]engine.PriceObservation, 0, len(resp.Values))
	for _, v := range resp.Values {
		// Intraday intervals include a time component; daily and up are
		// bare dates.
		date, err := time.Parse("2006-01-02", v.Datetime)
		if err != nil {
			date, err = time.Parse("2006-01-02 15:04:05", v.Datetime)
		}
		if err != nil {
			return nil, fmt.Errorf("twelvedata %s: bad datetime %q", ticker, v.Datetime)
		}
		if !inWindow(date, t.start, t.end) {
			continue
		}
		price, err := strconv.ParseFloat(v.Close, 64)
		if err != nil {
			return nil, fmt.Errorf("twelvedata %s: bad close %q on %s: %w", ticker, v.Close, v.Datetime, err)
		}
		obs = append(obs, engine.PriceObservation{Date: date, Asset: ticker, Price: price})
	}
	// Twelve Data returns newest first.
	sort.Slice(obs, func(i, j int) bool { return obs[i].Date.Before(obs[j].Date) })
	return obs, nil
}
