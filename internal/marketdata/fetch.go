package marketdata

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"quantfolio/internal/config"
	"quantfolio/internal/engine"
)

// Provider fetches the close-price history for one ticker.
type Provider interface {
	Series(ctx context.Context, ticker string) ([]engine.PriceObservation, error)
}

// Fetch loads price observations from the configured source. Remote
// providers are queried concurrently, one ticker per goroutine; the
// first failure cancels the rest.
func Fetch(ctx context.Context, cfg config.DataConfig) ([]engine.PriceObservation, error) {
	if cfg.Source == "csv" {
		return ReadWideCSV(cfg.File)
	}

	start, end, err := parseWindow(cfg.StartDate, cfg.EndDate)
	if err != nil {
		return nil, err
	}

	client := NewClient(cfg.RawDir)
	var provider Provider
	switch cfg.Source {
	case "alphavantage":
		provider = NewAlphaVantage(client, cfg.APIKey, cfg.Timeframe, start, end)
	case "twelvedata":
		provider = NewTwelveData(client, cfg.APIKey, cfg.Timeframe, start, end)
	default:
		return nil, fmt.Errorf("unknown data source %q", cfg.Source)
	}

	logger := log.With().Str("component", "marketdata").Logger()

	var mu sync.Mutex
	var all []engine.PriceObservation

	g, ctx := errgroup.WithContext(ctx)
	for _, ticker := range cfg.Tickers {
		ticker := ticker
		g.Go(func() error {
			series, err := provider.Series(ctx, ticker)
			if err != nil {
				return err
			}
			logger.Info().Str("ticker", ticker).Int("observations", len(series)).Msg("fetched series")
			mu.Lock()
			all = append(all, series...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return all, nil
}

func parseWindow(startStr, endStr string) (start, end time.Time, err error) {
	if startStr != "" {
		start, err = time.Parse("2006-01-02", startStr)
		if err != nil {
			return start, end, fmt.Errorf("bad start_date %q: %w", startStr, err)
		}
	}
	if endStr != "" {
		end, err = time.Parse("2006-01-02", endStr)
		if err != nil {
			return start, end, fmt.Errorf("bad end_date %q: %w", endStr, err)
		}
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		return start, end, fmt.Errorf("end_date %s precedes start_date %s", endStr, startStr)
	}
	return start, end, nil
}
