package marketdata

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quantfolio/internal/engine"
)

// ReadWideCSV loads price history from a wide CSV: a date column
// followed by one column per ticker, e.g.
//
//	date,AAPL,MSFT
//	2024-01-02,185.64,370.87
//
// Blank or unparseable cells are skipped, so tickers may have holes in
// their history.
func ReadWideCSV(path string) ([]engine.PriceObservation, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open price csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read price csv: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("price csv %s: need a header and at least one row", path)
	}

	header := records[0]
	if len(header) < 2 {
		return nil, fmt.Errorf("price csv %s: need a date column and at least one ticker", path)
	}
	tickers := header[1:]

	var obs []engine.PriceObservation
	for i, row := range records[1:] {
		if len(row) != len(header) {
			return nil, fmt.Errorf("price csv %s: row %d has %d fields, want %d", path, i+2, len(row), len(header))
		}
		date, err := time.Parse("2006-01-02", row[0])
		if err != nil {
			return nil, fmt.Errorf("price csv %s: row %d: bad date %q: %w", path, i+2, row[0], err)
		}
		for j, cell := range row[1:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}
			price, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				continue
			}
			obs = append(obs, engine.PriceObservation{Date: date, Asset: tickers[j], Price: price})
		}
	}
	return obs, nil
}
