package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"quantfolio/internal/engine"
)

// WritePriceCSV writes observations as a wide CSV: one row per date,
// one column per asset, blank cells where an asset has no price. The
// layout round-trips through marketdata.ReadWideCSV.
func WritePriceCSV(path string, obs []engine.PriceObservation) error {
	assetSet := make(map[string]bool)
	byDate := make(map[string]map[string]float64)
	for _, o := range obs {
		assetSet[o.Asset] = true
		d := o.Date.Format("2006-01-02")
		if byDate[d] == nil {
			byDate[d] = make(map[string]float64)
		}
		byDate[d][o.Asset] = o.Price
	}

	assets := make([]string, 0, len(assetSet))
	for a := range assetSet {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create price csv: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"date"}, assets...)); err != nil {
		return err
	}
	for _, d := range dates {
		row := make([]string, 0, len(assets)+1)
		row = append(row, d)
		for _, a := range assets {
			if price, ok := byDate[d][a]; ok {
				row = append(row, strconv.FormatFloat(price, 'f', -1, 64))
			} else {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFrontierCSV writes one row per frontier point with the risk-free
// weight, the per-asset risky weights and the summary columns.
func WriteFrontierCSV(path string, assets []string, result *engine.OptimizationResult) error {
	f, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create frontier csv: %w", err)
	}
	defer f.Close()

	header := []string{"risk_free_weight"}
	for _, a := range assets {
		header = append(header, "weight_"+a)
	}
	header = append(header, "expected_return", "portfolio_std", "sharpe_ratio")

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, p := range result.Frontier {
		row := make([]string, 0, len(header))
		row = append(row, formatFloat(p.RiskFreeWeight))
		for _, rw := range p.RiskyWeights {
			row = append(row, formatFloat(rw))
		}
		row = append(row, formatFloat(p.ExpectedReturn), formatFloat(p.PortfolioStd), formatFloat(p.SharpeRatio))
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func createFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return os.Create(path)
}
