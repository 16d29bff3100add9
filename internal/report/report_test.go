package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"quantfolio/internal/engine"
	"quantfolio/internal/marketdata"
)

func TestWritePriceCSV_RoundTrip(t *testing.T) {
	day := func(n int) time.Time {
		return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	}
	in := []engine.PriceObservation{
		{Date: day(0), Asset: "MSFT", Price: 370.87},
		{Date: day(0), Asset: "AAPL", Price: 185.64},
		{Date: day(1), Asset: "AAPL", Price: 184.25},
		// MSFT has no price on day 1: blank cell expected.
		{Date: day(2), Asset: "AAPL", Price: 181.91},
		{Date: day(2), Asset: "MSFT", Price: 367.94},
	}

	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := WritePriceCSV(path, in); err != nil {
		t.Fatalf("WritePriceCSV: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "date,AAPL,MSFT" {
		t.Errorf("header = %q, want date,AAPL,MSFT (sorted)", lines[0])
	}
	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}
	if !strings.HasSuffix(lines[2], ",") {
		t.Errorf("day-1 row = %q, want trailing blank MSFT cell", lines[2])
	}

	// The writer's layout must be readable by the CSV source.
	obs, err := marketdata.ReadWideCSV(path)
	if err != nil {
		t.Fatalf("ReadWideCSV: %v", err)
	}
	if len(obs) != len(in) {
		t.Errorf("round trip produced %d observations, want %d", len(obs), len(in))
	}
}

func TestWriteFrontierCSV(t *testing.T) {
	result := &engine.OptimizationResult{
		Frontier: []engine.FrontierPoint{
			{RiskFreeWeight: 1, RiskyWeights: []float64{0, 0}, ExpectedReturn: 0.0001, PortfolioStd: 0, SharpeRatio: 0},
			{RiskFreeWeight: 0, RiskyWeights: []float64{0.4, 0.6}, ExpectedReturn: 0.03, PortfolioStd: 0.05, SharpeRatio: 0.598},
		},
	}
	path := filepath.Join(t.TempDir(), "frontier.csv")
	if err := WriteFrontierCSV(path, []string{"AAPL", "MSFT"}, result); err != nil {
		t.Fatalf("WriteFrontierCSV: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if lines[0] != "risk_free_weight,weight_AAPL,weight_MSFT,expected_return,portfolio_std,sharpe_ratio" {
		t.Errorf("header = %q", lines[0])
	}
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if !strings.HasPrefix(lines[2], "0,0.4,0.6,") {
		t.Errorf("tangency row = %q", lines[2])
	}
}

func TestHistogram(t *testing.T) {
	// 10 values over [0,9] in 5 bins of width 1.8; the max lands in the
	// last bin rather than overflowing.
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	labels, counts := histogram(values, 5)
	if len(labels) != 5 || len(counts) != 5 {
		t.Fatalf("got %d labels / %d counts, want 5 each", len(labels), len(counts))
	}
	total := 0.0
	for _, c := range counts {
		total += c
	}
	if total != 10 {
		t.Errorf("total count = %v, want 10", total)
	}
	if counts[4] == 0 {
		t.Errorf("last bin empty; max value fell out of range: %v", counts)
	}
}

func TestHistogram_Degenerate(t *testing.T) {
	labels, counts := histogram([]float64{0.02, 0.02, 0.02}, 5)
	if len(labels) != 1 || counts[0] != 3 {
		t.Errorf("flat series: labels=%v counts=%v, want single bin of 3", labels, counts)
	}
	if l, c := histogram(nil, 5); l != nil || c != nil {
		t.Errorf("empty series should produce nil, got %v %v", l, c)
	}
}

func TestHistogramBins(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{1, 5},    // clamped low
		{100, 10}, // sqrt rule
		{2000, 30},
	}
	for _, tt := range tests {
		if got := histogramBins(tt.n); got != tt.want {
			t.Errorf("histogramBins(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestRenderCharts_WriteFiles(t *testing.T) {
	dir := t.TempDir()
	result := &engine.OptimizationResult{
		Frontier: []engine.FrontierPoint{
			{RiskFreeWeight: 1, RiskyWeights: []float64{0, 0}, ExpectedReturn: 0.0001},
			{RiskFreeWeight: 0, RiskyWeights: []float64{0.4, 0.6}, ExpectedReturn: 0.03, PortfolioStd: 0.05, SharpeRatio: 0.598},
			{RiskFreeWeight: -1, RiskyWeights: []float64{0.8, 1.2}, ExpectedReturn: 0.0599, PortfolioStd: 0.1, SharpeRatio: 0.598},
		},
		OptimalRiskyWeights: []float64{0.4, 0.6},
		OptimalRiskyReturn:  0.03,
		OptimalRiskyStd:     0.05,
		MaxSharpe:           0.598,
	}

	frontierPath := filepath.Join(dir, "frontier.png")
	if err := RenderFrontierChart(frontierPath, result); err != nil {
		t.Fatalf("RenderFrontierChart: %v", err)
	}
	weightsPath := filepath.Join(dir, "weights.png")
	if err := RenderWeightsChart(weightsPath, []string{"AAPL", "MSFT"}, result.OptimalRiskyWeights); err != nil {
		t.Fatalf("RenderWeightsChart: %v", err)
	}
	returns := make([]float64, 50)
	for i := range returns {
		returns[i] = math.Sin(float64(i)) * 0.02
	}
	histPath := filepath.Join(dir, "returns.png")
	if err := RenderReturnHistogram(histPath, returns, -0.018, -0.02, 0.95); err != nil {
		t.Fatalf("RenderReturnHistogram: %v", err)
	}

	for _, p := range []string{frontierPath, weightsPath, histPath} {
		info, err := os.Stat(p)
		if err != nil {
			t.Fatalf("chart not written: %v", err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", p)
		}
	}
}
