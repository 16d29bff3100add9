package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	charts "github.com/vicanso/go-charts/v2"

	"quantfolio/internal/engine"
)

// RenderFrontierChart draws the capital allocation line: portfolio
// standard deviation on x, expected return on y, one point per
// leverage step.
func RenderFrontierChart(path string, result *engine.OptimizationResult) error {
	xLabels := make([]string, len(result.Frontier))
	returns := make([]float64, len(result.Frontier))
	for i, p := range result.Frontier {
		xLabels[i] = fmt.Sprintf("%.4f", p.PortfolioStd)
		returns[i] = p.ExpectedReturn
	}

	painter, err := charts.LineRender([][]float64{returns},
		charts.TitleTextOptionFunc("Efficient Frontier",
			fmt.Sprintf("max Sharpe %.4f at std %.4f", result.MaxSharpe, result.OptimalRiskyStd)),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: xLabels, BoundaryGap: charts.FalseFlag()}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return fmt.Errorf("render frontier chart: %w", err)
	}
	return writeChart(path, painter)
}

// RenderWeightsChart draws the optimal risky weights as one bar per
// asset. Short positions show as negative bars.
func RenderWeightsChart(path string, assets []string, weights []float64) error {
	painter, err := charts.BarRender([][]float64{weights},
		charts.TitleTextOptionFunc("Optimal Risky Portfolio Weights"),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: assets}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return fmt.Errorf("render weights chart: %w", err)
	}
	return writeChart(path, painter)
}

// RenderReturnHistogram draws the distribution of portfolio returns
// with the tail-risk figures in the subtitle.
func RenderReturnHistogram(path string, returns []float64, valueAtRisk, cvar, confidence float64) error {
	labels, counts := histogram(returns, histogramBins(len(returns)))

	painter, err := charts.BarRender([][]float64{counts},
		charts.TitleTextOptionFunc("Portfolio Return Distribution",
			fmt.Sprintf("VaR(%.0f%%) %.4f  CVaR(%.0f%%) %.4f", confidence*100, valueAtRisk, confidence*100, cvar)),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return fmt.Errorf("render return histogram: %w", err)
	}
	return writeChart(path, painter)
}

// histogram buckets values into bins of equal width spanning the data
// range. Labels carry the bin midpoint. A flat series collapses into a
// single bin.
func histogram(values []float64, bins int) (labels []string, counts []float64) {
	if len(values) == 0 || bins < 1 {
		return nil, nil
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if lo == hi {
		return []string{fmt.Sprintf("%.4f", lo)}, []float64{float64(len(values))}
	}

	width := (hi - lo) / float64(bins)
	counts = make([]float64, bins)
	for _, v := range values {
		idx := int((v - lo) / width)
		if idx >= bins { // hi itself lands in the last bin
			idx = bins - 1
		}
		counts[idx]++
	}
	labels = make([]string, bins)
	for i := range labels {
		labels[i] = fmt.Sprintf("%.4f", lo+(float64(i)+0.5)*width)
	}
	return labels, counts
}

// histogramBins picks a bin count by the square-root rule, clamped to
// a readable range.
func histogramBins(n int) int {
	bins := int(math.Ceil(math.Sqrt(float64(n))))
	if bins < 5 {
		bins = 5
	}
	if bins > 30 {
		bins = 30
	}
	return bins
}

func writeChart(path string, painter *charts.Painter) error {
	buf, err := painter.Bytes()
	if err != nil {
		return fmt.Errorf("encode chart: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, buf, 0o644)
}
