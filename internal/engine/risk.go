package engine

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// PortfolioReturns computes the per-period portfolio return series as
// the weighted sum of asset returns for each period.
func PortfolioReturns(returns *mat.Dense, weights []float64) ([]float64, error) {
	n, periods := returns.Dims()
	if len(weights) != n {
		return nil, fmt.Errorf("%w: %d weights for %d assets", ErrDimensionMismatch, len(weights), n)
	}
	w := mat.NewVecDense(n, weights)
	out := mat.NewVecDense(periods, nil)
	out.MulVec(returns.T(), w)

	series := make([]float64, periods)
	for t := 0; t < periods; t++ {
		series[t] = out.AtVec(t)
	}
	return series, nil
}

// ValueAtRisk returns the empirical left-tail quantile of the return
// series at the given confidence level. The quantile is the idx-th
// smallest observation with idx = ceil((1-confidence)·T), never
// interpolated; when idx runs past the end the worst value is returned.
func ValueAtRisk(returns []float64, confidence float64) (float64, error) {
	sorted, idx, err := sortedTail(returns, confidence)
	if err != nil {
		return 0, err
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[idx], nil
}

// ConditionalValueAtRisk returns the mean of the worst idx observations,
// the average loss beyond the VaR boundary. Same idx as ValueAtRisk;
// when it runs past the end the worst value is returned.
func ConditionalValueAtRisk(returns []float64, confidence float64) (float64, error) {
	sorted, idx, err := sortedTail(returns, confidence)
	if err != nil {
		return 0, err
	}
	if idx >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	tail := sorted[:idx]
	sum := 0.0
	for _, r := range tail {
		sum += r
	}
	return sum / float64(len(tail)), nil
}

func sortedTail(returns []float64, confidence float64) ([]float64, int, error) {
	if len(returns) == 0 {
		return nil, 0, ErrEmptyReturns
	}
	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)
	idx := int(math.Ceil((1 - confidence) * float64(len(sorted))))
	return sorted, idx, nil
}
