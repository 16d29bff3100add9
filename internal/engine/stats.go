package engine

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ComputeReturnStatistics converts raw price observations into per-asset
// simple returns, a mean-return vector and a sample covariance matrix.
//
// Assets with partial history are truncated to the shortest series
// rather than excluded. The cut is by observation count, not by calendar
// date, so assets with gaps can end up misaligned across periods; this
// is a known, intentional simplification.
func ComputeReturnStatistics(obs []PriceObservation) (*ReturnStatistics, error) {
	byAsset := make(map[string][]PriceObservation)
	for _, o := range obs {
		byAsset[o.Asset] = append(byAsset[o.Asset], o)
	}
	if len(byAsset) == 0 {
		return nil, ErrInsufficientAssets
	}

	// Lexicographic asset order keeps runs reproducible; it defines the
	// index order of every vector and matrix below.
	assets := make([]string, 0, len(byAsset))
	for a := range byAsset {
		assets = append(assets, a)
	}
	sort.Strings(assets)

	// Chronological order is required before differencing even though
	// the input bag itself is unordered.
	minLen := 0
	for i, a := range assets {
		series := byAsset[a]
		sort.Slice(series, func(x, y int) bool { return series[x].Date.Before(series[y].Date) })
		if i == 0 || len(series) < minLen {
			minLen = len(series)
		}
	}
	if minLen < 2 {
		return nil, fmt.Errorf("%w: shortest asset history has %d observations", ErrInsufficientHistory, minLen)
	}

	n := len(assets)
	periods := minLen - 1
	if periods < 2 {
		return nil, fmt.Errorf("%w: only %d return periods after truncation", ErrInsufficientHistory, periods)
	}

	returns := mat.NewDense(n, periods, nil)
	for i, a := range assets {
		series := byAsset[a][:minLen]
		for t := 0; t < periods; t++ {
			returns.Set(i, t, (series[t+1].Price-series[t].Price)/series[t].Price)
		}
	}

	means := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		means.SetVec(i, stat.Mean(returns.RawRowView(i), nil))
	}

	// Sample covariance with Bessel's correction. CovarianceMatrix wants
	// observations in rows, so it gets the transposed returns matrix.
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, returns.T(), nil)

	return &ReturnStatistics{
		Assets:      assets,
		MeanReturns: means,
		Covariance:  cov,
		Returns:     returns,
		Periods:     periods,
	}, nil
}
