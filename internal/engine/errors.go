package engine

import "errors"

// Sentinel errors for every failure mode of the pipeline. Callers match
// with errors.Is; the wrapping sites attach the offending values.
var (
	// ErrInsufficientAssets: the observation set names no assets at all.
	ErrInsufficientAssets = errors.New("no assets found in price data")

	// ErrInsufficientHistory: after truncation to the shortest series
	// there are fewer than two return periods.
	ErrInsufficientHistory = errors.New("not enough observations to compute returns")

	// ErrSingularCovariance: the sample covariance matrix cannot be
	// inverted, typically from perfectly correlated or constant series.
	ErrSingularCovariance = errors.New("covariance matrix is not invertible")

	// ErrWeightNormalization: the closed-form solution failed its
	// sum-to-one check, which indicates numerically hostile inputs.
	ErrWeightNormalization = errors.New("optimal risky weights do not sum to 1")

	// ErrDimensionMismatch: a weight vector does not match the asset
	// count of the statistics it is applied to.
	ErrDimensionMismatch = errors.New("weights length does not match asset count")

	// ErrInvalidFrontierResolution: the frontier needs at least two
	// leverage steps to be a line.
	ErrInvalidFrontierResolution = errors.New("frontier requires at least 2 points")

	// ErrEmptyReturns: a tail-risk metric was asked for an empty series.
	ErrEmptyReturns = errors.New("empty return series")

	// ErrUnknownMethod: the configured optimization method does not
	// exist. Misconfigured runs fail instead of silently picking a
	// default.
	ErrUnknownMethod = errors.New("unknown optimization method")
)
