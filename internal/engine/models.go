package engine

import (
	"time"

	"gonum.org/v1/gonum/mat"
)

// PriceObservation is a single close price for one asset on one date.
// Observations arrive as an unordered bag; the estimator groups and
// sorts them before differencing.
type PriceObservation struct {
	Date  time.Time `json:"date"`
	Asset string    `json:"asset"`
	Price float64   `json:"price"`
}

// ReturnStatistics holds the return statistics derived from price
// history. All fields share the same asset ordering and the same number
// of periods; nothing mutates them after construction, so a single
// instance is safe to share across concurrent optimization runs.
type ReturnStatistics struct {
	// Assets defines the index order of every vector and matrix below.
	Assets []string
	// MeanReturns is the length-n vector of mean simple returns per period.
	MeanReturns *mat.VecDense
	// Covariance is the n×n sample covariance matrix (T-1 denominator).
	Covariance *mat.SymDense
	// Returns is the n×T matrix of per-period simple returns.
	Returns *mat.Dense
	// Periods is T, the common number of return periods across assets.
	Periods int
}

// Method selects the optimization procedure.
type Method string

const (
	// MethodRiskAdjusted solves the risk-aversion-parameterized tangency
	// problem in closed form.
	MethodRiskAdjusted Method = "risk-adjusted"
	// MethodNearOptimal minimizes weight concentration while retaining a
	// preset fraction of the classical MVO utility.
	MethodNearOptimal Method = "near-optimal"
)

// OptimizeConfig carries every parameter of a run. Nothing is read from
// ambient state; two runs with equal config and statistics produce
// identical results.
type OptimizeConfig struct {
	Method Method `json:"method"`
	// Tau is the risk-aversion coefficient, > 0.
	Tau float64 `json:"tau"`
	// Theta is the utility retention fraction in (0,1]; near-optimal only.
	Theta float64 `json:"theta"`
	// RiskFreeAnnual is the annualized risk-free rate.
	RiskFreeAnnual float64 `json:"risk_free_annual"`
	// FrontierPoints is the number of leverage steps to discretize, >= 2.
	FrontierPoints int `json:"frontier_points"`
}

// FrontierPoint is one leverage level on the capital allocation line.
type FrontierPoint struct {
	RiskFreeWeight float64   `json:"risk_free_weight"`
	RiskyWeights   []float64 `json:"risky_weights"`
	ExpectedReturn float64   `json:"expected_return"`
	PortfolioStd   float64   `json:"portfolio_std"`
	SharpeRatio    float64   `json:"sharpe_ratio"`
}

// OptimizationResult is the full output of one optimization run: the
// tangency portfolio plus its discretized leveraged frontier.
type OptimizationResult struct {
	Frontier            []FrontierPoint `json:"frontier"`
	OptimalRiskyWeights []float64       `json:"optimal_risky_weights"`
	OptimalRiskyReturn  float64         `json:"optimal_risky_return"`
	OptimalRiskyStd     float64         `json:"optimal_risky_std"`
	MaxSharpe           float64         `json:"max_sharpe"`
}
