package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// tradingPeriodsPerYear converts annual rates to per-period rates.
	// Applied regardless of the actual observation frequency; weekly or
	// monthly inputs inherit the same constant.
	tradingPeriodsPerYear = 252

	// maxLeverage caps the frontier sweep at 2x the tangency portfolio.
	maxLeverage = 2.0

	// weightSumTolerance bounds |sum(w) - 1| for a valid weight vector.
	weightSumTolerance = 1e-6
)

// PeriodRate converts an annualized rate to a per-period rate assuming
// 252 trading periods per year.
func PeriodRate(annual float64) float64 {
	return math.Pow(1+annual, 1.0/tradingPeriodsPerYear) - 1
}

// Optimize solves for the optimal risky portfolio with the configured
// method and expands it into a discretized leveraged frontier. The
// statistics are only read, never modified.
func Optimize(stats *ReturnStatistics, cfg OptimizeConfig) (*OptimizationResult, error) {
	if cfg.FrontierPoints < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidFrontierResolution, cfg.FrontierPoints)
	}
	if cfg.Tau <= 0 {
		return nil, fmt.Errorf("tau must be > 0, got %v", cfg.Tau)
	}
	switch cfg.Method {
	case MethodRiskAdjusted:
		return optimizeRiskAdjusted(stats, cfg)
	case MethodNearOptimal:
		if cfg.Theta <= 0 || cfg.Theta > 1 {
			return nil, fmt.Errorf("theta must be in (0,1], got %v", cfg.Theta)
		}
		return optimizeNearOptimal(stats, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}
}

// optimizeRiskAdjusted solves the classical tangency problem in closed
// form: w = Σ⁻¹(e − λ1)/(2τ) with λ = (1ᵀΣ⁻¹e − 2τ)/(1ᵀΣ⁻¹1), where e
// is the per-period excess-return vector.
func optimizeRiskAdjusted(stats *ReturnStatistics, cfg OptimizeConfig) (*OptimizationResult, error) {
	n := len(stats.Assets)
	rf := PeriodRate(cfg.RiskFreeAnnual)

	var covInv mat.Dense
	if err := covInv.Inverse(stats.Covariance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}

	ones := onesVec(n)
	excess := mat.NewVecDense(n, nil)
	excess.AddScaledVec(stats.MeanReturns, -rf, ones)

	a := mat.Inner(ones, &covInv, ones)
	b := mat.Inner(ones, &covInv, excess)
	lambda := (b - 2*cfg.Tau) / a

	shifted := mat.NewVecDense(n, nil)
	shifted.AddScaledVec(excess, -lambda, ones)
	weights := mat.NewVecDense(n, nil)
	weights.MulVec(&covInv, shifted)
	weights.ScaleVec(1/(2*cfg.Tau), weights)

	if sum := mat.Sum(weights); math.Abs(sum-1) > weightSumTolerance {
		return nil, fmt.Errorf("%w: sum(w) = %.9f", ErrWeightNormalization, sum)
	}

	return buildResult(stats, weights, rf, cfg.FrontierPoints), nil
}

// optimizeNearOptimal looks for weights close to equal-weighting that
// still retain at least a theta fraction of the classical MVO utility.
// It is a discretized line search over two symmetric blending sweeps,
// not a convex solve; the 101-step grid and keep-best-so-far semantics
// are part of the method's definition and must stay as written. When no
// blend beats the MVO solution's own concentration (theta close to 1),
// the result degenerates to the raw MVO weights, which is expected.
func optimizeNearOptimal(stats *ReturnStatistics, cfg OptimizeConfig) (*OptimizationResult, error) {
	n := len(stats.Assets)
	rf := PeriodRate(cfg.RiskFreeAnnual)

	var covInv mat.Dense
	if err := covInv.Inverse(stats.Covariance); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}

	// Unconstrained MVO direction x ∝ Σ⁻¹μ, normalized so 1ᵀx = 1.
	mvo := mat.NewVecDense(n, nil)
	mvo.MulVec(&covInv, stats.MeanReturns)
	mvo.ScaleVec(1/mat.Sum(mvo), mvo)

	// Ex ante utility of the classical solution: ε = μᵀx − τ/2·xᵀΣx.
	epsilon := utility(stats, mvo, cfg.Tau)

	equal := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		equal.SetVec(i, 1/float64(n))
	}

	best := mat.VecDenseCopyOf(mvo)
	bestConcentration := mat.Dot(mvo, mvo)

	blend := mat.NewVecDense(n, nil)
	consider := func(alphaEq, alphaMvo float64) {
		blend.ScaleVec(alphaEq, equal)
		blend.AddScaledVec(blend, alphaMvo, mvo)
		if utility(stats, blend, cfg.Tau) < cfg.Theta*epsilon {
			return
		}
		if math.Abs(mat.Sum(blend)-1) >= weightSumTolerance {
			return
		}
		if c := mat.Dot(blend, blend); c < bestConcentration {
			bestConcentration = c
			best.CopyVec(blend)
		}
	}

	// Sweep A: from equal weighting toward the MVO direction.
	for i := 0; i <= 100; i++ {
		alpha := float64(i) / 100
		consider(1-alpha, alpha)
	}
	// Sweep B: the mirrored blend, walked from the MVO end.
	for i := 0; i <= 100; i++ {
		alpha := float64(i) / 100
		consider(alpha, 1-alpha)
	}

	return buildResult(stats, best, rf, cfg.FrontierPoints), nil
}

// buildResult derives the tangency stats for the chosen weights and
// attaches the leverage-swept frontier.
func buildResult(stats *ReturnStatistics, weights *mat.VecDense, rf float64, points int) *OptimizationResult {
	ret := mat.Dot(stats.MeanReturns, weights)
	std := math.Sqrt(mat.Inner(weights, stats.Covariance, weights))
	sharpe := (ret - rf) / std

	w := make([]float64, weights.Len())
	for i := range w {
		w[i] = weights.AtVec(i)
	}

	return &OptimizationResult{
		Frontier:            expandFrontier(w, ret, std, rf, points),
		OptimalRiskyWeights: w,
		OptimalRiskyReturn:  ret,
		OptimalRiskyStd:     std,
		MaxSharpe:           sharpe,
	}
}

// expandFrontier sweeps leverage linearly from 0 to maxLeverage in
// points equal steps, mixing the risk-free asset with the risky
// portfolio. Leverage 0 is all risk-free: zero std, zero Sharpe.
func expandFrontier(weights []float64, riskyReturn, riskyStd, rf float64, points int) []FrontierPoint {
	step := maxLeverage / float64(points-1)
	frontier := make([]FrontierPoint, 0, points)
	for i := 0; i < points; i++ {
		leverage := float64(i) * step
		scaled := make([]float64, len(weights))
		for j, w := range weights {
			scaled[j] = leverage * w
		}
		expRet := rf + leverage*(riskyReturn-rf)
		std := leverage * riskyStd
		sharpe := 0.0
		if leverage > 0 {
			sharpe = (expRet - rf) / std
		}
		frontier = append(frontier, FrontierPoint{
			RiskFreeWeight: 1 - leverage,
			RiskyWeights:   scaled,
			ExpectedReturn: expRet,
			PortfolioStd:   std,
			SharpeRatio:    sharpe,
		})
	}
	return frontier
}

// utility evaluates the mean-variance objective μᵀw − τ/2·wᵀΣw.
func utility(stats *ReturnStatistics, w *mat.VecDense, tau float64) float64 {
	return mat.Dot(stats.MeanReturns, w) - 0.5*tau*mat.Inner(w, stats.Covariance, w)
}

func onesVec(n int) *mat.VecDense {
	v := mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		v.SetVec(i, 1)
	}
	return v
}
