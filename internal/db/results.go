package db

import (
	"fmt"
	"time"

	"quantfolio/internal/engine"
)

// RunRecord is a persisted optimization run: the parameters, the
// tangency summary, the tail-risk figures and the full frontier.
type RunRecord struct {
	ID        int64
	CreatedAt time.Time

	Config  engine.OptimizeConfig
	Periods int
	Assets  []string

	Result *engine.OptimizationResult

	ValueAtRisk   float64
	CVaR          float64
	VaRConfidence float64
}

// InsertRun persists a completed run and returns its ID. The run row,
// per-asset weights and frontier points commit in a single transaction.
func (d *DB) InsertRun(rec *RunRecord) (int64, error) {
	tx, err := d.sql.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`INSERT INTO runs (
		created_at, method, tau, theta, risk_free_rate, frontier_points, periods,
		optimal_return, optimal_std, max_sharpe,
		value_at_risk, cvar, var_confidence
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		time.Now().UTC().Format(time.RFC3339),
		string(rec.Config.Method), rec.Config.Tau, rec.Config.Theta,
		rec.Config.RiskFreeAnnual, rec.Config.FrontierPoints, rec.Periods,
		rec.Result.OptimalRiskyReturn, rec.Result.OptimalRiskyStd, rec.Result.MaxSharpe,
		rec.ValueAtRisk, rec.CVaR, rec.VaRConfidence,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	wstmt, err := tx.Prepare(`INSERT INTO run_weights (run_id, asset, weight) VALUES (?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare weights: %w", err)
	}
	defer wstmt.Close()
	for i, asset := range rec.Assets {
		if _, err := wstmt.Exec(runID, asset, rec.Result.OptimalRiskyWeights[i]); err != nil {
			return 0, fmt.Errorf("insert weight %s: %w", asset, err)
		}
	}

	fstmt, err := tx.Prepare(`INSERT INTO run_frontier (
		run_id, point_index, risk_free_weight, expected_return, portfolio_std, sharpe_ratio
	) VALUES (?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare frontier: %w", err)
	}
	defer fstmt.Close()
	for i, p := range rec.Result.Frontier {
		if _, err := fstmt.Exec(runID, i, p.RiskFreeWeight, p.ExpectedReturn, p.PortfolioStd, p.SharpeRatio); err != nil {
			return 0, fmt.Errorf("insert frontier point %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}

// GetRun loads a persisted run. Frontier risky weights are rebuilt from
// the stored tangency weights and each point's leverage.
func (d *DB) GetRun(id int64) (*RunRecord, error) {
	rec := &RunRecord{ID: id, Result: &engine.OptimizationResult{}}
	var created, method string
	err := d.sql.QueryRow(`SELECT
		created_at, method, tau, theta, risk_free_rate, frontier_points, periods,
		optimal_return, optimal_std, max_sharpe,
		value_at_risk, cvar, var_confidence
	FROM runs WHERE id = ?`, id).Scan(
		&created, &method, &rec.Config.Tau, &rec.Config.Theta,
		&rec.Config.RiskFreeAnnual, &rec.Config.FrontierPoints, &rec.Periods,
		&rec.Result.OptimalRiskyReturn, &rec.Result.OptimalRiskyStd, &rec.Result.MaxSharpe,
		&rec.ValueAtRisk, &rec.CVaR, &rec.VaRConfidence,
	)
	if err != nil {
		return nil, fmt.Errorf("load run %d: %w", id, err)
	}
	rec.Config.Method = engine.Method(method)
	if rec.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
		return nil, fmt.Errorf("run %d: bad created_at %q: %w", id, created, err)
	}

	rows, err := d.sql.Query(`SELECT asset, weight FROM run_weights WHERE run_id = ? ORDER BY asset`, id)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var asset string
		var weight float64
		if err := rows.Scan(&asset, &weight); err != nil {
			return nil, err
		}
		rec.Assets = append(rec.Assets, asset)
		rec.Result.OptimalRiskyWeights = append(rec.Result.OptimalRiskyWeights, weight)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	frows, err := d.sql.Query(`SELECT risk_free_weight, expected_return, portfolio_std, sharpe_ratio
		FROM run_frontier WHERE run_id = ? ORDER BY point_index`, id)
	if err != nil {
		return nil, fmt.Errorf("load frontier: %w", err)
	}
	defer frows.Close()
	for frows.Next() {
		var p engine.FrontierPoint
		if err := frows.Scan(&p.RiskFreeWeight, &p.ExpectedReturn, &p.PortfolioStd, &p.SharpeRatio); err != nil {
			return nil, err
		}
		leverage := 1 - p.RiskFreeWeight
		p.RiskyWeights = make([]float64, len(rec.Result.OptimalRiskyWeights))
		for i, w := range rec.Result.OptimalRiskyWeights {
			p.RiskyWeights[i] = leverage * w
		}
		rec.Result.Frontier = append(rec.Result.Frontier, p)
	}
	return rec, frows.Err()
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID          int64
	CreatedAt   time.Time
	Method      string
	MaxSharpe   float64
	ValueAtRisk float64
}

// ListRuns returns the most recent runs, newest first.
func (d *DB) ListRuns(limit int) ([]RunSummary, error) {
	rows, err := d.sql.Query(`SELECT id, created_at, method, max_sharpe, value_at_risk
		FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var s RunSummary
		var created string
		if err := rows.Scan(&s.ID, &created, &s.Method, &s.MaxSharpe, &s.ValueAtRisk); err != nil {
			return nil, err
		}
		if s.CreatedAt, err = time.Parse(time.RFC3339, created); err != nil {
			return nil, fmt.Errorf("run %d: bad created_at %q: %w", s.ID, created, err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
