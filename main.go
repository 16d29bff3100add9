package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"quantfolio/internal/config"
	"quantfolio/internal/db"
	"quantfolio/internal/engine"
	"quantfolio/internal/marketdata"
	"quantfolio/internal/report"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	listRuns := flag.Int("list", 0, "print the N most recent runs and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).Level(level)
	log.Info().Str("version", version).Msg("quantfolio")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	if *listRuns > 0 {
		if err := printRuns(cfg.Output.Database, *listRuns); err != nil {
			log.Fatal().Err(err).Msg("list runs")
		}
		return
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatal().Err(err).Msg("run failed")
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	obs, err := marketdata.Fetch(ctx, cfg.Data)
	if err != nil {
		return fmt.Errorf("fetch prices: %w", err)
	}
	log.Info().Int("observations", len(obs)).Str("source", cfg.Data.Source).Msg("price data loaded")

	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := report.WritePriceCSV(filepath.Join(cfg.Output.Dir, "prices.csv"), obs); err != nil {
		return err
	}

	stats, err := engine.ComputeReturnStatistics(obs)
	if err != nil {
		return fmt.Errorf("compute statistics: %w", err)
	}
	log.Info().
		Strs("assets", stats.Assets).
		Int("periods", stats.Periods).
		Msg("return statistics ready")

	result, err := engine.Optimize(stats, cfg.EngineConfig())
	if err != nil {
		return fmt.Errorf("optimize: %w", err)
	}
	log.Info().
		Str("method", cfg.Optimization.Method).
		Float64("expected_return", result.OptimalRiskyReturn).
		Float64("std", result.OptimalRiskyStd).
		Float64("max_sharpe", result.MaxSharpe).
		Msg("optimal risky portfolio")
	for i, asset := range stats.Assets {
		log.Info().Str("asset", asset).Float64("weight", result.OptimalRiskyWeights[i]).Msg("weight")
	}

	portReturns, err := engine.PortfolioReturns(stats.Returns, result.OptimalRiskyWeights)
	if err != nil {
		return fmt.Errorf("portfolio returns: %w", err)
	}
	confidence := cfg.Optimization.VaRConfidence
	valueAtRisk, err := engine.ValueAtRisk(portReturns, confidence)
	if err != nil {
		return fmt.Errorf("value at risk: %w", err)
	}
	cvar, err := engine.ConditionalValueAtRisk(portReturns, confidence)
	if err != nil {
		return fmt.Errorf("conditional value at risk: %w", err)
	}
	log.Info().
		Float64("confidence", confidence).
		Float64("var", valueAtRisk).
		Float64("cvar", cvar).
		Msg("tail risk")

	if err := report.WriteFrontierCSV(filepath.Join(cfg.Output.Dir, "frontier.csv"), stats.Assets, result); err != nil {
		return err
	}
	if cfg.Output.Charts {
		if err := report.RenderFrontierChart(filepath.Join(cfg.Output.Dir, "frontier.png"), result); err != nil {
			return err
		}
		if err := report.RenderWeightsChart(filepath.Join(cfg.Output.Dir, "weights.png"), stats.Assets, result.OptimalRiskyWeights); err != nil {
			return err
		}
		if err := report.RenderReturnHistogram(filepath.Join(cfg.Output.Dir, "returns.png"), portReturns, valueAtRisk, cvar, confidence); err != nil {
			return err
		}
	}

	if cfg.Output.Database != "" {
		database, err := db.Open(cfg.Output.Database)
		if err != nil {
			return err
		}
		defer database.Close()
		runID, err := database.InsertRun(&db.RunRecord{
			Config:        cfg.EngineConfig(),
			Periods:       stats.Periods,
			Assets:        stats.Assets,
			Result:        result,
			ValueAtRisk:   valueAtRisk,
			CVaR:          cvar,
			VaRConfidence: confidence,
		})
		if err != nil {
			return fmt.Errorf("persist run: %w", err)
		}
		log.Info().Int64("run_id", runID).Msg("run persisted")
	}

	log.Info().Str("dir", cfg.Output.Dir).Msg("done")
	return nil
}

func printRuns(dbPath string, limit int) error {
	if dbPath == "" {
		return fmt.Errorf("output.database is not configured")
	}
	database, err := db.Open(dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	runs, err := database.ListRuns(limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%4d  %s  %-13s  sharpe %8.4f  var %8.4f\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Method, r.MaxSharpe, r.ValueAtRisk)
	}
	return nil
}
