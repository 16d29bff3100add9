package engine

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestValueAtRisk(t *testing.T) {
	// Canonical example: T=5, confidence 0.80 -> idx = ceil(0.2*5) = 1,
	// so VaR is the second-worst observation.
	returns := []float64{-0.05, -0.02, 0.01, 0.03, 0.04}

	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		want       float64
	}{
		{"five at 80", returns, 0.80, -0.02},
		{"five at 95", returns, 0.95, -0.02}, // ceil(0.05*5) = 1 as well
		{"unsorted input", []float64{0.04, -0.05, 0.03, -0.02, 0.01}, 0.80, -0.02},
		{"index past end returns worst", returns, 0.0, 0.04}, // idx = 5 >= T
		{"single observation", []float64{-0.10}, 0.95, -0.10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValueAtRisk(tt.returns, tt.confidence)
			if err != nil {
				t.Fatalf("ValueAtRisk: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ValueAtRisk(%v, %v) = %v, want %v", tt.returns, tt.confidence, got, tt.want)
			}
		})
	}
}

func TestConditionalValueAtRisk(t *testing.T) {
	returns := []float64{-0.05, -0.02, 0.01, 0.03, 0.04}

	tests := []struct {
		name       string
		returns    []float64
		confidence float64
		want       float64
	}{
		{"five at 80", returns, 0.80, -0.05}, // mean of the single worst
		{"tail of two", []float64{-0.10, -0.04, 0.00, 0.02, 0.03, 0.05, 0.06, 0.07, 0.08, 0.09}, 0.80, -0.07}, // idx=2, mean(-0.10,-0.04)
		{"index past end returns worst", returns, 0.0, 0.04},
		{"single observation", []float64{-0.10}, 0.95, -0.10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConditionalValueAtRisk(tt.returns, tt.confidence)
			if err != nil {
				t.Fatalf("ConditionalValueAtRisk: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("ConditionalValueAtRisk(%v, %v) = %v, want %v", tt.returns, tt.confidence, got, tt.want)
			}
		})
	}
}

func TestRisk_EmptyReturns(t *testing.T) {
	if _, err := ValueAtRisk(nil, 0.95); !errors.Is(err, ErrEmptyReturns) {
		t.Errorf("ValueAtRisk(nil) err = %v, want %v", err, ErrEmptyReturns)
	}
	if _, err := ConditionalValueAtRisk(nil, 0.95); !errors.Is(err, ErrEmptyReturns) {
		t.Errorf("ConditionalValueAtRisk(nil) err = %v, want %v", err, ErrEmptyReturns)
	}
}

func TestRisk_CVaRNeverExceedsVaR(t *testing.T) {
	returns := []float64{-0.08, -0.03, -0.01, 0.00, 0.01, 0.02, 0.02, 0.04, 0.05, 0.07}
	for _, conf := range []float64{0.80, 0.90, 0.95, 0.99} {
		v, err := ValueAtRisk(returns, conf)
		if err != nil {
			t.Fatalf("ValueAtRisk(%v): %v", conf, err)
		}
		c, err := ConditionalValueAtRisk(returns, conf)
		if err != nil {
			t.Fatalf("ConditionalValueAtRisk(%v): %v", conf, err)
		}
		if c > v {
			t.Errorf("confidence %v: CVaR %v > VaR %v", conf, c, v)
		}
	}
}

func TestRisk_InputNotMutated(t *testing.T) {
	returns := []float64{0.04, -0.05, 0.03, -0.02, 0.01}
	want := []float64{0.04, -0.05, 0.03, -0.02, 0.01}
	if _, err := ValueAtRisk(returns, 0.95); err != nil {
		t.Fatalf("ValueAtRisk: %v", err)
	}
	for i := range returns {
		if returns[i] != want[i] {
			t.Fatalf("input slice reordered: %v", returns)
		}
	}
}

func TestPortfolioReturns(t *testing.T) {
	// 2 assets x 3 periods, weights [0.25 0.75].
	returns := mat.NewDense(2, 3, []float64{
		0.10, 0.00, 0.02,
		0.00, 0.05, 0.01,
	})
	got, err := PortfolioReturns(returns, []float64{0.25, 0.75})
	if err != nil {
		t.Fatalf("PortfolioReturns: %v", err)
	}
	want := []float64{0.025, 0.0375, 0.0125}
	if len(got) != len(want) {
		t.Fatalf("got %d periods, want %d", len(got), len(want))
	}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("period %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestPortfolioReturns_DimensionMismatch(t *testing.T) {
	returns := mat.NewDense(2, 3, nil)
	if _, err := PortfolioReturns(returns, []float64{1}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("err = %v, want %v", err, ErrDimensionMismatch)
	}
}
