// Package optimization sweeps strategy parameter grids, running a backtest
// per combination and ranking the outcomes.
package optimization

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"forexscalper/internal/domain"
	"forexscalper/internal/ports"
	"forexscalper/internal/strategy"
	"forexscalper/internal/strategy/backtesting"
)

// Parameter names accepted in a ParameterRange.
const (
	ParamEMAFast          = "ema_fast"
	ParamEMASlow          = "ema_slow"
	ParamRSIPeriod        = "rsi_period"
	ParamRSIOverbought    = "rsi_overbought"
	ParamRSIOversold      = "rsi_oversold"
	ParamProfitTargetPips = "profit_target_pips"
	ParamStopLossPips     = "stop_loss_pips"
)

// ParameterRange defines a sweep over a single strategy parameter.
type ParameterRange struct {
	Name  string
	Min   float64
	Max   float64
	Step  float64
	IsInt bool
}

// Result pairs one parameter combination with its backtest outcome.
type Result struct {
	Parameters map[string]float64
	Backtest   *backtesting.Result
	Score      float64
}

// Config holds configuration for the optimizer.
type Config struct {
	Base            strategy.Config // Starting point; swept parameters override its fields
	Ranges          []ParameterRange
	StartingBalance float64
	ScoreFunction   func(*backtesting.Result) float64
	Logger          ports.Logger
}

// Optimizer runs a grid search over strategy parameters.
type Optimizer struct {
	cfg Config
}

// NewOptimizer creates a new optimizer instance.
func NewOptimizer(cfg Config) (*Optimizer, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for optimizer")
	}
	if len(cfg.Ranges) == 0 {
		return nil, fmt.Errorf("at least one parameter range is required")
	}
	if cfg.ScoreFunction == nil {
		cfg.ScoreFunction = DefaultScoreFunction
	}
	return &Optimizer{cfg: cfg}, nil
}

// Optimize backtests every parameter combination against the candle series
// and returns the results sorted by score, best first. Combinations whose
// configuration is invalid (e.g. a fast EMA sweep crossing the slow period)
// are skipped.
func (o *Optimizer) Optimize(ctx context.Context, candles []domain.Candle) ([]Result, error) {
	combinations := o.generateCombinations()
	resultChan := make(chan Result, len(combinations))
	var wg sync.WaitGroup

	for _, params := range combinations {
		wg.Add(1)
		go func(params map[string]float64) {
			defer wg.Done()

			cfg := applyParams(o.cfg.Base, params)
			if err := cfg.Validate(); err != nil {
				o.cfg.Logger.Debug(ctx, "Skipping invalid parameter combination", map[string]interface{}{
					"params": fmt.Sprintf("%v", params),
				})
				return
			}

			result, err := backtesting.Run(ctx, backtesting.Config{
				Strategy:        cfg,
				StartingBalance: o.cfg.StartingBalance,
			}, candles, o.cfg.Logger)
			if err != nil {
				o.cfg.Logger.Error(ctx, err, "Backtest failed during optimization")
				return
			}

			resultChan <- Result{
				Parameters: params,
				Backtest:   result,
				Score:      o.cfg.ScoreFunction(result),
			}
		}(params)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]Result, 0, len(combinations))
	for result := range resultChan {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results, nil
}

// generateCombinations expands the parameter ranges into the full grid.
func (o *Optimizer) generateCombinations() []map[string]float64 {
	var combinations []map[string]float64
	current := make(map[string]float64)

	var generate func(int)
	generate = func(idx int) {
		if idx == len(o.cfg.Ranges) {
			combination := make(map[string]float64, len(current))
			for k, v := range current {
				combination[k] = v
			}
			combinations = append(combinations, combination)
			return
		}

		param := o.cfg.Ranges[idx]
		// Half a step of slack guards against float accumulation error.
		for value := param.Min; value <= param.Max+param.Step/2; value += param.Step {
			v := value
			if param.IsInt {
				v = math.Round(v)
			}
			current[param.Name] = v
			generate(idx + 1)
		}
	}

	generate(0)
	return combinations
}

// applyParams overlays swept parameter values onto a base configuration.
func applyParams(base strategy.Config, params map[string]float64) strategy.Config {
	cfg := base
	for name, value := range params {
		switch name {
		case ParamEMAFast:
			cfg.EMAFastPeriod = int(value)
		case ParamEMASlow:
			cfg.EMASlowPeriod = int(value)
		case ParamRSIPeriod:
			cfg.RSIPeriod = int(value)
		case ParamRSIOverbought:
			cfg.RSIOverbought = value
		case ParamRSIOversold:
			cfg.RSIOversold = value
		case ParamProfitTargetPips:
			cfg.ProfitTargetPips = value
		case ParamStopLossPips:
			cfg.StopLossPips = value
		}
	}
	return cfg
}

// DefaultScoreFunction weighs return, consistency and drawdown into a
// single ranking value.
func DefaultScoreFunction(r *backtesting.Result) float64 {
	score := r.NetReturnPercent
	score += r.WinRate * 10
	score += r.ProfitFactor
	if r.MaxEquity > 0 {
		score -= r.MaxDrawdown / r.MaxEquity * 100
	}
	return score
}
