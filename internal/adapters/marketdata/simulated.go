// Package marketdata provides market data source adapters. The simulated
// feed produces a deterministic random walk for paper trading and demos
// without a broker connection.
package marketdata

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"forexscalper/internal/domain"
	"forexscalper/internal/ports"
)

// SimulatedFeed implements ports.MarketDataSource with a seeded random walk.
// All prices are derived from the seed, so two feeds constructed with the
// same configuration produce identical streams.
type SimulatedFeed struct {
	cfg Config
	mu  sync.Mutex
	rng *rand.Rand
	// last mid price per pair, carried across ticks
	last map[string]float64
}

// Config holds configuration for the simulated feed.
type Config struct {
	Seed         int64         // RNG seed; 0 falls back to 1
	BasePrice    float64       // Starting mid price (default 1.1000)
	MaxTickMove  float64       // Largest per-tick mid move (default 0.0004)
	Spread       float64       // Fixed bid/ask spread (default 0.0002)
	TickInterval time.Duration // Interval between live quotes (default 1s)
	Logger       ports.Logger
}

// NewSimulatedFeed creates a simulated market data source.
func NewSimulatedFeed(cfg Config) (*SimulatedFeed, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for simulated feed")
	}
	if cfg.Seed == 0 {
		cfg.Seed = 1
	}
	if cfg.BasePrice <= 0 {
		cfg.BasePrice = 1.1000
	}
	if cfg.MaxTickMove <= 0 {
		cfg.MaxTickMove = 0.0004
	}
	if cfg.Spread <= 0 {
		cfg.Spread = 0.0002
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	return &SimulatedFeed{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)),
		last: make(map[string]float64),
	}, nil
}

// Subscribe returns a channel of live quotes for the pair. Quotes follow a
// bounded random walk around the base price. The channel is closed when ctx
// is cancelled.
func (f *SimulatedFeed) Subscribe(ctx context.Context, pair string) (<-chan domain.PriceQuote, error) {
	if pair == "" {
		return nil, fmt.Errorf("pair is required: %w", ports.ErrConfigurationError)
	}
	out := make(chan domain.PriceQuote)

	go func() {
		defer close(out)
		ticker := time.NewTicker(f.cfg.TickInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				f.cfg.Logger.Debug(ctx, "Quote subscription closed", map[string]interface{}{"pair": pair})
				return
			case <-ticker.C:
				quote := f.nextQuote(pair, time.Now().UTC())
				select {
				case out <- quote:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	f.cfg.Logger.Info(ctx, "Subscribed to simulated quotes", map[string]interface{}{
		"pair": pair, "seed": f.cfg.Seed, "interval": f.cfg.TickInterval.String(),
	})
	return out, nil
}

// FetchHistory generates hourly candles covering [from, to], ordered by
// timestamp ascending. Each candle is built from simulated intra-hour ticks
// so open/high/low/close are internally consistent.
func (f *SimulatedFeed) FetchHistory(ctx context.Context, pair string, from, to time.Time) ([]domain.Candle, error) {
	if pair == "" {
		return nil, fmt.Errorf("pair is required: %w", ports.ErrConfigurationError)
	}
	if to.Before(from) {
		return nil, fmt.Errorf("invalid history range: from %s is after to %s", from, to)
	}

	start := from.Truncate(time.Hour)
	candles := make([]domain.Candle, 0, int(to.Sub(start)/time.Hour)+1)

	for ts := start; !ts.After(to); ts = ts.Add(time.Hour) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		open := f.lastMid(pair)
		high, low, closePrice := open, open, open
		// 12 ticks per hour is enough to give the bar some range.
		for i := 0; i < 12; i++ {
			closePrice = f.walk(pair)
			if closePrice > high {
				high = closePrice
			}
			if closePrice < low {
				low = closePrice
			}
		}

		candles = append(candles, domain.Candle{
			Timestamp: ts,
			Pair:      pair,
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    float64(100 + f.intn(900)),
		})
	}

	f.cfg.Logger.Debug(ctx, "Generated simulated history", map[string]interface{}{
		"pair": pair, "candles": len(candles),
	})
	return candles, nil
}

func (f *SimulatedFeed) nextQuote(pair string, ts time.Time) domain.PriceQuote {
	mid := f.walk(pair)
	half := f.cfg.Spread / 2
	return domain.PriceQuote{
		Pair:      pair,
		Bid:       mid - half,
		Ask:       mid + half,
		Timestamp: ts,
	}
}

// walk advances the pair's mid price by one random step.
func (f *SimulatedFeed) walk(pair string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()

	mid, ok := f.last[pair]
	if !ok {
		mid = f.cfg.BasePrice
	}
	mid += (f.rng.Float64()*2 - 1) * f.cfg.MaxTickMove

	// Keep the walk within a plausible band around the base price.
	lower, upper := f.cfg.BasePrice*0.98, f.cfg.BasePrice*1.02
	if mid < lower {
		mid = lower
	}
	if mid > upper {
		mid = upper
	}
	f.last[pair] = mid
	return mid
}

func (f *SimulatedFeed) lastMid(pair string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if mid, ok := f.last[pair]; ok {
		return mid
	}
	return f.cfg.BasePrice
}

func (f *SimulatedFeed) intn(n int) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Intn(n)
}
