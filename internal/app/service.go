// Package app wires the market data feed, signal generator, risk manager
// and trade journal into the live paper-trading session.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"

	"forexscalper/config"
	"forexscalper/internal/domain"
	"forexscalper/internal/ports"
	"forexscalper/internal/risk"
	"forexscalper/internal/strategy"
	"forexscalper/internal/strategy/indicators"
)

// historyHours is how much candle history is loaded to warm the indicators
// before live evaluation starts.
const historyHours = 48

// TradingService orchestrates the live paper-trading session.
type TradingService struct {
	cfg     *config.Config
	logger  ports.Logger
	source  ports.MarketDataSource
	journal ports.TradeRepository
	gen     *strategy.Generator
	riskMgr *risk.Manager

	// State fields, guarded by mu.
	mu          sync.Mutex
	latestQuote *domain.PriceQuote
	emaCalc     *indicators.EMACalculator
	rsiCalc     *indicators.RSICalculator
	priceWindow []float64 // recent mid prices for breakout levels
	pending     map[uuid.UUID]*domain.Trade
	tradesToday int
	currentDay  string
	balance     float64
}

// NewTradingService creates a new application service instance.
func NewTradingService(
	cfg *config.Config,
	logger ports.Logger,
	source ports.MarketDataSource,
	journal ports.TradeRepository,
) (*TradingService, error) {
	if cfg == nil || logger == nil || source == nil || journal == nil {
		return nil, fmt.Errorf("missing required dependencies for TradingService")
	}

	stratCfg := strategy.Config{
		Pair:                cfg.Pair,
		Strategy:            cfg.ActiveStrategy,
		MaxTradesPerDay:     cfg.MaxTradesPerDay,
		EMAFastPeriod:       cfg.EMAFastPeriod,
		EMASlowPeriod:       cfg.EMASlowPeriod,
		RSIPeriod:           cfg.RSIPeriod,
		RSIOverbought:       cfg.RSIOverbought,
		RSIOversold:         cfg.RSIOversold,
		BreakoutLookback:    cfg.BreakoutLookback,
		ProfitTargetPips:    cfg.ProfitTargetPips,
		StopLossPips:        cfg.StopLossPips,
		RiskPerTradePercent: cfg.RiskPerTradePercent,
	}
	gen, err := strategy.NewGenerator(stratCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create signal generator: %w", err)
	}

	return &TradingService{
		cfg:     cfg,
		logger:  logger,
		source:  source,
		journal: journal,
		gen:     gen,
		riskMgr: risk.NewManager(risk.Config{
			RiskPerTradePercent: cfg.RiskPerTradePercent,
			ProfitTargetPips:    cfg.ProfitTargetPips,
			StopLossPips:        cfg.StopLossPips,
			MaxTradesPerDay:     cfg.MaxTradesPerDay,
		}),
		emaCalc: indicators.NewEMACalculator(),
		rsiCalc: indicators.NewRSICalculator(),
		pending: make(map[uuid.UUID]*domain.Trade),
		balance: cfg.StartingBalance,
	}, nil
}

// Start begins the trading session. It blocks until ctx is cancelled or a
// shutdown signal is received.
func (s *TradingService) Start(ctx context.Context) error {
	s.logger.Info(ctx, "Starting trading service", map[string]interface{}{
		"pair": s.cfg.Pair, "strategy": string(s.cfg.ActiveStrategy),
	})

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Handle graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			s.logger.Info(ctx, "Received shutdown signal", map[string]interface{}{"signal": sig.String()})
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := s.initialize(ctx); err != nil {
		return err
	}

	quotes, err := s.source.Subscribe(ctx, s.cfg.Pair)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to subscribe to quotes")
		return fmt.Errorf("failed to subscribe to quotes: %w", err)
	}
	s.logger.Info(ctx, "Quote subscription established")

	// Quote reader keeps the latest tick available to the poll loop.
	quotesDone := make(chan struct{})
	go func() {
		defer close(quotesDone)
		for quote := range quotes {
			s.mu.Lock()
			q := quote
			s.latestQuote = &q
			s.mu.Unlock()
		}
	}()

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info(ctx, "Shutting down trading service")
			s.CancelAllPending(context.Background())
			<-quotesDone
			s.logger.Info(ctx, "Trading service stopped")
			return nil
		case <-quotesDone:
			err := fmt.Errorf("quote stream closed unexpectedly")
			s.logger.Error(ctx, err, "Market data feed lost")
			s.CancelAllPending(context.Background())
			return err
		case <-ticker.C:
			s.onTick(ctx)
		}
	}
}

// initialize warms the indicators from candle history and restores the
// day's trade count and realized balance from the journal.
func (s *TradingService) initialize(ctx context.Context) error {
	now := time.Now().UTC()
	candles, err := s.source.FetchHistory(ctx, s.cfg.Pair, now.Add(-historyHours*time.Hour), now)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load candle history")
		return fmt.Errorf("failed to load candle history: %w", err)
	}

	s.mu.Lock()
	for _, c := range candles {
		s.observePrice(c.Close)
	}
	s.currentDay = now.Format("2006-01-02")
	s.mu.Unlock()
	s.logger.Info(ctx, "Indicators warmed from history", map[string]interface{}{"candles": len(candles)})

	tradesToday, err := s.journal.CountTradesToday(ctx, s.cfg.Pair)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to count today's trades")
		return fmt.Errorf("failed to count today's trades: %w", err)
	}
	realized, err := s.journal.TotalRealizedPnL(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "Failed to load realized pnl")
		return fmt.Errorf("failed to load realized pnl: %w", err)
	}

	s.mu.Lock()
	s.tradesToday = tradesToday
	s.balance = s.cfg.StartingBalance + realized
	s.mu.Unlock()
	s.logger.Info(ctx, "Session state restored", map[string]interface{}{
		"tradesToday": tradesToday, "balance": s.cfg.StartingBalance + realized,
	})
	return nil
}

// onTick runs one strategy evaluation against the latest quote.
func (s *TradingService) onTick(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.latestQuote == nil {
		s.logger.Debug(ctx, "No quote received yet, skipping evaluation")
		return
	}
	quote := *s.latestQuote
	mid := (quote.Bid + quote.Ask) / 2

	if day := quote.Timestamp.UTC().Format("2006-01-02"); day != s.currentDay {
		s.currentDay = day
		s.tradesToday = 0
		s.logger.Info(ctx, "New trading day, counters reset")
	}

	s.observePrice(mid)

	if !s.riskMgr.CanTrade(s.tradesToday, len(s.pending)) {
		s.logger.Debug(ctx, "Risk limits block new trades", map[string]interface{}{
			"tradesToday": s.tradesToday, "pendingTrades": len(s.pending),
		})
		return
	}

	snap := s.buildSnapshot(quote.Pair, mid, quote.Timestamp)
	signal := s.gen.Evaluate(ctx, snap)
	if signal == nil {
		return
	}
	s.logger.Info(ctx, "Signal received", map[string]interface{}{"signal": signal.String()})
	s.openTrade(ctx, signal, mid)
}

// observePrice feeds one mid price into the indicator state. Callers must
// hold the mutex.
func (s *TradingService) observePrice(price float64) {
	s.emaCalc.AddPrice(price)
	s.rsiCalc.AddPrice(price)
	s.priceWindow = append(s.priceWindow, price)
	if len(s.priceWindow) > s.cfg.BreakoutLookback+1 {
		s.priceWindow = s.priceWindow[1:]
	}
}

// buildSnapshot assembles the generator input from current indicator state.
// Callers must hold the mutex.
func (s *TradingService) buildSnapshot(pair string, price float64, ts time.Time) strategy.Snapshot {
	snap := strategy.Snapshot{
		Pair:        pair,
		Price:       price,
		Timestamp:   ts,
		TradesToday: s.tradesToday,
	}

	cfg := s.gen.Config()
	fast, errFast := s.emaCalc.EMA(cfg.EMAFastPeriod)
	slow, errSlow := s.emaCalc.EMA(cfg.EMASlowPeriod)
	if errFast == nil && errSlow == nil {
		snap.FastEMA, snap.SlowEMA, snap.EMAOK = fast, slow, true
		fastArr, errA := s.emaCalc.EMAArray(cfg.EMAFastPeriod)
		slowArr, errB := s.emaCalc.EMAArray(cfg.EMASlowPeriod)
		if errA == nil && errB == nil {
			snap.EMACross = indicators.CrossoverSignal(fastArr, slowArr)
		}
	}

	if rsi, err := s.rsiCalc.RSI(cfg.RSIPeriod); err == nil {
		snap.RSI, snap.RSIOK = rsi, true
	}

	// Breakout levels exclude the price observed this tick.
	if prior := s.priceWindow[:len(s.priceWindow)-1]; len(prior) >= cfg.BreakoutLookback {
		window := prior[len(prior)-cfg.BreakoutLookback:]
		high, low := window[0], window[0]
		for _, p := range window[1:] {
			if p > high {
				high = p
			}
			if p < low {
				low = p
			}
		}
		snap.RecentHigh, snap.RecentLow, snap.RangeOK = high, low, true
	}
	return snap
}

// openTrade creates a pending paper trade and schedules its simulated fill.
// Callers must hold the mutex.
func (s *TradingService) openTrade(ctx context.Context, signal *domain.TradingSignal, entry float64) {
	trade := domain.NewTrade(
		signal.Pair,
		signal.Action,
		entry,
		s.riskMgr.StopPrice(entry, signal.Action),
		s.riskMgr.TargetPrice(entry, signal.Action),
		s.riskMgr.LotSize(s.balance),
		s.gen.Config().Strategy,
		signal.Timestamp,
	)
	trade.Status = domain.StatusPending

	if err := s.journal.CreateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to journal new trade", map[string]interface{}{"tradeID": trade.ID.String()})
		return
	}

	s.pending[trade.ID] = trade
	s.tradesToday++
	s.logger.Info(ctx, "Paper trade opened", map[string]interface{}{
		"tradeID": trade.ID.String(), "direction": string(trade.Direction),
		"entry": trade.EntryPrice, "stopLoss": trade.StopLoss, "takeProfit": trade.TakeProfit,
	})

	time.AfterFunc(s.cfg.ExecutionDelay, func() {
		s.resolveTrade(context.Background(), trade.ID)
	})
}

// resolveTrade settles a pending trade against the quote current at
// resolution time. A trade cancelled while waiting is left untouched.
func (s *TradingService) resolveTrade(ctx context.Context, id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trade, ok := s.pending[id]
	if !ok || trade.Status != domain.StatusPending {
		return
	}
	delete(s.pending, id)

	mid := trade.EntryPrice
	var ts time.Time
	if s.latestQuote != nil {
		mid = (s.latestQuote.Bid + s.latestQuote.Ask) / 2
		ts = s.latestQuote.Timestamp
	} else {
		ts = time.Now().UTC()
	}

	exit := settlementPrice(trade, mid)
	if err := trade.Close(exit, ts); err != nil {
		s.logger.Error(ctx, err, "Failed to settle trade", map[string]interface{}{"tradeID": id.String()})
		return
	}
	pnl, _ := trade.RealizedPnL()
	s.balance += pnl

	if err := s.journal.UpdateTrade(ctx, trade); err != nil {
		s.logger.Error(ctx, err, "Failed to journal trade settlement", map[string]interface{}{"tradeID": id.String()})
	}
	s.logger.Info(ctx, "Paper trade settled", map[string]interface{}{
		"tradeID": id.String(), "exit": exit, "pnl": pnl, "balance": s.balance,
	})
}

// settlementPrice clamps the market move to the trade's stop and target
// levels, mirroring how resting orders would have filled first.
func settlementPrice(trade *domain.Trade, market float64) float64 {
	if trade.Direction == domain.Buy {
		if market <= trade.StopLoss {
			return trade.StopLoss
		}
		if market >= trade.TakeProfit {
			return trade.TakeProfit
		}
		return market
	}
	if market >= trade.StopLoss {
		return trade.StopLoss
	}
	if market <= trade.TakeProfit {
		return trade.TakeProfit
	}
	return market
}

// CancelAllPending cancels every unsettled trade. Their scheduled
// resolutions become no-ops.
func (s *TradingService) CancelAllPending(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, trade := range s.pending {
		if err := trade.Cancel(); err != nil {
			s.logger.Error(ctx, err, "Failed to cancel trade", map[string]interface{}{"tradeID": id.String()})
			continue
		}
		if err := s.journal.UpdateTrade(ctx, trade); err != nil {
			s.logger.Error(ctx, err, "Failed to journal trade cancellation", map[string]interface{}{"tradeID": id.String()})
		}
		delete(s.pending, id)
		s.logger.Info(ctx, "Pending trade cancelled", map[string]interface{}{"tradeID": id.String()})
	}
}

// Balance returns the current paper account balance.
func (s *TradingService) Balance() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance
}

// TradesToday returns the number of trades opened today.
func (s *TradingService) TradesToday() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tradesToday
}

// PendingTrades returns the number of unsettled trades.
func (s *TradingService) PendingTrades() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}
