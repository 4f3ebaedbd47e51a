package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forexscalper/config"
	"forexscalper/internal/adapters/logger"
	"forexscalper/internal/domain"
)

// --- Mocks ---

type mockRepo struct {
	mu     sync.Mutex
	trades map[string]*domain.Trade
}

func newMockRepo() *mockRepo {
	return &mockRepo{trades: make(map[string]*domain.Trade)}
}

func (m *mockRepo) CreateTrade(ctx context.Context, trade *domain.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trade
	m.trades[trade.ID.String()] = &copied
	return nil
}

func (m *mockRepo) UpdateTrade(ctx context.Context, trade *domain.Trade) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *trade
	m.trades[trade.ID.String()] = &copied
	return nil
}

func (m *mockRepo) GetTradeByID(ctx context.Context, id string) (*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trades[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (m *mockRepo) ListTradesByPair(ctx context.Context, pair string, limit int) ([]*domain.Trade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Trade
	for _, t := range m.trades {
		if t.Pair == pair {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (m *mockRepo) CountTradesToday(ctx context.Context, pair string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	today := time.Now().UTC().Format("2006-01-02")
	count := 0
	for _, t := range m.trades {
		if t.Pair == pair && t.OpenedAt.UTC().Format("2006-01-02") == today {
			count++
		}
	}
	return count, nil
}

func (m *mockRepo) TotalRealizedPnL(ctx context.Context) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total float64
	for _, t := range m.trades {
		if pnl, ok := t.RealizedPnL(); ok {
			total += pnl
		}
	}
	return total, nil
}

func (m *mockRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.trades)
}

func (m *mockRepo) statuses() map[domain.TradeStatus]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[domain.TradeStatus]int)
	for _, t := range m.trades {
		out[t.Status]++
	}
	return out
}

type mockSource struct {
	candles []domain.Candle
	quotes  chan domain.PriceQuote
}

func (m *mockSource) Subscribe(ctx context.Context, pair string) (<-chan domain.PriceQuote, error) {
	out := make(chan domain.PriceQuote)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case q, ok := <-m.quotes:
				if !ok {
					return
				}
				select {
				case out <- q:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (m *mockSource) FetchHistory(ctx context.Context, pair string, from, to time.Time) ([]domain.Candle, error) {
	return m.candles, nil
}

// --- Helpers ---

func testConfig() *config.Config {
	return &config.Config{
		Pair:                "EURUSD",
		ActiveStrategy:      domain.StrategyRSIDivergence,
		MaxTradesPerDay:     10,
		StartingBalance:     50000,
		EMAFastPeriod:       5,
		EMASlowPeriod:       13,
		RSIPeriod:           14,
		RSIOverbought:       70,
		RSIOversold:         30,
		BreakoutLookback:    20,
		ProfitTargetPips:    5,
		StopLossPips:        3,
		RiskPerTradePercent: 1,
		PollInterval:        10 * time.Millisecond,
		ExecutionDelay:      time.Hour, // Tests settle trades explicitly
		LogLevel:            logger.LevelError,
	}
}

func risingHistory(n int) []domain.Candle {
	start := time.Now().UTC().Add(-time.Duration(n) * time.Hour)
	candles := make([]domain.Candle, n)
	for i := 0; i < n; i++ {
		close := 1.0800 + float64(i)*0.0005
		candles[i] = domain.Candle{
			Timestamp: start.Add(time.Duration(i) * time.Hour),
			Pair:      "EURUSD",
			Open:      close - 0.0005,
			High:      close + 0.0001,
			Low:       close - 0.0006,
			Close:     close,
			Volume:    100,
		}
	}
	return candles
}

func newTestService(t *testing.T, cfg *config.Config, repo *mockRepo, source *mockSource) *TradingService {
	t.Helper()
	svc, err := NewTradingService(cfg, logger.NewStdLogger(logger.LevelError), source, repo)
	require.NoError(t, err)
	return svc
}

func onlyPendingID(svc *TradingService) uuid.UUID {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	var id uuid.UUID
	for k := range svc.pending {
		id = k
	}
	return id
}

func quoteAt(mid float64) domain.PriceQuote {
	return domain.PriceQuote{
		Pair:      "EURUSD",
		Bid:       mid - 0.0001,
		Ask:       mid + 0.0001,
		Timestamp: time.Now().UTC(),
	}
}

// --- Tests ---

func TestNewTradingService_MissingDependencies(t *testing.T) {
	cfg := testConfig()
	log := logger.NewStdLogger(logger.LevelError)
	repo := newMockRepo()
	source := &mockSource{}

	_, err := NewTradingService(nil, log, source, repo)
	assert.Error(t, err)
	_, err = NewTradingService(cfg, nil, source, repo)
	assert.Error(t, err)
	_, err = NewTradingService(cfg, log, nil, repo)
	assert.Error(t, err)
	_, err = NewTradingService(cfg, log, source, nil)
	assert.Error(t, err)
}

func TestNewTradingService_InvalidStrategyConfig(t *testing.T) {
	cfg := testConfig()
	cfg.EMAFastPeriod = 20 // not less than slow

	_, err := NewTradingService(cfg, logger.NewStdLogger(logger.LevelError), &mockSource{}, newMockRepo())
	assert.Error(t, err)
}

func TestOnTick_OpensTradeOnSignal(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	source := &mockSource{candles: risingHistory(30)}
	svc := newTestService(t, cfg, repo, source)

	ctx := context.Background()
	require.NoError(t, svc.initialize(ctx))

	// A rising market pins RSI at 100, which reads as overbought.
	q := quoteAt(1.0960)
	svc.mu.Lock()
	svc.latestQuote = &q
	svc.mu.Unlock()

	svc.onTick(ctx)

	assert.Equal(t, 1, svc.PendingTrades())
	assert.Equal(t, 1, svc.TradesToday())
	assert.Equal(t, 1, repo.count())

	trades, err := repo.ListTradesByPair(ctx, "EURUSD", 10)
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.Equal(t, domain.Sell, trades[0].Direction)
	assert.Equal(t, domain.StatusPending, trades[0].Status)
	assert.InDelta(t, 1.0960, trades[0].EntryPrice, 1e-9)
}

func TestOnTick_NoQuoteNoTrade(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	svc := newTestService(t, cfg, repo, &mockSource{candles: risingHistory(30)})

	require.NoError(t, svc.initialize(context.Background()))
	svc.onTick(context.Background())

	assert.Equal(t, 0, svc.PendingTrades())
	assert.Equal(t, 0, repo.count())
}

func TestOnTick_PendingTradeBlocksEntry(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	svc := newTestService(t, cfg, repo, &mockSource{candles: risingHistory(30)})

	ctx := context.Background()
	require.NoError(t, svc.initialize(ctx))

	q := quoteAt(1.0960)
	svc.mu.Lock()
	svc.latestQuote = &q
	svc.mu.Unlock()

	svc.onTick(ctx)
	svc.onTick(ctx)

	assert.Equal(t, 1, svc.PendingTrades(), "second tick must not stack a trade on the pending one")
}

func TestOnTick_DailyLimit(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	svc := newTestService(t, cfg, repo, &mockSource{candles: risingHistory(30)})

	ctx := context.Background()
	require.NoError(t, svc.initialize(ctx))

	q := quoteAt(1.0960)
	svc.mu.Lock()
	svc.latestQuote = &q
	svc.tradesToday = cfg.MaxTradesPerDay
	svc.mu.Unlock()

	svc.onTick(ctx)

	assert.Equal(t, 0, svc.PendingTrades())
	assert.Equal(t, 0, repo.count())
}

func TestResolveTrade_SettlesAtTarget(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	svc := newTestService(t, cfg, repo, &mockSource{candles: risingHistory(30)})

	ctx := context.Background()
	require.NoError(t, svc.initialize(ctx))

	q := quoteAt(1.0960)
	svc.mu.Lock()
	svc.latestQuote = &q
	svc.mu.Unlock()
	svc.onTick(ctx)
	require.Equal(t, 1, svc.PendingTrades())

	tradeID := onlyPendingID(svc)

	// Market ran past the target before settlement.
	q2 := quoteAt(1.0940)
	svc.mu.Lock()
	svc.latestQuote = &q2
	svc.mu.Unlock()

	svc.resolveTrade(ctx, tradeID)

	assert.Equal(t, 0, svc.PendingTrades())
	statuses := repo.statuses()
	assert.Equal(t, 1, statuses[domain.StatusClosed])

	// Exit clamps to the take profit 5 pips below the sell entry.
	expectedPnL := 0.0005 * 0.005 * domain.StandardLotUnits
	assert.InDelta(t, cfg.StartingBalance+expectedPnL, svc.Balance(), 1e-9)
}

func TestResolveTrade_SettlesAtStop(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	svc := newTestService(t, cfg, repo, &mockSource{candles: risingHistory(30)})

	ctx := context.Background()
	require.NoError(t, svc.initialize(ctx))

	q := quoteAt(1.0960)
	svc.mu.Lock()
	svc.latestQuote = &q
	svc.mu.Unlock()
	svc.onTick(ctx)
	require.Equal(t, 1, svc.PendingTrades())

	tradeID := onlyPendingID(svc)

	q2 := quoteAt(1.0990) // well above the sell stop
	svc.mu.Lock()
	svc.latestQuote = &q2
	svc.mu.Unlock()

	svc.resolveTrade(ctx, tradeID)

	expectedPnL := -0.0003 * 0.005 * domain.StandardLotUnits
	assert.InDelta(t, cfg.StartingBalance+expectedPnL, svc.Balance(), 1e-9)
}

func TestCancelAllPending_MakesResolutionNoOp(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	svc := newTestService(t, cfg, repo, &mockSource{candles: risingHistory(30)})

	ctx := context.Background()
	require.NoError(t, svc.initialize(ctx))

	q := quoteAt(1.0960)
	svc.mu.Lock()
	svc.latestQuote = &q
	svc.mu.Unlock()
	svc.onTick(ctx)
	require.Equal(t, 1, svc.PendingTrades())

	tradeID := onlyPendingID(svc)

	svc.CancelAllPending(ctx)
	assert.Equal(t, 0, svc.PendingTrades())

	balanceBefore := svc.Balance()
	svc.resolveTrade(ctx, tradeID)
	assert.Equal(t, balanceBefore, svc.Balance(), "late settlement of a cancelled trade must not move the balance")

	statuses := repo.statuses()
	assert.Equal(t, 1, statuses[domain.StatusCancelled])
	assert.Equal(t, 0, statuses[domain.StatusClosed])
}

func TestStart_ShutsDownOnContextCancel(t *testing.T) {
	cfg := testConfig()
	repo := newMockRepo()
	source := &mockSource{
		candles: risingHistory(30),
		quotes:  make(chan domain.PriceQuote),
	}
	svc := newTestService(t, cfg, repo, source)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(ctx) }()

	// Let a few poll cycles run, then shut down.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Service did not shut down after context cancellation")
	}
}
