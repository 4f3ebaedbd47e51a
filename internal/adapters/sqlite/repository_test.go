package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"forexscalper/internal/adapters/logger"
	"forexscalper/internal/domain"
	"forexscalper/internal/ports"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "trades.db")
	repo, err := NewRepository(Config{
		DBPath: dbPath,
		Logger: logger.NewStdLogger(logger.LevelError),
	})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestNewRepository_RequiresLogger(t *testing.T) {
	_, err := NewRepository(Config{DBPath: filepath.Join(t.TempDir(), "x.db")})
	assert.Error(t, err)
}

func TestCreateAndGetTrade(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	openedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	trade := domain.NewTrade("EURUSD", domain.Buy, 1.0850, 1.0847, 1.0855, 0.5, domain.StrategyEMACrossover, openedAt)

	require.NoError(t, repo.CreateTrade(ctx, trade))

	got, err := repo.GetTradeByID(ctx, trade.ID.String())
	require.NoError(t, err)
	assert.Equal(t, trade.ID, got.ID)
	assert.Equal(t, "EURUSD", got.Pair)
	assert.Equal(t, domain.Buy, got.Direction)
	assert.Equal(t, domain.StatusOpen, got.Status)
	assert.Nil(t, got.ExitPrice)
	assert.Nil(t, got.ClosedAt)
	assert.Nil(t, got.PnL)
	assert.True(t, got.OpenedAt.Equal(openedAt))
}

func TestGetTradeByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	_, err := repo.GetTradeByID(context.Background(), "1b671a64-40d5-491e-99b0-da01ff1f3341")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestUpdateTrade_Close(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	openedAt := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	trade := domain.NewTrade("EURUSD", domain.Buy, 1.0850, 1.0847, 1.0855, 1.0, domain.StrategyBreakout, openedAt)
	require.NoError(t, repo.CreateTrade(ctx, trade))

	require.NoError(t, trade.Close(1.0855, openedAt.Add(3*time.Minute)))
	require.NoError(t, repo.UpdateTrade(ctx, trade))

	got, err := repo.GetTradeByID(ctx, trade.ID.String())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, got.Status)
	require.NotNil(t, got.ExitPrice)
	assert.InDelta(t, 1.0855, *got.ExitPrice, 1e-9)
	require.NotNil(t, got.PnL)
	assert.InDelta(t, 50.0, *got.PnL, 1e-6)
}

func TestUpdateTrade_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	trade := domain.NewTrade("EURUSD", domain.Sell, 1.10, 1.1003, 1.0995, 0.5, domain.StrategyRSIDivergence, time.Now().UTC())
	err := repo.UpdateTrade(context.Background(), trade)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrNotFound))
}

func TestListTradesByPair(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		trade := domain.NewTrade("EURUSD", domain.Buy, 1.08, 1.0797, 1.0805, 0.5, domain.StrategyEMACrossover, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.CreateTrade(ctx, trade))
	}
	other := domain.NewTrade("GBPUSD", domain.Sell, 1.26, 1.2603, 1.2595, 0.5, domain.StrategyEMACrossover, base)
	require.NoError(t, repo.CreateTrade(ctx, other))

	trades, err := repo.ListTradesByPair(ctx, "EURUSD", 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	// Newest first.
	assert.True(t, trades[0].OpenedAt.After(trades[1].OpenedAt))
	for _, tr := range trades {
		assert.Equal(t, "EURUSD", tr.Pair)
	}
}

func TestCountTradesToday(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC()
	yesterday := now.Add(-26 * time.Hour)

	for i := 0; i < 2; i++ {
		trade := domain.NewTrade("EURUSD", domain.Buy, 1.08, 1.0797, 1.0805, 0.5, domain.StrategyEMACrossover, now)
		require.NoError(t, repo.CreateTrade(ctx, trade))
	}
	old := domain.NewTrade("EURUSD", domain.Buy, 1.08, 1.0797, 1.0805, 0.5, domain.StrategyEMACrossover, yesterday)
	require.NoError(t, repo.CreateTrade(ctx, old))

	count, err := repo.CountTradesToday(ctx, "EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestTotalRealizedPnL(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	openedAt := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

	win := domain.NewTrade("EURUSD", domain.Buy, 1.0850, 1.0847, 1.0855, 1.0, domain.StrategyEMACrossover, openedAt)
	require.NoError(t, win.Close(1.0855, openedAt.Add(time.Minute)))
	require.NoError(t, repo.CreateTrade(ctx, win))

	loss := domain.NewTrade("EURUSD", domain.Buy, 1.0850, 1.0847, 1.0855, 1.0, domain.StrategyEMACrossover, openedAt)
	require.NoError(t, loss.Close(1.0847, openedAt.Add(time.Minute)))
	require.NoError(t, repo.CreateTrade(ctx, loss))

	open := domain.NewTrade("EURUSD", domain.Buy, 1.0850, 1.0847, 1.0855, 1.0, domain.StrategyEMACrossover, openedAt)
	require.NoError(t, repo.CreateTrade(ctx, open))

	total, err := repo.TotalRealizedPnL(ctx)
	require.NoError(t, err)
	// 50 win plus 30 loss.
	assert.InDelta(t, 20.0, total, 1e-6)
}
