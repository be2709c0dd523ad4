package service

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"iccrelay-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestTracker(t *testing.T) *TradeTracker {
	t.Helper()
	tt := NewTradeTracker(zaptest.NewLogger(t), 0)
	clock := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	tt.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return tt
}

func mustCreate(t *testing.T, tt *TradeTracker, id, symbol string) model.Trade {
	t.Helper()
	trade, err := tt.CreateTrade(model.Trade{ID: id, Symbol: symbol, Direction: model.DirectionLong, Entry: 1.1})
	require.NoError(t, err)
	return trade
}

func TestCreateTrade_InitializesLifecycle(t *testing.T) {
	tt := newTestTracker(t)

	trade, err := tt.CreateTrade(model.Trade{
		ID:          "a1",
		Symbol:      "EURUSD",
		Direction:   model.DirectionLong,
		TP1Hit:      true,
		ProfitR:     9,
		FinalResult: model.ResultSL,
	})
	require.NoError(t, err)

	assert.Equal(t, model.StatusActive, trade.Status)
	assert.Equal(t, model.ResultActive, trade.FinalResult)
	assert.False(t, trade.TP1Hit)
	assert.Zero(t, trade.ProfitR)
	assert.False(t, trade.Timestamp.IsZero())

	active, closed := tt.Counts()
	assert.Equal(t, 1, active)
	assert.Equal(t, 0, closed)
}

func TestCreateTrade_DuplicateActiveID(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "dup", "EURUSD")

	_, err := tt.CreateTrade(model.Trade{ID: "dup", Symbol: "GBPUSD"})
	require.Error(t, err)

	var dupErr *model.DuplicateIDError
	require.True(t, errors.As(err, &dupErr))
	assert.Equal(t, "dup", dupErr.ID)
	assert.ErrorIs(t, err, model.ErrDuplicateID)

	// the rejected trade never reaches a window
	assert.Equal(t, 1, tt.Snapshot(model.WindowDaily).TotalSignals)
}

func TestCreateTrade_IDReusableAfterClose(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "r1", "EURUSD")
	_, outcome := tt.ApplyStopLoss("r1", 1.09)
	require.Equal(t, UpdateApplied, outcome)

	_, err := tt.CreateTrade(model.Trade{ID: "r1", Symbol: "EURUSD"})
	require.NoError(t, err)

	trade, ok := tt.Trade("r1")
	require.True(t, ok)
	assert.Equal(t, model.StatusActive, trade.Status)
}

func TestApplyTakeProfit_FullLadder(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "t1", "EURUSD")

	trade, outcome := tt.ApplyTakeProfit("t1", 1, 1.1016)
	require.Equal(t, UpdateApplied, outcome)
	assert.True(t, trade.TP1Hit)
	assert.Equal(t, model.StatusActive, trade.Status)
	assert.Equal(t, model.ResultActive, trade.FinalResult)
	assert.Equal(t, 1.5, trade.ProfitR)

	trade, outcome = tt.ApplyTakeProfit("t1", 2, 1.1024)
	require.Equal(t, UpdateApplied, outcome)
	assert.True(t, trade.TP2Hit)
	assert.Equal(t, model.StatusActive, trade.Status)
	assert.Equal(t, 2.5, trade.ProfitR)

	trade, outcome = tt.ApplyTakeProfit("t1", 3, 1.1032)
	require.Equal(t, UpdateApplied, outcome)
	assert.True(t, trade.TP3Hit)
	assert.Equal(t, model.StatusClosed, trade.Status)
	assert.Equal(t, model.ResultTP3, trade.FinalResult)
	assert.Equal(t, 4.0, trade.ProfitR)
	assert.Equal(t, 1.1032, trade.LastPrice)
	require.NotNil(t, trade.ClosedAt)

	active, closed := tt.Counts()
	assert.Equal(t, 0, active)
	assert.Equal(t, 1, closed)
}

func TestApplyTakeProfit_RepeatedAndOutOfOrderLevels(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "t2", "EURUSD")

	_, outcome := tt.ApplyTakeProfit("t2", 1, 1.1)
	require.Equal(t, UpdateApplied, outcome)

	trade, outcome := tt.ApplyTakeProfit("t2", 1, 1.2)
	assert.Equal(t, UpdateIgnored, outcome)
	assert.Equal(t, 1.5, trade.ProfitR)
	assert.Equal(t, 1.1, trade.LastPrice)

	// TP2 without TP1 only records TP2
	mustCreate(t, tt, "t3", "EURUSD")
	trade, outcome = tt.ApplyTakeProfit("t3", 2, 1.3)
	require.Equal(t, UpdateApplied, outcome)
	assert.False(t, trade.TP1Hit)
	assert.True(t, trade.TP2Hit)

	_, outcome = tt.ApplyTakeProfit("t3", 1, 1.2)
	assert.Equal(t, UpdateIgnored, outcome)

	_, outcome = tt.ApplyTakeProfit("t3", 4, 1.2)
	assert.Equal(t, UpdateIgnored, outcome)
}

func TestApplyTakeProfit_UnknownAndClosedIDs(t *testing.T) {
	tt := newTestTracker(t)

	_, outcome := tt.ApplyTakeProfit("ghost", 1, 1.1)
	assert.Equal(t, UpdateUnknownID, outcome)

	mustCreate(t, tt, "done", "EURUSD")
	_, outcome = tt.ApplyTakeProfit("done", 3, 1.2)
	require.Equal(t, UpdateApplied, outcome)

	_, outcome = tt.ApplyTakeProfit("done", 3, 1.2)
	assert.Equal(t, UpdateUnknownID, outcome)
	_, outcome = tt.ApplyStopLoss("done", 1.0)
	assert.Equal(t, UpdateUnknownID, outcome)

	trade, ok := tt.Trade("done")
	require.True(t, ok)
	assert.Equal(t, model.ResultTP3, trade.FinalResult)
}

func TestApplyStopLoss_DirectAndAfterPartial(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "s1", "EURUSD")

	trade, outcome := tt.ApplyStopLoss("s1", 1.0992)
	require.Equal(t, UpdateApplied, outcome)
	assert.True(t, trade.SLHit)
	assert.Equal(t, model.StatusClosed, trade.Status)
	assert.Equal(t, model.ResultSL, trade.FinalResult)
	assert.Equal(t, -1.0, trade.ProfitR)

	mustCreate(t, tt, "s2", "EURUSD")
	_, _ = tt.ApplyTakeProfit("s2", 1, 1.1016)
	trade, outcome = tt.ApplyStopLoss("s2", 1.0992)
	require.Equal(t, UpdateApplied, outcome)
	assert.True(t, trade.TP1Hit)
	assert.Equal(t, model.ResultSL, trade.FinalResult)
	assert.Equal(t, -1.0, trade.ProfitR)
}

func TestSnapshot_CountsOnlyClosedTrades(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "w1", "EURUSD")
	mustCreate(t, tt, "w2", "GBPUSD")
	mustCreate(t, tt, "l1", "EURUSD")
	mustCreate(t, tt, "open", "USDJPY")

	tt.ApplyTakeProfit("w1", 3, 1)
	tt.ApplyTakeProfit("w2", 1, 1)
	tt.ApplyTakeProfit("w2", 2, 1)
	tt.ApplyTakeProfit("w2", 3, 1)
	tt.ApplyStopLoss("l1", 1)
	tt.ApplyTakeProfit("open", 1, 1)

	stats := tt.Snapshot(model.WindowDaily)
	assert.False(t, stats.NoTrades)
	assert.Equal(t, 4, stats.TotalSignals)
	assert.Equal(t, 3, stats.ClosedTrades)
	assert.Equal(t, 1, stats.ActiveTrades)
	assert.Equal(t, 0, stats.TP1Count)
	assert.Equal(t, 2, stats.TP3Count)
	assert.Equal(t, 1, stats.SLCount)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.InDelta(t, 66.7, stats.WinRate, 0.05)
	assert.InDelta(t, 7.0, stats.TotalR, 1e-9)
	assert.InDelta(t, 7.0/3, stats.AvgR, 1e-9)
	assert.InDelta(t, 8.0, stats.ProfitFactor, 1e-9)
	assert.InDelta(t, 1.0, stats.MaxDrawdownR, 1e-9)
	assert.Nil(t, stats.BySymbol)
	assert.Len(t, stats.Trades, 4)
}

func TestSnapshot_WeeklyBySymbol(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "a", "EURUSD")
	mustCreate(t, tt, "b", "EURUSD")
	mustCreate(t, tt, "c", "XAUUSD")

	tt.ApplyTakeProfit("a", 3, 1)
	tt.ApplyStopLoss("b", 1)
	tt.ApplyStopLoss("c", 1)

	stats := tt.Snapshot(model.WindowWeekly)
	require.NotNil(t, stats.BySymbol)
	assert.Equal(t, model.SymbolStats{Wins: 1, Losses: 1, TotalR: 3}, stats.BySymbol["EURUSD"])
	assert.Equal(t, model.SymbolStats{Wins: 0, Losses: 1, TotalR: -1}, stats.BySymbol["XAUUSD"])
}

func TestSnapshot_EmptyWindow(t *testing.T) {
	tt := newTestTracker(t)

	stats := tt.Snapshot(model.WindowDaily)
	assert.True(t, stats.NoTrades)
	assert.Zero(t, stats.TotalSignals)
	assert.Zero(t, stats.WinRate)

	mustCreate(t, tt, "x", "EURUSD")
	stats = tt.Snapshot(model.WindowDaily)
	assert.False(t, stats.NoTrades)
	assert.Zero(t, stats.WinRate, "no closed trades means a zero win rate")
}

func TestResetWindow_DailyKeepsWeeklyAndActive(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "d1", "EURUSD")
	mustCreate(t, tt, "d2", "EURUSD")
	tt.ApplyStopLoss("d2", 1)

	tt.ResetWindow(model.WindowDaily)

	assert.True(t, tt.Snapshot(model.WindowDaily).NoTrades)
	weekly := tt.Snapshot(model.WindowWeekly)
	assert.Equal(t, 2, weekly.TotalSignals)
	assert.Equal(t, 1, weekly.SLCount)

	// the reset trade can still move and the weekly window sees it
	_, outcome := tt.ApplyTakeProfit("d1", 3, 1)
	require.Equal(t, UpdateApplied, outcome)
	assert.Equal(t, 1, tt.Snapshot(model.WindowWeekly).TP3Count)
	assert.True(t, tt.Snapshot(model.WindowDaily).NoTrades)
}

func TestResetWindow_UnknownWindowIsNoop(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "u", "EURUSD")

	tt.ResetWindow(model.Window("monthly"))

	assert.Equal(t, 1, tt.Snapshot(model.WindowDaily).TotalSignals)
	assert.True(t, tt.Snapshot(model.Window("monthly")).NoTrades)
}

func TestRollover_SnapshotsThenClears(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "r", "EURUSD")
	tt.ApplyTakeProfit("r", 3, 1)

	stats := tt.Rollover(model.WindowWeekly)
	assert.Equal(t, 1, stats.TP3Count)
	assert.True(t, tt.Snapshot(model.WindowWeekly).NoTrades)
	assert.Equal(t, 1, tt.Snapshot(model.WindowDaily).TotalSignals)
}

func TestClosedRetention(t *testing.T) {
	tt := NewTradeTracker(zaptest.NewLogger(t), 2)
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("c%d", i)
		mustCreate(t, tt, id, "EURUSD")
		tt.ApplyStopLoss(id, 1)
	}

	_, closed := tt.Counts()
	assert.Equal(t, 2, closed)
	_, ok := tt.Trade("c0")
	assert.False(t, ok)
	_, ok = tt.Trade("c2")
	assert.True(t, ok)

	// windows keep every trade regardless of retention
	assert.Equal(t, 3, tt.Snapshot(model.WindowDaily).SLCount)
}

func TestActiveTrades_OrderedByCreation(t *testing.T) {
	tt := newTestTracker(t)
	mustCreate(t, tt, "z", "EURUSD")
	mustCreate(t, tt, "a", "EURUSD")
	mustCreate(t, tt, "m", "EURUSD")
	tt.ApplyStopLoss("a", 1)

	active := tt.ActiveTrades()
	require.Len(t, active, 2)
	assert.Equal(t, "z", active[0].ID)
	assert.Equal(t, "m", active[1].ID)
}

func TestTrackerConcurrentUpdates(t *testing.T) {
	tt := NewTradeTracker(zaptest.NewLogger(t), 0)
	const n = 50

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("c%d", i)
			_, err := tt.CreateTrade(model.Trade{ID: id, Symbol: "EURUSD"})
			if err != nil {
				return
			}
			tt.ApplyTakeProfit(id, 1, 1)
			if i%2 == 0 {
				tt.ApplyTakeProfit(id, 3, 1)
			} else {
				tt.ApplyStopLoss(id, 1)
			}
			tt.Snapshot(model.WindowDaily)
		}(i)
	}
	wg.Wait()

	stats := tt.Snapshot(model.WindowWeekly)
	assert.Equal(t, n, stats.TotalSignals)
	assert.Equal(t, n, stats.ClosedTrades)
	assert.Equal(t, n/2, stats.TP3Count)
	assert.Equal(t, n/2, stats.SLCount)
	assert.InDelta(t, 50.0, stats.WinRate, 1e-9)
}
