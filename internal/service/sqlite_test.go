package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"iccrelay-go/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestSQLite(t *testing.T) *SQLiteJournal {
	t.Helper()

	path := filepath.Join(t.TempDir(), "nested", "journal.db")
	j, err := NewSQLiteJournal(path, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestSQLiteJournal_UpsertsTrade(t *testing.T) {
	j := newTestSQLite(t)
	ctx := context.Background()

	opened := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	trade := model.Trade{
		ID:          "T1",
		Symbol:      "EURUSD",
		Direction:   model.DirectionLong,
		MarketClass: model.MarketForex,
		Timeframe:   model.TimeframeM15,
		Entry:       1.1,
		StopLoss:    1.0992,
		TP1:         1.1016,
		TP2:         1.1024,
		TP3:         1.1032,
		Status:      model.StatusActive,
		FinalResult: model.ResultActive,
		Timestamp:   opened,
	}
	require.NoError(t, j.SaveTrade(ctx, trade))

	closed := opened.Add(time.Hour)
	trade.TP3Hit = true
	trade.Status = model.StatusClosed
	trade.FinalResult = model.ResultTP3
	trade.ProfitR = 4
	trade.ClosedAt = &closed
	require.NoError(t, j.SaveTrade(ctx, trade))

	var rows int
	require.NoError(t, j.db.QueryRow(`SELECT COUNT(*) FROM trades`).Scan(&rows))
	assert.Equal(t, 1, rows)

	got, ok, err := j.LoadTrade(ctx, "T1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.ResultTP3, got.FinalResult)
	assert.Equal(t, 4.0, got.ProfitR)
	require.NotNil(t, got.ClosedAt)
	assert.True(t, closed.Equal(*got.ClosedAt))

	var status string
	require.NoError(t, j.db.QueryRow(`SELECT status FROM trades WHERE id = 'T1'`).Scan(&status))
	assert.Equal(t, "CLOSED", status)
}

func TestSQLiteJournal_LoadMissingTrade(t *testing.T) {
	j := newTestSQLite(t)

	_, ok, err := j.LoadTrade(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLiteJournal_SaveSummary(t *testing.T) {
	j := newTestSQLite(t)

	stats := model.WindowStats{
		Window:       model.WindowDaily,
		GeneratedAt:  time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC),
		TotalSignals: 3,
		ClosedTrades: 3,
		WinRate:      66.7,
		TotalR:       7,
		Trades:       []model.Trade{{ID: "a"}},
	}
	require.NoError(t, j.SaveSummary(context.Background(), stats))

	var window, payload string
	var total int
	require.NoError(t, j.db.QueryRow(`SELECT period, total_signals, payload FROM summaries`).Scan(&window, &total, &payload))
	assert.Equal(t, "daily", window)
	assert.Equal(t, 3, total)
	assert.NotContains(t, payload, `"trades"`)
}
