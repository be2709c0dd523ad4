package model

import (
	"strings"
	"time"
)

// Window is an accumulation period for statistics
type Window string

const (
	WindowDaily  Window = "daily"
	WindowWeekly Window = "weekly"
)

// ParseWindow accepts "daily"/"day" and "weekly"/"week"
func ParseWindow(raw string) (Window, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "daily", "day":
		return WindowDaily, nil
	case "weekly", "week":
		return WindowWeekly, nil
	}
	return "", &ValidationError{Field: "window", Reason: "expected daily or weekly, got " + quote(raw)}
}

// SymbolStats aggregates closed trades of one symbol
type SymbolStats struct {
	Wins   int     `json:"wins"`
	Losses int     `json:"losses"`
	TotalR float64 `json:"total_r"`
}

// WindowStats is a point-in-time summary of a window. NoTrades is set when
// the window held no trades at all; every counter is then zero.
type WindowStats struct {
	Window       Window                 `json:"window"`
	NoTrades     bool                   `json:"no_trades"`
	GeneratedAt  time.Time              `json:"generated_at"`
	TotalSignals int                    `json:"total_signals"`
	ClosedTrades int                    `json:"closed_trades"`
	ActiveTrades int                    `json:"active_trades"`
	TP1Count     int                    `json:"tp1_count"`
	TP2Count     int                    `json:"tp2_count"`
	TP3Count     int                    `json:"tp3_count"`
	SLCount      int                    `json:"sl_count"`
	Wins         int                    `json:"wins"`
	Losses       int                    `json:"losses"`
	WinRate      float64                `json:"win_rate"`
	TotalR       float64                `json:"total_r"`
	AvgR         float64                `json:"avg_r"`
	ProfitFactor float64                `json:"profit_factor"`
	MaxDrawdownR float64                `json:"max_drawdown_r"`
	BySymbol     map[string]SymbolStats `json:"by_symbol,omitempty"`
	Trades       []Trade                `json:"trades,omitempty"`
}
