package service

import (
	"context"

	"iccrelay-go/internal/model"

	"go.uber.org/zap"
)

// Notifier delivers lifecycle and summary messages. Calls happen on worker
// goroutines, never on the webhook request path.
type Notifier interface {
	NotifyNewTrade(ctx context.Context, trade model.Trade, plan model.TradePlan) error
	NotifyTakeProfit(ctx context.Context, trade model.Trade, level int, price float64) error
	NotifyStopLoss(ctx context.Context, trade model.Trade, price float64) error
	NotifySummary(ctx context.Context, stats model.WindowStats) error
}

// LogNotifier writes notifications to the log. It is used when Telegram is
// not configured.
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger.Named("notify")}
}

func (n *LogNotifier) NotifyNewTrade(_ context.Context, trade model.Trade, plan model.TradePlan) error {
	n.logger.Info("🚀 new trade",
		zap.String("id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.String("direction", string(trade.Direction)),
		zap.String("timeframe", string(plan.Timeframe)),
		zap.Float64("entry", plan.EntryPrice),
		zap.Float64("stop_loss", plan.StopLoss),
		zap.Float64("tp1", plan.TakeProfits[0].Price),
		zap.Float64("tp2", plan.TakeProfits[1].Price),
		zap.Float64("tp3", plan.TakeProfits[2].Price))
	return nil
}

func (n *LogNotifier) NotifyTakeProfit(_ context.Context, trade model.Trade, level int, price float64) error {
	n.logger.Info("💰 take profit",
		zap.String("id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.Int("level", level),
		zap.Float64("price", price))
	return nil
}

func (n *LogNotifier) NotifyStopLoss(_ context.Context, trade model.Trade, price float64) error {
	n.logger.Info("❌ stop loss",
		zap.String("id", trade.ID),
		zap.String("symbol", trade.Symbol),
		zap.Float64("price", price))
	return nil
}

func (n *LogNotifier) NotifySummary(_ context.Context, stats model.WindowStats) error {
	n.logger.Info("📊 summary",
		zap.String("window", string(stats.Window)),
		zap.Bool("no_trades", stats.NoTrades),
		zap.Int("signals", stats.TotalSignals),
		zap.Int("closed", stats.ClosedTrades),
		zap.Float64("win_rate", stats.WinRate),
		zap.Float64("total_r", stats.TotalR))
	return nil
}
