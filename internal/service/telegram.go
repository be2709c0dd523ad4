package service

import (
	"context"
	"fmt"
	"time"

	"iccrelay-go/internal/model"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// botAPI is the part of *tgbotapi.BotAPI the service uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// StatsSource answers the read-only bot commands
type StatsSource interface {
	Snapshot(w model.Window) model.WindowStats
	ActiveTrades() []model.Trade
}

type TelegramService struct {
	bot    botAPI
	chatID int64
	stats  StatsSource
	logger *zap.Logger
	now    func() time.Time
}

func NewTelegramService(token string, chatID int64, stats StatsSource, logger *zap.Logger) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	service := newTelegramService(bot, chatID, stats, logger)
	service.logger.Info("✅ telegram bot authorized", zap.String("username", bot.Self.UserName))
	return service, nil
}

func newTelegramService(bot botAPI, chatID int64, stats StatsSource, logger *zap.Logger) *TelegramService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TelegramService{
		bot:    bot,
		chatID: chatID,
		stats:  stats,
		logger: logger.Named("telegram"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RunCommands listens for and answers bot commands until ctx is done
func (s *TelegramService) RunCommands(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := s.bot.GetUpdatesChan(u)
	s.logger.Info("✅ telegram command handler started")

	for {
		select {
		case <-ctx.Done():
			s.bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			s.handleUpdate(update)
		}
	}
}

func (s *TelegramService) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		return
	}

	command := update.Message.Command()
	chatID := update.Message.Chat.ID
	s.logger.Info("📱 command received", zap.String("command", command), zap.Int64("chat_id", chatID))

	var reply string
	switch command {
	case "start", "help":
		reply = helpMessage
	case "daily":
		reply = formatSummaryMessage(s.stats.Snapshot(model.WindowDaily))
	case "weekly":
		reply = formatSummaryMessage(s.stats.Snapshot(model.WindowWeekly))
	case "active":
		reply = formatActiveMessage(s.stats.ActiveTrades(), s.now())
	default:
		reply = "Unknown command. Use /help to see available commands."
	}

	if err := s.send(chatID, reply); err != nil {
		s.logger.Warn("⚠️ command reply failed", zap.String("command", command), zap.Error(err))
	}
}

func (s *TelegramService) send(chatID int64, message string) error {
	msg := tgbotapi.NewMessage(chatID, message)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}

// NotifyNewTrade sends the entry card of a newly tracked trade
func (s *TelegramService) NotifyNewTrade(_ context.Context, trade model.Trade, plan model.TradePlan) error {
	s.logger.Info("📤 sending new trade", zap.String("id", trade.ID), zap.String("symbol", trade.Symbol))
	return s.send(s.chatID, formatNewTradeMessage(trade, plan))
}

// NotifyTakeProfit sends a TP1/TP2/TP3 notification
func (s *TelegramService) NotifyTakeProfit(_ context.Context, trade model.Trade, level int, price float64) error {
	return s.send(s.chatID, formatTakeProfitMessage(trade, level, price))
}

// NotifyStopLoss sends a stop loss notification
func (s *TelegramService) NotifyStopLoss(_ context.Context, trade model.Trade, price float64) error {
	return s.send(s.chatID, formatStopLossMessage(trade, price))
}

// NotifySummary sends a daily or weekly summary
func (s *TelegramService) NotifySummary(_ context.Context, stats model.WindowStats) error {
	s.logger.Info("📤 sending summary", zap.String("window", string(stats.Window)))
	return s.send(s.chatID, formatSummaryMessage(stats))
}
