package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	internalmath "iccrelay-go/internal/math"
	"iccrelay-go/internal/model"
	"iccrelay-go/internal/worker"

	"go.uber.org/zap"
)

// Enqueuer accepts notification jobs without blocking
type Enqueuer interface {
	Submit(job worker.Job) bool
}

// DispatcherOptions wires a Dispatcher. Notifier, Journal and Queue are
// optional: a nil Notifier logs, a nil Journal discards and a nil Queue
// delivers inline.
type DispatcherOptions struct {
	Profiles internalmath.Profiles
	Tracker  *TradeTracker
	Notifier Notifier
	Journal  Journal
	Queue    Enqueuer
	Logger   *zap.Logger
}

// Dispatcher routes parsed webhook events to the risk engine and tracker,
// then journals the result and queues the notification
type Dispatcher struct {
	profiles internalmath.Profiles
	tracker  *TradeTracker
	notifier Notifier
	journal  Journal
	queue    Enqueuer
	logger   *zap.Logger
	now      func() time.Time
	session  func() SessionInfo
}

func NewDispatcher(opts DispatcherOptions) *Dispatcher {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	profiles := opts.Profiles
	if profiles.Stops == nil || profiles.Rewards == nil {
		profiles = internalmath.DefaultProfiles()
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = NewTradeTracker(logger, 0)
	}
	var notifier Notifier = opts.Notifier
	if notifier == nil {
		notifier = NewLogNotifier(logger)
	}
	var journal Journal = opts.Journal
	if journal == nil {
		journal = NopJournal{}
	}

	return &Dispatcher{
		profiles: profiles,
		tracker:  tracker,
		notifier: notifier,
		journal:  journal,
		queue:    opts.Queue,
		logger:   logger.Named("dispatcher"),
		now:      func() time.Time { return time.Now().UTC() },
		session:  GetCurrentSession,
	}
}

// Tracker returns the tracker events are applied to
func (d *Dispatcher) Tracker() *TradeTracker {
	return d.tracker
}

// Handle applies one event. A NEW_TRADE fails with a *model.DuplicateIDError
// when its id is already active and with a *model.ValidationError when its
// entry is not a usable price; unknown ids and repeated levels are reported
// through the outcome.
func (d *Dispatcher) Handle(ctx context.Context, ev model.Event) (UpdateOutcome, error) {
	switch e := ev.(type) {
	case model.NewTradeEvent:
		return d.handleNewTrade(ctx, e)
	case model.TakeProfitEvent:
		trade, outcome := d.tracker.ApplyTakeProfit(e.ID, e.Level, e.Price)
		d.afterUpdate(ctx, outcome, trade, stubTrade(e.ID, e.Symbol, e.Direction), fmt.Sprintf("tp%d", e.Level),
			func(ctx context.Context, t model.Trade) error {
				return d.notifier.NotifyTakeProfit(ctx, t, e.Level, e.Price)
			})
		return outcome, nil
	case model.StopLossEvent:
		trade, outcome := d.tracker.ApplyStopLoss(e.ID, e.Price)
		d.afterUpdate(ctx, outcome, trade, stubTrade(e.ID, e.Symbol, e.Direction), "sl",
			func(ctx context.Context, t model.Trade) error {
				return d.notifier.NotifyStopLoss(ctx, t, e.Price)
			})
		return outcome, nil
	}
	return UpdateIgnored, &model.ValidationError{Field: "event", Reason: fmt.Sprintf("unsupported event %T", ev)}
}

func (d *Dispatcher) handleNewTrade(ctx context.Context, e model.NewTradeEvent) (UpdateOutcome, error) {
	if !ValidatePrice(e.Entry) {
		return UpdateIgnored, &model.ValidationError{Field: "entry", Reason: fmt.Sprintf("invalid entry price %v", e.Entry)}
	}
	if !e.TimeframeKnown && strings.TrimSpace(e.RawTimeframe) != "" {
		d.logger.Warn("⚠️ unknown timeframe, using default",
			zap.String("id", e.ID),
			zap.String("timeframe", e.RawTimeframe),
			zap.String("default", string(model.DefaultTimeframe)))
	}

	plan := d.profiles.ComputePlan(e.Symbol, e.Entry, e.Direction, e.Timeframe, e.Market)

	session := e.Meta.Session
	if strings.TrimSpace(session) == "" {
		session = string(d.session().Session)
	}

	trade := model.Trade{
		ID:                 e.ID,
		Symbol:             e.Symbol,
		Direction:          e.Direction,
		MarketClass:        e.Market,
		SignalType:         e.Meta.SignalType,
		Pattern:            e.Meta.Pattern,
		Score:              e.Meta.Score,
		Mode:               e.Meta.Mode,
		Session:            session,
		Timeframe:          plan.Timeframe,
		BubbleStrength:     e.Meta.BubbleStrength,
		ExhaustionDetected: e.Meta.ExhaustionDetected,
		HTFTrend:           e.Meta.HTFTrend,
		StrictMode:         e.Meta.StrictMode,
		Timestamp:          d.now(),
	}
	trade.ApplyPlan(plan)

	created, err := d.tracker.CreateTrade(trade)
	if err != nil {
		return UpdateIgnored, err
	}

	d.saveTrade(ctx, created)
	d.enqueue("new_trade:"+created.ID, func(ctx context.Context) error {
		return d.notifier.NotifyNewTrade(ctx, created, plan)
	})
	return UpdateApplied, nil
}

// afterUpdate journals an applied update and notifies it. An unknown id is
// still notified from the event payload; an ignored update is not.
func (d *Dispatcher) afterUpdate(ctx context.Context, outcome UpdateOutcome, trade, stub model.Trade, label string, notify func(context.Context, model.Trade) error) {
	switch outcome {
	case UpdateApplied:
		d.saveTrade(ctx, trade)
		d.enqueue(label+":"+trade.ID, func(ctx context.Context) error { return notify(ctx, trade) })
	case UpdateUnknownID:
		d.enqueue(label+":"+stub.ID, func(ctx context.Context) error { return notify(ctx, stub) })
	}
}

func (d *Dispatcher) saveTrade(ctx context.Context, trade model.Trade) {
	if err := d.journal.SaveTrade(ctx, trade); err != nil {
		d.logger.Error("❌ journal write failed", zap.String("id", trade.ID), zap.Error(err))
	}
}

func (d *Dispatcher) enqueue(name string, run func(ctx context.Context) error) {
	if d.queue == nil {
		if err := run(context.Background()); err != nil {
			d.logger.Warn("⚠️ notification failed", zap.String("job", name), zap.Error(err))
		}
		return
	}
	d.queue.Submit(worker.Job{Name: name, Run: run})
}

// RunSummary snapshots and resets the window in one step, journals the
// snapshot and sends it. The returned error is the notification failure, if
// any; the window is reset either way.
func (d *Dispatcher) RunSummary(ctx context.Context, w model.Window) (model.WindowStats, error) {
	stats := d.tracker.Rollover(w)
	d.logger.Info("📊 window summary",
		zap.String("window", string(w)),
		zap.Int("signals", stats.TotalSignals),
		zap.Int("closed", stats.ClosedTrades),
		zap.Float64("win_rate", stats.WinRate))

	if err := d.journal.SaveSummary(ctx, stats); err != nil {
		d.logger.Error("❌ journal summary failed", zap.String("window", string(w)), zap.Error(err))
	}

	if err := d.notifier.NotifySummary(ctx, stats); err != nil {
		d.logger.Warn("⚠️ summary notification failed", zap.String("window", string(w)), zap.Error(err))
		return stats, fmt.Errorf("sending %s summary: %w", w, err)
	}
	return stats, nil
}

// stubTrade describes an untracked trade from what the update payload carries
func stubTrade(id, symbol, direction string) model.Trade {
	dir, err := model.ParseDirection(direction)
	if err != nil {
		dir = model.Direction(strings.ToUpper(strings.TrimSpace(direction)))
	}
	return model.Trade{
		ID:        id,
		Symbol:    strings.ToUpper(strings.TrimSpace(symbol)),
		Direction: dir,
	}
}
