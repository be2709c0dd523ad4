package service

import (
	"sort"
	"sync"
	"time"

	internalmath "iccrelay-go/internal/math"
	"iccrelay-go/internal/model"

	"go.uber.org/zap"
)

// UpdateOutcome describes what a TP/SL update did to the tracker
type UpdateOutcome int

const (
	// UpdateApplied means the trade changed state
	UpdateApplied UpdateOutcome = iota
	// UpdateUnknownID means no active trade has the id
	UpdateUnknownID
	// UpdateIgnored means the trade already recorded the level, or the level is invalid
	UpdateIgnored
)

func (o UpdateOutcome) String() string {
	switch o {
	case UpdateApplied:
		return "applied"
	case UpdateUnknownID:
		return "unknown_id"
	default:
		return "ignored"
	}
}

// DefaultClosedRetention bounds the closed set when no retention is configured
const DefaultClosedRetention = 1000

// TradeTracker owns the lifecycle of every trade and the daily and weekly
// accumulation windows. Both windows hold pointers to the same Trade, so a
// lifecycle update is observed by both. All methods take the same lock.
//
// Snapshot followed by ResetWindow is two calls; a trade created between them
// is dropped from that window without being reported. Use Rollover when the
// pair must be a single step.
type TradeTracker struct {
	mu        sync.Mutex
	active    map[string]*model.Trade
	closed    []*model.Trade
	daily     []*model.Trade
	weekly    []*model.Trade
	retention int
	logger    *zap.Logger
	now       func() time.Time
}

// NewTradeTracker creates a new trade tracker. closedRetention caps how many
// closed trades stay queryable by id; windows are not affected by the cap.
func NewTradeTracker(logger *zap.Logger, closedRetention int) *TradeTracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if closedRetention <= 0 {
		closedRetention = DefaultClosedRetention
	}
	return &TradeTracker{
		active:    make(map[string]*model.Trade),
		retention: closedRetention,
		logger:    logger.Named("tracker"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// CreateTrade registers a new active trade and appends it to both windows.
// It fails with a *model.DuplicateIDError if the id is already active.
func (tt *TradeTracker) CreateTrade(trade model.Trade) (model.Trade, error) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if _, exists := tt.active[trade.ID]; exists {
		tt.logger.Warn("⚠️ duplicate trade id rejected", zap.String("id", trade.ID))
		return model.Trade{}, &model.DuplicateIDError{ID: trade.ID}
	}

	t := trade
	t.Status = model.StatusActive
	t.FinalResult = model.ResultActive
	t.ProfitR = 0
	t.TP1Hit, t.TP2Hit, t.TP3Hit, t.SLHit = false, false, false, false
	t.ClosedAt = nil
	if t.Timestamp.IsZero() {
		t.Timestamp = tt.now()
	}

	tt.active[t.ID] = &t
	tt.daily = append(tt.daily, &t)
	tt.weekly = append(tt.weekly, &t)

	tt.logger.Info("📊 trade added",
		zap.String("id", t.ID),
		zap.String("symbol", t.Symbol),
		zap.String("direction", string(t.Direction)),
		zap.Int("active", len(tt.active)))

	return t, nil
}

// ApplyTakeProfit records a target fill. TP1 and TP2 keep the trade active,
// TP3 closes it. A level already recorded (or superseded by a higher one) and
// an unknown id are logged and ignored.
func (tt *TradeTracker) ApplyTakeProfit(id string, level int, price float64) (model.Trade, UpdateOutcome) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	t, ok := tt.active[id]
	if !ok {
		tt.logger.Warn("⚠️ take profit for untracked trade", zap.String("id", id), zap.Int("level", level))
		return model.Trade{}, UpdateUnknownID
	}

	switch level {
	case 1:
		if t.TP1Hit || t.TP2Hit {
			return tt.ignored(t, "TP1")
		}
		t.TP1Hit = true
		t.ProfitR = model.ProfitRTP1
	case 2:
		if t.TP2Hit {
			return tt.ignored(t, "TP2")
		}
		t.TP2Hit = true
		t.ProfitR = model.ProfitRTP2
	case 3:
		t.TP3Hit = true
		t.FinalResult = model.ResultTP3
		t.ProfitR = model.ProfitRTP3
	default:
		tt.logger.Warn("⚠️ invalid take profit level", zap.String("id", id), zap.Int("level", level))
		return *t, UpdateIgnored
	}
	t.LastPrice = price

	if level == 3 {
		tt.closeLocked(t)
	}

	tt.logger.Info("✅ take profit hit",
		zap.String("id", id),
		zap.Int("level", level),
		zap.Float64("price", price),
		zap.Float64("profit_r", t.ProfitR))

	return *t, UpdateApplied
}

// ApplyStopLoss closes the trade at -1R regardless of earlier partial targets
func (tt *TradeTracker) ApplyStopLoss(id string, price float64) (model.Trade, UpdateOutcome) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	t, ok := tt.active[id]
	if !ok {
		tt.logger.Warn("⚠️ stop loss for untracked trade", zap.String("id", id))
		return model.Trade{}, UpdateUnknownID
	}

	t.SLHit = true
	t.FinalResult = model.ResultSL
	t.ProfitR = model.ProfitRSL
	t.LastPrice = price
	tt.closeLocked(t)

	tt.logger.Info("❌ stop loss hit", zap.String("id", id), zap.Float64("price", price))

	return *t, UpdateApplied
}

func (tt *TradeTracker) ignored(t *model.Trade, level string) (model.Trade, UpdateOutcome) {
	tt.logger.Info("⏭️ level already recorded", zap.String("id", t.ID), zap.String("level", level))
	return *t, UpdateIgnored
}

// closeLocked moves t from the active map to the closed set
func (tt *TradeTracker) closeLocked(t *model.Trade) {
	closedAt := tt.now()
	t.Status = model.StatusClosed
	t.ClosedAt = &closedAt

	delete(tt.active, t.ID)
	tt.closed = append(tt.closed, t)
	if over := len(tt.closed) - tt.retention; over > 0 {
		tt.closed = append([]*model.Trade(nil), tt.closed[over:]...)
	}

	tt.logger.Info("🔒 trade closed", zap.String("id", t.ID), zap.String("result", t.FinalResult))
}

// Snapshot summarizes the window's current trades
func (tt *TradeTracker) Snapshot(w model.Window) model.WindowStats {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	return tt.snapshotLocked(w)
}

// ResetWindow clears one window. The active and closed sets and the other
// window are untouched.
func (tt *TradeTracker) ResetWindow(w model.Window) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	tt.resetLocked(w)
}

// Rollover takes a snapshot and resets the window under a single lock
func (tt *TradeTracker) Rollover(w model.Window) model.WindowStats {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	stats := tt.snapshotLocked(w)
	tt.resetLocked(w)
	return stats
}

func (tt *TradeTracker) windowLocked(w model.Window) *[]*model.Trade {
	switch w {
	case model.WindowDaily:
		return &tt.daily
	case model.WindowWeekly:
		return &tt.weekly
	}
	return nil
}

func (tt *TradeTracker) resetLocked(w model.Window) {
	seq := tt.windowLocked(w)
	if seq == nil {
		tt.logger.Warn("⚠️ reset of unknown window ignored", zap.String("window", string(w)))
		return
	}
	count := len(*seq)
	*seq = nil
	tt.logger.Info("🔄 window reset", zap.String("window", string(w)), zap.Int("trades", count))
}

func (tt *TradeTracker) snapshotLocked(w model.Window) model.WindowStats {
	stats := model.WindowStats{Window: w, GeneratedAt: tt.now()}

	seq := tt.windowLocked(w)
	if seq == nil || len(*seq) == 0 {
		stats.NoTrades = true
		return stats
	}

	if w == model.WindowWeekly {
		stats.BySymbol = make(map[string]model.SymbolStats)
	}

	var grossWin, grossLoss float64
	results := make([]float64, 0, len(*seq))

	stats.TotalSignals = len(*seq)
	stats.Trades = make([]model.Trade, 0, len(*seq))
	for _, t := range *seq {
		stats.Trades = append(stats.Trades, *t)
		if !t.Closed() {
			continue
		}

		stats.ClosedTrades++
		stats.TotalR += t.ProfitR
		results = append(results, t.ProfitR)
		if t.ProfitR > 0 {
			grossWin += t.ProfitR
		} else {
			grossLoss -= t.ProfitR
		}

		switch t.FinalResult {
		case model.ResultTP1:
			stats.TP1Count++
		case model.ResultTP2:
			stats.TP2Count++
		case model.ResultTP3:
			stats.TP3Count++
		case model.ResultSL:
			stats.SLCount++
		}

		if stats.BySymbol != nil {
			s := stats.BySymbol[t.Symbol]
			if t.IsWin() {
				s.Wins++
			} else {
				s.Losses++
			}
			s.TotalR += t.ProfitR
			stats.BySymbol[t.Symbol] = s
		}
	}

	stats.ActiveTrades = stats.TotalSignals - stats.ClosedTrades
	stats.Wins = stats.TP1Count + stats.TP2Count + stats.TP3Count
	stats.Losses = stats.SLCount
	stats.WinRate = internalmath.CalculateWinRate(stats.Wins, stats.ClosedTrades)
	stats.AvgR = internalmath.CalculateAverageR(stats.TotalR, stats.ClosedTrades)
	stats.ProfitFactor = internalmath.CalculateProfitFactor(grossWin, grossLoss)
	stats.MaxDrawdownR = internalmath.CalculateDrawdownR(results)

	return stats
}

// Trade looks a trade up by id, active trades first, then the most recently
// closed one with that id
func (tt *TradeTracker) Trade(id string) (model.Trade, bool) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if t, ok := tt.active[id]; ok {
		return *t, true
	}
	for i := len(tt.closed) - 1; i >= 0; i-- {
		if tt.closed[i].ID == id {
			return *tt.closed[i], true
		}
	}
	return model.Trade{}, false
}

// ActiveTrades returns copies of all active trades, oldest first
func (tt *TradeTracker) ActiveTrades() []model.Trade {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	trades := make([]model.Trade, 0, len(tt.active))
	for _, t := range tt.active {
		trades = append(trades, *t)
	}
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].Timestamp.Equal(trades[j].Timestamp) {
			return trades[i].ID < trades[j].ID
		}
		return trades[i].Timestamp.Before(trades[j].Timestamp)
	})
	return trades
}

// Counts returns the sizes of the active and closed sets
func (tt *TradeTracker) Counts() (active, closed int) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	return len(tt.active), len(tt.closed)
}
