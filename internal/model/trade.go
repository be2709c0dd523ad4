package model

import (
	"strings"
	"time"
)

// Direction represents the side of the trade
type Direction string

const (
	DirectionLong  Direction = "LONG"
	DirectionShort Direction = "SHORT"
)

// ParseDirection normalizes a raw direction string. Matching is
// case-insensitive and by substring, so "buy", "Long Entry" and "SELL_LIMIT"
// are all accepted.
func ParseDirection(raw string) (Direction, error) {
	upper := strings.ToUpper(strings.TrimSpace(raw))
	switch {
	case strings.Contains(upper, "LONG"), strings.Contains(upper, "BUY"):
		return DirectionLong, nil
	case strings.Contains(upper, "SHORT"), strings.Contains(upper, "SELL"):
		return DirectionShort, nil
	}
	return "", &ValidationError{Field: "direction", Reason: "expected LONG/BUY or SHORT/SELL, got " + quote(raw)}
}

// Sign returns +1 for longs and -1 for shorts. Profit-side offsets are
// entry + Sign()*distance, stop offsets are entry - Sign()*distance.
func (d Direction) Sign() float64 {
	if d == DirectionShort {
		return -1
	}
	return 1
}

// MarketClass decides whether distances are pip counts or raw points
type MarketClass string

const (
	MarketForex     MarketClass = "FOREX"
	MarketCrypto    MarketClass = "CRYPTO"
	MarketCommodity MarketClass = "COMMODITY"
	MarketIndex     MarketClass = "INDEX"
)

// ParseMarketClass resolves an explicit class name. An empty value infers the
// class from the symbol.
func ParseMarketClass(raw, symbol string) (MarketClass, error) {
	switch MarketClass(strings.ToUpper(strings.TrimSpace(raw))) {
	case MarketForex:
		return MarketForex, nil
	case MarketCrypto:
		return MarketCrypto, nil
	case MarketCommodity:
		return MarketCommodity, nil
	case MarketIndex:
		return MarketIndex, nil
	case "":
		return InferMarketClass(symbol), nil
	}
	return "", &ValidationError{Field: "market", Reason: "unknown market class " + quote(raw)}
}

var (
	cryptoMarkers    = []string{"BTC", "ETH", "SOL", "USDT", "XRP", "BNB", "DOGE"}
	commodityMarkers = []string{"XAU", "XAG", "OIL", "WTI", "BRENT"}
	indexMarkers     = []string{"US30", "NAS100", "US100", "SPX", "US500", "GER", "DE40", "UK100", "JP225"}
)

// InferMarketClass guesses the market class from well-known symbol fragments
func InferMarketClass(symbol string) MarketClass {
	upper := strings.ToUpper(symbol)
	for _, m := range cryptoMarkers {
		if strings.Contains(upper, m) {
			return MarketCrypto
		}
	}
	for _, m := range commodityMarkers {
		if strings.Contains(upper, m) {
			return MarketCommodity
		}
	}
	for _, m := range indexMarkers {
		if strings.Contains(upper, m) {
			return MarketIndex
		}
	}
	return MarketForex
}

// Timeframe is the chart timeframe a signal was generated on
type Timeframe string

const (
	TimeframeM1  Timeframe = "M1"
	TimeframeM3  Timeframe = "M3"
	TimeframeM5  Timeframe = "M5"
	TimeframeM15 Timeframe = "M15"
	TimeframeM30 Timeframe = "M30"
	TimeframeH1  Timeframe = "H1"
	TimeframeH4  Timeframe = "H4"
	TimeframeD1  Timeframe = "D1"

	// DefaultTimeframe is used for anything ParseTimeframe does not recognize
	DefaultTimeframe = TimeframeM5
)

// Timeframes lists every timeframe in ascending order
var Timeframes = []Timeframe{
	TimeframeM1, TimeframeM3, TimeframeM5, TimeframeM15,
	TimeframeM30, TimeframeH1, TimeframeH4, TimeframeD1,
}

var timeframeAliases = map[string]Timeframe{
	"M1": TimeframeM1, "1M": TimeframeM1, "1": TimeframeM1,
	"M3": TimeframeM3, "3M": TimeframeM3, "3": TimeframeM3,
	"M5": TimeframeM5, "5M": TimeframeM5, "5": TimeframeM5,
	"M15": TimeframeM15, "15M": TimeframeM15, "15": TimeframeM15,
	"M30": TimeframeM30, "30M": TimeframeM30, "30": TimeframeM30,
	"H1": TimeframeH1, "1H": TimeframeH1, "60": TimeframeH1,
	"H4": TimeframeH4, "4H": TimeframeH4, "240": TimeframeH4,
	"D1": TimeframeD1, "1D": TimeframeD1, "D": TimeframeD1,
}

// ParseTimeframe resolves TradingView and MetaTrader style timeframe strings.
// The boolean is false when the value was unknown and the default was used.
func ParseTimeframe(raw string) (Timeframe, bool) {
	tf, ok := timeframeAliases[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return DefaultTimeframe, false
	}
	return tf, true
}

// TradeStatus is the lifecycle state of a tracked trade
type TradeStatus string

const (
	StatusActive TradeStatus = "ACTIVE"
	StatusClosed TradeStatus = "CLOSED"
)

// Result labels used for FinalResult
const (
	ResultActive = "ACTIVE"
	ResultTP1    = "TP1"
	ResultTP2    = "TP2"
	ResultTP3    = "TP3"
	ResultSL     = "SL"
)

// Fixed R values recorded for each lifecycle transition
const (
	ProfitRTP1 = 1.5
	ProfitRTP2 = 2.5
	ProfitRTP3 = 4.0
	ProfitRSL  = -1.0
)

// TakeProfitLevel is a single target computed by the risk engine
type TakeProfitLevel struct {
	Level    int     `json:"level"`
	Price    float64 `json:"price"`
	Distance float64 `json:"distance"` // pips for FOREX, points otherwise, 1 decimal
	Ratio    float64 `json:"ratio"`
}

// TradePlan is the stop and target layout for a new trade
type TradePlan struct {
	Symbol           string             `json:"symbol"`
	Direction        Direction          `json:"direction"`
	Timeframe        Timeframe          `json:"timeframe"`
	MarketClass      MarketClass        `json:"market_class"`
	EntryPrice       float64            `json:"entry_price"`
	StopLoss         float64            `json:"stop_loss"`
	StopDistance     float64            `json:"stop_distance"` // pips for FOREX, points otherwise, 1 decimal
	PipSize          float64            `json:"pip_size"`
	TakeProfits      [3]TakeProfitLevel `json:"take_profits"`
	BreakEvenWinRate float64            `json:"break_even_win_rate"`
}

// Trade is a tracked position. Once created it is owned by the tracker;
// values handed out by the tracker are copies.
type Trade struct {
	ID                 string      `json:"id" bson:"_id"`
	Symbol             string      `json:"symbol" bson:"symbol"`
	Direction          Direction   `json:"direction" bson:"direction"`
	MarketClass        MarketClass `json:"market_class" bson:"market_class"`
	SignalType         string      `json:"signal_type" bson:"signal_type"`
	Pattern            string      `json:"pattern" bson:"pattern"`
	Entry              float64     `json:"entry" bson:"entry"`
	StopLoss           float64     `json:"stop_loss" bson:"stop_loss"`
	TP1                float64     `json:"tp1" bson:"tp1"`
	TP2                float64     `json:"tp2" bson:"tp2"`
	TP3                float64     `json:"tp3" bson:"tp3"`
	Score              int         `json:"score" bson:"score"`
	Mode               string      `json:"mode" bson:"mode"`
	Session            string      `json:"session" bson:"session"`
	Timeframe          Timeframe   `json:"timeframe" bson:"timeframe"`
	BubbleStrength     int         `json:"bubble_strength" bson:"bubble_strength"`
	ExhaustionDetected bool        `json:"exhaustion_detected" bson:"exhaustion_detected"`
	HTFTrend           string      `json:"htf_trend" bson:"htf_trend"`
	StrictMode         bool        `json:"strict_mode" bson:"strict_mode"`
	Timestamp          time.Time   `json:"timestamp" bson:"timestamp"`

	TP1Hit      bool        `json:"tp1_hit" bson:"tp1_hit"`
	TP2Hit      bool        `json:"tp2_hit" bson:"tp2_hit"`
	TP3Hit      bool        `json:"tp3_hit" bson:"tp3_hit"`
	SLHit       bool        `json:"sl_hit" bson:"sl_hit"`
	Status      TradeStatus `json:"status" bson:"status"`
	FinalResult string      `json:"final_result" bson:"final_result"`
	ProfitR     float64     `json:"profit_r" bson:"profit_r"`
	LastPrice   float64     `json:"last_price,omitempty" bson:"last_price,omitempty"`
	ClosedAt    *time.Time  `json:"closed_at,omitempty" bson:"closed_at,omitempty"`
}

// Closed reports whether the trade reached a terminal state
func (t *Trade) Closed() bool {
	return t.Status == StatusClosed
}

// IsWin reports whether a closed trade finished on a take-profit
func (t *Trade) IsWin() bool {
	switch t.FinalResult {
	case ResultTP1, ResultTP2, ResultTP3:
		return true
	}
	return false
}

// ApplyPlan copies the computed stop and targets onto the trade
func (t *Trade) ApplyPlan(plan TradePlan) {
	t.Entry = plan.EntryPrice
	t.StopLoss = plan.StopLoss
	t.TP1 = plan.TakeProfits[0].Price
	t.TP2 = plan.TakeProfits[1].Price
	t.TP3 = plan.TakeProfits[2].Price
}
