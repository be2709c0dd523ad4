package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// EventKind identifies the type of an inbound webhook event
type EventKind string

const (
	EventNewTrade EventKind = "NEW_TRADE"
	EventTPHit    EventKind = "TP_HIT"
	EventSLHit    EventKind = "SL_HIT"
)

// Event is one of NewTradeEvent, TakeProfitEvent or StopLossEvent
type Event interface {
	Kind() EventKind
	TradeID() string
}

// TradeMeta is classification data carried through to the trade unchanged
type TradeMeta struct {
	SignalType         string `json:"signal_type"`
	Pattern            string `json:"pattern"`
	Score              int    `json:"score"`
	Mode               string `json:"mode"`
	Session            string `json:"session"`
	BubbleStrength     int    `json:"bubble_strength"`
	ExhaustionDetected bool   `json:"exhaustion_detected"`
	HTFTrend           string `json:"htf_trend"`
	StrictMode         bool   `json:"strict_mode"`
}

// NewTradeEvent opens a trade
type NewTradeEvent struct {
	ID             string
	Symbol         string
	Direction      Direction
	Timeframe      Timeframe
	TimeframeKnown bool
	RawTimeframe   string
	Market         MarketClass
	Entry          float64
	Meta           TradeMeta
}

func (e NewTradeEvent) Kind() EventKind { return EventNewTrade }
func (e NewTradeEvent) TradeID() string { return e.ID }

// TakeProfitEvent reports that a target level was filled
type TakeProfitEvent struct {
	ID        string
	Level     int
	Price     float64
	Symbol    string
	Direction string
}

func (e TakeProfitEvent) Kind() EventKind { return EventTPHit }
func (e TakeProfitEvent) TradeID() string { return e.ID }

// StopLossEvent reports that the stop was filled
type StopLossEvent struct {
	ID        string
	Price     float64
	Symbol    string
	Direction string
}

func (e StopLossEvent) Kind() EventKind { return EventSLHit }
func (e StopLossEvent) TradeID() string { return e.ID }

// rawEvent mirrors the webhook JSON. Alert templates often quote numbers,
// so numeric and boolean fields accept both forms.
type rawEvent struct {
	Event              string     `json:"event"`
	ID                 flexString `json:"id"`
	Symbol             string     `json:"symbol"`
	Direction          string     `json:"direction"`
	Timeframe          flexString `json:"timeframe"`
	Market             string     `json:"market"`
	Entry              *flexFloat `json:"entry"`
	Price              *flexFloat `json:"price"`
	Level              flexString `json:"level"`
	SignalType         string     `json:"signal_type"`
	Pattern            string     `json:"pattern"`
	Score              flexFloat  `json:"score"`
	Mode               string     `json:"mode"`
	Session            string     `json:"session"`
	BubbleStrength     flexFloat  `json:"bubble_strength"`
	ExhaustionDetected flexBool   `json:"exhaustion_detected"`
	HTFTrend           string     `json:"htf_trend"`
	StrictMode         flexBool   `json:"strict_mode"`
}

// ParseEvent decodes and validates a webhook body into a typed event.
// Every failure is a *ValidationError.
func ParseEvent(data []byte) (Event, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ValidationError{Field: "body", Reason: "empty payload"}
	}

	var raw rawEvent
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Field: "body", Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}

	id := strings.TrimSpace(string(raw.ID))
	if id == "" {
		return nil, &ValidationError{Field: "id", Reason: "missing"}
	}

	switch EventKind(strings.ToUpper(strings.TrimSpace(raw.Event))) {
	case EventNewTrade:
		return raw.newTrade(id)
	case EventTPHit:
		level, err := ParseLevel(string(raw.Level))
		if err != nil {
			return nil, err
		}
		price, err := requirePrice("price", raw.Price)
		if err != nil {
			return nil, err
		}
		return TakeProfitEvent{
			ID:        id,
			Level:     level,
			Price:     price,
			Symbol:    strings.TrimSpace(raw.Symbol),
			Direction: strings.TrimSpace(raw.Direction),
		}, nil
	case EventSLHit:
		price, err := requirePrice("price", raw.Price)
		if err != nil {
			return nil, err
		}
		return StopLossEvent{
			ID:        id,
			Price:     price,
			Symbol:    strings.TrimSpace(raw.Symbol),
			Direction: strings.TrimSpace(raw.Direction),
		}, nil
	case "":
		return nil, &ValidationError{Field: "event", Reason: "missing"}
	default:
		return nil, &ValidationError{Field: "event", Reason: "unknown event kind " + quote(raw.Event)}
	}
}

func (raw rawEvent) newTrade(id string) (Event, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return nil, &ValidationError{Field: "symbol", Reason: "missing"}
	}
	if strings.TrimSpace(raw.Direction) == "" {
		return nil, &ValidationError{Field: "direction", Reason: "missing"}
	}
	direction, err := ParseDirection(raw.Direction)
	if err != nil {
		return nil, err
	}
	entry, err := requirePrice("entry", raw.Entry)
	if err != nil {
		return nil, err
	}
	market, err := ParseMarketClass(raw.Market, symbol)
	if err != nil {
		return nil, err
	}

	tf, known := ParseTimeframe(string(raw.Timeframe))

	return NewTradeEvent{
		ID:             id,
		Symbol:         symbol,
		Direction:      direction,
		Timeframe:      tf,
		TimeframeKnown: known,
		RawTimeframe:   string(raw.Timeframe),
		Market:         market,
		Entry:          entry,
		Meta: TradeMeta{
			SignalType:         raw.SignalType,
			Pattern:            raw.Pattern,
			Score:              int(raw.Score),
			Mode:               raw.Mode,
			Session:            raw.Session,
			BubbleStrength:     int(raw.BubbleStrength),
			ExhaustionDetected: bool(raw.ExhaustionDetected),
			HTFTrend:           raw.HTFTrend,
			StrictMode:         bool(raw.StrictMode),
		},
	}, nil
}

// ParseLevel accepts "TP1", "tp2", "3" or a bare number
func ParseLevel(raw string) (int, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	s = strings.TrimPrefix(s, "TP")
	level, err := strconv.Atoi(s)
	if err != nil || level < 1 || level > 3 {
		return 0, &ValidationError{Field: "level", Reason: "expected TP1, TP2 or TP3, got " + quote(raw)}
	}
	return level, nil
}

func requirePrice(field string, v *flexFloat) (float64, error) {
	if v == nil {
		return 0, &ValidationError{Field: field, Reason: "missing"}
	}
	f := float64(*v)
	if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return 0, &ValidationError{Field: field, Reason: fmt.Sprintf("must be a positive price, got %v", f)}
	}
	return f, nil
}

type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*f = flexFloat(v)
	return nil
}

type flexBool bool

func (f *flexBool) UnmarshalJSON(b []byte) error {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(string(b)), `"`))
	switch s {
	case "true", "1", "yes":
		*f = true
	case "false", "0", "no", "", "null":
		*f = false
	default:
		return fmt.Errorf("not a boolean: %s", b)
	}
	return nil
}

// flexString keeps the text of a string or number value
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	*f = flexString(strings.TrimSpace(string(b)))
	return nil
}
