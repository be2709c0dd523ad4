package service

import (
	"time"
)

// TradingSession represents different market sessions
type TradingSession string

const (
	SessionAsia     TradingSession = "ASIA"
	SessionLondon   TradingSession = "LONDON"
	SessionNY       TradingSession = "NEW_YORK"
	SessionOverlap  TradingSession = "LONDON_NY_OVERLAP"
	SessionDeadZone TradingSession = "DEAD_ZONE"
)

// SessionInfo contains session details
type SessionInfo struct {
	Session    TradingSession
	Name       string
	Volatility string // LOW, MEDIUM, HIGH
}

// SessionAt returns the trading session active at t
// Sessions (UTC):
// - Asia: 00:00 - 08:00
// - London: 08:00 - 13:00
// - London-NY Overlap: 13:00 - 16:00
// - NY: 16:00 - 21:00
// - Dead Zone: 21:00 - 00:00
func SessionAt(t time.Time) SessionInfo {
	hour := t.UTC().Hour()

	switch {
	case hour >= 13 && hour < 16:
		return SessionInfo{Session: SessionOverlap, Name: "London-NY Overlap", Volatility: "HIGH"}
	case hour >= 8 && hour < 13:
		return SessionInfo{Session: SessionLondon, Name: "London", Volatility: "HIGH"}
	case hour >= 16 && hour < 21:
		return SessionInfo{Session: SessionNY, Name: "New York", Volatility: "HIGH"}
	case hour < 8:
		return SessionInfo{Session: SessionAsia, Name: "Asia", Volatility: "MEDIUM"}
	default:
		return SessionInfo{Session: SessionDeadZone, Name: "Dead Zone", Volatility: "LOW"}
	}
}

// GetCurrentSession returns the current trading session based on UTC time
func GetCurrentSession() SessionInfo {
	return SessionAt(time.Now())
}
