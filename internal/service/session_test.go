package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionAt(t *testing.T) {
	tests := []struct {
		hour int
		want TradingSession
	}{
		{0, SessionAsia},
		{7, SessionAsia},
		{8, SessionLondon},
		{12, SessionLondon},
		{13, SessionOverlap},
		{15, SessionOverlap},
		{16, SessionNY},
		{20, SessionNY},
		{21, SessionDeadZone},
		{23, SessionDeadZone},
	}

	for _, tt := range tests {
		at := time.Date(2026, 3, 2, tt.hour, 30, 0, 0, time.UTC)
		assert.Equal(t, tt.want, SessionAt(at).Session, "hour %d", tt.hour)
	}

	// non-UTC input is converted first
	dhaka := time.FixedZone("BST", 6*3600)
	assert.Equal(t, SessionAsia, SessionAt(time.Date(2026, 3, 2, 9, 0, 0, 0, dhaka)).Session)
}
