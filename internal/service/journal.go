package service

import (
	"context"

	"iccrelay-go/internal/model"
)

// Journal persists trade state and window summaries. Trades are upserted by
// id, so a reused id overwrites the row of the earlier trade.
type Journal interface {
	SaveTrade(ctx context.Context, trade model.Trade) error
	SaveSummary(ctx context.Context, stats model.WindowStats) error
	Close() error
}

// NopJournal discards everything. It backs JOURNAL_DRIVER=none.
type NopJournal struct{}

func (NopJournal) SaveTrade(context.Context, model.Trade) error { return nil }
func (NopJournal) SaveSummary(context.Context, model.WindowStats) error { return nil }
func (NopJournal) Close() error { return nil }
