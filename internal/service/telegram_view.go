package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"iccrelay-go/internal/model"
)

const divider = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// priceDecimals picks display precision from the symbol, falling back to the
// magnitude of the price for small-cap crypto
func priceDecimals(symbol string, price float64) int {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "XAU"), strings.Contains(s, "XAG"),
		strings.Contains(s, "BTC"), strings.Contains(s, "ETH"):
		return 2
	case strings.Contains(s, "JPY"):
		return 3
	case model.InferMarketClass(s) == model.MarketForex:
		return 5
	}

	switch {
	case price < 0.00001:
		return 8
	case price < 0.0001:
		return 7
	case price < 0.001:
		return 6
	case price < 0.01:
		return 5
	case price < 0.1:
		return 4
	case price < 1:
		return 3
	}
	return 2
}

// FormatPrice renders a price with symbol-appropriate precision
func FormatPrice(symbol string, price float64) string {
	return fmt.Sprintf("%.*f", priceDecimals(symbol, price), price)
}

// formatNewTradeMessage renders the entry card with the computed stop and targets
func formatNewTradeMessage(trade model.Trade, plan model.TradePlan) string {
	directionEmoji, directionText, headerEmoji := "🟢", "LONG / BUY", "🚀"
	if trade.Direction == model.DirectionShort {
		directionEmoji, directionText, headerEmoji = "🔴", "SHORT / SELL", "📉"
	}

	typeEmoji := "➡️"
	if strings.EqualFold(trade.SignalType, "REVERSAL") {
		typeEmoji = "🔄"
	}

	var bubbleText string
	switch {
	case trade.BubbleStrength >= 3:
		bubbleText = "⚡⚡⚡ LEVEL 3 (INSTITUTIONAL!)"
	case trade.BubbleStrength == 2:
		bubbleText = "⚡⚡ LEVEL 2 (STRONG)"
	default:
		bubbleText = "⚡ LEVEL 1"
	}

	exhaustionText := "None"
	if trade.ExhaustionDetected {
		exhaustionText = "⚠️ DETECTED"
	}

	scoreEmoji, quality := "🔥", "GOOD"
	if trade.Score >= 95 {
		scoreEmoji, quality = "🔥🔥🔥", "EXCEPTIONAL"
	} else if trade.Score >= 90 {
		scoreEmoji, quality = "🔥🔥", "EXCELLENT"
	}

	modeText := "⚖️ BALANCED"
	if trade.StrictMode {
		modeText = "🎯 STRICT ELITE"
	}

	unit := "pts"
	if plan.MarketClass == model.MarketForex {
		unit = "pips"
	}

	fp := func(p float64) string { return FormatPrice(trade.Symbol, p) }
	tp := plan.TakeProfits

	return fmt.Sprintf(`<b>⚡ ICC SIGNAL • %s</b>
%s

%s <b>%s • %s</b>
%s <b>%s</b>
%s <b>%s</b> • %s
🆔 <code>%s</code>

<b>📊 ENTRY</b>
├ Entry: <code>%s</code>
├ SL: <code>%s</code>
└ Risk: %.1f %s

<b>🎯 TARGETS</b>
1️⃣ <code>%s</code> (%.1fR • %.1f %s)
2️⃣ <code>%s</code> (%.1fR • %.1f %s)
3️⃣ <code>%s</code> (%.1fR • %.1f %s)
⚖️ Break-even WR: %.1f%%

<b>🧠 ANALYSIS</b>
├ Score: %s %d/100 (%s)
├ Session: %s
└ HTF: %s

<b>💎 SMART MONEY</b>
├ Bubble: %s
└ Exhaustion: %s

<b>📋 MANAGEMENT</b>
├ <i>TP1: Move SL to BE</i>
├ <i>TP2: Trail SL</i>
└ <i>TP3: Full target</i>

<i>%s</i>
%s
#%s #%s`,
		modeText,
		divider,
		headerEmoji, escapeHTML(trade.Symbol), plan.Timeframe,
		directionEmoji, directionText,
		typeEmoji, escapeHTML(orUnknown(trade.SignalType)), escapeHTML(orUnknown(trade.Pattern)),
		escapeHTML(trade.ID),
		fp(plan.EntryPrice),
		fp(plan.StopLoss),
		plan.StopDistance, unit,
		fp(tp[0].Price), tp[0].Ratio, tp[0].Distance, unit,
		fp(tp[1].Price), tp[1].Ratio, tp[1].Distance, unit,
		fp(tp[2].Price), tp[2].Ratio, tp[2].Distance, unit,
		plan.BreakEvenWinRate,
		scoreEmoji, trade.Score, quality,
		escapeHTML(orUnknown(trade.Session)),
		escapeHTML(orUnknown(trade.HTFTrend)),
		bubbleText,
		exhaustionText,
		trade.Timestamp.UTC().Format("2006-01-02 15:04 UTC"),
		divider,
		hashtag(trade.Symbol), trade.Direction,
	)
}

// formatTakeProfitMessage renders the TP1/TP2/TP3 notification
func formatTakeProfitMessage(trade model.Trade, level int, price float64) string {
	symbol := escapeHTML(orUnknown(trade.Symbol))
	direction := escapeHTML(orUnknown(string(trade.Direction)))
	p := FormatPrice(trade.Symbol, price)

	switch level {
	case 1:
		return fmt.Sprintf(`<b>💰 TP1 HIT: %s</b>
%s

<b>Level:</b> TP1
<b>Direction:</b> %s
<b>Price:</b> <code>%s</code>
<b>Profit:</b> +%.1fR

<b>⚡ ACTION:</b>
<b>→ MOVE SL TO BREAKEVEN NOW</b>

<i>Next: TP2 (+%.1fR)</i>
%s
#%s #TP1`, symbol, divider, direction, p, model.ProfitRTP1, model.ProfitRTP2, divider, hashtag(trade.Symbol))
	case 2:
		return fmt.Sprintf(`<b>💰💰 TP2 HIT: %s</b>
%s

<b>Level:</b> TP2
<b>Direction:</b> %s
<b>Price:</b> <code>%s</code>
<b>Profit:</b> +%.1fR

<b>⚡ OPTIONS:</b>
→ Take 50%% profit
→ Trail SL to TP1

<i>Next: TP3 (+%.1fR)</i>
%s
#%s #TP2`, symbol, divider, direction, p, model.ProfitRTP2, model.ProfitRTP3, divider, hashtag(trade.Symbol))
	default:
		return fmt.Sprintf(`<b>🚀🔥 TP3 - FULL TARGET!</b>
%s

<b>%s ✨</b>

<b>Level:</b> TP3 (FULL)
<b>Direction:</b> %s
<b>Price:</b> <code>%s</code>
<b>Profit:</b> <b>+%.1fR</b> 🎉

<b>🏆 TRADE CLOSED</b>
%s
#%s #TP3 #Winner`, divider, symbol, direction, p, model.ProfitRTP3, divider, hashtag(trade.Symbol))
	}
}

func formatStopLossMessage(trade model.Trade, price float64) string {
	return fmt.Sprintf(`<b>❌ SL HIT: %s</b>
%s

<b>Direction:</b> %s
<b>Price:</b> <code>%s</code>
<b>Loss:</b> %.1fR

Controlled loss. <i>Wait for next signal.</i>
%s
#%s #SL`,
		escapeHTML(orUnknown(trade.Symbol)), divider,
		escapeHTML(orUnknown(string(trade.Direction))),
		FormatPrice(trade.Symbol, price),
		model.ProfitRSL,
		divider, hashtag(trade.Symbol))
}

// formatSummaryMessage renders a daily or weekly window summary
func formatSummaryMessage(stats model.WindowStats) string {
	title := "📊 DAILY SUMMARY"
	tag := "#Daily"
	if stats.Window == model.WindowWeekly {
		title = "📊 WEEKLY SUMMARY"
		tag = "#Weekly"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n%s\n\n", title, divider)

	switch {
	case stats.NoTrades:
		if stats.Window == model.WindowWeekly {
			b.WriteString("No trades this week.\n")
		} else {
			b.WriteString("No trades today.\n\nQuality over quantity.\n")
		}
		fmt.Fprintf(&b, "\n%s", divider)
		return b.String()
	case stats.ClosedTrades == 0:
		fmt.Fprintf(&b, "Signals: %d\nActive: %d\n\nTrades still running.\n\n%s", stats.TotalSignals, stats.ActiveTrades, divider)
		return b.String()
	}

	fmt.Fprintf(&b, "Signals: %d\nClosed: %d\nActive: %d\n\n", stats.TotalSignals, stats.ClosedTrades, stats.ActiveTrades)
	fmt.Fprintf(&b, "%s Win Rate: %.1f%%\nTotal R: %+.1fR\nAvg R: %+.2fR\n", winRateEmoji(stats), stats.WinRate, stats.TotalR, stats.AvgR)
	fmt.Fprintf(&b, "Profit Factor: %.2f\nMax DD: %.1fR\n\n", stats.ProfitFactor, stats.MaxDrawdownR)
	fmt.Fprintf(&b, "TP3: %d\nTP2: %d\nTP1: %d\nSL: %d\n", stats.TP3Count, stats.TP2Count, stats.TP1Count, stats.SLCount)

	if len(stats.BySymbol) > 0 {
		symbols := make([]string, 0, len(stats.BySymbol))
		for sym := range stats.BySymbol {
			symbols = append(symbols, sym)
		}
		sort.Strings(symbols)

		b.WriteString("\n<b>By Asset:</b>\n")
		for _, sym := range symbols {
			s := stats.BySymbol[sym]
			fmt.Fprintf(&b, "├ %s: %dW/%dL (%+.1fR)\n", escapeHTML(sym), s.Wins, s.Losses, s.TotalR)
		}
	}

	fmt.Fprintf(&b, "\n%s\n%s\n%s #ICC", stats.GeneratedAt.UTC().Format("2006-01-02"), divider, tag)
	return b.String()
}

func winRateEmoji(stats model.WindowStats) string {
	if stats.Window == model.WindowWeekly {
		switch {
		case stats.WinRate >= 85:
			return "🔥🔥🔥"
		case stats.WinRate >= 75:
			return "🔥🔥"
		}
		return "🔥"
	}
	if stats.WinRate >= 80 {
		return "🔥"
	}
	return "✅"
}

// formatActiveMessage lists active trades, at most ten
func formatActiveMessage(trades []model.Trade, now time.Time) string {
	if len(trades) == 0 {
		return "<b>📊 Active Trades</b>\n\nNo active trades."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>📊 Active Trades (%d)</b>\n\n", len(trades))
	for i, t := range trades {
		if i >= 10 { // Limit to 10 trades
			fmt.Fprintf(&b, "... and %d more", len(trades)-10)
			break
		}

		emoji := "🟢"
		if t.Direction == model.DirectionShort {
			emoji = "🔴"
		}
		progress := "⏳"
		switch {
		case t.TP2Hit:
			progress = "💰💰 TP2"
		case t.TP1Hit:
			progress = "💰 TP1"
		}

		fmt.Fprintf(&b, "%s <b>%s %s</b> • %s\nEntry: %s | SL: %s\nTP: %s / %s / %s\n%s • %s ago\n\n",
			emoji, escapeHTML(t.Symbol), t.Direction, t.Timeframe,
			FormatPrice(t.Symbol, t.Entry), FormatPrice(t.Symbol, t.StopLoss),
			FormatPrice(t.Symbol, t.TP1), FormatPrice(t.Symbol, t.TP2), FormatPrice(t.Symbol, t.TP3),
			progress, now.Sub(t.Timestamp).Truncate(time.Minute))
	}
	return strings.TrimRight(b.String(), "\n")
}

const helpMessage = `🤖 <b>ICC Relay - Help</b>

<b>📊 Commands:</b>
/daily - Today's running summary
/weekly - This week's running summary
/active - Active trades
/help - This message

Summaries are also posted automatically at the end of each day and week.`

// escapeHTML escapes HTML special characters for Telegram
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "UNKNOWN"
	}
	return s
}

// hashtag strips characters Telegram does not allow in tags
func hashtag(symbol string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(symbol) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "UNKNOWN"
	}
	return b.String()
}
