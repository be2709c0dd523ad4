package math

import (
	"math"
	"strings"

	"iccrelay-go/internal/model"

	"github.com/shopspring/decimal"
)

// RiskRewardRatio represents risk:reward ratio details
type RiskRewardRatio struct {
	Ratio            float64
	RiskAmount       float64
	RewardAmount     float64
	BreakEvenWinRate float64
}

// CalculateRiskReward calculates risk:reward ratio
func CalculateRiskReward(entryPrice, stopLoss, takeProfit float64) RiskRewardRatio {
	risk := math.Abs(entryPrice - stopLoss)
	reward := math.Abs(takeProfit - entryPrice)

	var ratio float64
	if risk == 0 {
		ratio = 0
	} else {
		ratio = reward / risk
	}

	// Break-even win rate = Risk / (Risk + Reward)
	breakEvenWinRate := 0.0
	if risk+reward > 0 {
		breakEvenWinRate = (risk / (risk + reward)) * 100
	}

	return RiskRewardRatio{
		Ratio:            ratio,
		RiskAmount:       risk,
		RewardAmount:     reward,
		BreakEvenWinRate: breakEvenWinRate,
	}
}

// PipSize returns the price value of one pip for a symbol
func PipSize(symbol string) float64 {
	s := strings.ToUpper(symbol)
	switch {
	case strings.Contains(s, "JPY"), strings.Contains(s, "XAU"), strings.Contains(s, "XAG"):
		return 0.01
	case strings.Contains(s, "BTC"):
		return 1.0
	case strings.Contains(s, "ETH"):
		return 0.1
	case strings.Contains(s, "SOL"):
		return 0.01
	}
	return 0.0001
}

// ComputePlan builds a plan from the built-in profiles
func ComputePlan(symbol string, entry float64, direction model.Direction, tf model.Timeframe, class model.MarketClass) model.TradePlan {
	return defaultProfiles.ComputePlan(symbol, entry, direction, tf, class)
}

// ComputePlan places the stop on the losing side of entry and three targets
// on the profit side at the timeframe's risk multiples. Distances in the plan
// are in pips for FOREX and raw points otherwise, rounded to one decimal;
// prices keep full precision.
func (p Profiles) ComputePlan(symbol string, entry float64, direction model.Direction, tf model.Timeframe, class model.MarketClass) model.TradePlan {
	stop := p.stopFor(tf)
	ratios := p.rewardFor(tf)
	if _, ok := p.Stops[tf]; !ok {
		tf = model.DefaultTimeframe
	}

	// scale converts native units (pips or points) into price distance
	pip := PipSize(symbol)
	scale := 1.0
	if class == model.MarketForex {
		scale = pip
	}

	sign := direction.Sign()
	stopNative := stop.BaseDistance(class)

	plan := model.TradePlan{
		Symbol:       symbol,
		Direction:    direction,
		Timeframe:    tf,
		MarketClass:  class,
		EntryPrice:   entry,
		StopLoss:     entry - sign*stopNative*scale,
		StopDistance: displayRound(stopNative),
		PipSize:      pip,
	}

	for i, r := range ratios {
		native := stopNative * r
		plan.TakeProfits[i] = model.TakeProfitLevel{
			Level:    i + 1,
			Price:    entry + sign*native*scale,
			Distance: displayRound(native),
			Ratio:    r,
		}
	}

	rr := CalculateRiskReward(entry, plan.StopLoss, plan.TakeProfits[2].Price)
	plan.BreakEvenWinRate = displayRound(rr.BreakEvenWinRate)

	return plan
}

func displayRound(v float64) float64 {
	return decimal.NewFromFloat(v).Round(1).InexactFloat64()
}
