package math

import (
	"math"
	"testing"

	"iccrelay-go/internal/model"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var classes = []model.MarketClass{model.MarketForex, model.MarketCrypto, model.MarketCommodity, model.MarketIndex}

func TestComputePlan_EURUSDLongM15(t *testing.T) {
	plan := ComputePlan("EURUSD", 1.1000, model.DirectionLong, model.TimeframeM15, model.MarketForex)

	assert.InDelta(t, 1.09920, plan.StopLoss, 1e-9)
	assert.InDelta(t, 1.10160, plan.TakeProfits[0].Price, 1e-9)
	assert.InDelta(t, 1.10240, plan.TakeProfits[1].Price, 1e-9)
	assert.InDelta(t, 1.10320, plan.TakeProfits[2].Price, 1e-9)

	assert.Equal(t, 8.0, plan.StopDistance)
	assert.Equal(t, 16.0, plan.TakeProfits[0].Distance)
	assert.Equal(t, 24.0, plan.TakeProfits[1].Distance)
	assert.Equal(t, 32.0, plan.TakeProfits[2].Distance)
	assert.Equal(t, []float64{2, 3, 4}, []float64{
		plan.TakeProfits[0].Ratio, plan.TakeProfits[1].Ratio, plan.TakeProfits[2].Ratio,
	})
	assert.Equal(t, 0.0001, plan.PipSize)
	assert.InDelta(t, 20.0, plan.BreakEvenWinRate, 0.05)
}

func TestComputePlan_ShortPointsIgnorePipSize(t *testing.T) {
	plan := ComputePlan("BTCUSDT", 60000, model.DirectionShort, model.TimeframeH1, model.MarketCrypto)

	assert.Equal(t, 60400.0, plan.StopLoss)
	assert.Equal(t, 59200.0, plan.TakeProfits[0].Price)
	assert.Equal(t, 58600.0, plan.TakeProfits[1].Price)
	assert.Equal(t, 58000.0, plan.TakeProfits[2].Price)
	assert.Equal(t, 400.0, plan.StopDistance)
}

func TestComputePlan_CommodityUsesGoldPoints(t *testing.T) {
	plan := ComputePlan("XAUUSD", 2400, model.DirectionLong, model.TimeframeM5, model.MarketCommodity)

	assert.InDelta(t, 2398.0, plan.StopLoss, 1e-9)
	assert.InDelta(t, 2404.0, plan.TakeProfits[0].Price, 1e-9)
	assert.Equal(t, 2.0, plan.StopDistance)
}

func TestComputePlan_JPYForexPipSize(t *testing.T) {
	plan := ComputePlan("USDJPY", 150.00, model.DirectionShort, model.TimeframeM5, model.MarketForex)

	assert.InDelta(t, 150.05, plan.StopLoss, 1e-9)
	assert.InDelta(t, 149.90, plan.TakeProfits[0].Price, 1e-9)
	assert.Equal(t, 5.0, plan.StopDistance)
}

func TestComputePlan_UnknownTimeframeFallsBackToM5(t *testing.T) {
	unknown := ComputePlan("EURUSD", 1.2, model.DirectionLong, model.Timeframe("W1"), model.MarketForex)
	m5 := ComputePlan("EURUSD", 1.2, model.DirectionLong, model.TimeframeM5, model.MarketForex)

	assert.Equal(t, m5, unknown)
	assert.Equal(t, model.TimeframeM5, unknown.Timeframe)
}

func TestPipSize(t *testing.T) {
	tests := []struct {
		symbol string
		want   float64
	}{
		{"EURUSD", 0.0001},
		{"GBPJPY", 0.01},
		{"XAUUSD", 0.01},
		{"XAGUSD", 0.01},
		{"BTCUSDT", 1.0},
		{"ETHUSD", 0.1},
		{"SOLUSDT", 0.01},
		{"audcad", 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			assert.Equal(t, tt.want, PipSize(tt.symbol))
		})
	}
}

func TestDisplayRound(t *testing.T) {
	assert.Equal(t, 12.3, displayRound(12.345))
	assert.Equal(t, 7.5, displayRound(7.45))
	assert.Equal(t, 4.0, displayRound(4))
}

func TestDefaultProfilesAreValid(t *testing.T) {
	p := DefaultProfiles()
	require.NoError(t, p.Validate())

	for _, tf := range model.Timeframes {
		_, ok := p.Stops[tf]
		assert.True(t, ok, "stop profile for %s", tf)
		_, ok = p.Rewards[tf]
		assert.True(t, ok, "reward profile for %s", tf)
	}
}

func TestProfilesValidate_RejectsBadTables(t *testing.T) {
	p := DefaultProfiles().Merge(Profiles{
		Stops:   map[model.Timeframe]StopProfile{model.TimeframeH1: {Pips: 0, CryptoPoints: 10, GoldPoints: 1}},
		Rewards: map[model.Timeframe]RewardProfile{model.TimeframeH4: {3, 2, 4}},
	})

	err := p.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "H1")
	assert.Contains(t, err.Error(), "strictly increasing")

	missing := Profiles{Stops: map[model.Timeframe]StopProfile{}, Rewards: map[model.Timeframe]RewardProfile{}}
	assert.Error(t, missing.Validate())
}

func TestProfilesMerge_DoesNotMutateDefaults(t *testing.T) {
	base := DefaultProfiles()
	merged := base.Merge(Profiles{
		Stops: map[model.Timeframe]StopProfile{model.TimeframeM15: {Pips: 10, CryptoPoints: 200, GoldPoints: 4}},
	})

	assert.Equal(t, 10.0, merged.Stops[model.TimeframeM15].Pips)
	assert.Equal(t, 8.0, base.Stops[model.TimeframeM15].Pips)
	assert.Equal(t, 8.0, DefaultProfiles().Stops[model.TimeframeM15].Pips)

	plan := merged.ComputePlan("EURUSD", 1.1, model.DirectionLong, model.TimeframeM15, model.MarketForex)
	assert.InDelta(t, 1.0990, plan.StopLoss, 1e-9)
}

func planGen() []gopter.Gen {
	return []gopter.Gen{
		gen.IntRange(0, len(model.Timeframes)), // last index means an unknown timeframe
		gen.IntRange(0, len(classes)-1),
		gen.Bool(),
		gen.Float64Range(0.5, 100000),
	}
}

func planFor(tfIdx, classIdx int, long bool, entry float64) model.TradePlan {
	tf := model.Timeframe("UNKNOWN")
	if tfIdx < len(model.Timeframes) {
		tf = model.Timeframes[tfIdx]
	}
	dir := model.DirectionShort
	if long {
		dir = model.DirectionLong
	}
	return ComputePlan("EURUSD", entry, dir, tf, classes[classIdx])
}

func TestProperty_TakeProfitsIncreaseOnProfitSide(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	properties.Property("targets are strictly further from entry and opposite the stop", prop.ForAll(
		func(tfIdx, classIdx int, long bool, entry float64) bool {
			plan := planFor(tfIdx, classIdx, long, entry)
			stopSide := math.Signbit(plan.StopLoss - entry)

			prev := 0.0
			for i, tp := range plan.TakeProfits {
				if tp.Level != i+1 {
					return false
				}
				offset := tp.Price - entry
				if offset == 0 || math.Signbit(offset) == stopSide {
					return false
				}
				if math.Abs(offset) <= prev {
					return false
				}
				prev = math.Abs(offset)
			}
			return true
		},
		planGen()...,
	))

	properties.TestingRun(t)
}

func TestProperty_StopOnLosingSide(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("long stops below entry, short stops above", prop.ForAll(
		func(tfIdx, classIdx int, long bool, entry float64) bool {
			plan := planFor(tfIdx, classIdx, long, entry)
			if long {
				return plan.StopLoss < entry
			}
			return plan.StopLoss > entry
		},
		planGen()...,
	))

	properties.TestingRun(t)
}

func TestProperty_ComputePlanDeterministic(t *testing.T) {
	properties := gopter.NewProperties(gopter.DefaultTestParameters())

	properties.Property("same inputs give identical plans", prop.ForAll(
		func(tfIdx, classIdx int, long bool, entry float64) bool {
			a := planFor(tfIdx, classIdx, long, entry)
			b := planFor(tfIdx, classIdx, long, entry)
			return a == b
		},
		planGen()...,
	))

	properties.TestingRun(t)
}
