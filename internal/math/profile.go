package math

import (
	"fmt"

	"iccrelay-go/internal/model"

	"go.uber.org/multierr"
)

// StopProfile holds the base stop distance of a timeframe for each asset column
type StopProfile struct {
	Pips         float64 `yaml:"pips" json:"pips"`
	CryptoPoints float64 `yaml:"crypto_points" json:"crypto_points"`
	GoldPoints   float64 `yaml:"gold_points" json:"gold_points"`
}

// RewardProfile is the ordered risk multiples used for TP1..TP3
type RewardProfile [3]float64

// Profiles maps each timeframe to its stop and reward profile
type Profiles struct {
	Stops   map[model.Timeframe]StopProfile   `yaml:"stops" json:"stops"`
	Rewards map[model.Timeframe]RewardProfile `yaml:"rewards" json:"rewards"`
}

var defaultProfiles = Profiles{
	Stops: map[model.Timeframe]StopProfile{
		model.TimeframeM1:  {Pips: 3, CryptoPoints: 50, GoldPoints: 1.0},
		model.TimeframeM3:  {Pips: 4, CryptoPoints: 80, GoldPoints: 1.5},
		model.TimeframeM5:  {Pips: 5, CryptoPoints: 100, GoldPoints: 2.0},
		model.TimeframeM15: {Pips: 8, CryptoPoints: 150, GoldPoints: 3.0},
		model.TimeframeM30: {Pips: 12, CryptoPoints: 250, GoldPoints: 4.5},
		model.TimeframeH1:  {Pips: 18, CryptoPoints: 400, GoldPoints: 6.0},
		model.TimeframeH4:  {Pips: 35, CryptoPoints: 800, GoldPoints: 12.0},
		model.TimeframeD1:  {Pips: 70, CryptoPoints: 1500, GoldPoints: 25.0},
	},
	Rewards: map[model.Timeframe]RewardProfile{
		model.TimeframeM1:  {1.5, 2.0, 3.0},
		model.TimeframeM3:  {1.5, 2.5, 3.5},
		model.TimeframeM5:  {2.0, 3.0, 4.0},
		model.TimeframeM15: {2.0, 3.0, 4.0},
		model.TimeframeM30: {2.0, 3.0, 4.5},
		model.TimeframeH1:  {2.0, 3.5, 5.0},
		model.TimeframeH4:  {2.5, 4.0, 6.0},
		model.TimeframeD1:  {3.0, 5.0, 8.0},
	},
}

// DefaultProfiles returns a copy of the built-in profile tables
func DefaultProfiles() Profiles {
	p := Profiles{
		Stops:   make(map[model.Timeframe]StopProfile, len(defaultProfiles.Stops)),
		Rewards: make(map[model.Timeframe]RewardProfile, len(defaultProfiles.Rewards)),
	}
	for tf, s := range defaultProfiles.Stops {
		p.Stops[tf] = s
	}
	for tf, r := range defaultProfiles.Rewards {
		p.Rewards[tf] = r
	}
	return p
}

// Merge overlays the entries of other on top of p
func (p Profiles) Merge(other Profiles) Profiles {
	out := Profiles{
		Stops:   make(map[model.Timeframe]StopProfile),
		Rewards: make(map[model.Timeframe]RewardProfile),
	}
	for tf, s := range p.Stops {
		out.Stops[tf] = s
	}
	for tf, r := range p.Rewards {
		out.Rewards[tf] = r
	}
	for tf, s := range other.Stops {
		out.Stops[tf] = s
	}
	for tf, r := range other.Rewards {
		out.Rewards[tf] = r
	}
	return out
}

// Validate checks every timeframe has positive stops and strictly
// increasing positive ratios. The default timeframe must be present since it
// is the fallback for unknown timeframes.
func (p Profiles) Validate() error {
	var err error

	if _, ok := p.Stops[model.DefaultTimeframe]; !ok {
		err = multierr.Append(err, fmt.Errorf("stop profile for default timeframe %s is missing", model.DefaultTimeframe))
	}
	if _, ok := p.Rewards[model.DefaultTimeframe]; !ok {
		err = multierr.Append(err, fmt.Errorf("reward profile for default timeframe %s is missing", model.DefaultTimeframe))
	}

	for tf, s := range p.Stops {
		if s.Pips <= 0 || s.CryptoPoints <= 0 || s.GoldPoints <= 0 {
			err = multierr.Append(err, fmt.Errorf("stop profile %s: distances must be positive", tf))
		}
	}
	for tf, r := range p.Rewards {
		if r[0] <= 0 {
			err = multierr.Append(err, fmt.Errorf("reward profile %s: ratios must be positive", tf))
		}
		if !(r[0] < r[1] && r[1] < r[2]) {
			err = multierr.Append(err, fmt.Errorf("reward profile %s: ratios must be strictly increasing, got %v", tf, r))
		}
	}

	return err
}

// stopFor returns the stop profile of tf, falling back to the default timeframe
func (p Profiles) stopFor(tf model.Timeframe) StopProfile {
	if s, ok := p.Stops[tf]; ok {
		return s
	}
	return p.Stops[model.DefaultTimeframe]
}

// rewardFor returns the reward profile of tf, falling back to the default timeframe
func (p Profiles) rewardFor(tf model.Timeframe) RewardProfile {
	if r, ok := p.Rewards[tf]; ok {
		return r
	}
	return p.Rewards[model.DefaultTimeframe]
}

// BaseDistance picks the class-appropriate column: pips for FOREX, gold
// points for COMMODITY, crypto points for CRYPTO and INDEX.
func (s StopProfile) BaseDistance(class model.MarketClass) float64 {
	switch class {
	case model.MarketForex:
		return s.Pips
	case model.MarketCommodity:
		return s.GoldPoints
	default:
		return s.CryptoPoints
	}
}
