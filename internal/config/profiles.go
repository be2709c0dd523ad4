package config

import (
	"fmt"
	"os"

	internalmath "iccrelay-go/internal/math"
	"iccrelay-go/internal/model"

	"gopkg.in/yaml.v3"
)

// profilesFile is the YAML layout of PROFILES_FILE. Timeframe keys accept the
// same aliases as webhook payloads ("15", "m15", "15m").
type profilesFile struct {
	Stops   map[string]internalmath.StopProfile   `yaml:"stops"`
	Rewards map[string]internalmath.RewardProfile `yaml:"rewards"`
}

// LoadProfiles returns the built-in profile tables overlaid with the entries
// of path. An empty path returns the defaults unchanged.
func LoadProfiles(path string) (internalmath.Profiles, error) {
	profiles := internalmath.DefaultProfiles()
	if path == "" {
		return profiles, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return internalmath.Profiles{}, fmt.Errorf("reading profiles file: %w", err)
	}

	var raw profilesFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return internalmath.Profiles{}, fmt.Errorf("parsing profiles file %s: %w", path, err)
	}

	override := internalmath.Profiles{
		Stops:   make(map[model.Timeframe]internalmath.StopProfile, len(raw.Stops)),
		Rewards: make(map[model.Timeframe]internalmath.RewardProfile, len(raw.Rewards)),
	}
	for key, s := range raw.Stops {
		tf, ok := model.ParseTimeframe(key)
		if !ok {
			return internalmath.Profiles{}, fmt.Errorf("profiles file %s: unknown timeframe %q", path, key)
		}
		override.Stops[tf] = s
	}
	for key, r := range raw.Rewards {
		tf, ok := model.ParseTimeframe(key)
		if !ok {
			return internalmath.Profiles{}, fmt.Errorf("profiles file %s: unknown timeframe %q", path, key)
		}
		override.Rewards[tf] = r
	}

	profiles = profiles.Merge(override)
	if err := profiles.Validate(); err != nil {
		return internalmath.Profiles{}, fmt.Errorf("profiles file %s: %w", path, err)
	}
	return profiles, nil
}
