package config

import (
	"sort"
	"time"
)

// Presets are named pacings for the walkthrough.
var Presets = map[string]TimingConfig{
	"classroom": {StepDwell: 8 * time.Second, PhaseInterval: 1500 * time.Millisecond, ScrollDelay: 100 * time.Millisecond},
	"default":   {StepDwell: 4 * time.Second, PhaseInterval: 750 * time.Millisecond, ScrollDelay: 100 * time.Millisecond},
	"quick":     {StepDwell: 1500 * time.Millisecond, PhaseInterval: 300 * time.Millisecond, ScrollDelay: 50 * time.Millisecond},
}

// GetPreset returns the default config with the named pacing applied, or nil
// if there is no such preset.
func GetPreset(name string) *Config {
	t, ok := Presets[name]
	if !ok {
		return nil
	}
	cfg := DefaultConfig()
	cfg.Timing = t
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
