package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"cashcast/internal/forecast"
)

// LoadTuning reads engine tuning overrides from a TOML file on top of
// forecast.DefaultTuning. An empty path returns the defaults; unknown keys
// are an error.
func LoadTuning(path string) (forecast.Tuning, error) {
	tuning := forecast.DefaultTuning()
	if path == "" {
		return tuning, nil
	}

	meta, err := toml.DecodeFile(path, &tuning)
	if err != nil {
		return forecast.Tuning{}, fmt.Errorf("parse engine tuning %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return forecast.Tuning{}, fmt.Errorf("unknown engine tuning keys in %s: %v", path, undecoded)
	}
	if err := tuning.Validate(); err != nil {
		return forecast.Tuning{}, err
	}
	return tuning, nil
}
