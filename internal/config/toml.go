// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Filter  FilterConfig  `toml:"filter"`
	Columns ColumnsConfig `toml:"columns"`
	Layout  LayoutConfig  `toml:"layout"`
	Log     LogConfig     `toml:"log"`
}

// FilterConfig maps filter engine settings.
type FilterConfig struct {
	FixationPrefix *string  `toml:"fixation-prefix"`
	SaccadePrefix  *string  `toml:"saccade-prefix"`
	NoiseThreshold *float64 `toml:"noise-threshold"`
	Conflicts      *string  `toml:"conflicts"`
	RegionsFile    *string  `toml:"regions-file"`
}

// ColumnsConfig overrides event table header names.
type ColumnsConfig struct {
	Type           *string `toml:"type"`
	Region         *string `toml:"region"`
	PreviousRegion *string `toml:"previous-region"`
	FirstPass      *string `toml:"first-pass"`
	RegionPass     *string `toml:"region-pass"`
	FixCountRegion *string `toml:"fix-count-region"`
	FixCountWord   *string `toml:"fix-count-word"`
	Condition      *string `toml:"condition"`
	Item           *string `toml:"item"`
	SaccStartX     *string `toml:"sacc-start-x"`
	SaccEndX       *string `toml:"sacc-end-x"`
	Category       *string `toml:"category"`
}

// LayoutConfig maps the sentence geometry used for interest-area labelling.
type LayoutConfig struct {
	Offset        *float64 `toml:"offset"`
	PixelsPerChar *float64 `toml:"ppc"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Format *string `toml:"format"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
