package main

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FilterPreset is the [filter] table: the form is pre-filled from it.
type FilterPreset struct {
	Kind   string `toml:"kind"`
	Limit  string `toml:"limit"`
	Author string `toml:"author"`
	Since  string `toml:"since"`
	Until  string `toml:"until"`
	Tags   string `toml:"tags"`
}

type Config struct {
	Relay          string       `toml:"relay"`
	Filter         FilterPreset `toml:"filter"`
	HistoryFile    string       `toml:"history_file"`
	HistorySize    int          `toml:"history_size"`
	History        *bool        `toml:"history"` // nil = default (true)
	HighlightStyle string       `toml:"highlight_style"`
}

// HistoryEnabled returns whether activations are recorded.
func (c Config) HistoryEnabled() bool {
	if c.History == nil {
		return true
	}
	return *c.History
}

// Input returns the preset as form input for the configured relay.
func (c Config) Input() RawFilterInput {
	return RawFilterInput{
		Relay:  c.Relay,
		Kind:   c.Filter.Kind,
		Limit:  c.Filter.Limit,
		Author: c.Filter.Author,
		Since:  c.Filter.Since,
		Until:  c.Filter.Until,
		Tags:   c.Filter.Tags,
	}
}

func defaultConfig() Config {
	return Config{
		HistorySize:    100,
		HighlightStyle: "monokai",
	}
}

func configPath(flagPath string) string {
	if flagPath != "" {
		return flagPath
	}
	if p := os.Getenv("RELAYMON_CONFIG"); p != "" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.toml"
	}
	return filepath.Join(home, ".config", "relaymon", "config.toml")
}

// historyPath returns the history file: the configured one, or "history"
// next to the config file.
func historyPath(cfg Config, cfgFlagPath string) string {
	if cfg.HistoryFile != "" {
		return cfg.HistoryFile
	}
	return filepath.Join(filepath.Dir(configPath(cfgFlagPath)), "history")
}

func LoadConfig(flagPath string) (Config, error) {
	cfg := defaultConfig()

	path := configPath(flagPath)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	if cfg.HistorySize <= 0 {
		cfg.HistorySize = 100
	}
	if cfg.HighlightStyle == "" {
		cfg.HighlightStyle = defaultConfig().HighlightStyle
	}

	return cfg, nil
}
