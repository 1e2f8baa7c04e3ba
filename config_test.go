package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Relay != "" {
		t.Errorf("default relay = %q, want empty", cfg.Relay)
	}
	if cfg.HistorySize != 100 {
		t.Errorf("HistorySize = %d, want 100", cfg.HistorySize)
	}
	if cfg.HighlightStyle != "monokai" {
		t.Errorf("HighlightStyle = %q, want %q", cfg.HighlightStyle, "monokai")
	}
	if !cfg.HistoryEnabled() {
		t.Error("history should be enabled by default")
	}
}

func TestConfigPath(t *testing.T) {
	t.Run("flag takes priority", func(t *testing.T) {
		got := configPath("/my/flag/path.toml")
		if got != "/my/flag/path.toml" {
			t.Errorf("configPath with flag = %q, want %q", got, "/my/flag/path.toml")
		}
	})

	t.Run("env var when no flag", func(t *testing.T) {
		t.Setenv("RELAYMON_CONFIG", "/env/path.toml")
		got := configPath("")
		if got != "/env/path.toml" {
			t.Errorf("configPath with env = %q, want %q", got, "/env/path.toml")
		}
	})

	t.Run("default when no flag or env", func(t *testing.T) {
		t.Setenv("RELAYMON_CONFIG", "")
		got := configPath("")
		home, err := os.UserHomeDir()
		if err != nil {
			t.Fatalf("os.UserHomeDir() failed: %v", err)
		}
		want := filepath.Join(home, ".config", "relaymon", "config.toml")
		if got != want {
			t.Errorf("configPath default = %q, want %q", got, want)
		}
	})
}

func TestHistoryPath(t *testing.T) {
	t.Run("configured file wins", func(t *testing.T) {
		cfg := Config{HistoryFile: "/tmp/h"}
		if got := historyPath(cfg, "/etc/relaymon/config.toml"); got != "/tmp/h" {
			t.Errorf("historyPath = %q, want %q", got, "/tmp/h")
		}
	})

	t.Run("next to config file", func(t *testing.T) {
		got := historyPath(Config{}, "/etc/relaymon/config.toml")
		if got != "/etc/relaymon/history" {
			t.Errorf("historyPath = %q, want %q", got, "/etc/relaymon/history")
		}
	})
}

func TestLoadConfig(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		dir := t.TempDir()
		cfg, err := LoadConfig(filepath.Join(dir, "nonexistent.toml"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HistorySize != 100 {
			t.Errorf("HistorySize = %d, want 100", cfg.HistorySize)
		}
	})

	t.Run("valid TOML parses", func(t *testing.T) {
		dir := t.TempDir()
		cfgFile := filepath.Join(dir, "config.toml")
		content := `
relay = "relay.example.com"
history_size = 20
history = false
highlight_style = "dracula"

[filter]
kind = "1"
limit = "10"
tags = "t:nostr"
`
		if err := os.WriteFile(cfgFile, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Relay != "relay.example.com" {
			t.Errorf("Relay = %q, want %q", cfg.Relay, "relay.example.com")
		}
		if cfg.HistorySize != 20 {
			t.Errorf("HistorySize = %d, want 20", cfg.HistorySize)
		}
		if cfg.HistoryEnabled() {
			t.Error("history should be disabled")
		}
		if cfg.HighlightStyle != "dracula" {
			t.Errorf("HighlightStyle = %q, want %q", cfg.HighlightStyle, "dracula")
		}

		in := cfg.Input()
		want := RawFilterInput{Relay: "relay.example.com", Kind: "1", Limit: "10", Tags: "t:nostr"}
		if in != want {
			t.Errorf("Input() = %+v, want %+v", in, want)
		}
	})

	t.Run("zero history_size gets default", func(t *testing.T) {
		dir := t.TempDir()
		cfgFile := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(cfgFile, []byte(`history_size = 0`), 0644); err != nil {
			t.Fatal(err)
		}
		cfg, err := LoadConfig(cfgFile)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.HistorySize != 100 {
			t.Errorf("HistorySize = %d, want 100 (default)", cfg.HistorySize)
		}
	})

	t.Run("malformed TOML is an error", func(t *testing.T) {
		dir := t.TempDir()
		cfgFile := filepath.Join(dir, "config.toml")
		if err := os.WriteFile(cfgFile, []byte(`relay = [`), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(cfgFile); err == nil {
			t.Error("expected parse error")
		}
	})
}
