// Package config loads and validates the cardroom's HCL configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/cardroom/holdem/internal/room"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config represents the complete cardroom configuration
type Config struct {
	Server ServerSettings `hcl:"server,block"`
	Tables []TableConfig  `hcl:"table,block"`
}

// ServerSettings contains server-level configuration
type ServerSettings struct {
	Address         string `hcl:"address,optional"`
	Port            int    `hcl:"port,optional"`
	LogLevel        string `hcl:"log_level,optional"`
	StartingBalance int    `hcl:"starting_balance,optional"`
}

// TableConfig defines one table
type TableConfig struct {
	Name                 string `hcl:"name,label"`
	MinBet               int    `hcl:"min_bet"`
	MinPlayers           int    `hcl:"min_players,optional"`
	MaxPlayers           int    `hcl:"max_players,optional"`
	ActionTimeoutSeconds int    `hcl:"action_timeout_seconds,optional"`
	RebuyMode            string `hcl:"rebuy_mode,optional"`
	RebuyWindowSeconds   int    `hcl:"rebuy_window_seconds,optional"`
	BuyInMin             int    `hcl:"buy_in_min,optional"`
	BuyInMax             int    `hcl:"buy_in_max,optional"`
}

// Timeout bounds; out-of-range values are clamped, not rejected.
const (
	minActionTimeout = 5
	maxActionTimeout = 300
	minRebuyWindow   = 10
	maxRebuyWindow   = 600
)

// Default returns the default configuration: one six-handed table.
func Default() *Config {
	return &Config{
		Server: ServerSettings{
			Address:         "localhost",
			Port:            8080,
			LogLevel:        "info",
			StartingBalance: 10000,
		},
		Tables: []TableConfig{
			{
				Name:                 "main",
				MinBet:               100,
				MinPlayers:           2,
				MaxPlayers:           6,
				ActionTimeoutSeconds: 30,
				RebuyMode:            "once",
				RebuyWindowSeconds:   60,
				BuyInMin:             1000,
				BuyInMax:             10000,
			},
		},
	}
}

// Load reads configuration from an HCL file, falling back to defaults
// when the file does not exist.
func Load(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Server.Address == "" {
		cfg.Server.Address = def.Server.Address
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = def.Server.LogLevel
	}
	if cfg.Server.StartingBalance == 0 {
		cfg.Server.StartingBalance = def.Server.StartingBalance
	}

	for i := range cfg.Tables {
		t := &cfg.Tables[i]
		if t.MinPlayers == 0 {
			t.MinPlayers = 2
		}
		if t.MaxPlayers == 0 {
			t.MaxPlayers = 6
		}
		if t.ActionTimeoutSeconds == 0 {
			t.ActionTimeoutSeconds = 30
		}
		if t.RebuyMode == "" {
			t.RebuyMode = "once"
		}
		if t.RebuyWindowSeconds == 0 {
			t.RebuyWindowSeconds = 60
		}
		if t.BuyInMin == 0 {
			t.BuyInMin = t.MinBet * 10
		}
		if t.BuyInMax == 0 {
			t.BuyInMax = t.MinBet * 100
		}

		t.ActionTimeoutSeconds = clamp(t.ActionTimeoutSeconds, minActionTimeout, maxActionTimeout)
		t.RebuyWindowSeconds = clamp(t.RebuyWindowSeconds, minRebuyWindow, maxRebuyWindow)
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Validate checks the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	if len(c.Tables) == 0 {
		return fmt.Errorf("at least one table must be configured")
	}

	seen := make(map[string]bool)
	for _, t := range c.Tables {
		if seen[t.Name] {
			return fmt.Errorf("duplicate table name %q", t.Name)
		}
		seen[t.Name] = true

		if t.MinBet <= 0 {
			return fmt.Errorf("table %s: min_bet must be positive", t.Name)
		}
		if t.MinBet%2 != 0 {
			return fmt.Errorf("table %s: min_bet must be even so the small blind is a whole chip", t.Name)
		}
		if t.MinPlayers < 2 {
			return fmt.Errorf("table %s: min_players must be at least 2", t.Name)
		}
		if t.MaxPlayers < t.MinPlayers || t.MaxPlayers > 10 {
			return fmt.Errorf("table %s: max_players must be between min_players and 10", t.Name)
		}
		switch room.RebuyMode(t.RebuyMode) {
		case room.RebuyOff, room.RebuyOnce, room.RebuyOn:
		default:
			return fmt.Errorf("table %s: invalid rebuy_mode %q", t.Name, t.RebuyMode)
		}
		if t.BuyInMin < t.MinBet {
			return fmt.Errorf("table %s: buy_in_min must cover the minimum bet", t.Name)
		}
		if t.BuyInMax < t.BuyInMin {
			return fmt.Errorf("table %s: buy_in_max must not be below buy_in_min", t.Name)
		}
	}
	return nil
}

// Addr returns the full listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Address, c.Server.Port)
}

// Options converts a table configuration into room options.
func (t TableConfig) Options() room.Options {
	return room.Options{
		MinBet:        t.MinBet,
		MinPlayers:    t.MinPlayers,
		MaxPlayers:    t.MaxPlayers,
		ActionTimeout: time.Duration(t.ActionTimeoutSeconds) * time.Second,
		RebuyMode:     room.RebuyMode(t.RebuyMode),
		RebuyWindow:   time.Duration(t.RebuyWindowSeconds) * time.Second,
		BuyInMin:      t.BuyInMin,
		BuyInMax:      t.BuyInMax,
	}
}
