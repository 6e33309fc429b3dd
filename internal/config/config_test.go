package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cardroom/holdem/internal/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cardroom.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/cardroom.hcl")
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "localhost:8080", cfg.Addr())
	require.Len(t, cfg.Tables, 1)
	assert.Equal(t, "main", cfg.Tables[0].Name)
}

func TestLoadAppliesTableDefaultsAndClamps(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
server {
  port = 9000
}

table "highstakes" {
  min_bet                = 200
  action_timeout_seconds = 1
  rebuy_window_seconds   = 9999
}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	tbl := cfg.Tables[0]
	assert.Equal(t, 2, tbl.MinPlayers)
	assert.Equal(t, 6, tbl.MaxPlayers)
	assert.Equal(t, 2000, tbl.BuyInMin)
	assert.Equal(t, 20000, tbl.BuyInMax)
	assert.Equal(t, 5, tbl.ActionTimeoutSeconds, "timeout clamped to lower bound")
	assert.Equal(t, 600, tbl.RebuyWindowSeconds, "window clamped to upper bound")
	assert.Equal(t, "localhost:9000", cfg.Addr())
}

func TestValidateRejectsBadTables(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		table TableConfig
	}{
		{"zero min bet", TableConfig{Name: "t", MinPlayers: 2, MaxPlayers: 6, RebuyMode: "off", BuyInMin: 100, BuyInMax: 200}},
		{"odd min bet", TableConfig{Name: "t", MinBet: 101, MinPlayers: 2, MaxPlayers: 6, RebuyMode: "off", BuyInMin: 1010, BuyInMax: 2020}},
		{"bad rebuy mode", TableConfig{Name: "t", MinBet: 100, MinPlayers: 2, MaxPlayers: 6, RebuyMode: "sometimes", BuyInMin: 1000, BuyInMax: 2000}},
		{"max below min players", TableConfig{Name: "t", MinBet: 100, MinPlayers: 4, MaxPlayers: 3, RebuyMode: "off", BuyInMin: 1000, BuyInMax: 2000}},
		{"buy-in inverted", TableConfig{Name: "t", MinBet: 100, MinPlayers: 2, MaxPlayers: 6, RebuyMode: "off", BuyInMin: 2000, BuyInMax: 1000}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			cfg.Tables = []TableConfig{tc.table}
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestValidateRejectsDuplicateTableNames(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Tables = append(cfg.Tables, cfg.Tables[0])
	assert.Error(t, cfg.Validate())
}

func TestOptionsConversion(t *testing.T) {
	t.Parallel()

	tbl := TableConfig{
		Name:                 "t",
		MinBet:               100,
		MinPlayers:           3,
		MaxPlayers:           9,
		ActionTimeoutSeconds: 45,
		RebuyMode:            "on",
		RebuyWindowSeconds:   120,
		BuyInMin:             1000,
		BuyInMax:             5000,
	}
	opts := tbl.Options()
	assert.Equal(t, 45*time.Second, opts.ActionTimeout)
	assert.Equal(t, 2*time.Minute, opts.RebuyWindow)
	assert.Equal(t, room.RebuyOn, opts.RebuyMode)
	assert.Equal(t, 3, opts.MinPlayers)
}
