package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalConfig = `
oracle:
  api_keys: ["sk-test"]
symbols:
  - symbol: "au2512"
    multiplier: 1000
    price_tick: 0.02
    margin_ratio_long: 0.14
    margin_ratio_short: 0.14
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.InDelta(t, 2_000_000, cfg.Account.InitialCash, 1e-6)
	assert.Equal(t, "deepseek-chat", cfg.Oracle.Model)
	assert.Equal(t, 180, cfg.Oracle.IntervalSeconds)
	assert.InDelta(t, 0.6, cfg.Rules.MaxPositionPct, 1e-9)
	assert.InDelta(t, 1.05, cfg.Sizing.MarginBuffer, 1e-9)
	assert.InDelta(t, 1.3, cfg.Sizing.MinGuaranteeRatio, 1e-9)
	assert.Equal(t, 10, cfg.Risk.MinStopTicks)
	assert.Equal(t, 120, cfg.Risk.ReentryCooldownSeconds)
	assert.Equal(t, "14:55:00", cfg.Session.DayClose)
	assert.Equal(t, "02:25:00", cfg.Session.NightClose)
	assert.Equal(t, 21, cfg.Session.RolloverHour)
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
app:
  log_level: debug
  http_addr: ":9980"
account:
  initial_cash: 500000
oracle:
  base_url: "https://example.com/v1"
  model: "test-model"
  api_keys: ["k1", "k2"]
  interval_seconds: 60
rulebook:
  max_position_pct: 0.4
  min_reward_risk: 1.5
sizing:
  margin_buffer: 1.12
session:
  day_close: "14:50:00"
symbols:
  - symbol: "au2512"
    multiplier: 1000
    price_tick: 0.02
    margin_ratio_long: 0.14
    margin_ratio_short: 0.15
  - symbol: "rb2601"
    multiplier: 10
    price_tick: 1
    margin_ratio_long: 0.1
    margin_ratio_short: 0.1
`))
	require.NoError(t, err)
	assert.InDelta(t, 500_000, cfg.Account.InitialCash, 1e-6)
	assert.Len(t, cfg.Oracle.APIKeys, 2)
	assert.Equal(t, 60, cfg.Oracle.IntervalSeconds)
	assert.InDelta(t, 0.4, cfg.Rules.MaxPositionPct, 1e-9)
	assert.InDelta(t, 1.12, cfg.Sizing.MarginBuffer, 1e-9)
	assert.Equal(t, "14:50:00", cfg.Session.DayClose)
	require.Len(t, cfg.Symbols, 2)
	assert.InDelta(t, 0.15, cfg.Symbols[0].MarginRatioShort, 1e-9)
}

func TestLoadRejectsMissingSymbols(t *testing.T) {
	_, err := Load(writeConfig(t, `
oracle:
  api_keys: ["k"]
`))
	assert.Error(t, err)
}

func TestLoadRejectsMissingKeys(t *testing.T) {
	_, err := Load(writeConfig(t, `
symbols:
  - symbol: "au2512"
    multiplier: 1000
    margin_ratio_long: 0.14
    margin_ratio_short: 0.14
`))
	assert.Error(t, err)
}

func TestLoadRejectsDuplicateSymbols(t *testing.T) {
	_, err := Load(writeConfig(t, `
oracle:
  api_keys: ["k"]
symbols:
  - symbol: "au2512"
    multiplier: 1000
    margin_ratio_long: 0.14
    margin_ratio_short: 0.14
  - symbol: "au2512"
    multiplier: 1000
    margin_ratio_long: 0.14
    margin_ratio_short: 0.14
`))
	assert.Error(t, err)
}

func TestLoadRejectsBadClock(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
session:
  day_close: "1455"
`))
	assert.Error(t, err)
}

func TestLoadRejectsOversizePositionPct(t *testing.T) {
	_, err := Load(writeConfig(t, minimalConfig+`
rulebook:
  max_position_pct: 1.5
`))
	assert.Error(t, err)
}
