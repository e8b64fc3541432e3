package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"aurex/internal/config"
	"aurex/internal/contract"
)

func TestRebaseWidensToTickFloor(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4})
	// Oracle 止损离入场仅 0.1，最小距离 10×0.02 = 0.2 → 放宽
	stop, risk := g.Rebase(contract.Long, 550.0, 549.9, 0, 0.02)
	assert.InDelta(t, 549.8, stop, 1e-9)
	assert.InDelta(t, 0.2, risk, 1e-9)
	assert.Less(t, stop, 550.0)
}

func TestRebaseWidensToATRFloor(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4})
	// ATR=2.0 → 最小距离 0.8，大于 10 tick 的 0.2
	stop, risk := g.Rebase(contract.Long, 550.0, 549.9, 2.0, 0.02)
	assert.InDelta(t, 549.2, stop, 1e-9)
	assert.GreaterOrEqual(t, risk, 0.8)
}

func TestRebaseKeepsConservativeOracleStop(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4})
	// Oracle 距离 2.0 已超过最小距离，不收紧
	stop, risk := g.Rebase(contract.Long, 550.0, 548.0, 1.0, 0.02)
	assert.InDelta(t, 548.0, stop, 1e-9)
	assert.InDelta(t, 2.0, risk, 1e-9)
}

func TestRebaseShortMirror(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4})
	stop, risk := g.Rebase(contract.Short, 550.0, 550.1, 0, 0.02)
	assert.InDelta(t, 550.2, stop, 1e-9)
	assert.InDelta(t, 0.2, risk, 1e-9)
	assert.Greater(t, stop, 550.0)
}

func TestRebaseRoundsInSafeDirection(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 3, MinStopATRMult: 0})
	// 入场 550.01，最小距离 0.06 → 原始止损 549.95，已在 tick 网格外侧向下取整
	stop, risk := g.Rebase(contract.Long, 550.01, 550.0, 0, 0.02)
	assert.InDelta(t, 549.94, stop, 1e-9)
	assert.GreaterOrEqual(t, risk, 0.06)
}

func TestRebaseMissingOracleStopUsesMinDistance(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4})
	// Oracle 没给止损（0 值）：多空都落到最小距离，绝不把入场价当风险距离
	stop, risk := g.Rebase(contract.Long, 550.0, 0, 1.0, 0.02)
	assert.InDelta(t, 549.6, stop, 1e-9)
	assert.InDelta(t, 0.4, risk, 1e-9)

	stop, risk = g.Rebase(contract.Short, 550.0, 0, 1.0, 0.02)
	assert.InDelta(t, 550.4, stop, 1e-9)
	assert.InDelta(t, 0.4, risk, 1e-9)
}

func TestRebaseWrongSideOracleStop(t *testing.T) {
	g := NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0})
	// Oracle 止损在错误一侧（定向距离为负）按零距离处理，落到最小距离
	stop, _ := g.Rebase(contract.Long, 550.0, 551.0, 0, 0.02)
	assert.InDelta(t, 549.8, stop, 1e-9)
}
