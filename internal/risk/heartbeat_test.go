package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurex/internal/account"
	"aurex/internal/config"
	"aurex/internal/contract"
	"aurex/internal/decision"
)

func newTestHeartbeat(t *testing.T) *Heartbeat {
	t.Helper()
	clock := newTestClock(t)
	return NewHeartbeat(clock, config.Rulebook{MaxDailyLossPct: 0.05})
}

func longPos(stop float64) *OpenPosition {
	return &OpenPosition{
		Direction: contract.Long,
		Lots:      2,
		AvgPrice:  550.0,
		Stop:      stop,
		OpenedAt:  at(10, 0, 0),
	}
}

func TestHeartbeatHardStop(t *testing.T) {
	h := newTestHeartbeat(t)
	h.BeginSession(at(9, 0, 0), 2_000_000)
	h.TrackEntry(550.0)
	snap := account.Snapshot{Equity: 1_996_000}

	assert.Nil(t, h.Check(at(10, 1, 0), 549.0, 1.0, longPos(548.0), snap))

	v := h.Check(at(10, 2, 0), 548.0, 1.0, longPos(548.0), snap)
	require.NotNil(t, v)
	assert.Equal(t, TripHardStop, v.Reason)
	assert.False(t, v.Disable)
	// 硬止损不停牌
	assert.True(t, h.TradingEnabled(at(10, 3, 0)))
}

func TestHeartbeatSessionForceCloseWins(t *testing.T) {
	h := newTestHeartbeat(t)
	h.BeginSession(at(9, 0, 0), 2_000_000)
	h.TrackEntry(550.0)

	// 同一 tick 里止损也已触及，但强平时点排在最前
	v := h.Check(at(14, 55, 0), 548.0, 1.0, longPos(548.0), account.Snapshot{Equity: 1_990_000})
	require.NotNil(t, v)
	assert.Equal(t, TripSessionClose, v.Reason)
	assert.True(t, v.Disable)
	assert.False(t, h.TradingEnabled(at(14, 56, 0)))
	// 夜盘开盘后恢复
	assert.True(t, h.TradingEnabled(at(21, 5, 0)))
}

func TestHeartbeatTrailingATR(t *testing.T) {
	h := newTestHeartbeat(t)
	h.BeginSession(at(9, 0, 0), 2_000_000)
	h.TrackEntry(550.0)
	pos := longPos(545.0)
	pos.Trailing = decision.TrailingSpec{Mode: decision.TrailingATR, ATRMult: 2.0}
	snap := account.Snapshot{Equity: 2_000_000}

	// 先冲高到 556，峰值上移
	assert.Nil(t, h.Check(at(10, 1, 0), 556.0, 1.0, pos, snap))
	// 回落到 554：556 - 2×1.0 = 554，触发移动止损
	v := h.Check(at(10, 2, 0), 554.0, 1.0, pos, snap)
	require.NotNil(t, v)
	assert.Equal(t, TripTrailingStop, v.Reason)
}

func TestHeartbeatTimeStop(t *testing.T) {
	h := newTestHeartbeat(t)
	h.BeginSession(at(9, 0, 0), 2_000_000)
	h.TrackEntry(550.0)
	pos := longPos(545.0)
	pos.Trailing.TimeStopMinutes = 30
	snap := account.Snapshot{Equity: 2_000_000}

	assert.Nil(t, h.Check(at(10, 20, 0), 551.0, 1.0, pos, snap))
	v := h.Check(at(10, 31, 0), 551.0, 1.0, pos, snap)
	require.NotNil(t, v)
	assert.Equal(t, TripTimeStop, v.Reason)
}

func TestHeartbeatDailyLossDisables(t *testing.T) {
	h := newTestHeartbeat(t)
	h.BeginSession(at(9, 0, 0), 2_000_000)

	// 空仓也会触发停牌判定
	v := h.Check(at(11, 0, 0), 550.0, 1.0, nil, account.Snapshot{Equity: 1_890_000})
	require.NotNil(t, v)
	assert.Equal(t, TripDailyLoss, v.Reason)
	assert.True(t, v.Disable)
	assert.False(t, h.TradingEnabled(at(11, 1, 0)))

	// 下一时段重新开始后解除
	h.BeginSession(at(21, 10, 0), 1_890_000)
	assert.True(t, h.TradingEnabled(at(21, 11, 0)))
}

func TestHeartbeatDailyLossFiresOncePerSession(t *testing.T) {
	h := newTestHeartbeat(t)
	h.BeginSession(at(9, 0, 0), 2_000_000)

	v := h.Check(at(11, 0, 0), 550.0, 1.0, nil, account.Snapshot{Equity: 1_890_000})
	require.NotNil(t, v)
	assert.Equal(t, TripDailyLoss, v.Reason)

	// 同一时段内权益继续走低也不再重复报
	assert.Nil(t, h.Check(at(11, 1, 0), 549.0, 1.0, nil, account.Snapshot{Equity: 1_880_000}))
	assert.Nil(t, h.Check(at(13, 0, 0), 548.0, 1.0, nil, account.Snapshot{Equity: 1_850_000}))
	assert.False(t, h.TradingEnabled(at(13, 1, 0)))
}
