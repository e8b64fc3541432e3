package executor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aurex/internal/account"
	"aurex/internal/config"
	"aurex/internal/contract"
	"aurex/internal/decision"
	"aurex/internal/market"
	"aurex/internal/risk"
	"aurex/internal/sizing"
	"aurex/internal/venue"
)

var auSpec = contract.Spec{
	Symbol:           "au2512",
	Multiplier:       1000,
	PriceTick:        0.02,
	MinLots:          1,
	MarginRatioLong:  0.14,
	MarginRatioShort: 0.14,
}

func newTestExecutor(t *testing.T) (*Executor, *venue.Paper) {
	t.Helper()
	paper := venue.NewPaper()
	ex := New(
		auSpec,
		sizing.NewSizer(config.SizingConfig{MarginBuffer: 1.05, MinGuaranteeRatio: 1.3}),
		risk.NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4}),
		risk.NewCooldownTracker(config.RiskConfig{ReentryCooldownSeconds: 120}),
		account.NewEstimator(2_000_000),
		paper,
	)
	return ex, paper
}

func buyDecision() *decision.Decision {
	return &decision.Decision{
		Symbol:     "au2512",
		Signal:     decision.SignalBuy,
		Confidence: 0.8,
		Plan: decision.TradePlan{
			SizePct:  0.3,
			StopLoss: 548.0,
		},
		TraceID: "t-1",
	}
}

func ts(hour, min int) time.Time {
	return time.Date(2026, 8, 20, hour, min, 0, 0, time.Local)
}

// tk 构造无盘口的行情快照：委托价退化到最新价
func tk(price float64) market.Tick {
	return market.Tick{Symbol: "au2512", Last: price}
}

func TestOpenLongFromFlat(t *testing.T) {
	ex, paper := newTestExecutor(t)
	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0))

	pos := ex.Position()
	// 每手 550×1000×0.14×1.05 = 80,850；预算 600,000 → 7 手
	assert.Equal(t, 7, pos.Lots)
	assert.InDelta(t, 550.0, pos.AvgPrice, 1e-9)
	assert.InDelta(t, 548.0, pos.Stop, 1e-9)
	assert.InDelta(t, 2.0, pos.RiskDist, 1e-9)

	orders := paper.Orders()
	require.Len(t, orders, 1)
	assert.Equal(t, venue.Buy, orders[0].Side)
	assert.Equal(t, 7, orders[0].Lots)
}

func TestPositionSnapshotCallableOnValue(t *testing.T) {
	ex, _ := newTestExecutor(t)
	// Position() 返回值快照，只读方法可直接链式调用
	assert.True(t, ex.Position().Flat())
	assert.Equal(t, 0, ex.Position().AbsLots())
	assert.Equal(t, contract.Long, ex.Position().Direction())

	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0))
	assert.False(t, ex.Position().Flat())
	assert.Equal(t, 7, ex.Position().AbsLots())
}

func TestOrderPriceTakesQuoteSide(t *testing.T) {
	ex, paper := newTestExecutor(t)
	q := market.Tick{Symbol: "au2512", Last: 550.0, Bid: 549.96, Ask: 550.04}
	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), q, 1.0))

	orders := paper.Orders()
	require.Len(t, orders, 1)
	// 买单吃卖一，手数仍按最新价 550 计算
	assert.InDelta(t, 550.04, orders[0].Price, 1e-9)
	assert.Equal(t, 7, orders[0].Lots)
	assert.InDelta(t, 550.04, ex.Position().AvgPrice, 1e-9)

	// 平多吃买一
	q2 := market.Tick{Symbol: "au2512", Last: 552.0, Bid: 551.96, Ask: 552.04}
	require.NoError(t, ex.Apply(ts(10, 30), &decision.Decision{Signal: decision.SignalClose}, q2, 1.0))
	orders = paper.Orders()
	require.Len(t, orders, 2)
	assert.InDelta(t, 551.96, orders[1].Price, 1e-9)
	assert.True(t, ex.Position().Flat())
}

func TestOpenWithoutOracleStopFallsBackToMinDistance(t *testing.T) {
	ex, _ := newTestExecutor(t)
	d := buyDecision()
	d.Plan.StopLoss = 0

	require.NoError(t, ex.Apply(ts(10, 0), d, tk(550.0), 1.0))
	pos := ex.Position()
	// 最小距离 = max(10×0.02, 1.0×0.4) = 0.4，止损不许落到 0
	assert.InDelta(t, 549.6, pos.Stop, 1e-9)
	assert.InDelta(t, 0.4, pos.RiskDist, 1e-9)
}

func TestOpenRejectedWhenBudgetTooSmall(t *testing.T) {
	paper := venue.NewPaper()
	ex := New(
		auSpec,
		sizing.NewSizer(config.SizingConfig{MarginBuffer: 1.12, MinGuaranteeRatio: 1.3}),
		risk.NewStopGuard(config.RiskConfig{MinStopTicks: 10, MinStopATRMult: 0.4}),
		risk.NewCooldownTracker(config.RiskConfig{ReentryCooldownSeconds: 120}),
		account.NewEstimator(200_000),
		paper,
	)
	err := ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0)
	require.ErrorIs(t, err, sizing.ErrFundsInsufficient)
	assert.True(t, ex.Position().Flat())
	assert.Empty(t, paper.Orders())
}

func TestCloseWhileFlatIsNoop(t *testing.T) {
	ex, paper := newTestExecutor(t)
	d := &decision.Decision{Signal: decision.SignalClose}
	require.NoError(t, ex.Apply(ts(10, 0), d, tk(550.0), 1.0))
	assert.True(t, ex.Position().Flat())
	assert.Empty(t, paper.Orders())
}

func TestCloseRealizesPnlAndStartsCooldown(t *testing.T) {
	ex, _ := newTestExecutor(t)
	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0))

	d := &decision.Decision{Signal: decision.SignalClose}
	require.NoError(t, ex.Apply(ts(10, 30), d, tk(552.0), 1.0))

	pos := ex.Position()
	assert.True(t, pos.Flat())
	// 7 手 × 2.0 × 1000
	assert.InDelta(t, 14_000, pos.Realized, 1e-6)

	// 平仓后立刻再开：被再入场冷却拦下
	err := ex.Apply(ts(10, 31), buyDecision(), tk(552.0), 1.0)
	assert.ErrorIs(t, err, risk.ErrReentryBlocked)
}

func TestReverseSignalOnlyCloses(t *testing.T) {
	ex, paper := newTestExecutor(t)
	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0))

	sell := buyDecision()
	sell.Signal = decision.SignalSell
	sell.Plan.StopLoss = 554.0
	require.NoError(t, ex.Apply(ts(10, 10), sell, tk(551.0), 1.0))

	// 只平多，不在同一步反手开空
	assert.True(t, ex.Position().Flat())
	last := paper.Orders()[len(paper.Orders())-1]
	assert.True(t, last.Reduce)
	assert.Equal(t, venue.Sell, last.Side)
}

func TestPyramidAddsToTargetTotal(t *testing.T) {
	ex, paper := newTestExecutor(t)
	first := buyDecision()
	first.Plan.SizePct = 0.15
	require.NoError(t, ex.Apply(ts(10, 0), first, tk(550.0), 1.0))
	base := ex.Position().Lots
	require.Greater(t, base, 0)

	second := buyDecision()
	second.Plan.SizePct = 0.3
	require.NoError(t, ex.Apply(ts(10, 20), second, tk(552.0), 1.0))

	pos := ex.Position()
	assert.Greater(t, pos.Lots, base)
	assert.Greater(t, pos.AvgPrice, 550.0)
	assert.Less(t, pos.AvgPrice, 552.0)
	assert.Len(t, paper.Orders(), 2)
}

func TestScaleOutPartialThenFullClose(t *testing.T) {
	ex, _ := newTestExecutor(t)
	d := buyDecision()
	d.Plan.ScaleOutLevelsR = []float64{1, 2}
	d.Plan.ScaleOutPcts = []float64{50, 50}
	require.NoError(t, ex.Apply(ts(10, 0), d, tk(550.0), 1.0))
	require.NotNil(t, ex.Plan())
	open := ex.Position().AbsLots()

	// 1R=2.0 → 552 触发第一档
	fires := ex.OnScaleOut(ts(10, 5), tk(552.0))
	require.Len(t, fires, 1)
	assert.Equal(t, open-fires[0].Lots, ex.Position().AbsLots())

	// 2R → 554 清掉剩余档位
	fires = ex.OnScaleOut(ts(10, 10), tk(554.5))
	require.Len(t, fires, 1)
	assert.True(t, ex.Position().Flat())
	assert.Nil(t, ex.Plan())
	assert.Greater(t, ex.Position().Realized, 0.0)
}

func TestForceFlattenSetsReentry(t *testing.T) {
	ex, _ := newTestExecutor(t)
	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0))

	ex.ForceFlatten(ts(10, 30), tk(548.0), "hard_stop")
	pos := ex.Position()
	assert.True(t, pos.Flat())
	assert.Negative(t, pos.Realized)

	err := ex.Apply(ts(10, 31), buyDecision(), tk(549.0), 1.0)
	assert.ErrorIs(t, err, risk.ErrReentryBlocked)
}

func TestAdjustStopKeepsLots(t *testing.T) {
	ex, _ := newTestExecutor(t)
	require.NoError(t, ex.Apply(ts(10, 0), buyDecision(), tk(550.0), 1.0))
	lots := ex.Position().Lots

	adj := &decision.Decision{
		Signal: decision.SignalAdjustStop,
		Plan:   decision.TradePlan{StopLoss: 549.5, ProfitTarget: 560.0},
	}
	require.NoError(t, ex.Apply(ts(10, 5), adj, tk(551.0), 1.0))

	pos := ex.Position()
	assert.Equal(t, lots, pos.Lots)
	assert.InDelta(t, 549.5, pos.Stop, 1e-9)
	assert.InDelta(t, 560.0, pos.Target, 1e-9)

	// 错侧的新止损被拒绝，原值不动
	bad := &decision.Decision{
		Signal: decision.SignalAdjustStop,
		Plan:   decision.TradePlan{StopLoss: 552.0},
	}
	assert.Error(t, ex.Apply(ts(10, 6), bad, tk(551.0), 1.0))
	assert.InDelta(t, 549.5, ex.Position().Stop, 1e-9)
}
