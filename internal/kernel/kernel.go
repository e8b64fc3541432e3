package kernel

import (
	"context"
	"fmt"
	"time"

	"aurex/internal/account"
	"aurex/internal/contract"
	"aurex/internal/decision"
	"aurex/internal/executor"
	"aurex/internal/logger"
	"aurex/internal/market"
	"aurex/internal/oracle"
	"aurex/internal/risk"
	"aurex/internal/store/tradelog"
)

// Kernel 是单合约的决策执行内核：同步路径的唯一入口是 OnMarketUpdate。
// 持仓、分批计划、冷却状态全部单线程更新；并发的只有 Oracle 调用本身，
// 其结果经 Slot 交接后仍在本路径上消费。
type Kernel struct {
	spec contract.Spec
	gate *decision.Gate
	exec *executor.Executor
	hb   *risk.Heartbeat
	disp *oracle.Dispatcher
	mkt  market.Provider
	rec  tradelog.Recorder
}

func New(spec contract.Spec, gate *decision.Gate, exec *executor.Executor,
	hb *risk.Heartbeat, disp *oracle.Dispatcher, mkt market.Provider, rec tradelog.Recorder) *Kernel {
	if rec == nil {
		rec = tradelog.Nop{}
	}
	return &Kernel{spec: spec, gate: gate, exec: exec, hb: hb, disp: disp, mkt: mkt, rec: rec}
}

// OnMarketUpdate 在每个行情 tick 上运行一轮：风控心跳 → 分批止盈 →
// 决策槽消费 → 调度触发。任何子环节失败都降级为本周期 no-op，绝不外抛。
func (k *Kernel) OnMarketUpdate(ctx context.Context, tick market.Tick) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] tick 处理 panic 已吞掉: %v", k.spec.Symbol, r)
		}
	}()

	now := tick.Timestamp
	if now.IsZero() {
		now = time.Now()
	}
	price := tick.Last
	if price <= 0 {
		return
	}
	var atr float64
	if b, ok := k.mkt.Briefing(k.spec.Symbol); ok {
		atr = b.ATR
	}

	snap := k.exec.Snapshot(price)
	k.hb.BeginSession(now, snap.Equity)

	if v := k.hb.Check(now, price, atr, k.exec.RiskView(), snap); v != nil {
		pos := k.exec.Position()
		logger.Warnf("[%s] 风控触发 %s: %s", k.spec.Symbol, v.Reason, v.Detail)
		if !pos.Flat() {
			k.exec.ForceFlatten(now, tick, string(v.Reason))
			k.hb.ClearTracking()
		}
		if v.Disable {
			// 停牌即作废决策槽：停牌前出发的 Oracle 调用不得在下一时段生效
			k.disp.Slot(k.spec.Symbol).Invalidate()
		}
		k.rec.RecordTrip(k.spec.Symbol, *v, price, pos.AbsLots())
		return
	}

	// 分批止盈与心跳并行推进，但互不终止
	if fires := k.exec.OnScaleOut(now, tick); len(fires) > 0 && k.exec.Position().Flat() {
		k.hb.ClearTracking()
	}

	if !k.hb.TradingEnabled(now) {
		return
	}
	if d, seq, ok := k.disp.Slot(k.spec.Symbol).Consume(); ok {
		k.applyDecision(now, d, seq, tick, atr)
	}
	k.disp.MaybeDispatch(ctx, now, k.spec.Symbol)
}

func (k *Kernel) applyDecision(now time.Time, d *decision.Decision, seq uint64, tick market.Tick, atr float64) {
	price := tick.Last
	if err := k.gate.Check(d, price); err != nil {
		logger.Infof("[%s] 决策被熔断 (seq=%d): %v", k.spec.Symbol, seq, err)
		k.rec.RecordDecision(k.spec.Symbol, seq, d, "rejected:"+err.Error())
		return
	}
	if err := k.exec.Apply(now, d, tick, atr); err != nil {
		logger.Infof("[%s] 决策执行被拒 (seq=%d): %v", k.spec.Symbol, seq, err)
		k.rec.RecordDecision(k.spec.Symbol, seq, d, "rejected:"+err.Error())
		return
	}
	if d.Signal.Opens() && !k.exec.Position().Flat() {
		k.hb.TrackEntry(price)
	}
	k.rec.RecordDecision(k.spec.Symbol, seq, d, "applied")
}

// Status 汇总当前内核状态，状态接口使用。
type Status struct {
	Symbol    string            `json:"symbol"`
	Position  executor.Position `json:"position"`
	Account   account.Snapshot  `json:"account"`
	PlanLots  int               `json:"plan_lots"`
	LastPrice float64           `json:"last_price"`
}

func (k *Kernel) Status() Status {
	var price float64
	if b, ok := k.mkt.Briefing(k.spec.Symbol); ok {
		price = b.LastPrice
	}
	st := Status{
		Symbol:    k.spec.Symbol,
		Position:  k.exec.Position(),
		Account:   k.exec.Snapshot(price),
		LastPrice: price,
	}
	if p := k.exec.Plan(); p != nil {
		st.PlanLots = p.TotalLots()
	}
	return st
}

func (k *Kernel) Symbol() string { return k.spec.Symbol }

func (k *Kernel) String() string {
	return fmt.Sprintf("kernel(%s)", k.spec.Symbol)
}
