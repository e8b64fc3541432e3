package executor

import (
	"fmt"
	"time"

	"aurex/internal/account"
	"aurex/internal/contract"
	"aurex/internal/decision"
	"aurex/internal/exitplan"
	"aurex/internal/logger"
	"aurex/internal/market"
	"aurex/internal/risk"
	"aurex/internal/sizing"
	"aurex/internal/venue"
)

// Executor 是单合约的持仓状态机：FLAT / LONG / SHORT。
// 所有资金相关变更都在这里单线程完成；任一环节拒绝则整个迁移退化为 no-op。
type Executor struct {
	spec     contract.Spec
	sizer    *sizing.Sizer
	guard    *risk.StopGuard
	cooldown *risk.CooldownTracker
	est      *account.Estimator
	vn       venue.Venue

	pos  Position
	plan *exitplan.Plan
}

func New(spec contract.Spec, sizer *sizing.Sizer, guard *risk.StopGuard,
	cooldown *risk.CooldownTracker, est *account.Estimator, vn venue.Venue) *Executor {
	return &Executor{
		spec:     spec,
		sizer:    sizer,
		guard:    guard,
		cooldown: cooldown,
		est:      est,
		vn:       vn,
		pos:      Position{Symbol: spec.Symbol},
	}
}

// Position 返回持仓副本。
func (e *Executor) Position() Position { return e.pos }

// Plan 返回当前分批计划，可能为 nil。
func (e *Executor) Plan() *exitplan.Plan { return e.plan }

// Snapshot 以当前价估算账户。
func (e *Executor) Snapshot(price float64) account.Snapshot {
	return e.est.Estimate(e.spec, price, e.pos.Lots, e.pos.AvgPrice, e.pos.Realized)
}

// RiskView 构造风控心跳所需的持仓视图，空仓返回 nil。
func (e *Executor) RiskView() *risk.OpenPosition {
	if e.pos.Flat() {
		return nil
	}
	return &risk.OpenPosition{
		Direction: e.pos.Direction(),
		Lots:      e.pos.AbsLots(),
		AvgPrice:  e.pos.AvgPrice,
		Stop:      e.pos.Stop,
		Trailing:  e.pos.Trailing,
		OpenedAt:  e.pos.OpenedAt,
	}
}

// Apply 执行一笔已过闸决策。返回错误表示迁移被拒绝，仓位保持原样。
// 估值与分档判定用最新价，委托价按方向取盘口对手价。
func (e *Executor) Apply(now time.Time, d *decision.Decision, q market.Tick, atr float64) error {
	switch d.Signal {
	case decision.SignalHold:
		return nil
	case decision.SignalClose:
		if e.pos.Flat() {
			// 空仓收到 close：无事可做，不算错误
			logger.Debugf("[%s] close 信号但当前空仓，忽略", e.spec.Symbol)
			return nil
		}
		e.closeAll(now, q, "oracle_close")
		return nil
	case decision.SignalAdjustStop:
		return e.adjustStop(d, q.Last)
	case decision.SignalBuy:
		return e.open(now, d, contract.Long, q, atr)
	case decision.SignalSell:
		return e.open(now, d, contract.Short, q, atr)
	default:
		return fmt.Errorf("未知 signal: %s", d.Signal)
	}
}

func (e *Executor) open(now time.Time, d *decision.Decision, dir contract.Direction, q market.Tick, atr float64) error {
	price := q.Last
	if !e.pos.Flat() && e.pos.Direction() != dir {
		// 反向信号：只平不反手，反向开仓交给后续决策周期
		logger.Infof("[%s] 反向信号 %s，先平现有 %s 仓", e.spec.Symbol, d.Signal, e.pos.Direction())
		e.closeAll(now, q, "reverse_signal")
		return nil
	}

	opening := e.pos.Flat()
	if opening {
		if err := e.cooldown.AllowEntry(now, price, e.spec.PriceTick); err != nil {
			return err
		}
	} else {
		if err := e.cooldown.AllowAdd(now); err != nil {
			return err
		}
	}

	snap := e.Snapshot(price)
	res, err := e.sizer.Size(sizing.Request{
		Spec:        e.spec,
		Direction:   dir,
		Price:       price,
		SizePct:     d.Plan.SizePct,
		Account:     snap,
		CurrentLots: e.pos.AbsLots(),
	})
	if err != nil {
		return err
	}
	if res.OrderLots == 0 {
		logger.Infof("[%s] 已达目标 %d 手，不再加仓", e.spec.Symbol, res.TargetLots)
		return nil
	}

	side := venue.Buy
	signedLots := res.OrderLots
	if dir == contract.Short {
		side = venue.Sell
		signedLots = -signedLots
	}
	fillPrice := e.chooseOrderPrice(side, q)
	if err := e.vn.PlaceOrder(venue.Order{
		Symbol:    e.spec.Symbol,
		Side:      side,
		Price:     fillPrice,
		Lots:      res.OrderLots,
		Reason:    "oracle_" + string(d.Signal),
		TraceID:   d.TraceID,
		CreatedAt: now,
	}); err != nil {
		return fmt.Errorf("下单失败: %w", err)
	}

	e.pos.applyOpen(signedLots, fillPrice, now)
	stop, riskDist := e.guard.Rebase(dir, e.pos.AvgPrice, d.Plan.StopLoss, atr, e.spec.PriceTick)
	e.pos.Stop = stop
	e.pos.RiskDist = riskDist
	e.pos.Target = d.Plan.ProfitTarget
	e.pos.Trailing = d.Plan.Trailing
	e.pos.PlanID = d.Plan.PlanID
	e.pos.TraceID = d.TraceID

	// 分批计划按当前总手数重建；加仓时旧计划作废
	e.plan = nil
	if len(d.Plan.ScaleOutLevelsR) > 0 {
		plan, perr := exitplan.NewPlan(dir, e.pos.AvgPrice, riskDist,
			d.Plan.ScaleOutLevelsR, d.Plan.ScaleOutPcts, e.pos.AbsLots())
		if perr != nil {
			logger.Warnf("[%s] 分批计划无效，跳过: %v", e.spec.Symbol, perr)
		} else {
			e.plan = plan
		}
	}
	if d.Plan.CooldownMinutes > 0 {
		e.cooldown.RecordOpen(now, time.Duration(d.Plan.CooldownMinutes*float64(time.Minute)))
	}
	logger.Infof("[%s] %s %d 手 @ %.2f 止损 %.2f (1R=%.2f, 均价 %.2f, 共 %d 手)",
		e.spec.Symbol, side, res.OrderLots, fillPrice, stop, riskDist, e.pos.AvgPrice, e.pos.AbsLots())
	return nil
}

// chooseOrderPrice 选委托价：买单吃卖一、卖单吃买一（缺档退化到最新价），
// 再对齐到 tick 网格，买向上、卖向下，保证可成交。
func (e *Executor) chooseOrderPrice(side venue.Side, q market.Tick) float64 {
	if side == venue.Buy {
		return risk.CeilToTick(q.AskOr(), e.spec.PriceTick)
	}
	return risk.FloorToTick(q.BidOr(), e.spec.PriceTick)
}

func (e *Executor) adjustStop(d *decision.Decision, price float64) error {
	if e.pos.Flat() {
		logger.Debugf("[%s] adjust_stop 但当前空仓，忽略", e.spec.Symbol)
		return nil
	}
	stop := d.Plan.StopLoss
	if stop > 0 {
		if e.pos.Lots > 0 && stop >= price {
			return fmt.Errorf("多单新止损 %.2f 不在现价 %.2f 下方", stop, price)
		}
		if e.pos.Lots < 0 && stop <= price {
			return fmt.Errorf("空单新止损 %.2f 不在现价 %.2f 上方", stop, price)
		}
		// 收益锁定方向的调整不再受最小距离约束，仅做 tick 对齐
		if e.pos.Lots > 0 {
			e.pos.Stop = risk.FloorToTick(stop, e.spec.PriceTick)
		} else {
			e.pos.Stop = risk.CeilToTick(stop, e.spec.PriceTick)
		}
	}
	if d.Plan.ProfitTarget > 0 {
		e.pos.Target = d.Plan.ProfitTarget
	}
	if d.Plan.Trailing.Mode != "" && d.Plan.Trailing.Mode != decision.TrailingNone {
		e.pos.Trailing = d.Plan.Trailing
	}
	logger.Infof("[%s] 调整止损/目标: stop=%.2f target=%.2f", e.spec.Symbol, e.pos.Stop, e.pos.Target)
	return nil
}

// OnScaleOut 在价格推进时触发分批止盈，返回实际触发的档位。
func (e *Executor) OnScaleOut(now time.Time, q market.Tick) []exitplan.Fire {
	if e.plan == nil || e.pos.Flat() {
		return nil
	}
	fires := e.plan.OnPrice(q.Last, e.pos.AbsLots())
	for _, f := range fires {
		e.partialClose(now, q, f.Lots, fmt.Sprintf("scale_out_r%.1f", f.RLevel))
	}
	if e.plan != nil && e.plan.Done() {
		e.plan = nil
	}
	return fires
}

// ForceFlatten 风控强平：清仓、丢弃计划、开启再入场冷却。
func (e *Executor) ForceFlatten(now time.Time, q market.Tick, reason string) {
	if e.pos.Flat() {
		return
	}
	e.closeAll(now, q, reason)
}

func (e *Executor) partialClose(now time.Time, q market.Tick, lots int, reason string) {
	if lots <= 0 || e.pos.Flat() {
		return
	}
	side := venue.Sell
	if e.pos.Lots < 0 {
		side = venue.Buy
	}
	fillPrice := e.chooseOrderPrice(side, q)
	if err := e.vn.PlaceOrder(venue.Order{
		Symbol:    e.spec.Symbol,
		Side:      side,
		Price:     fillPrice,
		Lots:      lots,
		Reduce:    true,
		Reason:    reason,
		TraceID:   e.pos.TraceID,
		CreatedAt: now,
	}); err != nil {
		logger.Errorf("[%s] 部分平仓下单失败: %v", e.spec.Symbol, err)
	}
	pnl := e.pos.applyClose(lots, fillPrice, e.spec.Multiplier)
	logger.Infof("[%s] 部分平仓 %d 手 @ %.2f 盈亏 %.0f (%s)，剩余 %d 手",
		e.spec.Symbol, lots, fillPrice, pnl, reason, e.pos.AbsLots())
	if e.pos.Flat() {
		e.afterFullClose(now, fillPrice)
	}
}

func (e *Executor) closeAll(now time.Time, q market.Tick, reason string) {
	lots := e.pos.Lots
	side := venue.Sell
	if lots < 0 {
		side = venue.Buy
	}
	fillPrice := e.chooseOrderPrice(side, q)
	if err := e.vn.Flatten(e.spec.Symbol, fillPrice, lots, reason); err != nil {
		logger.Errorf("[%s] 强平下单失败: %v", e.spec.Symbol, err)
	}
	pnl := e.pos.applyClose(abs(lots), fillPrice, e.spec.Multiplier)
	logger.Infof("[%s] 全部平仓 %d 手 @ %.2f 盈亏 %.0f (%s)", e.spec.Symbol, abs(lots), fillPrice, pnl, reason)
	e.afterFullClose(now, fillPrice)
}

func (e *Executor) afterFullClose(now time.Time, price float64) {
	e.plan = nil
	e.cooldown.RecordClose(now, price)
}
