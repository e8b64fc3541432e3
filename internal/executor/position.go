package executor

import (
	"time"

	"aurex/internal/contract"
	"aurex/internal/decision"
)

// Position 是单合约的本地持仓快照，执行路径的唯一可信来源。
// Lots 带符号：正为多、负为空。
type Position struct {
	Symbol   string
	Lots     int
	AvgPrice float64
	Realized float64

	Stop     float64
	Target   float64
	Trailing decision.TrailingSpec
	RiskDist float64 // 开仓时刻固化的 1R

	OpenedAt time.Time
	PlanID   string
	TraceID  string
}

// 只读方法用值接收者：Executor.Position() 返回的快照可以直接调用。
func (p Position) Flat() bool {
	return p.Lots == 0
}

func (p Position) Direction() contract.Direction {
	if p.Lots < 0 {
		return contract.Short
	}
	return contract.Long
}

// AbsLots 当前持仓手数绝对值。
func (p Position) AbsLots() int {
	if p.Lots < 0 {
		return -p.Lots
	}
	return p.Lots
}

// applyOpen 按成交价加权合并均价。lots 带符号，须与现有方向一致或从空仓开始。
func (p *Position) applyOpen(lots int, price float64, now time.Time) {
	if lots == 0 {
		return
	}
	if p.Lots == 0 {
		p.Lots = lots
		p.AvgPrice = price
		p.OpenedAt = now
		return
	}
	total := p.Lots + lots
	p.AvgPrice = (p.AvgPrice*float64(abs(p.Lots)) + price*float64(abs(lots))) / float64(abs(total))
	p.Lots = total
}

// applyClose 平掉 lots 手（绝对值），返回本次实现盈亏并累计。
func (p *Position) applyClose(lots int, price, multiplier float64) float64 {
	if lots <= 0 || p.Lots == 0 {
		return 0
	}
	if lots > p.AbsLots() {
		lots = p.AbsLots()
	}
	var pnl float64
	if p.Lots > 0 {
		pnl = float64(lots) * (price - p.AvgPrice) * multiplier
		p.Lots -= lots
	} else {
		pnl = float64(lots) * (p.AvgPrice - price) * multiplier
		p.Lots += lots
	}
	p.Realized += pnl
	if p.Lots == 0 {
		p.clearPlanFields()
	}
	return pnl
}

func (p *Position) clearPlanFields() {
	p.AvgPrice = 0
	p.Stop = 0
	p.Target = 0
	p.Trailing = decision.TrailingSpec{}
	p.RiskDist = 0
	p.OpenedAt = time.Time{}
	p.PlanID = ""
	p.TraceID = ""
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
