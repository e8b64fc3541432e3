package decision

import (
	"errors"
	"fmt"
	"math"

	"aurex/internal/config"
)

// ErrRejected 标记被熔断的决策。调用方只记录日志并丢弃，不做任何下单动作。
var ErrRejected = errors.New("decision rejected")

// Gate 是决策进入执行路径前的保险丝：纯校验，不触碰任何资金或持仓。
type Gate struct {
	rules config.Rulebook
}

func NewGate(rules config.Rulebook) *Gate {
	return &Gate{rules: rules}
}

// Check 在任何资金计算之前执行。返回 ErrRejected 包装的错误即熔断。
func (g *Gate) Check(d *Decision, price float64) error {
	if d == nil {
		return fmt.Errorf("%w: 空决策", ErrRejected)
	}
	if _, ok := ParseSignal(string(d.Signal)); !ok {
		return fmt.Errorf("%w: 未知 signal %q", ErrRejected, d.Signal)
	}
	if !d.Signal.Opens() {
		return nil
	}

	// 以下仅对开仓信号生效
	if g.rules.MinConfidence > 0 && d.Confidence < g.rules.MinConfidence {
		return fmt.Errorf("%w: 置信度 %.2f 低于下限 %.2f", ErrRejected, d.Confidence, g.rules.MinConfidence)
	}
	size := d.Plan.SizePct
	if size <= 0 || size > g.rules.MaxPositionPct {
		return fmt.Errorf("%w: 仓位比例 %.3f 越界 (0, %.3f]", ErrRejected, size, g.rules.MaxPositionPct)
	}
	stop := d.Plan.StopLoss
	if g.rules.MandatoryStopLoss && (stop <= 0 || math.IsNaN(stop) || math.IsInf(stop, 0)) {
		return fmt.Errorf("%w: 开仓决策缺少有效止损价", ErrRejected)
	}
	if stop > 0 {
		if d.Signal == SignalBuy && stop >= price {
			return fmt.Errorf("%w: 多单止损 %.2f 不在现价 %.2f 下方", ErrRejected, stop, price)
		}
		if d.Signal == SignalSell && stop <= price {
			return fmt.Errorf("%w: 空单止损 %.2f 不在现价 %.2f 上方", ErrRejected, stop, price)
		}
	}

	// 盈亏比：未给目标价时跳过（视为交给移动止损/分批离场管理）
	target := d.Plan.ProfitTarget
	if target > 0 && stop > 0 && g.rules.MinRewardRisk > 0 {
		risk := math.Abs(price - stop)
		if risk <= 0 {
			return fmt.Errorf("%w: 止损距离为零，无法评估盈亏比", ErrRejected)
		}
		rr := math.Abs(target-price) / risk
		if rr < g.rules.MinRewardRisk {
			return fmt.Errorf("%w: 盈亏比 %.2f 低于下限 %.2f", ErrRejected, rr, g.rules.MinRewardRisk)
		}
	}
	return nil
}
