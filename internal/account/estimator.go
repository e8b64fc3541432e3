package account

import (
	"math"

	"aurex/internal/contract"
)

// Snapshot 是某一时点的账户估值，全部由输入推导，不带任何副作用。
type Snapshot struct {
	Equity     float64 `json:"equity"`
	Available  float64 `json:"available"`
	UsedMargin float64 `json:"used_margin"`
	Unrealized float64 `json:"unrealized"`
	Realized   float64 `json:"realized"`
}

// Estimator 以初始资金为基准做权益估算。纯函数，可在任意频率上调用。
type Estimator struct {
	initialCash float64
}

func NewEstimator(initialCash float64) *Estimator {
	return &Estimator{initialCash: initialCash}
}

// Estimate 计算当前快照。lots 带符号：正为多、负为空。
func (e *Estimator) Estimate(spec contract.Spec, price float64, lots int, avgPrice, realized float64) Snapshot {
	var unrealized, used float64
	if lots != 0 && price > 0 {
		// 带符号手数使多空统一：空头 lots<0，价格下跌时 (price-avg)<0，乘积为正
		unrealized = float64(lots) * (price - avgPrice) * spec.Multiplier
		dir := contract.Long
		if lots < 0 {
			dir = contract.Short
		}
		used = math.Abs(float64(lots)) * price * spec.Multiplier * spec.MarginRatio(dir)
	}
	equity := e.initialCash + realized + unrealized
	return Snapshot{
		Equity:     equity,
		Available:  math.Max(0, equity-used),
		UsedMargin: used,
		Unrealized: unrealized,
		Realized:   realized,
	}
}
