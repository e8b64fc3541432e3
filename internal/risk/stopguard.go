package risk

import (
	"aurex/internal/config"
	"aurex/internal/contract"
)

// StopGuard 把 Oracle 给出的止损复位到最小风险距离之外。
// 只放宽、不收紧：Oracle 更保守时保留 Oracle 的距离。
type StopGuard struct {
	minTicks   int
	minATRMult float64
}

func NewStopGuard(cfg config.RiskConfig) *StopGuard {
	return &StopGuard{minTicks: cfg.MinStopTicks, minATRMult: cfg.MinStopATRMult}
}

// Rebase 返回复位后的止损价和实际风险距离（1R）。
// 多单止损向下取整、空单向上取整，取整方向永远让距离变大。
func (g *StopGuard) Rebase(dir contract.Direction, entry, oracleStop, atr, tick float64) (stop, risk float64) {
	// Oracle 未给止损（0 或负值）时按零距离处理，下面统一落到最小距离，多空对称
	var oriented float64
	if oracleStop > 0 {
		oriented = entry - oracleStop
		if dir == contract.Short {
			oriented = oracleStop - entry
		}
		if oriented < 0 {
			oriented = 0
		}
	}
	minDist := float64(g.minTicks) * tick
	if atrDist := atr * g.minATRMult; atrDist > minDist {
		minDist = atrDist
	}
	risk = oriented
	if minDist > risk {
		risk = minDist
	}
	if dir == contract.Long {
		stop = FloorToTick(entry-risk, tick)
		risk = entry - stop
	} else {
		stop = CeilToTick(entry+risk, tick)
		risk = stop - entry
	}
	return stop, risk
}
