package exitplan

import (
	"fmt"
	"math"
	"sort"

	"aurex/internal/contract"
	"aurex/internal/risk"
)

// Tranche 是一档分批止盈：到价后按固定手数部分平仓。
type Tranche struct {
	RLevel      float64 `json:"r_level"`
	TargetPrice float64 `json:"target_price"`
	Lots        int     `json:"lots"`
	Executed    bool    `json:"executed"`
}

// Fire 描述一次被触发的分批平仓。
type Fire struct {
	Tranche int
	Lots    int
	Target  float64
	RLevel  float64
}

// Plan 在开仓时刻固化，价格推进时逐档触发。仓位回到空仓后即丢弃。
type Plan struct {
	Direction contract.Direction
	Entry     float64
	RiskDist  float64 // 1R 距离
	Tranches  []Tranche
}

// NewPlan 由 R 倍数档位与百分比权重构建分批计划。
// 权重归一化后按开仓手数取整分配，余数全部挂到最后一档，
// 保证各档手数之和恰好等于开仓手数。
func NewPlan(dir contract.Direction, entry, riskDist float64, levelsR, pcts []float64, openLots int) (*Plan, error) {
	if openLots <= 0 {
		return nil, fmt.Errorf("open lots %d 非正", openLots)
	}
	if riskDist <= 0 {
		return nil, fmt.Errorf("风险距离 %.4f 非正", riskDist)
	}
	n := len(levelsR)
	if len(pcts) < n {
		n = len(pcts)
	}
	if n == 0 {
		return nil, fmt.Errorf("缺少分批档位")
	}

	type pair struct{ r, pct float64 }
	pairs := make([]pair, 0, n)
	var sum float64
	for i := 0; i < n; i++ {
		if levelsR[i] <= 0 || pcts[i] <= 0 {
			continue
		}
		pairs = append(pairs, pair{r: levelsR[i], pct: pcts[i]})
		sum += pcts[i]
	}
	if len(pairs) == 0 || sum <= 0 {
		return nil, fmt.Errorf("分批档位均无效")
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].r < pairs[j].r })

	p := &Plan{Direction: dir, Entry: entry, RiskDist: riskDist}
	assigned := 0
	for i, pr := range pairs {
		target := entry + pr.r*riskDist
		if dir == contract.Short {
			target = entry - pr.r*riskDist
		}
		lots := int(math.Floor(float64(openLots) * pr.pct / sum))
		if i == len(pairs)-1 {
			lots = openLots - assigned
		}
		assigned += lots
		p.Tranches = append(p.Tranches, Tranche{RLevel: pr.r, TargetPrice: target, Lots: lots})
	}
	return p, nil
}

// OnPrice 对每个未触发档位检查到价，返回应下的部分平仓单。
// 同一 tick 可触发多档；单档手数不超过剩余持仓。
func (p *Plan) OnPrice(price float64, remaining int) []Fire {
	var fires []Fire
	for i := range p.Tranches {
		tr := &p.Tranches[i]
		if tr.Executed {
			continue
		}
		hit := p.Direction == contract.Long && risk.PriceAtOrAbove(price, tr.TargetPrice) ||
			p.Direction == contract.Short && risk.PriceAtOrBelow(price, tr.TargetPrice)
		if !hit {
			continue
		}
		tr.Executed = true
		lots := tr.Lots
		if lots > remaining {
			lots = remaining
		}
		if lots <= 0 {
			// 空档位直接标记完成，不产生订单
			continue
		}
		remaining -= lots
		fires = append(fires, Fire{Tranche: i, Lots: lots, Target: tr.TargetPrice, RLevel: tr.RLevel})
	}
	return fires
}

// Done 报告是否所有档位均已处理。
func (p *Plan) Done() bool {
	for _, tr := range p.Tranches {
		if !tr.Executed {
			return false
		}
	}
	return true
}

// TotalLots 是各档手数之和，恒等于开仓手数。
func (p *Plan) TotalLots() int {
	var total int
	for _, tr := range p.Tranches {
		total += tr.Lots
	}
	return total
}
