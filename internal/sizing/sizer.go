package sizing

import (
	"errors"
	"fmt"
	"math"

	"aurex/internal/account"
	"aurex/internal/config"
	"aurex/internal/contract"
)

// ErrFundsInsufficient 覆盖两类拒绝：算不够最小手数、以及担保比率跌破下限。
// 二者都意味着订单被压制，只记日志。
var ErrFundsInsufficient = errors.New("funds insufficient")

// Request 描述一次手数计算。CurrentLots 为同向已持有手数（绝对值），
// 加仓时目标手数按总量解释。
type Request struct {
	Spec      contract.Spec
	Direction contract.Direction
	Price     float64
	SizePct   float64
	Account   account.Snapshot

	CurrentLots int
}

// Result 给出本次应下单的手数及复核用的数值依据。
type Result struct {
	TargetLots     int
	OrderLots      int
	MarginPerLot   float64 // 含安全系数
	NewMargin      float64 // 不含安全系数的实际新增占用
	GuaranteeRatio float64
}

// Sizer 把分数仓位换算为整数手数，并做担保比率复核。
type Sizer struct {
	buffer       float64
	minGuarantee float64
}

func NewSizer(cfg config.SizingConfig) *Sizer {
	return &Sizer{buffer: cfg.MarginBuffer, minGuarantee: cfg.MinGuaranteeRatio}
}

// Size 计算下单手数。预算与可用资金各给一个上限，取其小；
// 不足最小手数即拒绝，手数为正时再复核担保比率。
func (s *Sizer) Size(req Request) (Result, error) {
	spec := req.Spec
	if req.Price <= 0 || spec.Multiplier <= 0 {
		return Result{}, fmt.Errorf("%w: 非法价格或乘数 price=%.2f mult=%.0f", ErrFundsInsufficient, req.Price, spec.Multiplier)
	}
	ratio := spec.MarginRatio(req.Direction)
	perLot := req.Price * spec.Multiplier * ratio * s.buffer
	lotsByBudget := int(math.Floor(req.Account.Equity * req.SizePct / perLot))
	lotsByAvailable := int(math.Floor(req.Account.Available / perLot))
	target := lotsByBudget
	if lotsByAvailable < target {
		target = lotsByAvailable
	}
	if target < 0 {
		target = 0
	}

	minLots := spec.MinLots
	if minLots < 1 {
		minLots = 1
	}
	if target < minLots {
		return Result{TargetLots: target, MarginPerLot: perLot}, fmt.Errorf(
			"%w: 目标 %d 手低于最小 %d 手 (预算上限=%d 可用上限=%d 每手保证金≈%.0f)",
			ErrFundsInsufficient, target, minLots, lotsByBudget, lotsByAvailable, perLot)
	}

	// 加仓按总量：已达标则不再开
	order := target - req.CurrentLots
	if order < 0 {
		order = 0
	}
	res := Result{TargetLots: target, OrderLots: order, MarginPerLot: perLot}
	if order == 0 {
		return res, nil
	}

	res.NewMargin = float64(order) * req.Price * spec.Multiplier * ratio
	totalUsed := req.Account.UsedMargin + res.NewMargin
	if totalUsed > 0 {
		res.GuaranteeRatio = req.Account.Equity / totalUsed
	}
	if s.minGuarantee > 0 && res.GuaranteeRatio < s.minGuarantee {
		return res, fmt.Errorf("%w: 担保比率 %.3f 低于下限 %.3f (占用 %.0f + 新增 %.0f)",
			ErrFundsInsufficient, res.GuaranteeRatio, s.minGuarantee, req.Account.UsedMargin, res.NewMargin)
	}
	return res, nil
}
