package risk

import (
	"fmt"
	"time"

	"aurex/internal/account"
	"aurex/internal/config"
	"aurex/internal/contract"
	"aurex/internal/decision"
)

// TripReason 标识风控强平的触发类别。
type TripReason string

const (
	TripSessionClose TripReason = "session_force_close"
	TripHardStop     TripReason = "hard_stop"
	TripTrailingStop TripReason = "trailing_stop"
	TripTimeStop     TripReason = "time_stop"
	TripDailyLoss    TripReason = "daily_loss"
)

// OpenPosition 是心跳检查所需的持仓视图，由执行层在每个 tick 构造。
type OpenPosition struct {
	Direction contract.Direction
	Lots      int
	AvgPrice  float64
	Stop      float64
	Trailing  decision.TrailingSpec
	OpenedAt  time.Time
}

// Verdict 非 nil 即要求立刻平仓；Disable 为真时同时停牌到下一时段。
type Verdict struct {
	Reason  TripReason
	Detail  string
	Disable bool
}

// Heartbeat 在每个行情更新上执行既定顺序的风控检查，首个命中即终止本 tick。
// 检查顺序：强平时点 → 硬止损 → 移动止损 → 持仓时限 → 当日亏损上限。
type Heartbeat struct {
	clock *SessionClock
	rules config.Rulebook

	sessionKey     string
	dayStartEquity float64
	disabledKey    string

	tracking bool
	peak     float64
	trough   float64
}

func NewHeartbeat(clock *SessionClock, rules config.Rulebook) *Heartbeat {
	return &Heartbeat{clock: clock, rules: rules}
}

// BeginSession 在时段切换时重置当日基准权益，并解除上一时段的停牌。
func (h *Heartbeat) BeginSession(now time.Time, equity float64) {
	key := h.clock.SessionKey(now)
	if key == h.sessionKey {
		return
	}
	h.sessionKey = key
	h.dayStartEquity = equity
	if h.disabledKey != "" && h.disabledKey != key {
		h.disabledKey = ""
	}
}

// TradingEnabled 报告当前时段是否允许新决策生效。
func (h *Heartbeat) TradingEnabled(now time.Time) bool {
	if h.disabledKey == "" {
		return true
	}
	if h.clock.SessionKey(now) != h.disabledKey {
		h.disabledKey = ""
		return true
	}
	return false
}

func (h *Heartbeat) disable(now time.Time) {
	h.disabledKey = h.clock.SessionKey(now)
}

// TrackEntry 在开仓/加仓后重置峰谷追踪起点。
func (h *Heartbeat) TrackEntry(price float64) {
	h.tracking = true
	h.peak = price
	h.trough = price
}

// ClearTracking 在回到空仓后调用。
func (h *Heartbeat) ClearTracking() {
	h.tracking = false
}

// Check 执行一轮检查。pos 为 nil 表示空仓，此时仅做当日亏损停牌判定。
func (h *Heartbeat) Check(now time.Time, price, atr float64, pos *OpenPosition, snap account.Snapshot) *Verdict {
	if pos != nil && h.tracking {
		if price > h.peak {
			h.peak = price
		}
		if price < h.trough {
			h.trough = price
		}
	}

	if pos != nil && h.clock.ForceCloseReached(now) {
		h.disable(now)
		return &Verdict{
			Reason:  TripSessionClose,
			Detail:  fmt.Sprintf("到达时段强平时点 %s", now.Format("15:04:05")),
			Disable: true,
		}
	}

	if pos != nil && pos.Stop > 0 {
		breached := pos.Direction == contract.Long && PriceAtOrBelow(price, pos.Stop) ||
			pos.Direction == contract.Short && PriceAtOrAbove(price, pos.Stop)
		if breached {
			return &Verdict{
				Reason: TripHardStop,
				Detail: fmt.Sprintf("价格 %.2f 触及止损 %.2f", price, pos.Stop),
			}
		}
	}

	if pos != nil && pos.Trailing.Enabled() && h.tracking {
		if v := h.checkTrailing(price, atr, pos); v != nil {
			return v
		}
	}

	if pos != nil && pos.Trailing.TimeStopMinutes > 0 {
		held := now.Sub(pos.OpenedAt)
		limit := time.Duration(pos.Trailing.TimeStopMinutes * float64(time.Minute))
		if held >= limit {
			return &Verdict{
				Reason: TripTimeStop,
				Detail: fmt.Sprintf("持仓 %s 超过时限 %s", held.Round(time.Second), limit),
			}
		}
	}

	// 已停牌的时段不再重复报当日亏损，避免每个 tick 都落一条风控记录
	if h.rules.MaxDailyLossPct > 0 && h.dayStartEquity > 0 && h.disabledKey != h.clock.SessionKey(now) {
		loss := (h.dayStartEquity - snap.Equity) / h.dayStartEquity
		if loss >= h.rules.MaxDailyLossPct {
			h.disable(now)
			return &Verdict{
				Reason:  TripDailyLoss,
				Detail:  fmt.Sprintf("当日回撤 %.2f%% 触及上限 %.2f%%", loss*100, h.rules.MaxDailyLossPct*100),
				Disable: true,
			}
		}
	}
	return nil
}

func (h *Heartbeat) checkTrailing(price, atr float64, pos *OpenPosition) *Verdict {
	var level float64
	switch pos.Trailing.Mode {
	case decision.TrailingATR:
		if atr <= 0 {
			return nil
		}
		if pos.Direction == contract.Long {
			level = h.peak - pos.Trailing.ATRMult*atr
		} else {
			level = h.trough + pos.Trailing.ATRMult*atr
		}
	case decision.TrailingPercent:
		pct := pos.Trailing.Percent / 100
		if pos.Direction == contract.Long {
			level = h.peak * (1 - pct)
		} else {
			level = h.trough * (1 + pct)
		}
	default:
		return nil
	}
	breached := pos.Direction == contract.Long && PriceAtOrBelow(price, level) ||
		pos.Direction == contract.Short && PriceAtOrAbove(price, level)
	if !breached {
		return nil
	}
	return &Verdict{
		Reason: TripTrailingStop,
		Detail: fmt.Sprintf("价格 %.2f 跌破移动止损 %.2f (峰 %.2f 谷 %.2f)", price, level, h.peak, h.trough),
	}
}
