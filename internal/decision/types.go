package decision

import (
	"strings"
	"time"
)

// Signal 是 Oracle 决策动作的封闭枚举。
type Signal string

const (
	SignalBuy        Signal = "buy"
	SignalSell       Signal = "sell"
	SignalHold       Signal = "hold"
	SignalClose      Signal = "close"
	SignalAdjustStop Signal = "adjust_stop"
)

func ParseSignal(raw string) (Signal, bool) {
	switch Signal(strings.ToLower(strings.TrimSpace(raw))) {
	case SignalBuy:
		return SignalBuy, true
	case SignalSell:
		return SignalSell, true
	case SignalHold:
		return SignalHold, true
	case SignalClose:
		return SignalClose, true
	case SignalAdjustStop:
		return SignalAdjustStop, true
	default:
		return "", false
	}
}

func (s Signal) Opens() bool {
	return s == SignalBuy || s == SignalSell
}

// TrailingMode 动态追踪止损模式。
type TrailingMode string

const (
	TrailingNone    TrailingMode = "none"
	TrailingATR     TrailingMode = "atr"
	TrailingPercent TrailingMode = "percent"
)

// TrailingSpec 描述追踪止损与时间离场参数。
type TrailingSpec struct {
	Mode            TrailingMode `json:"trailing_type" mapstructure:"trailing_type"`
	ATRMult         float64      `json:"trailing_atr_mult" mapstructure:"trailing_atr_mult"`
	Percent         float64      `json:"trailing_percent" mapstructure:"trailing_percent"`
	TimeStopMinutes float64      `json:"time_stop_minutes" mapstructure:"time_stop_minutes"`
}

func (t TrailingSpec) Enabled() bool {
	return t.Mode == TrailingATR && t.ATRMult > 0 || t.Mode == TrailingPercent && t.Percent > 0
}

// TradePlan 承载开仓决策的执行参数。除 StopLoss（入场时由护栏复位）外，
// 决策一经解析视为只读。
type TradePlan struct {
	EntryPrice      float64   `json:"entry_price" mapstructure:"entry_price"`
	SizePct         float64   `json:"position_size_pct" mapstructure:"position_size_pct"`
	StopLoss        float64   `json:"stop_loss" mapstructure:"stop_loss"`
	ProfitTarget    float64   `json:"profit_target" mapstructure:"profit_target"`
	ScaleOutLevelsR []float64 `json:"scale_out_levels_r" mapstructure:"scale_out_levels_r"`
	ScaleOutPcts    []float64 `json:"scale_out_pcts" mapstructure:"scale_out_pcts"`
	CooldownMinutes float64   `json:"cooldown_minutes" mapstructure:"cooldown_minutes"`
	PlanID          string    `json:"plan_id" mapstructure:"plan_id"`

	Trailing TrailingSpec `json:"trailing" mapstructure:",squash"`
}

// Decision 单笔 Oracle 决策。
type Decision struct {
	Symbol     string    `json:"symbol" mapstructure:"symbol"`
	Signal     Signal    `json:"signal" mapstructure:"signal"`
	Confidence float64   `json:"confidence" mapstructure:"confidence"`
	Plan       TradePlan `json:"plan" mapstructure:",squash"`
	Reasoning  string    `json:"reasoning" mapstructure:"reasoning"`

	// TraceID 由解析器分配，用于贯穿日志与落库。
	TraceID   string    `json:"trace_id" mapstructure:"-"`
	CreatedAt time.Time `json:"created_at" mapstructure:"-"`
}
