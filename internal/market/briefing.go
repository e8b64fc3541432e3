package market

import (
	"encoding/json"
	"time"
)

// Tick 是执行路径的唯一驱动事件。
type Tick struct {
	Symbol    string
	Last      float64
	Bid       float64
	Ask       float64
	Timestamp time.Time
}

// BidOr 返回买一价，缺失时退化到最新价。
func (t Tick) BidOr() float64 {
	if t.Bid > 0 {
		return t.Bid
	}
	return t.Last
}

// AskOr 返回卖一价，缺失时退化到最新价。
func (t Tick) AskOr() float64 {
	if t.Ask > 0 {
		return t.Ask
	}
	return t.Last
}

// Briefing 是行情侧产出的只读快照。内核除少数数值字段外不解释其内容，
// 原样转交 Oracle。
type Briefing struct {
	Symbol    string          `json:"symbol"`
	OrderFlow json.RawMessage `json:"order_flow,omitempty"`
	Structure json.RawMessage `json:"structure,omitempty"`
	Context   json.RawMessage `json:"context,omitempty"`
	Account   json.RawMessage `json:"account,omitempty"`

	// 内核直接消费的数值字段
	LastPrice float64   `json:"last_price"`
	ATR       float64   `json:"atr"`
	BarCount  int       `json:"bar_count"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Provider 由行情/特征工程子系统实现；内核只读。
type Provider interface {
	Briefing(symbol string) (Briefing, bool)
}
