package venue

import "time"

// Side 下单方向。
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Order 是发往交易通道的最小订单描述。价格为限价参考，
// 上层不依赖返回值确认成交，本地持仓才是可信来源。
type Order struct {
	Symbol    string    `json:"symbol"`
	Side      Side      `json:"side"`
	Price     float64   `json:"price"`
	Lots      int       `json:"lots"`
	Reduce    bool      `json:"reduce"` // 平仓单
	Reason    string    `json:"reason"`
	TraceID   string    `json:"trace_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Venue 抽象下单通道，fire-and-forget。
type Venue interface {
	PlaceOrder(order Order) error
	Flatten(symbol string, price float64, lots int, reason string) error
	// CurrentPosition 仅作对账参考，可不支持。
	CurrentPosition(symbol string) (int, bool)
}
