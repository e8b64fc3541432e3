package venue

import (
	"sync"
	"time"

	"aurex/internal/logger"
)

// Paper 是纸面通道：只记录订单流水，立即视为成交。
// 用于模拟盘与测试，也是默认通道。
type Paper struct {
	mu     sync.Mutex
	orders []Order
	lots   map[string]int
}

func NewPaper() *Paper {
	return &Paper{lots: make(map[string]int)}
}

func (p *Paper) PlaceOrder(order Order) error {
	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	p.mu.Lock()
	p.orders = append(p.orders, order)
	delta := order.Lots
	if order.Side == Sell {
		delta = -delta
	}
	p.lots[order.Symbol] += delta
	p.mu.Unlock()
	logger.Infof("[PAPER] %s %s %d 手 @ %.2f (%s)", order.Symbol, order.Side, order.Lots, order.Price, order.Reason)
	return nil
}

func (p *Paper) Flatten(symbol string, price float64, lots int, reason string) error {
	if lots == 0 {
		return nil
	}
	side := Sell
	if lots < 0 {
		side = Buy
		lots = -lots
	}
	return p.PlaceOrder(Order{
		Symbol: symbol,
		Side:   side,
		Price:  price,
		Lots:   lots,
		Reduce: true,
		Reason: reason,
	})
}

func (p *Paper) CurrentPosition(symbol string) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	lots, ok := p.lots[symbol]
	return lots, ok
}

// Orders 返回订单流水副本，测试与状态接口使用。
func (p *Paper) Orders() []Order {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Order, len(p.orders))
	copy(out, p.orders)
	return out
}
