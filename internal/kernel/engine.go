package kernel

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"aurex/internal/logger"
	"aurex/internal/market"
)

// Engine 把多个合约内核组合起来：每个合约一条 tick 队列、一个处理协程，
// 合约之间没有任何共享可变状态，可完全并行。
type Engine struct {
	kernels map[string]*Kernel
	inputs  map[string]chan market.Tick
}

func NewEngine(kernels []*Kernel) (*Engine, error) {
	e := &Engine{
		kernels: make(map[string]*Kernel, len(kernels)),
		inputs:  make(map[string]chan market.Tick, len(kernels)),
	}
	for _, k := range kernels {
		sym := k.Symbol()
		if _, dup := e.kernels[sym]; dup {
			return nil, fmt.Errorf("重复的合约内核: %s", sym)
		}
		e.kernels[sym] = k
		e.inputs[sym] = make(chan market.Tick, 256)
	}
	return e, nil
}

// OnMarketUpdate 是宿主行情源的回调入口。队列满时丢弃最旧语义从简：
// 直接丢弃本 tick，行情会很快有下一个。
func (e *Engine) OnMarketUpdate(t market.Tick) {
	ch, ok := e.inputs[t.Symbol]
	if !ok {
		return
	}
	select {
	case ch <- t:
	default:
		logger.Warnf("[%s] tick 队列拥塞，丢弃一帧", t.Symbol)
	}
}

// Run 启动全部内核协程，阻塞到 ctx 取消。
func (e *Engine) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for sym, k := range e.kernels {
		sym, k := sym, k
		ch := e.inputs[sym]
		g.Go(func() error {
			logger.Infof("[%s] 内核启动", sym)
			for {
				select {
				case <-ctx.Done():
					logger.Infof("[%s] 内核退出", sym)
					return nil
				case tick := <-ch:
					k.OnMarketUpdate(ctx, tick)
				}
			}
		})
	}
	return g.Wait()
}

// Statuses 汇总全部内核状态。
func (e *Engine) Statuses() []Status {
	out := make([]Status, 0, len(e.kernels))
	for _, k := range e.kernels {
		out = append(out, k.Status())
	}
	return out
}

// Kernel 按合约取内核，状态接口使用。
func (e *Engine) Kernel(symbol string) (*Kernel, bool) {
	k, ok := e.kernels[symbol]
	return k, ok
}
