package oracle

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"aurex/internal/config"
	"aurex/internal/decision"
	"aurex/internal/logger"
	"aurex/internal/market"
)

// Dispatcher 负责按周期触发 Oracle 调用。调用在独立 goroutine 里进行，
// 结果只写入对应合约的 Slot，从不直接触碰持仓状态。
// 同一合约同一时刻至多一个在途调用。
type Dispatcher struct {
	cfg    config.OracleConfig
	rules  config.Rulebook
	pool   *KeyPool
	client *Client
	parser *decision.Parser
	mkt    market.Provider
	retry  RetryPolicy

	mu       sync.Mutex
	slots    map[string]*Slot
	lastCall map[string]time.Time
	inflight map[string]bool

	wg sync.WaitGroup
}

func NewDispatcher(cfg config.OracleConfig, rules config.Rulebook, pool *KeyPool,
	client *Client, parser *decision.Parser, mkt market.Provider) *Dispatcher {
	return &Dispatcher{
		cfg:    cfg,
		rules:  rules,
		pool:   pool,
		client: client,
		parser: parser,
		mkt:    mkt,
		retry: RetryPolicy{
			MaxAttempts: cfg.MaxAttempts,
			BaseBackoff: time.Duration(cfg.BackoffBaseMS) * time.Millisecond,
			MaxBackoff:  time.Duration(cfg.BackoffMaxMS) * time.Millisecond,
		},
		slots:    make(map[string]*Slot),
		lastCall: make(map[string]time.Time),
		inflight: make(map[string]bool),
	}
}

// Slot 返回该合约的决策槽，不存在则创建。
func (d *Dispatcher) Slot(symbol string) *Slot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.slotLocked(symbol)
}

func (d *Dispatcher) slotLocked(symbol string) *Slot {
	s, ok := d.slots[symbol]
	if !ok {
		s = NewSlot()
		d.slots[symbol] = s
	}
	return s
}

// MaybeDispatch 在执行路径的 tick 上调用。满足触发条件（周期到点 + 错峰偏移、
// 无在途调用、历史样本足够、有空闲凭据）才会真正发起。
func (d *Dispatcher) MaybeDispatch(ctx context.Context, now time.Time, symbol string) {
	d.mu.Lock()
	if d.inflight[symbol] {
		d.mu.Unlock()
		return
	}
	due := d.lastCall[symbol].Add(d.cfg.Interval() + d.stagger(symbol))
	if now.Before(due) {
		d.mu.Unlock()
		return
	}
	slot := d.slotLocked(symbol)
	d.mu.Unlock()

	briefing, ok := d.mkt.Briefing(symbol)
	if !ok || briefing.BarCount < d.cfg.MinBars {
		return
	}

	lease, err := d.pool.Acquire()
	if err != nil {
		logger.Debugf("[%s] 无空闲凭据，本轮跳过", symbol)
		return
	}

	d.mu.Lock()
	d.inflight[symbol] = true
	d.lastCall[symbol] = now
	d.mu.Unlock()

	seq := slot.NextSeq()
	d.wg.Add(1)
	go d.call(ctx, symbol, slot, seq, lease, briefing)
}

func (d *Dispatcher) call(ctx context.Context, symbol string, slot *Slot, seq uint64,
	lease *Lease, briefing market.Briefing) {
	defer d.wg.Done()
	defer lease.Release()
	defer func() {
		d.mu.Lock()
		d.inflight[symbol] = false
		d.mu.Unlock()
	}()
	defer func() {
		if r := recover(); r != nil {
			logger.Errorf("[%s] oracle 调用 panic: %v", symbol, r)
		}
	}()

	user := BuildUserPrompt(briefing, d.rules)
	var raw string
	err := d.retry.Do(ctx, func(ctx context.Context) error {
		var cerr error
		raw, cerr = d.client.Chat(ctx, lease.Key, SystemPrompt(), user)
		return cerr
	})
	if err != nil {
		// 槽位保持不动，下一次调度重试
		logger.Warnf("[%s] oracle 调用失败 (seq=%d): %v", symbol, seq, err)
		return
	}
	logger.LogOracleExchange(symbol, MaskKey(lease.Key), user, raw)

	dec, err := d.parser.Parse(symbol, raw)
	if err != nil {
		logger.Warnf("[%s] oracle 决策被丢弃 (seq=%d): %v", symbol, seq, err)
		return
	}
	if slot.Publish(seq, dec) {
		logger.Infof("[%s] 决策入槽 seq=%d signal=%s conf=%.2f", symbol, seq, dec.Signal, dec.Confidence)
	} else {
		logger.Infof("[%s] 迟到决策被丢弃 seq=%d", symbol, seq)
	}
}

// stagger 给每个合约一个稳定的错峰偏移，避免同一时刻集中打满凭据池。
func (d *Dispatcher) stagger(symbol string) time.Duration {
	if d.cfg.StaggerMaxSeconds <= 0 {
		return 0
	}
	h := fnv.New32a()
	h.Write([]byte(symbol))
	return time.Duration(h.Sum32()%uint32(d.cfg.StaggerMaxSeconds+1)) * time.Second
}

// Wait 等待所有在途调用收尾，停机路径使用。
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
