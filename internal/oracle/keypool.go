package oracle

import (
	"errors"
	"sync"
)

// ErrNoKeyAvailable 所有凭据都有在途调用。本轮放弃，等下一次调度。
var ErrNoKeyAvailable = errors.New("no api key available")

// KeyPool 管理一组 API 凭据，每个凭据同一时刻至多一个在途调用。
// 这是整个调度层唯一需要互斥的共享资源。
type KeyPool struct {
	mu       sync.Mutex
	keys     []string
	inflight []bool
	next     int
}

func NewKeyPool(keys []string) *KeyPool {
	return &KeyPool{
		keys:     append([]string(nil), keys...),
		inflight: make([]bool, len(keys)),
	}
}

// Lease 是一次凭据租约。Release 幂等，崩溃路径上也必须归还。
type Lease struct {
	Key  string
	idx  int
	pool *KeyPool
	once sync.Once
}

func (l *Lease) Release() {
	l.once.Do(func() {
		l.pool.mu.Lock()
		l.pool.inflight[l.idx] = false
		l.pool.mu.Unlock()
	})
}

// Acquire 从轮转指针起找第一个空闲凭据。全部占用时返回 ErrNoKeyAvailable，
// 绝不超额：在途上限是硬约束。
func (p *KeyPool) Acquire() (*Lease, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.keys)
	if n == 0 {
		return nil, ErrNoKeyAvailable
	}
	for i := 0; i < n; i++ {
		idx := (p.next + i) % n
		if !p.inflight[idx] {
			p.inflight[idx] = true
			p.next = (idx + 1) % n
			return &Lease{Key: p.keys[idx], idx: idx, pool: p}, nil
		}
	}
	return nil, ErrNoKeyAvailable
}

// Idle 返回当前空闲凭据数，状态接口使用。
func (p *KeyPool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	idle := 0
	for _, busy := range p.inflight {
		if !busy {
			idle++
		}
	}
	return idle
}
