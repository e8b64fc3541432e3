package oracle

import (
	"sync"

	"aurex/internal/decision"
)

// Slot 是异步 Oracle 调用与同步执行路径之间的单槽交接点（每合约一个）。
// 序号在调度时刻分配并严格递增；执行路径只消费序号大于上次已消费的结果，
// 慢请求迟到的旧结果会被静默丢弃——序号顺序是权威，完成顺序不是。
type Slot struct {
	mu sync.Mutex

	nextSeq      uint64
	stored       *decision.Decision
	storedSeq    uint64
	lastConsumed uint64
}

func NewSlot() *Slot {
	return &Slot{}
}

// NextSeq 在发起调用前取号。
func (s *Slot) NextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	return s.nextSeq
}

// Publish 写入一次调用结果。旧序号（≤ 已存或已消费）直接丢弃，返回 false。
func (s *Slot) Publish(seq uint64, d *decision.Decision) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq <= s.storedSeq || seq <= s.lastConsumed {
		return false
	}
	s.stored = d
	s.storedSeq = seq
	return true
}

// Invalidate 作废未消费的结果，并让所有已取号的在途调用过期。
// 风控停牌时调用：停牌前发起的调用即使稍后完成，其结果也不得穿越到下一时段。
func (s *Slot) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stored = nil
	if s.lastConsumed < s.nextSeq {
		s.lastConsumed = s.nextSeq
	}
}

// Consume 取走待执行决策，至多一次。无新结果时返回 false。
func (s *Slot) Consume() (*decision.Decision, uint64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil || s.storedSeq <= s.lastConsumed {
		return nil, 0, false
	}
	d, seq := s.stored, s.storedSeq
	s.stored = nil
	s.lastConsumed = seq
	return d, seq, true
}
