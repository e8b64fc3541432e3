package market

import "sync"

// Hub 是进程内行情汇聚点：外部行情/特征工程子系统把简报推进来，
// 内核按需读取。读多写少，RWMutex 足够。
type Hub struct {
	mu        sync.RWMutex
	briefings map[string]Briefing
}

func NewHub() *Hub {
	return &Hub{briefings: make(map[string]Briefing)}
}

// UpdateBriefing 整体替换该合约的简报快照。
func (h *Hub) UpdateBriefing(b Briefing) {
	h.mu.Lock()
	h.briefings[b.Symbol] = b
	h.mu.Unlock()
}

func (h *Hub) Briefing(symbol string) (Briefing, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	b, ok := h.briefings[symbol]
	return b, ok
}
