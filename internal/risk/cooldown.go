package risk

import (
	"errors"
	"fmt"
	"math"
	"time"

	"aurex/internal/config"
)

// ErrReentryBlocked 表示冷却期或价差约束尚未满足，新开仓被压制。
var ErrReentryBlocked = errors.New("reentry blocked")

// CooldownTracker 管理两类冷却：平仓后的再入场冷却，
// 以及开仓决策自带的加仓冷却。单协程访问，无需加锁。
type CooldownTracker struct {
	cooldown    time.Duration
	minGapTicks int

	reentryUntil  time.Time
	lastExitPrice float64
	hasExit       bool

	cooldownUntil time.Time
}

func NewCooldownTracker(cfg config.RiskConfig) *CooldownTracker {
	return &CooldownTracker{
		cooldown:    cfg.ReentryCooldown(),
		minGapTicks: cfg.MinReentryGapTicks,
	}
}

// RecordClose 在完全平仓后调用，开启再入场冷却并记录离场价。
func (t *CooldownTracker) RecordClose(now time.Time, exitPrice float64) {
	t.reentryUntil = now.Add(t.cooldown)
	t.lastExitPrice = exitPrice
	t.hasExit = exitPrice > 0
	t.cooldownUntil = time.Time{}
}

// RecordOpen 在开仓成交后调用；d>0 时阻止后续加开直至到期。
func (t *CooldownTracker) RecordOpen(now time.Time, d time.Duration) {
	if d > 0 {
		t.cooldownUntil = now.Add(d)
	}
}

// AllowEntry 校验空仓状态下的新开仓是否放行。
func (t *CooldownTracker) AllowEntry(now time.Time, price, tick float64) error {
	if now.Before(t.reentryUntil) {
		return fmt.Errorf("%w: 再入场冷却至 %s", ErrReentryBlocked, t.reentryUntil.Format("15:04:05"))
	}
	if t.hasExit && t.minGapTicks > 0 && tick > 0 {
		gap := math.Abs(price-t.lastExitPrice) / tick
		if gap < float64(t.minGapTicks) {
			return fmt.Errorf("%w: 距上次离场价 %.2f 仅 %.1f tick，低于 %d tick",
				ErrReentryBlocked, t.lastExitPrice, gap, t.minGapTicks)
		}
	}
	return nil
}

// AllowAdd 校验持仓状态下的加开是否放行。
func (t *CooldownTracker) AllowAdd(now time.Time) error {
	if now.Before(t.cooldownUntil) {
		return fmt.Errorf("%w: 加仓冷却至 %s", ErrReentryBlocked, t.cooldownUntil.Format("15:04:05"))
	}
	return nil
}

// ReentryUntil 暴露给状态接口与测试。
func (t *CooldownTracker) ReentryUntil() time.Time { return t.reentryUntil }
