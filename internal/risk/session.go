package risk

import (
	"time"

	"aurex/internal/config"
)

// SessionClock 判定交易时段与强平截止。夜盘跨日：rolloverHour 之后算夜盘，
// 其截止时刻落在次日凌晨。
type SessionClock struct {
	dayClose     time.Duration // 距当日零点的偏移
	nightClose   time.Duration
	rolloverHour int
}

func NewSessionClock(cfg config.SessionConfig) (*SessionClock, error) {
	day, err := parseClock(cfg.DayClose)
	if err != nil {
		return nil, err
	}
	night, err := parseClock(cfg.NightClose)
	if err != nil {
		return nil, err
	}
	return &SessionClock{dayClose: day, nightClose: night, rolloverHour: cfg.RolloverHour}, nil
}

func parseClock(s string) (time.Duration, error) {
	t, err := time.Parse("15:04:05", s)
	if err != nil {
		return 0, err
	}
	return time.Duration(t.Hour())*time.Hour +
		time.Duration(t.Minute())*time.Minute +
		time.Duration(t.Second())*time.Second, nil
}

// InNightSession 夜盘 = 换日小时之后，或凌晨 3 点之前。
func (c *SessionClock) InNightSession(now time.Time) bool {
	h := now.Hour()
	return h >= c.rolloverHour || h < 3
}

// ForceCloseReached 判定是否已到本时段的强平截止。
// 夜盘开盘段（换日小时之后）截止在次日凌晨，永远未到。
func (c *SessionClock) ForceCloseReached(now time.Time) bool {
	sinceMidnight := time.Duration(now.Hour())*time.Hour +
		time.Duration(now.Minute())*time.Minute +
		time.Duration(now.Second())*time.Second
	h := now.Hour()
	switch {
	case h >= c.rolloverHour:
		return false
	case h < 3:
		return sinceMidnight >= c.nightClose
	default:
		return sinceMidnight >= c.dayClose
	}
}

// SessionKey 标识当前时段，用于“停牌到下一时段”的恢复判定。
// 夜盘归属开盘那一天。
func (c *SessionClock) SessionKey(now time.Time) string {
	day := now
	kind := "day"
	if c.InNightSession(now) {
		kind = "night"
		if now.Hour() < 3 {
			day = now.AddDate(0, 0, -1)
		}
	}
	return day.Format("2006-01-02") + "/" + kind
}
