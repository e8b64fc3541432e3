package config

import (
	"fmt"
	"strings"
	"time"
)

// validate 对配置进行基础校验。
func validate(c *Config) error {
	if len(c.Symbols) == 0 {
		return fmt.Errorf("symbols requires at least one contract")
	}
	seen := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		sym := strings.TrimSpace(s.Symbol)
		if sym == "" {
			return fmt.Errorf("symbols contains entry without symbol")
		}
		if seen[sym] {
			return fmt.Errorf("symbols contains duplicate: %s", sym)
		}
		seen[sym] = true
		if s.PriceTick < 0 {
			return fmt.Errorf("symbols.%s price_tick must be >= 0", sym)
		}
		if s.MarginRatioLong <= 0 || s.MarginRatioShort <= 0 {
			return fmt.Errorf("symbols.%s margin ratios must be > 0", sym)
		}
	}
	if len(c.Oracle.APIKeys) == 0 {
		return fmt.Errorf("oracle.api_keys requires at least one credential")
	}
	for i, k := range c.Oracle.APIKeys {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("oracle.api_keys[%d] is empty", i)
		}
	}
	if c.Rules.MaxPositionPct > 1 {
		return fmt.Errorf("rulebook.max_position_pct must be within (0,1]")
	}
	if c.Sizing.MinGuaranteeRatio < 1 {
		return fmt.Errorf("sizing.min_guarantee_ratio must be >= 1")
	}
	if err := validateClock(c.Session.DayClose); err != nil {
		return fmt.Errorf("session.day_close: %w", err)
	}
	if err := validateClock(c.Session.NightClose); err != nil {
		return fmt.Errorf("session.night_close: %w", err)
	}
	if c.Session.RolloverHour < 0 || c.Session.RolloverHour > 23 {
		return fmt.Errorf("session.rollover_hour must be within [0,23]")
	}
	return nil
}

func validateClock(v string) error {
	if _, err := time.Parse("15:04:05", v); err != nil {
		return fmt.Errorf("invalid clock %q (want HH:MM:SS)", v)
	}
	return nil
}
