package config

import "time"

// Config 是执行内核的主配置载体。
type Config struct {
	App     AppConfig      `toml:"app"`
	Account AccountConfig  `toml:"account"`
	Oracle  OracleConfig   `toml:"oracle"`
	Rules   Rulebook       `toml:"rulebook"`
	Sizing  SizingConfig   `toml:"sizing"`
	Risk    RiskConfig     `toml:"risk"`
	Session SessionConfig  `toml:"session"`
	Store   StoreConfig    `toml:"store"`
	Symbols []SymbolConfig `toml:"symbols"`
}

type AppConfig struct {
	Env           string `toml:"env"`
	LogLevel      string `toml:"log_level"`
	HTTPAddr      string `toml:"http_addr"`
	LogPath       string `toml:"log_path"`
	OracleLogPath string `toml:"oracle_log_path"`
}

type AccountConfig struct {
	InitialCash float64 `toml:"initial_cash"`
}

// OracleConfig 描述决策 Oracle（OpenAI 兼容接口）的访问方式与调度节奏。
type OracleConfig struct {
	BaseURL           string   `toml:"base_url"`
	Model             string   `toml:"model"`
	APIKeys           []string `toml:"api_keys"`
	Temperature       float64  `toml:"temperature"`
	TimeoutSeconds    int      `toml:"timeout_seconds"`
	MaxAttempts       int      `toml:"max_attempts"`
	BackoffBaseMS     int      `toml:"backoff_base_ms"`
	BackoffMaxMS      int      `toml:"backoff_max_ms"`
	IntervalSeconds   int      `toml:"interval_seconds"`
	StaggerMaxSeconds int      `toml:"stagger_max_seconds"`
	MinBars           int      `toml:"min_bars"`
	SchemaPath        string   `toml:"schema_path"`
}

func (o OracleConfig) Timeout() time.Duration {
	return time.Duration(o.TimeoutSeconds) * time.Second
}

func (o OracleConfig) Interval() time.Duration {
	return time.Duration(o.IntervalSeconds) * time.Second
}

// Rulebook 是交易员手册：执行器熔断与风控的公司级边界，启动后只读。
type Rulebook struct {
	MaxPositionPct    float64 `toml:"max_position_pct"`
	MandatoryStopLoss bool    `toml:"mandatory_stop_loss"`
	MinRewardRisk     float64 `toml:"min_reward_risk"`
	MinConfidence     float64 `toml:"min_confidence"`
	MaxDailyLossPct   float64 `toml:"max_daily_loss_pct"`
}

type SizingConfig struct {
	MarginBuffer      float64 `toml:"margin_buffer"`       // 新开仓保证金安全系数
	MinGuaranteeRatio float64 `toml:"min_guarantee_ratio"` // equity/used_margin 下限
}

type RiskConfig struct {
	MinStopTicks           int     `toml:"min_stop_ticks"`
	MinStopATRMult         float64 `toml:"min_stop_atr_mult"`
	ReentryCooldownSeconds int     `toml:"reentry_cooldown_seconds"`
	MinReentryGapTicks     int     `toml:"min_reentry_gap_ticks"`
}

func (r RiskConfig) ReentryCooldown() time.Duration {
	return time.Duration(r.ReentryCooldownSeconds) * time.Second
}

// SessionConfig 描述白盘/夜盘的强平时间与交易日切换小时。
type SessionConfig struct {
	DayClose     string `toml:"day_close"`     // "14:55:00"
	NightClose   string `toml:"night_close"`   // "02:25:00"（次日）
	RolloverHour int    `toml:"rollover_hour"` // 进入夜盘的小时
}

type StoreConfig struct {
	TradeLogPath string `toml:"trade_log_path"`
}

// SymbolConfig 是单个合约的静态参数；保证金率为平台缺失时的兜底值。
type SymbolConfig struct {
	Symbol           string  `toml:"symbol"`
	Multiplier       float64 `toml:"multiplier"`
	PriceTick        float64 `toml:"price_tick"`
	MinLots          int     `toml:"min_lots"`
	MarginRatioLong  float64 `toml:"margin_ratio_long"`
	MarginRatioShort float64 `toml:"margin_ratio_short"`
}
