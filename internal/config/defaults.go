package config

// 默认值常量（按上期所 AU 合约经验值校准）
const (
	defaultAppEnv        = "dev"
	defaultAppLogLevel   = "info"
	defaultAppHTTPAddr   = ":9982"
	defaultInitialCash   = 2000000
	defaultOracleBaseURL = "https://api.deepseek.com/v1"
	defaultOracleModel   = "deepseek-chat"
	defaultOracleTemp    = 0.7
	defaultOracleTimeout = 30
	defaultOracleRetries = 3
	defaultBackoffBaseMS = 800
	defaultBackoffMaxMS  = 8000
	defaultInterval      = 180
	defaultStagger       = 7
	defaultMinBars       = 20
	defaultMaxPct        = 0.6
	defaultMinRR         = 2.0
	defaultMinConf       = 0.6
	defaultMaxDailyLoss  = 0.05
	defaultMarginBuffer  = 1.05
	defaultMinGuarantee  = 1.3
	defaultMinStopTicks  = 10
	defaultMinStopATR    = 0.4
	defaultReentrySecs   = 120
	defaultDayClose      = "14:55:00"
	defaultNightClose    = "02:25:00"
	defaultRolloverHour  = 21
	defaultTradeLogPath  = "data/tradelog.db"
)

func (c *Config) applyDefaults() {
	if c.App.Env == "" {
		c.App.Env = defaultAppEnv
	}
	if c.App.LogLevel == "" {
		c.App.LogLevel = defaultAppLogLevel
	}
	if c.App.HTTPAddr == "" {
		c.App.HTTPAddr = defaultAppHTTPAddr
	}
	if c.Account.InitialCash <= 0 {
		c.Account.InitialCash = defaultInitialCash
	}
	c.Oracle.applyDefaults()
	c.Rules.applyDefaults()
	if c.Sizing.MarginBuffer <= 0 {
		c.Sizing.MarginBuffer = defaultMarginBuffer
	}
	if c.Sizing.MinGuaranteeRatio <= 0 {
		c.Sizing.MinGuaranteeRatio = defaultMinGuarantee
	}
	if c.Risk.MinStopTicks <= 0 {
		c.Risk.MinStopTicks = defaultMinStopTicks
	}
	if c.Risk.MinStopATRMult <= 0 {
		c.Risk.MinStopATRMult = defaultMinStopATR
	}
	if c.Risk.ReentryCooldownSeconds <= 0 {
		c.Risk.ReentryCooldownSeconds = defaultReentrySecs
	}
	if c.Session.DayClose == "" {
		c.Session.DayClose = defaultDayClose
	}
	if c.Session.NightClose == "" {
		c.Session.NightClose = defaultNightClose
	}
	if c.Session.RolloverHour <= 0 {
		c.Session.RolloverHour = defaultRolloverHour
	}
	if c.Store.TradeLogPath == "" {
		c.Store.TradeLogPath = defaultTradeLogPath
	}
	for i := range c.Symbols {
		s := &c.Symbols[i]
		if s.Multiplier <= 0 {
			s.Multiplier = 1
		}
		if s.MinLots <= 0 {
			s.MinLots = 1
		}
	}
}

func (o *OracleConfig) applyDefaults() {
	if o.BaseURL == "" {
		o.BaseURL = defaultOracleBaseURL
	}
	if o.Model == "" {
		o.Model = defaultOracleModel
	}
	if o.Temperature <= 0 {
		o.Temperature = defaultOracleTemp
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = defaultOracleTimeout
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = defaultOracleRetries
	}
	if o.BackoffBaseMS <= 0 {
		o.BackoffBaseMS = defaultBackoffBaseMS
	}
	if o.BackoffMaxMS <= 0 {
		o.BackoffMaxMS = defaultBackoffMaxMS
	}
	if o.IntervalSeconds <= 0 {
		o.IntervalSeconds = defaultInterval
	}
	if o.StaggerMaxSeconds <= 0 {
		o.StaggerMaxSeconds = defaultStagger
	}
	if o.MinBars <= 0 {
		o.MinBars = defaultMinBars
	}
}

func (r *Rulebook) applyDefaults() {
	if r.MaxPositionPct <= 0 {
		r.MaxPositionPct = defaultMaxPct
	}
	if r.MinRewardRisk <= 0 {
		r.MinRewardRisk = defaultMinRR
	}
	if r.MinConfidence <= 0 {
		r.MinConfidence = defaultMinConf
	}
	if r.MaxDailyLossPct <= 0 {
		r.MaxDailyLossPct = defaultMaxDailyLoss
	}
}
