package app

import (
	"context"
	"fmt"

	"aurex/internal/account"
	"aurex/internal/config"
	"aurex/internal/contract"
	"aurex/internal/decision"
	"aurex/internal/executor"
	"aurex/internal/kernel"
	"aurex/internal/logger"
	"aurex/internal/market"
	"aurex/internal/oracle"
	"aurex/internal/risk"
	"aurex/internal/sizing"
	"aurex/internal/store/tradelog"
	"aurex/internal/transport/http/status"
	"aurex/internal/venue"
)

// AppBuilder 按配置逐层装配依赖。构建失败时不留下半初始化状态。
type AppBuilder struct {
	cfg *config.Config
}

func NewAppBuilder(cfg *config.Config) *AppBuilder {
	return &AppBuilder{cfg: cfg}
}

// Build 组装整个应用：共享层（目录、凭据池、调度器、落库）一份，
// 每个合约一套隔离的 执行器/冷却/心跳/内核。
func (b *AppBuilder) Build(ctx context.Context) (*App, error) {
	cfg := b.cfg

	catalog, err := contract.NewCatalog(cfg.Symbols)
	if err != nil {
		return nil, fmt.Errorf("构建合约目录失败: %w", err)
	}

	schemas, err := decision.NewSchemaRegistry(cfg.Oracle.SchemaPath)
	if err != nil {
		return nil, fmt.Errorf("加载决策 schema 失败: %w", err)
	}
	parser := decision.NewParser(schemas)
	gate := decision.NewGate(cfg.Rules)
	hub := market.NewHub()

	pool := oracle.NewKeyPool(cfg.Oracle.APIKeys)
	client := oracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Model, cfg.Oracle.Temperature, cfg.Oracle.Timeout())
	dispatcher := oracle.NewDispatcher(cfg.Oracle, cfg.Rules, pool, client, parser, hub)

	var store *tradelog.Store
	var rec tradelog.Recorder = tradelog.Nop{}
	if cfg.Store.TradeLogPath != "" {
		store, err = tradelog.New(cfg.Store.TradeLogPath)
		if err != nil {
			return nil, fmt.Errorf("打开交易流水库失败: %w", err)
		}
		rec = store
	}

	var vn venue.Venue = venue.NewPaper()
	vn = &tradelog.JournaledVenue{Inner: vn, Rec: rec}

	estimator := account.NewEstimator(cfg.Account.InitialCash)
	sizer := sizing.NewSizer(cfg.Sizing)
	guard := risk.NewStopGuard(cfg.Risk)

	kernels := make([]*kernel.Kernel, 0, len(cfg.Symbols))
	for _, sc := range cfg.Symbols {
		spec, ok := catalog.Lookup(sc.Symbol)
		if !ok {
			return nil, fmt.Errorf("合约目录缺少 %s", sc.Symbol)
		}
		clock, err := risk.NewSessionClock(cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("解析时段配置失败: %w", err)
		}
		exec := executor.New(spec, sizer, guard, risk.NewCooldownTracker(cfg.Risk), estimator, vn)
		hb := risk.NewHeartbeat(clock, cfg.Rules)
		kernels = append(kernels, kernel.New(spec, gate, exec, hb, dispatcher, hub, rec))
		logger.Infof("装配内核 %s (乘数=%.0f tick=%.2f 保证金=%.2f%%/%.2f%%)",
			spec.Symbol, spec.Multiplier, spec.PriceTick,
			spec.MarginRatioLong*100, spec.MarginRatioShort*100)
	}

	engine, err := kernel.NewEngine(kernels)
	if err != nil {
		return nil, err
	}

	var httpSrv *status.Server
	if cfg.App.HTTPAddr != "" {
		httpSrv, err = status.NewServer(status.ServerConfig{
			Addr:   cfg.App.HTTPAddr,
			Engine: engine,
			Pool:   pool,
			Logs:   store,
		})
		if err != nil {
			return nil, fmt.Errorf("构建状态服务失败: %w", err)
		}
	}

	return &App{
		cfg:        cfg,
		engine:     engine,
		hub:        hub,
		dispatcher: dispatcher,
		httpSrv:    httpSrv,
		store:      store,
	}, nil
}
