package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"aurex/internal/config"
	"aurex/internal/kernel"
	"aurex/internal/logger"
	"aurex/internal/market"
	"aurex/internal/oracle"
	"aurex/internal/store/tradelog"
	"aurex/internal/transport/http/status"
)

// App 负责应用级编排：加载配置 → 装配依赖 → 启动内核与状态服务。
type App struct {
	cfg        *config.Config
	engine     *kernel.Engine
	hub        *market.Hub
	dispatcher *oracle.Dispatcher
	httpSrv    *status.Server
	store      *tradelog.Store
}

// NewApp 根据配置构建应用对象（不启动）。
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run 启动全部内核与状态服务，阻塞到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.engine == nil {
		return fmt.Errorf("app not initialized")
	}
	group, ctx := errgroup.WithContext(ctx)

	if a.httpSrv != nil {
		group.Go(func() error {
			if err := a.httpSrv.Run(ctx); err != nil {
				return fmt.Errorf("status http server error: %w", err)
			}
			return nil
		})
	}
	group.Go(func() error {
		return a.engine.Run(ctx)
	})

	err := group.Wait()
	// 等在途 Oracle 调用收尾，再关流水库
	a.dispatcher.Wait()
	if a.store != nil {
		if cerr := a.store.Close(); cerr != nil {
			logger.Warnf("关闭交易流水库失败: %v", cerr)
		}
	}
	return err
}

// Market 暴露行情汇聚点，宿主行情源向其推送简报。
func (a *App) Market() *market.Hub { return a.hub }

// Engine 暴露内核引擎，宿主行情源向其推送 tick。
func (a *App) Engine() *kernel.Engine { return a.engine }
