package status

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"aurex/internal/kernel"
	"aurex/internal/logger"
	"aurex/internal/oracle"
	"aurex/internal/store/tradelog"
)

// Server 提供只读状态接口：持仓、账户估值、决策与订单流水。
// 不提供任何改变仓位的入口。
type Server struct {
	addr   string
	router *gin.Engine
	srv    *http.Server
}

// ServerConfig 描述状态服务依赖。Logs 可为 nil（未开落库时流水接口返回 501）。
type ServerConfig struct {
	Addr   string
	Engine *kernel.Engine
	Pool   *oracle.KeyPool
	Logs   *tradelog.Store
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("status server 需要 engine")
	}
	if cfg.Addr == "" {
		cfg.Addr = ":9980"
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger())

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.GET("/positions", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Engine.Statuses())
	})
	api.GET("/positions/:symbol", func(c *gin.Context) {
		k, ok := cfg.Engine.Kernel(c.Param("symbol"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
			return
		}
		c.JSON(http.StatusOK, k.Status())
	})
	api.GET("/account", func(c *gin.Context) {
		out := gin.H{}
		for _, st := range cfg.Engine.Statuses() {
			out[st.Symbol] = st.Account
		}
		c.JSON(http.StatusOK, out)
	})
	if cfg.Pool != nil {
		api.GET("/oracle", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"idle_keys": cfg.Pool.Idle()})
		})
	}
	api.GET("/decisions", func(c *gin.Context) {
		if cfg.Logs == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "tradelog disabled"})
			return
		}
		rows, err := cfg.Logs.RecentDecisions(c.Query("symbol"), queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	})
	api.GET("/orders", func(c *gin.Context) {
		if cfg.Logs == nil {
			c.JSON(http.StatusNotImplemented, gin.H{"error": "tradelog disabled"})
			return
		}
		rows, err := cfg.Logs.RecentOrders(c.Query("symbol"), queryLimit(c))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, rows)
	})

	return &Server{addr: cfg.Addr, router: router}, nil
}

func queryLimit(c *gin.Context) int {
	n, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || n <= 0 || n > 500 {
		return 50
	}
	return n
}

// Run 阻塞启动，ctx 取消时优雅退出。
func (s *Server) Run(ctx context.Context) error {
	s.srv = &http.Server{Addr: s.addr, Handler: s.router}
	errc := make(chan error, 1)
	go func() {
		logger.Infof("状态服务监听 %s", s.addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// Handler 暴露路由，测试使用。
func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debugf("HTTP %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}
