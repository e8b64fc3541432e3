package tradelog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"aurex/internal/decision"
	"aurex/internal/risk"
	"aurex/internal/venue"
)

// Recorder 是执行路径的落库接口。实现必须快进快出，不得阻塞 tick 处理。
type Recorder interface {
	RecordDecision(symbol string, seq uint64, d *decision.Decision, outcome string)
	RecordOrder(order venue.Order)
	RecordTrip(symbol string, v risk.Verdict, price float64, lots int)
}

// Store 用 Gorm + SQLite 持久化决策流水、订单流水与风控事件。
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("tradelog: 数据库路径不能为空")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&DecisionModel{}, &OrderModel{}, &TripModel{}); err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	// SQLite + WAL：留一点并行度给 HTTP 只读查询
	sqlDB.SetMaxOpenConns(2)
	sqlDB.SetMaxIdleConns(2)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) RecordDecision(symbol string, seq uint64, d *decision.Decision, outcome string) {
	payload, _ := json.Marshal(d)
	s.db.Create(&DecisionModel{
		Symbol:     symbol,
		TraceID:    d.TraceID,
		Seq:        seq,
		Signal:     string(d.Signal),
		Confidence: d.Confidence,
		Payload:    datatypes.JSON(payload),
		Outcome:    outcome,
		CreatedAt:  time.Now(),
	})
}

func (s *Store) RecordOrder(order venue.Order) {
	created := order.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	s.db.Create(&OrderModel{
		Symbol:    order.Symbol,
		TraceID:   order.TraceID,
		Side:      string(order.Side),
		Lots:      order.Lots,
		Price:     order.Price,
		Reduce:    order.Reduce,
		Reason:    order.Reason,
		CreatedAt: created,
	})
}

func (s *Store) RecordTrip(symbol string, v risk.Verdict, price float64, lots int) {
	s.db.Create(&TripModel{
		Symbol:    symbol,
		Reason:    string(v.Reason),
		Detail:    v.Detail,
		Price:     price,
		Lots:      lots,
		Disabled:  v.Disable,
		CreatedAt: time.Now(),
	})
}

// RecentDecisions 按时间倒序取最近 n 条决策，状态接口使用。
func (s *Store) RecentDecisions(symbol string, n int) ([]DecisionModel, error) {
	if n <= 0 {
		n = 50
	}
	var out []DecisionModel
	q := s.db.Order("created_at desc").Limit(n)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	return out, q.Find(&out).Error
}

// RecentOrders 最近 n 条订单流水。
func (s *Store) RecentOrders(symbol string, n int) ([]OrderModel, error) {
	if n <= 0 {
		n = 50
	}
	var out []OrderModel
	q := s.db.Order("created_at desc").Limit(n)
	if symbol != "" {
		q = q.Where("symbol = ?", symbol)
	}
	return out, q.Find(&out).Error
}

// Nop 丢弃所有记录，测试与关闭落库时使用。
type Nop struct{}

func (Nop) RecordDecision(string, uint64, *decision.Decision, string) {}
func (Nop) RecordOrder(venue.Order)                                   {}
func (Nop) RecordTrip(string, risk.Verdict, float64, int)             {}
