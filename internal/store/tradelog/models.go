package tradelog

import (
	"time"

	"gorm.io/datatypes"
)

// DecisionModel 记录每一笔进入执行路径的 Oracle 决策及其结局。
type DecisionModel struct {
	ID         int64          `gorm:"column:id;primaryKey"`
	Symbol     string         `gorm:"column:symbol;index"`
	TraceID    string         `gorm:"column:trace_id;index"`
	Seq        uint64         `gorm:"column:seq"`
	Signal     string         `gorm:"column:signal"`
	Confidence float64        `gorm:"column:confidence"`
	Payload    datatypes.JSON `gorm:"column:payload"`
	Outcome    string         `gorm:"column:outcome"` // applied / rejected:<原因>
	CreatedAt  time.Time      `gorm:"column:created_at;index"`
}

func (DecisionModel) TableName() string { return "decisions" }

// OrderModel 记录发出的每一张订单（含强平与分批止盈）。
type OrderModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Symbol    string    `gorm:"column:symbol;index"`
	TraceID   string    `gorm:"column:trace_id"`
	Side      string    `gorm:"column:side"`
	Lots      int       `gorm:"column:lots"`
	Price     float64   `gorm:"column:price"`
	Reduce    bool      `gorm:"column:reduce"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (OrderModel) TableName() string { return "orders" }

// TripModel 记录风控强平事件及其数值依据。
type TripModel struct {
	ID        int64     `gorm:"column:id;primaryKey"`
	Symbol    string    `gorm:"column:symbol;index"`
	Reason    string    `gorm:"column:reason"`
	Detail    string    `gorm:"column:detail"`
	Price     float64   `gorm:"column:price"`
	Lots      int       `gorm:"column:lots"`
	Disabled  bool      `gorm:"column:disabled"`
	CreatedAt time.Time `gorm:"column:created_at;index"`
}

func (TripModel) TableName() string { return "risk_trips" }
