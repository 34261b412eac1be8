package repo

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeRecord is the audit row for one fill.
type TradeRecord struct {
	ID          int64           `gorm:"primaryKey;autoIncrement"`
	Instrument  string          `gorm:"column:instrument;index"`
	BuyOrderID  string          `gorm:"column:buy_order_id"`
	SellOrderID string          `gorm:"column:sell_order_id"`
	BuyUserID   string          `gorm:"column:buy_user_id;index"`
	SellUserID  string          `gorm:"column:sell_user_id;index"`
	Price       decimal.Decimal `gorm:"column:price;type:numeric(18,4)"`
	Quantity    int64           `gorm:"column:quantity"`
	ExecutedAt  time.Time       `gorm:"column:executed_at"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
}

func (TradeRecord) TableName() string { return "trades" }

// OrderEventRecord is the audit row for one order lifecycle event
// (accepted, cancelled).
type OrderEventRecord struct {
	ID         int64           `gorm:"primaryKey;autoIncrement"`
	EventType  string          `gorm:"column:event_type"`
	Instrument string          `gorm:"column:instrument;index"`
	OrderID    string          `gorm:"column:order_id;index"`
	UserID     string          `gorm:"column:user_id"`
	Side       string          `gorm:"column:side"`
	Status     string          `gorm:"column:status"`
	Price      decimal.Decimal `gorm:"column:price;type:numeric(18,4)"`
	Quantity   int64           `gorm:"column:quantity"`
	OccurredAt time.Time       `gorm:"column:occurred_at"`
	CreatedAt  time.Time       `gorm:"column:created_at"`
}

func (OrderEventRecord) TableName() string { return "order_events" }
