package repo

import (
	"context"

	"gorm.io/gorm"
)

type ITrade interface {
	Create(ctx context.Context, record *TradeRecord) (*TradeRecord, error)
	BulkCreate(ctx context.Context, records []*TradeRecord) ([]*TradeRecord, error)
}

type IOrderEvent interface {
	Create(ctx context.Context, record *OrderEventRecord) (*OrderEventRecord, error)
	BulkCreate(ctx context.Context, records []*OrderEventRecord) ([]*OrderEventRecord, error)
}

type IRepo interface {
	Trade() ITrade
	OrderEvent() IOrderEvent
}

type Repo struct {
	auditDB *gorm.DB
}

func NewRepo(auditDB *gorm.DB) IRepo {
	return &Repo{auditDB: auditDB}
}

func (r *Repo) Trade() ITrade {
	return &TradeSQLRepo{db: r.auditDB}
}

func (r *Repo) OrderEvent() IOrderEvent {
	return &OrderEventSQLRepo{db: r.auditDB}
}
