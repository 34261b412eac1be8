package repo

import (
	"context"

	"gorm.io/gorm"
)

type OrderEventSQLRepo struct {
	db *gorm.DB
}

func (r *OrderEventSQLRepo) Create(ctx context.Context, record *OrderEventRecord) (*OrderEventRecord, error) {
	return record, r.db.WithContext(ctx).Create(record).Error
}

func (r *OrderEventSQLRepo) BulkCreate(ctx context.Context, records []*OrderEventRecord) ([]*OrderEventRecord, error) {
	return records, r.db.WithContext(ctx).Create(records).Error
}
