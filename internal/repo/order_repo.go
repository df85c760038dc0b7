// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for order
// intents. The saga owns the lifecycle: rows are born pending, promoted
// to fulfilled in one atomic update, or deleted by compensation.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/eokafor/go-pharmacy-backend/internal/domain"
)

// CreatePendingOrder durably inserts the full order snapshot with status
// pending. A duplicate idempotency key fails the insert via the unique
// index, which the saga reports as a repeated placement.
func CreatePendingOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	o.Status = domain.OrderPending
	return db.WithContext(ctx).Create(o).Error
}

// MarkOrderFulfilled promotes a pending order to fulfilled and attaches
// the fulfillment API response in a single UPDATE. The status predicate
// keeps the transition one-way.
func MarkOrderFulfilled(ctx context.Context, db *gorm.DB, orderID, apiResponse string) error {
	res := db.WithContext(ctx).Model(&domain.Order{}).
		Where("id = ? AND status = ?", orderID, domain.OrderPending).
		Updates(map[string]any{
			"status":       domain.OrderFulfilled,
			"api_response": apiResponse,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteOrder removes an order row. This is the saga's compensation
// step; it is best-effort by design and applied at most once.
func DeleteOrder(ctx context.Context, db *gorm.DB, orderID string) error {
	return db.WithContext(ctx).Where("id = ?", orderID).Delete(&domain.Order{}).Error
}

// GetOrder fetches an order by primary key.
func GetOrder(ctx context.Context, db *gorm.DB, orderID string) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", orderID).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrdersByBatchID returns all orders sharing a fulfillment batch
// key, oldest first. Because BatchID is a truncated digest of stable
// inputs this can legitimately return several rows.
func ListOrdersByBatchID(ctx context.Context, db *gorm.DB, batchID string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}
