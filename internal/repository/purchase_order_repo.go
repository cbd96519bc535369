package repository

import (
	"context"
	"time"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PurchaseOrderRepository persists orders and their line items. Every mutation
// is a Tx method: order changes always travel with a total recompute or
// inventory updates in the same transaction.
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error)
	List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, dto.Pagination, error)

	// Used inside transactions — callers must pass the tx instance
	NumberExistsTx(tx *gorm.DB, number string) (bool, error)
	CreateTx(tx *gorm.DB, o *model.PurchaseOrder) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error)
	// SetStatusTx moves the order from one status to another in a single guarded
	// UPDATE. It reports false when the order was no longer in status from.
	SetStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.OrderStatus, receivedDate *time.Time) (bool, error)
	// UpdateTx saves the order's own columns; items are written separately.
	UpdateTx(tx *gorm.DB, o *model.PurchaseOrder) error
	CreateItemTx(tx *gorm.DB, item *model.PurchaseOrderItem) error
	SaveItemTx(tx *gorm.DB, item *model.PurchaseOrderItem) error
	DeleteItemTx(tx *gorm.DB, orderID, itemID uuid.UUID) error

	DB() *gorm.DB
}

type purchaseOrderRepo struct{ db *gorm.DB }

func NewPurchaseOrderRepository(db *gorm.DB) PurchaseOrderRepository {
	return &purchaseOrderRepo{db: db}
}

func (r *purchaseOrderRepo) DB() *gorm.DB { return r.db }

func withOrderRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Supplier").Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("created_at ASC, id ASC")
	})
}

func (r *purchaseOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.PurchaseOrder, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *purchaseOrderRepo) List(ctx context.Context, filter dto.PurchaseOrderFilter) ([]model.PurchaseOrder, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseOrder{})
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if id, err := uuid.Parse(filter.SupplierID); err == nil {
		q = q.Where("supplier_id = ?", id)
	}
	var orders []model.PurchaseOrder
	page, err := paginate(q, filter.Page, "order_date DESC, order_number DESC", &orders, withOrderRelations)
	return orders, page, err
}

func (r *purchaseOrderRepo) NumberExistsTx(tx *gorm.DB, number string) (bool, error) {
	var n int64
	err := tx.Model(&model.PurchaseOrder{}).Where("order_number = ?", number).Count(&n).Error
	return n > 0, err
}

func (r *purchaseOrderRepo) CreateTx(tx *gorm.DB, o *model.PurchaseOrder) error {
	return tx.Omit(clause.Associations).Create(o).Error
}

func (r *purchaseOrderRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.PurchaseOrder, error) {
	var o model.PurchaseOrder
	if err := tx.Scopes(withOrderRelations).First(&o, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *purchaseOrderRepo) SetStatusTx(tx *gorm.DB, id uuid.UUID, from, to model.OrderStatus, receivedDate *time.Time) (bool, error) {
	updates := map[string]any{"status": to}
	if receivedDate != nil {
		updates["received_date"] = *receivedDate
	}
	res := tx.Model(&model.PurchaseOrder{}).Where("id = ? AND status = ?", id, from).Updates(updates)
	return res.RowsAffected == 1, res.Error
}

func (r *purchaseOrderRepo) UpdateTx(tx *gorm.DB, o *model.PurchaseOrder) error {
	return tx.Omit(clause.Associations).Save(o).Error
}

func (r *purchaseOrderRepo) CreateItemTx(tx *gorm.DB, item *model.PurchaseOrderItem) error {
	return tx.Create(item).Error
}

func (r *purchaseOrderRepo) SaveItemTx(tx *gorm.DB, item *model.PurchaseOrderItem) error {
	return tx.Save(item).Error
}

func (r *purchaseOrderRepo) DeleteItemTx(tx *gorm.DB, orderID, itemID uuid.UUID) error {
	res := tx.Where("id = ? AND purchase_order_id = ?", itemID, orderID).Delete(&model.PurchaseOrderItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
