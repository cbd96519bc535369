package repository

import (
	"fmt"

	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deletion policies. Every delete in this package runs the matching policy on
// the same transaction before removing the row, so the outcome does not depend
// on which foreign keys the backing database enforces.
//
//	category → supplies.category_id              SET NULL
//	tag      → supply_tags                       DELETE
//	supply   → audit_logs.supply_id              SET NULL
//	supply   → purchase_order_items.supply_id    SET NULL
//	supply   → supply_tags                       DELETE
//	supplier → purchase_orders (+ their items)   CASCADE
//	user     → audit_logs.user_id                SET NULL
//	user     → purchase_orders.created_by_id     SET NULL

type deletionStep struct {
	descr string
	run   func(tx *gorm.DB, id uuid.UUID) error
}

func setNull(table, column string) func(tx *gorm.DB, id uuid.UUID) error {
	return func(tx *gorm.DB, id uuid.UUID) error {
		return tx.Table(table).Where(column+" = ?", id).Update(column, nil).Error
	}
}

func deleteRows(table, column string) func(tx *gorm.DB, id uuid.UUID) error {
	return func(tx *gorm.DB, id uuid.UUID) error {
		return tx.Exec("DELETE FROM "+table+" WHERE "+column+" = ?", id).Error
	}
}

var (
	categoryDeletion = []deletionStep{
		{"null supplies.category_id", setNull("supplies", "category_id")},
	}
	tagDeletion = []deletionStep{
		{"delete supply_tags", deleteRows("supply_tags", "tag_id")},
	}
	supplyDeletion = []deletionStep{
		{"null audit_logs.supply_id", setNull("audit_logs", "supply_id")},
		{"null purchase_order_items.supply_id", setNull("purchase_order_items", "supply_id")},
		{"delete supply_tags", deleteRows("supply_tags", "supply_id")},
	}
	supplierDeletion = []deletionStep{
		{"delete purchase_order_items", func(tx *gorm.DB, id uuid.UUID) error {
			orders := tx.Model(&model.PurchaseOrder{}).Select("id").Where("supplier_id = ?", id)
			return tx.Where("purchase_order_id IN (?)", orders).Delete(&model.PurchaseOrderItem{}).Error
		}},
		{"delete purchase_orders", deleteRows("purchase_orders", "supplier_id")},
	}
	userDeletion = []deletionStep{
		{"null audit_logs.user_id", setNull("audit_logs", "user_id")},
		{"null purchase_orders.created_by_id", setNull("purchase_orders", "created_by_id")},
	}
)

func applyDeletion(tx *gorm.DB, steps []deletionStep, id uuid.UUID) error {
	for _, s := range steps {
		if err := s.run(tx, id); err != nil {
			return fmt.Errorf("deletion policy %q: %w", s.descr, err)
		}
	}
	return nil
}

// deleteWithPolicy runs steps and then deletes the row of model with the given id.
// It returns gorm.ErrRecordNotFound when nothing was deleted.
func deleteWithPolicy(tx *gorm.DB, steps []deletionStep, row any, id uuid.UUID) error {
	if err := applyDeletion(tx, steps, id); err != nil {
		return err
	}
	res := tx.Where("id = ?", id).Delete(row)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
