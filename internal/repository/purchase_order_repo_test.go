package repository

import (
	"context"
	"testing"
	"time"

	"supplytrack/internal/model"
	"supplytrack/internal/testutil"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createOrder(t *testing.T, db *gorm.DB, supplier *model.Supplier, number string, items ...model.PurchaseOrderItem) *model.PurchaseOrder {
	t.Helper()
	repo := NewPurchaseOrderRepository(db)
	o := &model.PurchaseOrder{
		OrderNumber:   number,
		SupplierID:    supplier.ID,
		Status:        model.OrderPending,
		PaymentStatus: model.PaymentUnpaid,
		OrderDate:     time.Now().UTC(),
	}
	require.NoError(t, repo.CreateTx(db, o))
	for i := range items {
		items[i].PurchaseOrderID = o.ID
		require.NoError(t, repo.CreateItemTx(db, &items[i]))
	}
	return o
}

func createSupplier(t *testing.T, db *gorm.DB, name string) *model.Supplier {
	t.Helper()
	s := &model.Supplier{Name: name, IsActive: true}
	require.NoError(t, NewSupplierRepository(db).Create(context.Background(), s))
	return s
}

func TestPurchaseOrderRepo_SetStatusTx_IsGuarded(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPurchaseOrderRepository(db)
	o := createOrder(t, db, createSupplier(t, db, "Acme"), "PO-20260101-AAAAAA")

	ok, err := repo.SetStatusTx(db, o.ID, model.OrderPending, model.OrderOrdered, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// a second writer still believing the order is PENDING loses
	ok, err = repo.SetStatusTx(db, o.ID, model.OrderPending, model.OrderCancelled, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now().UTC()
	ok, err = repo.SetStatusTx(db, o.ID, model.OrderOrdered, model.OrderReceived, &now)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderReceived, got.Status)
	require.NotNil(t, got.ReceivedDate)
}

func TestPurchaseOrderRepo_ItemsAndDeleteItem(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPurchaseOrderRepository(db)
	o := createOrder(t, db, createSupplier(t, db, "Acme"), "PO-20260101-BBBBBB",
		model.PurchaseOrderItem{SupplyName: "Gauze", Quantity: 3, UnitPrice: decimal.RequireFromString("4.00")},
		model.PurchaseOrderItem{SupplyName: "Tape", Quantity: 2, UnitPrice: decimal.RequireFromString("10.00")},
	)

	got, err := repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	require.NotNil(t, got.Supplier)
	assert.Equal(t, "Acme", got.Supplier.Name)
	assert.True(t, got.Items[0].TotalPrice.Equal(decimal.NewFromInt(12)), "item total computed on save")

	assert.ErrorIs(t, repo.DeleteItemTx(db, uuid.New(), got.Items[0].ID), gorm.ErrRecordNotFound,
		"an item is only deleted through its own order")
	require.NoError(t, repo.DeleteItemTx(db, o.ID, got.Items[0].ID))

	got, err = repo.FindByID(context.Background(), o.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)
}

func TestSupplierRepo_DeleteTx_CascadesOrders(t *testing.T) {
	db := testutil.NewDB(t)
	supplier := createSupplier(t, db, "Acme")
	other := createSupplier(t, db, "Globex")
	createOrder(t, db, supplier, "PO-20260101-CCCCCC",
		model.PurchaseOrderItem{SupplyName: "Gauze", Quantity: 1, UnitPrice: decimal.NewFromInt(1)})
	kept := createOrder(t, db, other, "PO-20260101-DDDDDD")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return NewSupplierRepository(db).DeleteTx(tx, supplier.ID)
	}))

	var orders, items int64
	require.NoError(t, db.Model(&model.PurchaseOrder{}).Count(&orders).Error)
	require.NoError(t, db.Model(&model.PurchaseOrderItem{}).Count(&items).Error)
	assert.Equal(t, int64(1), orders)
	assert.Equal(t, int64(0), items)

	_, err := NewPurchaseOrderRepository(db).FindByID(context.Background(), kept.ID)
	assert.NoError(t, err)
}

func TestPurchaseOrderRepo_NumberExistsTx(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewPurchaseOrderRepository(db)
	createOrder(t, db, createSupplier(t, db, "Acme"), "PO-20260101-EEEEEE")

	exists, err := repo.NumberExistsTx(db, "PO-20260101-EEEEEE")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.NumberExistsTx(db, "PO-20260101-FFFFFF")
	require.NoError(t, err)
	assert.False(t, exists)
}
