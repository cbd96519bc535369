package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of a PurchaseOrder.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderOrdered   OrderStatus = "ORDERED"
	OrderReceived  OrderStatus = "RECEIVED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// orderTransitions lists the allowed forward edges. RECEIVED and CANCELLED are
// terminal and have no entry.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending: {OrderOrdered, OrderCancelled},
	OrderOrdered: {OrderReceived, OrderCancelled},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderOrdered, OrderReceived, OrderCancelled:
		return true
	}
	return false
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderReceived || s == OrderCancelled
}

// CanTransitionTo reports whether next is an allowed successor of s.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentStatus tracks settlement of a PurchaseOrder independently of delivery.
type PaymentStatus string

const (
	PaymentUnpaid        PaymentStatus = "UNPAID"
	PaymentPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	PaymentPaid          PaymentStatus = "PAID"
)

func (p PaymentStatus) Valid() bool {
	switch p {
	case PaymentUnpaid, PaymentPartiallyPaid, PaymentPaid:
		return true
	}
	return false
}

// PurchaseOrder is a replenishment request to a Supplier.
// TotalAmount is derived from Items and only changes through RecalculateTotal.
type PurchaseOrder struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderNumber   string          `gorm:"size:32;uniqueIndex;not null"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Status        OrderStatus     `gorm:"type:varchar(20);not null;index"`
	PaymentStatus PaymentStatus   `gorm:"type:varchar(20);not null"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	OrderDate     time.Time       `gorm:"not null"`
	ExpectedDate  *time.Time
	ReceivedDate  *time.Time
	Notes         string     `gorm:"type:text"`
	CreatedByID   *uuid.UUID `gorm:"type:uuid;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Supplier *Supplier           `gorm:"foreignKey:SupplierID"`
	Items    []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID"`
}

func (o *PurchaseOrder) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// RecalculateTotal sets TotalAmount to the sum of the items' TotalPrice.
// Items must be loaded.
func (o *PurchaseOrder) RecalculateTotal() {
	total := decimal.Zero
	for i := range o.Items {
		o.Items[i].ComputeTotal()
		total = total.Add(o.Items[i].TotalPrice)
	}
	o.TotalAmount = total
}

// PurchaseOrderItem is a line of a PurchaseOrder. SupplyName is a snapshot kept
// for display after the supply is deleted.
type PurchaseOrderItem struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	PurchaseOrderID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplyID        *uuid.UUID      `gorm:"type:uuid;index"`
	SupplyName      string          `gorm:"size:100;not null"`
	Quantity        int             `gorm:"not null"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	TotalPrice      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *PurchaseOrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps TotalPrice = Quantity × UnitPrice on every insert and update.
func (i *PurchaseOrderItem) BeforeSave(tx *gorm.DB) error {
	i.ComputeTotal()
	return nil
}

func (i *PurchaseOrderItem) ComputeTotal() {
	i.TotalPrice = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
