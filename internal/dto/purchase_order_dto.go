package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PurchaseOrderItemRequest struct {
	SupplyID  string           `json:"supply_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity"  validate:"required,gt=0"`
	UnitPrice *decimal.Decimal `json:"unit_price" validate:"omitempty,min=0"` // defaults to the supply's price
}

type CreatePurchaseOrderRequest struct {
	SupplierID   string                     `json:"supplier_id"   validate:"required,uuid"`
	ExpectedDate string                     `json:"expected_date" validate:"omitempty,datetime=2006-01-02"`
	Notes        string                     `json:"notes"`
	Items        []PurchaseOrderItemRequest `json:"items"         validate:"omitempty,dive"`
}

type UpdatePurchaseOrderItemRequest struct {
	Quantity  int             `json:"quantity"   validate:"required,gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"min=0"`
}

type OrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING ORDERED RECEIVED CANCELLED"`
}

type PaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=UNPAID PARTIALLY_PAID PAID"`
}

type SendPurchaseOrderRequest struct {
	// To overrides the supplier's email address.
	To string `json:"to" validate:"omitempty,email"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

type PurchaseOrderFilter struct {
	Status     string `form:"status"   validate:"omitempty,oneof=PENDING ORDERED RECEIVED CANCELLED"`
	SupplierID string `form:"supplier" validate:"omitempty,uuid"`
	Page       int    `form:"-"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PurchaseOrderItemResponse struct {
	ID         string          `json:"id"`
	SupplyID   *string         `json:"supply_id"`
	SupplyName string          `json:"supply_name"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type PurchaseOrderResponse struct {
	ID            string                      `json:"id"`
	OrderNumber   string                      `json:"order_number"`
	Supplier      LookupItem                  `json:"supplier"`
	Status        string                      `json:"status"`
	PaymentStatus string                      `json:"payment_status"`
	TotalAmount   decimal.Decimal             `json:"total_amount"`
	OrderDate     time.Time                   `json:"order_date"`
	ExpectedDate  *string                     `json:"expected_date"`
	ReceivedDate  *time.Time                  `json:"received_date"`
	Notes         string                      `json:"notes"`
	CreatedByID   *string                     `json:"created_by_id"`
	Items         []PurchaseOrderItemResponse `json:"items"`
}

type PurchaseOrderListResponse struct {
	Data []PurchaseOrderResponse `json:"data"`
	Pagination
}
