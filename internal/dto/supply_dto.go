package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

// SupplyRequest is used by create and update; an update replaces every field.
type SupplyRequest struct {
	Name         string          `json:"name"          validate:"required,max=100"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"         validate:"min=0"`
	Quantity     int             `json:"quantity"      validate:"min=0"`
	ReorderPoint int             `json:"reorder_point" validate:"min=0"`
	Location     string          `json:"location"      validate:"max=100"`
	CategoryID   *string         `json:"category_id"   validate:"omitempty,uuid"`
	TagIDs       []string        `json:"tag_ids"       validate:"omitempty,dive,uuid"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type SupplyFilter struct {
	CategoryID string `form:"category" validate:"omitempty,uuid"`
	TagID      string `form:"tag"      validate:"omitempty,uuid"`
	Location   string `form:"location"`
	Search     string `form:"search"`
	Page       int    `form:"-"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplyResponse struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	ReorderPoint int             `json:"reorder_point"`
	Location     string          `json:"location"`
	IsLowStock   bool            `json:"is_low_stock"`
	Category     *LookupItem     `json:"category"`
	Tags         []LookupItem    `json:"tags"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

type SupplyListResponse struct {
	Data []SupplyResponse `json:"data"`
	Pagination
}

// ImportRowResult describes one applied CSV row.
type ImportRowResult struct {
	Row         int    `json:"row"`
	SupplyID    string `json:"supply_id"`
	SupplyName  string `json:"supply_name"`
	Delta       int    `json:"delta"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
}

type ImportResponse struct {
	FileName      string            `json:"file_name"`
	RowsProcessed int               `json:"rows_processed"`
	Rows          []ImportRowResult `json:"rows"`
}
