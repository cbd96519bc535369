package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type SupplierRequest struct {
	Name        string `json:"name"         validate:"required,max=100"`
	ContactName string `json:"contact_name" validate:"max=100"`
	Email       string `json:"email"        validate:"omitempty,email"`
	Phone       string `json:"phone"        validate:"max=30"`
	Address     string `json:"address"`
	IsActive    *bool  `json:"is_active"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type SupplierResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contact_name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type SupplierListResponse struct {
	Data []SupplierResponse `json:"data"`
	Pagination
}
