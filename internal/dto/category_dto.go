package dto

import "time"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CategoryRequest struct {
	Name        string `json:"name"        validate:"required,max=100"`
	Description string `json:"description"`
}

type TagRequest struct {
	Name string `json:"name" validate:"required,max=50"`
}

// ─── Filter ──────────────────────────────────────────────────────────────────

// NameFilter is shared by the category, tag and supplier listings.
type NameFilter struct {
	Search string `form:"search"`
	Page   int    `form:"-"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CategoryResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	SupplyCount int64     `json:"supply_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CategoryListResponse struct {
	Data []CategoryResponse `json:"data"`
	Pagination
}

type TagResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	SupplyCount int64     `json:"supply_count"`
	CreatedAt   time.Time `json:"created_at"`
}

type TagListResponse struct {
	Data []TagResponse `json:"data"`
	Pagination
}

// LookupsResponse feeds the filter dropdowns of the supply listing.
type LookupsResponse struct {
	Categories []LookupItem `json:"categories"`
	Tags       []LookupItem `json:"tags"`
}

type LookupItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
