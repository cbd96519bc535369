package dto

import "time"

// AuditLogFilter combines with AND. Dates are inclusive calendar days in UTC.
type AuditLogFilter struct {
	Action   string `form:"action"    validate:"omitempty,oneof=CREATE UPDATE DELETE IMPORT EXPORT RECEIVE"`
	UserID   string `form:"user"      validate:"omitempty,uuid"`
	DateFrom string `form:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo   string `form:"date_to"   validate:"omitempty,datetime=2006-01-02"`
	Page     int    `form:"-"`
}

type AuditLogResponse struct {
	ID         string    `json:"id"`
	SupplyID   *string   `json:"supply_id"`
	SupplyName string    `json:"supply_name"`
	Action     string    `json:"action"`
	Timestamp  time.Time `json:"timestamp"`
	UserID     *string   `json:"user_id"`
	Username   string    `json:"username"`
	Details    string    `json:"details"`
}

type AuditLogListResponse struct {
	Data []AuditLogResponse `json:"data"`
	Pagination
}
