package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supply is a stocked item. Price, Quantity and ReorderPoint are never negative;
// the services reject any mutation that would make them so. CategoryID is a weak
// reference: deleting the category nulls it.
type Supply struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name         string          `gorm:"size:100;uniqueIndex;not null"`
	Description  string          `gorm:"type:text"`
	Price        decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity     int             `gorm:"not null;default:0;index"`
	ReorderPoint int             `gorm:"not null;default:0"`
	Location     string          `gorm:"size:100"`
	CategoryID   *uuid.UUID      `gorm:"type:uuid;index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Category *Category `gorm:"foreignKey:CategoryID"`
	Tags     []Tag     `gorm:"many2many:supply_tags"`
}

func (s *Supply) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// IsLowStock must agree with the low-stock query in the repository
// (quantity <= reorder_point).
func (s Supply) IsLowStock() bool {
	return s.Quantity <= s.ReorderPoint
}

// Summary renders the values recorded in audit details:
// "<name>, <price>, <quantity>, <location>".
func (s Supply) Summary() string {
	return fmt.Sprintf("%s, %s, %d, %s", s.Name, s.Price.StringFixed(2), s.Quantity, s.Location)
}
