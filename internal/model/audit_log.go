package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditAction is the kind of mutation an AuditLog row records.
type AuditAction string

const (
	ActionCreate  AuditAction = "CREATE"
	ActionUpdate  AuditAction = "UPDATE"
	ActionDelete  AuditAction = "DELETE"
	ActionImport  AuditAction = "IMPORT"
	ActionExport  AuditAction = "EXPORT"
	ActionReceive AuditAction = "RECEIVE"
)

func (a AuditAction) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionImport, ActionExport, ActionReceive:
		return true
	}
	return false
}

// UnknownSupplyName is stored when no supply name can be resolved.
const UnknownSupplyName = "Unknown"

// AuditLog is an append-only record of a supply mutation. SupplyID and UserID are
// weak references, nulled when the supply or user is deleted; the name snapshots
// keep the row readable afterwards.
type AuditLog struct {
	ID         uuid.UUID   `gorm:"type:uuid;primaryKey"`
	SupplyID   *uuid.UUID  `gorm:"type:uuid;index"`
	SupplyName string      `gorm:"size:100;not null"`
	Action     AuditAction `gorm:"type:varchar(10);not null;index"`
	Timestamp  time.Time   `gorm:"not null;index"`
	UserID     *uuid.UUID  `gorm:"type:uuid;index"`
	Username   string      `gorm:"size:150"`
	Details    string      `gorm:"type:text"`
}

// BeforeCreate fills the id, the timestamp and the supply name snapshot. The
// lookup runs on the hook's tx so it sees rows written earlier in the same
// transaction.
func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.Timestamp.IsZero() {
		a.Timestamp = time.Now().UTC()
	}
	if a.SupplyName == "" && a.SupplyID != nil {
		var s Supply
		err := tx.Session(&gorm.Session{NewDB: true}).
			Select("name").Where("id = ?", *a.SupplyID).Take(&s).Error
		if err == nil {
			a.SupplyName = s.Name
		}
	}
	if a.SupplyName == "" {
		a.SupplyName = UnknownSupplyName
	}
	return nil
}
