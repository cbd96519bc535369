package service

import (
	"context"
	"fmt"

	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor is the authenticated user a service call runs for. Handlers build it
// from the JWT claims of the request.
type Actor struct {
	UserID   uuid.UUID
	Username string
	Role     model.Role
}

func (a Actor) userRef() *uuid.UUID {
	if a.UserID == uuid.Nil {
		return nil
	}
	id := a.UserID
	return &id
}

// authorize is called first by every mutating service method.
func authorize(a Actor, min model.Role) error {
	if !a.Role.AtLeast(min) {
		return fmt.Errorf("%w: %s required", ErrForbidden, min)
	}
	return nil
}

// runTx executes fn inside a GORM transaction bound to ctx.
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}
