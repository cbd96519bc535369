package service

import (
	"context"
	"testing"

	"supplytrack/internal/config"
	"supplytrack/internal/dto"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"
	"supplytrack/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	supplies   SupplyService
	categories CategoryService
	tags       TagService
	suppliers  SupplierService
	orders     PurchaseOrderService
	audit      AuditService
	auth       AuthService

	admin  Actor
	editor Actor
	viewer Actor
}

type fakeMailer struct {
	to       string
	subject  string
	fileName string
	pdf      []byte
}

func (m *fakeMailer) SendPurchaseOrder(to, subject, _, fileName string, pdf []byte) error {
	m.to, m.subject, m.fileName, m.pdf = to, subject, fileName, pdf
	return nil
}

func actorOf(u *model.User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

// newFixture wires every service against a fresh SQLite database. mailer may be
// nil.
func newFixture(t *testing.T, mailer OrderMailer) *fixture {
	t.Helper()
	db := testutil.NewDB(t)

	categoryRepo := repository.NewCategoryRepository(db)
	tagRepo := repository.NewTagRepository(db)
	supplyRepo := repository.NewSupplyRepository(db)
	supplierRepo := repository.NewSupplierRepository(db)
	orderRepo := repository.NewPurchaseOrderRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	userRepo := repository.NewUserRepository(db)
	lookups := NewLookupService(categoryRepo, tagRepo, nil, 0)

	cfg := &config.Config{JWTSecret: "test-secret", JWTExpirationHours: 8, JWTRefreshHours: 24}

	return &fixture{
		db:         db,
		supplies:   NewSupplyService(supplyRepo, categoryRepo, tagRepo, auditRepo),
		categories: NewCategoryService(categoryRepo, lookups),
		tags:       NewTagService(tagRepo, lookups),
		suppliers:  NewSupplierService(supplierRepo),
		orders:     NewPurchaseOrderService(orderRepo, supplierRepo, supplyRepo, auditRepo, mailer, "Test Clinic"),
		audit:      NewAuditService(auditRepo),
		auth:       NewAuthService(userRepo, cfg),
		admin:      actorOf(testutil.CreateUser(t, db, "root", model.RoleAdmin)),
		editor:     actorOf(testutil.CreateUser(t, db, "ed", model.RoleEditor)),
		viewer:     actorOf(testutil.CreateUser(t, db, "vi", model.RoleViewer)),
	}
}

func (f *fixture) supply(t *testing.T, name, price string, qty int) *dto.SupplyResponse {
	t.Helper()
	resp, err := f.supplies.Create(context.Background(), f.editor, dto.SupplyRequest{
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
		Location: "Shelf A",
	})
	require.NoError(t, err)
	return resp
}

func (f *fixture) supplier(t *testing.T, name, email string) *dto.SupplierResponse {
	t.Helper()
	resp, err := f.suppliers.Create(context.Background(), f.editor, dto.SupplierRequest{Name: name, Email: email})
	require.NoError(t, err)
	return resp
}

func (f *fixture) auditRows(t *testing.T, action model.AuditAction) []dto.AuditLogResponse {
	t.Helper()
	resp, err := f.audit.List(context.Background(), dto.AuditLogFilter{Action: string(action)})
	require.NoError(t, err)
	return resp.Data
}
