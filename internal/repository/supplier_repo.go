package repository

import (
	"context"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	FindByName(ctx context.Context, name string) (*model.Supplier, error)
	List(ctx context.Context, filter dto.NameFilter) ([]model.Supplier, dto.Pagination, error)
	Update(ctx context.Context, s *model.Supplier) error

	// DeleteTx cascades to the supplier's purchase orders and their items.
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) DB() *gorm.DB { return r.db }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).First(&s, "id = ?", id).Error
	return &s, err
}

func (r *supplierRepo) FindByName(ctx context.Context, name string) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&s).Error
	return &s, err
}

func (r *supplierRepo) List(ctx context.Context, filter dto.NameFilter) ([]model.Supplier, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.Supplier{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := containsPattern(s)
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(contact_name) LIKE ? ESCAPE '\\')", p, p)
	}
	var list []model.Supplier
	page, err := paginate(q, filter.Page, "name ASC", &list)
	return list, page, err
}

func (r *supplierRepo) Update(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Save(s).Error
}

func (r *supplierRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return deleteWithPolicy(tx, supplierDeletion, &model.Supplier{}, id)
}
