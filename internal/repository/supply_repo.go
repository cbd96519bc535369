package repository

import (
	"context"
	"errors"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNegativeQuantity is returned by AdjustQuantityTx when the delta would take
// the stored quantity below zero. Nothing is written in that case.
var ErrNegativeQuantity = errors.New("quantity would become negative")

// SupplyRepository defines the data access contract for supplies.
// Services depend on this interface, not on the concrete GORM implementation.
type SupplyRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supply, error)
	List(ctx context.Context, filter dto.SupplyFilter) ([]model.Supply, dto.Pagination, error)
	ListLowStock(ctx context.Context, page int) ([]model.Supply, dto.Pagination, error)

	// Used inside transactions — callers must pass the tx instance
	CreateTx(tx *gorm.DB, s *model.Supply) error
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Supply, error)
	FindByNameTx(tx *gorm.DB, name string) (*model.Supply, error)
	UpdateTx(tx *gorm.DB, s *model.Supply) error
	DeleteTx(tx *gorm.DB, id uuid.UUID) error
	ListAllTx(tx *gorm.DB) ([]model.Supply, error)

	// AdjustQuantityTx adds delta to the stored quantity in a single UPDATE and
	// returns the new quantity.
	AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) (int, error)

	DB() *gorm.DB
}

type supplyRepo struct{ db *gorm.DB }

func NewSupplyRepository(db *gorm.DB) SupplyRepository { return &supplyRepo{db: db} }

func (r *supplyRepo) DB() *gorm.DB { return r.db }

func (r *supplyRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Supply, error) {
	return r.FindByIDTx(r.db.WithContext(ctx), id)
}

func (r *supplyRepo) List(ctx context.Context, filter dto.SupplyFilter) ([]model.Supply, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.Supply{})

	if id, err := uuid.Parse(filter.CategoryID); err == nil {
		q = q.Where("category_id = ?", id)
	}
	if id, err := uuid.Parse(filter.TagID); err == nil {
		q = q.Where("id IN (?)", r.db.Table("supply_tags").Select("supply_id").Where("tag_id = ?", id))
	}
	if loc := strings.TrimSpace(filter.Location); loc != "" {
		q = q.Where("LOWER(location) LIKE ? ESCAPE '\\'", containsPattern(loc))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		p := containsPattern(s)
		q = q.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR LOWER(description) LIKE ? ESCAPE '\\')", p, p)
	}

	var supplies []model.Supply
	page, err := paginate(q, filter.Page, "name ASC", &supplies, withSupplyRelations)
	return supplies, page, err
}

// ListLowStock uses the same predicate as model.Supply.IsLowStock.
func (r *supplyRepo) ListLowStock(ctx context.Context, page int) ([]model.Supply, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.Supply{}).Where("quantity <= reorder_point")
	var supplies []model.Supply
	p, err := paginate(q, page, "name ASC", &supplies, withSupplyRelations)
	return supplies, p, err
}

func (r *supplyRepo) CreateTx(tx *gorm.DB, s *model.Supply) error {
	// Tags are linked to existing rows only; never upsert tag data through a supply.
	return tx.Omit("Category", "Tags.*").Create(s).Error
}

func (r *supplyRepo) FindByIDTx(tx *gorm.DB, id uuid.UUID) (*model.Supply, error) {
	var s model.Supply
	err := tx.Scopes(withSupplyRelations).First(&s, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *supplyRepo) FindByNameTx(tx *gorm.DB, name string) (*model.Supply, error) {
	var s model.Supply
	if err := tx.Where("LOWER(name) = LOWER(?)", name).First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// UpdateTx saves the scalar columns and replaces the tag set with s.Tags.
func (r *supplyRepo) UpdateTx(tx *gorm.DB, s *model.Supply) error {
	if err := tx.Omit(clause.Associations).Save(s).Error; err != nil {
		return err
	}
	tags := tx.Model(s).Omit("Tags.*").Association("Tags")
	if len(s.Tags) == 0 {
		return tags.Clear()
	}
	return tags.Replace(s.Tags)
}

func (r *supplyRepo) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return deleteWithPolicy(tx, supplyDeletion, &model.Supply{}, id)
}

// ListAllTx returns every supply in the persisted default order (name).
func (r *supplyRepo) ListAllTx(tx *gorm.DB) ([]model.Supply, error) {
	var supplies []model.Supply
	err := tx.Order("name ASC").Find(&supplies).Error
	return supplies, err
}

func (r *supplyRepo) AdjustQuantityTx(tx *gorm.DB, id uuid.UUID, delta int) (int, error) {
	res := tx.Model(&model.Supply{}).
		Where("id = ? AND quantity + ? >= 0", id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := tx.Model(&model.Supply{}).Where("id = ?", id).Count(&exists).Error; err != nil {
			return 0, err
		}
		if exists == 0 {
			return 0, gorm.ErrRecordNotFound
		}
		return 0, ErrNegativeQuantity
	}
	var s model.Supply
	if err := tx.Select("quantity").Where("id = ?", id).Take(&s).Error; err != nil {
		return 0, err
	}
	return s.Quantity, nil
}

func withSupplyRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Category").Preload("Tags", func(db *gorm.DB) *gorm.DB {
		return db.Order("name ASC")
	})
}
