package repository

import (
	"context"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CategoryRepository defines CRUD operations for Category.
type CategoryRepository interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByName(ctx context.Context, name string) (*model.Category, error)
	List(ctx context.Context, filter dto.NameFilter) ([]model.Category, dto.Pagination, error)
	ListAll(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, c *model.Category) error
	// SupplyCounts maps category id to the number of supplies in it.
	SupplyCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)

	// Used inside transactions — callers must pass the tx instance
	ReferencingSupplyNamesTx(tx *gorm.DB, id uuid.UUID, limit int) ([]string, int64, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type categoryRepository struct{ db *gorm.DB }

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) DB() *gorm.DB { return r.db }

func (r *categoryRepository) Create(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).First(&c, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) FindByName(ctx context.Context, name string) (*model.Category, error) {
	var c model.Category
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context, filter dto.NameFilter) ([]model.Category, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.Category{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", containsPattern(s))
	}
	var list []model.Category
	page, err := paginate(q, filter.Page, "name ASC", &list)
	return list, page, err
}

func (r *categoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	var list []model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *categoryRepository) Update(ctx context.Context, c *model.Category) error {
	return r.db.WithContext(ctx).Save(c).Error
}

func (r *categoryRepository) SupplyCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		CategoryID uuid.UUID
		Total      int64
	}
	err := r.db.WithContext(ctx).Model(&model.Supply{}).
		Select("category_id, COUNT(*) AS total").
		Where("category_id IN ?", ids).
		Group("category_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.CategoryID] = row.Total
	}
	return counts, nil
}

func (r *categoryRepository) ReferencingSupplyNamesTx(tx *gorm.DB, id uuid.UUID, limit int) ([]string, int64, error) {
	q := tx.Model(&model.Supply{}).Where("category_id = ?", id).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var names []string
	err := q.Order("name ASC").Limit(limit).Pluck("name", &names).Error
	return names, total, err
}

func (r *categoryRepository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return deleteWithPolicy(tx, categoryDeletion, &model.Category{}, id)
}
