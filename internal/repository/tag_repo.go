package repository

import (
	"context"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TagRepository defines CRUD operations for Tag.
type TagRepository interface {
	Create(ctx context.Context, t *model.Tag) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Tag, error)
	FindByName(ctx context.Context, name string) (*model.Tag, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Tag, error)
	List(ctx context.Context, filter dto.NameFilter) ([]model.Tag, dto.Pagination, error)
	ListAll(ctx context.Context) ([]model.Tag, error)
	Update(ctx context.Context, t *model.Tag) error
	SupplyCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error)

	ReferencingSupplyNamesTx(tx *gorm.DB, id uuid.UUID, limit int) ([]string, int64, error)
	DeleteTx(tx *gorm.DB, id uuid.UUID) error

	DB() *gorm.DB
}

type tagRepository struct{ db *gorm.DB }

func NewTagRepository(db *gorm.DB) TagRepository {
	return &tagRepository{db: db}
}

func (r *tagRepository) DB() *gorm.DB { return r.db }

func (r *tagRepository) Create(ctx context.Context, t *model.Tag) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *tagRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Tag, error) {
	var t model.Tag
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepository) FindByName(ctx context.Context, name string) (*model.Tag, error) {
	var t model.Tag
	if err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *tagRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Tag, error) {
	var tags []model.Tag
	if len(ids) == 0 {
		return tags, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("name ASC").Find(&tags).Error
	return tags, err
}

func (r *tagRepository) List(ctx context.Context, filter dto.NameFilter) ([]model.Tag, dto.Pagination, error) {
	q := r.db.WithContext(ctx).Model(&model.Tag{})
	if s := strings.TrimSpace(filter.Search); s != "" {
		q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", containsPattern(s))
	}
	var list []model.Tag
	page, err := paginate(q, filter.Page, "name ASC", &list)
	return list, page, err
}

func (r *tagRepository) ListAll(ctx context.Context) ([]model.Tag, error) {
	var list []model.Tag
	err := r.db.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

func (r *tagRepository) Update(ctx context.Context, t *model.Tag) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *tagRepository) SupplyCounts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(ids))
	if len(ids) == 0 {
		return counts, nil
	}
	var rows []struct {
		TagID uuid.UUID
		Total int64
	}
	err := r.db.WithContext(ctx).Table("supply_tags").
		Select("tag_id, COUNT(*) AS total").
		Where("tag_id IN ?", ids).
		Group("tag_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TagID] = row.Total
	}
	return counts, nil
}

func (r *tagRepository) ReferencingSupplyNamesTx(tx *gorm.DB, id uuid.UUID, limit int) ([]string, int64, error) {
	q := tx.Model(&model.Supply{}).
		Where("id IN (?)", tx.Table("supply_tags").Select("supply_id").Where("tag_id = ?", id)).
		Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var names []string
	err := q.Order("name ASC").Limit(limit).Pluck("name", &names).Error
	return names, total, err
}

func (r *tagRepository) DeleteTx(tx *gorm.DB, id uuid.UUID) error {
	return deleteWithPolicy(tx, tagDeletion, &model.Tag{}, id)
}
