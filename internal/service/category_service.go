package service

import (
	"context"
	"errors"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// CategoryService defines business operations for supply categories.
type CategoryService interface {
	Create(ctx context.Context, actor Actor, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error)
	List(ctx context.Context, filter dto.NameFilter) (*dto.CategoryListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error)
	// Delete is rejected with *InUseError while any supply references the category.
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type categoryService struct {
	repo    repository.CategoryRepository
	lookups LookupService
}

func NewCategoryService(repo repository.CategoryRepository, lookups LookupService) CategoryService {
	return &categoryService{repo: repo, lookups: lookups}
}

func mapCategory(c *model.Category, supplyCount int64) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          c.ID.String(),
		Name:        c.Name,
		Description: c.Description,
		SupplyCount: supplyCount,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// checkName trims name and rejects it when empty or taken by a category other
// than self.
func (s *categoryService) checkName(ctx context.Context, name string, self uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "required")
	}
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if existing != nil && existing.ID != self {
		return "", duplicateName("category")
	}
	return name, nil
}

func (s *categoryService) Create(ctx context.Context, actor Actor, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	c := &model.Category{Name: name, Description: strings.TrimSpace(req.Description)}
	if err := s.repo.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName("category")
		}
		return nil, err
	}
	s.lookups.Invalidate(ctx)
	resp := mapCategory(c, 0)
	return &resp, nil
}

func (s *categoryService) Get(ctx context.Context, id uuid.UUID) (*dto.CategoryResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("category", err)
	}
	counts, err := s.repo.SupplyCounts(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	resp := mapCategory(c, counts[id])
	return &resp, nil
}

func (s *categoryService) List(ctx context.Context, filter dto.NameFilter) (*dto.CategoryListResponse, error) {
	list, page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}
	counts, err := s.repo.SupplyCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	resp := &dto.CategoryListResponse{Data: make([]dto.CategoryResponse, len(list)), Pagination: page}
	for i := range list {
		resp.Data[i] = mapCategory(&list[i], counts[list[i].ID])
	}
	return resp, nil
}

func (s *categoryService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.CategoryRequest) (*dto.CategoryResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("category", err)
	}
	name, err := s.checkName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Description = strings.TrimSpace(req.Description)
	if err := s.repo.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName("category")
		}
		return nil, err
	}
	s.lookups.Invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *categoryService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return err
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound("category", err)
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		names, total, err := s.repo.ReferencingSupplyNamesTx(tx, id, maxReferences)
		if err != nil {
			return err
		}
		if total > 0 {
			return newInUseError("category", c.Name, names, total)
		}
		return notFound("category", s.repo.DeleteTx(tx, id))
	})
	if err != nil {
		var inUse *InUseError
		if errors.As(err, &inUse) {
			log.Warn().Str("category", c.Name).Int("references", len(inUse.References)+inUse.More).
				Msg("category delete rejected: still in use")
		}
		return err
	}
	s.lookups.Invalidate(ctx)
	return nil
}
