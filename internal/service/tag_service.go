package service

import (
	"context"
	"errors"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TagService interface {
	Create(ctx context.Context, actor Actor, req dto.TagRequest) (*dto.TagResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.TagResponse, error)
	List(ctx context.Context, filter dto.NameFilter) (*dto.TagListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.TagRequest) (*dto.TagResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type tagService struct {
	repo    repository.TagRepository
	lookups LookupService
}

func NewTagService(repo repository.TagRepository, lookups LookupService) TagService {
	return &tagService{repo: repo, lookups: lookups}
}

func mapTag(t *model.Tag, supplyCount int64) dto.TagResponse {
	return dto.TagResponse{ID: t.ID.String(), Name: t.Name, SupplyCount: supplyCount, CreatedAt: t.CreatedAt}
}

func (s *tagService) checkName(ctx context.Context, name string, self uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "required")
	}
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if err == nil && existing.ID != self {
		return "", duplicateName("tag")
	}
	return name, nil
}

func (s *tagService) Create(ctx context.Context, actor Actor, req dto.TagRequest) (*dto.TagResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	t := &model.Tag{Name: name}
	if err := s.repo.Create(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName("tag")
		}
		return nil, err
	}
	s.lookups.Invalidate(ctx)
	resp := mapTag(t, 0)
	return &resp, nil
}

func (s *tagService) Get(ctx context.Context, id uuid.UUID) (*dto.TagResponse, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("tag", err)
	}
	counts, err := s.repo.SupplyCounts(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	resp := mapTag(t, counts[id])
	return &resp, nil
}

func (s *tagService) List(ctx context.Context, filter dto.NameFilter) (*dto.TagListResponse, error) {
	list, page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(list))
	for i, t := range list {
		ids[i] = t.ID
	}
	counts, err := s.repo.SupplyCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	resp := &dto.TagListResponse{Data: make([]dto.TagResponse, len(list)), Pagination: page}
	for i := range list {
		resp.Data[i] = mapTag(&list[i], counts[list[i].ID])
	}
	return resp, nil
}

func (s *tagService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.TagRequest) (*dto.TagResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("tag", err)
	}
	name, err := s.checkName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	t.Name = name
	if err := s.repo.Update(ctx, t); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName("tag")
		}
		return nil, err
	}
	s.lookups.Invalidate(ctx)
	return s.Get(ctx, id)
}

func (s *tagService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return err
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return notFound("tag", err)
	}
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		names, total, err := s.repo.ReferencingSupplyNamesTx(tx, id, maxReferences)
		if err != nil {
			return err
		}
		if total > 0 {
			return newInUseError("tag", t.Name, names, total)
		}
		return notFound("tag", s.repo.DeleteTx(tx, id))
	})
	if err != nil {
		return err
	}
	s.lookups.Invalidate(ctx)
	return nil
}
