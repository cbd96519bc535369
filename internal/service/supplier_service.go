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

type SupplierService interface {
	Create(ctx context.Context, actor Actor, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error)
	List(ctx context.Context, filter dto.NameFilter) (*dto.SupplierListResponse, error)
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.SupplierRequest) (*dto.SupplierResponse, error)
	// Delete removes the supplier together with its purchase orders.
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error
}

type supplierService struct {
	repo repository.SupplierRepository
}

func NewSupplierService(repo repository.SupplierRepository) SupplierService {
	return &supplierService{repo: repo}
}

func mapSupplier(s *model.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:          s.ID.String(),
		Name:        s.Name,
		ContactName: s.ContactName,
		Email:       s.Email,
		Phone:       s.Phone,
		Address:     s.Address,
		IsActive:    s.IsActive,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func (s *supplierService) checkName(ctx context.Context, name string, self uuid.UUID) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("name", "required")
	}
	existing, err := s.repo.FindByName(ctx, name)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}
	if err == nil && existing.ID != self {
		return "", duplicateName("supplier")
	}
	return name, nil
}

func applySupplier(sup *model.Supplier, name string, req dto.SupplierRequest) {
	sup.Name = name
	sup.ContactName = strings.TrimSpace(req.ContactName)
	sup.Email = strings.TrimSpace(req.Email)
	sup.Phone = strings.TrimSpace(req.Phone)
	sup.Address = strings.TrimSpace(req.Address)
	if req.IsActive != nil {
		sup.IsActive = *req.IsActive
	}
}

func (s *supplierService) Create(ctx context.Context, actor Actor, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	name, err := s.checkName(ctx, req.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	sup := &model.Supplier{IsActive: true}
	applySupplier(sup, name, req)
	if err := s.repo.Create(ctx, sup); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName("supplier")
		}
		return nil, err
	}
	return mapSupplier(sup), nil
}

func (s *supplierService) Get(ctx context.Context, id uuid.UUID) (*dto.SupplierResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supplier", err)
	}
	return mapSupplier(sup), nil
}

func (s *supplierService) List(ctx context.Context, filter dto.NameFilter) (*dto.SupplierListResponse, error) {
	list, page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	resp := &dto.SupplierListResponse{Data: make([]dto.SupplierResponse, len(list)), Pagination: page}
	for i := range list {
		resp.Data[i] = *mapSupplier(&list[i])
	}
	return resp, nil
}

func (s *supplierService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.SupplierRequest) (*dto.SupplierResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supplier", err)
	}
	name, err := s.checkName(ctx, req.Name, id)
	if err != nil {
		return nil, err
	}
	applySupplier(sup, name, req)
	if err := s.repo.Update(ctx, sup); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateName("supplier")
		}
		return nil, err
	}
	return mapSupplier(sup), nil
}

func (s *supplierService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return err
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		return s.repo.DeleteTx(tx, id)
	})
	if err != nil {
		return notFound("supplier", err)
	}
	log.Info().Str("supplier_id", id.String()).Str("user", actor.Username).Msg("supplier deleted with its purchase orders")
	return nil
}
