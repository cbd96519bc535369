package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplyService owns every supply mutation. Each one writes its audit row in the
// same transaction, so a failed audit write rolls the mutation back.
type SupplyService interface {
	Create(ctx context.Context, actor Actor, req dto.SupplyRequest) (*dto.SupplyResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.SupplyResponse, error)
	List(ctx context.Context, filter dto.SupplyFilter) (*dto.SupplyListResponse, error)
	LowStock(ctx context.Context, page int) (*dto.SupplyListResponse, error)
	// Update replaces every editable field with the values in req.
	Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.SupplyRequest) (*dto.SupplyResponse, error)
	Delete(ctx context.Context, actor Actor, id uuid.UUID) error

	// ImportForSupply applies the quantity deltas of a CSV file to one supply.
	ImportForSupply(ctx context.Context, actor Actor, id uuid.UUID, fileName string, r io.Reader) (*dto.ImportResponse, error)
	// ImportBulk applies a Name,Delta CSV file, matching rows to supplies by name.
	ImportBulk(ctx context.Context, actor Actor, fileName string, r io.Reader) (*dto.ImportResponse, error)
	ExportCSV(ctx context.Context, actor Actor, w io.Writer) (int, error)
	ImportTemplate(w io.Writer) error
}

type supplyService struct {
	repo       repository.SupplyRepository
	categories repository.CategoryRepository
	tags       repository.TagRepository
	audit      repository.AuditLogRepository
}

func NewSupplyService(
	repo repository.SupplyRepository,
	categories repository.CategoryRepository,
	tags repository.TagRepository,
	audit repository.AuditLogRepository,
) SupplyService {
	return &supplyService{
		repo:       repo,
		categories: categories,
		tags:       tags,
		audit:      audit,
	}
}

func supplyToResponse(s *model.Supply) *dto.SupplyResponse {
	resp := &dto.SupplyResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		Description:  s.Description,
		Price:        s.Price,
		Quantity:     s.Quantity,
		ReorderPoint: s.ReorderPoint,
		Location:     s.Location,
		IsLowStock:   s.IsLowStock(),
		Tags:         make([]dto.LookupItem, len(s.Tags)),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.Category != nil {
		resp.Category = &dto.LookupItem{ID: s.Category.ID.String(), Name: s.Category.Name}
	}
	for i, t := range s.Tags {
		resp.Tags[i] = dto.LookupItem{ID: t.ID.String(), Name: t.Name}
	}
	return resp
}

// supplyInput is a SupplyRequest with its references resolved.
type supplyInput struct {
	name        string
	description string
	req         dto.SupplyRequest
	category    *model.Category
	tags        []model.Tag
}

// resolveSupplyInput validates req and loads the referenced category and tags.
// It runs before the write transaction opens.
func (s *supplyService) resolveSupplyInput(ctx context.Context, req dto.SupplyRequest) (*supplyInput, error) {
	fields := map[string]string{}
	in := &supplyInput{
		name:        strings.TrimSpace(req.Name),
		description: strings.TrimSpace(req.Description),
		req:         req,
	}
	if in.name == "" {
		fields["name"] = "required"
	}
	if req.Price.IsNegative() {
		fields["price"] = "must not be negative"
	}
	if req.Quantity < 0 {
		fields["quantity"] = "must not be negative"
	}
	if req.ReorderPoint < 0 {
		fields["reorder_point"] = "must not be negative"
	}

	if req.CategoryID != nil && *req.CategoryID != "" {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			fields["category_id"] = "uuid"
		} else {
			c, err := s.categories.FindByID(ctx, id)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				fields["category_id"] = "not found"
			case err != nil:
				return nil, err
			default:
				in.category = c
			}
		}
	}

	if len(req.TagIDs) > 0 {
		seen := make(map[uuid.UUID]bool, len(req.TagIDs))
		ids := make([]uuid.UUID, 0, len(req.TagIDs))
		for _, raw := range req.TagIDs {
			id, err := uuid.Parse(raw)
			if err != nil {
				fields["tag_ids"] = "uuid"
				break
			}
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
		if _, bad := fields["tag_ids"]; !bad {
			tags, err := s.tags.FindByIDs(ctx, ids)
			if err != nil {
				return nil, err
			}
			if len(tags) != len(ids) {
				fields["tag_ids"] = "not found"
			}
			in.tags = tags
		}
	}

	if len(fields) > 0 {
		return nil, &ValidationError{Detail: "invalid supply", Fields: fields}
	}
	return in, nil
}

func (in *supplyInput) applyTo(sup *model.Supply) {
	sup.Name = in.name
	sup.Description = in.description
	sup.Price = in.req.Price.Round(2)
	sup.Quantity = in.req.Quantity
	sup.ReorderPoint = in.req.ReorderPoint
	sup.Location = strings.TrimSpace(in.req.Location)
	sup.Category = in.category
	sup.CategoryID = nil
	if in.category != nil {
		id := in.category.ID
		sup.CategoryID = &id
	}
	sup.Tags = in.tags
}

// ensureUniqueNameTx rejects name when another supply already uses it.
func (s *supplyService) ensureUniqueNameTx(tx *gorm.DB, name string, self uuid.UUID) error {
	existing, err := s.repo.FindByNameTx(tx, name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return duplicateName("supply")
	}
	return nil
}

func (s *supplyService) Create(ctx context.Context, actor Actor, req dto.SupplyRequest) (*dto.SupplyResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	in, err := s.resolveSupplyInput(ctx, req)
	if err != nil {
		return nil, err
	}

	sup := &model.Supply{}
	in.applyTo(sup)
	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.ensureUniqueNameTx(tx, sup.Name, uuid.Nil); err != nil {
			return err
		}
		if err := s.repo.CreateTx(tx, sup); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateName("supply")
			}
			return err
		}
		return recordAudit(tx, s.audit, actor, &sup.ID, sup.Name, model.ActionCreate,
			"Created supply: "+sup.Summary())
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sup.ID)
}

func (s *supplyService) Get(ctx context.Context, id uuid.UUID) (*dto.SupplyResponse, error) {
	sup, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound("supply", err)
	}
	return supplyToResponse(sup), nil
}

func (s *supplyService) List(ctx context.Context, filter dto.SupplyFilter) (*dto.SupplyListResponse, error) {
	list, page, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return supplyListResponse(list, page), nil
}

func (s *supplyService) LowStock(ctx context.Context, page int) (*dto.SupplyListResponse, error) {
	list, p, err := s.repo.ListLowStock(ctx, page)
	if err != nil {
		return nil, err
	}
	return supplyListResponse(list, p), nil
}

func supplyListResponse(list []model.Supply, page dto.Pagination) *dto.SupplyListResponse {
	resp := &dto.SupplyListResponse{Data: make([]dto.SupplyResponse, len(list)), Pagination: page}
	for i := range list {
		resp.Data[i] = *supplyToResponse(&list[i])
	}
	return resp
}

func (s *supplyService) Update(ctx context.Context, actor Actor, id uuid.UUID, req dto.SupplyRequest) (*dto.SupplyResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	in, err := s.resolveSupplyInput(ctx, req)
	if err != nil {
		return nil, err
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		before, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return notFound("supply", err)
		}
		if err := s.ensureUniqueNameTx(tx, in.name, id); err != nil {
			return err
		}
		after := *before
		in.applyTo(&after)
		if err := s.repo.UpdateTx(tx, &after); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return duplicateName("supply")
			}
			return err
		}
		return recordAudit(tx, s.audit, actor, &after.ID, after.Name, model.ActionUpdate,
			updateDetails(before, &after))
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *supplyService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return err
	}
	return runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		sup, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return notFound("supply", err)
		}
		// The audit row is written first; the deletion policy then nulls its
		// supply reference and the name snapshot remains.
		err = recordAudit(tx, s.audit, actor, &sup.ID, sup.Name, model.ActionDelete,
			"Deleted supply: "+sup.Summary())
		if err != nil {
			return err
		}
		return s.repo.DeleteTx(tx, id)
	})
}

// updateDetails renders the UPDATE audit text: both summaries, then the list of
// changed fields when there is one.
func updateDetails(before, after *model.Supply) string {
	details := fmt.Sprintf("Updated supply: From %s to %s", before.Summary(), after.Summary())

	var changes []string
	if before.Name != after.Name {
		changes = append(changes, fmt.Sprintf("Name changed from '%s' to '%s'", before.Name, after.Name))
	}
	if !before.Price.Equal(after.Price) {
		changes = append(changes, fmt.Sprintf("Price changed from $%s to $%s",
			before.Price.StringFixed(2), after.Price.StringFixed(2)))
	}
	if before.Quantity != after.Quantity {
		changes = append(changes, fmt.Sprintf("Quantity changed from %d to %d", before.Quantity, after.Quantity))
	}
	if before.ReorderPoint != after.ReorderPoint {
		changes = append(changes, fmt.Sprintf("Reorder point changed from %d to %d", before.ReorderPoint, after.ReorderPoint))
	}
	if before.Location != after.Location {
		changes = append(changes, fmt.Sprintf("Location changed from '%s' to '%s'", before.Location, after.Location))
	}
	if before.Description != after.Description {
		changes = append(changes, "Description changed")
	}
	if from, to := categoryName(before.Category), categoryName(after.Category); from != to {
		changes = append(changes, fmt.Sprintf("Category changed from '%s' to '%s'", from, to))
	}
	if from, to := tagNames(before.Tags), tagNames(after.Tags); from != to {
		changes = append(changes, fmt.Sprintf("Tags changed from [%s] to [%s]", from, to))
	}

	if len(changes) > 0 {
		details += "; " + strings.Join(changes, "; ")
	}
	return details
}

func categoryName(c *model.Category) string {
	if c == nil {
		return "none"
	}
	return c.Name
}

func tagNames(tags []model.Tag) string {
	names := make([]string, len(tags))
	for i, t := range tags {
		names[i] = t.Name
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
