package service

import (
	"context"
	"testing"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupplyService_Create_RejectsNegativeValues(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	_, err := f.supplies.Create(ctx, f.editor, dto.SupplyRequest{
		Name:         "Gauze",
		Price:        decimal.NewFromInt(-1),
		Quantity:     -2,
		ReorderPoint: -3,
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "price")
	assert.Contains(t, verr.Fields, "quantity")
	assert.Contains(t, verr.Fields, "reorder_point")

	list, err := f.supplies.List(ctx, dto.SupplyFilter{})
	require.NoError(t, err)
	assert.Empty(t, list.Data, "nothing persisted")
	assert.Empty(t, f.auditRows(t, model.ActionCreate))
}

func TestSupplyService_Create_RequiresEditor(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.supplies.Create(context.Background(), f.viewer, dto.SupplyRequest{Name: "Gauze"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSupplyService_Create_WritesAudit(t *testing.T) {
	f := newFixture(t, nil)
	s := f.supply(t, "Gauze", "2.5", 10)

	assert.True(t, s.Price.Equal(decimal.RequireFromString("2.50")))
	rows := f.auditRows(t, model.ActionCreate)
	require.Len(t, rows, 1)
	assert.Equal(t, "Created supply: Gauze, 2.50, 10, Shelf A", rows[0].Details)
	assert.Equal(t, "Gauze", rows[0].SupplyName)
	assert.Equal(t, "ed", rows[0].Username)
	require.NotNil(t, rows[0].SupplyID)
	assert.Equal(t, s.ID, *rows[0].SupplyID)
}

func TestSupplyService_Create_DuplicateNameIgnoresCase(t *testing.T) {
	f := newFixture(t, nil)
	f.supply(t, "Gauze", "1", 1)

	_, err := f.supplies.Create(context.Background(), f.editor, dto.SupplyRequest{Name: " gauze "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "duplicate", verr.Fields["name"])
}

func TestSupplyService_Update_ListsChangedFields(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cat, err := f.categories.Create(ctx, f.editor, dto.CategoryRequest{Name: "Wound care"})
	require.NoError(t, err)
	s := f.supply(t, "Gauze", "2.50", 10)

	updated, err := f.supplies.Update(ctx, f.editor, uuid.MustParse(s.ID), dto.SupplyRequest{
		Name:       "Gauze",
		Price:      decimal.RequireFromString("3"),
		Quantity:   12,
		Location:   "Shelf A",
		CategoryID: &cat.ID,
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Category)
	assert.Equal(t, "Wound care", updated.Category.Name)

	rows := f.auditRows(t, model.ActionUpdate)
	require.Len(t, rows, 1)
	d := rows[0].Details
	assert.Contains(t, d, "Updated supply: From Gauze, 2.50, 10, Shelf A to Gauze, 3.00, 12, Shelf A")
	assert.Contains(t, d, "Price changed from $2.50 to $3.00")
	assert.Contains(t, d, "Quantity changed from 10 to 12")
	assert.Contains(t, d, "Category changed from 'none' to 'Wound care'")
	assert.NotContains(t, d, "Name changed")
}

func TestSupplyService_Update_UnknownReferences(t *testing.T) {
	f := newFixture(t, nil)
	s := f.supply(t, "Gauze", "1", 1)
	missing := uuid.NewString()

	_, err := f.supplies.Update(context.Background(), f.editor, uuid.MustParse(s.ID), dto.SupplyRequest{
		Name:       "Gauze",
		CategoryID: &missing,
		TagIDs:     []string{uuid.NewString()},
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "not found", verr.Fields["category_id"])
	assert.Equal(t, "not found", verr.Fields["tag_ids"])

	_, err = f.supplies.Update(context.Background(), f.editor, uuid.New(), dto.SupplyRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSupplyService_Delete_KeepsAuditTrail(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.supply(t, "Gauze", "1", 1)
	id := uuid.MustParse(s.ID)

	require.NoError(t, f.supplies.Delete(ctx, f.editor, id))
	_, err := f.supplies.Get(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)

	rows := f.auditRows(t, model.ActionDelete)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].SupplyID)
	assert.Equal(t, "Gauze", rows[0].SupplyName)
	assert.Equal(t, "Deleted supply: Gauze, 1.00, 1, Shelf A", rows[0].Details)

	created := f.auditRows(t, model.ActionCreate)
	require.Len(t, created, 1)
	assert.Nil(t, created[0].SupplyID, "earlier rows lose the reference too")
}

func TestSupplyService_LowStock(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	_, err := f.supplies.Create(ctx, f.editor, dto.SupplyRequest{Name: "Masks", Quantity: 2, ReorderPoint: 5})
	require.NoError(t, err)
	_, err = f.supplies.Create(ctx, f.editor, dto.SupplyRequest{Name: "Gowns", Quantity: 9, ReorderPoint: 5})
	require.NoError(t, err)

	resp, err := f.supplies.LowStock(ctx, 1)
	require.NoError(t, err)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Masks", resp.Data[0].Name)
	assert.True(t, resp.Data[0].IsLowStock)
}

func TestSupplyService_TagFilter(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	sterile, err := f.tags.Create(ctx, f.editor, dto.TagRequest{Name: "sterile"})
	require.NoError(t, err)
	for _, name := range []string{"Syringe", "Bandage"} {
		_, err := f.supplies.Create(ctx, f.editor, dto.SupplyRequest{Name: name, TagIDs: []string{sterile.ID}})
		require.NoError(t, err)
	}
	f.supply(t, "Tape", "1", 1)

	resp, err := f.supplies.List(ctx, dto.SupplyFilter{TagID: sterile.ID})
	require.NoError(t, err)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "Bandage", resp.Data[0].Name)
	assert.Equal(t, "Syringe", resp.Data[1].Name)
	assert.Equal(t, []dto.LookupItem{{ID: sterile.ID, Name: "sterile"}}, resp.Data[0].Tags)
}

func TestCategoryService_DeleteInUse(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cat, err := f.categories.Create(ctx, f.editor, dto.CategoryRequest{Name: "Wound care"})
	require.NoError(t, err)
	_, err = f.supplies.Create(ctx, f.editor, dto.SupplyRequest{Name: "Gauze", CategoryID: &cat.ID})
	require.NoError(t, err)

	err = f.categories.Delete(ctx, f.editor, uuid.MustParse(cat.ID))
	var inUse *InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, []string{"Gauze"}, inUse.References)
	assert.Equal(t, 0, inUse.More)
	assert.Equal(t, `category "Wound care" is used by: Gauze`, inUse.Error())

	got, err := f.categories.Get(ctx, uuid.MustParse(cat.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.SupplyCount)
}

func TestCategoryService_DeleteUnused(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	cat, err := f.categories.Create(ctx, f.editor, dto.CategoryRequest{Name: "Spare"})
	require.NoError(t, err)

	require.NoError(t, f.categories.Delete(ctx, f.editor, uuid.MustParse(cat.ID)))
	assert.ErrorIs(t, f.categories.Delete(ctx, f.editor, uuid.MustParse(cat.ID)), ErrNotFound)
}

func TestTagService_DuplicateAndInUse(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	tag, err := f.tags.Create(ctx, f.editor, dto.TagRequest{Name: "sterile"})
	require.NoError(t, err)

	_, err = f.tags.Create(ctx, f.editor, dto.TagRequest{Name: "Sterile"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	names := []string{"A1", "A2", "A3", "A4", "A5", "A6", "A7"}
	for _, n := range names {
		_, err := f.supplies.Create(ctx, f.editor, dto.SupplyRequest{Name: n, TagIDs: []string{tag.ID}})
		require.NoError(t, err)
	}
	err = f.tags.Delete(ctx, f.editor, uuid.MustParse(tag.ID))
	var inUse *InUseError
	require.ErrorAs(t, err, &inUse)
	assert.Equal(t, names[:maxReferences], inUse.References)
	assert.Equal(t, 2, inUse.More)
	assert.Contains(t, inUse.Error(), "+2 more")
}
