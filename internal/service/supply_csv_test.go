package service

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"supplytrack/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImport(t *testing.T) {
	rows, err := parseImport(strings.NewReader("Name,Delta\nGauze, 5\nTape,-2,extra\n"))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, importRow{line: 2, name: "Gauze", delta: 5}, rows[0])
	assert.Equal(t, importRow{line: 3, name: "Tape", delta: -2}, rows[1])

	rows, err = parseImport(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, rows)

	_, err = parseImport(strings.NewReader("Name,Delta\nGauze\n"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Detail, "row 2")

	_, err = parseImport(strings.NewReader("Name,Delta\nGauze,1\nTape,1.5\n"))
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "row 3")
}

func TestSupplyService_ImportForSupply(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.supply(t, "Gauze", "1", 10)
	id := uuid.MustParse(s.ID)

	resp, err := f.supplies.ImportForSupply(ctx, f.editor, id, "restock.csv",
		strings.NewReader("Name,Delta\nGauze,5\nGauze,3\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.RowsProcessed)
	assert.Equal(t, 15, resp.Rows[0].NewQuantity)
	assert.Equal(t, 18, resp.Rows[1].NewQuantity)

	got, err := f.supplies.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 18, got.Quantity)

	var details []string
	for _, row := range f.auditRows(t, model.ActionImport) {
		details = append(details, row.Details)
	}
	assert.ElementsMatch(t, []string{
		"Imported 5 units from restock.csv row 2 (quantity 10 -> 15)",
		"Imported 3 units from restock.csv row 3 (quantity 15 -> 18)",
	}, details)
}

func TestSupplyService_Import_IsAllOrNothing(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	s := f.supply(t, "Gauze", "1", 10)
	id := uuid.MustParse(s.ID)

	t.Run("malformed row", func(t *testing.T) {
		_, err := f.supplies.ImportForSupply(ctx, f.editor, id, "bad.csv",
			strings.NewReader("Name,Delta\nGauze,5\nGauze,abc\n"))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
	})

	t.Run("quantity would go negative", func(t *testing.T) {
		_, err := f.supplies.ImportForSupply(ctx, f.editor, id, "neg.csv",
			strings.NewReader("Name,Delta\nGauze,5\nGauze,-20\n"))
		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Detail, "row 3")
	})

	got, err := f.supplies.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 10, got.Quantity)
	assert.Empty(t, f.auditRows(t, model.ActionImport))
}

func TestSupplyService_ImportBulk(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.supply(t, "Gauze", "1", 10)
	f.supply(t, "Tape", "1", 4)

	resp, err := f.supplies.ImportBulk(ctx, f.editor, "bulk.csv",
		strings.NewReader("Name,Delta\ngauze,2\nTape,-4\n"))
	require.NoError(t, err)
	require.Len(t, resp.Rows, 2)
	assert.Equal(t, "Gauze", resp.Rows[0].SupplyName)
	assert.Equal(t, 12, resp.Rows[0].NewQuantity)
	assert.Equal(t, 0, resp.Rows[1].NewQuantity)

	_, err = f.supplies.ImportBulk(ctx, f.editor, "bulk.csv",
		strings.NewReader("Name,Delta\nGauze,1\nCotton,1\n"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Detail, `unknown supply "Cotton"`)

	_, err = f.supplies.ImportBulk(ctx, f.viewer, "bulk.csv", strings.NewReader("Name,Delta\n"))
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSupplyService_ExportCSV(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.supply(t, "Tape", "0.5", 4)
	f.supply(t, "Gauze", "2.5", 10)

	var buf bytes.Buffer
	n, err := f.supplies.ExportCSV(ctx, f.viewer, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Name,Price,Quantity,Location\nGauze,2.50,10,Shelf A\nTape,0.50,4,Shelf A\n", buf.String())

	rows := f.auditRows(t, model.ActionExport)
	require.Len(t, rows, 1)
	assert.Equal(t, "Exported 2 supplies to CSV", rows[0].Details)
	assert.Equal(t, "vi", rows[0].Username)
}

func TestSupplyService_ImportTemplate(t *testing.T) {
	f := newFixture(t, nil)
	var buf bytes.Buffer
	require.NoError(t, f.supplies.ImportTemplate(&buf))
	assert.Equal(t, "Name,Delta\n", buf.String())

	rows, err := parseImport(&buf)
	require.NoError(t, err)
	assert.Empty(t, rows, "the template imports as an empty file")
}
