package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"supplytrack/internal/dto"
	"supplytrack/internal/model"
	"supplytrack/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

var (
	exportHeader   = []string{"Name", "Price", "Quantity", "Location"}
	templateHeader = []string{"Name", "Delta"}
)

// importRow is a parsed data row. Line is the 1-based record number in the file,
// header included.
type importRow struct {
	line  int
	name  string
	delta int
}

// parseImport reads every record of a quantity-delta CSV before anything is
// written, so a malformed row rejects the whole file. The first record is the
// header. Column 0 is the supply name, column 1 the integer delta.
func parseImport(r io.Reader) ([]importRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, &ValidationError{Detail: "unreadable CSV file", Fields: map[string]string{"file": err.Error()}}
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]importRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 2 {
			return nil, rowError(line, "expected at least 2 columns")
		}
		delta, err := strconv.Atoi(strings.TrimSpace(rec[1]))
		if err != nil {
			return nil, rowError(line, fmt.Sprintf("quantity delta %q is not an integer", rec[1]))
		}
		rows = append(rows, importRow{line: line, name: strings.TrimSpace(rec[0]), delta: delta})
	}
	return rows, nil
}

func rowError(line int, reason string) *ValidationError {
	return &ValidationError{
		Detail: fmt.Sprintf("import rejected at row %d: %s", line, reason),
		Fields: map[string]string{fmt.Sprintf("row %d", line): reason},
	}
}

func (s *supplyService) ImportForSupply(ctx context.Context, actor Actor, id uuid.UUID, fileName string, r io.Reader) (*dto.ImportResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	rows, err := parseImport(r)
	if err != nil {
		return nil, err
	}
	return s.applyImport(ctx, actor, fileName, rows, func(tx *gorm.DB, _ importRow) (*model.Supply, error) {
		sup, err := s.repo.FindByIDTx(tx, id)
		return sup, notFound("supply", err)
	})
}

func (s *supplyService) ImportBulk(ctx context.Context, actor Actor, fileName string, r io.Reader) (*dto.ImportResponse, error) {
	if err := authorize(actor, model.RoleEditor); err != nil {
		return nil, err
	}
	rows, err := parseImport(r)
	if err != nil {
		return nil, err
	}
	return s.applyImport(ctx, actor, fileName, rows, func(tx *gorm.DB, row importRow) (*model.Supply, error) {
		sup, err := s.repo.FindByNameTx(tx, row.name)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, rowError(row.line, fmt.Sprintf("unknown supply %q", row.name))
		}
		return sup, err
	})
}

// applyImport adjusts quantities row by row in one transaction and writes one
// IMPORT audit row per data row. Any failure rolls back every row.
func (s *supplyService) applyImport(
	ctx context.Context,
	actor Actor,
	fileName string,
	rows []importRow,
	resolve func(tx *gorm.DB, row importRow) (*model.Supply, error),
) (*dto.ImportResponse, error) {
	resp := &dto.ImportResponse{FileName: fileName, Rows: make([]dto.ImportRowResult, 0, len(rows))}

	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		for _, row := range rows {
			sup, err := resolve(tx, row)
			if err != nil {
				return err
			}
			newQty, err := s.repo.AdjustQuantityTx(tx, sup.ID, row.delta)
			if errors.Is(err, repository.ErrNegativeQuantity) {
				return rowError(row.line, "quantity would become negative")
			}
			if err != nil {
				return err
			}
			oldQty := newQty - row.delta

			details := fmt.Sprintf("Imported %d units from %s row %d (quantity %d -> %d)",
				row.delta, fileName, row.line, oldQty, newQty)
			if err := recordAudit(tx, s.audit, actor, &sup.ID, sup.Name, model.ActionImport, details); err != nil {
				return err
			}
			resp.Rows = append(resp.Rows, dto.ImportRowResult{
				Row:         row.line,
				SupplyID:    sup.ID.String(),
				SupplyName:  sup.Name,
				Delta:       row.delta,
				OldQuantity: oldQty,
				NewQuantity: newQty,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp.RowsProcessed = len(resp.Rows)
	log.Info().Str("file", fileName).Int("rows", resp.RowsProcessed).Str("user", actor.Username).Msg("supply import applied")
	return resp, nil
}

// ExportCSV writes every supply in name order and records one EXPORT audit row.
// Nothing is written to w unless the audit row commits.
func (s *supplyService) ExportCSV(ctx context.Context, actor Actor, w io.Writer) (int, error) {
	if err := authorize(actor, model.RoleViewer); err != nil {
		return 0, err
	}
	var buf bytes.Buffer
	var count int
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		supplies, err := s.repo.ListAllTx(tx)
		if err != nil {
			return err
		}
		cw := csv.NewWriter(&buf)
		if err := cw.Write(exportHeader); err != nil {
			return err
		}
		for _, sup := range supplies {
			rec := []string{sup.Name, sup.Price.StringFixed(2), strconv.Itoa(sup.Quantity), sup.Location}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return err
		}
		count = len(supplies)
		return recordAudit(tx, s.audit, actor, nil, "", model.ActionExport,
			fmt.Sprintf("Exported %d supplies to CSV", count))
	})
	if err != nil {
		return 0, err
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return count, nil
}

// ImportTemplate writes the header expected by ImportBulk.
func (s *supplyService) ImportTemplate(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(templateHeader); err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
