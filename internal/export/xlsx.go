package export

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements SheetWriter by saving a local Excel workbook.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates a writer that overwrites the workbook at path on every Write.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write saves every table as a sheet of a new workbook with a bold, frozen header row.
func (w *XLSXWriter) Write(_ context.Context, tables []Table) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D9EAD3"}},
	})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, t := range tables {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", t.Name); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else if _, err := f.NewSheet(t.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", t.Name, err)
		}

		for r, row := range t.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(t.Name, cell, &row); err != nil {
				return fmt.Errorf("writing %s row %d: %w", t.Name, r+1, err)
			}
		}

		if len(t.Rows) > 0 && len(t.Rows[0]) > 0 {
			last, err := excelize.CoordinatesToCellName(len(t.Rows[0]), 1)
			if err != nil {
				return err
			}
			if err := f.SetCellStyle(t.Name, "A1", last, bold); err != nil {
				return fmt.Errorf("styling %s header: %w", t.Name, err)
			}
			if err := f.SetPanes(t.Name, &excelize.Panes{
				Freeze:      true,
				YSplit:      1,
				TopLeftCell: "A2",
				ActivePane:  "bottomLeft",
			}); err != nil {
				return fmt.Errorf("freezing %s header: %w", t.Name, err)
			}
		}
	}

	if err := f.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}
