package export

import (
	"context"
	"fmt"

	"github.com/samber/lo"
	sheets "google.golang.org/api/sheets/v4"
)

// SheetHistory accumulates one summary row per export.
const SheetHistory = "HISTORY"

var historyHeader = []any{"Date", "Currency", "Total value", "Targets sum", "Balanced", "Total to buy", "Total to sell"}

// buildHistoryRow condenses the SUMMARY table into one HISTORY row. Fields missing from the
// summary are left empty.
func buildHistoryRow(tables []Table) []any {
	summary, ok := lo.Find(tables, func(t Table) bool { return t.Name == SheetSummary })
	if !ok {
		return nil
	}
	fields := make(map[string]any, len(summary.Rows))
	for _, row := range summary.Rows[1:] {
		if len(row) == 2 {
			fields[fmt.Sprint(row[0])] = row[1]
		}
	}
	return []any{
		fields["Date"], fields["Currency"], fields["Total value"], fields["Targets sum"],
		fields["Balanced"], fields["Total to buy"], fields["Total to sell"],
	}
}

// appendHistory ensures the HISTORY sheet exists, writes the header if the sheet is empty, then
// appends one row for this export.
func (w *SheetsWriter) appendHistory(ctx context.Context, tables []Table) error {
	row := buildHistoryRow(tables)
	if row == nil {
		return nil
	}

	meta, err := w.ensureSheets(ctx, SheetHistory)
	if err != nil {
		return fmt.Errorf("ensuring HISTORY sheet: %w", err)
	}

	existing, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, SheetHistory+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading HISTORY header: %w", err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			SheetHistory+"!A1",
			&sheets.ValueRange{Values: [][]any{historyHeader}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing HISTORY header: %w", err)
		}
		if err := w.formatHistory(ctx, meta[SheetHistory]); err != nil {
			return fmt.Errorf("formatting HISTORY sheet: %w", err)
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		SheetHistory+"!A:G",
		&sheets.ValueRange{Values: [][]any{row}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending HISTORY row: %w", err)
	}
	return nil
}

// formatHistory makes the header bold on a light-green background, freezes it and applies
// a thousands format to the money columns.
func (w *SheetsWriter) formatHistory(ctx context.Context, sheet sheetMeta) error {
	lightGreen := &sheets.Color{Red: 0.851, Green: 0.918, Blue: 0.827}
	cols := int64(len(historyHeader))

	reqs := []*sheets.Request{
		cellFormatReq(sheet.id, 0, 1, 0, cols,
			&sheets.CellFormat{
				BackgroundColor:     lightGreen,
				TextFormat:          &sheets.TextFormat{Bold: true},
				HorizontalAlignment: "CENTER",
			},
			"userEnteredFormat(backgroundColor,textFormat,horizontalAlignment)"),
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheet.id,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}
	// Total value, Total to buy, Total to sell
	for _, col := range []int64{2, 5, 6} {
		reqs = append(reqs, cellFormatReq(sheet.id, 1, 10000, col, col+1,
			&sheets.CellFormat{NumberFormat: &sheets.NumberFormat{Type: "NUMBER", Pattern: "#,##0.00"}},
			"userEnteredFormat.numberFormat"))
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	return err
}

func cellFormatReq(sheetID, startRow, endRow, startCol, endCol int64, format *sheets.CellFormat, fields string) *sheets.Request {
	return &sheets.Request{
		RepeatCell: &sheets.RepeatCellRequest{
			Range: &sheets.GridRange{
				SheetId:          sheetID,
				StartRowIndex:    startRow,
				EndRowIndex:      endRow,
				StartColumnIndex: startCol,
				EndColumnIndex:   endCol,
			},
			Cell:   &sheets.CellData{UserEnteredFormat: format},
			Fields: fields,
		},
	}
}
