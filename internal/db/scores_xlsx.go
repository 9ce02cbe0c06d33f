package db

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// SheetName is the single sheet written by WriteScoresXLSX.
const SheetName = "scores"

func WriteScoresXLSX(w io.Writer, rows []Score) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := make([]any, 0, len(Columns))
	for _, column := range Columns {
		header = append(header, column)
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		created := ""
		if !row.CreatedAt.IsZero() {
			created = FormatTimestamp(row.CreatedAt)
		}
		values := []any{
			row.ID,
			row.Name,
			row.Classe,
			row.StudentNumber,
			row.TimeSeconds,
			row.Errors,
			row.GameType,
			created,
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", row.ID, err)
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadScoresXLSX reads the first sheet of a workbook laid out like the
// export.
func ReadScoresXLSX(r io.Reader) ([]Score, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return parseScoreRecords(rows)
}
