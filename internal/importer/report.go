package importer

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

const (
	templateSheet = "Casos"
	summarySheet  = "Resumen"
	errorsSheet   = "Errores"
)

// Template blank import workbook whose headers auto-map onto every field.
func Template() ([]byte, error) {
	headers := make([]string, 0, len(keywordTable))
	for _, f := range Fields() {
		headers = append(headers, FieldLabels[f])
	}
	return buildWorkbook(func(f *excelize.File, headerStyle int) error {
		if err := f.SetSheetName("Sheet1", templateSheet); err != nil {
			return err
		}
		return writeRow(f, templateSheet, 1, headers, headerStyle)
	})
}

// WriteResultReport workbook with a summary sheet and one row per rejected row.
func WriteResultReport(res models.ImportResult) ([]byte, error) {
	return buildWorkbook(func(f *excelize.File, headerStyle int) error {
		if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
			return err
		}
		summary := [][]any{
			{"Total registros", res.Total},
			{"Exitosos", res.Succeeded},
			{"Fallidos", res.Failed},
		}
		for i, row := range summary {
			if err := writeRow(f, summarySheet, i+1, row, 0); err != nil {
				return err
			}
		}

		if _, err := f.NewSheet(errorsSheet); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
		if err := writeRow(f, errorsSheet, 1, []string{"Fila", "Campo", "Mensaje"}, headerStyle); err != nil {
			return err
		}
		for i, e := range res.Errors {
			if err := writeRow(f, errorsSheet, i+2, []any{e.Row, e.Field, e.Message}, 0); err != nil {
				return err
			}
		}
		if err := f.SetColWidth(errorsSheet, "C", "C", 60); err != nil {
			return err
		}
		return f.SetPanes(errorsSheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		})
	})
}

func buildWorkbook(fill func(f *excelize.File, headerStyle int) error) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#FDE9D9"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := fill(f, headerStyle); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRow[T any](f *excelize.File, sheet string, row int, values []T, style int) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("failed to set cell %s: %w", cell, err)
		}
		if style != 0 {
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
	}
	return nil
}
