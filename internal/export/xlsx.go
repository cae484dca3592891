package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"docintel/constants"
	"docintel/internal/entity"
)

// ResultsXLSX renders document results into an XLSX workbook, one row per
// extracted field, and returns the workbook bytes.
func ResultsXLSX(results []entity.DocumentResult) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Extracted Fields"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if def := f.GetSheetName(0); def != sheet {
		_ = f.DeleteSheet(def)
	}

	headers := []string{"Filename", "Status", "Field Name", "Field Value", "Confidence (%)", "Error"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	row := 2
	write := func(col int, v any) {
		cell, _ := excelize.CoordinatesToCellName(col, row)
		_ = f.SetCellValue(sheet, cell, v)
	}

	for _, r := range results {
		if r.Status == constants.ResultStatusError {
			write(1, r.Filename)
			write(2, string(r.Status))
			errMsg := r.Error
			if errMsg == "" {
				errMsg = "processing failed"
			}
			write(6, errMsg)
			row++
			continue
		}
		if len(r.Fields) == 0 {
			write(1, r.Filename)
			write(2, string(r.Status))
			write(3, "(no fields extracted)")
			row++
			continue
		}
		for _, fld := range r.Fields {
			write(1, r.Filename)
			write(2, string(r.Status))
			write(3, fld.FieldName)
			write(4, fld.FieldValue)
			if fld.Confidence != nil {
				write(5, int(*fld.Confidence+0.5))
			} else {
				write(5, "N/A")
			}
			row++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
