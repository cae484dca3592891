package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"docintel/constants"
	"docintel/internal/entity"
)

func TestResultsXLSXLayout(t *testing.T) {
	conf := 92.0
	results := []entity.DocumentResult{
		{
			Filename: "bill.pdf",
			Status:   constants.ResultStatusSuccess,
			Fields: []entity.ExtractedField{
				{FieldName: "AccountNo", FieldValue: "A-1", Confidence: &conf},
				{FieldName: "Total", FieldValue: constants.ValueNotFound},
			},
		},
		{Filename: "broken.pdf", Status: constants.ResultStatusError, Error: "boom"},
	}

	b, err := ResultsXLSX(results)
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("reopen workbook: %v", err)
	}
	defer f.Close()

	const sheet = "Extracted Fields"
	get := func(cell string) string {
		v, err := f.GetCellValue(sheet, cell)
		if err != nil {
			t.Fatalf("read %s: %v", cell, err)
		}
		return v
	}

	if get("A1") != "Filename" || get("E1") != "Confidence (%)" {
		t.Fatalf("unexpected headers: %q %q", get("A1"), get("E1"))
	}
	if get("A2") != "bill.pdf" || get("C2") != "AccountNo" || get("E2") != "92" {
		t.Fatalf("unexpected field row: %q %q %q", get("A2"), get("C2"), get("E2"))
	}
	if get("E3") != "N/A" {
		t.Fatalf("missing confidence should render N/A, got %q", get("E3"))
	}
	if get("A4") != "broken.pdf" || get("F4") != "boom" {
		t.Fatalf("unexpected error row: %q %q", get("A4"), get("F4"))
	}
}
