package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const invoiceSheetName = "Invoices"

// renderWorkbook turns ledger rows (header first) into an xlsx workbook so
// the report reads cleanly without CSV import steps.
func renderWorkbook(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	defSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defSheet, invoiceSheetName); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return nil, err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(invoiceSheetName, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
