package profile

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// ExportXLSX renders the record table as a spreadsheet byte stream. Rows
// appear in append order under the same column headers as the table file.
func (t *TableStore) ExportXLSX(username, profileName string) ([]byte, error) {
	records, err := t.ListRecords(username, profileName)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]interface{}, len(recordColumns))
	for i, c := range recordColumns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("writing spreadsheet header: %w", err)
	}

	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("computing cell name: %w", err)
		}
		row := []interface{}{r.StoreName, r.ItemName, r.Price}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("writing spreadsheet row: %w", err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("encoding spreadsheet: %w", err)
	}
	return buf.Bytes(), nil
}
