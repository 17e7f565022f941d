package parser

import (
	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/xpln-go/pkg/xpln/models"
)

// ParseWorkbook reads every sheet of an xlsx workbook as a table.
// Sheets become tables in workbook order and rows follow the same
// trailing-empty trimming as OpenDocument content.
func ParseWorkbook(path string) (*models.Spreadsheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ExtractTables(f)
}

// ExtractTables converts all sheets of an open workbook into tables.
func ExtractTables(f *excelize.File) (*models.Spreadsheet, error) {
	sheet := &models.Spreadsheet{}
	for _, name := range f.GetSheetList() {
		rows, err := ExtractRows(f, name)
		if err != nil {
			return nil, &ParseError{Table: name, Row: -1, Element: "worksheet", Err: err}
		}
		sheet.Tables = append(sheet.Tables, models.Table{Name: name, Rows: rows})
	}
	return sheet, nil
}

// ExtractRows extracts the formatted cell values of a sheet.
// Empty rows in the middle of the sheet are kept so row numbers match
// their sheet position (0-based).
func ExtractRows(f *excelize.File, sheetName string) ([]models.Row, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, err
	}

	result := make([]models.Row, 0, len(rows))
	for rowIdx, row := range rows {
		result = append(result, models.Row{
			Number: rowIdx,
			Values: models.TrimRow(row),
		})
	}

	return result, nil
}
