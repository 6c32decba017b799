package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

// ClientExportColumn defines a column in the client export spreadsheet.
type ClientExportColumn struct {
	Header string
	Field  string  // field name on the clients record
	Width  float64 // column width in Excel units
}

// ClientExportColumns returns the export layout, one column per template
// field plus the number of proposals on record.
func ClientExportColumns() []ClientExportColumn {
	cols := make([]ClientExportColumn, 0, len(ClientTemplateFields())+1)
	for _, f := range ClientTemplateFields() {
		cols = append(cols, ClientExportColumn{Header: f.Label, Field: f.Key, Width: 24})
	}
	cols[0].Width = 40
	return append(cols, ClientExportColumn{Header: "Propostas", Field: "_proposals", Width: 12})
}

// GenerateClientExcel writes the given client rows (field -> value) to a
// workbook with a title, a count line and a frozen header row.
func GenerateClientExcel(rows []map[string]string, now time.Time) ([]byte, error) {
	columns := ClientExportColumns()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), clientSheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	st, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	letters := columnLetters(len(columns))
	lastCol := letters[len(letters)-1]
	for i, col := range columns {
		f.SetColWidth(clientSheetName, letters[i], letters[i], col.Width)
	}

	f.MergeCell(clientSheetName, "A1", lastCol+"1")
	f.SetCellValue(clientSheetName, "A1", "Clientes")
	f.SetCellStyle(clientSheetName, "A1", lastCol+"1", st.title)

	f.MergeCell(clientSheetName, "A2", lastCol+"2")
	f.SetCellValue(clientSheetName, "A2", fmt.Sprintf("Total: %d clientes em %s", len(rows), FormatDateShort(&now)))
	f.SetCellStyle(clientSheetName, "A2", lastCol+"2", st.subtitle)

	for i, col := range columns {
		f.SetCellValue(clientSheetName, letters[i]+"4", col.Header)
	}
	f.SetCellStyle(clientSheetName, "A4", lastCol+"4", st.header)

	f.SetPanes(clientSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      4,
		TopLeftCell: "A5",
		ActivePane:  "bottomLeft",
	})

	for rowIdx, rowData := range rows {
		rowStr := fmt.Sprint(rowIdx + 5)
		for colIdx, col := range columns {
			f.SetCellValue(clientSheetName, letters[colIdx]+rowStr, sanitizeExcelCell(rowData[col.Field]))
		}
		f.SetCellStyle(clientSheetName, "A"+rowStr, lastCol+rowStr, st.cell)
	}

	return writeWorkbook(f)
}
