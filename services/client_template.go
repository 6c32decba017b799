package services

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const (
	clientSheetName       = "Clientes"
	clientInstructionName = "Instruções"
)

// GenerateClientTemplate creates the downloadable .xlsx workbook used for
// bulk client imports. Required columns are marked with " *".
func GenerateClientTemplate() ([]byte, error) {
	fields := ClientTemplateFields()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), clientSheetName); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	requiredHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	optionalHeaderStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	columns := columnLetters(len(fields))
	for i, field := range fields {
		cell := columns[i] + "1"
		headerText := field.Label
		style := optionalHeaderStyle
		if field.Required {
			headerText += " *"
			style = requiredHeaderStyle
		}
		f.SetCellValue(clientSheetName, cell, headerText)
		f.SetCellStyle(clientSheetName, cell, cell, style)
		f.SetColWidth(clientSheetName, columns[i], columns[i], max(float64(len(field.ExampleValue))*1.2, 18))
	}

	f.SetPanes(clientSheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err := addInstructionsSheet(f, fields); err != nil {
		return nil, err
	}
	return writeWorkbook(f)
}

// addInstructionsSheet creates a hidden sheet with field descriptions.
func addInstructionsSheet(f *excelize.File, fields []TemplateField) error {
	if _, err := f.NewSheet(clientInstructionName); err != nil {
		return fmt.Errorf("create instructions sheet: %w", err)
	}

	titleStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true, Size: 14}})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(clientInstructionName, "A1", "Importação de clientes - Instruções")
	f.SetCellStyle(clientInstructionName, "A1", "A1", titleStyle)

	cols := columnLetters(5)
	for i, h := range []string{"Campo", "Obrigatório?", "Formato", "Descrição", "Exemplo"} {
		cell := cols[i] + "3"
		f.SetCellValue(clientInstructionName, cell, h)
		f.SetCellStyle(clientInstructionName, cell, cell, headerStyle)
	}

	for i, field := range fields {
		row := fmt.Sprint(i + 4)
		reqLabel := "Opcional"
		if field.Required {
			reqLabel = "Obrigatório"
		}
		f.SetCellValue(clientInstructionName, cols[0]+row, field.Label)
		f.SetCellValue(clientInstructionName, cols[1]+row, reqLabel)
		f.SetCellValue(clientInstructionName, cols[2]+row, field.FormatRule)
		f.SetCellValue(clientInstructionName, cols[3]+row, field.Description)
		f.SetCellValue(clientInstructionName, cols[4]+row, field.ExampleValue)
	}

	for i, w := range []float64{20, 14, 32, 40, 36} {
		f.SetColWidth(clientInstructionName, cols[i], cols[i], w)
	}
	return f.SetSheetVisible(clientInstructionName, false)
}

// columnLetters returns Excel column letters for n columns: A, B, ... Z, AA, AB ...
func columnLetters(n int) []string {
	cols := make([]string, n)
	for i := range n {
		cols[i], _ = excelize.ColumnNumberToName(i + 1)
	}
	return cols
}
