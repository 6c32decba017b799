package services

import (
	"bytes"
	"fmt"
	"math"

	"github.com/xuri/excelize/v2"
)

type excelStyles struct {
	title, subtitle, header, cell, money, label, total int
}

func newExcelStyles(f *excelize.File) (excelStyles, error) {
	var s excelStyles
	defs := []struct {
		dst   *int
		name  string
		style *excelize.Style
	}{
		{&s.title, "title", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 16}}},
		{&s.subtitle, "subtitle", &excelize.Style{Font: &excelize.Font{Size: 11}}},
		{&s.header, "header", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    thinBorders(),
		}},
		{&s.cell, "cell", &excelize.Style{Font: &excelize.Font{Size: 10}, Border: thinBorders()}},
		{&s.money, "money", &excelize.Style{
			Font:      &excelize.Font{Size: 10},
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Border:    thinBorders(),
		}},
		{&s.label, "label", &excelize.Style{
			Font:      &excelize.Font{Bold: true, Size: 11},
			Alignment: &excelize.Alignment{Horizontal: "right"},
		}},
		{&s.total, "total", &excelize.Style{Font: &excelize.Font{Bold: true, Size: 11}}},
	}
	for _, d := range defs {
		id, err := f.NewStyle(d.style)
		if err != nil {
			return s, fmt.Errorf("create %s style: %w", d.name, err)
		}
		*d.dst = id
	}
	return s, nil
}

// GenerateProposalExcel writes the proposal summary and its installment
// schedule to a single-sheet workbook.
func GenerateProposalExcel(data ExportData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Proposta"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	for col, w := range map[string]float64{"A": 22, "B": 40, "C": 20, "D": 20} {
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set col width %s: %w", col, err)
		}
	}
	st, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.MergeCell(sheet, "A1", "D1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", sanitizeExcelCell(data.Title))
	f.SetCellStyle(sheet, "A1", "D1", st.title)

	info := []ExportDetail{
		{Label: "Código", Value: data.Code},
		{Label: "Data", Value: data.Date},
		{Label: "Cliente", Value: data.ClientName},
		{Label: "CNPJ", Value: data.TaxID},
		{Label: "Endereço", Value: data.Address},
		{Label: "Vigência", Value: data.DurationText},
	}
	info = append(info, data.Details...)

	row := 3
	for _, d := range info {
		r := fmt.Sprint(row)
		f.SetCellValue(sheet, "A"+r, sanitizeExcelCell(d.Label))
		f.SetCellValue(sheet, "B"+r, sanitizeExcelCell(d.Value))
		f.SetCellStyle(sheet, "A"+r, "B"+r, st.subtitle)
		row++
	}
	row++

	headerRow := fmt.Sprint(row)
	for i, h := range []string{"Parcela", "Vencimento", "Valor", "Valor PIX"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A"+headerRow, "D"+headerRow, st.header)
	row++

	for _, item := range data.Rows {
		r := fmt.Sprint(row)
		f.SetCellValue(sheet, "A"+r, item.Index)
		f.SetCellValue(sheet, "B"+r, sanitizeExcelCell(item.Description))
		f.SetCellValue(sheet, "C"+r, item.Value)
		f.SetCellValue(sheet, "D"+r, item.ValuePix)
		f.SetCellStyle(sheet, "A"+r, "B"+r, st.cell)
		f.SetCellStyle(sheet, "C"+r, "D"+r, st.money)
		row++
	}

	row++
	r := fmt.Sprint(row)
	f.SetCellValue(sheet, "B"+r, "Valor total:")
	f.SetCellStyle(sheet, "B"+r, "B"+r, st.label)
	f.SetCellValue(sheet, "C"+r, data.TotalValue)
	f.SetCellStyle(sheet, "C"+r, "C"+r, st.total)

	return writeWorkbook(f)
}

// GeneratePriceSheet tabulates the final monthly price of every page bucket
// against every discount tier for a fixed folder count.
func GeneratePriceSheet(calc *PriceCalculator, folders int) ([]byte, error) {
	buckets := calc.PageBuckets()
	tiers := calc.DiscountTiers()

	// Price the bucket at its upper bound; the open-ended bucket one page past
	// the previous bound.
	samplePages := make([]int, len(buckets))
	for i, b := range buckets {
		samplePages[i] = b.MaxPages
		if b.MaxPages == math.MaxInt {
			samplePages[i] = 1
			if i > 0 {
				samplePages[i] = buckets[i-1].MaxPages + 1
			}
		}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Tabela de Preços"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}
	st, err := newExcelStyles(f)
	if err != nil {
		return nil, err
	}

	lastCol, _ := excelize.ColumnNumberToName(3 + len(tiers))
	if err := f.SetColWidth(sheet, "A", lastCol, 16); err != nil {
		return nil, fmt.Errorf("set col width: %w", err)
	}
	if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
		return nil, fmt.Errorf("merge title: %w", err)
	}
	f.SetCellValue(sheet, "A1", fmt.Sprintf("Tabela de preços mensais (%d pastas)", folders))
	f.SetCellStyle(sheet, "A1", lastCol+"1", st.title)
	f.SetCellValue(sheet, "A2", "Valor base: "+FormatBRL(calc.BaseMonthlyRate()))
	f.SetCellStyle(sheet, "A2", "A2", st.subtitle)

	headers := []string{"Situação", "Páginas", "Mensal base"}
	for _, t := range tiers {
		headers = append(headers, fmt.Sprintf("%d meses (%s)", t.MinMonths, FormatPercent(t.Rate)))
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 4)
		f.SetCellValue(sheet, cell, h)
	}
	f.SetCellStyle(sheet, "A4", lastCol+"4", st.header)

	for i, b := range buckets {
		row := 5 + i
		r := fmt.Sprint(row)
		pagesLabel := fmt.Sprintf("até %d", b.MaxPages)
		if b.MaxPages == math.MaxInt {
			pagesLabel = fmt.Sprintf("acima de %d", samplePages[i]-1)
		}
		f.SetCellValue(sheet, "A"+r, b.Label)
		f.SetCellValue(sheet, "B"+r, pagesLabel)
		f.SetCellStyle(sheet, "A"+r, "B"+r, st.cell)

		for j, t := range tiers {
			price, err := calc.ComputePrice(samplePages[i], folders, t.MinMonths)
			if err != nil {
				return nil, fmt.Errorf("price bucket %s: %w", b.Label, err)
			}
			if j == 0 {
				f.SetCellValue(sheet, "C"+r, FormatBRL(price.BaseMonthlyAdjusted))
			}
			cell, _ := excelize.CoordinatesToCellName(4+j, row)
			f.SetCellValue(sheet, cell, FormatBRL(price.FinalMonthly))
		}
		f.SetCellStyle(sheet, "C"+r, lastCol+r, st.money)
	}

	return writeWorkbook(f)
}

func writeWorkbook(f *excelize.File) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), nil
}

// sanitizeExcelCell prevents formula injection by prefixing dangerous leading
// characters with a single quote. Excel interprets cells starting with =, +, -,
// @, \t or \r as formulas.
func sanitizeExcelCell(s string) string {
	if len(s) == 0 {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r', '|':
		return "'" + s
	}
	return s
}

// thinBorders returns thin borders on all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{Type: side, Color: "#000000", Style: 1}
	}
	return borders
}
