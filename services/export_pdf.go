package services

import (
	"fmt"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	mutedColor  = &props.Color{Red: 80, Green: 80, Blue: 80}
	headerColor = &props.Color{Red: 33, Green: 37, Blue: 41}
	stripeColor = &props.Color{Red: 245, Green: 245, Blue: 245}
)

// GenerateProposalPDF renders a one-document summary of a proposal: client
// block, price details and the installment schedule.
func GenerateProposalPDF(data ExportData) ([]byte, error) {
	cfg := config.NewBuilder().
		WithOrientation(orientation.Vertical).
		WithPageSize(pagesize.A4).
		WithLeftMargin(15).
		WithTopMargin(15).
		WithRightMargin(15).
		WithPageNumber(props.PageNumber{
			Pattern: "Página {current} de {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)

	addProposalHeader(m, data)
	addClientBlock(m, data)
	addDetails(m, data.Details)
	addInstallmentHeader(m)
	for i, r := range data.Rows {
		addInstallmentRow(m, r, i%2 == 1)
	}
	addTotal(m, data)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

func addProposalHeader(m core.Maroto, data ExportData) {
	m.AddRows(
		row.New(12).Add(
			col.New(12).Add(
				text.New(data.Title, props.Text{Size: 15, Style: fontstyle.Bold, Align: align.Center}),
			),
		),
		row.New(7).Add(
			col.New(6).Add(
				text.New("Código: "+data.Code, props.Text{Size: 9, Align: align.Left, Color: mutedColor}),
			),
			col.New(6).Add(
				text.New(data.Date, props.Text{Size: 9, Align: align.Right, Color: mutedColor}),
			),
		),
		row.New(4),
	)
}

func addClientBlock(m core.Maroto, data ExportData) {
	label := props.Text{Size: 9, Style: fontstyle.Bold}
	value := props.Text{Size: 9}
	lines := []ExportDetail{
		{Label: "Cliente", Value: data.ClientName},
		{Label: "CNPJ", Value: data.TaxID},
		{Label: "Endereço", Value: data.Address},
		{Label: "Vigência", Value: data.DurationText},
	}
	for _, l := range lines {
		m.AddRows(row.New(6).Add(
			col.New(3).Add(text.New(l.Label, label)),
			col.New(9).Add(text.New(l.Value, value)),
		))
	}
	m.AddRows(row.New(4))
}

func addDetails(m core.Maroto, details []ExportDetail) {
	if len(details) == 0 {
		return
	}
	label := props.Text{Size: 8, Style: fontstyle.Bold, Color: mutedColor}
	value := props.Text{Size: 8}
	for _, d := range details {
		m.AddRows(row.New(5).Add(
			col.New(3).Add(text.New(d.Label, label)),
			col.New(9).Add(text.New(d.Value, value)),
		))
	}
	m.AddRows(row.New(4))
}

func addInstallmentHeader(m core.Maroto) {
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Center,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}
	headerTextLeft := headerText
	headerTextLeft.Align = align.Left
	cell := &props.Cell{BackgroundColor: headerColor}

	m.AddRows(row.New(8).Add(
		col.New(2).Add(text.New("Parcela", headerText)).WithStyle(cell),
		col.New(4).Add(text.New("Vencimento", headerTextLeft)).WithStyle(cell),
		col.New(3).Add(text.New("Valor", headerText)).WithStyle(cell),
		col.New(3).Add(text.New("Valor PIX", headerText)).WithStyle(cell),
	))
}

func addInstallmentRow(m core.Maroto, r ExportRow, striped bool) {
	base := props.Text{Size: 8, Align: align.Center}
	left := base
	left.Align = align.Left
	right := base
	right.Align = align.Right

	cIndex := col.New(2).Add(text.New(r.Index, base))
	cDesc := col.New(4).Add(text.New(r.Description, left))
	cValue := col.New(3).Add(text.New(r.Value, right))
	cPix := col.New(3).Add(text.New(r.ValuePix, right))
	if striped {
		cell := &props.Cell{BackgroundColor: stripeColor}
		cIndex = cIndex.WithStyle(cell)
		cDesc = cDesc.WithStyle(cell)
		cValue = cValue.WithStyle(cell)
		cPix = cPix.WithStyle(cell)
	}
	m.AddRows(row.New(7).Add(cIndex, cDesc, cValue, cPix))
}

func addTotal(m core.Maroto, data ExportData) {
	style := props.Text{Size: 10, Style: fontstyle.Bold, Align: align.Right}
	cell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	m.AddRows(
		row.New(6),
		row.New(9).Add(
			col.New(8).Add(text.New("Valor total", style)).WithStyle(cell),
			col.New(4).Add(text.New(data.TotalValue, style)).WithStyle(cell),
		),
	)
}
