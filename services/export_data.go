package services

import (
	"fmt"
	"sort"
)

// ExportRow is one installment line of a proposal summary.
type ExportRow struct {
	Index       string
	Description string
	Value       string
	ValuePix    string
}

// ExportDetail is a labelled value printed in the summary header block.
type ExportDetail struct {
	Label string
	Value string
}

// ExportData holds everything the PDF and Excel summaries print.
type ExportData struct {
	Title        string
	Code         string
	ClientName   string
	TaxID        string
	Address      string
	Date         string
	DurationText string
	TotalValue   string
	Details      []ExportDetail
	Rows         []ExportRow
}

// pricingDetailKeys are the price breakdown fields shown when present.
var pricingDetailKeys = []struct {
	key   string
	label string
}{
	{"situation", "Situação"},
	{"base_monthly", "Mensal base"},
	{"discount_percent", "Desconto"},
	{"final_monthly", "Mensal final"},
	{"savings", "Economia"},
}

// BuildExportData flattens a merge mapping into printable summary data. The
// remaining free-form inputs are appended as details in key order.
func BuildExportData(m *MergeMapping, displayName string) ExportData {
	f := m.Fields
	data := ExportData{
		Title:        fmt.Sprintf("Proposta %s - %s", f.String("code"), displayName),
		Code:         f.String("code"),
		ClientName:   f.String("client_name"),
		TaxID:        f.String("cnpj"),
		Address:      f.String("address"),
		Date:         f.String("date_extenso"),
		DurationText: f.String("duration_text"),
		TotalValue:   f.String("total_value"),
	}

	seen := map[string]bool{}
	for _, k := range []string{
		"code", "client_name", "cnpj", "address", "date_extenso", "duration_text",
		"total_value", "duration_months", "start_date", "end_date", InstallmentsKey,
	} {
		seen[k] = true
	}
	for _, d := range pricingDetailKeys {
		if v := f.String(d.key); v != "" {
			data.Details = append(data.Details, ExportDetail{Label: d.label, Value: v})
		}
		seen[d.key] = true
	}

	var extra []string
	for _, k := range f.Keys() {
		if !seen[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		v := f.String(k)
		if v == "" {
			continue
		}
		data.Details = append(data.Details, ExportDetail{Label: k, Value: v})
	}

	for _, r := range m.Installments() {
		data.Rows = append(data.Rows, ExportRow{
			Index:       r.Index,
			Description: r.Description,
			Value:       r.Value,
			ValuePix:    r.ValuePix,
		})
	}
	return data
}
