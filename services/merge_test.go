package services

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var fixedNow = time.Date(2026, 1, 21, 10, 0, 0, 0, time.UTC)

func newTestAssembler(opts ...AssemblerOption) *Assembler {
	opts = append([]AssemblerOption{WithClock(func() time.Time { return fixedNow })}, opts...)
	return NewAssembler(DefaultCatalog(), NewDefaultPriceCalculator(), opts...)
}

func fieldsOf(kv ...any) *Fields {
	f := NewFields()
	for i := 0; i+1 < len(kv); i += 2 {
		f.Set(kv[i].(string), kv[i+1])
	}
	return f
}

func TestBuildMergeMapping_MissingDatesUsePlaceholder(t *testing.T) {
	a := newTestAssembler()
	p := ProposalRecord{
		Code:           "202601AUD85",
		ServiceType:    "AUD",
		TotalValue:     decimal.RequireFromString("18500"),
		DurationMonths: 6,
	}

	m, err := a.BuildMergeMapping(p, ClientRecord{Name: "Câmara Municipal"})
	if err != nil {
		t.Fatalf("BuildMergeMapping() error = %v", err)
	}
	for _, key := range []string{"start_date", "end_date"} {
		if got := m.Fields.String(key); got != DatePlaceholder {
			t.Errorf("%s = %q, want %q", key, got, DatePlaceholder)
		}
	}
	want := "Período de 6 meses, de A Definir a A Definir."
	if got := m.Fields.String("duration_text"); got != want {
		t.Errorf("duration_text = %q, want %q", got, want)
	}
	if got := m.Fields.String("cnpj"); got != TaxIDPlaceholder {
		t.Errorf("cnpj = %q, want placeholder", got)
	}
	if m.TemplateID != "template_aud_generic.docx" {
		t.Errorf("TemplateID = %q", m.TemplateID)
	}
}

func TestBuildMergeMapping_VolumePricedProposal(t *testing.T) {
	a := newTestAssembler()
	start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2027, 1, 31, 0, 0, 0, 0, time.UTC)
	p := ProposalRecord{
		Code:        "202601AC84",
		ServiceType: "AC",
		InputData:   fieldsOf("pages", 350, "folders", 25, "responsible", "Maria Lima"),
		TotalValue:  decimal.RequireFromString("19746"),
		StartDate:   &start,
		EndDate:     &end,
	}
	c := ClientRecord{Name: "Prefeitura Municipal", TaxID: "11.222.333/0001-81", Address: "Rua A"}

	m, err := a.BuildMergeMapping(p, c)
	if err != nil {
		t.Fatalf("BuildMergeMapping() error = %v", err)
	}

	want := map[string]string{
		"code":                "202601AC84",
		"date_extenso":        "21 de janeiro de 2026",
		"duration_months":     "12",
		"start_date":          "01/02/2026",
		"end_date":            "31/01/2027",
		"total_value":         "R$\u00a019.746,00",
		"total_value_extenso": "dezenove mil setecentos e quarenta e seis reais",
		"situation":           "B",
		"base_monthly":        "R$\u00a01.645,50",
		"final_monthly":       "R$\u00a01.645,50",
		"discount_percent":    "0%",
		"reference_tier":      "12",
		"savings":             "R$\u00a00,00",
		"client_name":         "Prefeitura Municipal",
		"cnpj":                "11.222.333/0001-81",
		"address":             "Rua A",
		"responsible":         "Maria Lima",
		"pages":               "350",
	}
	for key, v := range want {
		if got := m.Fields.String(key); got != v {
			t.Errorf("%s = %q, want %q", key, got, v)
		}
	}

	rows := m.Installments()
	if len(rows) != DefaultInstallmentCount {
		t.Fatalf("got %d installments, want %d", len(rows), DefaultInstallmentCount)
	}
	if rows[0].Value != "R$\u00a01.974,60" || rows[0].ValuePix != "R$\u00a01.777,14" {
		t.Errorf("first installment = %+v", rows[0])
	}
}

func TestBuildMergeMapping_Precedence(t *testing.T) {
	a := newTestAssembler(WithInstallmentCount(2))
	p := ProposalRecord{
		Code:        "202601CON90",
		ServiceType: "CON",
		InputData: fieldsOf(
			"client_name", "Nome Fantasia",
			"total_value", "sob consulta",
			InstallmentsKey, "ignored",
		),
		TotalValue: decimal.NewFromInt(1000),
	}

	m, err := a.BuildMergeMapping(p, ClientRecord{Name: "Razão Social"})
	if err != nil {
		t.Fatalf("BuildMergeMapping() error = %v", err)
	}
	if got := m.Fields.String("client_name"); got != "Nome Fantasia" {
		t.Errorf("inputs should override client fields, got %q", got)
	}
	if got := m.Fields.String("total_value"); got != "sob consulta" {
		t.Errorf("inputs should override computed fields, got %q", got)
	}
	if rows := m.Installments(); len(rows) != 2 {
		t.Errorf("installment table should override inputs, got %d rows", len(rows))
	}
}

func TestBuildMergeMapping_SubTypeFromInputs(t *testing.T) {
	a := newTestAssembler()
	p := ProposalRecord{
		ServiceType: "AUD",
		InputData:   fieldsOf("subType", "NBC_TA_200_700"),
	}
	m, err := a.BuildMergeMapping(p, ClientRecord{})
	if err != nil {
		t.Fatalf("BuildMergeMapping() error = %v", err)
	}
	if m.TemplateID != "template_aud_200_700.docx" {
		t.Errorf("TemplateID = %q", m.TemplateID)
	}

	p.SubType = "NBC_TA_800"
	m, err = a.BuildMergeMapping(p, ClientRecord{})
	if err != nil {
		t.Fatalf("BuildMergeMapping() error = %v", err)
	}
	if m.TemplateID != "template_aud_800.docx" {
		t.Errorf("sub_type field should win over inputs, TemplateID = %q", m.TemplateID)
	}
}

func TestBuildMergeMapping_Errors(t *testing.T) {
	tests := []struct {
		name string
		a    *Assembler
		p    ProposalRecord
		want error
	}{
		{"unknown service", newTestAssembler(), ProposalRecord{ServiceType: "NOPE"}, ErrUnknownServiceType},
		{"negative pages", newTestAssembler(), ProposalRecord{ServiceType: "AC", DurationMonths: 12, InputData: fieldsOf("pages", -5)}, ErrInvalidInput},
		{"no installments", newTestAssembler(WithInstallmentCount(0)), ProposalRecord{ServiceType: "OTHER"}, ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tt.a.BuildMergeMapping(tt.p, ClientRecord{})
			if !errors.Is(err, tt.want) {
				t.Errorf("error = %v, want %v", err, tt.want)
			}
			if m != nil {
				t.Error("expected nil mapping on error")
			}
		})
	}
}

func TestDurationOf(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)

	if got := DurationOf(ProposalRecord{DurationMonths: 24, StartDate: &start, EndDate: &end}); got != 24 {
		t.Errorf("stored duration should win, got %d", got)
	}
	if got := DurationOf(ProposalRecord{StartDate: &start, EndDate: &end}); got != 6 {
		t.Errorf("duration from dates = %d, want 6", got)
	}
	if got := DurationOf(ProposalRecord{StartDate: &start}); got != 0 {
		t.Errorf("duration with one date = %d, want 0", got)
	}
}
