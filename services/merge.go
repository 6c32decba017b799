package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// InstallmentsKey is the merge key of the repeated installment table.
const InstallmentsKey = "installments"

// TaxIDPlaceholder is printed when a client has no CNPJ on file.
const TaxIDPlaceholder = "_______________"

// ClientRecord is the client a proposal is addressed to.
type ClientRecord struct {
	ID      string
	Name    string
	TaxID   string
	Address string
}

// ProposalRecord is a stored proposal as supplied by the record store.
type ProposalRecord struct {
	ID             string
	Code           string
	ServiceType    string
	SubType        string
	InputData      *Fields
	TotalValue     decimal.Decimal
	BaseValue      decimal.Decimal
	DurationMonths int
	StartDate      *time.Time
	EndDate        *time.Time
	CreatedAt      time.Time
}

// MergeRow is an installment row with its money already formatted for print.
type MergeRow struct {
	Index       string `json:"index"`
	Description string `json:"description"`
	Value       string `json:"value"`
	ValuePix    string `json:"valuePix"`
}

// Tags returns the row's loop tags.
func (r MergeRow) Tags() map[string]string {
	return map[string]string{
		"index":       r.Index,
		"description": r.Description,
		"value":       r.Value,
		"valuePix":    r.ValuePix,
	}
}

// MergeMapping is everything a renderer needs to produce one document: the
// template to load and the ordered tag values, including the installment
// table under InstallmentsKey.
type MergeMapping struct {
	ServiceType string
	TemplateID  string
	Fields      *Fields
}

// Installments returns the installment table, or nil when the mapping has none.
func (m *MergeMapping) Installments() []MergeRow {
	v, ok := m.Fields.Get(InstallmentsKey)
	if !ok {
		return nil
	}
	rows, _ := v.([]MergeRow)
	return rows
}

// Assembler turns proposal and client records into merge mappings. It only
// reads its arguments and immutable tables, so one Assembler may serve
// concurrent requests.
type Assembler struct {
	catalog      *Catalog
	calc         *PriceCalculator
	installments int
	now          func() time.Time
}

// AssemblerOption customises an Assembler.
type AssemblerOption func(*Assembler)

// WithClock overrides the clock used for the document date.
func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) { a.now = now }
}

// WithInstallmentCount overrides DefaultInstallmentCount.
func WithInstallmentCount(n int) AssemblerOption {
	return func(a *Assembler) { a.installments = n }
}

// NewAssembler wires a catalog and calculator into an Assembler.
func NewAssembler(catalog *Catalog, calc *PriceCalculator, opts ...AssemblerOption) *Assembler {
	a := &Assembler{
		catalog:      catalog,
		calc:         calc,
		installments: DefaultInstallmentCount,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Catalog returns the service catalog the assembler resolves templates from.
func (a *Assembler) Catalog() *Catalog {
	return a.catalog
}

// Calculator returns the price calculator used for volume-priced services.
func (a *Assembler) Calculator() *PriceCalculator {
	return a.calc
}

// SubTypeOf returns the proposal's sub-type, falling back to the "subType"
// key of its free-form inputs.
func SubTypeOf(p ProposalRecord) string {
	if p.SubType != "" {
		return p.SubType
	}
	return p.InputData.String("subType")
}

// DurationOf returns the stored duration, or the month count between the
// proposal dates when none was stored.
func DurationOf(p ProposalRecord) int {
	if p.DurationMonths > 0 {
		return p.DurationMonths
	}
	if p.StartDate != nil && p.EndDate != nil {
		return MonthsBetween(*p.StartDate, *p.EndDate)
	}
	return 0
}

// BuildMergeMapping assembles the merge data for one proposal. Later groups
// override earlier ones: computed fields, then client fields, then the
// proposal's free-form inputs, then the installment table. It either returns
// a complete mapping or an error.
func (a *Assembler) BuildMergeMapping(p ProposalRecord, c ClientRecord) (*MergeMapping, error) {
	def, err := a.catalog.Lookup(p.ServiceType)
	if err != nil {
		return nil, err
	}
	templateID, err := a.catalog.ResolveTemplate(p.ServiceType, SubTypeOf(p))
	if err != nil {
		return nil, err
	}

	rows, err := GenerateInstallments(p.TotalValue, a.installments)
	if err != nil {
		return nil, err
	}
	table := make([]MergeRow, len(rows))
	for i, r := range rows {
		table[i] = MergeRow{
			Index:       r.Index,
			Description: r.Description,
			Value:       FormatBRL(r.Value),
			ValuePix:    FormatBRL(r.DiscountedValue),
		}
	}

	duration := DurationOf(p)
	start := FormatDateShort(p.StartDate)
	end := FormatDateShort(p.EndDate)

	fields := NewFields()
	fields.Set("code", p.Code)
	fields.Set("date_extenso", FormatDateLong(a.now()))
	fields.Set("duration_months", duration)
	fields.Set("start_date", start)
	fields.Set("end_date", end)
	fields.Set("duration_text", DurationText(duration, start, end))
	fields.Set("total_value", FormatBRL(p.TotalValue))
	fields.Set("total_value_extenso", AmountToWordsBRL(p.TotalValue))

	if def.PricedByVolume {
		if err := a.setPricingFields(fields, p.InputData, duration); err != nil {
			return nil, fmt.Errorf("proposal %s: %w", p.Code, err)
		}
	}

	taxID := c.TaxID
	if taxID == "" {
		taxID = TaxIDPlaceholder
	}
	fields.Set("client_name", c.Name)
	fields.Set("cnpj", taxID)
	fields.Set("address", c.Address)

	fields.Merge(p.InputData)

	fields.Set(InstallmentsKey, table)

	return &MergeMapping{
		ServiceType: p.ServiceType,
		TemplateID:  templateID,
		Fields:      fields,
	}, nil
}

// setPricingFields adds the price breakdown when the inputs carry a page
// count. Proposals without volume inputs keep only the stored total.
func (a *Assembler) setPricingFields(fields, inputs *Fields, duration int) error {
	pages, ok := inputs.Int("pages")
	if !ok {
		return nil
	}
	folders, _ := inputs.Int("folders")

	price, err := a.calc.ComputePrice(pages, folders, duration)
	if err != nil {
		return err
	}
	fields.Set("situation", price.Situation)
	fields.Set("base_monthly", FormatBRL(price.BaseMonthlyAdjusted))
	fields.Set("final_monthly", FormatBRL(price.FinalMonthly))
	fields.Set("discount_percent", FormatPercent(price.DiscountRate))
	fields.Set("reference_tier", price.ReferenceTier)
	fields.Set("savings", FormatBRL(price.Savings))
	return nil
}
