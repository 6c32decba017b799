package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of proposal dates.
const DateLayout = "2006-01-02"

// ProposalInput is a request to create a proposal.
type ProposalInput struct {
	ServiceType    string           `json:"service_type"`
	SubType        string           `json:"sub_type"`
	ClientID       string           `json:"client_id"`
	StartDate      string           `json:"start_date"`
	EndDate        string           `json:"end_date"`
	DurationMonths int              `json:"duration_months"`
	ManualPrice    *decimal.Decimal `json:"manual_price"`
	InputData      *Fields          `json:"input_data"`
}

// PricedProposal is a validated proposal input with its stored values
// computed.
type PricedProposal struct {
	ServiceType    string
	SubType        string
	StartDate      *time.Time
	EndDate        *time.Time
	DurationMonths int
	TotalValue     decimal.Decimal
	BaseValue      decimal.Decimal
	InputData      *Fields
	Price          *PriceResult
}

// ParseDate reads an optional yyyy-mm-dd date. Blank input yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be yyyy-mm-dd", ErrInvalidInput, s)
	}
	return &t, nil
}

// ResolveDuration returns the month count between both dates when both are
// given, otherwise the explicit duration.
func ResolveDuration(start, end *time.Time, explicit int) (int, error) {
	if start != nil && end != nil {
		if end.Before(*start) {
			return 0, fmt.Errorf("%w: end date before start date", ErrInvalidInput)
		}
		return MonthsBetween(*start, *end), nil
	}
	if explicit < 0 {
		return 0, fmt.Errorf("%w: duration_months must not be negative", ErrInvalidInput)
	}
	return explicit, nil
}

// PriceProposal validates in and computes the values stored with a new
// proposal. Volume-priced services are priced from the "pages" and "folders"
// inputs; every other service takes the manual price as its total.
func (a *Assembler) PriceProposal(in ProposalInput) (PricedProposal, error) {
	def, err := a.catalog.Lookup(in.ServiceType)
	if err != nil {
		return PricedProposal{}, err
	}
	start, err := ParseDate(in.StartDate)
	if err != nil {
		return PricedProposal{}, err
	}
	end, err := ParseDate(in.EndDate)
	if err != nil {
		return PricedProposal{}, err
	}
	duration, err := ResolveDuration(start, end, in.DurationMonths)
	if err != nil {
		return PricedProposal{}, err
	}

	inputs := in.InputData
	if inputs == nil {
		inputs = NewFields()
	}
	out := PricedProposal{
		ServiceType:    def.Code,
		SubType:        in.SubType,
		StartDate:      start,
		EndDate:        end,
		DurationMonths: duration,
		InputData:      inputs,
	}

	if def.PricedByVolume {
		pages, ok := inputs.Int("pages")
		if !ok {
			return PricedProposal{}, fmt.Errorf("%w: %s requires a whole \"pages\" input", ErrInvalidInput, def.Code)
		}
		folders, _ := inputs.Int("folders")
		price, err := a.calc.ComputePrice(pages, folders, duration)
		if err != nil {
			return PricedProposal{}, err
		}
		out.Price = &price
		out.TotalValue = price.TotalValue
		out.BaseValue = price.BaseMonthlyAdjusted
		return out, nil
	}

	if in.ManualPrice == nil {
		return PricedProposal{}, fmt.Errorf("%w: %s requires manual_price", ErrInvalidInput, def.Code)
	}
	if in.ManualPrice.IsNegative() {
		return PricedProposal{}, fmt.Errorf("%w: manual_price must not be negative", ErrInvalidInput)
	}
	out.TotalValue = *in.ManualPrice
	out.BaseValue = *in.ManualPrice
	return out, nil
}
