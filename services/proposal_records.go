package services

import (
	"fmt"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/shopspring/decimal"

	"proposalgen/logx"
)

// ProposalFromRecord converts a stored proposals record.
func ProposalFromRecord(rec *core.Record) (ProposalRecord, error) {
	inputs := NewFields()
	if raw := rec.GetString("input_data"); raw != "" && raw != "null" {
		if err := rec.UnmarshalJSONField("input_data", inputs); err != nil {
			return ProposalRecord{}, fmt.Errorf("proposal %s: input_data: %w", rec.Id, err)
		}
	}

	// Money NumberFields hold float64. NewFromFloat recovers the shortest
	// decimal, which is the stored amount for up to 15 significant digits.
	p := ProposalRecord{
		ID:             rec.Id,
		Code:           rec.GetString("code"),
		ServiceType:    rec.GetString("service_type"),
		SubType:        rec.GetString("sub_type"),
		InputData:      inputs,
		TotalValue:     decimal.NewFromFloat(rec.GetFloat("total_value")),
		BaseValue:      decimal.NewFromFloat(rec.GetFloat("base_value")),
		DurationMonths: rec.GetInt("duration_months"),
		StartDate:      recordDate(rec, "start_date"),
		EndDate:        recordDate(rec, "end_date"),
	}
	if dt := rec.GetDateTime("created"); !dt.IsZero() {
		p.CreatedAt = dt.Time()
	}
	return p, nil
}

// ClientFromRecord converts a stored clients record.
func ClientFromRecord(rec *core.Record) ClientRecord {
	return ClientRecord{
		ID:      rec.Id,
		Name:    rec.GetString("name"),
		TaxID:   rec.GetString("cnpj"),
		Address: rec.GetString("address"),
	}
}

func recordDate(rec *core.Record, field string) *time.Time {
	dt := rec.GetDateTime(field)
	if dt.IsZero() {
		return nil
	}
	t := dt.Time()
	return &t
}

// LoadProposal fetches a proposal and its client. A dangling client relation
// is logged and yields an empty client so the document can still be built.
func LoadProposal(app *pocketbase.PocketBase, proposalID string) (ProposalRecord, ClientRecord, error) {
	rec, err := app.FindRecordById("proposals", proposalID)
	if err != nil {
		return ProposalRecord{}, ClientRecord{}, fmt.Errorf("%w: proposal %s: %v", ErrNotFound, proposalID, err)
	}
	p, err := ProposalFromRecord(rec)
	if err != nil {
		return ProposalRecord{}, ClientRecord{}, err
	}

	var client ClientRecord
	if clientID := rec.GetString("client"); clientID != "" {
		c, err := app.FindRecordById("clients", clientID)
		if err != nil {
			logx.Warn().Err(err).Str("proposal", proposalID).Str("client", clientID).
				Msg("proposal_records: could not find client")
		} else {
			client = ClientFromRecord(c)
		}
	}
	return p, client, nil
}

// ApplyTo writes the priced values onto a proposals record. Code, client and
// status are left to the caller. Money goes into float64 NumberFields; any
// amount with at most 15 significant digits reads back unchanged through
// ProposalFromRecord.
func (p PricedProposal) ApplyTo(rec *core.Record) {
	rec.Set("service_type", p.ServiceType)
	rec.Set("sub_type", p.SubType)
	rec.Set("input_data", p.InputData)
	rec.Set("total_value", p.TotalValue.InexactFloat64())
	rec.Set("base_value", p.BaseValue.InexactFloat64())
	rec.Set("duration_months", p.DurationMonths)
	if p.StartDate != nil {
		rec.Set("start_date", *p.StartDate)
	} else {
		rec.Set("start_date", "")
	}
	if p.EndDate != nil {
		rec.Set("end_date", *p.EndDate)
	} else {
		rec.Set("end_date", "")
	}
}
