package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/collections"
	"proposalgen/logx"
	"proposalgen/services"
)

// ProposalRequest is the JSON body of proposal create and update calls.
type ProposalRequest struct {
	services.ProposalInput
	Status string `json:"status"`
}

// ProposalResponse is the JSON view of a stored proposal.
type ProposalResponse struct {
	ID             string           `json:"id"`
	Code           string           `json:"code"`
	ServiceType    string           `json:"service_type"`
	SubType        string           `json:"sub_type,omitempty"`
	ClientID       string           `json:"client_id,omitempty"`
	ClientName     string           `json:"client_name,omitempty"`
	Status         string           `json:"status"`
	TotalValue     float64          `json:"total_value"`
	BaseValue      float64          `json:"base_value"`
	DurationMonths int              `json:"duration_months"`
	StartDate      string           `json:"start_date,omitempty"`
	EndDate        string           `json:"end_date,omitempty"`
	InputData      *services.Fields `json:"input_data"`
	Created        string           `json:"created,omitempty"`
}

func proposalResponse(rec *core.Record, clientName string) ProposalResponse {
	p, err := services.ProposalFromRecord(rec)
	if err != nil {
		p.InputData = services.NewFields()
	}
	resp := ProposalResponse{
		ID:             rec.Id,
		Code:           rec.GetString("code"),
		ServiceType:    rec.GetString("service_type"),
		SubType:        rec.GetString("sub_type"),
		ClientID:       rec.GetString("client"),
		ClientName:     clientName,
		Status:         rec.GetString("status"),
		TotalValue:     rec.GetFloat("total_value"),
		BaseValue:      rec.GetFloat("base_value"),
		DurationMonths: rec.GetInt("duration_months"),
		InputData:      p.InputData,
	}
	if p.StartDate != nil {
		resp.StartDate = p.StartDate.Format(services.DateLayout)
	}
	if p.EndDate != nil {
		resp.EndDate = p.EndDate.Format(services.DateLayout)
	}
	if dt := rec.GetDateTime("created"); !dt.IsZero() {
		resp.Created = dt.Time().Format(time.RFC3339)
	}
	return resp
}

func decodeProposalRequest(e *core.RequestEvent) (ProposalRequest, error) {
	var req ProposalRequest
	dec := json.NewDecoder(e.Request.Body)
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	req.ServiceType = strings.ToUpper(strings.TrimSpace(req.ServiceType))
	req.SubType = strings.TrimSpace(req.SubType)
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	return req, nil
}

// validateProposalRefs checks the client relation and status of a request.
func validateProposalRefs(app *pocketbase.PocketBase, req ProposalRequest) map[string]string {
	errs := make(map[string]string)
	if req.ClientID != "" {
		if _, err := app.FindRecordById("clients", req.ClientID); err != nil {
			errs["client_id"] = "Client not found"
		}
	}
	if req.Status != "" && !slices.Contains(collections.ProposalStatuses, req.Status) {
		errs["status"] = "Unknown status"
	}
	return errs
}

// HandleProposalCreate returns a handler that prices and stores a new
// proposal, assigning it the next proposal code.
func HandleProposalCreate(app *pocketbase.PocketBase, assembler *services.Assembler, counter services.CodeCounter, codeOffset int) func(*core.RequestEvent) error {
	log := logx.Component("proposal_create")
	return func(e *core.RequestEvent) error {
		req, err := decodeProposalRequest(e)
		if err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid JSON body")
		}
		if errs := validateProposalRefs(app, req); len(errs) > 0 {
			return FieldErrorsJSON(e, errs)
		}

		priced, err := assembler.PriceProposal(req.ProposalInput)
		if err != nil {
			return ServiceErrorJSON(e, err)
		}

		col, err := app.FindCollectionByNameOrId("proposals")
		if err != nil {
			log.Error().Err(err).Msg("proposals collection missing")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to save proposal")
		}

		status := req.Status
		if status == "" {
			status = "GENERATED"
		}

		inUse := services.RecordCodeInUse(app)
		var rec *core.Record
		var code string
		for attempt := 0; attempt < 2 && rec == nil; attempt++ {
			code, err = services.AllocateProposalCode(e.Request.Context(), counter, priced.ServiceType, codeOffset, time.Now(), inUse)
			if err != nil {
				log.Error().Err(err).Msg("failed to generate proposal code")
				return ServiceErrorJSON(e, err)
			}

			candidate := core.NewRecord(col)
			priced.ApplyTo(candidate)
			candidate.Set("code", code)
			candidate.Set("client", req.ClientID)
			candidate.Set("status", status)
			if err := app.Save(candidate); err != nil {
				// a concurrent create may have claimed the code between lookup and save
				if taken, _ := inUse(code); taken {
					log.Warn().Str("code", code).Int("attempt", attempt+1).Msg("proposal code taken, retrying")
					continue
				}
				log.Error().Err(err).Str("code", code).Msg("failed to save proposal")
				return ErrorJSON(e, http.StatusInternalServerError, "Failed to save proposal")
			}
			rec = candidate
		}
		if rec == nil {
			return ServiceErrorJSON(e, fmt.Errorf("%w: %s", services.ErrCodeConflict, code))
		}

		log.Info().Str("code", code).Str("service", priced.ServiceType).
			Str("total", priced.TotalValue.StringFixed(2)).Msg("proposal created")
		return e.JSON(http.StatusCreated, proposalResponse(rec, ""))
	}
}

// HandleProposalUpdate returns a handler that re-prices an existing proposal
// from new inputs. The code and client relation are kept unless the body
// names a new client.
func HandleProposalUpdate(app *pocketbase.PocketBase, assembler *services.Assembler) func(*core.RequestEvent) error {
	log := logx.Component("proposal_update")
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := app.FindRecordById("proposals", id)
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Proposal not found")
		}

		req, err := decodeProposalRequest(e)
		if err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid JSON body")
		}
		if req.ServiceType == "" {
			req.ServiceType = rec.GetString("service_type")
		}
		if errs := validateProposalRefs(app, req); len(errs) > 0 {
			return FieldErrorsJSON(e, errs)
		}

		priced, err := assembler.PriceProposal(req.ProposalInput)
		if err != nil {
			return ServiceErrorJSON(e, err)
		}

		priced.ApplyTo(rec)
		if req.ClientID != "" {
			rec.Set("client", req.ClientID)
		}
		if req.Status != "" {
			rec.Set("status", req.Status)
		}
		if err := app.Save(rec); err != nil {
			log.Error().Err(err).Str("proposal", id).Msg("failed to update proposal")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to save proposal")
		}

		log.Info().Str("code", rec.GetString("code")).Msg("proposal updated")
		return e.JSON(http.StatusOK, proposalResponse(rec, ""))
	}
}
