package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

// ProposalDetail is a stored proposal together with the tag values its
// document would be merged with.
type ProposalDetail struct {
	ProposalResponse
	TemplateID string           `json:"template_id"`
	Merge      *services.Fields `json:"merge"`
}

// HandleProposalList returns a handler listing proposals newest first,
// optionally filtered by ?service_type= and ?client=.
func HandleProposalList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("proposal_list")
	return func(e *core.RequestEvent) error {
		q := e.Request.URL.Query()
		filter := "id != ''"
		params := map[string]any{}
		if st := q.Get("service_type"); st != "" {
			filter += " && service_type = {:serviceType}"
			params["serviceType"] = st
		}
		if c := q.Get("client"); c != "" {
			filter += " && client = {:client}"
			params["client"] = c
		}

		records, err := app.FindRecordsByFilter("proposals", filter, "-created", 0, 0, params)
		if err != nil {
			log.Error().Err(err).Msg("failed to query proposals")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to list proposals")
		}

		clientNames := make(map[string]string)
		out := make([]ProposalResponse, 0, len(records))
		for _, rec := range records {
			clientID := rec.GetString("client")
			name, seen := clientNames[clientID]
			if !seen && clientID != "" {
				if c, err := app.FindRecordById("clients", clientID); err == nil {
					name = c.GetString("name")
				}
				clientNames[clientID] = name
			}
			out = append(out, proposalResponse(rec, name))
		}
		return e.JSON(http.StatusOK, out)
	}
}

// HandleProposalView returns a handler showing one proposal with its merge
// fields as they would be sent to the renderer.
func HandleProposalView(app *pocketbase.PocketBase, assembler *services.Assembler) func(*core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := app.FindRecordById("proposals", id)
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Proposal not found")
		}
		proposal, client, err := services.LoadProposal(app, id)
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		mapping, err := assembler.BuildMergeMapping(proposal, client)
		if err != nil {
			return ServiceErrorJSON(e, err)
		}
		return e.JSON(http.StatusOK, ProposalDetail{
			ProposalResponse: proposalResponse(rec, client.Name),
			TemplateID:       mapping.TemplateID,
			Merge:            mapping.Fields,
		})
	}
}

// HandleProposalDelete returns a handler that removes a proposal.
func HandleProposalDelete(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("proposal_delete")
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		rec, err := app.FindRecordById("proposals", id)
		if err != nil {
			return ErrorJSON(e, http.StatusNotFound, "Proposal not found")
		}
		if err := app.Delete(rec); err != nil {
			log.Error().Err(err).Str("proposal", id).Msg("failed to delete proposal")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to delete proposal")
		}
		log.Info().Str("code", rec.GetString("code")).Msg("proposal deleted")
		return e.NoContent(http.StatusNoContent)
	}
}
