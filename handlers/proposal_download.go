package handlers

import (
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// HandleProposalDownload returns a handler that renders a proposal into its
// Word template and downloads it.
func HandleProposalDownload(app *pocketbase.PocketBase, gen *services.DocumentGenerator) func(*core.RequestEvent) error {
	log := logx.Component("proposal_download")
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return ErrorJSON(e, http.StatusBadRequest, "Missing proposal ID")
		}

		proposal, client, err := services.LoadProposal(app, id)
		if err != nil {
			log.Warn().Err(err).Str("proposal", id).Msg("failed to load proposal")
			return ServiceErrorJSON(e, err)
		}

		doc, err := gen.Generate(e.Request.Context(), proposal, client)
		if err != nil {
			log.Error().Err(err).Str("proposal", proposal.Code).Str("service", proposal.ServiceType).
				Msg("failed to generate document")
			return ServiceErrorJSON(e, err)
		}

		log.Info().Str("proposal", proposal.Code).Str("template", doc.Mapping.TemplateID).
			Int("bytes", len(doc.Content)).Msg("document generated")
		return attachment(e, docxContentType, doc.FileName, doc.Content)
	}
}
