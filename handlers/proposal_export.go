package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

// sanitizeFilename removes characters that are unsafe for filenames.
func sanitizeFilename(s string) string {
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "/", "-")
	s = strings.ReplaceAll(s, "\\", "-")
	s = strings.ReplaceAll(s, ":", "-")
	return s
}

// buildProposalExport loads a proposal and flattens its merge mapping into
// summary data.
func buildProposalExport(app *pocketbase.PocketBase, assembler *services.Assembler, id string) (services.ExportData, error) {
	proposal, client, err := services.LoadProposal(app, id)
	if err != nil {
		return services.ExportData{}, err
	}
	mapping, err := assembler.BuildMergeMapping(proposal, client)
	if err != nil {
		return services.ExportData{}, err
	}
	def, err := assembler.Catalog().Lookup(proposal.ServiceType)
	if err != nil {
		return services.ExportData{}, err
	}
	return services.BuildExportData(mapping, def.DisplayName), nil
}

// HandleProposalExportPDF returns a handler that downloads a PDF summary of a
// proposal.
func HandleProposalExportPDF(app *pocketbase.PocketBase, assembler *services.Assembler) func(*core.RequestEvent) error {
	log := logx.Component("export_pdf")
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return ErrorJSON(e, http.StatusBadRequest, "Missing proposal ID")
		}

		data, err := buildProposalExport(app, assembler, id)
		if err != nil {
			log.Warn().Err(err).Str("proposal", id).Msg("failed to build export data")
			return ServiceErrorJSON(e, err)
		}

		pdfBytes, err := services.GenerateProposalPDF(data)
		if err != nil {
			log.Error().Err(err).Str("proposal", data.Code).Msg("failed to generate PDF")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate PDF file")
		}

		filename := fmt.Sprintf("%s.pdf", sanitizeFilename(data.Code))
		return attachment(e, "application/pdf", filename, pdfBytes)
	}
}

// HandleProposalExportExcel returns a handler that downloads the proposal
// summary and installment schedule as a workbook.
func HandleProposalExportExcel(app *pocketbase.PocketBase, assembler *services.Assembler) func(*core.RequestEvent) error {
	log := logx.Component("export_excel")
	return func(e *core.RequestEvent) error {
		id := e.Request.PathValue("id")
		if id == "" {
			return ErrorJSON(e, http.StatusBadRequest, "Missing proposal ID")
		}

		data, err := buildProposalExport(app, assembler, id)
		if err != nil {
			log.Warn().Err(err).Str("proposal", id).Msg("failed to build export data")
			return ServiceErrorJSON(e, err)
		}

		xlsxBytes, err := services.GenerateProposalExcel(data)
		if err != nil {
			log.Error().Err(err).Str("proposal", data.Code).Msg("failed to generate workbook")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate Excel file")
		}

		filename := fmt.Sprintf("%s.xlsx", sanitizeFilename(data.Code))
		return attachment(e, xlsxContentType, filename, xlsxBytes)
	}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
