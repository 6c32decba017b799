package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

const maxImportUpload = 10 << 20

// ClientValidateResponse is returned by the upload step. Rows is only set
// when the file has no errors, ready to be posted back to the commit step.
type ClientValidateResponse struct {
	*services.ValidationResult
	Rows []map[string]string `json:"rows,omitempty"`
}

// ClientCommitRequest is the JSON body of the commit step.
type ClientCommitRequest struct {
	Rows []map[string]string `json:"rows"`
}

// HandleClientTemplateDownload serves the Excel template for client import.
// Route: GET /api/clients/import/template
func HandleClientTemplateDownload() func(*core.RequestEvent) error {
	log := logx.Component("client_template")
	return func(e *core.RequestEvent) error {
		xlsxBytes, err := services.GenerateClientTemplate()
		if err != nil {
			log.Error().Err(err).Msg("failed to generate template")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate template")
		}
		filename := fmt.Sprintf("Clientes_Modelo_%d.xlsx", time.Now().Year())
		return attachment(e, xlsxContentType, filename, xlsxBytes)
	}
}

// HandleClientImportValidate receives a .csv or .xlsx upload in the "file"
// form field and reports row-level errors without saving anything.
// Route: POST /api/clients/import
func HandleClientImportValidate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("client_import")
	return func(e *core.RequestEvent) error {
		if err := e.Request.ParseMultipartForm(maxImportUpload); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "File too large or invalid form data")
		}
		file, header, err := e.Request.FormFile("file")
		if err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Please select a file to upload")
		}
		defer file.Close()

		existing, err := services.ExistingClientNames(app)
		if err != nil {
			log.Error().Err(err).Msg("failed to load clients")
			return ErrorJSON(e, http.StatusInternalServerError, "internal server error")
		}

		result, err := services.ValidateClientFile(file, header.Filename, existing)
		if err != nil {
			log.Warn().Err(err).Str("file", header.Filename).Msg("upload rejected")
			return ServiceErrorJSON(e, err)
		}

		resp := ClientValidateResponse{ValidationResult: result}
		if result.ErrorRows == 0 {
			resp.Rows = result.ParsedRows
		}
		log.Info().Str("file", header.Filename).Int("rows", result.TotalRows).
			Int("error_rows", result.ErrorRows).Msg("upload validated")
		return e.JSON(http.StatusOK, resp)
	}
}

// HandleClientImportCommit re-validates and batch-inserts validated rows.
// Route: POST /api/clients/import/commit
func HandleClientImportCommit(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("client_import")
	return func(e *core.RequestEvent) error {
		var req ClientCommitRequest
		if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid JSON body")
		}
		if len(req.Rows) == 0 {
			return ErrorJSON(e, http.StatusBadRequest, "File data missing. Please re-upload and try again.")
		}

		result, err := services.CommitClientImport(app, req.Rows)
		if err != nil {
			log.Error().Err(err).Msg("commit failed")
			return ErrorJSON(e, http.StatusInternalServerError, "internal server error")
		}
		if result.Failed > 0 {
			return e.JSON(http.StatusUnprocessableEntity, result)
		}
		log.Info().Int("imported", result.Imported).Msg("clients imported")
		return e.JSON(http.StatusOK, result)
	}
}

// HandleClientErrorReport turns posted validation errors into a workbook.
// Route: POST /api/clients/import/errors
func HandleClientErrorReport() func(*core.RequestEvent) error {
	log := logx.Component("client_import")
	return func(e *core.RequestEvent) error {
		var errs []services.ValidationError
		if err := json.NewDecoder(e.Request.Body).Decode(&errs); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid error data")
		}
		xlsxBytes, err := services.GenerateErrorReport(errs)
		if err != nil {
			log.Error().Err(err).Msg("failed to generate error report")
			return ErrorJSON(e, http.StatusInternalServerError, "internal server error")
		}
		filename := fmt.Sprintf("Clientes_Erros_%s.xlsx", time.Now().Format(services.DateLayout))
		return attachment(e, xlsxContentType, filename, xlsxBytes)
	}
}

// HandleClientExport downloads every client with its proposal count.
// Route: GET /api/clients/export
func HandleClientExport(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("client_export")
	return func(e *core.RequestEvent) error {
		clients, err := app.FindRecordsByFilter("clients", "id != ''", "name", 0, 0, nil)
		if err != nil {
			log.Error().Err(err).Msg("failed to query clients")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to export clients")
		}

		rows := make([]map[string]string, 0, len(clients))
		for _, c := range clients {
			row := make(map[string]string)
			for _, col := range services.ClientExportColumns() {
				if !strings.HasPrefix(col.Field, "_") {
					row[col.Field] = c.GetString(col.Field)
				}
			}
			proposals, err := app.FindRecordsByFilter("proposals", "client = {:client}", "", 0, 0,
				map[string]any{"client": c.Id})
			if err != nil {
				log.Warn().Err(err).Str("client", c.Id).Msg("failed to count proposals")
			}
			row["_proposals"] = fmt.Sprint(len(proposals))
			rows = append(rows, row)
		}

		xlsxBytes, err := services.GenerateClientExcel(rows, time.Now())
		if err != nil {
			log.Error().Err(err).Msg("failed to generate client export")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to generate export")
		}
		filename := fmt.Sprintf("Clientes_%s.xlsx", time.Now().Format(services.DateLayout))
		return attachment(e, xlsxContentType, filename, xlsxBytes)
	}
}
