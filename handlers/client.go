package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/logx"
	"proposalgen/services"
)

// ClientRequest is the JSON body of a client create call.
type ClientRequest struct {
	Name        string `json:"name"`
	CNPJ        string `json:"cnpj"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
}

// ClientResponse is the JSON view of a stored client.
type ClientResponse struct {
	ID string `json:"id"`
	ClientRequest
}

func clientResponse(rec *core.Record) ClientResponse {
	return ClientResponse{
		ID: rec.Id,
		ClientRequest: ClientRequest{
			Name:        rec.GetString("name"),
			CNPJ:        rec.GetString("cnpj"),
			ContactName: rec.GetString("contact_name"),
			Email:       rec.GetString("email"),
			Phone:       rec.GetString("phone"),
			Address:     rec.GetString("address"),
		},
	}
}

// HandleClientCreate returns a handler that stores a new client. Names must
// be unique and a CNPJ, when given, must carry valid check digits. The CNPJ
// is stored formatted.
func HandleClientCreate(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("client_create")
	return func(e *core.RequestEvent) error {
		var req ClientRequest
		if err := json.NewDecoder(e.Request.Body).Decode(&req); err != nil {
			return ErrorJSON(e, http.StatusBadRequest, "Invalid JSON body")
		}
		req.Name = strings.TrimSpace(req.Name)
		req.CNPJ = strings.TrimSpace(req.CNPJ)

		errs := services.ValidateClientFields(map[string]string{
			"name":  req.Name,
			"cnpj":  req.CNPJ,
			"email": strings.TrimSpace(req.Email),
			"phone": strings.TrimSpace(req.Phone),
		})
		if req.Name != "" {
			existing, _ := app.FindRecordsByFilter(
				"clients",
				"name = {:name}",
				"", 1, 0,
				map[string]any{"name": req.Name},
			)
			if len(existing) > 0 {
				errs["name"] = "Cliente já cadastrado"
			}
		}
		if len(errs) > 0 {
			return FieldErrorsJSON(e, errs)
		}

		col, err := app.FindCollectionByNameOrId("clients")
		if err != nil {
			log.Error().Err(err).Msg("clients collection missing")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to save client")
		}
		rec := core.NewRecord(col)
		rec.Set("name", req.Name)
		rec.Set("cnpj", services.FormatCNPJ(req.CNPJ))
		rec.Set("contact_name", strings.TrimSpace(req.ContactName))
		rec.Set("email", strings.TrimSpace(req.Email))
		rec.Set("phone", strings.TrimSpace(req.Phone))
		rec.Set("address", strings.TrimSpace(req.Address))
		if err := app.Save(rec); err != nil {
			log.Warn().Err(err).Str("name", req.Name).Msg("failed to save client")
			return ErrorJSON(e, http.StatusBadRequest, "Failed to save client: "+err.Error())
		}

		log.Info().Str("client", rec.Id).Str("name", req.Name).Msg("client created")
		return e.JSON(http.StatusCreated, clientResponse(rec))
	}
}

// HandleClientList returns a handler listing clients newest first.
func HandleClientList(app *pocketbase.PocketBase) func(*core.RequestEvent) error {
	log := logx.Component("client_list")
	return func(e *core.RequestEvent) error {
		records, err := app.FindRecordsByFilter("clients", "id != ''", "-created", 0, 0, nil)
		if err != nil {
			log.Error().Err(err).Msg("failed to query clients")
			return ErrorJSON(e, http.StatusInternalServerError, "Failed to list clients")
		}
		out := make([]ClientResponse, 0, len(records))
		for _, rec := range records {
			out = append(out, clientResponse(rec))
		}
		return e.JSON(http.StatusOK, out)
	}
}
