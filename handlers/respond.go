package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/pocketbase/pocketbase/core"

	"proposalgen/services"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// StatusForError maps a service error kind to an HTTP status.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrUnknownServiceType):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrCodeConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// ErrorJSON writes {"error": message} with the given status.
func ErrorJSON(e *core.RequestEvent, status int, message string) error {
	return e.JSON(status, ErrorBody{Error: message})
}

// FieldErrorsJSON writes a 400 carrying per-field validation messages.
func FieldErrorsJSON(e *core.RequestEvent, fields map[string]string) error {
	return e.JSON(http.StatusBadRequest, ErrorBody{Error: "validation failed", Fields: fields})
}

// ServiceErrorJSON writes err with the status of its kind. Internal failures
// are not echoed to the caller beyond the renderer's template name.
func ServiceErrorJSON(e *core.RequestEvent, err error) error {
	status := StatusForError(err)
	msg := err.Error()
	if status == http.StatusNotFound {
		msg = "Proposal not found"
	}
	if status == http.StatusInternalServerError {
		var rerr *services.RendererError
		if errors.As(err, &rerr) {
			msg = fmt.Sprintf("failed to render template %s", rerr.TemplateID)
			if errors.Is(rerr.Err, services.ErrTemplateNotFound) {
				msg = fmt.Sprintf("template %s not found in storage", rerr.TemplateID)
			}
		} else {
			msg = "internal server error"
		}
	}
	return ErrorJSON(e, status, msg)
}

// attachment writes a binary download.
func attachment(e *core.RequestEvent, contentType, filename string, data []byte) error {
	e.Response.Header().Set("Content-Type", contentType)
	e.Response.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	e.Response.WriteHeader(http.StatusOK)
	_, err := e.Response.Write(data)
	return err
}
