package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"proposalgen/services"
	"proposalgen/testhelpers"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid input", fmt.Errorf("%w: pages", services.ErrInvalidInput), http.StatusBadRequest},
		{"unknown service", fmt.Errorf("%w: %q", services.ErrUnknownServiceType, "XYZ"), http.StatusBadRequest},
		{"not found", fmt.Errorf("%w: proposal abc", services.ErrNotFound), http.StatusNotFound},
		{"code conflict", fmt.Errorf("%w: 202601AC84", services.ErrCodeConflict), http.StatusConflict},
		{"renderer", &services.RendererError{TemplateID: "template_ats.docx", Err: errors.New("zip: not a valid zip file")}, http.StatusInternalServerError},
		{"other", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StatusForError(tt.err); got != tt.want {
				t.Errorf("StatusForError() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestServiceErrorJSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantBody   string
		hidden     string
	}{
		{
			name:       "invalid input keeps message",
			err:        fmt.Errorf("%w: manual_price must not be negative", services.ErrInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantBody:   "manual_price must not be negative",
		},
		{
			name:       "not found",
			err:        fmt.Errorf("%w: proposal abc: sql: no rows", services.ErrNotFound),
			wantStatus: http.StatusNotFound,
			wantBody:   "Proposal not found",
			hidden:     "sql",
		},
		{
			name: "missing template",
			err: &services.RendererError{
				TemplateID: "template_ats.docx",
				Err:        fmt.Errorf("%w: template_ats.docx", services.ErrTemplateNotFound),
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "template template_ats.docx not found in storage",
		},
		{
			name:       "broken template",
			err:        &services.RendererError{TemplateID: "template_ats.docx", Err: errors.New("zip: not a valid zip file")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "failed to render template template_ats.docx",
			hidden:     "zip",
		},
		{
			name:       "internal",
			err:        errors.New("open /var/data/secret.db: permission denied"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   "internal server error",
			hidden:     "secret.db",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, req, rec)

			if err := ServiceErrorJSON(e, tt.err); err != nil {
				t.Fatalf("ServiceErrorJSON() error: %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			body := rec.Body.String()
			testhelpers.AssertBodyContains(t, body, tt.wantBody)
			if tt.hidden != "" && strings.Contains(body, tt.hidden) {
				t.Errorf("body leaks %q: %s", tt.hidden, body)
			}
		})
	}
}

func TestFieldErrorsJSON(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := FieldErrorsJSON(e, map[string]string{"cnpj": "CNPJ inválido"}); err != nil {
		t.Fatalf("FieldErrorsJSON() error: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	testhelpers.AssertBodyContains(t, rec.Body.String(), `"error":"validation failed"`, `"cnpj":"CNPJ inválido"`)
}
