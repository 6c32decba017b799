package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"proposalgen/testhelpers"
)

func TestHandleClientCreate_Success(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	handler := HandleClientCreate(app)

	body := `{"name":"  Condomínio Atlântico ","cnpj":"11222333000181","email":"sindico@atlantico.com.br","phone":"(83) 99876-5432"}`
	req := httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(body))
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp ClientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Name != "Condomínio Atlântico" {
		t.Errorf("name = %q, want trimmed", resp.Name)
	}
	if resp.CNPJ != "11.222.333/0001-81" {
		t.Errorf("cnpj = %q, want formatted", resp.CNPJ)
	}

	stored, err := app.FindRecordById("clients", resp.ID)
	if err != nil {
		t.Fatalf("client not stored: %v", err)
	}
	if stored.GetString("email") != "sindico@atlantico.com.br" {
		t.Errorf("stored email = %q", stored.GetString("email"))
	}
}

func TestHandleClientCreate_Validation(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestClient(t, app, "Câmara Municipal", "")
	handler := HandleClientCreate(app)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"missing name", `{"name":"   "}`, `"name"`},
		{"bad cnpj", `{"name":"Nova","cnpj":"11.222.333/0001-82"}`, `"cnpj"`},
		{"bad email", `{"name":"Nova","email":"not-an-email"}`, `"email"`},
		{"bad phone", `{"name":"Nova","phone":"123"}`, `"phone"`},
		{"duplicate", `{"name":"Câmara Municipal"}`, "Cliente já cadastrado"},
		{"invalid json", `{"name":`, "Invalid JSON body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			e := newTestRequestEvent(app, req, rec)

			if err := handler(e); err != nil {
				t.Fatalf("handler returned error: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			testhelpers.AssertBodyContains(t, rec.Body.String(), tt.wantField)
		})
	}

	total, _ := app.CountRecords("clients")
	if total != 1 {
		t.Errorf("expected 1 client, got %d", total)
	}
}

func TestHandleClientList(t *testing.T) {
	app := testhelpers.NewTestApp(t)
	testhelpers.CreateTestClient(t, app, "Cliente A", "")
	testhelpers.CreateTestClient(t, app, "Cliente B", "11.444.777/0001-61")
	handler := HandleClientList(app)

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	rec := httptest.NewRecorder()
	e := newTestRequestEvent(app, req, rec)

	if err := handler(e); err != nil {
		t.Fatalf("handler returned error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var resp []ClientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("expected 2 clients, got %d", len(resp))
	}
	testhelpers.AssertBodyContains(t, rec.Body.String(), "Cliente A", "11.444.777/0001-61")
}
