// Package testhelpers provides utilities for testing PocketBase-based applications.
package testhelpers

import (
	"strings"
	"testing"
	"time"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"

	"proposalgen/collections"
	"proposalgen/logx"
)

// NewTestApp creates a PocketBase instance backed by a temporary directory.
// It bootstraps the app and runs collections.Setup to create all tables.
// The temporary directory is cleaned up automatically when the test finishes.
func NewTestApp(t *testing.T) *pocketbase.PocketBase {
	t.Helper()

	logx.Init(logx.Options{Environment: logx.Testing})

	tmpDir := t.TempDir()
	app := pocketbase.NewWithConfig(pocketbase.Config{
		DefaultDataDir: tmpDir,
	})

	if err := app.Bootstrap(); err != nil {
		t.Fatalf("failed to bootstrap test app: %v", err)
	}

	collections.Setup(app)

	return app
}

// CreateTestClient creates a client record and returns it.
func CreateTestClient(t *testing.T, app *pocketbase.PocketBase, name, cnpj string) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("clients")
	if err != nil {
		t.Fatalf("failed to find clients collection: %v", err)
	}

	record := core.NewRecord(col)
	record.Set("name", name)
	record.Set("cnpj", cnpj)
	record.Set("address", "Rua das Flores, 100\nCentro, João Pessoa - PB")

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test client: %v", err)
	}

	return record
}

// ProposalOpts are the optional fields of CreateTestProposal.
type ProposalOpts struct {
	SubType        string
	ClientID       string
	InputData      map[string]any
	TotalValue     float64
	BaseValue      float64
	DurationMonths int
	StartDate      time.Time
	EndDate        time.Time
	Status         string
}

// CreateTestProposal creates a proposal record with the given code and
// service type and returns it.
func CreateTestProposal(t *testing.T, app *pocketbase.PocketBase, code, serviceType string, opts ProposalOpts) *core.Record {
	t.Helper()

	col, err := app.FindCollectionByNameOrId("proposals")
	if err != nil {
		t.Fatalf("failed to find proposals collection: %v", err)
	}

	status := opts.Status
	if status == "" {
		status = "GENERATED"
	}

	record := core.NewRecord(col)
	record.Set("code", code)
	record.Set("service_type", serviceType)
	record.Set("sub_type", opts.SubType)
	record.Set("client", opts.ClientID)
	if opts.InputData != nil {
		record.Set("input_data", opts.InputData)
	}
	record.Set("total_value", opts.TotalValue)
	record.Set("base_value", opts.BaseValue)
	record.Set("duration_months", opts.DurationMonths)
	if !opts.StartDate.IsZero() {
		record.Set("start_date", opts.StartDate)
	}
	if !opts.EndDate.IsZero() {
		record.Set("end_date", opts.EndDate)
	}
	record.Set("status", status)

	if err := app.Save(record); err != nil {
		t.Fatalf("failed to save test proposal: %v", err)
	}

	return record
}

// AssertBodyContains checks that body contains all specified fragments.
func AssertBodyContains(t *testing.T, body string, fragments ...string) {
	t.Helper()

	for _, frag := range fragments {
		if !strings.Contains(body, frag) {
			t.Errorf("expected body to contain %q, but it was not found\nbody (first 500 chars): %s",
				frag, truncate(body, 500))
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
