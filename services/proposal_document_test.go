package services

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

type stubRenderer struct {
	got *MergeMapping
	err error
}

func (r *stubRenderer) Render(_ context.Context, m *MergeMapping) ([]byte, error) {
	r.got = m
	if r.err != nil {
		return nil, r.err
	}
	return []byte("docx"), nil
}

func TestDocumentFileName(t *testing.T) {
	tests := []struct {
		name, code, client, want string
	}{
		{"short name", "202601AC84", "Câmara de Bayeux", "202601AC84_Câmara_de_Bayeux.docx"},
		{"truncated to twenty characters", "202601AC84", "Prefeitura Municipal de Santa Rita", "202601AC84_Prefeitura_Municipal.docx"},
		{"unsafe characters", "202601CON90", `A/B: "C"`, "202601CON90_A-B-_-C-.docx"},
		{"empty client", "202601AC84", "", "202601AC84_.docx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DocumentFileName(tt.code, tt.client); got != tt.want {
				t.Errorf("DocumentFileName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDocumentGenerator_Generate(t *testing.T) {
	r := &stubRenderer{}
	g := NewDocumentGenerator(newTestAssembler(), r)

	doc, err := g.Generate(context.Background(), ProposalRecord{
		Code:        "202601OTHER90",
		ServiceType: "OTHER",
		TotalValue:  decimal.NewFromInt(500),
	}, ClientRecord{Name: "Cliente Teste"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if doc.FileName != "202601OTHER90_Cliente_Teste.docx" || string(doc.Content) != "docx" {
		t.Errorf("document = %q / %q", doc.FileName, doc.Content)
	}
	if r.got == nil || r.got.TemplateID != "template_generic.docx" || doc.Mapping != r.got {
		t.Errorf("renderer received %+v", r.got)
	}
}

func TestDocumentGenerator_Errors(t *testing.T) {
	renderErr := &RendererError{ServiceType: "OTHER", TemplateID: "template_generic.docx", Err: ErrTemplateNotFound}

	r := &stubRenderer{err: renderErr}
	g := NewDocumentGenerator(newTestAssembler(), r)

	_, err := g.Generate(context.Background(), ProposalRecord{ServiceType: "OTHER"}, ClientRecord{})
	if !errors.Is(err, ErrTemplateNotFound) || !errors.Is(err, ErrRendererFailure) {
		t.Errorf("render error = %v", err)
	}

	r.got = nil
	_, err = g.Generate(context.Background(), ProposalRecord{ServiceType: "NOPE"}, ClientRecord{})
	if !errors.Is(err, ErrUnknownServiceType) {
		t.Errorf("assembly error = %v, want ErrUnknownServiceType", err)
	}
	if r.got != nil {
		t.Error("renderer should not run when assembly fails")
	}
}
