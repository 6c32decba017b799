package services

import (
	"context"
	"fmt"
	"strings"
)

const clientNameFileLimit = 20

// GeneratedDocument is a rendered proposal ready for download.
type GeneratedDocument struct {
	FileName string
	Content  []byte
	Mapping  *MergeMapping
}

// DocumentGenerator runs the full pipeline: merge mapping assembly followed
// by template rendering.
type DocumentGenerator struct {
	assembler *Assembler
	renderer  Renderer
}

// NewDocumentGenerator wires an assembler to a renderer.
func NewDocumentGenerator(assembler *Assembler, renderer Renderer) *DocumentGenerator {
	return &DocumentGenerator{assembler: assembler, renderer: renderer}
}

// Assembler returns the generator's merge mapping assembler.
func (g *DocumentGenerator) Assembler() *Assembler {
	return g.assembler
}

// Generate builds and renders the proposal document. Assembly errors are
// returned as-is; render errors are *RendererError.
func (g *DocumentGenerator) Generate(ctx context.Context, p ProposalRecord, c ClientRecord) (*GeneratedDocument, error) {
	mapping, err := g.assembler.BuildMergeMapping(p, c)
	if err != nil {
		return nil, err
	}
	content, err := g.renderer.Render(ctx, mapping)
	if err != nil {
		return nil, err
	}
	return &GeneratedDocument{
		FileName: DocumentFileName(p.Code, c.Name),
		Content:  content,
		Mapping:  mapping,
	}, nil
}

// DocumentFileName returns "<code>_<client>.docx" using at most the first 20
// characters of the client name with spaces replaced by underscores.
func DocumentFileName(code, clientName string) string {
	name := []rune(clientName)
	if len(name) > clientNameFileLimit {
		name = name[:clientNameFileLimit]
	}
	safe := strings.Map(func(r rune) rune {
		switch r {
		case ' ':
			return '_'
		case '/', '\\', ':', '"':
			return '-'
		}
		return r
	}, string(name))
	return fmt.Sprintf("%s_%s.docx", code, safe)
}
