package services

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/fstest"
)

const testDocumentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document><w:body>` +
	`<w:p><w:r><w:t>{client_name}</w:t></w:r></w:p>` +
	`<w:p><w:r><w:t>Total: {total_value} {unknown_tag}</w:t></w:r></w:p>` +
	`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Parcela</w:t></w:r></w:p></w:tc></w:tr>` +
	`<w:tr><w:tc><w:p><w:r><w:t>{#installments}{index}</w:t></w:r></w:p></w:tc>` +
	`<w:tc><w:p><w:r><w:t>{value} {code}{/installments}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
	`</w:body></w:document>`

// buildDocx packs the given parts into a .docx archive.
func buildDocx(t *testing.T, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range parts {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := io.WriteString(w, content); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// readDocxPart returns one part of a rendered archive.
func readDocxPart(t *testing.T, doc []byte, name string) string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(doc), int64(len(doc)))
	if err != nil {
		t.Fatalf("open rendered docx: %v", err)
	}
	for _, f := range zr.File {
		if f.Name == name {
			s, err := readZipFile(f)
			if err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return s
		}
	}
	t.Fatalf("part %s not found", name)
	return ""
}

func testRenderer(t *testing.T) *DocxRenderer {
	t.Helper()
	docx := buildDocx(t, map[string]string{
		"[Content_Types].xml": `<Types/>`,
		"word/document.xml":   testDocumentXML,
		"word/header1.xml":    `<w:hdr><w:t>{code}</w:t></w:hdr>`,
		"word/styles.xml":     `<w:styles>{code}</w:styles>`,
	})
	return NewDocxRenderer(NewFSTemplateStore(fstest.MapFS{
		"template_generic.docx": &fstest.MapFile{Data: docx},
	}))
}

func testMapping() *MergeMapping {
	f := NewFields()
	f.Set("code", "202601OTHER90")
	f.Set("client_name", "Silva & Filhos {Ltda}")
	f.Set("total_value", "R$ 100,00")
	f.Set(InstallmentsKey, []MergeRow{
		{Index: "01/2", Value: "R$ 50,00"},
		{Index: "02/2", Value: "R$ 50,00"},
	})
	return &MergeMapping{ServiceType: "OTHER", TemplateID: "template_generic.docx", Fields: f}
}

func TestDocxRenderer_Render(t *testing.T) {
	out, err := testRenderer(t).Render(context.Background(), testMapping())
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	doc := readDocxPart(t, out, "word/document.xml")
	if !strings.Contains(doc, "Silva &amp; Filhos &#123;Ltda&#125;") {
		t.Errorf("client name not escaped: %s", doc)
	}
	if !strings.Contains(doc, "Total: R$ 100,00 </w:t>") {
		t.Errorf("scalar tags not merged or unknown tag not blanked: %s", doc)
	}
	if n := strings.Count(doc, "<w:tr>"); n != 3 {
		t.Errorf("got %d table rows, want header + 2 installments", n)
	}
	for _, want := range []string{">01/2<", ">02/2<", "R$ 50,00 202601OTHER90"} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q", want)
		}
	}
	if strings.Contains(doc, "{") {
		t.Errorf("unmerged tags left in document: %s", doc)
	}

	if hdr := readDocxPart(t, out, "word/header1.xml"); !strings.Contains(hdr, "202601OTHER90") {
		t.Errorf("header not merged: %s", hdr)
	}
	if styles := readDocxPart(t, out, "word/styles.xml"); styles != `<w:styles>{code}</w:styles>` {
		t.Errorf("non-merge part was modified: %s", styles)
	}
}

func TestDocxRenderer_InlineLoopAndLineBreaks(t *testing.T) {
	docx := buildDocx(t, map[string]string{
		"word/document.xml": `<w:p><w:r><w:t>{#installments}[{index}]{/installments}|{address}</w:t></w:r></w:p>`,
	})
	r := NewDocxRenderer(NewFSTemplateStore(fstest.MapFS{"t.docx": &fstest.MapFile{Data: docx}}))

	m := testMapping()
	m.TemplateID = "t.docx"
	m.Fields.Set("address", "Rua A\nCentro")

	out, err := r.Render(context.Background(), m)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := readDocxPart(t, out, "word/document.xml")
	want := `<w:t>[01/2][02/2]|Rua A</w:t><w:br/><w:t xml:space="preserve">Centro</w:t>`
	if !strings.Contains(doc, want) {
		t.Errorf("document = %s, want it to contain %s", doc, want)
	}
}

func TestDocxRenderer_Errors(t *testing.T) {
	unclosed := buildDocx(t, map[string]string{
		"word/document.xml": `<w:t>{#installments}{index}</w:t>`,
	})
	r := NewDocxRenderer(NewFSTemplateStore(fstest.MapFS{
		"unclosed.docx": &fstest.MapFile{Data: unclosed},
		"broken.docx":   &fstest.MapFile{Data: []byte("not a zip")},
	}))

	tests := []struct {
		name       string
		templateID string
		notFound   bool
	}{
		{"missing template", "template_ac_premium.docx", true},
		{"not a zip archive", "broken.docx", false},
		{"unclosed loop", "unclosed.docx", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMapping()
			m.TemplateID = tt.templateID

			_, err := r.Render(context.Background(), m)
			var rerr *RendererError
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *RendererError", err)
			}
			if rerr.TemplateID != tt.templateID || rerr.ServiceType != "OTHER" {
				t.Errorf("RendererError = %+v", rerr)
			}
			if !errors.Is(err, ErrRendererFailure) {
				t.Error("errors.Is(err, ErrRendererFailure) = false")
			}
			if got := errors.Is(err, ErrTemplateNotFound); got != tt.notFound {
				t.Errorf("errors.Is(err, ErrTemplateNotFound) = %v, want %v", got, tt.notFound)
			}
		})
	}
}

func TestDocxRenderer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testRenderer(t).Render(ctx, testMapping())
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestDocxRenderer_SplitRunTags(t *testing.T) {
	docx := buildDocx(t, map[string]string{
		"word/document.xml": `<w:document><w:body>` +
			`<w:p><w:r><w:t>Cliente: {client_</w:t></w:r><w:r><w:rPr><w:b/></w:rPr><w:t>name} - fim</w:t></w:r></w:p>` +
			`<w:p w:rsidR="00A1"><w:r><w:t>{co</w:t></w:r><w:r><w:t>d</w:t></w:r><w:r><w:t xml:space="preserve">e}</w:t></w:r></w:p>` +
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>{#install</w:t></w:r><w:r><w:t>ments}{index}</w:t></w:r></w:p></w:tc>` +
			`<w:tc><w:p><w:r><w:t>{value}{/</w:t></w:r><w:r><w:t>installments}</w:t></w:r></w:p></w:tc></w:tr></w:tbl>` +
			`</w:body></w:document>`,
	})
	r := NewDocxRenderer(NewFSTemplateStore(fstest.MapFS{"t.docx": &fstest.MapFile{Data: docx}}))

	m := testMapping()
	m.TemplateID = "t.docx"
	m.Fields.Set("client_name", "ACME")

	out, err := r.Render(context.Background(), m)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := readDocxPart(t, out, "word/document.xml")

	for _, want := range []string{
		`<w:t>Cliente: ACME</w:t>`,
		`<w:rPr><w:b/></w:rPr><w:t> - fim</w:t>`,
		`<w:t>202601OTHER90</w:t>`,
		`>01/2<`,
		`>02/2<`,
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q: %s", want, doc)
		}
	}
	if n := strings.Count(doc, "<w:tr>"); n != 2 {
		t.Errorf("got %d table rows, want 2 installments", n)
	}
	if strings.Contains(doc, "{") || strings.Contains(doc, "installments") {
		t.Errorf("split tags left in document: %s", doc)
	}
}

func TestDocxRenderer_SplitBracesThatAreNotTags(t *testing.T) {
	docx := buildDocx(t, map[string]string{
		"word/document.xml": `<w:p><w:r><w:t>a {x</w:t></w:r><w:r><w:t>y z} b</w:t></w:r></w:p>`,
	})
	r := NewDocxRenderer(NewFSTemplateStore(fstest.MapFS{"t.docx": &fstest.MapFile{Data: docx}}))

	m := testMapping()
	m.TemplateID = "t.docx"

	out, err := r.Render(context.Background(), m)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	doc := readDocxPart(t, out, "word/document.xml")
	if want := `<w:t>a {x</w:t></w:r><w:r><w:t>y z} b</w:t>`; !strings.Contains(doc, want) {
		t.Errorf("document = %s, want runs untouched", doc)
	}
}
