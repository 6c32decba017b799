package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Renderer produces a finished document from a merge mapping.
type Renderer interface {
	Render(ctx context.Context, m *MergeMapping) ([]byte, error)
}

// DocxRenderer merges mappings into Word templates. Scalar tags are written
// as {name}; repeated rows as {#name}…{/name}. When both loop markers sit in
// the same table row the whole row is repeated, otherwise the text between
// the markers is.
type DocxRenderer struct {
	store TemplateStore
}

// NewDocxRenderer returns a renderer reading templates from store.
func NewDocxRenderer(store TemplateStore) *DocxRenderer {
	return &DocxRenderer{store: store}
}

var braceEscaper = strings.NewReplacer("{", "&#123;", "}", "&#125;")

var (
	scalarTagRe = regexp.MustCompile(`\{([\p{L}\p{N}_.\-]+)\}`)
	loopOpenRe  = regexp.MustCompile(`\{#([\p{L}\p{N}_.\-]+)\}`)
	wholeTagRe  = regexp.MustCompile(`^\{[#/]?[\p{L}\p{N}_.\-]+\}$`)
	paragraphRe = regexp.MustCompile(`(?s)<w:p(?:\s[^>]*)?>.*?</w:p>`)
	textNodeRe  = regexp.MustCompile(`(?s)<w:t(?:\s[^>]*)?>(.*?)</w:t>`)
)

// Render loads the mapping's template, merges every document part and
// returns the re-packed archive. Any failure is a *RendererError.
func (r *DocxRenderer) Render(ctx context.Context, m *MergeMapping) ([]byte, error) {
	fail := func(err error) error {
		return &RendererError{ServiceType: m.ServiceType, TemplateID: m.TemplateID, Err: err}
	}

	tpl, err := r.store.Open(ctx, m.TemplateID)
	if err != nil {
		return nil, fail(err)
	}

	zr, err := zip.NewReader(bytes.NewReader(tpl), int64(len(tpl)))
	if err != nil {
		return nil, fail(fmt.Errorf("open docx archive: %w", err))
	}

	var out bytes.Buffer
	zw := zip.NewWriter(&out)
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, fail(err)
		}
		if !isMergePart(f.Name) {
			if err := zw.Copy(f); err != nil {
				return nil, fail(fmt.Errorf("copy %s: %w", f.Name, err))
			}
			continue
		}

		content, err := readZipFile(f)
		if err != nil {
			return nil, fail(err)
		}
		merged, err := mergeXML(content, m.Fields)
		if err != nil {
			return nil, fail(fmt.Errorf("%s: %w", f.Name, err))
		}
		w, err := zw.CreateHeader(&zip.FileHeader{Name: f.Name, Method: zip.Deflate, Modified: f.Modified})
		if err != nil {
			return nil, fail(fmt.Errorf("create %s: %w", f.Name, err))
		}
		if _, err := io.WriteString(w, merged); err != nil {
			return nil, fail(fmt.Errorf("write %s: %w", f.Name, err))
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fail(fmt.Errorf("close archive: %w", err))
	}
	return out.Bytes(), nil
}

// isMergePart reports whether a package part may contain merge tags.
func isMergePart(name string) bool {
	if name == "word/document.xml" {
		return true
	}
	if !strings.HasPrefix(name, "word/") || !strings.HasSuffix(name, ".xml") {
		return false
	}
	base := strings.TrimPrefix(name, "word/")
	return strings.HasPrefix(base, "header") || strings.HasPrefix(base, "footer")
}

func readZipFile(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", f.Name, err)
	}
	return string(b), nil
}

// mergeXML expands loops first, then substitutes the remaining scalar tags.
func mergeXML(content string, fields *Fields) (string, error) {
	content = joinSplitTags(content)
	for {
		loc := loopOpenRe.FindStringSubmatchIndex(content)
		if loc == nil {
			break
		}
		name := content[loc[2]:loc[3]]
		expanded, err := expandLoop(content, loc[0], loc[1], name, fields)
		if err != nil {
			return "", err
		}
		content = expanded
	}

	lookup := func(name string) (string, bool) { return scalarValue(fields, name) }
	return substituteTags(content, lookup), nil
}

// joinSplitTags moves every tag that Word split over several text runs of
// one paragraph into the run where the tag opens. Formatting of the later
// runs is kept; only their share of the tag text is removed.
func joinSplitTags(content string) string {
	return paragraphRe.ReplaceAllStringFunc(content, joinParagraphTags)
}

func joinParagraphTags(p string) string {
	locs := textNodeRe.FindAllStringSubmatchIndex(p, -1)
	if len(locs) < 2 {
		return p
	}
	texts := make([]string, len(locs))
	for i, l := range locs {
		texts[i] = p[l[2]:l[3]]
	}

	changed := false
	for i := 0; i < len(texts)-1; i++ {
		open := strings.LastIndex(texts[i], "{")
		if open < 0 || strings.Contains(texts[i][open:], "}") {
			continue
		}
		tag := texts[i][open:]
		for j := i + 1; j < len(texts); j++ {
			end := strings.Index(texts[j], "}")
			if end < 0 {
				tag += texts[j]
				continue
			}
			tag += texts[j][:end+1]
			if !wholeTagRe.MatchString(tag) {
				break
			}
			texts[i] = texts[i][:open] + tag
			for k := i + 1; k < j; k++ {
				texts[k] = ""
			}
			texts[j] = texts[j][end+1:]
			changed = true
			i = j - 1
			break
		}
	}
	if !changed {
		return p
	}

	var b strings.Builder
	prev := 0
	for i, l := range locs {
		b.WriteString(p[prev:l[2]])
		b.WriteString(texts[i])
		prev = l[3]
	}
	b.WriteString(p[prev:])
	return b.String()
}

// expandLoop replaces one {#name}…{/name} block starting at open.
func expandLoop(content string, open, openEnd int, name string, fields *Fields) (string, error) {
	closeTag := "{/" + name + "}"
	rel := strings.Index(content[openEnd:], closeTag)
	if rel < 0 {
		return "", fmt.Errorf("unclosed loop {#%s}", name)
	}
	closeStart := openEnd + rel
	closeEnd := closeStart + len(closeTag)

	rows := loopRows(fields, name)

	// Repeat the whole table row when both markers live in the same one.
	if rowStart, rowEnd, ok := enclosingRow(content, open, closeEnd); ok {
		row := content[rowStart:rowEnd]
		row = strings.Replace(row, "{#"+name+"}", "", 1)
		row = strings.Replace(row, closeTag, "", 1)

		var b strings.Builder
		for _, item := range rows {
			b.WriteString(substituteTags(row, rowLookup(item, fields)))
		}
		return content[:rowStart] + b.String() + content[rowEnd:], nil
	}

	inner := content[openEnd:closeStart]
	var b strings.Builder
	for _, item := range rows {
		b.WriteString(substituteTags(inner, rowLookup(item, fields)))
	}
	return content[:open] + b.String() + content[closeEnd:], nil
}

// enclosingRow finds the <w:tr> element containing both [from, to).
func enclosingRow(content string, from, to int) (int, int, bool) {
	start := lastRowOpen(content[:from])
	if start < 0 {
		return 0, 0, false
	}
	// A row closing between the row start and the open marker means the
	// marker is not inside that row.
	if strings.Contains(content[start:from], "</w:tr>") {
		return 0, 0, false
	}
	rel := strings.Index(content[to:], "</w:tr>")
	if rel < 0 {
		return 0, 0, false
	}
	end := to + rel + len("</w:tr>")
	if lastRowOpen(content[from:to]) >= 0 || strings.Contains(content[from:to], "</w:tr>") {
		return 0, 0, false
	}
	return start, end, true
}

func lastRowOpen(s string) int {
	i := max(strings.LastIndex(s, "<w:tr>"), strings.LastIndex(s, "<w:tr "))
	return i
}

// loopRows returns the tag maps of a loop value. Unknown or non-table values
// produce no rows.
func loopRows(fields *Fields, name string) []map[string]string {
	v, ok := fields.Get(name)
	if !ok {
		return nil
	}
	switch rows := v.(type) {
	case []MergeRow:
		out := make([]map[string]string, len(rows))
		for i, r := range rows {
			out[i] = r.Tags()
		}
		return out
	case []map[string]string:
		return rows
	}
	return nil
}

func rowLookup(item map[string]string, fields *Fields) func(string) (string, bool) {
	return func(name string) (string, bool) {
		if v, ok := item[name]; ok {
			return v, true
		}
		return scalarValue(fields, name)
	}
}

// scalarValue renders a top-level field; tables are not scalars.
func scalarValue(fields *Fields, name string) (string, bool) {
	v, ok := fields.Get(name)
	if !ok {
		return "", false
	}
	switch v.(type) {
	case []MergeRow, []map[string]string:
		return "", false
	}
	return FieldString(v), true
}

// substituteTags replaces {name} tags; unknown tags render empty. Values are
// XML-escaped, braces become character references so merged text is never
// read as a tag, and newlines become Word line breaks.
func substituteTags(content string, lookup func(string) (string, bool)) string {
	return scalarTagRe.ReplaceAllStringFunc(content, func(tag string) string {
		name := tag[1 : len(tag)-1]
		v, _ := lookup(name)
		return escapeRunText(v)
	})
}

func escapeRunText(s string) string {
	var b bytes.Buffer
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if i > 0 {
			b.WriteString(`</w:t><w:br/><w:t xml:space="preserve">`)
		}
		_ = xml.EscapeText(&b, []byte(line))
	}
	return braceEscaper.Replace(b.String())
}
