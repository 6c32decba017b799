package services

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// ErrTemplateNotFound is returned when a template id has no stored file.
var ErrTemplateNotFound = errors.New("template not found")

// TemplateStore loads binary document templates by id.
type TemplateStore interface {
	Open(ctx context.Context, templateID string) ([]byte, error)
}

// DirTemplateStore serves templates from a flat directory of .docx files.
type DirTemplateStore struct {
	dir  string
	fsys fs.FS
}

// NewDirTemplateStore returns a store rooted at dir.
func NewDirTemplateStore(dir string) *DirTemplateStore {
	return &DirTemplateStore{dir: dir, fsys: os.DirFS(dir)}
}

// NewFSTemplateStore returns a read-only store over fsys.
func NewFSTemplateStore(fsys fs.FS) *DirTemplateStore {
	return &DirTemplateStore{fsys: fsys}
}

func validTemplateID(id string) error {
	if id == "" || !fs.ValidPath(id) || strings.Contains(id, "/") || path.Ext(id) != ".docx" {
		return fmt.Errorf("invalid template id %q", id)
	}
	return nil
}

// Open reads the template file named templateID.
func (s *DirTemplateStore) Open(ctx context.Context, templateID string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := validTemplateID(templateID); err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(s.fsys, templateID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, templateID)
		}
		return nil, fmt.Errorf("read template %s: %w", templateID, err)
	}
	return data, nil
}

// List returns the stored template ids in name order.
func (s *DirTemplateStore) List() ([]string, error) {
	entries, err := fs.ReadDir(s.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".docx" {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Save writes a template under templateID, replacing any existing file.
func (s *DirTemplateStore) Save(templateID string, data []byte) error {
	if s.dir == "" {
		return fmt.Errorf("template store is read-only")
	}
	if err := validTemplateID(templateID); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create template dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, templateID), data, 0o644); err != nil {
		return fmt.Errorf("write template %s: %w", templateID, err)
	}
	return nil
}

// templateAliases maps tagged source documents to their canonical ids.
var templateAliases = []struct {
	contains string
	id       string
}{
	{"template_AC_202601AC5", "template_ac_premium.docx"},
	{"template_AUD_202404AUD01", "template_aud_generic.docx"},
	{"template_PPA_PPA", "template_tsc_4400.docx"},
	{"template_CON_202601CS1", "template_consultoria.docx"},
	{"template_ATS_202407ATS1", "template_ats.docx"},
}

// CanonicalTemplateName returns the id a tagged source document is stored
// under. Files without an alias keep their own name.
func CanonicalTemplateName(fileName string) string {
	for _, a := range templateAliases {
		if strings.Contains(fileName, a.contains) {
			return a.id
		}
	}
	return fileName
}

// ImportedTemplate records one file copied by ImportTemplates.
type ImportedTemplate struct {
	Source string
	ID     string
	Err    error
}

// ImportTemplates copies every .docx in srcDir into the store under its
// canonical name. A failing file is reported in its result and does not stop
// the others.
func ImportTemplates(srcDir string, store *DirTemplateStore) ([]ImportedTemplate, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}

	var results []ImportedTemplate
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".docx" {
			continue
		}
		res := ImportedTemplate{Source: e.Name(), ID: CanonicalTemplateName(e.Name())}
		data, err := os.ReadFile(filepath.Join(srcDir, e.Name()))
		if err != nil {
			res.Err = fmt.Errorf("read %s: %w", e.Name(), err)
		} else {
			res.Err = store.Save(res.ID, data)
		}
		results = append(results, res)
	}
	return results, nil
}
