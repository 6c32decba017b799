package services

import (
	"fmt"
	"slices"
)

// SubVariant is a flavour of a service that ships its own template.
type SubVariant struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	TemplateID string `json:"template_id,omitempty"`
}

// ServiceDefinition describes one registered service code.
type ServiceDefinition struct {
	Code              string       `json:"code"`
	DisplayName       string       `json:"display_name"`
	Description       string       `json:"description"`
	DefaultTemplateID string       `json:"default_template_id"`
	SubVariants       []SubVariant `json:"sub_variants,omitempty"`
	// PricedByVolume services derive their price from pages and folders;
	// the rest take a manually entered total.
	PricedByVolume bool     `json:"priced_by_volume"`
	Fields         []string `json:"fields"`
}

// Catalog is a fixed registry of service definitions.
type Catalog struct {
	services map[string]ServiceDefinition
	order    []string
}

// NewCatalog builds a catalog from the given definitions. Codes must be
// unique and non-empty.
func NewCatalog(defs ...ServiceDefinition) (*Catalog, error) {
	c := &Catalog{services: make(map[string]ServiceDefinition, len(defs))}
	for _, def := range defs {
		if def.Code == "" {
			return nil, fmt.Errorf("catalog: service with empty code")
		}
		if _, dup := c.services[def.Code]; dup {
			return nil, fmt.Errorf("catalog: duplicate service code %q", def.Code)
		}
		def.SubVariants = slices.Clone(def.SubVariants)
		def.Fields = slices.Clone(def.Fields)
		c.services[def.Code] = def
		c.order = append(c.order, def.Code)
	}
	return c, nil
}

// DefaultCatalog returns the registered service lines.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(
		ServiceDefinition{
			Code:              "AC",
			DisplayName:       "Auditoria Condominial",
			Description:       "Auditoria de Prestação de Contas (NBC TA 800 + 4400).",
			DefaultTemplateID: "template_ac_premium.docx",
			PricedByVolume:    true,
			Fields:            []string{"pages", "folders", "start_date", "end_date"},
		},
		ServiceDefinition{
			Code:              "AUD",
			DisplayName:       "Auditoria (Geral)",
			Description:       "Auditorias contábeis e financeiras diversas.",
			DefaultTemplateID: "template_aud_generic.docx",
			SubVariants: []SubVariant{
				{ID: "NBC_TA_800", Label: "NBC TA 800 (Quadros Isolados)", TemplateID: "template_aud_800.docx"},
				{ID: "NBC_TA_200_700", Label: "NBC TA 200-700 (Demonstrações Completas)", TemplateID: "template_aud_200_700.docx"},
				{ID: "NBC_TSC_4400", Label: "NBC TSC 4400 (Procedimentos Acordados)", TemplateID: "template_tsc_4400.docx"},
			},
			Fields: []string{"framework", "scope_details", "start_date", "end_date"},
		},
		ServiceDefinition{
			Code:              "ATS",
			DisplayName:       "Auditoria Terceiro Setor",
			Description:       "ONGs, Fundações e Associações.",
			DefaultTemplateID: "template_ats.docx",
			Fields:            []string{"project_name", "grant_value", "start_date"},
		},
		ServiceDefinition{
			Code:              "CON",
			DisplayName:       "Consultoria & Valuation",
			Description:       "Consultoria Financeira, Valuation, BPO.",
			DefaultTemplateID: "template_consultoria.docx",
			Fields:            []string{"consultancy_type", "hours_estimated", "consultant_name"},
		},
		ServiceDefinition{
			Code:              "INV",
			DisplayName:       "Inventário",
			Description:       "Contagem e avaliação de estoques/ativos.",
			DefaultTemplateID: "template_inventario.docx",
			Fields:            []string{"location", "category", "team_size"},
		},
		ServiceDefinition{
			Code:              "OTHER",
			DisplayName:       "Outros Serviços",
			Description:       "Personalizado / Novos Modelos.",
			DefaultTemplateID: "template_generic.docx",
			Fields:            []string{"custom_title", "custom_scope"},
		},
	)
	if err != nil {
		panic(err)
	}
	return c
}

// Lookup returns the definition registered under code.
func (c *Catalog) Lookup(code string) (ServiceDefinition, error) {
	def, ok := c.services[code]
	if !ok {
		return ServiceDefinition{}, fmt.Errorf("%w: %q", ErrUnknownServiceType, code)
	}
	return def, nil
}

// Services returns the definitions in registration order.
func (c *Catalog) Services() []ServiceDefinition {
	out := make([]ServiceDefinition, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.services[code])
	}
	return out
}

// ResolveTemplate picks the template for a service and optional sub-type.
// A sub-type that matches no sub-variant, or one without its own template,
// falls back to the service default instead of failing.
func (c *Catalog) ResolveTemplate(serviceType, subType string) (string, error) {
	def, err := c.Lookup(serviceType)
	if err != nil {
		return "", err
	}
	if subType != "" {
		for _, sv := range def.SubVariants {
			if sv.ID == subType && sv.TemplateID != "" {
				return sv.TemplateID, nil
			}
		}
	}
	return def.DefaultTemplateID, nil
}

// TemplateIDs lists every template the catalog can resolve to, defaults first.
func (c *Catalog) TemplateIDs() []string {
	var ids []string
	seen := map[string]bool{}
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, code := range c.order {
		add(c.services[code].DefaultTemplateID)
	}
	for _, code := range c.order {
		for _, sv := range c.services[code].SubVariants {
			add(sv.TemplateID)
		}
	}
	return ids
}
