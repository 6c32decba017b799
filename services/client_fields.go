package services

// TemplateField describes one column in the client import workbook.
type TemplateField struct {
	Key          string // internal name, matches the PocketBase field name
	Label        string // header shown in Excel
	Description  string // shown on the Instructions sheet
	FormatRule   string
	ExampleValue string
	Required     bool
}

// ClientTemplateFields returns the ordered columns of the client import
// template.
func ClientTemplateFields() []TemplateField {
	return []TemplateField{
		{Key: "name", Label: "Razão Social", Description: "Nome do cliente ou condomínio", ExampleValue: "Condomínio Edifício Atlântico", Required: true},
		{Key: "cnpj", Label: "CNPJ", Description: "CNPJ com ou sem pontuação", FormatRule: "14 dígitos com dígitos verificadores válidos", ExampleValue: "11.222.333/0001-81"},
		{Key: "contact_name", Label: "Contato", Description: "Pessoa de contato", ExampleValue: "Ana Souza"},
		{Key: "email", Label: "E-mail", Description: "E-mail do contato", FormatRule: "E-mail válido", ExampleValue: "ana@exemplo.com.br"},
		{Key: "phone", Label: "Telefone", Description: "Telefone com DDD", FormatRule: "10 ou 11 dígitos com DDD", ExampleValue: "(83) 99876-5432"},
		{Key: "address", Label: "Endereço", Description: "Endereço completo", ExampleValue: "Av. Cabo Branco, 2000, João Pessoa - PB"},
	}
}

// clientFieldKeys returns the keys of ClientTemplateFields.
func clientFieldKeys() []string {
	fields := ClientTemplateFields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = f.Key
	}
	return keys
}
