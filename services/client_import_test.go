package services

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestValidateClientFile_CSV(t *testing.T) {
	csv := "Razão Social *,CNPJ,E-mail,Observação\n" +
		"Prefeitura Municipal,11.222.333/0001-81,contato@pm.gov.br,x\n" +
		",11.222.333/0001-00,bad-email,y\n" +
		"prefeitura municipal,,,z\n"

	result, err := ValidateClientFile(strings.NewReader(csv), "clientes.csv", nil)
	if err != nil {
		t.Fatalf("ValidateClientFile() error = %v", err)
	}
	if result.TotalRows != 3 || result.ErrorRows != 2 || result.ValidRows != 1 {
		t.Errorf("rows total/error/valid = %d/%d/%d, want 3/2/1", result.TotalRows, result.ErrorRows, result.ValidRows)
	}
	if !slices.Equal(result.Unknown, []string{"Observação"}) {
		t.Errorf("Unknown = %v", result.Unknown)
	}

	var row3 []string
	dupFound := false
	for _, e := range result.Errors {
		if e.Row == 3 {
			row3 = append(row3, e.Field)
		}
		if e.Row == 4 && strings.Contains(e.Message, "linha 2") {
			dupFound = true
		}
	}
	slices.Sort(row3)
	if !slices.Equal(row3, []string{"CNPJ", "E-mail", "Razão Social"}) {
		t.Errorf("row 3 error fields = %v", row3)
	}
	if !dupFound {
		t.Errorf("duplicate name on row 4 not reported: %+v", result.Errors)
	}
	if got := result.ParsedRows[0]["cnpj"]; got != "11.222.333/0001-81" {
		t.Errorf("parsed cnpj = %q", got)
	}
}

func TestValidateClientFile_SemicolonCSVAndExisting(t *testing.T) {
	csv := "name;cnpj;phone\nCâmara Municipal;;(83) 3222-1100\nNova Empresa;11444777000161;\n"

	result, err := ValidateClientFile(strings.NewReader(csv), "CLIENTES.CSV", map[string]bool{"câmara municipal": true})
	if err != nil {
		t.Fatalf("ValidateClientFile() error = %v", err)
	}
	if len(result.Errors) != 1 || result.Errors[0].Row != 2 || result.Errors[0].Message != "Cliente já cadastrado" {
		t.Errorf("Errors = %+v", result.Errors)
	}
	if result.ParsedRows[1]["name"] != "Nova Empresa" {
		t.Errorf("ParsedRows = %v", result.ParsedRows)
	}
}

func TestValidateClientFile_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		fileName string
	}{
		{"unsupported extension", "a,b\n1,2\n", "clientes.txt"},
		{"header only", "Razão Social\n", "clientes.csv"},
		{"not an xlsx", "plain text", "clientes.xlsx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateClientFile(strings.NewReader(tt.content), tt.fileName, nil)
			if !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestValidateClientFile_FilledTemplate(t *testing.T) {
	tpl, err := GenerateClientTemplate()
	if err != nil {
		t.Fatalf("GenerateClientTemplate() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(tpl))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	f.SetSheetRow(clientSheetName, "A2", &[]any{"Condomínio Atlântico", "11.222.333/0001-81", "Ana", "ana@exemplo.com.br", "(83) 99876-5432", "Av. Cabo Branco, 2000"})
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	f.Close()

	result, err := ValidateClientFile(&buf, "modelo.xlsx", nil)
	if err != nil {
		t.Fatalf("ValidateClientFile() error = %v", err)
	}
	if result.TotalRows != 1 || result.ErrorRows != 0 || len(result.Unknown) != 0 {
		t.Errorf("result = %+v", result)
	}
	if got := result.ParsedRows[0]["email"]; got != "ana@exemplo.com.br" {
		t.Errorf("parsed email = %q", got)
	}
}

func TestGenerateClientTemplate(t *testing.T) {
	tpl, err := GenerateClientTemplate()
	if err != nil {
		t.Fatalf("GenerateClientTemplate() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(tpl))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	if v, _ := f.GetCellValue(clientSheetName, "A1"); v != "Razão Social *" {
		t.Errorf("A1 = %q, want required marker", v)
	}
	if v, _ := f.GetCellValue(clientSheetName, "B1"); v != "CNPJ" {
		t.Errorf("B1 = %q", v)
	}
	visible, err := f.GetSheetVisible(clientInstructionName)
	if err != nil {
		t.Fatalf("GetSheetVisible() error = %v", err)
	}
	if visible {
		t.Error("instructions sheet should be hidden")
	}
	if v, _ := f.GetCellValue(clientInstructionName, "B4"); v != "Obrigatório" {
		t.Errorf("instructions B4 = %q", v)
	}
}

func TestGenerateErrorReport(t *testing.T) {
	report, err := GenerateErrorReport([]ValidationError{
		{Row: 3, Field: "CNPJ", Message: "CNPJ inválido"},
		{Row: 5, Field: "E-mail", Message: "=cmd"},
	})
	if err != nil {
		t.Fatalf("GenerateErrorReport() error = %v", err)
	}
	f, err := excelize.OpenReader(bytesReader(report))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Erros")
	if err != nil {
		t.Fatalf("GetRows() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want header + 2", len(rows))
	}
	if rows[1][0] != "3" || rows[1][2] != "CNPJ inválido" {
		t.Errorf("row 2 = %v", rows[1])
	}
	if strings.HasPrefix(rows[2][2], "=") {
		t.Errorf("message written as formula: %q", rows[2][2])
	}
}

func TestColumnLetters(t *testing.T) {
	got := columnLetters(28)
	if got[0] != "A" || got[25] != "Z" || got[26] != "AA" || got[27] != "AB" {
		t.Errorf("columnLetters(28) = %v", got)
	}
}
