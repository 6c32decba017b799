package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/xuri/excelize/v2"

	"proposalgen/logx"
)

const importBatchSize = 100

// ValidationError represents a single field-level error on one row.
type ValidationError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult is returned after parsing and validating an uploaded file.
type ValidationResult struct {
	TotalRows  int                 `json:"total_rows"`
	ValidRows  int                 `json:"valid_rows"`
	ErrorRows  int                 `json:"error_rows"`
	Errors     []ValidationError   `json:"errors"`
	Unknown    []string            `json:"unknown_columns,omitempty"`
	ParsedRows []map[string]string `json:"-"`
}

// ImportResult holds the outcome of a batch import.
type ImportResult struct {
	TotalRows  int               `json:"total_rows"`
	Imported   int               `json:"imported"`
	Failed     int               `json:"failed"`
	Errors     []ValidationError `json:"errors,omitempty"`
	RolledBack bool              `json:"rolled_back"`
}

// parseCSV reads a CSV file and returns headers + data rows. Both comma and
// semicolon separated files are accepted.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV: %w", err)
	}
	reader := csv.NewReader(bytes.NewReader(raw))
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true
	if firstLine, _, _ := bytes.Cut(raw, []byte("\n")); bytes.Count(firstLine, []byte(";")) > bytes.Count(firstLine, []byte(",")) {
		reader.Comma = ';'
	}

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) < 2 {
		return nil, nil, fmt.Errorf("%w: file must contain a header row and at least one data row", ErrInvalidInput)
	}
	return allRows[0], allRows[1:], nil
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: failed to open Excel file: %v", ErrInvalidInput, err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: file must contain a header row and at least one data row", ErrInvalidInput)
	}
	return rows[0], rows[1:], nil
}

// mapHeadersToFields maps uploaded column headers to field keys by label or
// key. Returns the key per column ("" when unknown) and the unknown headers.
func mapHeadersToFields(headers []string, fields []TemplateField) ([]string, []string) {
	lookup := make(map[string]string, len(fields)*2)
	for _, f := range fields {
		lookup[strings.ToLower(f.Label)] = f.Key
		lookup[f.Key] = f.Key
	}

	mapped := make([]string, len(headers))
	var unknown []string
	for i, h := range headers {
		norm := strings.ToLower(strings.TrimSpace(h))
		// Strip the trailing " *" the template adds to required columns.
		norm = strings.TrimSpace(strings.TrimSuffix(norm, " *"))
		if key, ok := lookup[norm]; ok {
			mapped[i] = key
		} else {
			unknown = append(unknown, h)
		}
	}
	return mapped, unknown
}

// ValidateClientFile parses a .csv or .xlsx upload and validates every row.
// Names already on record are reported as duplicates when existing is non-nil.
func ValidateClientFile(file io.Reader, fileName string, existing map[string]bool) (*ValidationResult, error) {
	var headers []string
	var dataRows [][]string
	var err error

	lowerName := strings.ToLower(fileName)
	switch {
	case strings.HasSuffix(lowerName, ".csv"):
		headers, dataRows, err = parseCSV(file)
	case strings.HasSuffix(lowerName, ".xlsx"):
		headers, dataRows, err = parseExcel(file)
	default:
		return nil, fmt.Errorf("%w: unsupported file format, must be .csv or .xlsx", ErrInvalidInput)
	}
	if err != nil {
		return nil, err
	}

	fields := ClientTemplateFields()
	columnKeys, unknown := mapHeadersToFields(headers, fields)

	result := &ValidationResult{
		TotalRows:  len(dataRows),
		Unknown:    unknown,
		ParsedRows: rowsToMaps(columnKeys, dataRows),
	}
	result.Errors = validateClientRows(result.ParsedRows, existing)
	result.ErrorRows = countErrorRows(result.Errors)
	result.ValidRows = result.TotalRows - result.ErrorRows
	return result, nil
}

func rowsToMaps(columnKeys []string, dataRows [][]string) []map[string]string {
	out := make([]map[string]string, 0, len(dataRows))
	for _, row := range dataRows {
		rowData := make(map[string]string)
		for colIdx, key := range columnKeys {
			if key == "" {
				continue
			}
			value := ""
			if colIdx < len(row) {
				value = strings.TrimSpace(row[colIdx])
			}
			rowData[key] = value
		}
		out = append(out, rowData)
	}
	return out
}

// validateClientRows applies ValidateClientFields to each row and flags names
// repeated within the file or already on record. Row numbers are 1-indexed
// counting the header.
func validateClientRows(rows []map[string]string, existing map[string]bool) []ValidationError {
	labels := make(map[string]string)
	for _, f := range ClientTemplateFields() {
		labels[f.Key] = f.Label
	}

	var errs []ValidationError
	seen := make(map[string]int)
	for i, rowData := range rows {
		rowNum := i + 2
		fieldErrs := ValidateClientFields(rowData)
		for _, key := range clientFieldKeys() {
			if msg, ok := fieldErrs[key]; ok {
				errs = append(errs, ValidationError{Row: rowNum, Field: labels[key], Message: msg})
			}
		}

		name := strings.ToLower(strings.TrimSpace(rowData["name"]))
		if name == "" {
			continue
		}
		if first, dup := seen[name]; dup {
			errs = append(errs, ValidationError{
				Row:     rowNum,
				Field:   labels["name"],
				Message: fmt.Sprintf("Cliente repetido (linha %d)", first),
			})
		} else if existing[name] {
			errs = append(errs, ValidationError{Row: rowNum, Field: labels["name"], Message: "Cliente já cadastrado"})
		} else {
			seen[name] = rowNum
		}
	}
	return errs
}

func countErrorRows(errs []ValidationError) int {
	rows := make(map[int]bool)
	for _, e := range errs {
		rows[e.Row] = true
	}
	return len(rows)
}

// ExistingClientNames returns the lower-cased names of all stored clients.
func ExistingClientNames(app *pocketbase.PocketBase) (map[string]bool, error) {
	records, err := app.FindAllRecords("clients")
	if err != nil {
		return nil, fmt.Errorf("load clients: %w", err)
	}
	names := make(map[string]bool, len(records))
	for _, r := range records {
		names[strings.ToLower(strings.TrimSpace(r.GetString("name")))] = true
	}
	return names, nil
}

// CommitClientImport re-validates and inserts parsed client rows in chunks
// of importBatchSize. A failing row rolls back its whole chunk; later chunks
// are still attempted.
func CommitClientImport(app *pocketbase.PocketBase, parsedRows []map[string]string) (*ImportResult, error) {
	existing, err := ExistingClientNames(app)
	if err != nil {
		return nil, err
	}
	if errs := validateClientRows(parsedRows, existing); len(errs) > 0 {
		return &ImportResult{
			TotalRows:  len(parsedRows),
			Failed:     countErrorRows(errs),
			Errors:     errs,
			RolledBack: true,
		}, nil
	}

	col, err := app.FindCollectionByNameOrId("clients")
	if err != nil {
		return nil, fmt.Errorf("clients collection not found: %w", err)
	}

	result := &ImportResult{TotalRows: len(parsedRows)}
	for chunkStart := 0; chunkStart < len(parsedRows); chunkStart += importBatchSize {
		chunkEnd := min(chunkStart+importBatchSize, len(parsedRows))
		chunk := parsedRows[chunkStart:chunkEnd]

		if chunkErrs := insertClientChunk(app, col, chunk, chunkStart); len(chunkErrs) > 0 {
			result.Errors = append(result.Errors, chunkErrs...)
			result.Failed += len(chunk)
			result.RolledBack = true
		} else {
			result.Imported += len(chunk)
		}
	}
	return result, nil
}

// insertClientChunk inserts a batch of rows within one transaction.
func insertClientChunk(app *pocketbase.PocketBase, col *core.Collection, rows []map[string]string, startOffset int) []ValidationError {
	var chunkErrors []ValidationError

	err := app.RunInTransaction(func(txApp core.App) error {
		for i, rowData := range rows {
			rowNum := startOffset + i + 2

			record := core.NewRecord(col)
			for _, key := range clientFieldKeys() {
				if val := rowData[key]; val != "" {
					if key == "cnpj" {
						val = FormatCNPJ(val)
					}
					record.Set(key, val)
				}
			}
			if err := txApp.Save(record); err != nil {
				chunkErrors = append(chunkErrors, ValidationError{
					Row:     rowNum,
					Message: fmt.Sprintf("Failed to save: %s", err.Error()),
				})
				return fmt.Errorf("save failed at row %d: %w", rowNum, err)
			}
		}
		return nil
	})

	if err != nil {
		logx.Component("client_import").Warn().Err(err).Int("from_row", startOffset+2).
			Msg("chunk insert rolled back")
		if len(chunkErrors) == 0 {
			chunkErrors = append(chunkErrors, ValidationError{
				Row:     startOffset + 2,
				Message: fmt.Sprintf("Transaction failed: %s", err.Error()),
			})
		}
	}
	return chunkErrors
}

// GenerateErrorReport creates a downloadable .xlsx file from validation errors.
func GenerateErrorReport(errors []ValidationError) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Erros"
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	f.SetCellValue(sheet, "A1", "Linha")
	f.SetCellValue(sheet, "B1", "Campo")
	f.SetCellValue(sheet, "C1", "Erro")
	f.SetCellStyle(sheet, "A1", "C1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "B", 22)
	f.SetColWidth(sheet, "C", "C", 55)

	for i, e := range errors {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheet, "A"+row, e.Row)
		f.SetCellValue(sheet, "B"+row, sanitizeExcelCell(e.Field))
		f.SetCellValue(sheet, "C"+row, sanitizeExcelCell(e.Message))
	}

	return writeWorkbook(f)
}
