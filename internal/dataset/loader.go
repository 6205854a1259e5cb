package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "sharescope/internal/errors"
	"sharescope/pkg/contracts/domain"
)

// PreferredSheetName is the worksheet the loader looks for first. If the
// workbook does not contain it, the first sheet is used instead.
const PreferredSheetName = "Data Collection"

// headerAliases maps spreadsheet header variants to canonical column names.
var headerAliases = map[string]string{
	"Age of Product": domain.ColAge,
	"Model #":        domain.ColModel,
}

// dateLayouts are the formats tried when parsing the Date column.
// excelize returns formatted cell text, so the common display formats
// all need to be covered.
var dateLayouts = []string{
	"01-02-06",
	"1/2/06",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02",
	"2-Jan-06",
	"Jan-06",
}

// Loader parses market share workbooks into record sets.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a workbook loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With(slog.String("component", "dataset_loader"))}
}

// Load reads the workbook at path and returns the parsed record set.
// It returns a NOT_FOUND error when the file is missing, a PARSING error
// when the workbook cannot be read, and a SCHEMA error when required
// filter columns are absent.
func (l *Loader) Load(ctx context.Context, path string) (*domain.RecordSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("workbook " + filepath.Base(path))
		}
		return nil, apperrors.NewStorageError("cannot stat workbook", err).
			WithContext("path", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".xlsx" && ext != ".xlsm" {
		return nil, apperrors.NewAppValidationError("unsupported workbook format " + ext).
			WithContext("path", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to open workbook", err).
			WithContext("path", path)
	}
	defer f.Close()

	sheetName := pickSheet(f)
	if sheetName == "" {
		return nil, apperrors.NewParsingError("workbook contains no sheets", nil).
			WithContext("path", path)
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, apperrors.NewParsingError("failed to read sheet "+sheetName, err).
			WithContext("path", path)
	}

	if len(rows) == 0 {
		return nil, apperrors.NewSchemaError("sheet "+sheetName+" has no header row", nil).
			WithContext("sheet", sheetName)
	}

	columns, columnIndex := mapHeader(rows[0])

	if missing := missingFilterColumns(columnIndex); len(missing) > 0 {
		return nil, apperrors.NewSchemaError("workbook is missing required columns", nil).
			WithContext("missing", missing).
			WithContext("sheet", sheetName)
	}

	records := make([]domain.Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlankRow(row) {
			continue
		}
		records = append(records, buildRecord(row, columnIndex))
	}

	l.logger.InfoContext(ctx, "workbook loaded",
		slog.String("path", path),
		slog.String("sheet", sheetName),
		slog.Int("records", len(records)),
		slog.Int("columns", len(columns)),
	)

	return &domain.RecordSet{
		Source:    path,
		SheetName: sheetName,
		Columns:   columns,
		Records:   records,
		LoadedAt:  time.Now(),
	}, nil
}

// pickSheet returns the preferred sheet if present, otherwise the first
// sheet in the workbook.
func pickSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, name := range sheets {
		if name == PreferredSheetName {
			return name
		}
	}
	return sheets[0]
}

// mapHeader normalizes the header row, applying aliases, and returns the
// canonical columns in sheet order plus a column-to-index map.
func mapHeader(header []string) ([]string, map[string]int) {
	columns := make([]string, 0, len(header))
	index := make(map[string]int, len(header))

	for i, cell := range header {
		name := strings.TrimSpace(cell)
		if name == "" {
			continue
		}
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, dup := index[name]; dup {
			continue
		}
		columns = append(columns, name)
		index[name] = i
	}

	return columns, index
}

// missingFilterColumns returns the filter columns absent from the header.
func missingFilterColumns(index map[string]int) []string {
	var missing []string
	for _, col := range domain.FilterColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}

// isBlankRow reports whether every cell in the row is empty.
func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// buildRecord converts a sheet row into a Record, filling blank
// categorical cells with the Unknown placeholder.
func buildRecord(row []string, index map[string]int) domain.Record {
	return domain.Record{
		Industry:        categoricalCell(row, index, domain.ColIndustry),
		ParameterMethod: categoricalCell(row, index, domain.ColParameterMethod),
		InstrumentType:  categoricalCell(row, index, domain.ColInstrumentType),
		Manufacturer:    categoricalCell(row, index, domain.ColManufacturer),
		Age:             categoricalCell(row, index, domain.ColAge),
		Date:            dateCell(row, index),
		Office:          cell(row, index, domain.ColOffice),
		Rep:             cell(row, index, domain.ColRep),
		CustomerName:    cell(row, index, domain.ColCustomerName),
		Model:           cell(row, index, domain.ColModel),
	}
}

// cell returns the trimmed value at the column's index, or "" when the
// column is absent or the row is short.
func cell(row []string, index map[string]int, column string) string {
	i, ok := index[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// categoricalCell is like cell but maps blanks to the Unknown placeholder
// when the column exists in the sheet.
func categoricalCell(row []string, index map[string]int, column string) string {
	if _, ok := index[column]; !ok {
		return ""
	}
	v := cell(row, index, column)
	if v == "" {
		return domain.UnknownValue
	}
	return v
}

// dateCell parses the Date column, trying the known display layouts.
// Unparseable dates are dropped rather than failing the whole load.
func dateCell(row []string, index map[string]int) time.Time {
	raw := cell(row, index, domain.ColDate)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}
