package domain

import (
	"time"
)

// Canonical column names after header normalization. The loader renames
// spreadsheet variants ("Age of Product", "Model #") to these.
const (
	ColIndustry        = "Industry"
	ColParameterMethod = "Parameter/Method"
	ColInstrumentType  = "Instrument Type"
	ColManufacturer    = "Manufacturer"
	ColAge             = "Age"
	ColDate            = "Date"
	ColOffice          = "Office"
	ColRep             = "Rep"
	ColCustomerName    = "Customer Name"
	ColModel           = "Model"
)

// FilterColumns are the categorical columns exposed as sidebar filters,
// in display order.
var FilterColumns = []string{
	ColIndustry,
	ColInstrumentType,
	ColManufacturer,
	ColAge,
}

// CategoricalColumns are all columns treated as categorical attributes.
// Blank cells in these columns are normalized to UnknownValue at load time.
var CategoricalColumns = []string{
	ColIndustry,
	ColParameterMethod,
	ColInstrumentType,
	ColManufacturer,
	ColAge,
}

// UnknownValue is the placeholder for blank categorical cells.
const UnknownValue = "Unknown"

// Record is a single survey row from the market share workbook.
type Record struct {
	Industry        string    `json:"industry"`
	ParameterMethod string    `json:"parameter_method,omitempty"`
	InstrumentType  string    `json:"instrument_type"`
	Manufacturer    string    `json:"manufacturer"`
	Age             string    `json:"age"`
	Date            time.Time `json:"date,omitempty"`
	Office          string    `json:"office,omitempty"`
	Rep             string    `json:"rep,omitempty"`
	CustomerName    string    `json:"customer_name,omitempty"`
	Model           string    `json:"model,omitempty"`
}

// Value returns the record's value for a canonical column name.
// Non-categorical columns are returned as their display string.
func (r Record) Value(column string) string {
	switch column {
	case ColIndustry:
		return r.Industry
	case ColParameterMethod:
		return r.ParameterMethod
	case ColInstrumentType:
		return r.InstrumentType
	case ColManufacturer:
		return r.Manufacturer
	case ColAge:
		return r.Age
	case ColOffice:
		return r.Office
	case ColRep:
		return r.Rep
	case ColCustomerName:
		return r.CustomerName
	case ColModel:
		return r.Model
	case ColDate:
		if r.Date.IsZero() {
			return ""
		}
		return r.Date.Format("2006-01-02")
	}
	return ""
}

// RecordSet is the in-memory tabular data loaded from one workbook. It is
// owned by the active session and replaced wholesale when a new file is
// uploaded.
type RecordSet struct {
	// Source is the file path or upload name the set was loaded from.
	Source string `json:"source"`
	// SheetName is the worksheet the rows came from.
	SheetName string `json:"sheet_name"`
	// Columns are the canonical columns actually present in the sheet,
	// in sheet order.
	Columns []string `json:"columns"`
	// Records are the data rows.
	Records []Record `json:"records"`
	// LoadedAt is when the set was parsed.
	LoadedAt time.Time `json:"loaded_at"`
}

// HasColumn reports whether the loaded sheet contained the canonical column.
func (s *RecordSet) HasColumn(column string) bool {
	for _, c := range s.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Len returns the number of records in the set.
func (s *RecordSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Records)
}
