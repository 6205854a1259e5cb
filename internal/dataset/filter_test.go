package dataset

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharescope/pkg/contracts/domain"
)

func sampleSet() *domain.RecordSet {
	return &domain.RecordSet{
		Source:    "market.xlsx",
		SheetName: "Data Collection",
		Columns:   []string{domain.ColIndustry, domain.ColInstrumentType, domain.ColManufacturer, domain.ColAge},
		Records: []domain.Record{
			{Industry: "Pharma", InstrumentType: "HPLC", Manufacturer: "Agilent", Age: "0-5 Years"},
			{Industry: "Pharma", InstrumentType: "GC", Manufacturer: "Shimadzu", Age: "5-10 Years"},
			{Industry: "Food", InstrumentType: "HPLC", Manufacturer: "Waters", Age: "0-5 Years"},
			{Industry: "Environmental", InstrumentType: "ICP-MS", Manufacturer: "Agilent", Age: "10+ Years"},
			{Industry: "Food", InstrumentType: "GC", Manufacturer: "Agilent", Age: domain.UnknownValue},
		},
		LoadedAt: time.Now(),
	}
}

func TestApply_NoSelectionReturnsAll(t *testing.T) {
	set := sampleSet()

	got := Apply(set, nil)
	assert.Len(t, got, 5)

	got = Apply(set, Selection{})
	assert.Len(t, got, 5)

	got = Apply(set, Selection{domain.ColIndustry: {}})
	assert.Len(t, got, 5)
}

func TestApply_SingleColumn(t *testing.T) {
	got := Apply(sampleSet(), Selection{
		domain.ColIndustry: {"Pharma"},
	})

	require.Len(t, got, 2)
	for _, r := range got {
		assert.Equal(t, "Pharma", r.Industry)
	}
}

func TestApply_MultipleValuesAreAlternatives(t *testing.T) {
	got := Apply(sampleSet(), Selection{
		domain.ColIndustry: {"Pharma", "Food"},
	})

	assert.Len(t, got, 4)
}

func TestApply_ColumnsAreConjunctive(t *testing.T) {
	// Three records, two constrained columns. Only the record matching
	// both constraints survives.
	set := &domain.RecordSet{
		Columns: []string{domain.ColIndustry, domain.ColInstrumentType, domain.ColManufacturer, domain.ColAge},
		Records: []domain.Record{
			{Industry: "Pharma", InstrumentType: "HPLC", Manufacturer: "Agilent", Age: "0-5 Years"},
			{Industry: "Pharma", InstrumentType: "GC", Manufacturer: "Shimadzu", Age: "5-10 Years"},
			{Industry: "Food", InstrumentType: "HPLC", Manufacturer: "Waters", Age: "0-5 Years"},
		},
	}

	got := Apply(set, Selection{
		domain.ColIndustry: {"Pharma"},
		domain.ColAge:      {"0-5 Years"},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Pharma", got[0].Industry)
	assert.Equal(t, "0-5 Years", got[0].Age)
	assert.Equal(t, "Agilent", got[0].Manufacturer)
}

func TestApply_Idempotent(t *testing.T) {
	set := sampleSet()
	sel := Selection{
		domain.ColIndustry: {"Pharma", "Food"},
		domain.ColAge:      {"0-5 Years"},
	}

	once := Apply(set, sel)
	again := Apply(&domain.RecordSet{Columns: set.Columns, Records: once}, sel)

	assert.Equal(t, once, again)
}

func TestApply_UnknownIsSelectable(t *testing.T) {
	got := Apply(sampleSet(), Selection{
		domain.ColAge: {domain.UnknownValue},
	})

	require.Len(t, got, 1)
	assert.Equal(t, "Food", got[0].Industry)
}

func TestApply_NoMatches(t *testing.T) {
	got := Apply(sampleSet(), Selection{
		domain.ColIndustry:     {"Pharma"},
		domain.ColManufacturer: {"Waters"},
	})

	assert.Empty(t, got)
	assert.NotNil(t, got)
}

func TestSelection_Normalize(t *testing.T) {
	sel := Selection{
		domain.ColIndustry: {"Pharma", ""},
		domain.ColAge:      {},
		"Bogus Column":     {"x"},
	}

	norm := sel.Normalize()

	assert.Equal(t, Selection{domain.ColIndustry: {"Pharma"}}, norm)
}

func TestSelection_IsEmpty(t *testing.T) {
	assert.True(t, Selection{}.IsEmpty())
	assert.True(t, Selection{domain.ColAge: {}}.IsEmpty())
	assert.False(t, Selection{domain.ColAge: {"0-5 Years"}}.IsEmpty())
}

func TestOptions(t *testing.T) {
	opts := Options(sampleSet())

	assert.Equal(t, []string{"Environmental", "Food", "Pharma"}, opts[domain.ColIndustry])
	assert.Equal(t, []string{"GC", "HPLC", "ICP-MS"}, opts[domain.ColInstrumentType])
	assert.Equal(t, []string{"Agilent", "Shimadzu", "Waters"}, opts[domain.ColManufacturer])
	assert.Equal(t, []string{"0-5 Years", "10+ Years", "5-10 Years", domain.UnknownValue}, opts[domain.ColAge])
}

func TestOptions_NilSet(t *testing.T) {
	opts := Options(nil)

	for _, col := range domain.FilterColumns {
		assert.Empty(t, opts[col])
	}
}

func TestDistinctValues_MissingColumn(t *testing.T) {
	set := &domain.RecordSet{
		Columns: []string{domain.ColIndustry},
		Records: []domain.Record{{Industry: "Pharma"}},
	}

	assert.Empty(t, DistinctValues(set, domain.ColManufacturer))
}
