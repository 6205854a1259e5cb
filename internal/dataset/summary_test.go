package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharescope/pkg/contracts/domain"
)

func TestSummarize(t *testing.T) {
	kpi := Summarize(sampleSet().Records)

	assert.Equal(t, 5, kpi.Records)
	assert.Equal(t, 3, kpi.Industries)
	assert.Equal(t, 3, kpi.InstrumentTypes)
	assert.Equal(t, 3, kpi.Manufacturers)
}

func TestSummarize_Empty(t *testing.T) {
	kpi := Summarize(nil)

	assert.Equal(t, 0, kpi.Records)
	assert.Equal(t, 0, kpi.Industries)
	assert.Equal(t, 0, kpi.InstrumentTypes)
	assert.Equal(t, 0, kpi.Manufacturers)
}

func TestGroupCounts(t *testing.T) {
	counts := GroupCounts(sampleSet().Records, domain.ColManufacturer)

	require.Len(t, counts, 3)

	// Sorted by descending count, ties alphabetical
	assert.Equal(t, "Agilent", counts[0].Value)
	assert.Equal(t, 3, counts[0].Count)
	assert.InDelta(t, 0.6, counts[0].Share, 1e-9)

	assert.Equal(t, "Shimadzu", counts[1].Value)
	assert.Equal(t, 1, counts[1].Count)
	assert.Equal(t, "Waters", counts[2].Value)
	assert.Equal(t, 1, counts[2].Count)
}

func TestGroupCounts_SharesSumToOne(t *testing.T) {
	counts := GroupCounts(sampleSet().Records, domain.ColIndustry)

	sum := 0.0
	for _, gc := range counts {
		sum += gc.Share
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestGroupCounts_Empty(t *testing.T) {
	assert.Empty(t, GroupCounts(nil, domain.ColIndustry))
}

func TestBreakdownByIndustry(t *testing.T) {
	b := BreakdownByIndustry(sampleSet().Records, domain.ColInstrumentType)

	assert.Equal(t, domain.ColInstrumentType, b.Column)
	assert.Equal(t, []string{"Environmental", "Food", "Pharma"}, b.Groups)

	require.Len(t, b.Series, 3)

	// GC and HPLC each appear twice; alphabetical tie-break puts GC first
	assert.Equal(t, "GC", b.Series[0].Value)
	assert.Equal(t, 2, b.Series[0].Total)
	assert.Equal(t, map[string]int{"Pharma": 1, "Food": 1}, b.Series[0].Counts)

	assert.Equal(t, "HPLC", b.Series[1].Value)
	assert.Equal(t, 2, b.Series[1].Total)

	assert.Equal(t, "ICP-MS", b.Series[2].Value)
	assert.Equal(t, map[string]int{"Environmental": 1}, b.Series[2].Counts)
}

func TestConcentrate(t *testing.T) {
	counts := []GroupCount{
		{Value: "Agilent", Count: 3, Share: 0.6},
		{Value: "Shimadzu", Count: 1, Share: 0.2},
		{Value: "Waters", Count: 1, Share: 0.2},
	}

	c := Concentrate(counts)

	assert.Equal(t, 3, c.Groups)
	assert.InDelta(t, 1.0/3.0, c.MeanShare, 1e-9)
	assert.InDelta(t, 0.2, c.MedianShare, 1e-9)
	assert.InDelta(t, 0.6, c.MaxShare, 1e-9)
}

func TestConcentrate_Empty(t *testing.T) {
	c := Concentrate(nil)

	assert.Equal(t, Concentration{}, c)
}
