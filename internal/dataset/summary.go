package dataset

import (
	"sort"

	"github.com/montanaflynn/stats"

	"sharescope/pkg/contracts/domain"
)

// KPI holds the headline counters shown above the charts.
type KPI struct {
	Records         int `json:"records"`
	Industries      int `json:"industries"`
	InstrumentTypes int `json:"instrument_types"`
	Manufacturers   int `json:"manufacturers"`
}

// GroupCount is one row of a per-column frequency table.
type GroupCount struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
}

// BreakdownSeries holds the per-group counts for one value of the
// broken-down column. Counts is keyed by group (Industry) name.
type BreakdownSeries struct {
	Value  string         `json:"value"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// Breakdown is a cross-tabulation of a column against Industry, shaped
// for a grouped bar chart: Groups are the bar clusters, Series the bars
// within each cluster.
type Breakdown struct {
	Column string            `json:"column"`
	Groups []string          `json:"groups"`
	Series []BreakdownSeries `json:"series"`
}

// Concentration summarizes how share is distributed across the groups
// of a frequency table.
type Concentration struct {
	MeanShare   float64 `json:"mean_share"`
	MedianShare float64 `json:"median_share"`
	MaxShare    float64 `json:"max_share"`
	Groups      int     `json:"groups"`
}

// Summarize computes the KPI counters over the given records.
func Summarize(records []domain.Record) KPI {
	return KPI{
		Records:         len(records),
		Industries:      distinctCount(records, domain.ColIndustry),
		InstrumentTypes: distinctCount(records, domain.ColInstrumentType),
		Manufacturers:   distinctCount(records, domain.ColManufacturer),
	}
}

// GroupCounts returns the frequency table of one column over the records,
// sorted by descending count with ties broken alphabetically. Share is
// the fraction of all records carrying each value.
func GroupCounts(records []domain.Record, column string) []GroupCount {
	counts := make(map[string]int)
	for _, r := range records {
		v := r.Value(column)
		if v == "" {
			continue
		}
		counts[v]++
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	out := make([]GroupCount, 0, len(counts))
	for v, c := range counts {
		share := 0.0
		if total > 0 {
			share = float64(c) / float64(total)
		}
		out = append(out, GroupCount{Value: v, Count: c, Share: share})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value < out[j].Value
	})

	return out
}

// BreakdownByIndustry cross-tabulates a column against Industry. Groups
// are sorted alphabetically, series by descending total.
func BreakdownByIndustry(records []domain.Record, column string) Breakdown {
	groupSet := make(map[string]struct{})
	cells := make(map[string]map[string]int)

	for _, r := range records {
		group := r.Value(domain.ColIndustry)
		value := r.Value(column)
		if group == "" || value == "" {
			continue
		}
		groupSet[group] = struct{}{}
		if cells[value] == nil {
			cells[value] = make(map[string]int)
		}
		cells[value][group]++
	}

	groups := make([]string, 0, len(groupSet))
	for g := range groupSet {
		groups = append(groups, g)
	}
	sort.Strings(groups)

	series := make([]BreakdownSeries, 0, len(cells))
	for value, counts := range cells {
		total := 0
		for _, c := range counts {
			total += c
		}
		series = append(series, BreakdownSeries{Value: value, Counts: counts, Total: total})
	}

	sort.Slice(series, func(i, j int) bool {
		if series[i].Total != series[j].Total {
			return series[i].Total > series[j].Total
		}
		return series[i].Value < series[j].Value
	})

	return Breakdown{Column: column, Groups: groups, Series: series}
}

// Concentrate computes share-distribution statistics over a frequency
// table. An empty table yields the zero value.
func Concentrate(counts []GroupCount) Concentration {
	if len(counts) == 0 {
		return Concentration{}
	}

	shares := make([]float64, len(counts))
	for i, gc := range counts {
		shares[i] = gc.Share
	}

	mean, _ := stats.Mean(shares)
	median, _ := stats.Median(shares)
	max, _ := stats.Max(shares)

	return Concentration{
		MeanShare:   mean,
		MedianShare: median,
		MaxShare:    max,
		Groups:      len(counts),
	}
}

func distinctCount(records []domain.Record, column string) int {
	seen := make(map[string]struct{})
	for _, r := range records {
		v := r.Value(column)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
