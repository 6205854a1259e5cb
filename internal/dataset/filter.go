package dataset

import (
	"sort"
	"strings"

	"sharescope/pkg/contracts/domain"
)

// Selection maps a filter column to the values chosen for it. A column
// absent from the map, or mapped to an empty slice, places no constraint
// on that column.
type Selection map[string][]string

// Normalize drops unknown columns and empty value lists so that two
// equivalent selections compare equal.
func (s Selection) Normalize() Selection {
	if len(s) == 0 {
		return Selection{}
	}
	out := make(Selection, len(s))
	for _, col := range domain.FilterColumns {
		values := s[col]
		if len(values) == 0 {
			continue
		}
		kept := make([]string, 0, len(values))
		for _, v := range values {
			if strings.TrimSpace(v) != "" {
				kept = append(kept, v)
			}
		}
		if len(kept) > 0 {
			out[col] = kept
		}
	}
	return out
}

// IsEmpty reports whether the selection places no constraints.
func (s Selection) IsEmpty() bool {
	for _, values := range s {
		if len(values) > 0 {
			return false
		}
	}
	return true
}

// Matches reports whether the record satisfies every constrained column.
// Within a column the chosen values are alternatives; across columns the
// constraints are conjunctive.
func (s Selection) Matches(r domain.Record) bool {
	for column, values := range s {
		if len(values) == 0 {
			continue
		}
		matched := false
		v := r.Value(column)
		for _, want := range values {
			if v == want {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// Apply returns the records satisfying the selection, preserving input
// order. The result shares no backing array with the input set.
func Apply(set *domain.RecordSet, sel Selection) []domain.Record {
	if set == nil {
		return nil
	}
	sel = sel.Normalize()

	out := make([]domain.Record, 0, len(set.Records))
	for _, r := range set.Records {
		if sel.Matches(r) {
			out = append(out, r)
		}
	}
	return out
}

// Options returns the distinct values per filter column, sorted
// alphabetically, computed over the full record set. Columns missing
// from the sheet map to empty slices.
func Options(set *domain.RecordSet) map[string][]string {
	options := make(map[string][]string, len(domain.FilterColumns))
	for _, col := range domain.FilterColumns {
		options[col] = DistinctValues(set, col)
	}
	return options
}

// DistinctValues returns the sorted distinct values of one column.
func DistinctValues(set *domain.RecordSet, column string) []string {
	if set == nil || !set.HasColumn(column) {
		return []string{}
	}

	seen := make(map[string]struct{})
	for _, r := range set.Records {
		v := r.Value(column)
		if v == "" {
			continue
		}
		seen[v] = struct{}{}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}
