package query

import (
	"math"
	"sort"

	"cloudkeeper/core/types"
)

// Sort returns a stably sorted copy of records ordered by field.
// Capacity fields sort descending, everything else ascending. NaN keys go
// last in either direction; +Inf keeps its natural place.
func Sort(records []types.InstanceRecord, field types.SortField) []types.InstanceRecord {
	out := make([]types.InstanceRecord, len(records))
	copy(out, records)

	desc := field.Descending()

	if field.Numeric() {
		sort.SliceStable(out, func(i, j int) bool {
			return lessNumber(field.NumberOf(out[i]), field.NumberOf(out[j]), desc)
		})
		return out
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := field.TextOf(out[i]), field.TextOf(out[j])
		if desc {
			return a > b
		}
		return a < b
	})
	return out
}

func lessNumber(a, b float64, desc bool) bool {
	if math.IsNaN(a) {
		return false
	}
	if math.IsNaN(b) {
		return true
	}
	if desc {
		return a > b
	}
	return a < b
}
