package query

import (
	"strconv"
	"strings"

	"cloudkeeper/core/types"
)

// LimitSpec is either a row count or "all"
type LimitSpec struct {
	All bool
	N   int
}

// LimitAll passes every record through
var LimitAll = LimitSpec{All: true}

// LimitN keeps the first n records
func LimitN(n int) LimitSpec {
	if n < 0 {
		return LimitAll
	}
	return LimitSpec{N: n}
}

// ParseLimit reads "all" or a non-negative integer. Anything else falls
// back to "all" so a bad parameter never fails the request.
func ParseLimit(raw string) LimitSpec {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "all") {
		return LimitAll
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return LimitAll
	}
	return LimitSpec{N: n}
}

// String renders the limit the way ParseLimit reads it
func (l LimitSpec) String() string {
	if l.All {
		return "all"
	}
	return strconv.Itoa(l.N)
}

// Limit truncates records to the given limit
func Limit(records []types.InstanceRecord, spec LimitSpec) []types.InstanceRecord {
	if spec.All || spec.N < 0 || spec.N >= len(records) {
		return records
	}
	return records[:spec.N]
}
