// Package query filters, sorts, limits and aggregates the pricing dataset.
//
// Pipeline: Filter -> Sort -> Limit, with three chart views computed from
// the pre-limit and post-limit sets. Every function here is pure and reads
// the dataset without locking.
package query

import (
	"math"
	"net/url"
	"strconv"
	"strings"

	"cloudkeeper/core/types"
)

// DefaultLimit is the row count used when the request names none
const DefaultLimit = "20"

// Criteria is the set of optional query parameters.
// A nil pointer means the constraint is absent.
type Criteria struct {
	Region             *string
	InstanceTypePrefix *string
	MinVCPU            *int
	MinMemoryGiB       *float64
	MaxPriceUSD        *float64

	SortBy types.SortField
	Limit  LimitSpec
}

// HasRegion reports whether a region filter is active
func (c Criteria) HasRegion() bool {
	return c.Region != nil && *c.Region != ""
}

// WithoutRegion returns a copy of c with the region filter cleared
func (c Criteria) WithoutRegion() Criteria {
	c.Region = nil
	return c
}

// DefaultCriteria returns criteria with no filters, the default sort and limit
func DefaultCriteria() Criteria {
	return Criteria{
		SortBy: types.DefaultSortField,
		Limit:  ParseLimit(DefaultLimit),
	}
}

// ParseCriteria reads criteria from request parameters. Unparsable or
// non-finite numbers leave the corresponding constraint absent rather than failing.
func ParseCriteria(values url.Values) Criteria {
	return ParseCriteriaWithDefaults(values, DefaultLimit, types.DefaultSortField)
}

// ParseCriteriaWithDefaults is ParseCriteria with configurable defaults for
// the limit and sort field.
func ParseCriteriaWithDefaults(values url.Values, defaultLimit string, defaultSort types.SortField) Criteria {
	c := Criteria{}

	if region := strings.TrimSpace(values.Get("region")); region != "" {
		c.Region = &region
	}
	if prefix := strings.ToLower(strings.TrimSpace(values.Get("instance_type_prefix"))); prefix != "" {
		c.InstanceTypePrefix = &prefix
	}
	if v, err := strconv.Atoi(strings.TrimSpace(values.Get("min_vcpu"))); err == nil {
		c.MinVCPU = &v
	}
	if v, ok := parseFloat(values.Get("min_memory")); ok {
		c.MinMemoryGiB = &v
	}
	if v, ok := parseFloat(values.Get("max_price")); ok {
		c.MaxPriceUSD = &v
	}

	c.SortBy = defaultSort
	if sortBy := values.Get("sort_by"); sortBy != "" {
		c.SortBy = types.ParseSortField(sortBy)
	}

	limit := values.Get("limit")
	if limit == "" {
		limit = defaultLimit
	}
	c.Limit = ParseLimit(limit)

	return c
}

func parseFloat(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Ptr returns a pointer to v, for building criteria in code
func Ptr[T any](v T) *T {
	return &v
}
