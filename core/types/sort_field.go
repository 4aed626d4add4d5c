package types

import "math"

// SortField names a sortable InstanceRecord column, using the source column names
type SortField string

const (
	SortInstanceType      SortField = "InstanceType"
	SortRegion            SortField = "Region"
	SortVCPU              SortField = "vCPU"
	SortMemory            SortField = "Memory"
	SortMemoryGiB         SortField = "MemoryGiB"
	SortPricePerHour      SortField = "PricePerHourUSD"
	SortPricePerVCPU      SortField = "PricePerVCpu"
	SortPricePerMemoryGiB SortField = "PricePerMemoryGiB"
)

// DefaultSortField is used when no or an unknown field is requested
const DefaultSortField = SortPricePerHour

// SortFields lists every sortable field
func SortFields() []SortField {
	return []SortField{
		SortInstanceType,
		SortRegion,
		SortVCPU,
		SortMemory,
		SortMemoryGiB,
		SortPricePerHour,
		SortPricePerVCPU,
		SortPricePerMemoryGiB,
	}
}

// ParseSortField resolves a field name, falling back to DefaultSortField
func ParseSortField(name string) SortField {
	for _, f := range SortFields() {
		if string(f) == name {
			return f
		}
	}
	return DefaultSortField
}

// Descending reports whether the field sorts largest first by default.
// Capacity columns do; names and prices sort ascending.
func (f SortField) Descending() bool {
	return f == SortVCPU || f == SortMemoryGiB
}

// Numeric reports whether the field holds a number
func (f SortField) Numeric() bool {
	switch f {
	case SortVCPU, SortMemoryGiB, SortPricePerHour, SortPricePerVCPU, SortPricePerMemoryGiB:
		return true
	}
	return false
}

// Label returns the human readable metric name
func (f SortField) Label() string {
	switch f {
	case SortPricePerHour:
		return "Price/Hour (USD)"
	case SortPricePerVCPU:
		return "Price/vCPU (USD)"
	case SortPricePerMemoryGiB:
		return "Price/GiB RAM (USD)"
	case SortVCPU:
		return "vCPUs"
	case SortMemoryGiB:
		return "Memory (GiB)"
	default:
		return string(f)
	}
}

// NumberOf returns the numeric value of the field for r.
// Non-numeric fields yield NaN.
func (f SortField) NumberOf(r InstanceRecord) float64 {
	switch f {
	case SortVCPU:
		return float64(r.VCPU)
	case SortMemoryGiB:
		return r.MemoryGiB
	case SortPricePerHour:
		return r.PricePerHourUSD
	case SortPricePerVCPU:
		return r.PricePerVCPU
	case SortPricePerMemoryGiB:
		return r.PricePerMemoryGiB
	default:
		return math.NaN()
	}
}

// TextOf returns the string value of the field for r
func (f SortField) TextOf(r InstanceRecord) string {
	switch f {
	case SortInstanceType:
		return r.InstanceType
	case SortRegion:
		return r.Region
	case SortMemory:
		return r.MemoryRaw
	default:
		return ""
	}
}
