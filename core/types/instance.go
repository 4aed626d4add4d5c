// Package types defines the pricing data model shared by the loader, the
// query engine and the output layers.
package types

import (
	"math"
	"time"
)

// PriceEpsilon is the price at or below which a row is treated as a
// placeholder and excluded from the dataset.
const PriceEpsilon = 1e-10

// InstanceRecord is one priced compute offering
type InstanceRecord struct {
	// InstanceType is the provider instance type, e.g. "m5.large"
	InstanceType string `json:"instance_type"`

	// Region is the provider region code
	Region string `json:"region"`

	// VCPU is the number of virtual CPUs
	VCPU int `json:"vcpu"`

	// MemoryRaw is the memory cell exactly as it appeared in the source
	MemoryRaw string `json:"memory"`

	// MemoryGiB is the leading numeric token of MemoryRaw
	MemoryGiB float64 `json:"memory_gib"`

	// PricePerHourUSD is the on-demand hourly price
	PricePerHourUSD float64 `json:"price_per_hour_usd"`

	// PricePerVCPU is PricePerHourUSD / VCPU, +Inf when VCPU is zero
	PricePerVCPU float64 `json:"-"`

	// PricePerMemoryGiB is PricePerHourUSD / MemoryGiB, +Inf when MemoryGiB is zero
	PricePerMemoryGiB float64 `json:"-"`

	// Extra holds the remaining source columns verbatim
	Extra map[string]string `json:"extra,omitempty"`
}

// NewInstanceRecord builds a record and computes its derived ratios.
func NewInstanceRecord(instanceType, region string, vcpu int, memoryRaw string, memoryGiB, price float64) InstanceRecord {
	r := InstanceRecord{
		InstanceType:    instanceType,
		Region:          region,
		VCPU:            vcpu,
		MemoryRaw:       memoryRaw,
		MemoryGiB:       memoryGiB,
		PricePerHourUSD: price,
	}
	r.PricePerVCPU = ratio(price, float64(vcpu))
	r.PricePerMemoryGiB = ratio(price, memoryGiB)
	return r
}

// Family returns the instance family, the token before the first dot.
func (r InstanceRecord) Family() string {
	for i := 0; i < len(r.InstanceType); i++ {
		if r.InstanceType[i] == '.' {
			return r.InstanceType[:i]
		}
	}
	return r.InstanceType
}

func ratio(price, divisor float64) float64 {
	if divisor > 0 {
		return price / divisor
	}
	return math.Inf(1)
}

// Dataset is the immutable in-memory pricing table.
// It is built once and only read afterwards, so it is safe for concurrent use.
type Dataset struct {
	records  []InstanceRecord
	regions  []string
	source   string
	loadedAt time.Time
}

// NewDataset wraps records in on-disk order. regions must already be
// deduplicated and sorted.
func NewDataset(source string, records []InstanceRecord, regions []string) *Dataset {
	return &Dataset{
		records:  records,
		regions:  regions,
		source:   source,
		loadedAt: time.Now().UTC(),
	}
}

// EmptyDataset returns a dataset with no rows, the degraded mode used when
// the source cannot be read.
func EmptyDataset(source string) *Dataset {
	return NewDataset(source, nil, nil)
}

// Records returns the rows. Callers must not modify the returned slice.
func (d *Dataset) Records() []InstanceRecord {
	if d == nil {
		return nil
	}
	return d.records
}

// Regions returns the distinct sorted region codes.
func (d *Dataset) Regions() []string {
	if d == nil {
		return nil
	}
	return d.regions
}

// Len returns the row count
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.records)
}

// Empty reports whether the dataset has no rows
func (d *Dataset) Empty() bool {
	return d.Len() == 0
}

// Source returns the path the dataset was loaded from
func (d *Dataset) Source() string {
	if d == nil {
		return ""
	}
	return d.source
}

// LoadedAt returns when the dataset was built
func (d *Dataset) LoadedAt() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.loadedAt
}
