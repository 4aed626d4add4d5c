package query

import (
	"strings"

	"cloudkeeper/core/types"
)

// Filter returns the records matching every present criterion, in input
// order. Sort and limit settings in c are ignored.
func Filter(records []types.InstanceRecord, c Criteria) []types.InstanceRecord {
	var prefix string
	if c.InstanceTypePrefix != nil {
		prefix = strings.ToLower(*c.InstanceTypePrefix)
	}

	out := make([]types.InstanceRecord, 0, len(records))
	for _, r := range records {
		if c.HasRegion() && r.Region != *c.Region {
			continue
		}
		if prefix != "" && !strings.HasPrefix(strings.ToLower(r.InstanceType), prefix) {
			continue
		}
		if c.MinVCPU != nil && r.VCPU < *c.MinVCPU {
			continue
		}
		if c.MinMemoryGiB != nil && !(r.MemoryGiB >= *c.MinMemoryGiB) {
			continue
		}
		if c.MaxPriceUSD != nil && !(r.PricePerHourUSD <= *c.MaxPriceUSD) {
			continue
		}
		out = append(out, r)
	}
	return out
}
