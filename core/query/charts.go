package query

import (
	"fmt"
	"math"
	"sort"

	"cloudkeeper/core/types"
)

const (
	// TopFamilies caps the per-region family histogram
	TopFamilies = 15

	// TopMetricCount is how many table rows feed the metric chart
	TopMetricCount = 10

	// ScatterSampleSize caps the scatter plot
	ScatterSampleSize = 200
)

// CountChart is a bar chart of record counts per label
type CountChart struct {
	Title  string   `json:"title"`
	Labels []string `json:"labels"`
	Data   []int    `json:"data"`
}

// MetricChart is a bar chart of one metric per instance.
// Values that are infinite or undefined are nil.
type MetricChart struct {
	Title       string     `json:"title"`
	MetricLabel string     `json:"metric_label"`
	Labels      []string   `json:"labels"`
	Data        []*float64 `json:"data"`
}

// ScatterPoint is one instance on the price/vCPU plane
type ScatterPoint struct {
	X     int     `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// ScatterDataset is a named series of points
type ScatterDataset struct {
	Label           string         `json:"label"`
	Data            []ScatterPoint `json:"data"`
	BackgroundColor string         `json:"backgroundColor"`
}

// ScatterChart plots hourly price against vCPU count
type ScatterChart struct {
	Title    string           `json:"title"`
	Datasets []ScatterDataset `json:"datasets"`
	Sampled  bool             `json:"sampled"`
}

// RegionHistogram counts records by region, or by instance family within
// the selected region. base must already be filtered by every criterion
// except region. Returns nil when there is nothing to count.
func RegionHistogram(base []types.InstanceRecord, region string) *CountChart {
	if region == "" {
		if len(base) == 0 {
			return nil
		}
		counts := make(map[string]int)
		for _, r := range base {
			counts[r.Region]++
		}
		labels := make([]string, 0, len(counts))
		for k := range counts {
			labels = append(labels, k)
		}
		sort.Strings(labels)

		data := make([]int, len(labels))
		for i, k := range labels {
			data[i] = counts[k]
		}
		return &CountChart{
			Title:  "Instance Types per Region (Overall)",
			Labels: labels,
			Data:   data,
		}
	}

	type bucket struct {
		family string
		count  int
	}
	var buckets []bucket
	pos := make(map[string]int)
	for _, r := range base {
		if r.Region != region {
			continue
		}
		fam := r.Family()
		i, ok := pos[fam]
		if !ok {
			i = len(buckets)
			pos[fam] = i
			buckets = append(buckets, bucket{family: fam})
		}
		buckets[i].count++
	}
	if len(buckets) == 0 {
		return nil
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].count > buckets[j].count
	})
	if len(buckets) > TopFamilies {
		buckets = buckets[:TopFamilies]
	}

	chart := &CountChart{
		Title:  fmt.Sprintf("Instance Type Families in %s", region),
		Labels: make([]string, len(buckets)),
		Data:   make([]int, len(buckets)),
	}
	for i, b := range buckets {
		chart.Labels[i] = b.family
		chart.Data[i] = b.count
	}
	return chart
}

// TopByMetric charts the first rows of the limited table by the sort field.
func TopByMetric(limited []types.InstanceRecord, field types.SortField) *MetricChart {
	if len(limited) == 0 {
		return nil
	}
	top := limited
	if len(top) > TopMetricCount {
		top = top[:TopMetricCount]
	}

	label := field.Label()
	chart := &MetricChart{
		Title:       fmt.Sprintf("Top Instances by %s", label),
		MetricLabel: label,
		Labels:      make([]string, len(top)),
		Data:        make([]*float64, len(top)),
	}
	for i, r := range top {
		chart.Labels[i] = fmt.Sprintf("%s (%s)", r.InstanceType, r.Region)
		v := field.NumberOf(r)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		chart.Data[i] = &v
	}
	return chart
}

// PriceVCPUScatter plots the sorted, pre-limit set, sampled to the first
// ScatterSampleSize records.
func PriceVCPUScatter(sorted []types.InstanceRecord) *ScatterChart {
	if len(sorted) == 0 {
		return nil
	}
	sample := sorted
	sampled := len(sorted) > ScatterSampleSize
	if sampled {
		sample = sorted[:ScatterSampleSize]
	}

	var points []ScatterPoint
	for _, r := range sample {
		if r.VCPU <= 0 || math.IsNaN(r.PricePerHourUSD) || math.IsInf(r.PricePerHourUSD, 0) {
			continue
		}
		points = append(points, ScatterPoint{
			X:     r.VCPU,
			Y:     r.PricePerHourUSD,
			Label: fmt.Sprintf("%s (%s) | Mem: %.1fGiB", r.InstanceType, r.Region, r.MemoryGiB),
		})
	}
	if len(points) == 0 {
		return nil
	}

	title := "Price/Hour vs. vCPU (Filtered Results)"
	if sampled {
		title += fmt.Sprintf(" (Sampled %d points)", ScatterSampleSize)
	}
	return &ScatterChart{
		Title: title,
		Datasets: []ScatterDataset{{
			Label:           "Instance (vCPU vs Price/Hour)",
			Data:            points,
			BackgroundColor: "rgba(54, 162, 235, 0.6)",
		}},
		Sampled: sampled,
	}
}
