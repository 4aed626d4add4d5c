package query

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"

	"cloudkeeper/core/types"
)

func TestRegionHistogramOverall(t *testing.T) {
	chart := RegionHistogram(fixture(), "")
	if chart == nil {
		t.Fatal("expected chart")
	}
	if !reflect.DeepEqual(chart.Labels, []string{"eu-west-1", "us-east-1"}) {
		t.Errorf("labels not sorted: %v", chart.Labels)
	}
	if !reflect.DeepEqual(chart.Data, []int{2, 3}) {
		t.Errorf("unexpected counts: %v", chart.Data)
	}
	if chart.Title != "Instance Types per Region (Overall)" {
		t.Errorf("unexpected title %q", chart.Title)
	}
}

func TestRegionHistogramFamilies(t *testing.T) {
	records := []types.InstanceRecord{
		rec("t3.micro", "us-east-1", 2, 1, 0.01),
		rec("m5.large", "us-east-1", 2, 8, 0.1),
		rec("c5.large", "us-east-1", 2, 4, 0.08),
		rec("m5.xlarge", "us-east-1", 4, 16, 0.2),
		rec("c5.xlarge", "us-east-1", 4, 8, 0.17),
		rec("m5.large", "eu-west-1", 2, 8, 0.11),
	}

	chart := RegionHistogram(records, "us-east-1")
	if chart == nil {
		t.Fatal("expected chart")
	}
	// m5 and c5 tie at 2; m5 was seen first. t3 follows with 1.
	if !reflect.DeepEqual(chart.Labels, []string{"m5", "c5", "t3"}) {
		t.Errorf("unexpected family order: %v", chart.Labels)
	}
	if !reflect.DeepEqual(chart.Data, []int{2, 2, 1}) {
		t.Errorf("unexpected counts: %v", chart.Data)
	}
	if chart.Title != "Instance Type Families in us-east-1" {
		t.Errorf("unexpected title %q", chart.Title)
	}
}

func TestRegionHistogramTopFifteen(t *testing.T) {
	var records []types.InstanceRecord
	for i := 0; i < 20; i++ {
		for j := 0; j <= i; j++ {
			records = append(records, rec(fmt.Sprintf("f%02d.large", i), "r1", 2, 4, 0.1))
		}
	}
	chart := RegionHistogram(records, "r1")
	if len(chart.Labels) != TopFamilies {
		t.Fatalf("expected %d families, got %d", TopFamilies, len(chart.Labels))
	}
	if chart.Labels[0] != "f19" || chart.Data[0] != 20 {
		t.Errorf("expected largest family first, got %s=%d", chart.Labels[0], chart.Data[0])
	}
}

func TestRegionHistogramAbsent(t *testing.T) {
	if RegionHistogram(nil, "") != nil {
		t.Error("expected nil for empty base")
	}
	if RegionHistogram(fixture(), "mars-1") != nil {
		t.Error("expected nil when the region has no records")
	}
}

func TestTopByMetric(t *testing.T) {
	records := []types.InstanceRecord{
		rec("a.large", "us-east-1", 2, 4, 0.1),
		rec("b.large", "us-east-1", 0, 4, 0.2),
	}
	chart := TopByMetric(records, types.SortPricePerVCPU)
	if chart == nil {
		t.Fatal("expected chart")
	}
	if chart.MetricLabel != "Price/vCPU (USD)" || chart.Title != "Top Instances by Price/vCPU (USD)" {
		t.Errorf("unexpected labels: %q / %q", chart.MetricLabel, chart.Title)
	}
	if !reflect.DeepEqual(chart.Labels, []string{"a.large (us-east-1)", "b.large (us-east-1)"}) {
		t.Errorf("unexpected labels: %v", chart.Labels)
	}
	if chart.Data[0] == nil || *chart.Data[0] != 0.05 {
		t.Errorf("expected 0.05, got %v", chart.Data[0])
	}
	if chart.Data[1] != nil {
		t.Errorf("expected nil for +Inf, got %v", *chart.Data[1])
	}
}

func TestTopByMetricCapsAtTen(t *testing.T) {
	var records []types.InstanceRecord
	for i := 0; i < 25; i++ {
		records = append(records, rec(fmt.Sprintf("x%d.large", i), "r", 2, 4, float64(i+1)))
	}
	chart := TopByMetric(records, types.SortPricePerHour)
	if len(chart.Labels) != TopMetricCount || len(chart.Data) != TopMetricCount {
		t.Errorf("expected %d entries, got %d", TopMetricCount, len(chart.Labels))
	}
	if TopByMetric(nil, types.SortPricePerHour) != nil {
		t.Error("expected nil for empty table")
	}
}

func TestTopByMetricNonNumericField(t *testing.T) {
	chart := TopByMetric(fixture(), types.SortRegion)
	for i, v := range chart.Data {
		if v != nil {
			t.Errorf("entry %d: expected nil for a text metric", i)
		}
	}
}

func TestScatterExcludesZeroVCPU(t *testing.T) {
	records := []types.InstanceRecord{
		rec("a.large", "us-east-1", 2, 8, 0.1),
		rec("b.metal", "us-east-1", 0, 8, 0.2),
	}
	chart := PriceVCPUScatter(records)
	if chart == nil {
		t.Fatal("expected chart")
	}
	points := chart.Datasets[0].Data
	if len(points) != 1 || points[0].X != 2 || points[0].Y != 0.1 {
		t.Fatalf("unexpected points: %+v", points)
	}
	if points[0].Label != "a.large (us-east-1) | Mem: 8.0GiB" {
		t.Errorf("unexpected label %q", points[0].Label)
	}
	if chart.Sampled || strings.Contains(chart.Title, "Sampled") {
		t.Error("small set should not be sampled")
	}
}

func TestScatterSamplesLargeSets(t *testing.T) {
	var records []types.InstanceRecord
	for i := 0; i < 250; i++ {
		records = append(records, rec(fmt.Sprintf("x%d.large", i), "r", 2, 4, 0.1))
	}
	chart := PriceVCPUScatter(records)
	if len(chart.Datasets[0].Data) != ScatterSampleSize {
		t.Errorf("expected %d points, got %d", ScatterSampleSize, len(chart.Datasets[0].Data))
	}
	if !chart.Sampled || chart.Title != "Price/Hour vs. vCPU (Filtered Results) (Sampled 200 points)" {
		t.Errorf("unexpected title %q", chart.Title)
	}
}

func TestScatterAbsentWithoutPoints(t *testing.T) {
	infPrice := rec("inf.large", "r", 2, 4, 1)
	infPrice.PricePerHourUSD = math.Inf(1)
	if PriceVCPUScatter([]types.InstanceRecord{rec("z", "r", 0, 4, 0.1), infPrice}) != nil {
		t.Error("expected nil when no record qualifies")
	}
	if PriceVCPUScatter(nil) != nil {
		t.Error("expected nil for empty input")
	}
}
