package query

import (
	"sync/atomic"

	"cloudkeeper/core/types"
)

// Result is everything a query returns
type Result struct {
	// Instances is the sorted, limited table
	Instances []types.InstanceRecord `json:"instances"`

	// TotalMatched counts filtered records before the limit
	TotalMatched int `json:"total_matched_instances"`

	// Regions lists every region in the dataset, for selectors
	Regions []string `json:"regions"`

	// DataAvailable is false when the dataset is empty
	DataAvailable bool `json:"data_available"`

	RegionChart  *CountChart   `json:"chart_region_counts"`
	TopChart     *MetricChart  `json:"chart_top_n"`
	ScatterChart *ScatterChart `json:"chart_price_vcpu_scatter"`

	// Criteria echoes what was applied
	Criteria Criteria `json:"-"`
}

// Execute runs a query against a dataset snapshot
func Execute(ds *types.Dataset, c Criteria) *Result {
	if c.SortBy == "" {
		c.SortBy = types.DefaultSortField
	}

	res := &Result{
		Instances:     []types.InstanceRecord{},
		Regions:       ds.Regions(),
		DataAvailable: !ds.Empty(),
		Criteria:      c,
	}
	if res.Regions == nil {
		res.Regions = []string{}
	}
	if ds.Empty() {
		return res
	}

	records := ds.Records()

	base := Filter(records, c.WithoutRegion())
	region := ""
	if c.HasRegion() {
		region = *c.Region
	}
	res.RegionChart = RegionHistogram(base, region)

	filtered := base
	if c.HasRegion() {
		filtered = Filter(base, Criteria{Region: c.Region})
	}
	sorted := Sort(filtered, c.SortBy)
	res.TotalMatched = len(sorted)

	res.Instances = Limit(sorted, c.Limit)
	res.TopChart = TopByMetric(res.Instances, c.SortBy)
	res.ScatterChart = PriceVCPUScatter(sorted)

	return res
}

// Engine serves queries from the current dataset snapshot.
// The snapshot is swapped atomically so in-flight queries keep a consistent view.
type Engine struct {
	current atomic.Pointer[types.Dataset]
}

// NewEngine creates an engine over ds
func NewEngine(ds *types.Dataset) *Engine {
	e := &Engine{}
	if ds == nil {
		ds = types.EmptyDataset("")
	}
	e.current.Store(ds)
	return e
}

// Dataset returns the current snapshot
func (e *Engine) Dataset() *types.Dataset {
	return e.current.Load()
}

// Execute runs c against the current snapshot
func (e *Engine) Execute(c Criteria) *Result {
	return Execute(e.current.Load(), c)
}

// Regions returns the regions of the current snapshot
func (e *Engine) Regions() []string {
	return e.current.Load().Regions()
}
