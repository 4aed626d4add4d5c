package output

import (
	"math"

	"github.com/shopspring/decimal"

	"cloudkeeper/core/query"
	"cloudkeeper/core/types"
)

// NotAvailable is shown in place of an infinite or undefined price
const NotAvailable = "N/A"

// NoDataMessage is reported when the pricing dataset could not be loaded
const NoDataMessage = "pricing data is not available"

// InstanceView is the wire form of an instance record. Ratios that are
// infinite are null. Field names follow the source CSV columns.
type InstanceView struct {
	InstanceType      string            `json:"InstanceType"`
	Region            string            `json:"Region"`
	VCPU              int               `json:"vCPU"`
	Memory            string            `json:"Memory"`
	MemoryGiB         float64           `json:"MemoryGiB"`
	PricePerHourUSD   float64           `json:"PricePerHourUSD"`
	PricePerVCPU      *float64          `json:"PricePerVCpu"`
	PricePerMemoryGiB *float64          `json:"PricePerMemoryGiB"`
	Extra             map[string]string `json:"extra,omitempty"`
}

// CriteriaView echoes the applied query parameters
type CriteriaView struct {
	Region             *string  `json:"region"`
	InstanceTypePrefix *string  `json:"instance_type_prefix"`
	MinVCPU            *int     `json:"min_vcpu"`
	MinMemoryGiB       *float64 `json:"min_memory"`
	MaxPriceUSD        *float64 `json:"max_price"`
	SortBy             string   `json:"sort_by"`
	Limit              string   `json:"limit"`
}

// ResultView is the wire form of a query result
type ResultView struct {
	Instances     []InstanceView      `json:"instances"`
	TotalMatched  int                 `json:"total_matched_instances"`
	Regions       []string            `json:"regions"`
	DataAvailable bool                `json:"data_available"`
	Message       string              `json:"message,omitempty"`
	Criteria      CriteriaView        `json:"criteria"`
	RegionChart   *query.CountChart   `json:"chart_region_counts"`
	TopChart      *query.MetricChart  `json:"chart_top_n"`
	ScatterChart  *query.ScatterChart `json:"chart_price_vcpu_scatter"`
}

// NewInstanceView converts a record
func NewInstanceView(r types.InstanceRecord) InstanceView {
	return InstanceView{
		InstanceType:      r.InstanceType,
		Region:            r.Region,
		VCPU:              r.VCPU,
		Memory:            r.MemoryRaw,
		MemoryGiB:         r.MemoryGiB,
		PricePerHourUSD:   r.PricePerHourUSD,
		PricePerVCPU:      finite(r.PricePerVCPU),
		PricePerMemoryGiB: finite(r.PricePerMemoryGiB),
		Extra:             r.Extra,
	}
}

// NewResultView converts a query result
func NewResultView(res *query.Result) *ResultView {
	v := &ResultView{
		Instances:     make([]InstanceView, 0, len(res.Instances)),
		TotalMatched:  res.TotalMatched,
		Regions:       res.Regions,
		DataAvailable: res.DataAvailable,
		RegionChart:   res.RegionChart,
		TopChart:      res.TopChart,
		ScatterChart:  res.ScatterChart,
		Criteria: CriteriaView{
			Region:             res.Criteria.Region,
			InstanceTypePrefix: res.Criteria.InstanceTypePrefix,
			MinVCPU:            res.Criteria.MinVCPU,
			MinMemoryGiB:       finitePtr(res.Criteria.MinMemoryGiB),
			MaxPriceUSD:        finitePtr(res.Criteria.MaxPriceUSD),
			SortBy:             string(res.Criteria.SortBy),
			Limit:              res.Criteria.Limit.String(),
		},
	}
	if v.Regions == nil {
		v.Regions = []string{}
	}
	if !res.DataAvailable {
		v.Message = NoDataMessage
	}
	for _, r := range res.Instances {
		v.Instances = append(v.Instances, NewInstanceView(r))
	}
	return v
}

// Price renders a USD amount fixed to 4 decimal places, or N/A when the
// amount is infinite or undefined.
func Price(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return NotAvailable
	}
	return decimal.NewFromFloat(v).StringFixed(4)
}

func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}

func finitePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	return finite(*v)
}
