// Package catalog loads the instance pricing table from its CSV source.
// Rows are validated and typed here so the query path never parses strings.
package catalog

import (
	"encoding/csv"
	stderrors "errors"
	"io"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"cloudkeeper/core/types"
	"cloudkeeper/internal/errors"
)

// Required source columns
const (
	ColumnMemory       = "Memory"
	ColumnPrice        = "PricePerHourUSD"
	ColumnVCPU         = "vCPU"
	ColumnRegion       = "Region"
	ColumnInstanceType = "InstanceType"
)

var memoryToken = regexp.MustCompile(`(\d+\.?\d*)`)

// Stats describes what happened to the source rows
type Stats struct {
	Rows             int `json:"rows"`
	Kept             int `json:"kept"`
	DroppedMemory    int `json:"dropped_memory"`
	DroppedPrice     int `json:"dropped_price"`
	DroppedMalformed int `json:"dropped_malformed"`
}

// Load reads the dataset at path. It never fails: a missing or unreadable
// source is logged and yields an empty dataset.
func Load(path string, log *zap.Logger) *types.Dataset {
	if log == nil {
		log = zap.NewNop()
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Error("pricing CSV not found", zap.String("path", path))
		} else {
			log.Error("failed to open pricing CSV", zap.String("path", path), zap.Error(err))
		}
		return types.EmptyDataset(path)
	}
	defer f.Close()

	ds, stats, err := Parse(f, path)
	if err != nil {
		log.Error("failed to load pricing CSV", zap.String("path", path), zap.Error(err))
		return types.EmptyDataset(path)
	}

	log.Info("pricing data loaded",
		zap.String("path", path),
		zap.Int("records", stats.Kept),
		zap.Int("rows", stats.Rows),
		zap.Int("dropped_memory", stats.DroppedMemory),
		zap.Int("dropped_price", stats.DroppedPrice),
		zap.Int("dropped_malformed", stats.DroppedMalformed),
		zap.Int("regions", len(ds.Regions())),
	)
	return ds
}

// Parse reads CSV rows from r. Only a missing header or a missing required
// column is an error; bad rows are dropped and counted.
func Parse(r io.Reader, source string) (*types.Dataset, Stats, error) {
	var stats Stats

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.ReuseRecord = false

	headers, err := reader.Read()
	if err != nil {
		return nil, stats, errors.Parsing("failed to read CSV header", err)
	}

	idx, err := indexColumns(headers)
	if err != nil {
		return nil, stats, err
	}

	var records []types.InstanceRecord
	seen := make(map[string]bool)
	var regions []string

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		stats.Rows++
		if err != nil {
			var pe *csv.ParseError
			if !stderrors.As(err, &pe) {
				return nil, stats, errors.Parsing("failed to read CSV row", err)
			}
			stats.DroppedMalformed++
			continue
		}

		rec, reason := parseRow(row, headers, idx)
		switch reason {
		case dropMemory:
			stats.DroppedMemory++
			continue
		case dropPrice:
			stats.DroppedPrice++
			continue
		case dropMalformed:
			stats.DroppedMalformed++
			continue
		}

		records = append(records, rec)
		if !seen[rec.Region] {
			seen[rec.Region] = true
			regions = append(regions, rec.Region)
		}
	}

	sort.Strings(regions)
	stats.Kept = len(records)
	return types.NewDataset(source, records, regions), stats, nil
}

type columnIndex struct {
	memory, price, vcpu, region, instanceType int
}

func indexColumns(headers []string) (columnIndex, error) {
	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		headers[i] = h
		if _, dup := pos[h]; !dup {
			pos[h] = i
		}
	}

	lookup := func(name string) (int, error) {
		i, ok := pos[name]
		if !ok {
			return 0, errors.Newf(errors.TypeParsing, "missing required column %q", name)
		}
		return i, nil
	}

	var idx columnIndex
	var err error
	if idx.memory, err = lookup(ColumnMemory); err != nil {
		return idx, err
	}
	if idx.price, err = lookup(ColumnPrice); err != nil {
		return idx, err
	}
	if idx.vcpu, err = lookup(ColumnVCPU); err != nil {
		return idx, err
	}
	if idx.region, err = lookup(ColumnRegion); err != nil {
		return idx, err
	}
	if idx.instanceType, err = lookup(ColumnInstanceType); err != nil {
		return idx, err
	}
	return idx, nil
}

type dropReason int

const (
	keep dropReason = iota
	dropMemory
	dropPrice
	dropMalformed
)

func parseRow(row, headers []string, idx columnIndex) (types.InstanceRecord, dropReason) {
	cell := func(i int) (string, bool) {
		if i >= len(row) {
			return "", false
		}
		return strings.TrimSpace(row[i]), true
	}

	memRaw, ok1 := cell(idx.memory)
	priceRaw, ok2 := cell(idx.price)
	vcpuRaw, ok3 := cell(idx.vcpu)
	region, ok4 := cell(idx.region)
	instanceType, ok5 := cell(idx.instanceType)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return types.InstanceRecord{}, dropMalformed
	}

	memGiB, ok := ParseMemoryGiB(memRaw)
	if !ok {
		return types.InstanceRecord{}, dropMemory
	}

	price, err := strconv.ParseFloat(priceRaw, 64)
	if err != nil || math.IsNaN(price) || math.IsInf(price, 0) {
		return types.InstanceRecord{}, dropMalformed
	}
	if price <= types.PriceEpsilon {
		return types.InstanceRecord{}, dropPrice
	}

	vcpu, ok := parseVCPU(vcpuRaw)
	if !ok {
		return types.InstanceRecord{}, dropMalformed
	}

	rec := types.NewInstanceRecord(instanceType, region, vcpu, memRaw, memGiB, price)

	for i, h := range headers {
		if i == idx.memory || i == idx.price || i == idx.vcpu || i == idx.region || i == idx.instanceType {
			continue
		}
		if i >= len(row) {
			break
		}
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[h] = row[i]
	}

	return rec, keep
}

// ParseMemoryGiB extracts the leading numeric token of a memory cell such
// as "16 GiB" or "0.5 GiB".
func ParseMemoryGiB(raw string) (float64, bool) {
	tok := memoryToken.FindString(raw)
	if tok == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseVCPU accepts "4" and integral floats like "4.0"
func parseVCPU(raw string) (int, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n >= 0
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}
