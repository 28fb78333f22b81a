// Package classify implements the driver that threads a stay sequence
// through clustering, aggregation, tree interpretation, severity
// adjustment, and pricing (spec §4.7).
package classify

import (
	"sync"

	"github.com/google/uuid"

	"github.com/wtsi-hgi/mco-ghm/aggregate"
	"github.com/wtsi-hgi/mco-ghm/classtree"
	"github.com/wtsi-hgi/mco-ghm/cluster"
	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/pricing"
	"github.com/wtsi-hgi/mco-ghm/severity"
	"github.com/wtsi-hgi/mco-ghm/stay"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

// ErrNoIndex is classification error 502: no TableIndex covers a
// cluster's exit date (spec §4.7).
const ErrNoIndex = 502

// Result is one cluster's classification outcome (spec §4.7).
type Result struct {
	ClusterStart, ClusterLen int

	Aggregate *aggregate.StayAggregate

	Ghm   codes.GhmCode
	Ghs   codes.GhsCode
	Price int64
	Index *tables.TableIndex

	ErrorStart, ErrorLen int
}

// Sector selects the public (0) or private (1) GHS pricing tier.
type Sector int

const (
	SectorPublic Sector = iota
	SectorPrivate
)

// Driver holds the immutable tables/pricing a run classifies against.
type Driver struct {
	Set     *tables.TableSet
	Pricing *pricing.PricingSet
	Mode    cluster.Mode
	Sector  Sector
}

// Run is one invocation's output: its RunID (for correlating logs across
// a parallel fan-out), the results in cluster order, and the shared
// error backing store each Result.ErrorStart/ErrorLen ranges into (spec
// §4.7/§7).
type Run struct {
	RunID   uuid.UUID
	Results []Result
	Errors  []int
}

// Classify drives stays through the full pipeline sequentially (spec
// §4.7; grounded on summary/summariser.go's single orchestration pass).
func (d *Driver) Classify(stays []stay.Stay) *Run {
	run := &Run{RunID: uuid.New()}

	remaining := stays
	offset := 0

	for len(remaining) > 0 {
		var c []stay.Stay

		c, remaining = cluster.Next(remaining, d.Mode)

		result := d.classifyOne(c, offset, run)
		run.Results = append(run.Results, result)

		offset += len(c)
	}

	return run
}

// Parallelism partitions stays into n contiguous slices and classifies
// each on its own goroutine, merging results back in partition order
// (spec §5: "each worker returns a contiguous result slice and callers
// merge in deterministic partition order"; grounded on
// summary/summariser.go's fan-out shape, using a plain sync.WaitGroup
// rather than a distributed job scheduler — see DESIGN.md).
func (d *Driver) Parallelism(stays []stay.Stay, n int) *Run {
	if n <= 1 || len(stays) == 0 {
		return d.Classify(stays)
	}

	partitions := partitionStays(stays, n)

	runs := make([]*Run, len(partitions))

	var wg sync.WaitGroup

	for i, part := range partitions {
		wg.Add(1)

		go func(i int, part []stay.Stay) {
			defer wg.Done()

			runs[i] = d.Classify(part)
		}(i, part)
	}

	wg.Wait()

	partitionSizes := make([]int, len(partitions))
	for i, part := range partitions {
		partitionSizes[i] = len(part)
	}

	return mergeRuns(runs, partitionSizes)
}

// partitionStays splits stays into up to n contiguous slices, never
// splitting a stay_id across partitions (the clustering modes require an
// intact stay_id run).
func partitionStays(stays []stay.Stay, n int) [][]stay.Stay {
	if n > len(stays) {
		n = len(stays)
	}

	if n <= 1 {
		return [][]stay.Stay{stays}
	}

	size := (len(stays) + n - 1) / n

	var parts [][]stay.Stay

	start := 0
	for start < len(stays) {
		end := start + size
		if end > len(stays) {
			end = len(stays)
		}

		for end < len(stays) && stays[end].StayID == stays[end-1].StayID {
			end++
		}

		parts = append(parts, stays[start:end])
		start = end
	}

	return parts
}

// mergeRuns concatenates each partition's Run in partition order, rebasing
// ErrorStart against the growing shared error list and ClusterStart against
// the growing count of stays already emitted, so the merged Run reads
// exactly as if Classify had run sequentially over the unpartitioned input.
func mergeRuns(runs []*Run, partitionSizes []int) *Run {
	merged := &Run{RunID: uuid.New()}

	clusterBase := 0

	for p, r := range runs {
		errBase := len(merged.Errors)

		for i := range r.Results {
			res := r.Results[i]
			res.ErrorStart += errBase
			res.ClusterStart += clusterBase
			merged.Results = append(merged.Results, res)
		}

		merged.Errors = append(merged.Errors, r.Errors...)
		clusterBase += partitionSizes[p]
	}

	return merged
}

func (d *Driver) classifyOne(clusterStays []stay.Stay, offset int, run *Run) Result {
	result := Result{ClusterStart: offset, ClusterLen: len(clusterStays)}

	last := clusterStays[len(clusterStays)-1]

	idx, err := d.Set.FindIndex(last.To)
	if err != nil {
		result.Ghm = codes.ErrorGhm
		result.ErrorStart = len(run.Errors)
		run.Errors = append(run.Errors, ErrNoIndex)
		result.ErrorLen = 1

		return result
	}

	agg := aggregate.Aggregate(clusterStays, idx)
	result.Aggregate = agg
	result.Index = idx

	errStart := len(run.Errors)
	run.Errors = append(run.Errors, agg.Errors...)

	ctx := classtree.NewContext(idx, agg)
	ghm, treeErrs := classtree.Eval(ctx, idx.GhmNodes, 0)
	run.Errors = append(run.Errors, treeErrs...)

	if !ghm.IsError() {
		mode := severity.Adjust(ghm, agg, idx)
		ghm.Mode = mode
	}

	result.Ghm = ghm
	result.ErrorStart = errStart
	result.ErrorLen = len(run.Errors) - errStart

	if ghm.IsError() {
		return result
	}

	sector := int(d.Sector)

	ghsInfo, ok := idx.Ghs(ghm.Root, ghm.Mode)
	if !ok {
		return result
	}

	result.Ghs = ghsInfo.Ghs[sector]

	if d.Pricing != nil && result.Ghs.Valid() {
		price, perr := d.Pricing.Resolve(result.Ghs, sector, last.To, agg.Duration,
			ghsInfo.ExhTreshold, ghsInfo.ExbTreshold, ghsInfo.ExbOnce)
		if perr == nil {
			result.Price = price
		}
	}

	return result
}
