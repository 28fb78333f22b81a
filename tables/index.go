package tables

import "github.com/wtsi-hgi/mco-ghm/codes"

// TableSet owns every TableInfo parsed by LoadFiles plus the TableIndex
// timeline assembled from them (spec §3/§4.1).
type TableSet struct {
	Tables   []TableInfo
	Warnings []string
	Indexes  []TableIndex
}

// TableIndex is the authoritative set of tables valid over one disjoint
// [From, To) interval (spec §3).
type TableIndex struct {
	From, To codes.Date

	GhmNodes       []GhmDecisionNode
	Diagnoses      []DiagnosisInfo
	Exclusions     []ExclusionInfo
	Procedures     []ProcedureInfo
	GhmRoots       []GhmRootInfo
	GnnCells       []ValueRangeCell2
	CmaCells       [3][]ValueRangeCell2Value
	Ghs            []GhsInfo
	Authorizations []AuthorizationInfo
	SrcPairs       [2][]SrcPair

	// ChangedTables records, bit-per-Kind, which slices differ from the
	// immediately preceding index (spec §4.1's "bitset changed_tables").
	ChangedTables uint16
}

// boundary is one validity-interval edge contributed by a TableInfo.
type boundary struct {
	date codes.Date
	kind Kind
	info *TableInfo
	// true at a table's From (the table becomes active at this date), false
	// at its To (the table stops being active at this date).
	starts bool
}

// buildIndexes sorts every parsed TableInfo by (From, Version, BuildDate)
// and walks the resulting boundaries to commit disjoint TableIndex
// intervals, maintaining one "active" table per Kind (spec §4.1's "Index
// assembly"; grounded on the teacher's bolt/provider.go multi-source merge
// loop, adapted from byte-range merging to validity-interval merging).
func (s *TableSet) buildIndexes() error {
	if len(s.Tables) == 0 {
		return ErrNoTables
	}

	sortTables(s.Tables)

	boundaries := make([]boundary, 0, len(s.Tables)*2)

	for i := range s.Tables {
		t := &s.Tables[i]
		boundaries = append(boundaries,
			boundary{date: t.From, kind: t.Kind, info: t, starts: true},
			boundary{date: t.To, kind: t.Kind, info: t, starts: false},
		)
	}

	sortBoundaries(boundaries)

	active := map[Kind]*TableInfo{}

	var (
		indexes []TableIndex
		cursor  codes.Date
		have    bool
	)

	flush := func(upTo codes.Date) {
		if !have || !cursor.Before(upTo) {
			return
		}

		indexes = append(indexes, assembleIndex(cursor, upTo, active))
	}

	for i := 0; i < len(boundaries); {
		date := boundaries[i].date

		if have {
			flush(date)
		}

		for i < len(boundaries) && boundaries[i].date == date {
			b := boundaries[i]
			if b.starts {
				active[b.kind] = b.info
			} else if active[b.kind] == b.info {
				delete(active, b.kind)
			}

			i++
		}

		cursor = date
		have = true
	}

	markChanges(indexes)

	s.Indexes = indexes

	return nil
}

func assembleIndex(from, to codes.Date, active map[Kind]*TableInfo) TableIndex {
	idx := TableIndex{From: from, To: to}

	if t := active[KindGhmDecisionTree]; t != nil {
		idx.GhmNodes = t.GhmNodes
	}

	if t := active[KindDiagnosisTable]; t != nil {
		idx.Diagnoses = t.Diagnoses
		idx.Exclusions = t.Exclusions
	}

	if t := active[KindProcedureTable]; t != nil {
		idx.Procedures = t.Procedures
	}

	if t := active[KindGhmRootTable]; t != nil {
		idx.GhmRoots = t.GhmRoots
	}

	if t := active[KindSeverityTable]; t != nil {
		idx.CmaCells = t.CmaCells
		idx.GnnCells = t.GnnCells
	}

	if t := active[KindGhsTable]; t != nil {
		idx.Ghs = t.Ghs
	}

	if t := active[KindAuthorizationTable]; t != nil {
		idx.Authorizations = t.Authorizations
	}

	if t := active[KindSrcPairTable]; t != nil {
		idx.SrcPairs = t.SrcPairs
	}

	return idx
}

func markChanges(indexes []TableIndex) {
	for i := range indexes {
		if i == 0 {
			indexes[i].ChangedTables = 0x1FF

			continue
		}

		prev, cur := &indexes[i-1], &indexes[i]

		var changed uint16

		if !sameSlice(prev.GhmNodes, cur.GhmNodes) {
			changed |= 1 << KindGhmDecisionTree
		}

		if !sameSlice(prev.Diagnoses, cur.Diagnoses) {
			changed |= 1 << KindDiagnosisTable
		}

		if !sameSlice(prev.Procedures, cur.Procedures) {
			changed |= 1 << KindProcedureTable
		}

		if !sameSlice(prev.GhmRoots, cur.GhmRoots) {
			changed |= 1 << KindGhmRootTable
		}

		if !sameSlice(prev.GnnCells, cur.GnnCells) || !sameSlice(prev.CmaCells[0], cur.CmaCells[0]) ||
			!sameSlice(prev.CmaCells[1], cur.CmaCells[1]) || !sameSlice(prev.CmaCells[2], cur.CmaCells[2]) {
			changed |= 1 << KindSeverityTable
		}

		if !sameSlice(prev.Ghs, cur.Ghs) {
			changed |= 1 << KindGhsTable
		}

		if !sameSlice(prev.Authorizations, cur.Authorizations) {
			changed |= 1 << KindAuthorizationTable
		}

		if !sameSlice(prev.SrcPairs[0], cur.SrcPairs[0]) || !sameSlice(prev.SrcPairs[1], cur.SrcPairs[1]) {
			changed |= 1 << KindSrcPairTable
		}

		cur.ChangedTables = changed
	}
}

// sameSlice reports whether a and b share both length and backing array,
// used as a cheap identity check for "did this table change" (the same
// underlying TableInfo slice is reused verbatim across adjacent indexes
// that did not change, spec §4.1).
func sameSlice[T any](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}

	if len(a) == 0 {
		return true
	}

	return &a[0] == &b[0]
}

func sortTables(t []TableInfo) {
	for i := 1; i < len(t); i++ {
		for j := i; j > 0 && tableLess(t[j], t[j-1]); j-- {
			t[j], t[j-1] = t[j-1], t[j]
		}
	}
}

func tableLess(a, b TableInfo) bool {
	if a.From != b.From {
		return a.From.Before(b.From)
	}

	if a.Version != b.Version {
		return a.Version.Major < b.Version.Major ||
			(a.Version.Major == b.Version.Major && a.Version.Minor < b.Version.Minor)
	}

	return a.BuildDate.Before(b.BuildDate)
}

func sortBoundaries(b []boundary) {
	for i := 1; i < len(b); i++ {
		for j := i; j > 0 && boundaryLess(b[j], b[j-1]); j-- {
			b[j], b[j-1] = b[j-1], b[j]
		}
	}
}

// boundaryLess orders "ends" before "starts" on the same date so a table
// that stops being active frees its Kind slot before a same-day successor
// claims it.
func boundaryLess(a, b boundary) bool {
	if a.date != b.date {
		return a.date.Before(b.date)
	}

	return !a.starts && b.starts
}

// FindIndex returns the TableIndex covering date, or ErrIndexNotFound (spec
// §4.7: surfaced by the driver as classification error 502).
func (s *TableSet) FindIndex(date codes.Date) (*TableIndex, error) {
	lo, hi := 0, len(s.Indexes)

	for lo < hi {
		mid := (lo + hi) / 2

		if s.Indexes[mid].To.Before(date) || s.Indexes[mid].To == date {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if lo < len(s.Indexes) && !date.Before(s.Indexes[lo].From) && date.Before(s.Indexes[lo].To) {
		return &s.Indexes[lo], nil
	}

	return nil, ErrIndexNotFound
}
