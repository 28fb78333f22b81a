package tables

import "github.com/wtsi-hgi/mco-ghm/codes"

// Diagnosis looks up a DiagnosisInfo by exact code via binary search (spec
// §3: "diagnoses is kept sorted by code for O(log n) lookup").
func (idx *TableIndex) Diagnosis(code codes.DiagnosisCode) (*DiagnosisInfo, bool) {
	target := code.String()

	lo, hi := 0, len(idx.Diagnoses)
	for lo < hi {
		mid := (lo + hi) / 2

		if idx.Diagnoses[mid].Code.String() < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	if lo < len(idx.Diagnoses) && idx.Diagnoses[lo].Code == code {
		return &idx.Diagnoses[lo], true
	}

	return nil, false
}

// Procedure looks up the ProcedureInfo matching (code, phase); if phase < 0
// the first matching code (any phase) is returned.
func (idx *TableIndex) Procedure(code codes.ProcedureCode, phase int) (*ProcedureInfo, bool) {
	target := code.String()

	lo, hi := 0, len(idx.Procedures)
	for lo < hi {
		mid := (lo + hi) / 2

		if idx.Procedures[mid].Code.String() < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	for i := lo; i < len(idx.Procedures) && idx.Procedures[i].Code == code; i++ {
		if phase < 0 || int(idx.Procedures[i].Phase) == phase {
			return &idx.Procedures[i], true
		}
	}

	return nil, false
}

// GhmRoot looks up the GhmRootInfo parameters shared by all GHMs under
// root.
func (idx *TableIndex) GhmRoot(root codes.GhmRootCode) (*GhmRootInfo, bool) {
	for i := range idx.GhmRoots {
		if idx.GhmRoots[i].Code == root {
			return &idx.GhmRoots[i], true
		}
	}

	return nil, false
}

// Exclusion returns the exclusion bitset at i, or nil and
// ErrExclusionIndexOutOfRange if i is not a valid index into Exclusions
// (checked with '<', so i == len(Exclusions) is out of range).
func (idx *TableIndex) Exclusion(i int) (*ExclusionInfo, error) {
	if i < 0 || i >= len(idx.Exclusions) {
		return nil, ErrExclusionIndexOutOfRange
	}

	return &idx.Exclusions[i], nil
}

// Ghs finds the GhsInfo entry matching (root, mode): an entry with
// GhmMode == 0 matches any mode of the root.
func (idx *TableIndex) Ghs(root codes.GhmRootCode, mode byte) (*GhsInfo, bool) {
	lo, hi := 0, len(idx.Ghs)
	target := root.String()

	for lo < hi {
		mid := (lo + hi) / 2

		if idx.Ghs[mid].Ghm.String() < target {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	var fallback *GhsInfo

	for i := lo; i < len(idx.Ghs) && idx.Ghs[i].Ghm == root; i++ {
		if idx.Ghs[i].GhmMode == mode {
			return &idx.Ghs[i], true
		}

		if idx.Ghs[i].GhmMode == 0 && fallback == nil {
			fallback = &idx.Ghs[i]
		}
	}

	if fallback != nil {
		return fallback, true
	}

	return nil, false
}
