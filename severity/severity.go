// Package severity resolves the final alphabetic severity/mode suffix of
// a classified GHM (spec §4.5).
package severity

import (
	"github.com/wtsi-hgi/mco-ghm/aggregate"
	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

// durationFloor is threshold[severity] from spec §4.5's LimitSeverity /
// §8's P8: severity 1 needs duration >= 3, 2 needs >= 4, 3 needs >= 5.
var durationFloor = [4]int{0, 3, 4, 5}

// LimitSeverity drops severity transitively until its duration floor is
// satisfied (spec §4.5).
func LimitSeverity(severity uint8, duration int) uint8 {
	for severity > 0 && duration < durationFloor[severity] {
		severity--
	}

	return severity
}

// Adjust picks the final mode character for ghm given the aggregate and
// the diagnoses it was built from (spec §4.5). It does not mutate ghm;
// callers combine the returned mode with ghm's root.
func Adjust(ghm codes.GhmCode, agg *aggregate.StayAggregate, idx *tables.TableIndex) byte {
	root, ok := idx.GhmRoot(ghm.Root)
	if !ok {
		return ghm.Mode
	}

	mode := ghm.Mode

	if isEmptyMode(mode) {
		if root.AllowAmbulatory && agg.Duration == 0 {
			mode = 'J'
		} else if agg.Duration > 0 && agg.Duration < int(root.ShortDurationTreshold) {
			mode = 'T'
		}
	}

	if mode >= 'A' && mode <= 'D' {
		severity := mode - 'A'

		if root.ChildbirthSeverityList > 0 {
			severity = overrideChildbirthSeverity(idx, root, agg, severity)
		}

		severity = LimitSeverity(severity, agg.Duration)

		return 'A' + severity
	}

	if isEmptyMode(mode) {
		severity := scanMaxSeverity(agg, idx, root)
		severity = applyAgeBump(severity, agg, root)

		if agg.Exit.Mode == 9 && severity == 0 {
			severity = 1
		}

		severity = LimitSeverity(severity, agg.Duration)

		return '1' + severity
	}

	return mode
}

func isEmptyMode(mode byte) bool { return mode == 0 }

func overrideChildbirthSeverity(idx *tables.TableIndex, root *tables.GhmRootInfo, agg *aggregate.StayAggregate, severity byte) byte {
	list := root.ChildbirthSeverityList - 1
	if int(list) >= len(idx.CmaCells) {
		return severity
	}

	for _, cell := range idx.CmaCells[list] {
		if cell.Matches(int32(agg.GestationalAge), int32(severity)) {
			return uint8(cell.Value) //nolint:gosec
		}
	}

	return severity
}

// scanMaxSeverity implements spec §4.5 rule 4: scan every diagnosis except
// main/linked, keep the maximum severity among those not pediatric
// excluded, not CMA excluded by the root, and not excluded by the
// main/linked diagnosis's own exclusion list.
func scanMaxSeverity(agg *aggregate.StayAggregate, idx *tables.TableIndex, root *tables.GhmRootInfo) byte {
	var max byte

	for _, d := range agg.Diagnoses {
		if d == agg.MainDiagnosis || (agg.HasLinked && d == agg.LinkedDiagnosis) {
			continue
		}

		info, ok := idx.Diagnosis(d)
		if !ok {
			continue
		}

		attrs := info.Attributes[agg.Sex.Index()]

		if pediatricExcluded(d, attrs, agg.Age) {
			continue
		}

		if root.CmaExclusionMask != 0 && attrs.Raw[root.CmaExclusionOffset]&root.CmaExclusionMask != 0 {
			continue
		}

		if excludedBy(idx, info, agg.MainDiagnosis) || (agg.HasLinked && excludedBy(idx, info, agg.LinkedDiagnosis)) {
			continue
		}

		if attrs.Severity > max {
			max = attrs.Severity
		}
	}

	return max
}

// pediatricExcluded implements spec §4.5's pediatric exclusion rule for
// diagnosis d given its attribute block and the aggregate's age.
func pediatricExcluded(d codes.DiagnosisCode, attrs tables.DiagnosisAttributes, age int) bool {
	if age < 14 && attrs.Raw[19]&0x10 != 0 {
		return true
	}

	if age >= 2 && attrs.Raw[19]&0x08 != 0 {
		return true
	}

	if age >= 2 && d[0] == 'P' {
		return true
	}

	return false
}

// excludedBy implements spec §9's exclusion-test asymmetry: test the bit
// at other's (cma_exclusion_offset, cma_exclusion_mask) inside candidate's
// own exclusion bitset.
func excludedBy(idx *tables.TableIndex, candidate *tables.DiagnosisInfo, other codes.DiagnosisCode) bool {
	if other.IsZero() {
		return false
	}

	otherInfo, ok := idx.Diagnosis(other)
	if !ok {
		return false
	}

	set, err := idx.Exclusion(candidate.ExclusionSetIdx)
	if err != nil {
		return false
	}

	return set.TestBit(otherInfo.CmaExclusionOffset, otherInfo.CmaExclusionMask)
}

func applyAgeBump(severity byte, agg *aggregate.StayAggregate, root *tables.GhmRootInfo) byte {
	if uint16(agg.Age) >= root.OldAgeTreshold && severity < root.OldSeverityLimit {
		severity++
	}

	if uint16(agg.Age) < root.YoungAgeTreshold && severity < root.YoungSeverityLimit {
		severity++
	}

	return severity
}
