// Package aggregate merges a cluster of stay fragments into a single
// classifiable StayAggregate, deduplicating diagnoses/procedures and
// picking the fragment whose main diagnosis drives the GHM (spec §4.3).
package aggregate

import (
	"golang.org/x/exp/constraints"

	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/stay"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

// Classification error codes appended during aggregation (spec §4.3).
const (
	ErrMissingMainDiagnosis = 40
	ErrMissingBirthdate     = 13
	ErrMalformedBirthdate   = 14
	ErrImplausibleBirthdate = 39
	ErrBirthdateMismatch    = 45
	ErrSexMismatch          = 46
)

// StayAggregate is the merged view of a cluster (spec §4.3).
type StayAggregate struct {
	StayID, BillID uint32

	Birthdate codes.Date
	Sex       codes.Sex

	From codes.Date
	To   codes.Date

	Entry stay.Movement
	Exit  stay.Movement

	Unit codes.UnitCode

	Age      int
	Duration int

	SessionCount   uint16
	Igs2           uint16
	GestationalAge uint16
	NewbornWeight  uint16

	MainDiagnosis   codes.DiagnosisCode
	LinkedDiagnosis codes.DiagnosisCode
	HasLinked       bool

	Diagnoses  []codes.DiagnosisCode
	Procedures []stay.Procedure

	Errors []int
}

// Aggregate merges cluster (non-empty, same ordering as ingested) into a
// StayAggregate, consulting idx for the main-diagnosis attribute bytes the
// main-stay picker needs.
func Aggregate(clusterStays []stay.Stay, idx *tables.TableIndex) *StayAggregate {
	first := clusterStays[0]
	last := clusterStays[len(clusterStays)-1]

	agg := &StayAggregate{
		StayID:    first.StayID,
		BillID:    first.BillID,
		Birthdate: first.Birthdate,
		Sex:       first.Sex,
		From:      first.From,
		To:        last.To,
		Entry:     first.Entry,
		Exit:      last.Exit,
		Unit:      first.Unit,

		MainDiagnosis:   first.MainDiagnosis,
		LinkedDiagnosis: first.LinkedDiagnosis,
		HasLinked:       first.HasLinked,
	}

	for i := range clusterStays {
		s := &clusterStays[i]

		agg.Duration += s.To.Sub(s.From)

		if s.Igs2 > agg.Igs2 {
			agg.Igs2 = s.Igs2
		}

		if s.GestationalAge > agg.GestationalAge {
			agg.GestationalAge = s.GestationalAge
		}

		if s.NewbornWeight > agg.NewbornWeight {
			agg.NewbornWeight = s.NewbornWeight
		}

		agg.SessionCount += s.SessionCount

		if s.MainDiagnosis.IsZero() {
			agg.Errors = append(agg.Errors, ErrMissingMainDiagnosis)
		}

		if s.Birthdate.IsZero() {
			agg.Errors = append(agg.Errors, ErrMissingBirthdate)
		} else if s.Birthdate.Year() < 1880 || s.Birthdate.Year() > s.From.Year() {
			agg.Errors = append(agg.Errors, ErrImplausibleBirthdate)
		}

		if i > 0 && s.Birthdate != first.Birthdate {
			agg.Errors = append(agg.Errors, ErrBirthdateMismatch)
		}

		if i > 0 && s.Sex != first.Sex {
			agg.Errors = append(agg.Errors, ErrSexMismatch)
		}
	}

	agg.Age = computeAge(agg.Birthdate, agg.From)

	agg.Diagnoses = dedupDiagnoses(clusterStays)
	agg.Procedures = mergeProcedures(clusterStays)

	if len(clusterStays) > 1 {
		pickMainStay(clusterStays, agg, idx)
	}

	return agg
}

func computeAge(birth, at codes.Date) int {
	years := at.Year() - birth.Year()

	if at.Month() < birth.Month() || (at.Month() == birth.Month() && at.Day() < birth.Day()) {
		years--
	}

	if years < 0 {
		return 0
	}

	return years
}

func dedupDiagnoses(clusterStays []stay.Stay) []codes.DiagnosisCode {
	seen := map[codes.DiagnosisCode]bool{}

	var out []codes.DiagnosisCode

	add := func(c codes.DiagnosisCode) {
		if c.IsZero() || seen[c] {
			return
		}

		seen[c] = true
		out = append(out, c)
	}

	for i := range clusterStays {
		s := &clusterStays[i]

		add(s.MainDiagnosis)

		if s.HasLinked {
			add(s.LinkedDiagnosis)
		}

		for _, d := range s.AssociatedDiagnoses {
			add(d)
		}
	}

	sortDiagnoses(out)

	return out
}

func sortDiagnoses(d []codes.DiagnosisCode) {
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && string(d[j][:]) < string(d[j-1][:]); j-- {
			d[j], d[j-1] = d[j-1], d[j]
		}
	}
}

// mergeProcedures merges same (code, phase) procedures across fragments,
// OR-ing activities and summing counts clamped to 9999 (spec §4.3).
func mergeProcedures(clusterStays []stay.Stay) []stay.Procedure {
	type key struct {
		code  codes.ProcedureCode
		phase uint8
	}

	index := map[key]int{}

	var out []stay.Procedure

	for i := range clusterStays {
		for _, p := range clusterStays[i].Procedures {
			k := key{p.Code, p.Phase}

			if idx, ok := index[k]; ok {
				out[idx].Activities |= p.Activities
				out[idx].Count = clampCount(uint32(out[idx].Count) + uint32(p.Count))

				continue
			}

			index[k] = len(out)
			out = append(out, p)
		}
	}

	return out
}

func clampCount(v uint32) uint16 {
	return uint16(clampMax(v, 9999)) //nolint:gosec
}

// clampMax caps v at max, generic over ordered types; clampCount uses it for
// spec §4.3's 0..9999 procedure-count clamp. Grounded on db/guta.go's use of
// golang.org/x/exp/constraints for its own generic clamp/min helpers.
func clampMax[T constraints.Ordered](v, max T) T {
	if v > max {
		return max
	}

	return v
}
