package aggregate

import (
	"github.com/wtsi-hgi/mco-ghm/stay"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

// byte21TraumaMask/byte21ScoreMask/byte21BumpMask are the bit positions spec
// §4.3 reads off a fragment's main-diagnosis attribute byte 21.
const (
	byte21TraumaMask = 0x04
	byte21ScoreMask  = 0x20
	byte21BumpMask   = 0x02
)

// zDiagnoses are the three childbirth-surveillance codes that make a
// fragment a "Z-stay" candidate (spec §4.3).
var zDiagnoses = map[string]bool{"Z515": true, "Z502": true, "Z503": true}

// pickMainStay implements spec §4.3's main-stay picker: it overwrites
// agg.MainDiagnosis/LinkedDiagnosis in place with whichever fragment's
// diagnoses should drive the GHM. Only called for clusters of length > 1.
func pickMainStay(clusterStays []stay.Stay, agg *StayAggregate, idx *tables.TableIndex) {
	for i := range clusterStays {
		for _, p := range clusterStays[i].Procedures {
			if p.Raw[0]&0x80 != 0 && p.Raw[23]&0x80 == 0 {
				applyMainStay(agg, &clusterStays[i])

				return
			}
		}
	}

	durations := make([]int, len(clusterStays))
	for i := range clusterStays {
		durations[i] = clusterStays[i].To.Sub(clusterStays[i].From)
	}

	var (
		zStayIdx    = -1
		zStayDur    int
		maxDurSoFar int

		lastTraumaIdx = -1
		traumaStayIdx = -1
		trackTrauma   = true

		baseScore int

		scoreIdx  int
		bestScore = int(^uint(0) >> 1)
	)

	for i := range clusterStays {
		s := &clusterStays[i]
		dur := durations[i]

		// stay_score snapshots base_score before this fragment's own +100
		// bump below, so a fragment's bump only affects later fragments.
		stayScore := baseScore

		if zDiagnoses[s.MainDiagnosis.String()] && dur > zStayDur && dur >= maxDurSoFar {
			zStayIdx = i
			zStayDur = dur
		}

		byte21 := mainDiagByte(idx, s, 21)

		if trackTrauma {
			if byte21&byte21TraumaMask != 0 {
				lastTraumaIdx = i

				if dur > maxDurSoFar {
					traumaStayIdx = i
				}
			} else {
				trackTrauma = false
			}
		}

		if dur >= 2 && byte21&byte21ScoreMask == 0 {
			baseScore += 100
		}

		priority := procPriority(s.Procedures, agg.Duration)

		priorityWeights := [4]int{0, 9999, 99999, 999999}
		corrections := -priorityWeights[priority]

		if byte21&byte21ScoreMask != 0 {
			corrections += 150
		}

		if byte21&byte21BumpMask != 0 {
			corrections += 201
		}

		switch dur {
		case 0:
			corrections += 2
		case 1:
			corrections++
		}

		stayScore += corrections

		if stayScore < bestScore {
			bestScore = stayScore
			scoreIdx = i
		}

		if dur > maxDurSoFar {
			maxDurSoFar = dur
		}
	}

	switch {
	case zStayIdx >= 0:
		applyMainStay(agg, &clusterStays[zStayIdx])
	case lastTraumaIdx >= 0 && lastTraumaIdx >= scoreIdx && traumaStayIdx >= 0:
		applyMainStay(agg, &clusterStays[traumaStayIdx])
	default:
		applyMainStay(agg, &clusterStays[scoreIdx])
	}
}

func applyMainStay(agg *StayAggregate, s *stay.Stay) {
	agg.MainDiagnosis = s.MainDiagnosis
	agg.LinkedDiagnosis = s.LinkedDiagnosis
	agg.HasLinked = s.HasLinked
}

// procPriority derives the 0..3 priority spec §4.3 rule 2 describes: the
// highest priority any procedure on the fragment earns (a bytes[38] match
// returns 3 at once; otherwise the larger of the bytes[39] bands wins).
func procPriority(procs []stay.Procedure, duration int) int {
	priority := 0

	for _, p := range procs {
		if p.Raw[38]&0x02 != 0 {
			return 3
		}

		if duration <= 1 && p.Raw[39]&0x80 != 0 && priority < 2 {
			priority = 2
		}

		if duration == 0 && p.Raw[39]&0x40 != 0 && priority < 1 {
			priority = 1
		}
	}

	return priority
}

// mainDiagByte reads byte i of the fragment's main-diagnosis attribute
// block for its sex, or 0 if the diagnosis is unknown to idx.
func mainDiagByte(idx *tables.TableIndex, s *stay.Stay, i int) uint8 {
	if idx == nil {
		return 0
	}

	info, ok := idx.Diagnosis(s.MainDiagnosis)
	if !ok {
		return 0
	}

	attrs := info.Attributes[s.Sex.Index()]
	if i < 0 || i >= len(attrs.Raw) {
		return 0
	}

	return attrs.Raw[i]
}
