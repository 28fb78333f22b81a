// Package cluster partitions a sorted stay sequence into RSS groups (spec
// §4.2). This is the only step in the pipeline allowed to look across
// stays.
package cluster

import "github.com/wtsi-hgi/mco-ghm/stay"

// Mode selects the clustering rule.
type Mode uint8

const (
	// StayModes includes the first stay, then continues while the next
	// stay has session_count == 0, entry.mode in {0, 6}, and the same
	// stay_id.
	StayModes Mode = iota
	// BillID includes consecutive stays sharing the same non-zero bill_id.
	BillID
	// Disable makes every cluster exactly one stay.
	Disable
)

// Next consumes 1..N stays from the head of stays forming one cluster
// under mode, returning the cluster and the remainder. stays must be
// non-empty.
func Next(stays []stay.Stay, mode Mode) (cluster []stay.Stay, rest []stay.Stay) {
	if len(stays) == 0 {
		return nil, nil
	}

	if mode == Disable {
		return stays[:1], stays[1:]
	}

	n := 1

	for n < len(stays) {
		prev, next := stays[n-1], stays[n]

		if !continues(prev, next, mode) {
			break
		}

		n++
	}

	return stays[:n], stays[n:]
}

func continues(prev, next stay.Stay, mode Mode) bool {
	switch mode {
	case StayModes:
		return next.SessionCount == 0 &&
			(next.Entry.Mode == 0 || next.Entry.Mode == 6) &&
			next.StayID == prev.StayID
	case BillID:
		return next.BillID != 0 && next.BillID == prev.BillID
	default:
		return false
	}
}

// All partitions the full stay sequence into clusters under mode (spec
// §8 P4: concat(All(stays, mode)) == stays, every cluster non-empty).
func All(stays []stay.Stay, mode Mode) [][]stay.Stay {
	var clusters [][]stay.Stay

	for len(stays) > 0 {
		var c []stay.Stay

		c, stays = Next(stays, mode)
		clusters = append(clusters, c)
	}

	return clusters
}
