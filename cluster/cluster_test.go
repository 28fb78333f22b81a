package cluster

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/stay"
)

func TestAll(t *testing.T) {
	Convey("StayModes groups consecutive same-stay_id fragments with session_count 0 and entry mode 0/6", t, func() {
		stays := []stay.Stay{
			{StayID: 1, SessionCount: 0, Entry: stay.Movement{Mode: 0}},
			{StayID: 1, SessionCount: 0, Entry: stay.Movement{Mode: 6}},
			{StayID: 2, SessionCount: 0, Entry: stay.Movement{Mode: 0}},
		}

		clusters := All(stays, StayModes)
		So(len(clusters), ShouldEqual, 2)
		So(len(clusters[0]), ShouldEqual, 2)
		So(len(clusters[1]), ShouldEqual, 1)
	})

	Convey("A non-zero session_count breaks the cluster even with the same stay_id", t, func() {
		stays := []stay.Stay{
			{StayID: 1, SessionCount: 0},
			{StayID: 1, SessionCount: 1},
		}

		clusters := All(stays, StayModes)
		So(len(clusters), ShouldEqual, 2)
	})

	Convey("BillID groups consecutive stays sharing a non-zero bill_id", t, func() {
		stays := []stay.Stay{
			{StayID: 1, BillID: 7},
			{StayID: 2, BillID: 7},
			{StayID: 3, BillID: 0},
			{StayID: 4, BillID: 0},
		}

		clusters := All(stays, BillID)
		So(len(clusters), ShouldEqual, 3)
		So(len(clusters[0]), ShouldEqual, 2)
		So(len(clusters[1]), ShouldEqual, 1)
		So(len(clusters[2]), ShouldEqual, 1)
	})

	Convey("Disable puts every stay in its own cluster", t, func() {
		stays := []stay.Stay{{StayID: 1}, {StayID: 1}, {StayID: 1}}

		clusters := All(stays, Disable)
		So(len(clusters), ShouldEqual, 3)
	})

	Convey("P4: clusters concatenate back to the original sequence", t, func() {
		stays := []stay.Stay{
			{StayID: 1}, {StayID: 2}, {StayID: 2}, {StayID: 3},
		}

		clusters := All(stays, BillID)

		var total int
		for _, c := range clusters {
			So(len(c), ShouldBeGreaterThan, 0)
			total += len(c)
		}

		So(total, ShouldEqual, len(stays))
	})
}
