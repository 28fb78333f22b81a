package severity

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/aggregate"
	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

func TestLimitSeverity(t *testing.T) {
	Convey("LimitSeverity drops severity until its duration floor is met", t, func() {
		So(LimitSeverity(3, 5), ShouldEqual, uint8(3))
		So(LimitSeverity(3, 4), ShouldEqual, uint8(2))
		So(LimitSeverity(3, 3), ShouldEqual, uint8(1))
		So(LimitSeverity(3, 0), ShouldEqual, uint8(0))
		So(LimitSeverity(0, 0), ShouldEqual, uint8(0))
	})
}

func TestAdjust(t *testing.T) {
	root := tables.GhmRootInfo{
		Code:                  mustRoot("04C02"),
		AllowAmbulatory:       true,
		ShortDurationTreshold: 2,
	}

	idx := &tables.TableIndex{GhmRoots: []tables.GhmRootInfo{root}}

	Convey("An empty mode with zero duration on an ambulatory root becomes J", t, func() {
		ghm := codes.GhmCode{Root: root.Code, Mode: 0}
		agg := &aggregate.StayAggregate{Duration: 0}

		mode := Adjust(ghm, agg, idx)
		So(mode, ShouldEqual, byte('J'))
	})

	Convey("A severity mode A..D is capped by LimitSeverity against the aggregate duration", t, func() {
		ghm := codes.GhmCode{Root: root.Code, Mode: 'D'}
		agg := &aggregate.StayAggregate{Duration: 3}

		mode := Adjust(ghm, agg, idx)
		So(mode, ShouldEqual, byte('B'))
	})

	Convey("An unknown root returns the mode unchanged", t, func() {
		ghm := codes.GhmCode{Root: mustRoot("99Z99"), Mode: 'A'}
		agg := &aggregate.StayAggregate{}

		mode := Adjust(ghm, agg, idx)
		So(mode, ShouldEqual, byte('A'))
	})
}

func mustRoot(s string) codes.GhmRootCode {
	r, err := codes.ParseGhmRoot(s)
	if err != nil {
		panic(err)
	}

	return r
}
