package pricing

import (
	"fmt"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/codes"
)

func line(ghs int, sector int, price, exh int64, date string, exb int64) string {
	return "110" + fmt.Sprintf("%04d%01d%08d%08d%s%08d", ghs, sector, price, exh, date, exb)
}

func TestLoadAndResolve(t *testing.T) {
	Convey("Load parses body records and chains consecutive from-dates", t, func() {
		input := strings.Join([]string{
			magicLine,
			line(1234, 1, 100000, 500, "20240101", 300),
			line(1234, 1, 0, 0, "20240601", 0),
		}, "\n")

		set, err := Load(strings.NewReader(input))
		So(err, ShouldBeNil)
		So(len(set.records), ShouldEqual, 2)

		date, _ := codes.NewDate(2024, 3, 1)

		price, err := set.Resolve(1234, 0, date, 5, 10, 2, false)
		So(err, ShouldBeNil)
		So(price, ShouldEqual, int64(100000))
	})

	Convey("A duration above the exh threshold adds exh_cents per extra day", t, func() {
		input := strings.Join([]string{
			magicLine,
			line(1234, 1, 100000, 500, "20240101", 300),
		}, "\n")

		set, err := Load(strings.NewReader(input))
		So(err, ShouldBeNil)

		date, _ := codes.NewDate(2024, 3, 1)

		price, err := set.Resolve(1234, 0, date, 12, 10, 2, false)
		So(err, ShouldBeNil)
		So(price, ShouldEqual, int64(100000+2*500))
	})

	Convey("Resolve returns ErrNoRecord outside any record's validity window", t, func() {
		input := strings.Join([]string{
			magicLine,
			line(1234, 1, 100000, 500, "20240101", 300),
		}, "\n")

		set, err := Load(strings.NewReader(input))
		So(err, ShouldBeNil)

		date, _ := codes.NewDate(2023, 1, 1)

		_, err = set.Resolve(1234, 0, date, 5, 10, 2, false)
		So(err, ShouldEqual, ErrNoRecord)
	})
}
