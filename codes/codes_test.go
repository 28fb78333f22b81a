package codes

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDiagnosisCode(t *testing.T) {
	Convey("A diagnosis code canonicalizes trailing '+' characters", t, func() {
		c, err := ParseDiagnosis("I10++")
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "I10")

		c2, err := ParseDiagnosis("I109")
		So(err, ShouldBeNil)
		So(c2.String(), ShouldEqual, "I109")

		c3, err := ParseDiagnosis("i10")
		So(err, ShouldBeNil)
		So(c3, ShouldEqual, c)
	})

	Convey("Invalid diagnosis codes are rejected", t, func() {
		_, err := ParseDiagnosis("1I0")
		So(err, ShouldEqual, ErrInvalidCode)

		_, err = ParseDiagnosis("IX0")
		So(err, ShouldEqual, ErrInvalidCode)

		_, err = ParseDiagnosis("I1")
		So(err, ShouldEqual, ErrInvalidCode)
	})

	Convey("P3: every valid diagnosis code round-trips", t, func() {
		for _, s := range []string{"A009", "Z515", "I109", "P220", "A00"} {
			c, err := ParseDiagnosis(s)
			So(err, ShouldBeNil)

			back, err := ParseDiagnosis(c.String())
			So(err, ShouldBeNil)
			So(back, ShouldEqual, c)
		}
	})
}

func TestProcedureCode(t *testing.T) {
	Convey("P3: procedure codes round-trip", t, func() {
		c, err := ParseProcedure("aaaa001")
		So(err, ShouldBeNil)
		So(c.String(), ShouldEqual, "AAAA001")

		back, err := ParseProcedure(c.String())
		So(err, ShouldBeNil)
		So(back, ShouldEqual, c)
	})

	Convey("Procedure codes must be exactly 7 characters", t, func() {
		_, err := ParseProcedure("AAAA01")
		So(err, ShouldEqual, ErrInvalidCode)
	})
}

func TestGhmCode(t *testing.T) {
	Convey("P3: GHM codes round-trip", t, func() {
		g, err := ParseGhm("04C02J")
		So(err, ShouldBeNil)
		So(g.String(), ShouldEqual, "04C02J")

		back, err := ParseGhm(g.String())
		So(err, ShouldBeNil)
		So(back, ShouldEqual, g)
	})

	Convey("ErrorGhm is 90Z03Z and reports IsError", t, func() {
		So(ErrorGhm.String(), ShouldEqual, "90Z03Z")
		So(ErrorGhm.IsError(), ShouldBeTrue)
	})
}

func TestSex(t *testing.T) {
	Convey("ParseSex accepts only 1 and 2", t, func() {
		s, err := ParseSex(1)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, Male)

		s, err = ParseSex(2)
		So(err, ShouldBeNil)
		So(s, ShouldEqual, Female)

		_, err = ParseSex(3)
		So(err, ShouldEqual, ErrInvalidSex)
	})
}

func TestDate(t *testing.T) {
	Convey("Date round-trips through civil construction", t, func() {
		d, ok := NewDate(2024, 3, 15)
		So(ok, ShouldBeTrue)
		So(d.Year(), ShouldEqual, 2024)
		So(d.Month(), ShouldEqual, uint8(3))
		So(d.Day(), ShouldEqual, uint8(15))
	})

	Convey("Sub computes day differences", t, func() {
		from, _ := NewDate(2024, 1, 1)
		to, _ := NewDate(2024, 1, 10)
		So(to.Sub(from), ShouldEqual, 9)
		So(from.Sub(to), ShouldEqual, -9)
	})

	Convey("Ordering is consistent with chronological order", t, func() {
		a, _ := NewDate(2023, 12, 31)
		b, _ := NewDate(2024, 1, 1)
		So(a.Before(b), ShouldBeTrue)
		So(a.Compare(b), ShouldEqual, -1)
	})
}
