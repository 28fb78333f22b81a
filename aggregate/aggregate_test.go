package aggregate

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/stay"
)

func mustDate(y int, m, d uint8) codes.Date {
	date, ok := codes.NewDate(y, m, d)
	if !ok {
		panic("bad date")
	}

	return date
}

func mustDiag(s string) codes.DiagnosisCode {
	c, err := codes.ParseDiagnosis(s)
	if err != nil {
		panic(err)
	}

	return c
}

func TestAggregateSingleStay(t *testing.T) {
	Convey("A single-fragment cluster aggregates without consulting the main-stay picker", t, func() {
		birth := mustDate(2000, 1, 1)
		from := mustDate(2024, 6, 1)
		to := mustDate(2024, 6, 5)

		s := stay.Stay{
			StayID:        1,
			Birthdate:     birth,
			Sex:           codes.Male,
			From:          from,
			To:            to,
			MainDiagnosis: mustDiag("I10"),
			AssociatedDiagnoses: []codes.DiagnosisCode{
				mustDiag("I10"), mustDiag("Z515"),
			},
		}

		agg := Aggregate([]stay.Stay{s}, nil)

		So(agg.Duration, ShouldEqual, 4)
		So(agg.Age, ShouldEqual, 24)
		So(agg.MainDiagnosis, ShouldEqual, s.MainDiagnosis)
		So(len(agg.Diagnoses), ShouldEqual, 2)
		So(len(agg.Errors), ShouldEqual, 0)
	})

	Convey("A missing main diagnosis raises ErrMissingMainDiagnosis", t, func() {
		s := stay.Stay{StayID: 1, Birthdate: mustDate(2000, 1, 1), From: mustDate(2024, 1, 1), To: mustDate(2024, 1, 2)}

		agg := Aggregate([]stay.Stay{s}, nil)
		So(agg.Errors, ShouldContain, ErrMissingMainDiagnosis)
	})

	Convey("A birthdate mismatch across fragments raises ErrBirthdateMismatch", t, func() {
		from := mustDate(2024, 1, 1)
		s1 := stay.Stay{
			StayID: 1, Birthdate: mustDate(2000, 1, 1), From: from, To: from,
			MainDiagnosis: mustDiag("I10"),
		}
		s2 := stay.Stay{
			StayID: 1, Birthdate: mustDate(1999, 1, 1), From: from, To: from,
			MainDiagnosis: mustDiag("I10"),
		}

		agg := Aggregate([]stay.Stay{s1, s2}, nil)
		So(agg.Errors, ShouldContain, ErrBirthdateMismatch)
	})
}

func TestMergeProcedures(t *testing.T) {
	Convey("Same (code, phase) procedures merge activities and counts across fragments", t, func() {
		code := mustProc("AAAA001")

		s1 := stay.Stay{
			StayID: 1, MainDiagnosis: mustDiag("I10"),
			Procedures: []stay.Procedure{{Code: code, Phase: 1, Count: 1, Activities: 0x1}},
		}
		s2 := stay.Stay{
			StayID: 1, MainDiagnosis: mustDiag("I10"),
			Procedures: []stay.Procedure{{Code: code, Phase: 1, Count: 2, Activities: 0x2}},
		}

		agg := Aggregate([]stay.Stay{s1, s2}, nil)
		So(len(agg.Procedures), ShouldEqual, 1)
		So(agg.Procedures[0].Count, ShouldEqual, uint16(3))
		So(agg.Procedures[0].Activities, ShouldEqual, uint32(0x3))
	})
}

func mustProc(s string) codes.ProcedureCode {
	c, err := codes.ParseProcedure(s)
	if err != nil {
		panic(err)
	}

	return c
}
