package stay

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/codes"
)

type sliceIngestor struct {
	stays []Stay
	i     int
}

func (s *sliceIngestor) Scan() bool {
	if s.i >= len(s.stays) {
		return false
	}

	s.i++

	return true
}

func (s *sliceIngestor) Stay() Stay { return s.stays[s.i-1] }
func (s *sliceIngestor) Err() error { return nil }

func TestBuild(t *testing.T) {
	Convey("Build drains an Ingestor into a sorted StaySet", t, func() {
		ing := &sliceIngestor{stays: []Stay{
			{StayID: 1, MainDiagnosis: mustDiag("I10")},
			{StayID: 1, MainDiagnosis: mustDiag("I11")},
			{StayID: 2, MainDiagnosis: mustDiag("Z515")},
		}}

		set, err := Build(ing)
		So(err, ShouldBeNil)
		So(set.Len(), ShouldEqual, 3)
		So(set.At(0).StayID, ShouldEqual, uint32(1))
		So(set.At(2).StayID, ShouldEqual, uint32(2))
	})

	Convey("Add rejects stays out of StayID order", t, func() {
		set := &StaySet{}
		So(set.Add(Stay{StayID: 2}), ShouldBeNil)
		So(set.Add(Stay{StayID: 1}), ShouldEqual, ErrOutOfOrder)
	})
}

func mustDiag(s string) codes.DiagnosisCode {
	c, err := codes.ParseDiagnosis(s)
	if err != nil {
		panic(err)
	}

	return c
}
