package classify

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/stretchr/testify/require"

	"github.com/wtsi-hgi/mco-ghm/cluster"
	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/stay"
	"github.com/wtsi-hgi/mco-ghm/tables"
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

func mustGhm(s string) codes.GhmCode {
	g, err := codes.ParseGhm(s)
	if err != nil {
		panic(err)
	}

	return g
}

func testTableSet() *tables.TableSet {
	terminal := tables.GhmDecisionNode{Function: 12, Ghm: mustGhm("04C02J")}

	return &tables.TableSet{
		Indexes: []tables.TableIndex{
			{
				From:     mustDate(2020, 1, 1),
				To:       mustDate(2030, 1, 1),
				GhmNodes: []tables.GhmDecisionNode{terminal},
			},
		},
	}
}

func TestClassifySingleCluster(t *testing.T) {
	Convey("Classify produces one result per cluster and tags the error range", t, func() {
		set := testTableSet()

		driver := &Driver{Set: set, Mode: cluster.Disable}

		s := stay.Stay{
			StayID:        1,
			Birthdate:     mustDate(2000, 1, 1),
			From:          mustDate(2024, 6, 1),
			To:            mustDate(2024, 6, 5),
			MainDiagnosis: mustDiag("I10"),
		}

		run := driver.Classify([]stay.Stay{s})

		So(len(run.Results), ShouldEqual, 1)
		So(run.Results[0].Ghm.String(), ShouldEqual, "04C02J")
		So(run.Results[0].Ghm.IsError(), ShouldBeFalse)
	})

	Convey("A cluster whose exit date has no covering index classifies as error 502", t, func() {
		set := testTableSet()
		driver := &Driver{Set: set, Mode: cluster.Disable}

		s := stay.Stay{
			StayID:        1,
			Birthdate:     mustDate(2000, 1, 1),
			From:          mustDate(2040, 1, 1),
			To:            mustDate(2040, 1, 2),
			MainDiagnosis: mustDiag("I10"),
		}

		run := driver.Classify([]stay.Stay{s})
		So(run.Results[0].Ghm.IsError(), ShouldBeTrue)
		So(run.Errors[run.Results[0].ErrorStart], ShouldEqual, ErrNoIndex)
	})
}

func TestParallelismMatchesSequential(t *testing.T) {
	set := testTableSet()

	stays := []stay.Stay{
		{StayID: 1, Birthdate: mustDate(2000, 1, 1), From: mustDate(2024, 1, 1), To: mustDate(2024, 1, 2), MainDiagnosis: mustDiag("I10")},
		{StayID: 2, Birthdate: mustDate(2001, 1, 1), From: mustDate(2024, 2, 1), To: mustDate(2024, 2, 3), MainDiagnosis: mustDiag("Z515")},
		{StayID: 3, Birthdate: mustDate(2002, 1, 1), From: mustDate(2024, 3, 1), To: mustDate(2024, 3, 4), MainDiagnosis: mustDiag("A009")},
	}

	seq := (&Driver{Set: set, Mode: cluster.Disable}).Classify(stays)
	par := (&Driver{Set: set, Mode: cluster.Disable}).Parallelism(stays, 2)

	require.Equal(t, len(seq.Results), len(par.Results))

	for i := range seq.Results {
		require.Equal(t, seq.Results[i].Ghm, par.Results[i].Ghm)
		require.Equal(t, seq.Results[i].ClusterStart, par.Results[i].ClusterStart)
	}
}
