package classtree

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/aggregate"
	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

func mustGhm(s string) codes.GhmCode {
	g, err := codes.ParseGhm(s)
	if err != nil {
		panic(err)
	}

	return g
}

func TestEvalBranches(t *testing.T) {
	nodes := []tables.GhmDecisionNode{
		{Function: 22, Params: [2]uint8{0, 5}, ChildrenIdx: 1, ChildrenCount: 2},
		{Function: 12, Ghm: mustGhm("04C02A")},
		{Function: 12, Ghm: mustGhm("04C02B")},
	}

	Convey("A duration below the threshold takes the true branch", t, func() {
		agg := &aggregate.StayAggregate{Duration: 3}
		ctx := NewContext(nil, agg)

		ghm, errs := Eval(ctx, nodes, 0)
		So(ghm.String(), ShouldEqual, "04C02B")
		So(errs, ShouldBeEmpty)
	})

	Convey("A duration at or above the threshold takes the false branch", t, func() {
		agg := &aggregate.StayAggregate{Duration: 10}
		ctx := NewContext(nil, agg)

		ghm, errs := Eval(ctx, nodes, 0)
		So(ghm.String(), ShouldEqual, "04C02A")
		So(errs, ShouldBeEmpty)
	})

	Convey("A terminal node's non-zero Error is appended to the result", t, func() {
		errNodes := []tables.GhmDecisionNode{
			{Function: 12, Ghm: codes.ErrorGhm, Error: 40},
		}

		agg := &aggregate.StayAggregate{}
		ctx := NewContext(nil, agg)

		ghm, errs := Eval(ctx, errNodes, 0)
		So(ghm.IsError(), ShouldBeTrue)
		So(errs, ShouldResemble, []int{40})
	})

	Convey("An unrecognized function surfaces as interpreter error 4", t, func() {
		badNodes := []tables.GhmDecisionNode{
			{Function: 250, ChildrenIdx: 1, ChildrenCount: 1},
		}

		agg := &aggregate.StayAggregate{}
		ctx := NewContext(nil, agg)

		ghm, errs := Eval(ctx, badNodes, 0)
		So(ghm.IsError(), ShouldBeTrue)
		So(errs, ShouldContain, ErrInterpreter)
	})
}

func TestFunction34SwapsMainLinked(t *testing.T) {
	Convey("Function 34 swaps main/linked when the linked diagnosis's (cmd, jump) say so", t, func() {
		main := mustDiag("I10")
		linked := mustDiag("Z515")

		idx := &tables.TableIndex{
			Diagnoses: []tables.DiagnosisInfo{
				{Code: linked, Attributes: [2]tables.DiagnosisAttributes{{Cmd: 1, Jump: 0}, {Cmd: 1, Jump: 0}}},
			},
		}

		agg := &aggregate.StayAggregate{
			MainDiagnosis: main, LinkedDiagnosis: linked, HasLinked: true,
		}

		ctx := NewContext(idx, agg)

		r, ok := call(ctx, 34, [2]uint8{})
		So(ok, ShouldBeTrue)
		So(r, ShouldEqual, 0)
		So(ctx.MainDiagnosis, ShouldEqual, linked)
		So(ctx.LinkedDiagnosis, ShouldEqual, main)
	})
}

func mustDiag(s string) codes.DiagnosisCode {
	c, err := codes.ParseDiagnosis(s)
	if err != nil {
		panic(err)
	}

	return c
}
