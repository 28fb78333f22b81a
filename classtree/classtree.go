// Package classtree interprets the versioned GHM decision tree (spec
// §4.4): a flat, arena-of-indices node graph walked by a tight loop that
// dispatches to one of the test functions numbered 0..43 per node.
package classtree

import (
	"github.com/wtsi-hgi/mco-ghm/aggregate"
	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/stay"
	"github.com/wtsi-hgi/mco-ghm/tables"
)

// ErrInterpreter is classification error 4: an unrecognized test function,
// an out-of-range test result, or exceeding the iteration safety counter
// (spec §4.4, §9).
const ErrInterpreter = 4

// Context is the mutable state threaded through one classification's tree
// walk (spec §4.4/§9: "threading this as an explicit mutable struct...
// makes concurrent classification natural").
type Context struct {
	Index *tables.TableIndex
	Agg   *aggregate.StayAggregate

	Diagnoses  []codes.DiagnosisCode
	Procedures []stay.Procedure

	MainDiagnosis   codes.DiagnosisCode
	LinkedDiagnosis codes.DiagnosisCode
	HasLinked       bool

	origMainDiagnosis codes.DiagnosisCode

	gnn      int32
	gnnKnown bool

	Errors []int
}

// NewContext builds the interpreter context for one aggregate's
// classification.
func NewContext(idx *tables.TableIndex, agg *aggregate.StayAggregate) *Context {
	return &Context{
		Index:             idx,
		Agg:               agg,
		Diagnoses:         agg.Diagnoses,
		Procedures:        agg.Procedures,
		MainDiagnosis:     agg.MainDiagnosis,
		LinkedDiagnosis:   agg.LinkedDiagnosis,
		HasLinked:         agg.HasLinked,
		origMainDiagnosis: agg.MainDiagnosis,
	}
}

// Eval walks nodes starting at root, returning the terminal Ghm node
// reached, or the canonical error GHM with error 4 appended if the
// iteration limit is exceeded or a function misbehaves (spec §4.4, §9).
func Eval(ctx *Context, nodes []tables.GhmDecisionNode, root uint32) (codes.GhmCode, []int) {
	idx := root
	limit := len(nodes)

	for steps := 0; steps <= limit; steps++ {
		if int(idx) >= len(nodes) {
			ctx.Errors = append(ctx.Errors, ErrInterpreter)

			return codes.ErrorGhm, ctx.Errors
		}

		node := nodes[idx]

		if node.IsTerminal() {
			if node.Error != 0 {
				ctx.Errors = append(ctx.Errors, int(node.Error))
			}

			return node.Ghm, ctx.Errors
		}

		r, ok := call(ctx, node.Function, node.Params)
		if !ok || r < 0 || uint8(r) >= node.ChildrenCount {
			ctx.Errors = append(ctx.Errors, ErrInterpreter)

			return codes.ErrorGhm, ctx.Errors
		}

		if node.IsJump() {
			idx = node.ChildrenIdx

			continue
		}

		idx = node.ChildrenIdx + uint32(r)
	}

	ctx.Errors = append(ctx.Errors, ErrInterpreter)

	return codes.ErrorGhm, ctx.Errors
}
