package classtree

import "github.com/wtsi-hgi/mco-ghm/codes"

// call dispatches node.Function against ctx, returning (result, ok). ok is
// false for an unrecognized function, which Eval turns into error 4 (spec
// §4.4).
func call(ctx *Context, function uint8, params [2]uint8) (int, bool) {
	switch function {
	case 0, 1:
		return int(diagByte(ctx, ctx.MainDiagnosis, int(params[0]))), true
	case 2:
		return boolInt(anyProcedureByte(ctx, params[0], params[1])), true
	case 3:
		return fn3(ctx, params), true
	case 5:
		return boolInt(diagByte(ctx, ctx.MainDiagnosis, int(params[0]))&params[1] != 0), true
	case 6:
		return boolInt(fn6(ctx, params)), true
	case 7:
		return boolInt(fn7(ctx, params)), true
	case 9:
		return boolInt(fn9(ctx, params)), true
	case 10:
		return boolInt(countProcedureMatches(ctx, params) >= 2), true
	case 13:
		return boolInt(diagByte(ctx, ctx.MainDiagnosis, int(params[0])) == params[1]), true
	case 14:
		return boolInt(int(ctx.Agg.Sex)-1 == int(params[0])-'1'), true
	case 18:
		return boolInt(fn18(ctx, params)), true
	case 19:
		return boolInt(fn19(ctx, params)), true
	case 20:
		return 0, true
	case 22:
		return boolInt(ctx.Agg.Duration < int(u16(params))), true
	case 26:
		return boolInt(diagByte(ctx, ctx.LinkedDiagnosis, int(params[0]))&params[1] != 0), true
	case 28:
		ctx.Errors = append(ctx.Errors, int(params[0]))

		return 0, true
	case 29:
		return boolInt(ctx.Agg.Duration == int(u16(params))), true
	case 30:
		return boolInt(int(ctx.Agg.SessionCount) == int(u16(params))), true
	case 33:
		return boolInt(anyProcedureActivity(ctx, params[0])), true
	case 34:
		return fn34(ctx), true
	case 35:
		return boolInt(ctx.MainDiagnosis != ctx.origMainDiagnosis), true
	case 36:
		return boolInt(fn36(ctx, params)), true
	case 38:
		return boolInt(fn38(ctx, params)), true
	case 39:
		fn39(ctx)

		return 0, true
	case 41:
		return boolInt(fn41(ctx, params, true)), true
	case 42:
		return boolInt(ctx.Agg.NewbornWeight > 0 && ctx.Agg.NewbornWeight < u16(params)), true
	case 43:
		return boolInt(fn41(ctx, params, false)), true
	default:
		return 0, false
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}

	return 0
}

func u16(params [2]uint8) uint16 {
	return uint16(params[0])<<8 | uint16(params[1])
}

// diagByte returns the attribute-block byte i for code, for the
// aggregate's sex, or 0 if code is unknown or i is out of range.
func diagByte(ctx *Context, code codes.DiagnosisCode, i int) uint8 {
	if code.IsZero() || ctx.Index == nil {
		return 0
	}

	info, ok := ctx.Index.Diagnosis(code)
	if !ok {
		return 0
	}

	attrs := info.Attributes[ctx.Agg.Sex.Index()]
	if i < 0 || i >= len(attrs.Raw) {
		return 0
	}

	return attrs.Raw[i]
}

func diagCmdJump(ctx *Context, code codes.DiagnosisCode) (cmd, jump uint8, ok bool) {
	if code.IsZero() || ctx.Index == nil {
		return 0, 0, false
	}

	info, found := ctx.Index.Diagnosis(code)
	if !found {
		return 0, 0, false
	}

	attrs := info.Attributes[ctx.Agg.Sex.Index()]

	return attrs.Cmd, attrs.Jump, true
}

func fn3(ctx *Context, params [2]uint8) bool {
	if params[1] == 1 {
		return ctx.Agg.From.Sub(ctx.Agg.Birthdate) > int(params[0])
	}

	return ctx.Agg.Age > int(params[0])
}

// fn6 scans diagnoses other than main/linked. The original production
// classifier's comment notes incomplete handling when params[0] >= 128
// (it only covers the FG 9/10 CMA branches); that gap is preserved as-is
// rather than guessed at.
func fn6(ctx *Context, params [2]uint8) bool {
	for _, d := range ctx.Diagnoses {
		if d == ctx.MainDiagnosis || (ctx.HasLinked && d == ctx.LinkedDiagnosis) {
			continue
		}

		if diagByte(ctx, d, int(params[0]))&params[1] != 0 {
			return true
		}
	}

	return false
}

func fn7(ctx *Context, params [2]uint8) bool {
	for _, d := range ctx.Diagnoses {
		if diagByte(ctx, d, int(params[0]))&params[1] != 0 {
			return true
		}
	}

	return false
}

func anyProcedureByte(ctx *Context, off, mask uint8) bool {
	for i := range ctx.Procedures {
		if ctx.Procedures[i].Raw[off]&mask != 0 {
			return true
		}
	}

	return false
}

func fn9(ctx *Context, params [2]uint8) bool {
	any := false

	for i := range ctx.Procedures {
		raw := ctx.Procedures[i].Raw

		if raw[0]&0x80 == 0 {
			continue
		}

		any = true

		if raw[params[0]]&params[1] == 0 {
			return false
		}
	}

	return any
}

func countProcedureMatches(ctx *Context, params [2]uint8) int {
	n := 0

	for i := range ctx.Procedures {
		if ctx.Procedures[i].Raw[params[0]]&params[1] != 0 {
			n++
		}
	}

	return n
}

func anyProcedureActivity(ctx *Context, bit uint8) bool {
	for i := range ctx.Procedures {
		if ctx.Procedures[i].Activities&(1<<bit) != 0 {
			return true
		}
	}

	return false
}

func fn18(ctx *Context, params [2]uint8) bool {
	matches := 0
	otherThanMainLinked := false

	for _, d := range ctx.Diagnoses {
		if diagByte(ctx, d, int(params[0]))&params[1] == 0 {
			continue
		}

		matches++

		if d != ctx.MainDiagnosis && !(ctx.HasLinked && d == ctx.LinkedDiagnosis) {
			otherThanMainLinked = true
		}
	}

	return matches >= 2 && otherThanMainLinked
}

func fn19(ctx *Context, params [2]uint8) bool {
	var v uint8

	switch params[1] {
	case 0:
		v = ctx.Agg.Exit.Mode
	case 1:
		v = ctx.Agg.Exit.Site
	case 2:
		v = ctx.Agg.Entry.Mode
	case 3:
		v = ctx.Agg.Entry.Site
	default:
		return false
	}

	return v == params[0]
}

func fn34(ctx *Context) int {
	if !ctx.HasLinked || ctx.LinkedDiagnosis != ctx.Agg.LinkedDiagnosis {
		return 0
	}

	cmd, jump, ok := diagCmdJump(ctx, ctx.LinkedDiagnosis)
	if !ok {
		return 0
	}

	if cmd != 0 || jump != 3 {
		ctx.MainDiagnosis, ctx.LinkedDiagnosis = ctx.LinkedDiagnosis, ctx.MainDiagnosis
	}

	return 0
}

func fn36(ctx *Context, params [2]uint8) bool {
	for _, d := range ctx.Diagnoses {
		if ctx.HasLinked && d == ctx.LinkedDiagnosis {
			continue
		}

		if diagByte(ctx, d, int(params[0]))&params[1] != 0 {
			return true
		}
	}

	return false
}

func fn38(ctx *Context, params [2]uint8) bool {
	if !ctx.gnnKnown {
		fn39(ctx)
	}

	return ctx.gnn >= int32(params[0]) && ctx.gnn <= int32(params[1])
}

func fn39(ctx *Context) {
	ctx.gnnKnown = true
	ctx.gnn = 0

	if ctx.Index == nil {
		return
	}

	gestAge := int32(ctx.Agg.GestationalAge)
	if gestAge == 0 {
		gestAge = 99
	}

	for _, cell := range ctx.Index.GnnCells {
		if cell.Matches(int32(ctx.Agg.NewbornWeight), gestAge) {
			ctx.gnn = cell.Value

			return
		}
	}
}

func fn41(ctx *Context, params [2]uint8, includeLinked bool) bool {
	for _, d := range ctx.Diagnoses {
		if !includeLinked && ctx.HasLinked && d == ctx.LinkedDiagnosis {
			continue
		}

		cmd, jump, ok := diagCmdJump(ctx, d)
		if !ok {
			continue
		}

		if cmd == params[0] && jump == params[1] {
			return true
		}
	}

	return false
}
