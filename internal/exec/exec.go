package exec

import (
	"log/slog"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/variable"
)

// resultKind is the closed set of outcomes one command's execution can
// produce (spec §4.3).
type resultKind int

const (
	resContinue resultKind = iota
	resBreak
	resJump
	resExt
	resCentralExt
	resErr
)

// result is one command's outcome: a kind tag plus the one payload field
// that kind uses — the same tagged-union shape as command.Command and
// exec.Frame.
type result struct {
	kind resultKind

	jumpTo     int
	ext        *ExtCommand
	centralExt *CentralExtCommand
	err        error
}

// Outcome aggregates everything one Execute call produced: ext/central-ext
// commands queued for the post-phase drain (spec §4.4 steps 3-4), and any
// non-fatal errors logged along the way (spec §4.3, "Err(err): log; does
// not stop execution unless policy escalates").
type Outcome struct {
	Ext        []ExtCommand
	CentralExt []CentralExtCommand
	Errs       []error
}

// Execute walks prog.Commands from start to end (inclusive, spec §8
// invariant "0 ≤ s ≤ e < len(commands)"), maintaining an explicit call
// stack, and returns everything it could not apply immediately.
func Execute(ctx *Ctx, prog command.Program, start, end int) Outcome {
	var out Outcome
	var stack []Frame

	n := start
	for n <= end {
		cmd := prog.Commands[n]
		r := step(ctx, prog, cmd, n, &stack)

		switch r.kind {
		case resContinue:
			n++
		case resJump:
			n = r.jumpTo
		case resBreak:
			target, ok := unwindToLoop(&stack)
			if !ok {
				out.Errs = append(out.Errs, errs.New(errs.ScriptRuntime, "BreakOutsideLoop",
					"break with no enclosing for/loop").At(cmd.Loc))
				n++
				continue
			}
			n = target
		case resExt:
			out.Ext = append(out.Ext, *r.ext)
			n++
		case resCentralExt:
			out.CentralExt = append(out.CentralExt, *r.centralExt)
			n++
		case resErr:
			out.Errs = append(out.Errs, r.err)
			slog.Warn("command execution error", "error", r.err, "line", n)
			n++
		}
	}
	return out
}

// unwindToLoop pops frames until a ForIn or Loop frame is discarded (Open
// Question 2, DESIGN.md: break unwinds to the nearest loop frame,
// discarding any intermediate IfElse/Procedure/Component frames without
// running their end semantics), and returns the line to resume at.
func unwindToLoop(stack *[]Frame) (int, bool) {
	s := *stack
	for len(s) > 0 {
		top := s[len(s)-1]
		s = s[:len(s)-1]
		switch top.Kind {
		case FrameForIn:
			*stack = s
			return top.ForIn.End + 1, true
		case FrameLoop:
			*stack = s
			return top.Loop.End + 1, true
		}
	}
	*stack = s
	return 0, false
}

func step(ctx *Ctx, prog command.Program, cmd command.Command, n int, stack *[]Frame) result {
	switch cmd.Kind {
	case command.KindSet:
		v, err := ctx.resolveOperand(cmd.Set.Value)
		if err != nil {
			return errResult(err)
		}
		if err := ctx.setShortAddr(cmd.Set.Target, v); err != nil {
			return errResult(err)
		}
		return result{kind: resContinue}

	case command.KindGet:
		v, err := ctx.resolveShortAddr(cmd.Get.Source)
		if err != nil {
			return errResult(err)
		}
		if !cmd.Get.Output.VarName.IsEmpty() {
			if err := ctx.setShortAddr(cmd.Get.Output, v); err != nil {
				return errResult(err)
			}
		}
		return result{kind: resContinue}

	case command.KindPrint:
		parts := make([]any, 0, len(cmd.Print.Operands))
		for _, op := range cmd.Print.Operands {
			v, err := ctx.resolveOperand(op)
			if err != nil {
				return errResult(err)
			}
			parts = append(parts, v.ToString())
		}
		slog.Info("script print", "entity", ctx.Entity.ID, "component", ctx.Component.String(), "values", parts)
		return result{kind: resContinue}

	case command.KindPrintFmt:
		args := make([]any, 0, len(cmd.PrintFmt.Operands))
		for _, op := range cmd.PrintFmt.Operands {
			v, err := ctx.resolveOperand(op)
			if err != nil {
				return errResult(err)
			}
			args = append(args, v.ToString())
		}
		slog.Info("script printfmt", "entity", ctx.Entity.ID, "format", cmd.PrintFmt.Format, "args", args)
		return result{kind: resContinue}

	case command.KindEval:
		v, err := ctx.evalExpr(cmd.Eval.Expr)
		if err != nil {
			return errResult(err)
		}
		if !cmd.Eval.Output.VarName.IsEmpty() {
			if err := ctx.setShortAddr(cmd.Eval.Output, v); err != nil {
				return errResult(err)
			}
		}
		return result{kind: resContinue}

	case command.KindRange:
		lo, err := ctx.resolveOperand(cmd.Range.Lo)
		if err != nil {
			return errResult(err)
		}
		hi, err := ctx.resolveOperand(cmd.Range.Hi)
		if err != nil {
			return errResult(err)
		}
		loI, err := lo.ToInt()
		if err != nil {
			return errResult(err)
		}
		hiI, err := hi.ToInt()
		if err != nil {
			return errResult(err)
		}
		elems := make([]variable.Variable, 0, max0(int(hiI-loI)))
		for i := loI; i < hiI; i++ {
			elems = append(elems, variable.Int(i))
		}
		if !cmd.Range.Output.VarName.IsEmpty() {
			if err := ctx.setShortAddr(cmd.Range.Output, variable.List(elems)); err != nil {
				return errResult(err)
			}
		}
		return result{kind: resContinue}

	case command.KindIf:
		b, err := ctx.evalCondition(cmd.If.Cond)
		if err != nil {
			return errResult(err)
		}
		*stack = append(*stack, Frame{Kind: FrameIfElse, IfElse: &IfElseFrame{
			Passed: b, Start: cmd.If.Start, End: cmd.If.End, ElseLines: cmd.If.ElseLines,
		}})
		if b {
			return result{kind: resContinue}
		}
		if len(cmd.If.ElseLines) > 0 {
			return result{kind: resJump, jumpTo: cmd.If.ElseLines[0]}
		}
		return result{kind: resJump, jumpTo: cmd.If.End}

	case command.KindElseIf:
		frame, ok := topIfElse(*stack)
		if !ok {
			return errResult(errs.New(errs.ScriptRuntime, "BadNesting", "else_if with no enclosing if").At(cmd.Loc))
		}
		if frame.Passed {
			return result{kind: resJump, jumpTo: frame.End}
		}
		b, err := ctx.evalCondition(cmd.If.Cond)
		if err != nil {
			return errResult(err)
		}
		if b {
			frame.Passed = true
			return result{kind: resContinue}
		}
		if next, ok := nextElseLine(frame.ElseLines, n); ok {
			return result{kind: resJump, jumpTo: next}
		}
		return result{kind: resJump, jumpTo: frame.End}

	case command.KindElse:
		frame, ok := topIfElse(*stack)
		if !ok {
			return errResult(errs.New(errs.ScriptRuntime, "BadNesting", "else with no enclosing if").At(cmd.Loc))
		}
		if frame.Passed {
			return result{kind: resJump, jumpTo: frame.End}
		}
		frame.Passed = true
		return result{kind: resContinue}

	case command.KindEnd:
		return stepEnd(ctx, stack)

	case command.KindForIn:
		v, err := ctx.resolveOperand(cmd.ForIn.Target)
		if err != nil {
			return errResult(err)
		}
		length, err := v.Len()
		if err != nil {
			return errResult(err)
		}
		warnIfNegative(v)
		frame := &ForInFrame{Target: v, TargetLen: length, IterVar: cmd.ForIn.Var, Iteration: 0, Start: cmd.ForIn.Start, End: cmd.ForIn.End}
		*stack = append(*stack, Frame{Kind: FrameForIn, ForIn: frame})
		if length == 0 {
			return result{kind: resJump, jumpTo: cmd.ForIn.End + 1}
		}
		ctx.setLocal(cmd.ForIn.Var, iterValue(v, 0))
		return result{kind: resContinue}

	case command.KindLoop:
		frame := &LoopFrame{Cond: cmd.Loop.Cond, Start: cmd.Loop.Start, End: cmd.Loop.End}
		if frame.Cond != nil {
			b, err := ctx.evalCondition(*frame.Cond)
			if err != nil {
				return errResult(err)
			}
			if !b {
				return result{kind: resJump, jumpTo: cmd.Loop.End + 1}
			}
		}
		*stack = append(*stack, Frame{Kind: FrameLoop, Loop: frame})
		return result{kind: resContinue}

	case command.KindBreak:
		return result{kind: resBreak}

	case command.KindProcedure:
		return result{kind: resJump, jumpTo: cmd.Procedure.End + 1}

	case command.KindCall:
		r, ok := prog.Procedures[cmd.Call.Name.String()]
		if !ok {
			return errResult(errs.New(errs.ScriptRuntime, "UnknownProcedure", "no such procedure %q", cmd.Call.Name.String()).At(cmd.Loc))
		}
		*stack = append(*stack, Frame{Kind: FrameProcedure, Procedure: &ProcedureFrame{CallLine: n, Start: r.Start, End: r.End}})
		return result{kind: resJump, jumpTo: r.Start + 1}

	case command.KindState:
		return result{kind: resContinue}

	case command.KindComponent:
		// Nested component declarations are fully resolved by command.Build
		// into their own nested Program (see command.ComponentArgs.Body)
		// and registered by model.Load; the flat entry left in the parent
		// program is a structural marker only, never executed as flow.
		return result{kind: resContinue}

	case command.KindRegPrefab, command.KindRegExtend, command.KindRegSim:
		return result{kind: resCentralExt, centralExt: &CentralExtCommand{RequestingEntity: ctx.Entity.ID, Cmd: cmd}}

	case command.KindExtGet:
		return result{kind: resExt, ext: &ExtCommand{
			Kind: ExtGet, RequestingEntity: ctx.Entity.ID, Target: cmd.ExtGet.Source, Output: cmd.ExtGet.Output,
		}}

	case command.KindExtSet:
		v, err := ctx.resolveOperand(cmd.ExtSet.Value)
		if err != nil {
			return errResult(err)
		}
		return result{kind: resExt, ext: &ExtCommand{
			Kind: ExtSet, RequestingEntity: ctx.Entity.ID, Target: cmd.ExtSet.Target, Value: v,
		}}

	case command.KindLibCall:
		return errResult(errs.New(errs.ScriptRuntime, "LibCallUnavailable",
			"libcall %s.%s: no dynamic library host is configured", cmd.LibCall.Library, cmd.LibCall.Function).At(cmd.Loc))

	default:
		return errResult(errs.New(errs.ScriptRuntime, "UnknownCommand", "unhandled command kind %v", cmd.Kind).At(cmd.Loc))
	}
}

// stepEnd implements spec §4.3's "end" dispatch: it behaves differently
// depending on what kind of frame is on top of the stack.
func stepEnd(ctx *Ctx, stack *[]Frame) result {
	s := *stack
	if len(s) == 0 {
		return result{kind: resContinue}
	}
	top := s[len(s)-1]
	s = s[:len(s)-1]
	*stack = s

	switch top.Kind {
	case FrameForIn:
		f := top.ForIn
		f.Iteration++
		if f.Iteration < f.TargetLen {
			*stack = append(*stack, top)
			ctx.setLocal(f.IterVar, iterValue(f.Target, f.Iteration))
			return result{kind: resJump, jumpTo: f.Start + 1}
		}
		return result{kind: resContinue}

	case FrameLoop:
		f := top.Loop
		if f.Cond == nil {
			*stack = append(*stack, top)
			return result{kind: resJump, jumpTo: f.Start + 1}
		}
		b, err := ctx.evalCondition(*f.Cond)
		if err != nil {
			return errResult(err)
		}
		if b {
			*stack = append(*stack, top)
			return result{kind: resJump, jumpTo: f.Start + 1}
		}
		return result{kind: resContinue}

	case FrameProcedure:
		return result{kind: resJump, jumpTo: top.Procedure.CallLine + 1}

	default: // FrameIfElse, FrameComponent
		return result{kind: resContinue}
	}
}

func topIfElse(stack []Frame) (*IfElseFrame, bool) {
	if len(stack) == 0 || stack[len(stack)-1].Kind != FrameIfElse {
		return nil, false
	}
	return stack[len(stack)-1].IfElse, true
}

func nextElseLine(lines []int, current int) (int, bool) {
	for _, l := range lines {
		if l > current {
			return l, true
		}
	}
	return 0, false
}

func iterValue(v variable.Variable, i int) variable.Variable {
	if v.Kind() == variable.KindList {
		list, _ := v.AsList()
		if i < len(list) {
			return list[i]
		}
	}
	return variable.Int(variable.IntT(i))
}

// warnIfNegative logs when a "for v in target" target is a negative
// number, per Open Question 1 (DESIGN.md): iterate 0 times rather than
// erroring, but surface it since it is almost always a script bug.
func warnIfNegative(v variable.Variable) {
	switch v.Kind() {
	case variable.KindInt:
		if i, _ := v.AsInt(); i < 0 {
			slog.Warn("for loop target is negative, iterating zero times", "value", i)
		}
	case variable.KindFloat:
		if f, _ := v.AsFloat(); f < 0 {
			slog.Warn("for loop target is negative, iterating zero times", "value", f)
		}
	}
}

func errResult(err error) result {
	return result{kind: resErr, err: err}
}

func max0(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
