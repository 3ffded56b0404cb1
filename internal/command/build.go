package command

import (
	"strconv"
	"strings"

	"github.com/sarchlab/outcome/internal/address"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/script"
	"github.com/sarchlab/outcome/internal/variable"
)

// Build converts a preprocessed prototype stream into a Program: a flat
// Command vector plus the state/procedure range tables, with block
// commands resolved to their matching "end" in one forward pass (spec
// §4.2). "component" blocks are the one exception: their body compiles
// into its own Program (re-indexed from 0) rather than staying inline, so
// a component's Logic never carries another component's commands.
func Build(protos []script.Prototype) (Program, error) {
	b := &builder{
		states:     map[string]Range{},
		procedures: map[string]Range{},
	}
	if err := b.run(protos); err != nil {
		return Program{}, err
	}
	if len(b.stack) != 0 {
		top := b.stack[len(b.stack)-1]
		return Program{}, errs.New(errs.ScriptRuntime, "BadNesting", "unterminated %q block", top.name).At(top.loc)
	}
	return Program{Commands: b.out, States: b.states, Procedures: b.procedures}, nil
}

type openBlock struct {
	name  string
	index int // index into b.out of the opener command
	loc   errs.Location
}

type builder struct {
	out        []Command
	stack      []openBlock
	states     map[string]Range
	procedures map[string]Range
}

func (b *builder) run(protos []script.Prototype) error {
	i := 0
	for i < len(protos) {
		p := protos[i]

		if p.Name == "component" {
			end, err := findMatchingEnd(protos, i)
			if err != nil {
				return err
			}
			if len(p.Argv) != 1 {
				return errs.New(errs.ScriptRuntime, "InvalidCommandBody", "component requires exactly one name").At(p.Loc)
			}
			inner, err := Build(protos[i+1 : end])
			if err != nil {
				return err
			}
			b.out = append(b.out, Command{
				Kind: KindComponent,
				Tag:  p.Tag,
				Loc:  p.Loc,
				Component: &ComponentArgs{
					Name:  ident.New(p.Argv[0]),
					Body:  inner,
					Start: i,
					End:   end,
				},
			})
			i = end + 1
			continue
		}

		cmd, err := b.convert(p)
		if err != nil {
			return err
		}
		idx := len(b.out)
		b.out = append(b.out, cmd)

		if _, isOpener := blockOpeners[p.Name]; isOpener {
			b.stack = append(b.stack, openBlock{name: p.Name, index: idx, loc: p.Loc})
			b.setStart(idx)
		}

		switch p.Name {
		case "else", "else_if":
			if len(b.stack) == 0 || b.stack[len(b.stack)-1].name != "if" {
				return errs.New(errs.ScriptRuntime, "BadNesting", "%q outside an if block", p.Name).At(p.Loc)
			}
			top := &b.stack[len(b.stack)-1]
			b.out[top.index].If.ElseLines = append(b.out[top.index].If.ElseLines, idx)
		case "end":
			if len(b.stack) == 0 {
				return errs.New(errs.ScriptRuntime, "BadNesting", "'end' with no open block").At(p.Loc)
			}
			top := b.stack[len(b.stack)-1]
			b.stack = b.stack[:len(b.stack)-1]
			b.closeBlock(top, idx)
		}

		i++
	}
	return nil
}

func (b *builder) setStart(idx int) {
	cmd := &b.out[idx]
	switch cmd.Kind {
	case KindIf:
		cmd.If.Start = idx
	case KindForIn:
		cmd.ForIn.Start = idx
	case KindLoop:
		cmd.Loop.Start = idx
	case KindProcedure:
		cmd.Procedure.Start = idx
	case KindState:
		cmd.State.Start = idx
	}
}

func (b *builder) closeBlock(open openBlock, endIdx int) {
	opener := &b.out[open.index]
	switch open.name {
	case "if":
		opener.If.End = endIdx
	case "for":
		opener.ForIn.End = endIdx
	case "loop", "while":
		opener.Loop.End = endIdx
	case "procedure":
		opener.Procedure.End = endIdx
		b.procedures[opener.Procedure.Name.String()] = Range{Start: open.index, End: endIdx}
	case "state":
		opener.State.End = endIdx
		b.states[opener.State.Name.String()] = Range{Start: open.index, End: endIdx}
	}
}

// findMatchingEnd scans forward from a block opener at protos[openIdx],
// tracking nesting depth across every block-opener/"end" pair, and returns
// the index of the matching "end".
func findMatchingEnd(protos []script.Prototype, openIdx int) (int, error) {
	depth := 1
	for i := openIdx + 1; i < len(protos); i++ {
		name := protos[i].Name
		if _, ok := blockOpeners[name]; ok {
			depth++
		} else if name == "end" {
			depth--
			if depth == 0 {
				return i, nil
			}
		}
	}
	return 0, errs.New(errs.ScriptRuntime, "BadNesting", "unterminated %q block", protos[openIdx].Name).At(protos[openIdx].Loc)
}

func (b *builder) convert(p script.Prototype) (Command, error) {
	base := Command{Tag: p.Tag, Loc: p.Loc}

	switch p.Name {
	case "set":
		if len(p.Argv) < 2 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "set requires a target and a value").At(p.Loc)
		}
		target, err := address.ParseShortLocal(p.Argv[0])
		if err != nil {
			return base, errs.Wrap(errs.ScriptRuntime, "InvalidAddress", err, "set target").At(p.Loc)
		}
		base.Kind = KindSet
		base.Set = &SetArgs{Target: target, Value: parseOperand(strings.Join(p.Argv[1:], " "))}
		return base, nil

	case "get":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "get requires a source address").At(p.Loc)
		}
		source, err := address.ParseShortLocal(p.Argv[0])
		if err != nil {
			return base, errs.Wrap(errs.ScriptRuntime, "InvalidAddress", err, "get source").At(p.Loc)
		}
		output, err := parseOutput(p)
		if err != nil {
			return base, err
		}
		base.Kind = KindGet
		base.Get = &GetArgs{Source: source, Output: output}
		return base, nil

	case "print":
		base.Kind = KindPrint
		base.Print = &PrintArgs{Operands: parseOperands(p.Argv)}
		return base, nil

	case "printfmt":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "printfmt requires a format string").At(p.Loc)
		}
		base.Kind = KindPrintFmt
		base.PrintFmt = &PrintFmtArgs{Format: p.Argv[0], Operands: parseOperands(p.Argv[1:])}
		return base, nil

	case "eval":
		output, err := parseOutput(p)
		if err != nil {
			return base, err
		}
		base.Kind = KindEval
		base.Eval = &EvalArgs{Expr: strings.Join(p.Argv, " "), Output: output}
		return base, nil

	case "range":
		if len(p.Argv) != 2 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "range requires lo and hi").At(p.Loc)
		}
		output, err := parseOutput(p)
		if err != nil {
			return base, err
		}
		base.Kind = KindRange
		base.Range = &RangeArgs{Lo: parseOperand(p.Argv[0]), Hi: parseOperand(p.Argv[1]), Output: output}
		return base, nil

	case "if":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "if requires a condition").At(p.Loc)
		}
		base.Kind = KindIf
		base.If = &IfArgs{Cond: strings.Join(p.Argv, " ")}
		return base, nil

	case "else_if":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "else_if requires a condition").At(p.Loc)
		}
		base.Kind = KindElseIf
		base.If = &IfArgs{Cond: strings.Join(p.Argv, " ")}
		return base, nil

	case "else":
		base.Kind = KindElse
		base.If = &IfArgs{}
		return base, nil

	case "end":
		base.Kind = KindEnd
		return base, nil

	case "for":
		if len(p.Argv) != 3 || p.Argv[1] != "in" {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "for requires 'for <var> in <target>'").At(p.Loc)
		}
		base.Kind = KindForIn
		base.ForIn = &ForInArgs{Var: ident.New(p.Argv[0]), Target: parseOperand(p.Argv[2])}
		return base, nil

	case "loop":
		base.Kind = KindLoop
		base.Loop = &LoopArgs{}
		return base, nil

	case "while":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "while requires a condition").At(p.Loc)
		}
		cond := strings.Join(p.Argv, " ")
		base.Kind = KindLoop
		base.Loop = &LoopArgs{Cond: &cond}
		return base, nil

	case "break":
		base.Kind = KindBreak
		return base, nil

	case "procedure":
		if len(p.Argv) != 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "procedure requires exactly one name").At(p.Loc)
		}
		base.Kind = KindProcedure
		base.Procedure = &ProcedureArgs{Name: ident.New(p.Argv[0])}
		return base, nil

	case "call":
		if len(p.Argv) != 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "call requires exactly one name").At(p.Loc)
		}
		base.Kind = KindCall
		base.Call = &CallArgs{Name: ident.New(p.Argv[0])}
		return base, nil

	case "state":
		if len(p.Argv) != 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "state requires exactly one name").At(p.Loc)
		}
		base.Kind = KindState
		base.State = &StateArgs{Name: ident.New(p.Argv[0])}
		return base, nil

	case "prefab":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "prefab requires a name and components").At(p.Loc)
		}
		comps := make([]ident.Identifier, len(p.Argv)-1)
		for i, c := range p.Argv[1:] {
			comps[i] = ident.New(c)
		}
		base.Kind = KindRegPrefab
		base.RegPrefab = &RegPrefabArgs{Name: ident.New(p.Argv[0]), Components: comps}
		return base, nil

	case "sim":
		if len(p.Argv) < 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "sim requires a subcommand").At(p.Loc)
		}
		base.Kind = KindRegSim
		base.RegSim = &RegSimArgs{Subcommand: p.Argv[0], Args: p.Argv[1:]}
		return base, nil

	case "extend":
		if len(p.Argv) != 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "extend requires exactly one source file").At(p.Loc)
		}
		base.Kind = KindRegExtend
		base.RegExtend = &RegExtendArgs{SourceFile: p.Argv[0]}
		return base, nil

	case "ext_get":
		if len(p.Argv) != 1 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "ext_get requires a fully qualified address").At(p.Loc)
		}
		addr, err := address.ParseAddress(p.Argv[0])
		if err != nil {
			return base, errs.Wrap(errs.ScriptRuntime, "InvalidAddress", err, "ext_get").At(p.Loc)
		}
		output, err := parseOutput(p)
		if err != nil {
			return base, err
		}
		base.Kind = KindExtGet
		base.ExtGet = &ExtGetArgs{Source: addr, Output: output}
		return base, nil

	case "ext_set":
		if len(p.Argv) < 2 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "ext_set requires a fully qualified address and a value").At(p.Loc)
		}
		addr, err := address.ParseAddress(p.Argv[0])
		if err != nil {
			return base, errs.Wrap(errs.ScriptRuntime, "InvalidAddress", err, "ext_set").At(p.Loc)
		}
		base.Kind = KindExtSet
		base.ExtSet = &ExtSetArgs{Target: addr, Value: parseOperand(strings.Join(p.Argv[1:], " "))}
		return base, nil

	case "libcall":
		if len(p.Argv) < 2 {
			return base, errs.New(errs.ScriptRuntime, "InvalidCommandBody", "libcall requires a library and a function").At(p.Loc)
		}
		output, err := parseOutput(p)
		if err != nil {
			return base, err
		}
		base.Kind = KindLibCall
		base.LibCall = &LibCallArgs{Library: p.Argv[0], Function: p.Argv[1], Args: parseOperands(p.Argv[2:]), Output: output}
		return base, nil

	default:
		return base, errs.New(errs.ScriptRuntime, "UnknownCommand", "unknown command %q", p.Name).At(p.Loc)
	}
}

// parseOutput parses a prototype's optional "| output" destination, which
// uses the same short-local-address grammar as a "set" target. Returns the
// zero ShortLocalAddress when the prototype carried no output.
func parseOutput(p script.Prototype) (address.ShortLocalAddress, error) {
	if p.Output == "" {
		return address.ShortLocalAddress{}, nil
	}
	out, err := address.ParseShortLocal(p.Output)
	if err != nil {
		return address.ShortLocalAddress{}, errs.Wrap(errs.ScriptRuntime, "InvalidAddress", err, "output destination").At(p.Loc)
	}
	return out, nil
}

func parseOperands(words []string) []Operand {
	out := make([]Operand, len(words))
	for i, w := range words {
		out[i] = parseOperand(w)
	}
	return out
}

// parseOperand resolves one argument word into a literal or an address.
// Addresses are written with a leading "$" sigil (e.g. "$health",
// "$stats:health") to disambiguate from a bareword string literal; this is
// this engine's own lexical convention, filling a gap spec.md leaves
// unspecified (§1 scopes the on-disk script grammar to an external
// collaborator beyond this contract).
func parseOperand(s string) Operand {
	if strings.HasPrefix(s, "$") {
		if addr, err := address.ParseShortLocal(strings.TrimPrefix(s, "$")); err == nil {
			return Operand{Addr: addr}
		}
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Operand{IsLiteral: true, Literal: variable.Int(variable.IntT(i))}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Operand{IsLiteral: true, Literal: variable.Float(variable.FloatT(f))}
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return Operand{IsLiteral: true, Literal: variable.Bool(b)}
	}
	return Operand{IsLiteral: true, Literal: variable.String(s)}
}
