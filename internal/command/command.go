package command

import (
	"github.com/sarchlab/outcome/internal/address"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// SetArgs holds "set <addr> <literal-or-addr>".
type SetArgs struct {
	Target address.ShortLocalAddress
	Value  Operand
}

// GetArgs holds "get <addr> | <output>". Output is the empty
// ShortLocalAddress when the instruction carried no "| output" — the read
// still runs (useful for a side-effecting libcall-style get) but its value
// is discarded.
type GetArgs struct {
	Source address.ShortLocalAddress
	Output address.ShortLocalAddress
}

// PrintArgs holds "print <operand...>".
type PrintArgs struct {
	Operands []Operand
}

// PrintFmtArgs holds "printfmt <format> <operand...>".
type PrintFmtArgs struct {
	Format   string
	Operands []Operand
}

// EvalArgs holds "eval <expr...> | <output>" — arithmetic over +, -, *, /,
// % and parenthesised sub-expressions, with *, / and % binding tighter than
// + and - and operators of equal precedence applied left to right, per
// spec §1 Non-goals ("general-purpose expression compilation beyond
// arithmetic for the eval command").
type EvalArgs struct {
	Expr   string
	Output address.ShortLocalAddress
}

// RangeArgs holds "range <lo> <hi> | <output>", producing a List of Int
// from lo to hi exclusive.
type RangeArgs struct {
	Lo, Hi Operand
	Output address.ShortLocalAddress
}

// IfArgs holds an if/else_if/else chain's condition and block bounds, set
// by block resolution. Cond is the raw "<a> <op> <b>" or single-token
// source text (not a parsed Operand): a condition can be a genuine
// comparison, which needs two operands and an operator, not the single
// value an Operand models.
type IfArgs struct {
	Cond string

	Start     int // index of the "if" command itself
	ElseLines []int
	End       int // index of the matching "end"
}

// ForInArgs holds "for <var> in <target>".
type ForInArgs struct {
	Var    ident.Identifier
	Target Operand

	Start int
	End   int
}

// LoopArgs holds "loop"/"while <cond>" — an unconditional loop body when
// Cond is nil, a pre-checked while-loop otherwise. Cond is the raw
// condition source text, evaluated the same way an if's condition is.
type LoopArgs struct {
	Cond *string

	Start int
	End   int
}

// ProcedureArgs holds a "procedure <name> ... end" block's bounds.
type ProcedureArgs struct {
	Name  ident.Identifier
	Start int
	End   int
}

// CallArgs holds "call <name>".
type CallArgs struct {
	Name ident.Identifier
}

// StateArgs holds a "state <name> ... end" block's bounds.
type StateArgs struct {
	Name  ident.Identifier
	Start int
	End   int
}

// ComponentArgs holds a "component <name> ... end" block's bounds in the
// enclosing script and the compiled Program of its body (re-indexed from
// 0 — spec §4.2, "commands inside a component block have their own
// relative line offsets").
type ComponentArgs struct {
	Name    ident.Identifier
	Body    Program
	Start   int
	End     int
}

// RegPrefabArgs holds "prefab <name> <component...>".
type RegPrefabArgs struct {
	Name       ident.Identifier
	Components []ident.Identifier
}

// RegSimArgs holds "sim <subcommand> <args...>".
type RegSimArgs struct {
	Subcommand string
	Args       []string
}

// RegExtendArgs holds "extend <source-file>".
type RegExtendArgs struct {
	SourceFile string
}

// ExtGetArgs / ExtSetArgs hold cross-entity "get"/"set" whose source or
// target names another entity explicitly.
type ExtGetArgs struct {
	Source address.Address
	Output address.ShortLocalAddress
}

type ExtSetArgs struct {
	Target address.Address
	Value  Operand
}

// LibCallArgs holds "libcall <library> <function> <arg...> | <output>".
type LibCallArgs struct {
	Library  string
	Function string
	Args     []Operand
	Output   address.ShortLocalAddress
}

// Operand is a value used by a command: either a literal Variable or an
// address to resolve at execution time.
type Operand struct {
	IsLiteral bool
	Literal   variable.Variable
	Addr      address.ShortLocalAddress
}

// Command is one instruction in a compiled component's logic: a Kind tag
// plus exactly one populated payload field, matching spec §9's closed
// tagged union / no dynamic dispatch guidance.
type Command struct {
	Kind Kind
	Tag  string
	Loc  errs.Location

	Set       *SetArgs
	Get       *GetArgs
	Print     *PrintArgs
	PrintFmt  *PrintFmtArgs
	Eval      *EvalArgs
	Range     *RangeArgs
	If        *IfArgs
	ForIn     *ForInArgs
	Loop      *LoopArgs
	Procedure *ProcedureArgs
	Call      *CallArgs
	State     *StateArgs
	Component *ComponentArgs
	RegPrefab *RegPrefabArgs
	RegSim    *RegSimArgs
	RegExtend *RegExtendArgs
	ExtGet    *ExtGetArgs
	ExtSet    *ExtSetArgs
	LibCall   *LibCallArgs
}

// Program is a flat, fully resolved command vector plus the state/procedure
// name-to-range tables the executor and model use to run only the right
// slice of it (spec §3, "Logic").
type Program struct {
	Commands   []Command
	States     map[string]Range
	Procedures map[string]Range
}

// Range is an inclusive [Start, End] command-index range
// ("0 ≤ s ≤ e < len(commands)") — End is the index of the block's closing
// "end" command, included so the executor's cursor naturally advances past
// it.
type Range struct {
	Start, End int
}
