// Package exec implements the command executor (spec §4.3, component C8):
// an explicit call stack drives a flat command array, one command at a
// time, producing local storage mutations plus queued ext/central-ext
// commands for the post-phase drain. Per spec §9, the call stack is a
// closed tagged union — one Frame struct with a Kind tag and one populated
// payload field per variant — mirroring the same "no dynamic dispatch"
// shape package command uses for Command itself. Grounded on zeonica's
// core ticking loop (a single cursor stepping a fixed instruction list per
// PE per cycle) generalized from one fixed instruction shape to five
// frame kinds covering procedure calls, two loop forms, if/else chains and
// nested component scopes.
package exec

import (
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// FrameKind is the closed set of call-stack frame variants.
type FrameKind int

const (
	FrameProcedure FrameKind = iota
	FrameForIn
	FrameLoop
	FrameIfElse
	FrameComponent
)

// ProcedureFrame records where a "call" resumes once its procedure's
// matching "end" is reached.
type ProcedureFrame struct {
	CallLine int
	Start    int
	End      int
}

// ForInFrame tracks a "for v in target" loop's iteration state. Target
// holds the resolved value the loop iterates over (not re-resolved every
// iteration, matching the "for" command evaluating its target once, at
// loop entry) so each "end" can re-derive the next iteration's element
// without the frame needing a Ctx reference back into storage.
type ForInFrame struct {
	Target    variable.Variable
	TargetLen int
	IterVar   ident.Identifier
	Iteration int
	Start     int
	End       int
}

// LoopFrame tracks an unconditional "loop" or pre-checked "while" block.
// Cond is nil for an unconditional loop.
type LoopFrame struct {
	Cond  *string
	Start int
	End   int
}

// IfElseFrame tracks an if/else_if/else chain: which branch (if any) has
// already run, so "else"/"else_if" can skip to the chain's "end" once a
// prior branch has executed.
type IfElseFrame struct {
	Passed    bool
	Start     int
	End       int
	ElseLines []int
}

// ComponentFrame tracks the enclosing component when a script declares a
// component nested inside another's logic.
type ComponentFrame struct {
	Name  ident.Identifier
	Start int
	End   int
}

// Frame is one call-stack entry: a Kind tag plus exactly one populated
// payload field (spec §9).
type Frame struct {
	Kind FrameKind

	Procedure *ProcedureFrame
	ForIn     *ForInFrame
	Loop      *LoopFrame
	IfElse    *IfElseFrame
	Component *ComponentFrame
}
