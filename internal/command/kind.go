// Package command implements the typed command model (spec §4.2, component
// C7): prototypes are converted into one closed enumeration, and
// block-structured flow commands (if, for, loop, procedure, state,
// component) are resolved to the index of their matching "end" in a single
// forward pass. Per spec §9 ("Command dispatch... the executor is a match
// over that union"), Command is one flat struct carrying a Kind tag plus
// one populated variant payload, rather than a polymorphic interface with
// per-type Execute methods — the executor (package exec) holds the single
// switch over Kind.
package command

// Kind is the closed set of command variants.
type Kind int

const (
	// Data commands
	KindSet Kind = iota
	KindGet
	KindPrint
	KindPrintFmt
	KindEval
	KindRange

	// Flow commands
	KindIf
	KindElse
	KindElseIf
	KindEnd
	KindForIn
	KindLoop
	KindBreak
	KindProcedure // block opener
	KindCall
	KindState     // block opener
	KindComponent // block opener

	// Registration (central-external) commands
	KindRegPrefab
	KindRegSim
	KindRegExtend

	// External commands (cross-entity)
	KindExtGet
	KindExtSet

	// Optional capability
	KindLibCall
)

func (k Kind) String() string {
	names := [...]string{
		"set", "get", "print", "printfmt", "eval", "range",
		"if", "else", "else_if", "end", "for_in", "loop", "break",
		"procedure", "call", "state", "component",
		"prefab", "sim", "extend",
		"ext_get", "ext_set",
		"library_call",
	}
	if int(k) < 0 || int(k) >= len(names) {
		return "unknown"
	}
	return names[k]
}

// blockOpeners is the set of command names that open a block resolved by
// matching "end".
var blockOpeners = map[string]Kind{
	"if":        KindIf,
	"for":       KindForIn,
	"loop":      KindLoop,
	"while":     KindLoop,
	"procedure": KindProcedure,
	"state":     KindState,
	"component": KindComponent,
}
