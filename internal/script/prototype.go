// Package script implements the line-oriented script parser and
// preprocessor (spec §4.1, component C6): source text becomes an ordered
// list of instruction prototypes, include/conditional directives are
// resolved, and the result is a pure command stream ready for conversion
// into typed commands (package command).
//
// The tokenizer's closed TokenType enumeration is grounded on
// sunholo-data-ailang's internal/lexer/token.go, adapted from a
// expression-language token set to this engine's line-oriented command
// grammar (no operator precedence, no block delimiters beyond directive
// markers).
package script

import "github.com/sarchlab/outcome/internal/errs"

// Prototype is one parsed instruction: a directive (name starts with "!")
// or a command (tag/name/argv/output). Prototypes carry enough source
// location to build a located error at any later phase.
type Prototype struct {
	Tag    string   // optional @tag, "" if none
	Name   string   // directive or command name, without the leading "!"
	Argv   []string // positional and flag arguments, POSIX-style
	Output string   // "" unless the instruction redirects output with "|"

	Loc errs.Location

	IsDirective bool
}

// IsEmpty reports whether the prototype carries no instruction at all —
// produced by blank or comment-only lines, and dropped in preprocessor
// phase 1.
func (p Prototype) IsEmpty() bool {
	return p.Name == "" && len(p.Argv) == 0 && p.Output == "" && !p.IsDirective
}
