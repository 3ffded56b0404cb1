package script

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sarchlab/outcome/internal/errs"
)

// IncludeResolver loads the prototypes of a sibling script file named by an
// "!include" directive. name is the argument exactly as written in the
// directive (typically a bare file name without extension).
type IncludeResolver interface {
	Resolve(name string) (relPath string, protos []Prototype, err error)
}

// Preprocess runs the five ordered phases spec §4.1 describes: drop empty
// instructions, resolve !include, evaluate !if/!else/!endif (applying each
// !set in an active branch as it is reached, so a condition sees every
// earlier !set), execute remaining directives for side effects, then erase
// directives so only commands remain.
func Preprocess(protos []Prototype, env Environment, includes IncludeResolver, selfName string) ([]Prototype, error) {
	// Phase 1: drop empty instructions.
	filtered := make([]Prototype, 0, len(protos))
	for _, p := range protos {
		if !p.IsEmpty() {
			filtered = append(filtered, p)
		}
	}

	// Phase 2: resolve !include (recursion on the same file is silently
	// skipped, not an error — spec §8 boundary behavior).
	expanded, err := expandIncludes(filtered, includes, map[string]bool{selfName: true})
	if err != nil {
		return nil, err
	}

	// Phase 3: evaluate !if/!else/!endif.
	conditioned, err := evaluateConditionals(expanded, env)
	if err != nil {
		return nil, err
	}

	// Phase 4: execute remaining directives for side effects.
	for _, p := range conditioned {
		if !p.IsDirective {
			continue
		}
		switch p.Name {
		case "set":
			if len(p.Argv) < 2 {
				return nil, errs.New(errs.Parse, "MissingArguments", "!set requires a key and a value").At(p.Loc)
			}
			env.Set(p.Argv[0], p.Argv[1])
		case "print":
			fmt.Println(strings.Join(p.Argv, " "))
		case "log":
			slog.Info("script", "message", strings.Join(p.Argv, " "), "loc", p.Loc.Short())
		case "include", "if", "else", "endif":
			// already handled in earlier phases
		default:
			return nil, errs.New(errs.Parse, "UnknownDirective", "unknown directive %q", p.Name).At(p.Loc)
		}
	}

	// Phase 5: erase directives, leaving only commands.
	out := make([]Prototype, 0, len(conditioned))
	for _, p := range conditioned {
		if !p.IsDirective {
			out = append(out, p)
		}
	}
	return out, nil
}

func expandIncludes(protos []Prototype, includes IncludeResolver, seen map[string]bool) ([]Prototype, error) {
	var out []Prototype
	for _, p := range protos {
		if !p.IsDirective || p.Name != "include" {
			out = append(out, p)
			continue
		}
		if len(p.Argv) != 1 {
			return nil, errs.New(errs.Parse, "MissingArguments", "!include requires exactly one file name").At(p.Loc)
		}
		target := p.Argv[0]
		if seen[target] {
			continue // recursive include of the same file: silently skipped
		}
		if includes == nil {
			return nil, errs.New(errs.IO, "FileIO", "!include %q: no include resolver configured", target).At(p.Loc)
		}
		relPath, included, err := includes.Resolve(target)
		if err != nil {
			return nil, errs.Wrap(errs.IO, "FileIO", err, "!include %q", target).At(p.Loc)
		}
		childSeen := make(map[string]bool, len(seen)+1)
		for k := range seen {
			childSeen[k] = true
		}
		childSeen[target] = true
		childSeen[relPath] = true

		nested, err := expandIncludes(included, includes, childSeen)
		if err != nil {
			return nil, err
		}
		out = append(out, nested...)
	}
	return out, nil
}

// condFrame tracks one open !if/!else/!endif block. ifCond is fixed at
// !if-evaluation time; inElse flips once an !else is seen. Because nesting
// requires an inner block's !endif before the same level's !else can
// appear, a frame's own active-ness never needs to be recomputed once its
// parent has pushed it — folding ifCond/inElse bottom-to-up at query time
// is enough.
type condFrame struct {
	ifCond bool
	inElse bool
}

func evaluateConditionals(protos []Prototype, env Environment) ([]Prototype, error) {
	var out []Prototype
	var stack []condFrame

	active := func() bool {
		for _, f := range stack {
			branch := f.ifCond
			if f.inElse {
				branch = !f.ifCond
			}
			if !branch {
				return false
			}
		}
		return true
	}

	for _, p := range protos {
		if !p.IsDirective {
			if active() {
				out = append(out, p)
			}
			continue
		}

		switch p.Name {
		case "if":
			cond := false
			if active() {
				var err error
				cond, err = evalCondition(p.Argv, env)
				if err != nil {
					return nil, errs.Wrap(errs.Parse, "Parse", err, "evaluating !if").At(p.Loc)
				}
			}
			stack = append(stack, condFrame{ifCond: cond})
		case "else":
			if len(stack) == 0 {
				return nil, errs.New(errs.Parse, "EndifWithoutIf", "!else without a matching !if").At(p.Loc)
			}
			stack[len(stack)-1].inElse = true
		case "endif":
			if len(stack) == 0 {
				return nil, errs.New(errs.Parse, "EndifWithoutIf", "!endif without a matching !if").At(p.Loc)
			}
			stack = stack[:len(stack)-1]
		case "set":
			// Applied here so later !if directives see it; the directive is
			// kept, and phase 4 sets the same key to the same value again.
			if active() {
				if len(p.Argv) < 2 {
					return nil, errs.New(errs.Parse, "MissingArguments", "!set requires a key and a value").At(p.Loc)
				}
				env.Set(p.Argv[0], p.Argv[1])
				out = append(out, p)
			}
		default:
			if active() {
				out = append(out, p)
			}
		}
	}
	if len(stack) != 0 {
		return nil, errs.New(errs.Parse, "NestedIf", "unterminated !if block")
	}
	return out, nil
}

// evalCondition evaluates "<key> <op> <value>" against env (spec §4.1,
// resolved per original_source's preprocessor.rs — see SPEC_FULL.md §4.1).
func evalCondition(argv []string, env Environment) (bool, error) {
	if len(argv) != 3 {
		return false, fmt.Errorf("expected '<key> <op> <value>', got %d arguments", len(argv))
	}
	key, op, want := argv[0], argv[1], argv[2]
	got, ok := env[key]
	if !ok {
		return false, nil
	}

	if gf, gerr := strconv.ParseFloat(got, 64); gerr == nil {
		if wf, werr := strconv.ParseFloat(want, 64); werr == nil {
			return compareFloat(gf, op, wf)
		}
	}
	return compareString(got, op, want)
}

func compareFloat(a float64, op string, b float64) (bool, error) {
	switch op {
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}

func compareString(a string, op string, b string) (bool, error) {
	switch op {
	case "==":
		return a == b, nil
	case "!=":
		return a != b, nil
	case "<":
		return a < b, nil
	case "<=":
		return a <= b, nil
	case ">":
		return a > b, nil
	case ">=":
		return a >= b, nil
	default:
		return false, fmt.Errorf("unknown operator %q", op)
	}
}
