package model

import (
	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/errs"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

// Source resolves the text of another module script by name, used to
// implement "extend" (spec §4.2, "dynamically include another source
// file"). Callers typically back this with the same IncludeResolver the
// preprocessor uses.
type Source interface {
	Source(name string) (string, error)
}

// Compiler compiles a module source string into a command.Program, used by
// Load to process "extend" without internal/model importing internal/script
// (which would create an import cycle back through command).
type Compiler func(name, src string) (command.Program, error)

// Load walks a compiled top-level Program's commands and applies every
// registration command it finds directly to m: KindComponent declares a
// ComponentModel, KindRegPrefab declares a Prefab, KindRegSim processes a
// simulation-metadata subcommand, KindRegExtend re-parses and re-compiles
// another source file's component and registers it under the same name
// (Open Question 3: last write wins — see DESIGN.md).
//
// Only registration commands reached at the Program's own top level are
// acted on here; Load does not look inside a component's compiled Body.
// Inside a Body they are ordinary commands: when the executor (package
// exec) reaches one in a running state it queues it as a central-ext
// command, which the simulation applies to the model after the local
// phase.
func Load(m *Model, prog command.Program, src Source, compile Compiler) error {
	for _, cmd := range prog.Commands {
		switch cmd.Kind {
		case command.KindComponent:
			cm, err := componentFromBlock(cmd.Component.Name, cmd.Component.Body)
			if err != nil {
				return err
			}
			m.RegisterComponent(cm)

		case command.KindRegPrefab:
			m.RegisterPrefab(Prefab{Name: cmd.RegPrefab.Name, Components: cmd.RegPrefab.Components})

		case command.KindRegSim:
			if err := applySimSubcommand(m, cmd.RegSim); err != nil {
				return err
			}

		case command.KindRegExtend:
			if err := loadExtend(m, cmd.RegExtend, src, compile); err != nil {
				return err
			}
		}
	}
	return nil
}

func applySimSubcommand(m *Model, args *command.RegSimArgs) error {
	switch args.Subcommand {
	case "scenario":
		if len(args.Args) >= 1 {
			m.ScenarioName = args.Args[0]
		}
	case "event":
		for _, name := range args.Args {
			m.RegisterEvent(ident.New(name))
		}
	default:
		return errs.New(errs.Model, "UnknownSimSubcommand", "unknown sim subcommand %q", args.Subcommand)
	}
	return nil
}

func loadExtend(m *Model, args *command.RegExtendArgs, src Source, compile Compiler) error {
	if src == nil || compile == nil {
		return errs.New(errs.Model, "NoSourceResolver", "extend %q requires a source resolver", args.SourceFile)
	}
	text, err := src.Source(args.SourceFile)
	if err != nil {
		return errs.Wrap(errs.Model, "ExtendUnresolved", err, "extend %q", args.SourceFile)
	}
	prog, err := compile(args.SourceFile, text)
	if err != nil {
		return err
	}
	return Load(m, prog, src, compile)
}

// componentFromBlock converts a compiled "component" block's nested Program
// into a ComponentModel. The block's "state" sub-blocks name the
// component's states: a state named "idle" is the start state when there is
// one, otherwise the state declared first is. Every "set" in the body whose
// target names no component declares a variable of this component; its type
// and default come from the first such "set" with a literal value, and are
// Int(0) when none has a literal. The component runs on the "step" event
// only.
func componentFromBlock(name ident.Identifier, body command.Program) (ComponentModel, error) {
	cm := ComponentModel{Name: name, Logic: body}

	varDefs := map[string]VarDef{}
	literal := map[string]bool{}
	var order []string
	for _, c := range body.Commands {
		if c.Kind != command.KindSet || c.Set == nil || !c.Set.Target.Component.IsEmpty() {
			continue
		}
		key := c.Set.Target.VarName.String()
		if _, ok := varDefs[key]; !ok {
			order = append(order, key)
			varDefs[key] = VarDef{Name: c.Set.Target.VarName, Kind: variable.KindInt, Default: variable.Int(0)}
		}
		if c.Set.Value.IsLiteral && !literal[key] {
			literal[key] = true
			varDefs[key] = VarDef{Name: c.Set.Target.VarName, Kind: c.Set.Value.Literal.Kind(), Default: c.Set.Value.Literal}
		}
	}

	cm.Vars = make([]VarDef, len(order))
	for i, k := range order {
		cm.Vars[i] = varDefs[k]
	}

	start := ident.New("idle")
	if _, ok := body.States["idle"]; !ok {
		first := -1
		for n, r := range body.States {
			if first < 0 || r.Start < first {
				first, start = r.Start, ident.New(n)
			}
		}
	}
	cm.StartState = start

	cm.Events = []ident.Identifier{ident.New("step")}
	return cm, nil
}
