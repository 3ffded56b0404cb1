package command

import (
	"testing"

	"github.com/sarchlab/outcome/internal/script"
)

func parse(t *testing.T, src string) []script.Prototype {
	t.Helper()
	protos, err := script.Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return protos
}

func TestBuildIfElseResolvesEnd(t *testing.T) {
	protos := parse(t, "if $ready\nset a 1\nelse\nset a 2\nend\n")
	prog, err := Build(protos)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(prog.Commands) != 5 {
		t.Fatalf("expected 5 commands, got %d", len(prog.Commands))
	}
	if prog.Commands[0].Kind != KindIf {
		t.Fatalf("expected first command to be if, got %v", prog.Commands[0].Kind)
	}
	if prog.Commands[0].If.End != 4 {
		t.Fatalf("expected if to close at index 4, got %d", prog.Commands[0].If.End)
	}
	if len(prog.Commands[0].If.ElseLines) != 1 || prog.Commands[0].If.ElseLines[0] != 2 {
		t.Fatalf("expected a single else at index 2, got %+v", prog.Commands[0].If.ElseLines)
	}
}

func TestBuildForInResolvesEnd(t *testing.T) {
	protos := parse(t, "for v in 10\nprint v\nend\n")
	prog, err := Build(protos)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if prog.Commands[0].Kind != KindForIn || prog.Commands[0].ForIn.End != 2 {
		t.Fatalf("got %+v", prog.Commands[0])
	}
}

func TestBuildProcedureRegistersRange(t *testing.T) {
	protos := parse(t, "procedure heal\nset health 100\nend\n")
	prog, err := Build(protos)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, ok := prog.Procedures["heal"]
	if !ok || r.Start != 0 || r.End != 2 {
		t.Fatalf("expected heal range [0,2], got %+v ok=%v", r, ok)
	}
}

func TestBuildStateRegistersRange(t *testing.T) {
	protos := parse(t, "state idle\nset mode 0\nend\n")
	prog, err := Build(protos)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r, ok := prog.States["idle"]
	if !ok || r.Start != 0 || r.End != 2 {
		t.Fatalf("expected idle range [0,2], got %+v ok=%v", r, ok)
	}
}

func TestBuildComponentCompilesNestedProgram(t *testing.T) {
	protos := parse(t, "component unit\nset health 100\nprocedure heal\nset health 100\nend\nend\n")
	prog, err := Build(protos)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(prog.Commands) != 1 || prog.Commands[0].Kind != KindComponent {
		t.Fatalf("expected the outer program to hold a single component command, got %+v", prog.Commands)
	}
	body := prog.Commands[0].Component.Body
	if len(body.Commands) != 4 {
		t.Fatalf("expected 4 commands in the component body, got %d", len(body.Commands))
	}
	if _, ok := body.Procedures["heal"]; !ok {
		t.Fatalf("expected heal to be registered inside the nested program")
	}
}

func TestBuildUnterminatedBlockErrors(t *testing.T) {
	protos := parse(t, "if $ready\nset a 1\n")
	if _, err := Build(protos); err == nil {
		t.Fatalf("expected a BadNesting error for an unterminated if")
	}
}

func TestBuildEndWithoutOpenerErrors(t *testing.T) {
	protos := parse(t, "end\n")
	if _, err := Build(protos); err == nil {
		t.Fatalf("expected a BadNesting error for a stray end")
	}
}

func TestBuildElseOutsideIfErrors(t *testing.T) {
	protos := parse(t, "for v in 3\nelse\nend\nend\n")
	if _, err := Build(protos); err == nil {
		t.Fatalf("expected a BadNesting error for else inside a for block")
	}
}

func TestParseOperandDistinguishesLiteralsAndAddresses(t *testing.T) {
	op := parseOperand("42")
	if !op.IsLiteral {
		t.Fatalf("expected 42 to be a literal")
	}
	if i, err := op.Literal.AsInt(); err != nil || i != 42 {
		t.Fatalf("got %v %v", i, err)
	}

	op = parseOperand("$stats:health")
	if op.IsLiteral {
		t.Fatalf("expected $stats:health to be an address")
	}
	if op.Addr.Component.String() != "stats" || op.Addr.VarName.String() != "health" {
		t.Fatalf("got %+v", op.Addr)
	}
}

func TestBuildSetParsesTargetAndValue(t *testing.T) {
	protos := parse(t, "set stats:health 100\n")
	prog, err := Build(protos)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	cmd := prog.Commands[0]
	if cmd.Kind != KindSet {
		t.Fatalf("expected a set command, got %v", cmd.Kind)
	}
	if cmd.Set.Target.Component.String() != "stats" || cmd.Set.Target.VarName.String() != "health" {
		t.Fatalf("got %+v", cmd.Set.Target)
	}
	if i, err := cmd.Set.Value.Literal.AsInt(); err != nil || i != 100 {
		t.Fatalf("got %v %v", i, err)
	}
}
