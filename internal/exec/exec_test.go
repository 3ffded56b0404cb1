package exec

import (
	"testing"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/script"
	"github.com/sarchlab/outcome/internal/variable"
)

func buildProgram(t *testing.T, src string) command.Program {
	t.Helper()
	protos, err := script.Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := script.Preprocess(protos, script.NewEnvironment(), nil, "x.outcome")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	prog, err := command.Build(out)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return prog
}

func TestExecuteSetThenGet(t *testing.T) {
	prog := buildProgram(t, "set health 100\nget health | result\n")
	e := entity.New(1, ident.Identifier{})
	e.Declare(ident.New("unit"), ident.New("health"), variable.Int(0))
	e.Declare(ident.New("unit"), ident.New("result"), variable.Int(0))

	ctx := NewCtx(e, ident.New("unit"))
	out := Execute(ctx, prog, 0, len(prog.Commands)-1)
	if len(out.Errs) != 0 {
		t.Fatalf("unexpected errors: %+v", out.Errs)
	}
	v, err := e.Get(ident.New("unit"), ident.New("result"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	i, err := v.AsInt()
	if err != nil || i != 100 {
		t.Fatalf("got %v %v", i, err)
	}
}

func TestExecuteIfElseTakesElseBranch(t *testing.T) {
	prog := buildProgram(t, "if false\nset a 1\nelse\nset a 2\nend\n")
	e := entity.New(1, ident.Identifier{})
	e.Declare(ident.New("unit"), ident.New("a"), variable.Int(0))

	ctx := NewCtx(e, ident.New("unit"))
	out := Execute(ctx, prog, 0, len(prog.Commands)-1)
	if len(out.Errs) != 0 {
		t.Fatalf("unexpected errors: %+v", out.Errs)
	}
	v, _ := e.Get(ident.New("unit"), ident.New("a"))
	i, _ := v.AsInt()
	if i != 2 {
		t.Fatalf("expected else branch to run, got a=%d", i)
	}
}

func TestExecuteForInCountsIterations(t *testing.T) {
	prog := buildProgram(t, "set count 0\nfor v in 3\neval $count + 1 | count\nend\n")
	e := entity.New(1, ident.Identifier{})
	e.Declare(ident.New("unit"), ident.New("count"), variable.Int(0))

	ctx := NewCtx(e, ident.New("unit"))
	out := Execute(ctx, prog, 0, len(prog.Commands)-1)
	if len(out.Errs) != 0 {
		t.Fatalf("unexpected errors: %+v", out.Errs)
	}
	v, _ := e.Get(ident.New("unit"), ident.New("count"))
	f, _ := v.ToFloat()
	if f != 3 {
		t.Fatalf("expected count to reach 3, got %v", f)
	}
}

func TestExecuteBreakExitsLoop(t *testing.T) {
	prog := buildProgram(t, "set hit 0\nfor v in 5\nif $v == 2\nbreak\nend\neval $hit + 1 | hit\nend\n")
	e := entity.New(1, ident.Identifier{})
	e.Declare(ident.New("unit"), ident.New("hit"), variable.Int(0))

	ctx := NewCtx(e, ident.New("unit"))
	out := Execute(ctx, prog, 0, len(prog.Commands)-1)
	if len(out.Errs) != 0 {
		t.Fatalf("unexpected errors: %+v", out.Errs)
	}
	v, _ := e.Get(ident.New("unit"), ident.New("hit"))
	f, _ := v.ToFloat()
	if f != 2 {
		t.Fatalf("expected break at v==2 after two increments, got %v", f)
	}
}

func TestExecuteCallRunsProcedureAndReturns(t *testing.T) {
	prog := buildProgram(t, "procedure heal\nset health 100\nend\ncall heal\nset done 1\n")
	e := entity.New(1, ident.Identifier{})
	e.Declare(ident.New("unit"), ident.New("health"), variable.Int(0))
	e.Declare(ident.New("unit"), ident.New("done"), variable.Int(0))

	ctx := NewCtx(e, ident.New("unit"))
	out := Execute(ctx, prog, 0, len(prog.Commands)-1)
	if len(out.Errs) != 0 {
		t.Fatalf("unexpected errors: %+v", out.Errs)
	}
	h, _ := e.Get(ident.New("unit"), ident.New("health"))
	hi, _ := h.AsInt()
	if hi != 100 {
		t.Fatalf("expected procedure to run, health=%d", hi)
	}
	d, _ := e.Get(ident.New("unit"), ident.New("done"))
	di, _ := d.AsInt()
	if di != 1 {
		t.Fatalf("expected execution to resume after call, done=%d", di)
	}
}

func TestExecuteExtSetQueuesCommand(t *testing.T) {
	prog := buildProgram(t, "ext_set other:unit:int:health 50\n")
	e := entity.New(1, ident.Identifier{})

	ctx := NewCtx(e, ident.New("unit"))
	out := Execute(ctx, prog, 0, len(prog.Commands)-1)
	if len(out.Ext) != 1 {
		t.Fatalf("expected one queued ext command, got %+v", out.Ext)
	}
	if out.Ext[0].Kind != ExtSet || out.Ext[0].Target.Entity.String() != "other" {
		t.Fatalf("got %+v", out.Ext[0])
	}
}
