package script

import (
	"testing"

	"github.com/sarchlab/outcome/internal/errs"
)

func TestParseBasicCommand(t *testing.T) {
	protos, err := Parse("/scn", "bench.outcome", `set health 100`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(protos) != 1 {
		t.Fatalf("expected 1 prototype, got %d", len(protos))
	}
	p := protos[0]
	if p.Name != "set" || len(p.Argv) != 2 || p.Argv[0] != "health" || p.Argv[1] != "100" {
		t.Fatalf("got %+v", p)
	}
}

func TestParseCommentsAndBlankLines(t *testing.T) {
	src := "# a comment\n\nprint \"hi\" # trailing comment\n"
	protos, err := Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(protos) != 1 {
		t.Fatalf("expected 1 prototype (comments/blank dropped), got %d: %+v", len(protos), protos)
	}
	if protos[0].Name != "print" || protos[0].Argv[0] != "hi" {
		t.Fatalf("got %+v", protos[0])
	}
}

func TestParseContinuation(t *testing.T) {
	src := "print \\\n  \"hi\""
	protos, err := Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(protos) != 1 || protos[0].Argv[0] != "hi" {
		t.Fatalf("got %+v", protos)
	}
}

func TestParseSemicolonSplit(t *testing.T) {
	protos, err := Parse("/scn", "x.outcome", `set a 1; set b 2`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(protos) != 2 {
		t.Fatalf("expected 2 prototypes, got %d", len(protos))
	}
}

func TestParseTagAndOutput(t *testing.T) {
	protos, err := Parse("/scn", "x.outcome", `@main get health | total`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	p := protos[0]
	if p.Tag != "main" || p.Name != "get" || p.Output != "total" {
		t.Fatalf("got %+v", p)
	}
}

func TestParseDirective(t *testing.T) {
	protos, err := Parse("/scn", "x.outcome", `!set debug true`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if !protos[0].IsDirective || protos[0].Name != "set" {
		t.Fatalf("got %+v", protos[0])
	}
}

func TestParsePipeWithNoDestinationErrors(t *testing.T) {
	_, err := Parse("/scn", "x.outcome", `get health |`)
	if err == nil {
		t.Fatalf("expected MissingArguments error")
	}
	if e, ok := err.(*errs.Error); !ok || e.Code != "MissingArguments" {
		t.Fatalf("got %v", err)
	}
}
