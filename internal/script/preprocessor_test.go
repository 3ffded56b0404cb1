package script

import "testing"

func TestPreprocessDropsDirectivesKeepsCommands(t *testing.T) {
	protos, err := Parse("/scn", "x.outcome", "!set x 1\nset health 100\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Preprocess(protos, NewEnvironment(), nil, "x.outcome")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(out) != 1 || out[0].Name != "set" {
		t.Fatalf("got %+v", out)
	}
}

func TestPreprocessIfTrueKeepsBranch(t *testing.T) {
	src := "!set mode fast\n!if mode == fast\nset speed 10\n!else\nset speed 1\n!endif\n"
	protos, err := Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Preprocess(protos, NewEnvironment(), nil, "x.outcome")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(out) != 1 || out[0].Argv[1] != "10" {
		t.Fatalf("expected the true branch only, got %+v", out)
	}
}

func TestPreprocessIfFalseTakesElse(t *testing.T) {
	src := "!set mode slow\n!if mode == fast\nset speed 10\n!else\nset speed 1\n!endif\n"
	protos, err := Parse("/scn", "x.outcome", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	out, err := Preprocess(protos, NewEnvironment(), nil, "x.outcome")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(out) != 1 || out[0].Argv[1] != "1" {
		t.Fatalf("expected the else branch only, got %+v", out)
	}
}

func TestPreprocessEndifWithoutIfErrors(t *testing.T) {
	protos, err := Parse("/scn", "x.outcome", "!endif\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if _, err := Preprocess(protos, NewEnvironment(), nil, "x.outcome"); err == nil {
		t.Fatalf("expected an EndifWithoutIf error")
	}
}

type stubIncludes struct {
	files map[string][]Prototype
}

func (s stubIncludes) Resolve(name string) (string, []Prototype, error) {
	return name + ".outcome", s.files[name], nil
}

func TestPreprocessIncludeSplicesInstructions(t *testing.T) {
	child, err := Parse("/scn", "child.outcome", "set a 1\n")
	if err != nil {
		t.Fatalf("Parse child: %v", err)
	}
	protos, err := Parse("/scn", "main.outcome", "!include child\nset b 2\n")
	if err != nil {
		t.Fatalf("Parse main: %v", err)
	}
	resolver := stubIncludes{files: map[string][]Prototype{"child": child}}

	out, err := Preprocess(protos, NewEnvironment(), resolver, "main.outcome")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(out) != 2 || out[0].Argv[0] != "a" || out[1].Argv[0] != "b" {
		t.Fatalf("got %+v", out)
	}
}

func TestPreprocessRecursiveIncludeSkipped(t *testing.T) {
	protos, err := Parse("/scn", "main.outcome", "!include main\nset b 2\n")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	resolver := stubIncludes{files: map[string][]Prototype{}}

	out, err := Preprocess(protos, NewEnvironment(), resolver, "main")
	if err != nil {
		t.Fatalf("Preprocess: %v", err)
	}
	if len(out) != 1 || out[0].Argv[0] != "b" {
		t.Fatalf("expected the recursive include to be silently skipped, got %+v", out)
	}
}
