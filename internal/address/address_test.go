package address

import (
	"testing"

	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/variable"
)

func TestAddressRoundTrip(t *testing.T) {
	a := Address{
		Entity:    ident.New("wolf_7"),
		Component: ident.New("stats"),
		VarType:   variable.KindFloat,
		VarName:   ident.New("health"),
	}

	got, err := ParseAddress(a.Format())
	if err != nil {
		t.Fatalf("ParseAddress(%q): %v", a.Format(), err)
	}
	if got != a {
		t.Fatalf("round trip: got %+v, want %+v", got, a)
	}
}

func TestParseAddressRejectsWrongArity(t *testing.T) {
	if _, err := ParseAddress("only:three:parts"); err == nil {
		t.Fatalf("expected a Parse error for a 3-field address")
	}
}

func TestShortLocalAddressParsing(t *testing.T) {
	bare, err := ParseShortLocal("health")
	if err != nil {
		t.Fatalf("ParseShortLocal: %v", err)
	}
	if !bare.Component.IsEmpty() {
		t.Fatalf("expected no component on a bare var name")
	}

	qualified, err := ParseShortLocal("stats:health")
	if err != nil {
		t.Fatalf("ParseShortLocal: %v", err)
	}
	if qualified.Component.String() != "stats" || qualified.VarName.String() != "health" {
		t.Fatalf("got %+v", qualified)
	}
}

func TestLocalAddressResolveDefaultsComponent(t *testing.T) {
	short, _ := ParseShortLocal("health")
	local := short.Resolve(variable.KindFloat)

	resolved := local.Resolve(ident.New("wolf_7"), ident.New("stats"))
	want := Address{
		Entity:    ident.New("wolf_7"),
		Component: ident.New("stats"),
		VarType:   variable.KindFloat,
		VarName:   ident.New("health"),
	}
	if resolved != want {
		t.Fatalf("Resolve() = %+v, want %+v", resolved, want)
	}
}
