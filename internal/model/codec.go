package model

import "github.com/sarchlab/outcome/internal/wire"

// wireForm mirrors Model with exported fields, since Model's registries are
// unexported maps gob would otherwise encode as empty (the same pattern as
// variable.Variable's and ident.Identifier's GobEncode/GobDecode).
type wireForm struct {
	ScenarioName string
	Components   []ComponentModel
	Prefabs      []Prefab
	Events       []string
}

// GobEncode implements gob.GobEncoder.
func (m *Model) GobEncode() ([]byte, error) {
	return wire.Encode(wireForm{
		ScenarioName: m.ScenarioName,
		Components:   m.Components(),
		Prefabs:      m.Prefabs(),
		Events:       m.Events(),
	})
}

// GobDecode implements gob.GobDecoder.
func (m *Model) GobDecode(data []byte) error {
	var w wireForm
	if err := wire.Decode(data, &w); err != nil {
		return err
	}

	m.ScenarioName = w.ScenarioName
	m.components = make(map[string]ComponentModel, len(w.Components))
	for _, c := range w.Components {
		m.components[c.Name.String()] = c
	}
	m.prefabs = make(map[string]Prefab, len(w.Prefabs))
	for _, p := range w.Prefabs {
		m.prefabs[p.Name.String()] = p
	}
	m.events = make(map[string]bool, len(w.Events))
	for _, e := range w.Events {
		m.events[e] = true
	}
	return nil
}
