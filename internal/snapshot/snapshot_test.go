package snapshot_test

import (
	"bytes"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/model"
	"github.com/sarchlab/outcome/internal/simulation"
	"github.com/sarchlab/outcome/internal/snapshot"
	"github.com/sarchlab/outcome/internal/variable"
)

func vitalsModel() *model.Model {
	m := model.New("vitals-scenario")
	m.RegisterComponent(model.ComponentModel{
		Name:       ident.New("vitals"),
		Vars:       []model.VarDef{{Name: ident.New("health"), Kind: variable.KindInt, Default: variable.Int(0)}},
		StartState: ident.New("idle"),
		Logic:      command.Program{},
	})
	m.RegisterPrefab(model.Prefab{Name: ident.New("vitals"), Components: []ident.Identifier{ident.New("vitals")}})
	return m
}

var _ = Describe("Write/Read", func() {
	It("round-trips clock, event queue and entity storage through the byte stream format", func() {
		s := simulation.New(vitalsModel())
		e, err := s.Spawn(ident.New("vitals"), ident.New("hero"))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Set(ident.New("vitals"), ident.New("health"), variable.Int(42))).To(Succeed())
		s.Clock = 7
		s.QueueEvent("tick")

		var buf bytes.Buffer
		Expect(snapshot.Write(&buf, s, "scn/vitals", false)).To(Succeed())

		header, entities, err := snapshot.Read(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(header.Clock).To(Equal(uint64(7)))
		Expect(header.ScenarioName).To(Equal("vitals-scenario"))
		Expect(header.EventQueue).To(ContainElement("tick"))
		Expect(entities).To(HaveLen(1))

		v, err := entities[0].Get(ident.New("vitals"), ident.New("health"))
		Expect(err).NotTo(HaveOccurred())
		i, err := v.AsInt()
		Expect(err).NotTo(HaveOccurred())
		Expect(i).To(Equal(variable.IntT(42)))
	})

	It("round-trips through gzip compression", func() {
		s := simulation.New(vitalsModel())
		_, err := s.Spawn(ident.New("vitals"), ident.New("hero"))
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		Expect(snapshot.Write(&buf, s, "scn/vitals", true)).To(Succeed())

		_, entities, err := snapshot.Read(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(entities).To(HaveLen(1))
	})
})

var _ = Describe("WriteSQLite/ReadSQLite", func() {
	It("round-trips header and entity state through a sqlite file", func() {
		path := mustTempFile()
		defer os.Remove(path)

		s := simulation.New(vitalsModel())
		e, err := s.Spawn(ident.New("vitals"), ident.New("hero"))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Set(ident.New("vitals"), ident.New("health"), variable.Int(99))).To(Succeed())
		s.Clock = 3

		poolNext, poolFree := s.Pool.State()
		header := snapshot.Header{
			ScenarioName: s.Model.ScenarioName,
			Clock:        s.Clock,
			EventQueue:   s.EventQueue(),
			PoolNext:     poolNext,
			PoolFree:     poolFree,
		}
		Expect(snapshot.WriteSQLite(path, s, header)).To(Succeed())

		gotHeader, entities, err := snapshot.ReadSQLite(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(gotHeader.Clock).To(Equal(uint64(3)))
		Expect(entities).To(HaveLen(1))
	})
})

func mustTempFile() string {
	f, err := os.CreateTemp("", "outcome-snapshot-*.db")
	Expect(err).NotTo(HaveOccurred())
	name := f.Name()
	Expect(f.Close()).To(Succeed())
	Expect(os.Remove(name)).To(Succeed())
	return name
}
