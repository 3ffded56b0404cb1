package distr

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/outcome/internal/command"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/model"
	"github.com/sarchlab/outcome/internal/variable"
)

// vitalsModelForSpawnTest is named distinctly from snapshot's similar
// helper since Go test binaries for different packages don't collide, but
// this file shares a process with distr_suite_test.go's ginkgo bootstrap.
func vitalsModelForSpawnTest() *model.Model {
	m := model.New("spawn-test")
	m.RegisterComponent(model.ComponentModel{
		Name: ident.New("vitals"),
		Vars: []model.VarDef{
			{Name: ident.New("health"), Kind: variable.KindInt, Default: variable.Int(0)},
			{Name: ident.New("tag"), Kind: variable.KindString, Default: variable.String("")},
		},
		StartState: ident.New("idle"),
		Logic:      command.Program{},
	})
	m.RegisterPrefab(model.Prefab{Name: ident.New("vitals"), Components: []ident.Identifier{ident.New("vitals")}})
	return m
}

var _ = Describe("SpawnPolicy", func() {
	var m *model.Model
	var loads map[int]*NodeLoad

	BeforeEach(func() {
		m = vitalsModelForSpawnTest()
		loads = map[int]*NodeLoad{1: {}, 2: {}, 3: {}}
	})

	It("Direct always returns the requested node", func() {
		p := NewSpawnPolicy(SpawnDirect, []int{1, 2, 3}, rand.New(rand.NewSource(1)))
		node := p.Pick(SpawnRequest{Node: 2}, m, loads)
		Expect(node).To(Equal(2))
	})

	It("EqualQuantity spreads requests evenly across nodes", func() {
		p := NewSpawnPolicy(SpawnEqualQuantity, []int{1, 2, 3}, rand.New(rand.NewSource(1)))
		for i := 0; i < 9; i++ {
			p.Pick(SpawnRequest{}, m, loads)
		}
		Expect(loads[1].count).To(Equal(3))
		Expect(loads[2].count).To(Equal(3))
		Expect(loads[3].count).To(Equal(3))
	})

	It("EqualTotalSize favors the node with the least accumulated size", func() {
		p := NewSpawnPolicy(SpawnEqualTotalSize, []int{1, 2}, rand.New(rand.NewSource(1)))
		loads[1].totalSize = 100
		node := p.Pick(SpawnRequest{Prefab: ident.New("vitals")}, m, loads)
		Expect(node).To(Equal(2))
	})
})

var _ = Describe("prefabSize", func() {
	It("sums fixed-width kinds and treats variable-length kinds as zero", func() {
		m := vitalsModelForSpawnTest()
		Expect(prefabSize(m, ident.New("vitals"))).To(Equal(8))
	})

	It("returns zero for an unknown prefab", func() {
		m := vitalsModelForSpawnTest()
		Expect(prefabSize(m, ident.New("ghost"))).To(Equal(0))
	})
})
