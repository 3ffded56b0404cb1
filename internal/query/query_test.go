package query_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/outcome/internal/entity"
	"github.com/sarchlab/outcome/internal/ident"
	"github.com/sarchlab/outcome/internal/query"
	"github.com/sarchlab/outcome/internal/variable"
)

func mkEntity(id int, name string, health int) *entity.Entity {
	e := entity.New(id, ident.New(name))
	e.Declare(ident.New("vitals"), ident.New("health"), variable.Int(variable.IntT(health)))
	return e
}

var _ = Describe("Evaluate", func() {
	var entities []*entity.Entity

	BeforeEach(func() {
		entities = []*entity.Entity{
			mkEntity(1, "a", 10),
			mkEntity(2, "b", 50),
			mkEntity(3, "c", 90),
		}
	})

	It("keeps only entities within a VarRange filter", func() {
		q := &query.Query{Filters: []query.Filter{{
			Kind: query.FilterVarRange, VarComponent: ident.New("vitals"), VarName: ident.New("health"),
			Lo: 20, Hi: 100,
		}}}

		out, err := query.Evaluate(q, entities, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(2))
		Expect(out[0].ID).To(Equal(2))
		Expect(out[1].ID).To(Equal(3))
	})

	It("applies AllComponents and Name filters conjunctively", func() {
		q := &query.Query{Filters: []query.Filter{
			{Kind: query.FilterAllComponents, Components: []ident.Identifier{ident.New("vitals")}},
			{Kind: query.FilterName, Names: []string{"b"}},
		}}

		out, err := query.Evaluate(q, entities, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(HaveLen(1))
		Expect(out[0].Name.String()).To(Equal("b"))
	})
})

var _ = Describe("Project", func() {
	It("renders MappingVar under DescriptionAddressedMap", func() {
		e := mkEntity(1, "a", 10)
		q := &query.Query{
			Description: query.DescriptionAddressedMap,
			Mappings:    []query.Mapping{{Kind: query.MappingVar, Component: ident.New("vitals"), VarName: ident.New("health")}},
		}

		res := query.Project(q, []*entity.Entity{e})
		Expect(res.Addressed).To(HaveLen(1))
		for _, v := range res.Addressed {
			i, _ := v.AsInt()
			Expect(i).To(Equal(variable.IntT(10)))
		}
	})

	It("assigns an order id for DescriptionOrderedList registrations", func() {
		r := query.NewRegistry()
		q := r.Register("telemetry", query.Query{Description: query.DescriptionOrderedList})
		Expect(q.OrderID).NotTo(BeEmpty())
	})
})
