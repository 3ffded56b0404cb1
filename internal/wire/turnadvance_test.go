package wire_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/outcome/internal/wire"
)

var _ = Describe("TurnGate", func() {
	var gate *wire.TurnGate

	BeforeEach(func() {
		gate = wire.NewTurnGate()
	})

	It("blocks fully when a blocking client has not caught up", func() {
		gate.Register("a", true)
		gate.Register("b", true)
		gate.Acknowledge("b", 5)

		resp := gate.Request("a", 3)
		Expect(resp.Error).To(Equal(wire.TurnAdvanceBlockedFully))
		Expect(gate.Clock()).To(Equal(uint64(0)))
	})

	It("advances once every blocking client has caught up", func() {
		gate.Register("a", true)
		gate.Register("b", true)
		gate.Acknowledge("b", 5)

		gate.Request("a", 3)
		resp := gate.Request("b", 3)

		Expect(resp.Error).To(Equal(wire.TurnAdvanceOK))
		Expect(gate.Clock()).To(Equal(uint64(3)))
	})

	It("never gates on non-blocking clients", func() {
		gate.Register("a", false)
		resp := gate.Request("a", 4)
		Expect(resp.Error).To(Equal(wire.TurnAdvanceOK))
		Expect(gate.Clock()).To(Equal(uint64(4)))
	})
})
