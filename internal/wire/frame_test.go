package wire_test

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/outcome/internal/wire"
)

var _ = Describe("Frame", func() {
	It("round-trips task id, type and payload through a buffer", func() {
		var buf bytes.Buffer
		in := wire.Frame{TaskID: 42, Type: wire.TypePing, Payload: []byte("hello")}

		Expect(wire.WriteFrame(&buf, in)).To(Succeed())

		out, err := wire.ReadFrame(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(out.TaskID).To(Equal(in.TaskID))
		Expect(out.Type).To(Equal(in.Type))
		Expect(out.Payload).To(Equal(in.Payload))
	})

	It("rejects a frame shorter than the minimum header", func() {
		var buf bytes.Buffer
		buf.Write([]byte{0, 0, 0, 2, 0, 0})

		_, err := wire.ReadFrame(&buf)
		Expect(err).To(HaveOccurred())
	})

	It("round-trips multiple frames in sequence", func() {
		var buf bytes.Buffer
		Expect(wire.WriteFrame(&buf, wire.Frame{TaskID: 1, Type: wire.TypeStatus})).To(Succeed())
		Expect(wire.WriteFrame(&buf, wire.Frame{TaskID: 2, Type: wire.TypeTurnAdvanceRequest, Payload: []byte{1, 2, 3}})).To(Succeed())

		first, err := wire.ReadFrame(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(first.TaskID).To(Equal(uint32(1)))

		second, err := wire.ReadFrame(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(second.TaskID).To(Equal(uint32(2)))
		Expect(second.Payload).To(Equal([]byte{1, 2, 3}))
	})
})

var _ = Describe("Encode/Decode", func() {
	It("round-trips a TurnAdvanceRequest payload", func() {
		in := wire.TurnAdvanceRequest{StepCount: 3, Wait: true}
		payload, err := wire.Encode(in)
		Expect(err).NotTo(HaveOccurred())

		var out wire.TurnAdvanceRequest
		Expect(wire.Decode(payload, &out)).To(Succeed())
		Expect(out).To(Equal(in))
	})
})
