package distr

import "github.com/sarchlab/outcome/internal/wire"

// encodePayload/decodePayload reuse the wire package's gob envelope for
// message bodies carried inside distr's akita messages — the same codec
// choice, for the same reason: no pack example carries a cross-process
// struct codec beyond gob.
func encodePayload(v any) ([]byte, error) {
	return wire.Encode(v)
}

func decodePayload(data []byte, v any) error {
	return wire.Decode(data, v)
}
