//go:build !wide

package variable

// IntT and FloatT are the small-width numeric representations (the
// default build). The wide build tag swaps these for 64-bit variants; both
// widths must behave identically for every defined operation (spec §3).
type IntT = int32
type FloatT = float32
