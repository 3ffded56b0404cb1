//go:build wide

package variable

// IntT and FloatT are the wide-width numeric representations, selected with
// the "wide" build tag.
type IntT = int64
type FloatT = float64
