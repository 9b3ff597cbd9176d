package atlas

import (
	"fmt"
	"math"
)

// Bin is a quantized subpixel position. Glyphs rendered at fractional pixel
// offsets produce different coverage masks, so the cache keys each glyph by
// the nearest quarter-pixel bin on both axes. Four bins balance quality
// against cache size: finer bins multiply the number of cached rasterizations
// per glyph with little visible gain.
type Bin uint8

const (
	// BinZero is the whole-pixel position.
	BinZero Bin = iota

	// BinQuarter is the +0.25 px position.
	BinQuarter

	// BinHalf is the +0.5 px position.
	BinHalf

	// BinThreeQuarters is the +0.75 px position.
	BinThreeQuarters
)

// String returns the string representation of the bin.
func (b Bin) String() string {
	switch b {
	case BinZero:
		return "Zero"
	case BinQuarter:
		return "Quarter"
	case BinHalf:
		return "Half"
	case BinThreeQuarters:
		return "ThreeQuarters"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(b))
	}
}

// Offset returns the fractional pixel offset the rasterizer should apply for
// this bin: 0, 0.25, 0.5 or 0.75.
func (b Bin) Offset() float64 {
	return float64(b) * 0.25
}

// Quantize splits a fractional position into an integer pixel position and
// the nearest subpixel bin. Positions within an eighth of a pixel of the next
// whole pixel round up:
//
//   - Quantize(10.10) returns (10, BinZero)
//   - Quantize(10.30) returns (10, BinQuarter)
//   - Quantize(10.55) returns (10, BinHalf)
//   - Quantize(10.80) returns (10, BinThreeQuarters)
//   - Quantize(10.95) returns (11, BinZero)
func Quantize(pos float64) (int, Bin) {
	floor := math.Floor(pos)
	frac := pos - floor
	i := int(floor)

	switch {
	case frac < 0.125:
		return i, BinZero
	case frac < 0.375:
		return i, BinQuarter
	case frac < 0.625:
		return i, BinHalf
	case frac < 0.875:
		return i, BinThreeQuarters
	default:
		return i + 1, BinZero
	}
}
