package atlas

import "testing"

func TestQuantize(t *testing.T) {
	tests := []struct {
		pos  float64
		want int
		bin  Bin
	}{
		{0.0, 0, BinZero},
		{0.12, 0, BinZero},
		{0.125, 0, BinQuarter},
		{0.25, 0, BinQuarter},
		{0.374, 0, BinQuarter},
		{0.375, 0, BinHalf},
		{0.5, 0, BinHalf},
		{0.624, 0, BinHalf},
		{0.625, 0, BinThreeQuarters},
		{0.75, 0, BinThreeQuarters},
		{0.874, 0, BinThreeQuarters},
		{0.875, 1, BinZero},
		{0.95, 1, BinZero},
		{10.1, 10, BinZero},
		{10.3, 10, BinQuarter},
		{10.55, 10, BinHalf},
		{10.8, 10, BinThreeQuarters},
		{10.95, 11, BinZero},
		{-0.05, 0, BinZero},
		{-0.3, -1, BinThreeQuarters},
		{-0.5, -1, BinHalf},
		{-0.95, -1, BinZero},
		{-1.0, -1, BinZero},
	}
	for _, tt := range tests {
		pixel, bin := Quantize(tt.pos)
		if pixel != tt.want || bin != tt.bin {
			t.Errorf("Quantize(%v) = (%d, %v), want (%d, %v)",
				tt.pos, pixel, bin, tt.want, tt.bin)
		}
	}
}

func TestBin_Offset(t *testing.T) {
	offsets := map[Bin]float64{
		BinZero:          0,
		BinQuarter:       0.25,
		BinHalf:          0.5,
		BinThreeQuarters: 0.75,
	}
	for bin, want := range offsets {
		if got := bin.Offset(); got != want {
			t.Errorf("%v.Offset() = %v, want %v", bin, got, want)
		}
	}
}

func TestBin_String(t *testing.T) {
	if got := BinHalf.String(); got != "Half" {
		t.Errorf("BinHalf.String() = %q, want Half", got)
	}
	if got := Bin(9).String(); got != "Unknown(9)" {
		t.Errorf("Bin(9).String() = %q, want Unknown(9)", got)
	}
}
