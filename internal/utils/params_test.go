package utils

import "testing"

func TestAtoiDefault(t *testing.T) {
	cases := map[string]struct{ def, want int }{
		"":    {20, 20},
		"5":   {20, 5},
		"-4":  {20, -4},
		"007": {20, 7},
		"ten": {20, 20},
		" 5":  {20, 20}, // untrimmed
		"5.0": {20, 20},
		"1e3": {20, 20},

		"9999999999999999999999": {20, 20}, // overflow
	}
	for in, tc := range cases {
		if got := AtoiDefault(in, tc.def); got != tc.want {
			t.Errorf("AtoiDefault(%q, %d) = %d; want %d", in, tc.def, got, tc.want)
		}
	}
}

func TestClamp(t *testing.T) {
	const lo, hi = 1, 100
	for n, want := range map[int]int{-7: lo, 0: lo, 1: 1, 50: 50, 100: 100, 101: hi} {
		if got := Clamp(n, lo, hi); got != want {
			t.Errorf("Clamp(%d, %d, %d) = %d; want %d", n, lo, hi, got, want)
		}
	}
	// inverted bounds: lo wins
	if got := Clamp(9, 5, 3); got != 5 {
		t.Errorf("Clamp with inverted bounds = %d; want 5", got)
	}
}
