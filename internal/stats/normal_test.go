package stats

import (
	"math"
	"testing"
)

func TestPhiKnownValues(t *testing.T) {
	cases := []struct {
		z    float64
		want float64
	}{
		{0, 0.5},
		{1.0, 0.841345},
		{-1.0, 0.158655},
		{1.96, 0.975002},
		{-1.96, 0.024998},
		{3.0, 0.998650},
	}
	for _, tc := range cases {
		got := Phi(tc.z)
		if math.Abs(got-tc.want) > 1e-5 {
			t.Fatalf("Phi(%v) = %v, want %v", tc.z, got, tc.want)
		}
	}
}

func TestPhiSymmetry(t *testing.T) {
	for _, z := range []float64{0.1, 0.5, 1.3, 2.7, 4.0} {
		sum := Phi(z) + Phi(-z)
		if math.Abs(sum-1.0) > 1e-7 {
			t.Fatalf("Phi(%v)+Phi(-%v) = %v, want 1", z, z, sum)
		}
	}
}

func TestPhiMonotonic(t *testing.T) {
	prev := Phi(-6)
	for z := -5.5; z <= 6; z += 0.5 {
		cur := Phi(z)
		if cur <= prev {
			t.Fatalf("Phi not strictly increasing at z=%v: %v <= %v", z, cur, prev)
		}
		prev = cur
	}
}

func TestPhiBounds(t *testing.T) {
	for _, z := range []float64{-8, -3, 0, 3, 8} {
		p := Phi(z)
		if p < 0 || p > 1 {
			t.Fatalf("Phi(%v) = %v out of [0,1]", z, p)
		}
	}
}
