package mdct

import (
	"math"
	"testing"
)

// inverseSlow is the direct summation form of the inverse transform,
// evaluated in float64. The fast transform must agree with it.
func inverseSlow(coeffs []float32, n int) []float64 {
	out := make([]float64, n)
	fn := float64(n)
	for i := range out {
		var acc float64
		for j, x := range coeffs {
			acc += float64(x) * math.Cos(math.Pi/2/fn*(2*float64(i)+1+fn/2)*(2*float64(j)+1))
		}
		out[i] = acc
	}
	return out
}

// testInput fills n/2 coefficients from a fixed linear congruential
// sequence so runs are reproducible without fixture files.
func testInput(n int) []float32 {
	coeffs := make([]float32, n/2)
	seed := uint32(0x2545f491)
	for i := range coeffs {
		seed = seed*1664525 + 1013904223
		coeffs[i] = float32(seed)/float32(1<<31) - 1
	}
	return coeffs
}

func TestInverse_MatchesDirectSummation(t *testing.T) {
	tests := []struct {
		n   int
		tol float64
	}{
		{64, 1e-3},
		{128, 1e-3},
		{256, 2e-3},
		{512, 4e-3},
		{2048, 2e-2},
	}
	for _, tt := range tests {
		coeffs := testInput(tt.n)
		want := inverseSlow(coeffs, tt.n)

		buf := make([]float32, tt.n)
		copy(buf, coeffs)
		New(tt.n).Inverse(buf)

		var worst float64
		for i := range buf {
			if d := math.Abs(float64(buf[i]) - want[i]); d > worst {
				worst = d
			}
		}
		if worst > tt.tol {
			t.Errorf("n=%d: max deviation %g exceeds %g", tt.n, worst, tt.tol)
		}
	}
}

func TestInverse_TimeDomainSymmetry(t *testing.T) {
	// The second half of the output continues the lapped cosine basis: the
	// quarter around n*3/4 is even-symmetric.
	const n = 256
	buf := make([]float32, n)
	copy(buf, testInput(n))
	New(n).Inverse(buf)

	for i := 0; i < n/4; i++ {
		a := buf[n/2+i]
		b := buf[n-1-i]
		if math.Abs(float64(a-b)) > 1e-4 {
			t.Fatalf("output[%d] = %g, output[%d] = %g; want symmetric", n/2+i, a, n-1-i, b)
		}
	}
}

func TestNew_RejectsBadSizes(t *testing.T) {
	for _, n := range []int{0, 48, 100, 32} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("New(%d) did not panic", n)
				}
			}()
			New(n)
		}()
	}
}

func TestInverse_RejectsShortBuffer(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Inverse with short buffer did not panic")
		}
	}()
	New(64).Inverse(make([]float32, 32))
}
