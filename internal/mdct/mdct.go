// Package mdct implements the inverse modified discrete cosine transform
// used by the synthesis filterbank, as a port of the fast split-radix
// formulation from the libvorbis reference implementation
// (https://www.xiph.org/vorbis/doc/libvorbis/).
//
// The transform works in place: the first n/2 elements of the buffer hold
// the spectral coefficients, and after Inverse the full buffer holds the n
// time-domain samples (still unwindowed, scaled for overlap-add).
package mdct

import "math"

const (
	pi3_8 = 0.38268343236508977175
	pi2_8 = 0.70710678118654752441
	pi1_8 = 0.92387953251128675613
)

// MDCT holds the precomputed trig and bit-reversal tables for one transform
// size. It is safe for concurrent use once built.
type MDCT struct {
	n      int
	log2n  int
	trig   []float32
	bitrev []int
}

// New builds the tables for an n-point inverse transform. n must be a power
// of two and at least 64.
func New(n int) *MDCT {
	if n < 64 || n&(n-1) != 0 {
		panic("mdct: transform size must be a power of two >= 64")
	}

	trig := make([]float32, n+n/4)
	fn := float64(n)
	n2 := n / 2
	for i := 0; i < n/4; i++ {
		i2 := float64(i * 2)
		trig[i*2] = float32(math.Cos(math.Pi / fn * (2 * i2)))
		trig[i*2+1] = float32(-math.Sin(math.Pi / fn * (2 * i2)))
		trig[n2+i*2] = float32(math.Cos(math.Pi / (2 * fn) * (i2 + 1)))
		trig[n2+i*2+1] = float32(math.Sin(math.Pi / (2 * fn) * (i2 + 1)))
	}
	for i := 0; i < n/8; i++ {
		i2 := float64(i * 2)
		trig[n+i*2] = float32(math.Cos(math.Pi/fn*(2*i2+2)) * 0.5)
		trig[n+i*2+1] = float32(-math.Sin(math.Pi/fn*(2*i2+2)) * 0.5)
	}

	log2n := 0
	for 1<<uint(log2n+1) <= n {
		log2n++
	}

	bitrev := make([]int, 0, n/4)
	mask := 1<<uint(log2n-1) - 1
	msb := 1 << uint(log2n-2)
	for i := 0; i < n/8; i++ {
		acc := 0
		for j := 0; msb>>uint(j) != 0; j++ {
			if msb>>uint(j)&i != 0 {
				acc |= 1 << uint(j)
			}
		}
		bitrev = append(bitrev, ^acc&mask-1, acc)
	}

	return &MDCT{n: n, log2n: log2n, trig: trig, bitrev: bitrev}
}

// Size returns the transform length n.
func (m *MDCT) Size() int {
	return m.n
}

// Inverse transforms buf in place. len(buf) must equal Size().
func (m *MDCT) Inverse(buf []float32) {
	if len(buf) != m.n {
		panic("mdct: buffer length does not match transform size")
	}
	n := m.n
	n2 := n >> 1
	n4 := n >> 2
	tri := m.trig

	// rotate
	ix := n2 - 7
	ox := n2 + n4
	t := n4
	for {
		ox -= 4
		buf[ox+0] = -buf[ix+2]*tri[t+3] - buf[ix+0]*tri[t+2]
		buf[ox+1] = buf[ix+0]*tri[t+3] - buf[ix+2]*tri[t+2]
		buf[ox+2] = -buf[ix+6]*tri[t+1] - buf[ix+4]*tri[t+0]
		buf[ox+3] = buf[ix+4]*tri[t+1] - buf[ix+6]*tri[t+0]
		if ix < 8 {
			break
		}
		ix -= 8
		t += 4
	}

	ix = n2 - 8
	ox = n2 + n4
	t = n4
	for {
		t -= 4
		buf[ox+0] = buf[ix+4]*tri[t+3] + buf[ix+6]*tri[t+2]
		buf[ox+1] = buf[ix+4]*tri[t+2] - buf[ix+6]*tri[t+3]
		buf[ox+2] = buf[ix+0]*tri[t+1] + buf[ix+2]*tri[t+0]
		buf[ox+3] = buf[ix+0]*tri[t+0] - buf[ix+2]*tri[t+1]
		if ix < 8 {
			break
		}
		ix -= 8
		ox += 4
	}

	m.butterflies(buf[n2:])
	m.bitreverse(buf)

	// rotate + window
	ox1 := n2 + n4
	ox2 := n2 + n4
	ix = 0
	t = n2
	for {
		ox1 -= 4

		buf[ox1+3] = buf[ix+0]*tri[t+1] - buf[ix+1]*tri[t+0]
		buf[ox2+0] = -(buf[ix+0]*tri[t+0] + buf[ix+1]*tri[t+1])

		buf[ox1+2] = buf[ix+2]*tri[t+3] - buf[ix+3]*tri[t+2]
		buf[ox2+1] = -(buf[ix+2]*tri[t+2] + buf[ix+3]*tri[t+3])

		buf[ox1+1] = buf[ix+4]*tri[t+5] - buf[ix+5]*tri[t+4]
		buf[ox2+2] = -(buf[ix+4]*tri[t+4] + buf[ix+5]*tri[t+5])

		buf[ox1+0] = buf[ix+6]*tri[t+7] - buf[ix+7]*tri[t+6]
		buf[ox2+3] = -(buf[ix+6]*tri[t+6] + buf[ix+7]*tri[t+7])

		ox2 += 4
		ix += 8
		t += 8
		if ix >= ox1 {
			break
		}
	}

	ix = n2 + n4
	ox1 = n4
	ox2 = ox1
	for {
		ox1 -= 4
		ix -= 4

		v := buf[ix+3]
		buf[ox1+3] = v
		buf[ox2+0] = -v

		v = buf[ix+2]
		buf[ox1+2] = v
		buf[ox2+1] = -v

		v = buf[ix+1]
		buf[ox1+1] = v
		buf[ox2+2] = -v

		v = buf[ix+0]
		buf[ox1+0] = v
		buf[ox2+3] = -v

		ox2 += 4
		if ox2 >= ix {
			break
		}
	}

	ix = n2 + n4
	ox1 = n2 + n4
	for {
		ox1 -= 4
		buf[ox1+0] = buf[ix+3]
		buf[ox1+1] = buf[ix+2]
		buf[ox1+2] = buf[ix+1]
		buf[ox1+3] = buf[ix+0]
		ix += 4
		if ox1 <= n2 {
			break
		}
	}
}

func (m *MDCT) butterflies(x []float32) {
	stages := m.log2n - 5

	if stages > 1 {
		m.butterflyFirst(x)
	}
	for i := 1; i < stages-1; i++ {
		l := len(x) >> uint(i)
		for j := 0; j < 1<<uint(i); j++ {
			m.butterflyGeneric(x[l*j:l*j+l], 4<<uint(i))
		}
	}
	for j := 0; j < len(x); j += 32 {
		butterfly32(x[j:])
	}
}

// butterflyFirst runs the first stage over the full block, using the packed
// trig table directly.
func (m *MDCT) butterflyFirst(x []float32) {
	tri := m.trig
	t := 0
	x1 := len(x) - 8
	x2 := len(x)>>1 - 8

	for {
		r0 := x[x1+6] - x[x2+6]
		r1 := x[x1+7] - x[x2+7]
		x[x1+6] += x[x2+6]
		x[x1+7] += x[x2+7]
		x[x2+6] = r1*tri[t+1] + r0*tri[t+0]
		x[x2+7] = r1*tri[t+0] - r0*tri[t+1]

		r0 = x[x1+4] - x[x2+4]
		r1 = x[x1+5] - x[x2+5]
		x[x1+4] += x[x2+4]
		x[x1+5] += x[x2+5]
		x[x2+4] = r1*tri[t+5] + r0*tri[t+4]
		x[x2+5] = r1*tri[t+4] - r0*tri[t+5]

		r0 = x[x1+2] - x[x2+2]
		r1 = x[x1+3] - x[x2+3]
		x[x1+2] += x[x2+2]
		x[x1+3] += x[x2+3]
		x[x2+2] = r1*tri[t+9] + r0*tri[t+8]
		x[x2+3] = r1*tri[t+8] - r0*tri[t+9]

		r0 = x[x1+0] - x[x2+0]
		r1 = x[x1+1] - x[x2+1]
		x[x1+0] += x[x2+0]
		x[x1+1] += x[x2+1]
		x[x2+0] = r1*tri[t+13] + r0*tri[t+12]
		x[x2+1] = r1*tri[t+12] - r0*tri[t+13]

		if x2 < 8 {
			break
		}
		x1 -= 8
		x2 -= 8
		t += 16
	}
}

// butterflyGeneric runs one middle stage over a sub-block, striding the trig
// table by trigint.
func (m *MDCT) butterflyGeneric(x []float32, trigint int) {
	tri := m.trig
	x1 := len(x) - 8
	x2 := len(x)>>1 - 8
	t := 0

	for {
		r0 := x[x1+6] - x[x2+6]
		r1 := x[x1+7] - x[x2+7]
		x[x1+6] += x[x2+6]
		x[x1+7] += x[x2+7]
		x[x2+6] = r1*tri[t+1] + r0*tri[t+0]
		x[x2+7] = r1*tri[t+0] - r0*tri[t+1]

		t += trigint

		r0 = x[x1+4] - x[x2+4]
		r1 = x[x1+5] - x[x2+5]
		x[x1+4] += x[x2+4]
		x[x1+5] += x[x2+5]
		x[x2+4] = r1*tri[t+1] + r0*tri[t+0]
		x[x2+5] = r1*tri[t+0] - r0*tri[t+1]

		t += trigint

		r0 = x[x1+2] - x[x2+2]
		r1 = x[x1+3] - x[x2+3]
		x[x1+2] += x[x2+2]
		x[x1+3] += x[x2+3]
		x[x2+2] = r1*tri[t+1] + r0*tri[t+0]
		x[x2+3] = r1*tri[t+0] - r0*tri[t+1]

		t += trigint

		r0 = x[x1+0] - x[x2+0]
		r1 = x[x1+1] - x[x2+1]
		x[x1+0] += x[x2+0]
		x[x1+1] += x[x2+1]
		x[x2+0] = r1*tri[t+1] + r0*tri[t+0]
		x[x2+1] = r1*tri[t+0] - r0*tri[t+1]

		t += trigint
		if x2 < 8 {
			break
		}
		x1 -= 8
		x2 -= 8
	}
}

func butterfly8(x []float32) {
	r0 := x[6] + x[2]
	r1 := x[6] - x[2]
	r2 := x[4] + x[0]
	r3 := x[4] - x[0]

	x[6] = r0 + r2
	x[4] = r0 - r2

	r0 = x[5] - x[1]
	r2 = x[7] - x[3]
	x[0] = r1 + r0
	x[2] = r1 - r0

	r0 = x[5] + x[1]
	r1 = x[7] + x[3]
	x[3] = r2 + r3
	x[1] = r2 - r3
	x[7] = r1 + r0
	x[5] = r1 - r0
}

func butterfly16(x []float32) {
	r0 := x[1] - x[9]
	r1 := x[0] - x[8]

	x[8] += x[0]
	x[9] += x[1]
	x[0] = (r0 + r1) * pi2_8
	x[1] = (r0 - r1) * pi2_8

	r0 = x[3] - x[11]
	r1 = x[10] - x[2]
	x[10] += x[2]
	x[11] += x[3]
	x[2] = r0
	x[3] = r1

	r0 = x[12] - x[4]
	r1 = x[13] - x[5]
	x[12] += x[4]
	x[13] += x[5]
	x[4] = (r0 - r1) * pi2_8
	x[5] = (r0 + r1) * pi2_8

	r0 = x[14] - x[6]
	r1 = x[15] - x[7]
	x[14] += x[6]
	x[15] += x[7]
	x[6] = r0
	x[7] = r1

	butterfly8(x)
	butterfly8(x[8:])
}

func butterfly32(x []float32) {
	r0 := x[30] - x[14]
	r1 := x[31] - x[15]
	x[30] += x[14]
	x[31] += x[15]
	x[14] = r0
	x[15] = r1

	r0 = x[28] - x[12]
	r1 = x[29] - x[13]
	x[28] += x[12]
	x[29] += x[13]
	x[12] = r0*pi1_8 - r1*pi3_8
	x[13] = r0*pi3_8 + r1*pi1_8

	r0 = x[26] - x[10]
	r1 = x[27] - x[11]
	x[26] += x[10]
	x[27] += x[11]
	x[10] = (r0 - r1) * pi2_8
	x[11] = (r0 + r1) * pi2_8

	r0 = x[24] - x[8]
	r1 = x[25] - x[9]
	x[24] += x[8]
	x[25] += x[9]
	x[8] = r0*pi3_8 - r1*pi1_8
	x[9] = r1*pi3_8 + r0*pi1_8

	r0 = x[22] - x[6]
	r1 = x[7] - x[23]
	x[22] += x[6]
	x[23] += x[7]
	x[6] = r1
	x[7] = r0

	r0 = x[4] - x[20]
	r1 = x[5] - x[21]
	x[20] += x[4]
	x[21] += x[5]
	x[4] = r1*pi1_8 + r0*pi3_8
	x[5] = r1*pi3_8 - r0*pi1_8

	r0 = x[2] - x[18]
	r1 = x[3] - x[19]
	x[18] += x[2]
	x[19] += x[3]
	x[2] = (r1 + r0) * pi2_8
	x[3] = (r1 - r0) * pi2_8

	r0 = x[0] - x[16]
	r1 = x[1] - x[17]
	x[16] += x[0]
	x[17] += x[1]
	x[0] = r1*pi3_8 + r0*pi1_8
	x[1] = r1*pi1_8 - r0*pi3_8

	butterfly16(x)
	butterfly16(x[16:])
}

func (m *MDCT) bitreverse(x []float32) {
	n := m.n
	n2 := n >> 1
	brv := m.bitrev
	tri := m.trig
	bit := 0
	w0 := 0
	w1 := n2
	t := n

	for {
		x0 := n2 + brv[bit+0]
		x1 := n2 + brv[bit+1]

		r0 := x[x0+1] - x[x1+1]
		r1 := x[x0+0] + x[x1+0]
		r2 := r1*tri[t+0] + r0*tri[t+1]
		r3 := r1*tri[t+1] - r0*tri[t+0]

		w1 -= 4

		r0 = (x[x0+1] + x[x1+1]) * 0.5
		r1 = (x[x0+0] - x[x1+0]) * 0.5

		x[w0+0] = r0 + r2
		x[w1+2] = r0 - r2
		x[w0+1] = r1 + r3
		x[w1+3] = r3 - r1

		x0 = n2 + brv[bit+2]
		x1 = n2 + brv[bit+3]

		r0 = x[x0+1] - x[x1+1]
		r1 = x[x0+0] + x[x1+0]
		r2 = r1*tri[t+2] + r0*tri[t+3]
		r3 = r1*tri[t+3] - r0*tri[t+2]

		r0 = (x[x0+1] + x[x1+1]) * 0.5
		r1 = (x[x0+0] - x[x1+0]) * 0.5

		x[w0+2] = r0 + r2
		x[w1+0] = r0 - r2
		x[w0+3] = r1 + r3
		x[w1+1] = r3 - r1

		t += 4
		bit += 4
		w0 += 4
		if w0 >= w1 {
			break
		}
	}
}
