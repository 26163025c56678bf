package vorbis

import (
	"errors"
	"testing"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/codebook"
)

// residueBitWriter packs values least significant bit first so tests can
// assemble codebook definitions and residue data bit by bit.
type residueBitWriter struct {
	buf []byte
	n   uint
}

func (w *residueBitWriter) write(v uint32, n uint) {
	for i := uint(0); i < n; i++ {
		if w.n%8 == 0 {
			w.buf = append(w.buf, 0)
		}
		if v>>i&1 == 1 {
			w.buf[len(w.buf)-1] |= 1 << (w.n % 8)
		}
		w.n++
	}
}

// writeCode emits codeword bits in stream order.
func (w *residueBitWriter) writeCode(s string) {
	for _, ch := range s {
		switch ch {
		case '0':
			w.write(0, 1)
		case '1':
			w.write(1, 1)
		}
	}
}

// testClassbook builds a scalar codebook with one dimension and two entries
// coded as single bits 0 and 1.
func testClassbook(t *testing.T) *codebook.Codebook {
	t.Helper()
	var w residueBitWriter
	w.write(0x564342, 24)
	w.write(1, 16) // dimensions
	w.write(2, 24) // entries
	w.write(0, 1)  // not ordered
	w.write(0, 1)  // not sparse
	w.write(0, 5)  // length 1
	w.write(0, 5)  // length 1
	w.write(0, 4)  // no lookup
	b, err := codebook.Read(bits.NewReader(w.buf))
	if err != nil {
		t.Fatalf("classbook: %v", err)
	}
	return b
}

// testValueBook builds a two-dimensional VQ codebook with four entries,
// two-bit codes, and entry e mapping to the vector [2e, 2e+1].
func testValueBook(t *testing.T) *codebook.Codebook {
	t.Helper()
	var w residueBitWriter
	w.write(0x564342, 24)
	w.write(2, 16) // dimensions
	w.write(4, 24) // entries
	w.write(0, 1)  // not ordered
	w.write(0, 1)  // not sparse
	for i := 0; i < 4; i++ {
		w.write(1, 5) // length 2
	}
	w.write(2, 4)            // lookup type 2
	w.write(0, 32)           // minimum 0.0
	w.write(788<<21|1, 32)   // delta 1.0
	w.write(2, 4)            // 3 value bits
	w.write(0, 1)            // no sequence flag
	for q := uint32(0); q < 8; q++ {
		w.write(q, 3)
	}
	b, err := codebook.Read(bits.NewReader(w.buf))
	if err != nil {
		t.Fatalf("value book: %v", err)
	}
	return b
}

func TestResidue1Decode(t *testing.T) {
	books := []*codebook.Codebook{testClassbook(t), testValueBook(t)}
	rc := &residueConfig{
		kind:      1,
		start:     0,
		end:       4,
		partLen:   4,
		classbook: 0,
		books:     [][residuePasses]int{{1, -1, -1, -1, -1, -1, -1, -1}, {-1, -1, -1, -1, -1, -1, -1, -1}},
	}

	// One partition of class 0, decoded as entries 1 and 2.
	var w residueBitWriter
	w.writeCode("0 01 10")

	frame := [][]float32{make([]float32, 8)}
	err := rc.decode(bits.NewReader(w.buf), frame, 4, []int{0}, []bool{false}, books, make([]float32, 2))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float32{2, 3, 4, 5}
	for i, v := range want {
		if frame[0][i] != v {
			t.Errorf("frame[0][%d] = %g, want %g", i, frame[0][i], v)
		}
	}
}

func TestResidue1Decode_SkipsZeroChannel(t *testing.T) {
	books := []*codebook.Codebook{testClassbook(t), testValueBook(t)}
	rc := &residueConfig{
		kind:      1,
		start:     0,
		end:       4,
		partLen:   4,
		classbook: 0,
		books:     [][residuePasses]int{{1, -1, -1, -1, -1, -1, -1, -1}},
	}

	frame := [][]float32{{9, 9, 9, 9, 9, 9, 9, 9}}
	err := rc.decode(bits.NewReader(nil), frame, 4, []int{0}, []bool{true}, books, make([]float32, 2))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// The row is cleared but nothing is read from the packet.
	for i := 0; i < 4; i++ {
		if frame[0][i] != 0 {
			t.Errorf("frame[0][%d] = %g, want 0", i, frame[0][i])
		}
	}
}

func TestResidue2Decode_Interleaved(t *testing.T) {
	books := []*codebook.Codebook{testClassbook(t), testValueBook(t)}
	rc := &residueConfig{
		kind:      2,
		start:     0,
		end:       8,
		partLen:   4,
		classbook: 0,
		books:     [][residuePasses]int{{1, -1, -1, -1, -1, -1, -1, -1}, {-1, -1, -1, -1, -1, -1, -1, -1}},
	}

	// Two flat partitions over two channels: the first of class 0 decodes
	// entries 0 and 1, the second of class 1 has no codebook and skips.
	var w residueBitWriter
	w.writeCode("0 00 01 1")

	frame := [][]float32{make([]float32, 4), make([]float32, 4)}
	err := rc.decode(bits.NewReader(w.buf), frame, 4, []int{0, 1}, []bool{false, false}, books, make([]float32, 2))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	// Flat values 0,1,2,3 deinterleave to channel 0 bins 0,1 and channel 1
	// bins 0,1.
	wantCh0 := []float32{0, 2, 0, 0}
	wantCh1 := []float32{1, 3, 0, 0}
	for i := range wantCh0 {
		if frame[0][i] != wantCh0[i] {
			t.Errorf("frame[0][%d] = %g, want %g", i, frame[0][i], wantCh0[i])
		}
		if frame[1][i] != wantCh1[i] {
			t.Errorf("frame[1][%d] = %g, want %g", i, frame[1][i], wantCh1[i])
		}
	}
}

func TestResidueDecode_Type0Unsupported(t *testing.T) {
	rc := &residueConfig{kind: 0}
	err := rc.decode(bits.NewReader(nil), [][]float32{make([]float32, 4)}, 4, []int{0}, []bool{false}, nil, nil)
	if !errors.Is(err, ErrUnsupportedFeature) {
		t.Fatalf("decode type 0: err = %v, want ErrUnsupportedFeature", err)
	}
}

func TestResidueDecode_TruncatedPacketKeepsPartialData(t *testing.T) {
	// Running out of bits mid-residue keeps the values decoded so far
	// instead of failing.
	books := []*codebook.Codebook{testClassbook(t), testValueBook(t)}
	rc := &residueConfig{
		kind:      1,
		start:     0,
		end:       8,
		partLen:   8,
		classbook: 0,
		books:     [][residuePasses]int{{1, -1, -1, -1, -1, -1, -1, -1}},
	}

	// Three of the four vectors fit in the packet; the last read hits end
	// of packet after the byte-padding bit.
	var w residueBitWriter
	w.writeCode("0 01 10 01")

	frame := [][]float32{make([]float32, 8)}
	err := rc.decode(bits.NewReader(w.buf), frame, 8, []int{0}, []bool{false}, books, make([]float32, 2))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []float32{2, 3, 4, 5, 2, 3, 0, 0}
	for i, v := range want {
		if frame[0][i] != v {
			t.Errorf("frame[0][%d] = %g, want %g", i, frame[0][i], v)
		}
	}
}
