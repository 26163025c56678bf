package vorbis

import (
	"testing"

	"github.com/llehouerou/go-vorbis/internal/bits"
)

func TestRenderPoint(t *testing.T) {
	tests := []struct {
		x0, y0, x1, y1, x, want int
	}{
		{0, 0, 10, 10, 5, 5},
		{0, 10, 64, 20, 32, 15},
		{0, 20, 64, 10, 32, 15},
		{0, 0, 64, 7, 32, 3}, // truncating division
		{0, 7, 64, 0, 32, 4},
	}
	for _, tt := range tests {
		if got := renderPoint(tt.x0, tt.y0, tt.x1, tt.y1, tt.x); got != tt.want {
			t.Errorf("renderPoint(%d,%d,%d,%d,%d) = %d, want %d",
				tt.x0, tt.y0, tt.x1, tt.y1, tt.x, got, tt.want)
		}
	}
}

func TestRenderLine_FlatSegment(t *testing.T) {
	// A segment with equal endpoint amplitudes applies a constant factor
	// to every covered bin.
	dst := make([]float32, 64)
	for i := range dst {
		dst[i] = 1
	}
	renderLine(dst, 0, 100, 64, 100)
	for i, v := range dst {
		if v != inverseDBTable[100] {
			t.Fatalf("dst[%d] = %g, want %g", i, v, inverseDBTable[100])
		}
	}
}

func TestRenderLine_ClampsToBuffer(t *testing.T) {
	// Segments extending past the spectrum length drop the excess bins.
	dst := make([]float32, 8)
	for i := range dst {
		dst[i] = 1
	}
	renderLine(dst, 4, 10, 16, 10)
	for i := 0; i < 4; i++ {
		if dst[i] != 1 {
			t.Errorf("dst[%d] = %g, want untouched 1", i, dst[i])
		}
	}
	for i := 4; i < 8; i++ {
		if dst[i] != inverseDBTable[10] {
			t.Errorf("dst[%d] = %g, want %g", i, dst[i], inverseDBTable[10])
		}
	}
}

func TestFindNeighbors(t *testing.T) {
	arr := []int{0, 64, 32, 16, 48}
	tests := []struct {
		end  int
		want [2]int
	}{
		{2, [2]int{0, 1}}, // v=32: below 0, above 64
		{3, [2]int{0, 2}}, // v=16: below 0, above 32
		{4, [2]int{2, 1}}, // v=48: below 32, above 64
	}
	for _, tt := range tests {
		if got := findNeighbors(arr, tt.end); got != tt.want {
			t.Errorf("findNeighbors(%v, %d) = %v, want %v", arr, tt.end, got, tt.want)
		}
	}
}

// testFloor builds the smallest type 1 config: X list {0, 64, 32} with one
// single-dimension class.
func testFloor() *floorConfig {
	return &floorConfig{
		kind:        1,
		mult:        1,
		valueRange:  256,
		partClasses: []int{0},
		classes:     []floorClass{{dims: 1, subclassBooks: []int{-1}}},
		xList:       []int{0, 64, 32},
		sortedX:     []int{0, 2, 1},
		neighbors:   [][2]int{{0, 1}},
	}
}

func TestDecodeAmplitude(t *testing.T) {
	f := testFloor()

	tests := []struct {
		name     string
		rawY     int
		wantY    int
		wantFlag bool
	}{
		// predicted amplitude at x=32 between (0,10) and (64,20) is 15
		{"on the predicted line", 0, 15, false},
		{"even offset above", 4, 17, true},
		{"odd offset below", 5, 12, true},
		{"offset beyond room", 200, 15 + 200 - 15, true}, // lowRoom 15 < highRoom
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &floorState{}
			st.push(10, true)
			st.push(20, true)
			st.push(tt.rawY, true)
			f.decodeAmplitude(st)
			if st.ys[2] != tt.wantY || st.flags[2] != tt.wantFlag {
				t.Errorf("y = %d flag = %v, want %d, %v", st.ys[2], st.flags[2], tt.wantY, tt.wantFlag)
			}
		})
	}
}

func TestDecodeAmplitude_ClampsToRange(t *testing.T) {
	// An offset far past the available room would land outside the value
	// range; the final amplitude clamps instead.
	f := testFloor()
	f.valueRange = 86
	st := &floorState{}
	st.push(80, true)
	st.push(80, true)
	st.push(200, true)
	f.decodeAmplitude(st)
	if st.ys[2] != 0 {
		t.Fatalf("y = %d, want clamped to 0", st.ys[2])
	}
}

func TestBeginDecode_ClampsLeadingAmplitudes(t *testing.T) {
	// With a non power of two value range the two leading amplitude fields
	// can code values past the range; they clamp so the rendered curve
	// stays inside the inverse dB table.
	f := testFloor()
	f.mult = 3
	f.valueRange = 86

	var w residueBitWriter
	w.write(1, 1) // floor present
	w.write(127, 7)
	w.write(127, 7)

	st := &floorState{}
	if err := f.doBeginDecode(bits.NewReader(w.buf), nil, st); err != nil {
		t.Fatalf("doBeginDecode: %v", err)
	}
	if st.ys[0] != 85 || st.ys[1] != 85 {
		t.Fatalf("leading ys = %v, want clamped to 85", st.ys[:2])
	}

	dst := make([]float32, 32)
	for i := range dst {
		dst[i] = 1
	}
	f.finishDecode(dst, st)
	for i, v := range dst {
		if v != inverseDBTable[255] {
			t.Fatalf("dst[%d] = %g, want %g", i, v, inverseDBTable[255])
		}
	}
}

func TestFinishDecode_FlatCurve(t *testing.T) {
	// Equal amplitudes at every point give a flat curve: every bin is
	// scaled by the same factor.
	f := testFloor()
	st := &floorState{
		ys:    []int{50, 50, 50},
		flags: []bool{true, true, true},
	}
	dst := make([]float32, 32)
	for i := range dst {
		dst[i] = 1
	}
	f.finishDecode(dst, st)
	for i, v := range dst {
		if v != inverseDBTable[50] {
			t.Fatalf("dst[%d] = %g, want %g", i, v, inverseDBTable[50])
		}
	}
}

func TestFinishDecode_SkipsUnflaggedPoints(t *testing.T) {
	// A point on the predicted line does not anchor a segment: the curve
	// runs straight between its neighbors.
	f := testFloor()
	st := &floorState{
		ys:    []int{50, 50, 80},
		flags: []bool{true, true, false},
	}
	dst := make([]float32, 32)
	for i := range dst {
		dst[i] = 1
	}
	f.finishDecode(dst, st)
	for i, v := range dst {
		if v != inverseDBTable[50] {
			t.Fatalf("dst[%d] = %g, want %g", i, v, inverseDBTable[50])
		}
	}
}
