// Package window implements the lapped windowing of the synthesis
// filterbank: the slope function, the four overlap geometries arising from
// short and long block transitions, and the overlap-add itself.
package window

import "math"

// Kind distinguishes the two block sizes a stream may use.
type Kind int

const (
	Short Kind = iota
	Long
)

// Range is a half-open index range into a frame buffer.
type Range struct {
	Start, End int
}

func (r Range) Len() int {
	return r.End - r.Start
}

// Target selects which of the two lapped frames receives the overlap-add
// result, and therefore which frame carries the finished samples.
type Target int

const (
	// Previous: the result lands in the previous frame's buffer.
	Previous Target = iota
	// Current: the result lands in the current frame's buffer.
	Current
)

// Window describes the lap geometry between two adjacent frames. Left is
// the returnable region of the previous frame, Right the returnable region
// of the current one; the slope covers the overlapping tails.
type Window struct {
	Left Range
	// the left slope ends at Left.End
	leftSlopeStart int
	Right          Range
	// the right slope starts at Right.Start
	rightSlopeEnd int
	slope         []float32
	Target        Target
}

func newWindow(leftLen, rightLen int, slope []float32) *Window {
	leftStart := leftLen / 2
	rightEnd := rightLen / 2

	switch {
	case leftLen == rightLen:
		return &Window{
			Left:           Range{leftStart, leftLen},
			leftSlopeStart: leftStart,
			Right:          Range{0, rightEnd},
			rightSlopeEnd:  rightEnd,
			slope:          slope,
			Target:         Previous,
		}
	case leftLen > rightLen:
		// A short frame following a long one laps only the middle of the
		// long frame's second half.
		leftPoint := leftLen * 3 / 4
		rightPoint := rightLen / 4
		return &Window{
			Left:           Range{leftStart, leftPoint + rightPoint},
			leftSlopeStart: leftPoint - rightPoint,
			Right:          Range{0, rightEnd},
			rightSlopeEnd:  rightEnd,
			slope:          slope,
			Target:         Previous,
		}
	default:
		leftPoint := leftLen / 4
		rightPoint := rightLen / 4
		return &Window{
			Left:           Range{leftStart, leftLen},
			leftSlopeStart: leftStart,
			Right:          Range{rightPoint - leftPoint, rightEnd},
			rightSlopeEnd:  rightPoint + leftPoint,
			slope:          slope,
			Target:         Current,
		}
	}
}

// Len returns the number of finished samples the lap produces, taken from
// the target frame's returnable region.
func (w *Window) Len() int {
	if w.Target == Previous {
		return w.Left.Len()
	}
	return w.Right.Len()
}

// Overlap folds the lapped tails of the previous and current frame
// together, writing the sum into the target frame. The non-overlapping
// parts of the target region are left as they are.
func (w *Window) Overlap(prev, cur []float32) {
	l := prev[w.leftSlopeStart:w.Left.End]
	r := cur[w.Right.Start:w.rightSlopeEnd]
	n := len(w.slope)
	for i := 0; i < n; i++ {
		v := l[i]*w.slope[n-1-i] + r[i]*w.slope[i]
		if w.Target == Previous {
			l[i] = v
		} else {
			r[i] = v
		}
	}
}

// Set holds the four precomputed windows for a stream's block size pair,
// indexed by the kinds of the two adjacent frames.
type Set struct {
	windows [4]*Window
}

// NewSet builds the window set for the given short and long frame lengths.
func NewSet(shortLen, longLen int) *Set {
	shortSlope := makeSlope(shortLen / 2)
	longSlope := makeSlope(longLen / 2)
	return &Set{windows: [4]*Window{
		newWindow(shortLen, shortLen, shortSlope),
		newWindow(longLen, shortLen, shortSlope),
		newWindow(shortLen, longLen, shortSlope),
		newWindow(longLen, longLen, longSlope),
	}}
}

// Get returns the window lapping a frame of kind prev with one of kind cur.
func (s *Set) Get(prev, cur Kind) *Window {
	return s.windows[int(prev)|int(cur)<<1]
}

// makeSlope computes the right half of the window shape,
// y = sin(pi/2 * sin^2((x+0.5)/n * pi/2)), which is power-complementary
// with its own reversal.
func makeSlope(n int) []float32 {
	slope := make([]float32, n)
	fn := float64(n)
	for x := range slope {
		s := math.Sin((float64(x) + 0.5) / fn * 0.5 * math.Pi)
		slope[x] = float32(math.Sin(0.5 * math.Pi * s * s))
	}
	return slope
}
