package vorbis

import (
	"github.com/llehouerou/go-vorbis/internal/mdct"
	"github.com/llehouerou/go-vorbis/internal/window"
)

// Decoder turns audio packets into PCM sample blocks. It is built through a
// HeaderBuilder and must receive packets in stream order: the overlap-add
// state threads a sequential dependency between consecutive calls. A
// Decoder is not safe for concurrent use.
type Decoder struct {
	header   *Header
	comments *Comments
	setup    *setup
	windows  *window.Set
	mdct     [2]*mdct.MDCT

	floorStates []floorState
	zero        []bool
	scratch     []float32

	prevFrame [][]float32
	prevKind  window.Kind
	prevValid bool
	frame     [][]float32
	curKind   window.Kind
	curValid  bool
	pos       uint64
}

// Header returns the stream's identification header.
func (d *Decoder) Header() *Header {
	return d.header
}

// Comments returns the stream's comment metadata.
func (d *Decoder) Comments() *Comments {
	return d.comments
}

// Position returns the number of samples per channel produced so far.
func (d *Decoder) Position() uint64 {
	return d.pos
}

// Reset clears the overlap state and sample position, as after a seek. The
// next Decode call produces an empty block again.
func (d *Decoder) Reset() {
	d.prevValid = false
	d.curValid = false
	d.pos = 0
}

// Samples returns the sample block produced by the most recent Decode
// call. The view stays valid until the next Decode or Reset.
func (d *Decoder) Samples() Samples {
	if !d.prevValid || !d.curValid {
		return Samples{}
	}
	w := d.windows.Get(d.prevKind, d.curKind)
	if w.Target == window.Previous {
		return Samples{frame: d.prevFrame, start: w.Left.Start, end: w.Left.End}
	}
	return Samples{frame: d.frame, start: w.Right.Start, end: w.Right.End}
}

// Samples is a read-only view of one decoded block: per-channel slices of
// PCM values, nominally in [-1, 1]. The view aliases decoder-owned buffers
// and is invalidated by the next Decode call.
type Samples struct {
	frame      [][]float32
	start, end int
}

// Len returns the number of samples per channel.
func (s Samples) Len() int {
	return s.end - s.start
}

// Channels returns the number of channels.
func (s Samples) Channels() int {
	return len(s.frame)
}

// Channel returns the samples of one channel.
func (s Samples) Channel(i int) []float32 {
	return s.frame[i][s.start:s.end]
}

// Interleaved appends the block's samples to dst in channel-interleaved
// order and returns the extended slice.
func (s Samples) Interleaved(dst []float32) []float32 {
	for i := s.start; i < s.end; i++ {
		for _, ch := range s.frame {
			dst = append(dst, ch[i])
		}
	}
	return dst
}
