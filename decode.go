package vorbis

import (
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/window"
)

// Decode decodes one audio packet and returns the finished sample block.
// The first packet after construction or Reset yields an empty block: a
// full block of overlap-added output needs two blocks of history.
//
// Failures are returned as a *DecodeError wrapping the stage cause. The
// overlap state keeps its last good contents on failure, so a caller may
// skip the bad packet and continue with the next one.
func (d *Decoder) Decode(packet []byte) (Samples, error) {
	d.swapFrames()
	r := bits.NewReader(packet)

	kind, err := r.ReadBit()
	if err != nil {
		return Samples{}, &DecodeError{err}
	}
	if kind != 0 {
		return Samples{}, &DecodeError{ErrBadPacket}
	}

	modeCount := len(d.setup.modes)
	modeIdx, err := r.ReadBits(bits.Ilog(uint32(modeCount - 1)))
	if err != nil {
		return Samples{}, &DecodeError{err}
	}
	if int(modeIdx) >= modeCount {
		return Samples{}, &DecodeError{fmt.Errorf("%w: mode index %d out of range", ErrBadPacket, modeIdx)}
	}
	mode := d.setup.modes[modeIdx]

	if mode.blockKind == window.Long {
		// Window shape flags for the neighboring blocks. The lap geometry
		// is recovered from the decoded block size sequence instead.
		if _, err := r.ReadBits(2); err != nil {
			return Samples{}, &DecodeError{err}
		}
	}

	n := d.header.blockSize(mode.blockKind)
	n2 := n / 2
	mapping := d.setup.mappings[mode.mapping]

	for ch := range d.floorStates {
		sub := mapping.channelSubmap[ch]
		floor := d.setup.floors[mapping.submaps[sub].floor]
		if err := floor.beginDecode(r, d.setup.codebooks, &d.floorStates[ch]); err != nil {
			return Samples{}, &DecodeError{err}
		}
	}

	for ch := range d.zero {
		d.zero[ch] = d.floorStates[ch].silent()
	}
	mapping.unzeroCoupled(d.zero)

	for i := range mapping.submaps {
		sub := &mapping.submaps[i]
		res := d.setup.residues[sub.residue]
		if err := res.decode(r, d.frame, n2, sub.channels, d.zero, d.setup.codebooks, d.scratch); err != nil {
			return Samples{}, &DecodeError{err}
		}
	}

	mapping.decouple(d.frame, n2)

	for ch, row := range d.frame {
		st := &d.floorStates[ch]
		if st.silent() {
			for i := range row[:n2] {
				row[i] = 0
			}
			continue
		}
		sub := mapping.channelSubmap[ch]
		floor := d.setup.floors[mapping.submaps[sub].floor]
		floor.finishDecode(row[:n2], st)
	}

	for _, row := range d.frame {
		d.mdct[mode.blockKind].Inverse(row[:n])
	}

	if d.prevValid {
		w := d.windows.Get(d.prevKind, mode.blockKind)
		for ch := range d.frame {
			w.Overlap(d.prevFrame[ch], d.frame[ch])
		}
		d.pos += uint64(w.Len())
	}

	d.curKind = mode.blockKind
	d.curValid = true
	return d.Samples(), nil
}

// swapFrames retires the current frame into the previous slot before a new
// packet is decoded.
func (d *Decoder) swapFrames() {
	if d.curValid {
		d.frame, d.prevFrame = d.prevFrame, d.frame
		d.prevKind = d.curKind
		d.prevValid = true
		d.curValid = false
	}
}
