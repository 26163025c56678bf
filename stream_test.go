package vorbis_test

import (
	"testing"

	vorbis "github.com/llehouerou/go-vorbis"
)

// bitWriter packs values least significant bit first, the packet bit
// order, so tests can assemble synthetic header and audio packets.
type bitWriter struct {
	buf []byte
	n   uint
}

func (w *bitWriter) write(v uint32, n uint) {
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

func (w *bitWriter) writeString(s string) {
	for i := 0; i < len(s); i++ {
		w.write(uint32(s[i]), 8)
	}
}

func (w *bitWriter) writeLenString(s string) {
	w.write(uint32(len(s)), 32)
	w.writeString(s)
}

// buildIdent assembles an identification packet with the given fields.
func buildIdent(version uint32, channels uint8, rate, shortExp, longExp, framing uint32) []byte {
	var w bitWriter
	w.write(1, 8)
	w.writeString("vorbis")
	w.write(version, 32)
	w.write(uint32(channels), 8)
	w.write(rate, 32)
	w.write(0, 32) // bitrate max
	w.write(0, 32) // bitrate nominal
	w.write(0, 32) // bitrate min
	w.write(shortExp, 4)
	w.write(longExp, 4)
	w.write(framing, 1)
	return w.buf
}

// identPacket is the reference test stream's identification packet: mono,
// 44100 Hz, block sizes 256 and 2048.
func identPacket() []byte {
	return buildIdent(0, 1, 44100, 8, 11, 1)
}

func commentPacket() []byte {
	var w bitWriter
	w.write(3, 8)
	w.writeString("vorbis")
	w.writeLenString("test")
	w.write(2, 32)
	w.writeLenString("TITLE=Silence")
	w.writeLenString("ARTIST=Nobody")
	w.write(1, 1)
	return w.buf
}

// setupPacket assembles a minimal setup packet: one single-bit codebook,
// one floor of the given type, one empty type 1 residue, one mapping, and
// one long-block mode.
func setupPacket(floorKind int) []byte {
	var w bitWriter
	w.write(5, 8)
	w.writeString("vorbis")

	// one codebook: 1 dimension, 2 entries with single-bit codes
	w.write(0, 8)
	w.write(0x564342, 24)
	w.write(1, 16)
	w.write(2, 24)
	w.write(0, 1) // not ordered
	w.write(0, 1) // not sparse
	w.write(0, 5) // length 1
	w.write(0, 5) // length 1
	w.write(0, 4) // no lookup

	// time domain transforms
	w.write(0, 6)
	w.write(0, 16)

	// one floor
	w.write(0, 6)
	if floorKind == 0 {
		w.write(0, 16)
		w.write(1, 8)   // order
		w.write(8000, 16)
		w.write(16, 16) // bark map size
		w.write(6, 6)   // amplitude bits
		w.write(0, 8)   // amplitude offset
		w.write(0, 4)   // one book
		w.write(0, 8)
	} else {
		w.write(1, 16)
		w.write(1, 5)  // one partition
		w.write(0, 4)  // of class 0
		w.write(0, 3)  // class dimension 1
		w.write(0, 2)  // no subclass bits
		w.write(0, 8)  // subclass codes zero
		w.write(0, 2)  // multiplier 1
		w.write(6, 4)  // range bits
		w.write(32, 6) // single X value
	}

	// one residue, type 1, empty coded range
	w.write(0, 6)
	w.write(1, 16)
	w.write(0, 24) // start
	w.write(0, 24) // end
	w.write(3, 24) // partition size 4
	w.write(0, 6)  // one class
	w.write(0, 8)  // classbook 0
	w.write(0, 3)  // cascade: no passes
	w.write(0, 1)

	// one mapping, type 0, no coupling
	w.write(0, 6)
	w.write(0, 16)
	w.write(0, 1) // single submap
	w.write(0, 1) // no coupling
	w.write(0, 2) // reserved
	w.write(0, 8) // unused time config
	w.write(0, 8) // floor 0
	w.write(0, 8) // residue 0

	// one mode, long blocks
	w.write(0, 6)
	w.write(1, 1)
	w.write(0, 16)
	w.write(0, 16)
	w.write(0, 8)

	w.write(1, 1) // framing
	return w.buf
}

// silentAudioPacket is an audio packet whose floor is absent: the whole
// block decodes to silence.
func silentAudioPacket() []byte {
	var w bitWriter
	w.write(0, 1) // audio packet
	// zero mode bits with a single mode
	w.write(0, 2) // window shape flags
	w.write(0, 1) // floor absent
	return w.buf
}

// newTestDecoder builds a decoder from the reference test stream's
// headers.
func newTestDecoder(t *testing.T, floorKind int) *vorbis.Decoder {
	t.Helper()
	var b vorbis.HeaderBuilder
	if err := b.ReadIdentPacket(identPacket()); err != nil {
		t.Fatalf("ReadIdentPacket: %v", err)
	}
	if err := b.ReadCommentPacket(commentPacket()); err != nil {
		t.Fatalf("ReadCommentPacket: %v", err)
	}
	if err := b.ReadSetupPacket(setupPacket(floorKind)); err != nil {
		t.Fatalf("ReadSetupPacket: %v", err)
	}
	dec, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return dec
}
