package vorbis

import (
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/window"
)

const headerMagic = "vorbis"

// Header packet types. Audio packets carry a single 0 bit instead.
const (
	packetIdent   = 1
	packetComment = 3
	packetSetup   = 5
)

// readPacketPreamble checks the common header packet preamble: the packet
// type byte followed by the magic string.
func readPacketPreamble(r *bits.Reader, want uint8) error {
	kind, err := r.ReadUint8()
	if err != nil {
		return err
	}
	if kind != want {
		return fmt.Errorf("%w: packet type %d, want %d", ErrMalformedHeader, kind, want)
	}
	magic, err := r.ReadBytes(len(headerMagic))
	if err != nil {
		return err
	}
	if string(magic) != headerMagic {
		return fmt.Errorf("%w: bad packet magic %q", ErrMalformedHeader, magic)
	}
	return nil
}

// Header is the parsed identification packet: the stream's global
// parameters. Immutable once read.
type Header struct {
	channels   int
	sampleRate uint32

	bitrateMax int32
	bitrateNom int32
	bitrateMin int32

	blockSizeShort int
	blockSizeLong  int
}

func readIdent(r *bits.Reader) (*Header, error) {
	if err := readPacketPreamble(r, packetIdent); err != nil {
		return nil, err
	}

	version, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if version != 0 {
		return nil, fmt.Errorf("%w: unsupported stream version %d", ErrMalformedHeader, version)
	}

	channels, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if channels == 0 {
		return nil, fmt.Errorf("%w: zero channel count", ErrMalformedHeader)
	}

	sampleRate, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	if sampleRate == 0 {
		return nil, fmt.Errorf("%w: zero sample rate", ErrMalformedHeader)
	}

	h := &Header{
		channels:   int(channels),
		sampleRate: sampleRate,
	}
	if h.bitrateMax, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if h.bitrateNom, err = r.ReadInt32(); err != nil {
		return nil, err
	}
	if h.bitrateMin, err = r.ReadInt32(); err != nil {
		return nil, err
	}

	shortExp, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	longExp, err := r.ReadBits(4)
	if err != nil {
		return nil, err
	}
	h.blockSizeShort = 1 << shortExp
	h.blockSizeLong = 1 << longExp
	if h.blockSizeShort < 64 || h.blockSizeShort > 8192 {
		return nil, fmt.Errorf("%w: short block size %d out of range", ErrMalformedHeader, h.blockSizeShort)
	}
	if h.blockSizeLong < 64 || h.blockSizeLong > 8192 {
		return nil, fmt.Errorf("%w: long block size %d out of range", ErrMalformedHeader, h.blockSizeLong)
	}
	if h.blockSizeLong < h.blockSizeShort {
		return nil, fmt.Errorf("%w: long block size smaller than short", ErrMalformedHeader)
	}

	framing, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !framing {
		return nil, fmt.Errorf("%w: framing bit not set", ErrMalformedHeader)
	}
	return h, nil
}

// Channels returns the channel count, at least 1.
func (h *Header) Channels() int {
	return h.channels
}

// SampleRate returns the sample rate in Hz.
func (h *Header) SampleRate() uint32 {
	return h.sampleRate
}

// BitrateMax returns the maximum bitrate hint, or 0 when unset. Bitrate
// hints are informational only.
func (h *Header) BitrateMax() int32 {
	return h.bitrateMax
}

// BitrateNominal returns the nominal bitrate hint, or 0 when unset.
func (h *Header) BitrateNominal() int32 {
	return h.bitrateNom
}

// BitrateMin returns the minimum bitrate hint, or 0 when unset.
func (h *Header) BitrateMin() int32 {
	return h.bitrateMin
}

// BlockSizeShort returns the short block size in samples.
func (h *Header) BlockSizeShort() int {
	return h.blockSizeShort
}

// BlockSizeLong returns the long block size in samples.
func (h *Header) BlockSizeLong() int {
	return h.blockSizeLong
}

func (h *Header) blockSize(kind window.Kind) int {
	if kind == window.Long {
		return h.blockSizeLong
	}
	return h.blockSizeShort
}
