package vorbis

import (
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/mdct"
	"github.com/llehouerou/go-vorbis/internal/window"
)

type builderState int

const (
	stateEmpty builderState = iota
	stateHasIdent
	stateHasIdentComment
	stateReady
)

// HeaderBuilder consumes the three mandatory header packets, in order:
// identification, comment, setup. Each packet is a raw buffer as extracted
// from the container. Build succeeds only after all three have been read.
//
// The zero value is ready to use.
type HeaderBuilder struct {
	state    builderState
	header   *Header
	comments *Comments
	setup    *setup
}

// ReadIdentPacket parses the identification packet. It must be the first
// packet supplied.
func (b *HeaderBuilder) ReadIdentPacket(packet []byte) error {
	if b.state != stateEmpty {
		return fmt.Errorf("%w: identification packet out of order", ErrIncompleteHeader)
	}
	h, err := readIdent(bits.NewReader(packet))
	if err != nil {
		return err
	}
	b.header = h
	b.state = stateHasIdent
	return nil
}

// ReadCommentPacket parses the comment packet. It must follow the
// identification packet.
func (b *HeaderBuilder) ReadCommentPacket(packet []byte) error {
	if b.state != stateHasIdent {
		return fmt.Errorf("%w: comment packet out of order", ErrIncompleteHeader)
	}
	c, err := readComments(bits.NewReader(packet))
	if err != nil {
		return err
	}
	b.comments = c
	b.state = stateHasIdentComment
	return nil
}

// ReadSetupPacket parses the setup packet. It must follow the comment
// packet.
func (b *HeaderBuilder) ReadSetupPacket(packet []byte) error {
	if b.state != stateHasIdentComment {
		return fmt.Errorf("%w: setup packet out of order", ErrIncompleteHeader)
	}
	s, err := readSetup(bits.NewReader(packet), b.header)
	if err != nil {
		return err
	}
	b.setup = s
	b.state = stateReady
	return nil
}

// Header returns the parsed identification header, or nil before
// ReadIdentPacket succeeds.
func (b *HeaderBuilder) Header() *Header {
	return b.header
}

// Comments returns the parsed comments, or nil before ReadCommentPacket
// succeeds.
func (b *HeaderBuilder) Comments() *Comments {
	return b.comments
}

// Build constructs a Decoder from the three parsed packets.
func (b *HeaderBuilder) Build() (*Decoder, error) {
	if b.state != stateReady {
		return nil, ErrIncompleteHeader
	}
	h := b.header

	d := &Decoder{
		header:   h,
		comments: b.comments,
		setup:    b.setup,
		windows:  window.NewSet(h.BlockSizeShort(), h.BlockSizeLong()),
		scratch:  make([]float32, b.setup.maxBookDims()),
	}
	d.mdct[window.Short] = mdct.New(h.BlockSizeShort())
	d.mdct[window.Long] = mdct.New(h.BlockSizeLong())

	d.floorStates = make([]floorState, h.Channels())
	d.zero = make([]bool, h.Channels())
	d.prevFrame = make([][]float32, h.Channels())
	d.frame = make([][]float32, h.Channels())
	for i := 0; i < h.Channels(); i++ {
		d.prevFrame[i] = make([]float32, h.BlockSizeLong())
		d.frame[i] = make([]float32, h.BlockSizeLong())
	}
	return d, nil
}
