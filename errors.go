package vorbis

import (
	"errors"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/codebook"
)

var (
	// ErrUnexpectedEOF indicates a packet ended before a read could be
	// satisfied. Inside floor and residue data this is handled as the
	// end-of-packet silence case and never surfaces; anywhere else it is a
	// hard error.
	ErrUnexpectedEOF = bits.ErrUnexpectedEOF

	// ErrInvalidCodeword indicates an entropy-coded value did not resolve
	// to any codeword of the selected codebook.
	ErrInvalidCodeword = codebook.ErrInvalidCodeword

	// ErrMalformedHeader indicates a structural or range violation in one
	// of the three header packets.
	ErrMalformedHeader = errors.New("vorbis: malformed header")

	// ErrIncompleteHeader indicates the header packets were supplied out of
	// order, or Build was called before all three were read.
	ErrIncompleteHeader = errors.New("vorbis: incomplete header sequence")

	// ErrUnsupportedFeature indicates the stream uses floor type 0 or
	// residue type 0, which this decoder does not implement.
	ErrUnsupportedFeature = errors.New("vorbis: unsupported stream feature")

	// ErrBadPacket indicates a packet handed to Decode is not an audio
	// packet.
	ErrBadPacket = errors.New("vorbis: not an audio packet")
)

// DecodeError wraps the stage failure that aborted decoding of an audio
// packet.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "vorbis: decoding audio packet: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
