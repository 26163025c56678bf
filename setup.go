package vorbis

import (
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/codebook"
)

// setup holds the parsed setup packet: every configuration table an audio
// packet can reference. Immutable once read.
type setup struct {
	codebooks []*codebook.Codebook
	floors    []*floorConfig
	residues  []*residueConfig
	mappings  []*mappingConfig
	modes     []*modeConfig
}

func readSetup(r *bits.Reader, h *Header) (*setup, error) {
	if err := readPacketPreamble(r, packetSetup); err != nil {
		return nil, err
	}

	s := &setup{}

	bookCount, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	for i := 0; i <= int(bookCount); i++ {
		book, err := codebook.Read(r)
		if err != nil {
			return nil, fmt.Errorf("%w: codebook %d: %v", ErrMalformedHeader, i, err)
		}
		s.codebooks = append(s.codebooks, book)
	}

	if err := skipTimeDomainTransforms(r); err != nil {
		return nil, err
	}

	floorCount, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	for i := 0; i <= int(floorCount); i++ {
		f, err := readFloor(r, len(s.codebooks))
		if err != nil {
			return nil, err
		}
		s.floors = append(s.floors, f)
	}

	residueCount, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	for i := 0; i <= int(residueCount); i++ {
		res, err := readResidue(r, len(s.codebooks))
		if err != nil {
			return nil, err
		}
		if res.kind != 0 {
			if err := res.validateBooks(s.codebooks); err != nil {
				return nil, err
			}
		}
		s.residues = append(s.residues, res)
	}

	mappingCount, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	for i := 0; i <= int(mappingCount); i++ {
		m, err := readMapping(r, h.Channels(), len(s.floors), len(s.residues))
		if err != nil {
			return nil, err
		}
		s.mappings = append(s.mappings, m)
	}

	modeCount, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	for i := 0; i <= int(modeCount); i++ {
		m, err := readMode(r, len(s.mappings))
		if err != nil {
			return nil, err
		}
		s.modes = append(s.modes, m)
	}

	framing, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !framing {
		return nil, fmt.Errorf("%w: framing bit not set", ErrMalformedHeader)
	}
	return s, nil
}

// skipTimeDomainTransforms consumes the reserved time domain transform
// list, which must be all zeros in version 0 streams.
func skipTimeDomainTransforms(r *bits.Reader) error {
	count, err := r.ReadBits(6)
	if err != nil {
		return err
	}
	for i := 0; i <= int(count); i++ {
		v, err := r.ReadUint16()
		if err != nil {
			return err
		}
		if v != 0 {
			return fmt.Errorf("%w: nonzero time domain transform", ErrMalformedHeader)
		}
	}
	return nil
}

// maxBookDims returns the largest codebook vector dimension, sizing the
// shared residue scratch buffer.
func (s *setup) maxBookDims() int {
	max := 1
	for _, b := range s.codebooks {
		if b.Dimensions() > max {
			max = b.Dimensions()
		}
	}
	return max
}
