package vorbis

import (
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/window"
)

// modeConfig selects a block size and mapping for an audio packet.
type modeConfig struct {
	blockKind window.Kind
	mapping   int
}

func readMode(r *bits.Reader, mappingCount int) (*modeConfig, error) {
	long, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	kind := window.Short
	if long {
		kind = window.Long
	}

	windowType, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if windowType != 0 {
		return nil, fmt.Errorf("%w: mode window type %d", ErrMalformedHeader, windowType)
	}
	transformType, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if transformType != 0 {
		return nil, fmt.Errorf("%w: mode transform type %d", ErrMalformedHeader, transformType)
	}

	mapping, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if int(mapping) >= mappingCount {
		return nil, fmt.Errorf("%w: mode mapping index out of range", ErrMalformedHeader)
	}
	return &modeConfig{blockKind: kind, mapping: int(mapping)}, nil
}
