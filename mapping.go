package vorbis

import (
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
)

// mappingConfig assigns channels to submaps and declares the coupled
// channel pairs. Only mapping type 0 exists in the format.
type mappingConfig struct {
	couplings     [][2]int // magnitude, angle channel pairs
	channelSubmap []int
	submaps       []submap
}

type submap struct {
	channels []int
	floor    int
	residue  int
}

func readMapping(r *bits.Reader, channelCount, floorCount, residueCount int) (*mappingConfig, error) {
	kind, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if kind != 0 {
		return nil, fmt.Errorf("%w: mapping type %d", ErrMalformedHeader, kind)
	}

	submapCount := 1
	hasSubmaps, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasSubmaps {
		n, err := r.ReadBits(4)
		if err != nil {
			return nil, err
		}
		submapCount = int(n) + 1
	}

	var couplings [][2]int
	hasCouplings, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if hasCouplings {
		n, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		indexBits := bits.Ilog(uint32(channelCount - 1))
		for i := 0; i <= int(n); i++ {
			mag, err := r.ReadBits(indexBits)
			if err != nil {
				return nil, err
			}
			ang, err := r.ReadBits(indexBits)
			if err != nil {
				return nil, err
			}
			if mag == ang || int(mag) >= channelCount || int(ang) >= channelCount {
				return nil, fmt.Errorf("%w: bad coupling channel pair (%d, %d)", ErrMalformedHeader, mag, ang)
			}
			couplings = append(couplings, [2]int{int(mag), int(ang)})
		}
	}

	reserved, err := r.ReadBits(2)
	if err != nil {
		return nil, err
	}
	if reserved != 0 {
		return nil, fmt.Errorf("%w: nonzero reserved mapping field", ErrMalformedHeader)
	}

	channelSubmap := make([]int, channelCount)
	if submapCount > 1 {
		for i := range channelSubmap {
			s, err := r.ReadBits(4)
			if err != nil {
				return nil, err
			}
			if int(s) >= submapCount {
				return nil, fmt.Errorf("%w: channel submap index out of range", ErrMalformedHeader)
			}
			channelSubmap[i] = int(s)
		}
	}

	submaps := make([]submap, submapCount)
	for i := range submaps {
		if _, err := r.ReadUint8(); err != nil { // unused time config
			return nil, err
		}
		floor, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if int(floor) >= floorCount {
			return nil, fmt.Errorf("%w: submap floor index out of range", ErrMalformedHeader)
		}
		residue, err := r.ReadUint8()
		if err != nil {
			return nil, err
		}
		if int(residue) >= residueCount {
			return nil, fmt.Errorf("%w: submap residue index out of range", ErrMalformedHeader)
		}
		var channels []int
		for c, s := range channelSubmap {
			if s == i {
				channels = append(channels, c)
			}
		}
		submaps[i] = submap{channels: channels, floor: int(floor), residue: int(residue)}
	}

	return &mappingConfig{
		couplings:     couplings,
		channelSubmap: channelSubmap,
		submaps:       submaps,
	}, nil
}

// unzeroCoupled clears the silence mark on both halves of a coupled pair
// when either half carries data: residue for the pair is stored jointly, so
// both channels must be decoded.
func (m *mappingConfig) unzeroCoupled(zero []bool) {
	for _, c := range m.couplings {
		mag, ang := c[0], c[1]
		if !zero[mag] || !zero[ang] {
			zero[mag] = false
			zero[ang] = false
		}
	}
}

// decouple rewrites each coupled (magnitude, angle) pair back into two
// independent spectra. The sign of each value selects the exact branch of
// the square polar mapping; see Vorbis I spec, section 4.3.6.
func (m *mappingConfig) decouple(frame [][]float32, n int) {
	for _, c := range m.couplings {
		magCh := frame[c[0]]
		angCh := frame[c[1]]
		for i := 0; i < n; i++ {
			mag, ang := magCh[i], angCh[i]
			switch {
			case mag > 0 && ang > 0:
				magCh[i], angCh[i] = mag, mag-ang
			case mag > 0:
				magCh[i], angCh[i] = mag+ang, mag
			case ang > 0:
				magCh[i], angCh[i] = mag, mag+ang
			default:
				magCh[i], angCh[i] = mag-ang, mag
			}
		}
	}
}
