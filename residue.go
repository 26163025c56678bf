package vorbis

import (
	"errors"
	"fmt"

	"github.com/llehouerou/go-vorbis/internal/bits"
	"github.com/llehouerou/go-vorbis/internal/codebook"
)

const residuePasses = 8

// residueConfig is one residue definition from the setup header. Type 0
// residues are parsed (the field layout is shared by all types) but
// rejected at decode time.
type residueConfig struct {
	kind      int
	start     int
	end       int
	partLen   int
	classbook int
	// books[class][pass] is the codebook index, -1 when the cascade bit is
	// clear.
	books [][residuePasses]int
}

func readResidue(r *bits.Reader, bookCount int) (*residueConfig, error) {
	kind, err := r.ReadUint16()
	if err != nil {
		return nil, err
	}
	if kind > 2 {
		return nil, fmt.Errorf("%w: residue type %d", ErrMalformedHeader, kind)
	}

	start, err := r.ReadBits(24)
	if err != nil {
		return nil, err
	}
	end, err := r.ReadBits(24)
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, fmt.Errorf("%w: residue range end before start", ErrMalformedHeader)
	}
	partLen, err := r.ReadBits(24)
	if err != nil {
		return nil, err
	}
	classCount, err := r.ReadBits(6)
	if err != nil {
		return nil, err
	}
	classbook, err := r.ReadUint8()
	if err != nil {
		return nil, err
	}
	if int(classbook) >= bookCount {
		return nil, fmt.Errorf("%w: residue classbook out of range", ErrMalformedHeader)
	}

	cascade := make([]uint32, int(classCount)+1)
	for i := range cascade {
		low, err := r.ReadBits(3)
		if err != nil {
			return nil, err
		}
		high := uint32(0)
		hasHigh, err := r.ReadBool()
		if err != nil {
			return nil, err
		}
		if hasHigh {
			if high, err = r.ReadBits(5); err != nil {
				return nil, err
			}
		}
		cascade[i] = high<<3 | low
	}

	books := make([][residuePasses]int, len(cascade))
	for i, c := range cascade {
		for pass := 0; pass < residuePasses; pass++ {
			books[i][pass] = -1
			if c>>uint(pass)&1 == 0 {
				continue
			}
			book, err := r.ReadUint8()
			if err != nil {
				return nil, err
			}
			if int(book) >= bookCount {
				return nil, fmt.Errorf("%w: residue book out of range", ErrMalformedHeader)
			}
			books[i][pass] = int(book)
		}
	}

	return &residueConfig{
		kind:      int(kind),
		start:     int(start),
		end:       int(end),
		partLen:   int(partLen) + 1,
		classbook: int(classbook),
		books:     books,
	}, nil
}

// validateBooks checks that every referenced value codebook can actually
// supply residue vectors: it must carry a VQ lookup and its dimension must
// divide the partition size. A classification codebook must have at least
// one dimension.
func (rc *residueConfig) validateBooks(books []*codebook.Codebook) error {
	if books[rc.classbook].Dimensions() == 0 {
		return fmt.Errorf("%w: residue classbook has zero dimensions", ErrMalformedHeader)
	}
	for _, set := range rc.books {
		for _, idx := range set {
			if idx < 0 {
				continue
			}
			b := books[idx]
			if !b.HasLookup() {
				return fmt.Errorf("%w: residue book %d has no vector lookup", ErrMalformedHeader, idx)
			}
			if b.Dimensions() == 0 || rc.partLen%b.Dimensions() != 0 {
				return fmt.Errorf("%w: residue book %d dimension does not divide partition size", ErrMalformedHeader, idx)
			}
		}
	}
	return nil
}

// residueWriter accumulates decoded residue values into the frame buffers.
// For type 1 each channel's values run along its own row; for type 2 the
// submap channels share one interleaved stream, so consecutive values
// rotate through channels before advancing to the next bin.
type residueWriter struct {
	frame    [][]float32
	channels []int
	flat     int
}

func (w *residueWriter) add(v float32) {
	ch := w.channels[w.flat%len(w.channels)]
	w.frame[ch][w.flat/len(w.channels)] += v
	w.flat++
}

func (w *residueWriter) skip(n int) {
	w.flat += n
}

// decode reads one submap's residue data for the current packet and adds it
// into frame. n2 is the current half block size; zero[c] marks channels
// whose floor is unused this packet. Exhausting the packet mid-decode keeps
// whatever was already accumulated, per the end-of-packet rule.
func (rc *residueConfig) decode(r *bits.Reader, frame [][]float32, n2 int,
	channels []int, zero []bool, books []*codebook.Codebook, scratch []float32) error {
	err := rc.doDecode(r, frame, n2, channels, zero, books, scratch)
	if errors.Is(err, bits.ErrUnexpectedEOF) {
		return nil
	}
	return err
}

func (rc *residueConfig) doDecode(r *bits.Reader, frame [][]float32, n2 int,
	channels []int, zero []bool, books []*codebook.Codebook, scratch []float32) error {
	if rc.kind == 0 {
		return fmt.Errorf("%w: residue type 0", ErrUnsupportedFeature)
	}

	for _, c := range channels {
		row := frame[c][:n2]
		for i := range row {
			row[i] = 0
		}
	}

	// The coded range may exceed the current block's spectrum when a
	// residue is shared between block sizes; only the part inside the
	// block is decoded.
	limit := n2
	if rc.kind == 2 {
		limit = n2 * len(channels)
	}
	start, end := rc.start, rc.end
	if end > limit {
		end = limit
	}
	if start >= end {
		return nil
	}

	allZero := true
	for _, c := range channels {
		if !zero[c] {
			allZero = false
			break
		}
	}
	if allZero {
		return nil
	}

	classbook := books[rc.classbook]
	classwords := classbook.Dimensions()
	partsToRead := (end - start) / rc.partLen
	isResidue2 := rc.kind == 2

	classes := make([][]int, len(channels))
	for i := range classes {
		classes[i] = make([]int, classwords+partsToRead-1)
	}

	for pass := 0; pass < residuePasses; pass++ {
		w := &residueWriter{frame: frame, channels: channels}
		if isResidue2 {
			w.flat = start
		}
		partCount := 0
	parts:
		for partCount < partsToRead {
			if pass == 0 {
				for i, c := range channels {
					if !isResidue2 && zero[c] {
						continue
					}
					temp, err := classbook.DecodeScalar(r)
					if err != nil {
						return err
					}
					t := int(temp)
					for cw := classwords - 1; cw >= 0; cw-- {
						classes[i][cw+partCount] = t % len(rc.books)
						t /= len(rc.books)
					}
					if isResidue2 {
						// one shared classword stream
						break
					}
				}
			}

			for cw := 0; cw < classwords; cw++ {
				for i, c := range channels {
					if !isResidue2 && zero[c] {
						continue
					}
					book := rc.books[classes[i][partCount]][pass]
					if book >= 0 {
						if err := rc.decodePartition(r, books[book], w, c, start+partCount*rc.partLen, scratch); err != nil {
							return err
						}
					} else if isResidue2 {
						w.skip(rc.partLen)
					}
					if isResidue2 {
						break
					}
				}
				partCount++
				if partCount >= partsToRead {
					break parts
				}
			}
		}
	}
	return nil
}

// decodePartition decodes one partition's values. For type 1 the values go
// into channel ch starting at bin offset; for type 2 they stream through
// the shared writer.
func (rc *residueConfig) decodePartition(r *bits.Reader, book *codebook.Codebook,
	w *residueWriter, ch, offset int, scratch []float32) error {
	dims := book.Dimensions()
	vec := scratch[:dims]
	if rc.kind == 2 {
		for n := 0; n < rc.partLen/dims; n++ {
			if err := book.DecodeVector(r, vec); err != nil {
				return err
			}
			for _, v := range vec {
				w.add(v)
			}
		}
		return nil
	}
	row := w.frame[ch]
	for n := 0; n < rc.partLen/dims; n++ {
		if err := book.DecodeVector(r, vec); err != nil {
			return err
		}
		for i, v := range vec {
			row[offset+n*dims+i] += v
		}
	}
	return nil
}
