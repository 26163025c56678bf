// Package bits implements the Vorbis bitpacking convention: a sequential,
// least-significant-bit-first cursor over an in-memory packet buffer.
//
// Within each byte the first bit read is the least significant one, and
// multi-bit values accumulate with the earliest bit in the lowest position.
// See Vorbis I spec, section 2 (bitpacking).
package bits

import (
	"errors"
	"math"
	mathbits "math/bits"
)

// ErrUnexpectedEOF indicates the packet buffer was exhausted before a read
// could be satisfied.
var ErrUnexpectedEOF = errors.New("bits: unexpected end of packet")

// Reader reads bit fields from a byte buffer.
//
// The reader keeps a 64-bit accumulator refilled from the buffer so that
// reads of up to 32 bits never need more than one refill. The buffer is
// never modified; a Reader is valid for the lifetime of one packet.
type Reader struct {
	data     []byte
	acc      uint64 // pending bits, next bit in bit 0
	accBits  uint   // number of valid bits in acc
	pos      int    // next byte to load from data
	consumed int    // bits handed out so far
}

// NewReader creates a Reader over data. The caller retains ownership of the
// slice and must not modify it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

// refill loads whole bytes from the buffer into the accumulator.
func (r *Reader) refill() {
	for r.accBits <= 56 && r.pos < len(r.data) {
		r.acc |= uint64(r.data[r.pos]) << r.accBits
		r.accBits += 8
		r.pos++
	}
}

// ReadBits reads and returns the next n bits, n <= 32, least significant
// bit first. Returns ErrUnexpectedEOF if fewer than n bits remain.
func (r *Reader) ReadBits(n uint) (uint32, error) {
	if n == 0 {
		return 0, nil
	}
	if n > 32 {
		panic("bits: read width exceeds 32")
	}
	if r.accBits < n {
		r.refill()
		if r.accBits < n {
			return 0, ErrUnexpectedEOF
		}
	}
	v := uint32(r.acc & (math.MaxUint64 >> (64 - n)))
	r.acc >>= n
	r.accBits -= n
	r.consumed += int(n)
	return v, nil
}

// ReadBit reads a single bit.
func (r *Reader) ReadBit() (uint32, error) {
	return r.ReadBits(1)
}

// ReadBool reads one bit as a flag.
func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadBits(1)
	return v == 1, err
}

// ReadUint8 reads an 8-bit value.
func (r *Reader) ReadUint8() (uint8, error) {
	v, err := r.ReadBits(8)
	return uint8(v), err
}

// ReadUint16 reads a 16-bit value.
func (r *Reader) ReadUint16() (uint16, error) {
	v, err := r.ReadBits(16)
	return uint16(v), err
}

// ReadUint32 reads a 32-bit value.
func (r *Reader) ReadUint32() (uint32, error) {
	return r.ReadBits(32)
}

// ReadInt32 reads a 32-bit value as a signed integer.
func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadBits(32)
	return int32(v), err
}

// ReadFloat32 reads a packed float as defined by float32_unpack in the
// Vorbis I spec, section 9.2.2.
func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadBits(32)
	if err != nil {
		return 0, err
	}
	mantissa := float64(v & 0x1fffff)
	if v&0x80000000 != 0 {
		mantissa = -mantissa
	}
	exponent := int(v>>21) & 0x3ff
	return float32(math.Ldexp(mantissa, exponent-788)), nil
}

// ReadBytes reads n bytes from the bit cursor. The bytes need not be
// byte-aligned in the packet. Returns ErrUnexpectedEOF before allocating
// when fewer than n bytes remain, so a hostile length field cannot force a
// huge allocation.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || n > r.Remaining()/8 {
		return nil, ErrUnexpectedEOF
	}
	buf := make([]byte, n)
	for i := range buf {
		v, err := r.ReadBits(8)
		if err != nil {
			return nil, err
		}
		buf[i] = byte(v)
	}
	return buf, nil
}

// BitsRead returns the number of bits consumed so far.
func (r *Reader) BitsRead() int {
	return r.consumed
}

// Remaining returns the number of unread bits left in the packet.
func (r *Reader) Remaining() int {
	return len(r.data)*8 - r.consumed
}

// Ilog returns the position of the highest set bit plus one, the ilog
// function from the Vorbis I spec, section 9.2.1. Ilog(0) is 0.
func Ilog(v uint32) uint {
	return uint(mathbits.Len32(v))
}
