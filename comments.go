package vorbis

import (
	"fmt"
	"strings"

	"github.com/llehouerou/go-vorbis/internal/bits"
)

// Comments is the parsed comment packet: the encoder vendor string and a
// list of raw "TAG=value" entries. Tag lookup is case-insensitive, per the
// comment field convention.
type Comments struct {
	vendor string
	raw    []string
}

func readComments(r *bits.Reader) (*Comments, error) {
	if err := readPacketPreamble(r, packetComment); err != nil {
		return nil, err
	}

	vendor, err := readLengthString(r)
	if err != nil {
		return nil, err
	}

	count, err := r.ReadUint32()
	if err != nil {
		return nil, err
	}
	var raw []string
	for i := uint32(0); i < count; i++ {
		s, err := readLengthString(r)
		if err != nil {
			return nil, err
		}
		raw = append(raw, s)
	}

	framing, err := r.ReadBool()
	if err != nil {
		return nil, err
	}
	if !framing {
		return nil, fmt.Errorf("%w: framing bit not set", ErrMalformedHeader)
	}
	return &Comments{vendor: vendor, raw: raw}, nil
}

func readLengthString(r *bits.Reader) (string, error) {
	n, err := r.ReadUint32()
	if err != nil {
		return "", err
	}
	b, err := r.ReadBytes(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Vendor returns the encoder vendor string.
func (c *Comments) Vendor() string {
	return c.vendor
}

// Len returns the number of comment entries.
func (c *Comments) Len() int {
	return len(c.raw)
}

// Raw returns the unparsed comment entries in stream order.
func (c *Comments) Raw() []string {
	return c.raw
}

// All returns every value stored under tag, compared case-insensitively.
// Entries without a '=' separator are skipped.
func (c *Comments) All(tag string) []string {
	var vals []string
	for _, s := range c.raw {
		t, v, ok := strings.Cut(s, "=")
		if ok && strings.EqualFold(t, tag) {
			vals = append(vals, v)
		}
	}
	return vals
}

// Get returns the first value stored under tag and whether one exists.
func (c *Comments) Get(tag string) (string, bool) {
	for _, s := range c.raw {
		t, v, ok := strings.Cut(s, "=")
		if ok && strings.EqualFold(t, tag) {
			return v, true
		}
	}
	return "", false
}
