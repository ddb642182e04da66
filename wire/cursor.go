/*
File Name:  cursor.go
Package:    wire
*/

package wire

import "encoding/binary"

// Cursor reads fixed-width little-endian fields out of a borrowed byte
// slice without copying it. Every read is bounds-checked; a short buffer
// returns ErrShortBuffer instead of panicking, since the bytes always
// originate from an untrusted file or socket.
type Cursor struct {
	buf []byte
	pos int
}

// NewCursor wraps buf for reading. buf is borrowed, not copied.
func NewCursor(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int {
	return len(c.buf) - c.pos
}

// Rest returns the unread tail of the buffer without advancing the cursor.
func (c *Cursor) Rest() []byte {
	return c.buf[c.pos:]
}

// Take advances the cursor by n bytes and returns the slice consumed.
func (c *Cursor) Take(n int) ([]byte, error) {
	if c.Remaining() < n {
		return nil, &ErrShortBuffer{Need: n, Have: c.Remaining()}
	}
	out := c.buf[c.pos : c.pos+n]
	c.pos += n
	return out, nil
}

// U8 reads a single byte.
func (c *Cursor) U8() (uint8, error) {
	b, err := c.Take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U16 reads a little-endian uint16.
func (c *Cursor) U16() (uint16, error) {
	b, err := c.Take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

// U32 reads a little-endian uint32.
func (c *Cursor) U32() (uint32, error) {
	b, err := c.Take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// U64 reads a little-endian uint64.
func (c *Cursor) U64() (uint64, error) {
	b, err := c.Take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// U128 reads a full 16-byte little-endian value as [lo64, hi64].
// This is the layout the on-disk and on-wire Kad IDs use; the original
// collect-peers source only read the first 8 bytes of this field, which
// this implementation deliberately does not replicate.
func (c *Cursor) U128() (lo uint64, hi uint64, err error) {
	b, err := c.Take(16)
	if err != nil {
		return 0, 0, err
	}
	return binary.LittleEndian.Uint64(b[:8]), binary.LittleEndian.Uint64(b[8:]), nil
}

// IPv4 reads a raw 4-byte IPv4 address, network order as stored on the wire
// (little-endian host order, matching eMule's own struct layout).
func (c *Cursor) IPv4() (uint32, error) {
	return c.U32()
}
