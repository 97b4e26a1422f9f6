package payload

import "fmt"

// Cursor reads a buffer backward from its end. It is a value type: every read
// returns the advanced cursor, so callers can't lose track of the offset and
// a failed read leaves the original cursor usable.
type Cursor struct {
	data []byte
	back int // bytes from the end already consumed
}

func NewCursor(data []byte) Cursor {
	return Cursor{data: data}
}

// BackOffset is the number of bytes consumed from the end so far.
func (c Cursor) BackOffset() int { return c.back }

// Remaining is the number of unread bytes in front of the cursor.
func (c Cursor) Remaining() int { return len(c.data) - c.back }

// ReadBytes returns the n bytes immediately before the current position and
// the cursor advanced past them. The returned slice aliases the input buffer;
// the buffer is treated as immutable throughout.
func (c Cursor) ReadBytes(n int) ([]byte, Cursor, error) {
	if n < 0 || c.back+n > len(c.data) {
		return nil, c, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferUnderflow, n, c.Remaining())
	}
	end := len(c.data) - c.back
	c.back += n
	return c.data[end-n : end], c, nil
}

// ReadUint reads an n-byte big-endian unsigned integer, n <= 8.
func (c Cursor) ReadUint(n int) (uint64, Cursor, error) {
	if n > 8 {
		return 0, c, fmt.Errorf("payload: uint read of %d bytes not supported", n)
	}
	b, c, err := c.ReadBytes(n)
	if err != nil {
		return 0, c, err
	}
	var v uint64
	for _, x := range b {
		v = v<<8 | uint64(x)
	}
	return v, c, nil
}

// Skip advances the cursor backward by n bytes without reading them.
func (c Cursor) Skip(n int) (Cursor, error) {
	_, c, err := c.ReadBytes(n)
	return c, err
}

// PeekRegion returns the n bytes ending just before the current position
// without advancing. Used to slice out a package's signed content after its
// bounds are known.
func (c Cursor) PeekRegion(n int) ([]byte, error) {
	if n < 0 || c.back+n > len(c.data) {
		return nil, fmt.Errorf("%w: need %d bytes, have %d", ErrBufferUnderflow, n, c.Remaining())
	}
	end := len(c.data) - c.back
	return c.data[end-n : end], nil
}
