// Package aggregate holds the per-feed accumulation and reduction pieces of
// the extraction pipeline: the signer bitmap, the capped value accumulator
// and the default median reducer.
package aggregate

import "math/bits"

// MaxSignerIndex bounds the signer indices a policy may hand out.
const MaxSignerIndex = 255

// SignerBitmap is a fixed-capacity set of signer indices 0..255. Bit i set
// means signer i already contributed within the current extraction call.
type SignerBitmap [4]uint64

func (b *SignerBitmap) Contains(i int) bool {
	if i < 0 || i > MaxSignerIndex {
		return false
	}
	return b[i>>6]&(1<<(uint(i)&63)) != 0
}

func (b *SignerBitmap) Insert(i int) {
	if i < 0 || i > MaxSignerIndex {
		return
	}
	b[i>>6] |= 1 << (uint(i) & 63)
}

func (b *SignerBitmap) Count() int {
	n := 0
	for _, w := range b {
		n += bits.OnesCount64(w)
	}
	return n
}
