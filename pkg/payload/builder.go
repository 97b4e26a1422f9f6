package payload

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignFn signs a 32-byte keccak hash and returns a 65-byte r||s||v signature
// with v in {27, 28}.
type SignFn func(hash []byte) ([]byte, error)

// Builder assembles a well-formed trailing payload: packages in append order,
// package count, unsigned metadata and the marker. The zero-value layout
// knowledge lives in format.go; the builder only appends.
type Builder struct {
	packages [][]byte
	metadata []byte
}

func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) Reset() {
	b.packages = b.packages[:0]
	b.metadata = nil
}

// SetMetadata sets the opaque unsigned-metadata region (may be nil).
func (b *Builder) SetMetadata(md []byte) *Builder {
	b.metadata = append([]byte(nil), md...)
	return b
}

// AddPackage encodes one signed package: the data points, the millisecond
// timestamp, the per-value byte width, the point count and the signature over
// the keccak256 of everything preceding it.
func (b *Builder) AddPackage(points []DataPoint, tsMillis int64, valueWidth int, sign SignFn) error {
	if valueWidth <= 0 || valueWidth > MaxValueWidth {
		return fmt.Errorf("%w: %d", ErrValueWidthTooLarge, valueWidth)
	}
	if tsMillis <= 0 {
		return ErrZeroTimestamp
	}

	buf := make([]byte, 0, PackageSize(len(points), valueWidth))
	for _, pt := range points {
		if pt.Value == nil || pt.Value.Sign() < 0 {
			return fmt.Errorf("payload: value for %s must be a non-negative integer", pt.Feed.Hex())
		}
		if pt.Value.BitLen() > valueWidth*8 {
			return fmt.Errorf("payload: value for %s does not fit in %d bytes", pt.Feed.Hex(), valueWidth)
		}
		buf = append(buf, pt.Feed[:]...)
		buf = appendUint(buf, pt.Value.Bytes(), valueWidth)
	}
	buf = appendUintVal(buf, uint64(tsMillis), TimestampSize)
	buf = appendUintVal(buf, uint64(valueWidth), ValueWidthSize)
	buf = appendUintVal(buf, uint64(len(points)), PointCountSize)

	sig, err := sign(crypto.Keccak256(buf))
	if err != nil {
		return fmt.Errorf("payload: sign package: %w", err)
	}
	if len(sig) != SignatureSize {
		return fmt.Errorf("payload: signer returned %d bytes, want %d", len(sig), SignatureSize)
	}
	buf = append(buf, sig...)

	b.packages = append(b.packages, buf)
	return nil
}

// Build appends the assembled payload to base (base may be nil, or the
// unrelated calldata the payload rides on) and returns the combined buffer.
func (b *Builder) Build(base []byte) ([]byte, error) {
	if len(b.packages) > 0xffff {
		return nil, errors.New("payload: too many packages")
	}
	out := append([]byte(nil), base...)
	for _, p := range b.packages {
		out = append(out, p...)
	}
	out = appendUintVal(out, uint64(len(b.packages)), PackageCountSize)
	out = append(out, b.metadata...)
	out = appendUintVal(out, uint64(len(b.metadata)), MetadataLenSize)
	out = append(out, Marker()...)
	return out, nil
}

// appendUint appends raw left-zero-padded to width bytes.
func appendUint(buf, raw []byte, width int) []byte {
	for i := len(raw); i < width; i++ {
		buf = append(buf, 0)
	}
	return append(buf, raw...)
}

// appendUintVal appends v as an n-byte big-endian integer.
func appendUintVal(buf []byte, v uint64, n int) []byte {
	for i := n - 1; i >= 0; i-- {
		buf = append(buf, byte(v>>(8*i)))
	}
	return buf
}
