package payload

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
)

// DataPoint is one (feed id, value) observation inside a package. Values are
// unsigned on the wire, at most 32 bytes wide, decoded right-justified.
type DataPoint struct {
	Feed  feedid.FeedID
	Value *big.Int
}

// Package is one decoded signed unit. SignedHash is the keccak256 of the
// package content the signature covers (everything before the signature).
type Package struct {
	Points      []DataPoint
	TimestampMs int64
	ValueWidth  int
	Signature   [SignatureSize]byte
	SignedHash  [32]byte
	Size        int // total bytes including signature, for stepping backward
}

// DecodePackage decodes the package ending at the cursor position and returns
// the cursor advanced to the tail of the preceding package. Package bounds are
// computed from the package's own point count and value width, never stored.
func DecodePackage(c Cursor) (Package, Cursor, error) {
	var pkg Package

	sig, c, err := c.ReadBytes(SignatureSize)
	if err != nil {
		return pkg, c, err
	}
	copy(pkg.Signature[:], sig)

	// The signature covers everything in front of it; hash before consuming.
	pointCount, width, err := peekPackageShape(c)
	if err != nil {
		return pkg, c, err
	}
	signedLen := SignedContentSize(pointCount, width)
	content, err := c.PeekRegion(signedLen)
	if err != nil {
		return pkg, c, err
	}
	copy(pkg.SignedHash[:], crypto.Keccak256(content))

	c, err = c.Skip(PointCountSize + ValueWidthSize)
	if err != nil {
		return pkg, c, err
	}
	ts, c, err := c.ReadUint(TimestampSize)
	if err != nil {
		return pkg, c, err
	}
	if ts == 0 {
		return pkg, c, ErrZeroTimestamp
	}
	pkg.TimestampMs = int64(ts)
	pkg.ValueWidth = width

	points, c, err := c.ReadBytes(pointCount * (FeedIDSize + width))
	if err != nil {
		return pkg, c, err
	}
	pkg.Points = parsePoints(points, pointCount, width)
	pkg.Size = PackageSize(pointCount, width)
	return pkg, c, nil
}

// peekPackageShape reads the 3-byte point count and 4-byte value width stored
// just before the signature, without advancing the cursor.
func peekPackageShape(c Cursor) (pointCount, valueWidth int, err error) {
	head, err := c.PeekRegion(PointCountSize + ValueWidthSize)
	if err != nil {
		return 0, 0, err
	}
	// head layout forward: width(4) then count(3)
	valueWidth = 0
	for _, b := range head[:ValueWidthSize] {
		valueWidth = valueWidth<<8 | int(b)
	}
	pointCount = 0
	for _, b := range head[ValueWidthSize:] {
		pointCount = pointCount<<8 | int(b)
	}
	if valueWidth > MaxValueWidth {
		return 0, 0, fmt.Errorf("%w: %d", ErrValueWidthTooLarge, valueWidth)
	}
	return pointCount, valueWidth, nil
}

// parsePoints walks the points region forward. Layout per point: 32-byte feed
// id followed by a width-byte value.
func parsePoints(region []byte, count, width int) []DataPoint {
	points := make([]DataPoint, 0, count)
	stride := FeedIDSize + width
	for i := 0; i < count; i++ {
		at := i * stride
		var f feedid.FeedID
		copy(f[:], region[at:at+FeedIDSize])
		v := new(big.Int).SetBytes(region[at+FeedIDSize : at+stride])
		points = append(points, DataPoint{Feed: f, Value: v})
	}
	return points
}
