package payload

import (
	"encoding/binary"
	"fmt"
)

// LocateTrailer validates the marker at the end of data and returns a cursor
// positioned just before the unsigned-metadata region, i.e. at the package
// count field.
func LocateTrailer(data []byte) (Cursor, error) {
	if len(data) < MarkerSize {
		return Cursor{}, ErrInvalidPayload
	}
	word := binary.BigEndian.Uint64(data[len(data)-8:])
	if word&markerMask != markerMask {
		return Cursor{}, ErrInvalidPayload
	}

	if len(data) < minTrailerBufferSize {
		return Cursor{}, fmt.Errorf("%w: %d bytes", ErrBufferTooShort, len(data))
	}

	cur := NewCursor(data)
	cur, err := cur.Skip(MarkerSize)
	if err != nil {
		return Cursor{}, err
	}
	metaLen, cur, err := cur.ReadUint(MetadataLenSize)
	if err != nil {
		return Cursor{}, err
	}

	// The package count must still fit in front of the metadata.
	backOffset := int(metaLen) + MetadataLenSize + MarkerSize
	if backOffset+PackageCountSize > len(data) {
		return Cursor{}, fmt.Errorf("%w: metadata len %d, buffer %d", ErrMetadataSizeInvalid, metaLen, len(data))
	}
	cur, err = cur.Skip(int(metaLen))
	if err != nil {
		return Cursor{}, err
	}
	return cur, nil
}

// ReadPackageCount reads the 2-byte package count and returns the advanced
// cursor, now positioned at the tail of the last-appended package.
func ReadPackageCount(c Cursor) (int, Cursor, error) {
	n, c, err := c.ReadUint(PackageCountSize)
	if err != nil {
		return 0, c, err
	}
	return int(n), c, nil
}
