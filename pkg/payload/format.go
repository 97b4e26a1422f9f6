package payload

// Byte layout of the trailing payload, scanned backward from the end of the
// input buffer (single source of truth for all offset math):
//
//	| marker                 | 9 B      | fixed protocol constant        |
//	| unsigned-metadata len  | 3 B      | byte length of next region     |
//	| unsigned metadata      | variable | opaque, uninterpreted          |
//	| package count          | 2 B      | unsigned count of packages     |
//	| package N .. package 1 | variable | last-appended first            |
//
// Each package, right to left:
//
//	| signature      | 65 B             | r(32) || s(32) || v(1)         |
//	| point count    | 3 B              |                                |
//	| value width    | 4 B              | bytes per data-point value     |
//	| timestamp      | 6 B              | milliseconds since epoch       |
//	| data points    | count*(32+width) | feed id(32) + value(width) ea. |
const (
	MarkerSize           = 9
	MetadataLenSize      = 3
	PackageCountSize     = 2
	SignatureSize        = 65
	PointCountSize       = 3
	ValueWidthSize       = 4
	TimestampSize        = 6
	FeedIDSize           = 32
	MaxValueWidth        = 32
	packageHeaderNoPts   = TimestampSize + ValueWidthSize + PointCountSize // 13
	packageOverhead      = packageHeaderNoPts + SignatureSize             // 78
	minTrailerBufferSize = 41                                             // 32-byte aligned read of the metadata length field
)

// markerMask holds the low 8 bytes of the 9-byte marker constant
// 0x000002ed57011e0000. The check is (word AND mask) == mask, so the mask
// doubles as the expected value and zero-mask bit positions (including the
// marker's leading zero byte) are not constrained.
const markerMask uint64 = 0x0002ed57011e0000

// Marker returns the full 9-byte marker constant, for encoders.
func Marker() []byte {
	return []byte{0x00, 0x00, 0x02, 0xed, 0x57, 0x01, 0x1e, 0x00, 0x00}
}

// SignedContentSize is the byte length of the region a package's signature
// covers: all data points plus timestamp, value width and point count.
func SignedContentSize(pointCount, valueWidth int) int {
	return pointCount*(FeedIDSize+valueWidth) + packageHeaderNoPts
}

// PackageSize is the total byte length of one package including its signature.
func PackageSize(pointCount, valueWidth int) int {
	return pointCount*(FeedIDSize+valueWidth) + packageOverhead
}
