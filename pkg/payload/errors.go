package payload

import "errors"

var (
	// ErrInvalidPayload means the marker at the end of the buffer is missing
	// or does not match the protocol constant.
	ErrInvalidPayload = errors.New("payload: marker missing or mismatched")

	// ErrBufferTooShort means the buffer cannot even hold the trailer
	// (marker + metadata length + package count).
	ErrBufferTooShort = errors.New("payload: buffer too short")

	// ErrMetadataSizeInvalid means the declared unsigned-metadata length
	// points past the start of the buffer.
	ErrMetadataSizeInvalid = errors.New("payload: unsigned metadata size inconsistent with buffer")

	// ErrBufferUnderflow means a backward read ran past the buffer start.
	ErrBufferUnderflow = errors.New("payload: read past start of buffer")

	// ErrValueWidthTooLarge means a package declares a per-value byte width
	// above the 32-byte maximum.
	ErrValueWidthTooLarge = errors.New("payload: data point value width exceeds 32 bytes")

	// ErrZeroTimestamp means a package carries a zero timestamp, or an
	// extraction saw no packages at all.
	ErrZeroTimestamp = errors.New("payload: zero timestamp")
)
