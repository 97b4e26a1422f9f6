package feedid

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// FeedID is the 32-byte identifier naming one observed quantity (e.g. an
// asset price series). Symbol-derived ids put the ASCII symbol left-aligned
// and zero-pad the rest, matching the on-wire convention.
type FeedID [32]byte

var (
	ErrInvalidHex = errors.New("invalid hex")
	ErrInvalidLen = errors.New("invalid feed id length")
	ErrEmptyID    = errors.New("empty feed id")
	ErrSymbolLen  = errors.New("symbol longer than 32 bytes")
)

func FromSymbol(symbol string) (FeedID, error) {
	var f FeedID
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return f, ErrEmptyID
	}
	if len(symbol) > 32 {
		return f, fmt.Errorf("%w: %q", ErrSymbolLen, symbol)
	}
	copy(f[:], symbol)
	return f, nil
}

func FromBytes(b []byte) (FeedID, error) {
	if len(b) != 32 {
		return FeedID{}, fmt.Errorf("%w: %d", ErrInvalidLen, len(b))
	}
	var f FeedID
	copy(f[:], b)
	return f, nil
}

func FromString(s string) (FeedID, error) {
	var f FeedID

	s = strings.TrimSpace(s)
	if s == "" {
		return f, ErrEmptyID
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		h := s[2:]
		if len(h) != 64 {
			return f, fmt.Errorf("%w: want 64 hex chars, got %d", ErrInvalidLen, len(h))
		}
		b, err := hex.DecodeString(h)
		if err != nil {
			return f, fmt.Errorf("%w: %v", ErrInvalidHex, err)
		}
		copy(f[:], b)
		return f, nil
	}
	return FromSymbol(s)
}

func (f FeedID) Hex() string {
	return "0x" + hex.EncodeToString(f[:])
}

// Symbol returns the trailing-zero-trimmed ASCII view. Falls back to hex
// when the id holds non-printable bytes (hash-derived ids).
func (f FeedID) Symbol() string {
	trimmed := bytes.TrimRight(f[:], "\x00")
	for _, c := range trimmed {
		if c < 0x20 || c > 0x7e {
			return f.Hex()
		}
	}
	if len(trimmed) == 0 {
		return f.Hex()
	}
	return string(trimmed)
}

func (f FeedID) Bytes() []byte {
	return append([]byte(nil), f[:]...)
}

func (f FeedID) IsZero() bool {
	var z FeedID
	return f == z
}

func (f FeedID) MarshalText() ([]byte, error) {
	return []byte(f.Hex()), nil
}

func (f *FeedID) UnmarshalText(text []byte) error {
	parsed, err := FromString(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

func (f FeedID) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Hex())
}

func (f *FeedID) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = FeedID{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return f.UnmarshalText([]byte(s))
}
