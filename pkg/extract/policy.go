package extract

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrSignerNotAuthorised = errors.New("extract: signer not authorised")
	ErrTimestampTooFuture  = errors.New("extract: payload timestamp too far in the future")
	ErrTimestampTooStale   = errors.New("extract: payload timestamp too far in the past")
)

// SignerPolicy is the read-only external authorisation policy: which
// addresses may sign packages and how many distinct signers each feed needs.
type SignerPolicy interface {
	// AuthorisedSignerIndex maps a recovered signer address to a small
	// stable index (0..255), or fails with ErrSignerNotAuthorised.
	AuthorisedSignerIndex(addr common.Address) (int, error)

	// UniqueSignersThreshold is the minimum distinct signers per feed.
	UniqueSignersThreshold() int
}

// StaticSignerPolicy authorises a fixed address list; index is position in
// the list.
type StaticSignerPolicy struct {
	index     map[common.Address]int
	threshold int
}

func NewStaticSignerPolicy(signers []common.Address, threshold int) (*StaticSignerPolicy, error) {
	if len(signers) == 0 {
		return nil, errors.New("extract: empty signer list")
	}
	if threshold <= 0 || threshold > len(signers) {
		return nil, fmt.Errorf("extract: threshold %d out of range for %d signers", threshold, len(signers))
	}
	idx := make(map[common.Address]int, len(signers))
	for i, a := range signers {
		if _, dup := idx[a]; dup {
			return nil, fmt.Errorf("extract: duplicate signer %s", a.Hex())
		}
		idx[a] = i
	}
	return &StaticSignerPolicy{index: idx, threshold: threshold}, nil
}

func (p *StaticSignerPolicy) AuthorisedSignerIndex(addr common.Address) (int, error) {
	i, ok := p.index[addr]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSignerNotAuthorised, addr.Hex())
	}
	return i, nil
}

func (p *StaticSignerPolicy) UniqueSignersThreshold() int { return p.threshold }

// TimestampPolicy validates a payload timestamp against an explicit clock
// reading, keeping the pipeline pure and testable.
type TimestampPolicy func(tsMillis int64, now time.Time) error

// Default freshness window: at most 1 minute ahead, at most 3 minutes behind.
const (
	DefaultMaxAhead  = time.Minute
	DefaultMaxBehind = 3 * time.Minute
)

func DefaultTimestampPolicy(tsMillis int64, now time.Time) error {
	nowMs := now.UnixMilli()
	if tsMillis > nowMs+DefaultMaxAhead.Milliseconds() {
		return fmt.Errorf("%w: ts=%d now=%d", ErrTimestampTooFuture, tsMillis, nowMs)
	}
	if tsMillis < nowMs-DefaultMaxBehind.Milliseconds() {
		return fmt.Errorf("%w: ts=%d now=%d", ErrTimestampTooStale, tsMillis, nowMs)
	}
	return nil
}
