// Package extract assembles the payload pipeline: locate the trailer, walk
// the packages backward, verify and authorise each signer, accumulate values
// per requested feed and reduce them to one trusted value each.
package extract

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/chenzhangda16/web3-feedpipe/pkg/aggregate"
	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
	"github.com/chenzhangda16/web3-feedpipe/pkg/payload"
	"github.com/chenzhangda16/web3-feedpipe/pkg/sigverify"
)

var ErrTimestampsMustBeEqual = errors.New("extract: package timestamps differ within one payload")

// InsufficientSignersError reports a feed whose distinct-signer count fell
// short of the threshold. Distinguishable from authentication failures.
type InsufficientSignersError struct {
	Feed     feedid.FeedID
	Received int
	Required int
}

func (e *InsufficientSignersError) Error() string {
	return fmt.Sprintf("extract: feed %s has %d unique signers, need %d", e.Feed.Symbol(), e.Received, e.Required)
}

// Config carries the externally supplied policies. Signers is required;
// ValidateTimestamp defaults to the 1min-ahead/3min-behind window and
// Aggregate to the median.
type Config struct {
	Signers           SignerPolicy
	ValidateTimestamp TimestampPolicy
	Aggregate         aggregate.Fn
}

type Extractor struct {
	signers    SignerPolicy
	validateTs TimestampPolicy
	reduce     aggregate.Fn
}

func New(cfg Config) (*Extractor, error) {
	if cfg.Signers == nil {
		return nil, errors.New("extract: signer policy required")
	}
	if cfg.ValidateTimestamp == nil {
		cfg.ValidateTimestamp = DefaultTimestampPolicy
	}
	if cfg.Aggregate == nil {
		cfg.Aggregate = aggregate.Median
	}
	return &Extractor{
		signers:    cfg.Signers,
		validateTs: cfg.ValidateTimestamp,
		reduce:     cfg.Aggregate,
	}, nil
}

// Threshold returns the minimum distinct signers each feed must reach.
func (e *Extractor) Threshold() int { return e.signers.UniqueSignersThreshold() }

// Extract runs the pipeline against the wall clock. Feeds must be unique;
// use ExtractAny when the request list may repeat.
func (e *Extractor) Extract(data []byte, feeds []feedid.FeedID) ([]*big.Int, int64, error) {
	return e.ExtractAt(data, feeds, time.Now())
}

// ExtractAt is Extract with an explicit clock reading. Returns one value per
// requested feed, in request order, plus the shared payload timestamp in
// milliseconds. Any violation aborts the whole call; there is no partial
// result.
func (e *Extractor) ExtractAt(data []byte, feeds []feedid.FeedID, now time.Time) ([]*big.Int, int64, error) {
	cur, err := payload.LocateTrailer(data)
	if err != nil {
		return nil, 0, err
	}
	count, cur, err := payload.ReadPackageCount(cur)
	if err != nil {
		return nil, 0, err
	}

	threshold := e.signers.UniqueSignersThreshold()
	accs := make([]*aggregate.Accumulator, len(feeds))
	for i := range accs {
		accs[i] = aggregate.NewAccumulator(threshold)
	}

	var ts int64
	for i := 0; i < count; i++ {
		var pkg payload.Package
		pkg, cur, err = payload.DecodePackage(cur)
		if err != nil {
			return nil, 0, err
		}

		addr, err := sigverify.RecoverSigner(pkg.SignedHash[:], pkg.Signature[:])
		if err != nil {
			return nil, 0, err
		}
		idx, err := e.signers.AuthorisedSignerIndex(addr)
		if err != nil {
			return nil, 0, err
		}
		if idx < 0 || idx > aggregate.MaxSignerIndex {
			return nil, 0, fmt.Errorf("extract: signer index %d out of range", idx)
		}

		if i == 0 {
			ts = pkg.TimestampMs
		} else if pkg.TimestampMs != ts {
			return nil, 0, fmt.Errorf("%w: %d vs %d", ErrTimestampsMustBeEqual, pkg.TimestampMs, ts)
		}

		for _, pt := range pkg.Points {
			// Requested feeds are unique; first match is the only match.
			for j := range feeds {
				if pt.Feed == feeds[j] {
					accs[j].Add(idx, pt.Value)
					break
				}
			}
		}
	}

	if ts == 0 {
		return nil, 0, payload.ErrZeroTimestamp
	}
	if err := e.validateTs(ts, now); err != nil {
		return nil, 0, err
	}

	values := make([]*big.Int, len(feeds))
	for j := range feeds {
		if got := accs[j].DistinctSigners(); got < threshold {
			return nil, 0, &InsufficientSignersError{Feed: feeds[j], Received: got, Required: threshold}
		}
		v, err := e.reduce(accs[j].Values())
		if err != nil {
			return nil, 0, err
		}
		values[j] = v
	}
	return values, ts, nil
}

// ExtractOne resolves a single feed.
func (e *Extractor) ExtractOne(data []byte, feed feedid.FeedID) (*big.Int, int64, error) {
	vals, ts, err := e.ExtractAt(data, []feedid.FeedID{feed}, time.Now())
	if err != nil {
		return nil, 0, err
	}
	return vals[0], ts, nil
}

// ExtractAny tolerates repeated feeds in the request: the pipeline runs once
// over the distinct feeds (first-occurrence order) and results are re-expanded
// to the original positions through an index map.
func (e *Extractor) ExtractAny(data []byte, feeds []feedid.FeedID, now time.Time) ([]*big.Int, int64, error) {
	uniq := make([]feedid.FeedID, 0, len(feeds))
	pos := make(map[feedid.FeedID]int, len(feeds))
	for _, f := range feeds {
		if _, ok := pos[f]; !ok {
			pos[f] = len(uniq)
			uniq = append(uniq, f)
		}
	}

	vals, ts, err := e.ExtractAt(data, uniq, now)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*big.Int, len(feeds))
	for i, f := range feeds {
		out[i] = vals[pos[f]]
	}
	return out, ts, nil
}
