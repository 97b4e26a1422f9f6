package aggregate

import "math/big"

// Accumulator collects one requested feed's values across packages within a
// single extraction call. Capacity is the signer threshold; a signer counts
// at most once (bitmap), and values past the threshold are dropped.
type Accumulator struct {
	values    []*big.Int
	threshold int
	seen      SignerBitmap
}

func NewAccumulator(threshold int) *Accumulator {
	if threshold < 0 {
		threshold = 0
	}
	return &Accumulator{
		values:    make([]*big.Int, 0, threshold),
		threshold: threshold,
	}
}

// Add records v for signerIndex. Returns false without effect if the signer
// already contributed to this feed or the accumulator is full.
func (a *Accumulator) Add(signerIndex int, v *big.Int) bool {
	if a.seen.Contains(signerIndex) || len(a.values) >= a.threshold {
		return false
	}
	a.values = append(a.values, v)
	a.seen.Insert(signerIndex)
	return true
}

// DistinctSigners is the number of distinct signers recorded so far.
func (a *Accumulator) DistinctSigners() int { return len(a.values) }

// Values returns the recorded values in arrival order.
func (a *Accumulator) Values() []*big.Int { return a.values }
