package aggregate

import (
	"errors"
	"math/big"
)

// ErrEmptyInput means a reduction was asked for zero values; a well-formed
// call never does that.
var ErrEmptyInput = errors.New("aggregate: empty input")

// Fn reduces one feed's collected values to a single number. Overridable;
// Median is the default.
type Fn func(values []*big.Int) (*big.Int, error)

// Median returns the middle element of the sorted values (odd count) or the
// truncating mean of the two central elements (even count). The input slice
// is not modified.
func Median(values []*big.Int) (*big.Int, error) {
	switch len(values) {
	case 0:
		return nil, ErrEmptyInput
	case 1:
		return new(big.Int).Set(values[0]), nil
	case 2:
		// No point sorting two elements.
		return mean(values[0], values[1]), nil
	}

	// Insertion sort: lists are threshold-sized (single digits), a quadratic
	// sort beats the generic one here.
	sorted := make([]*big.Int, len(values))
	copy(sorted, values)
	for i := 1; i < len(sorted); i++ {
		v := sorted[i]
		j := i - 1
		for j >= 0 && sorted[j].Cmp(v) > 0 {
			sorted[j+1] = sorted[j]
			j--
		}
		sorted[j+1] = v
	}

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return new(big.Int).Set(sorted[mid]), nil
	}
	return mean(sorted[mid-1], sorted[mid]), nil
}

func mean(a, b *big.Int) *big.Int {
	sum := new(big.Int).Add(a, b)
	return sum.Rsh(sum, 1)
}
