package mocknode

import (
	"fmt"
	"math/big"
	"math/rand"

	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
	"github.com/chenzhangda16/web3-feedpipe/pkg/rng"
)

// FeedGen produces a plausible value series per feed: a bounded random walk
// around a per-feed base price, 8 decimals fixed point.
type FeedGen struct {
	feeds []feedid.FeedID
	last  []*big.Int
	r     *rand.Rand
}

const valueDecimals = 8

func NewFeedGen(symbols []string, rf *rng.Factory) (*FeedGen, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("mocknode: no feeds configured")
	}
	g := &FeedGen{r: rf.R(rng.ValueWalk)}
	for _, sym := range symbols {
		f, err := feedid.FromSymbol(sym)
		if err != nil {
			return nil, fmt.Errorf("mocknode: feed %q: %w", sym, err)
		}
		g.feeds = append(g.feeds, f)
		// Base price in [10, 50010) units, scaled to 8 decimals.
		base := int64(10+g.r.Intn(50_000)) * pow10(valueDecimals)
		g.last = append(g.last, big.NewInt(base))
	}
	return g, nil
}

func (g *FeedGen) Feeds() []feedid.FeedID { return g.feeds }

// Next advances every feed by up to ±0.5% and returns the new values. The
// returned slice is freshly allocated; g.last keeps its own copies.
func (g *FeedGen) Next() []*big.Int {
	out := make([]*big.Int, len(g.feeds))
	for i, v := range g.last {
		// delta in [-50, +50] basis points of the current value
		bps := int64(g.r.Intn(101)) - 50
		delta := new(big.Int).Mul(v, big.NewInt(bps))
		delta.Div(delta, big.NewInt(10_000))

		next := new(big.Int).Add(v, delta)
		if next.Sign() <= 0 {
			next = big.NewInt(pow10(valueDecimals))
		}
		g.last[i] = next
		out[i] = new(big.Int).Set(next)
	}
	return out
}

func pow10(n int) int64 {
	v := int64(1)
	for i := 0; i < n; i++ {
		v *= 10
	}
	return v
}
