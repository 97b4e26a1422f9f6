package mocknode

import (
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chenzhangda16/web3-feedpipe/pkg/extract"
	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
	"github.com/chenzhangda16/web3-feedpipe/pkg/payload"
	"github.com/chenzhangda16/web3-feedpipe/pkg/rng"
	"github.com/chenzhangda16/web3-feedpipe/pkg/sigverify"
)

func mulBps(v *big.Int, bps int64) *big.Int {
	out := new(big.Int).Mul(v, big.NewInt(bps))
	return out.Div(out, big.NewInt(10_000))
}

func TestKeyringDeterministic(t *testing.T) {
	a, err := NewKeyring(3, rng.New(rng.Deterministic, 7))
	require.NoError(t, err)
	b, err := NewKeyring(3, rng.New(rng.Deterministic, 7))
	require.NoError(t, err)
	require.Equal(t, a.Addresses(), b.Addresses())

	c, err := NewKeyring(3, rng.New(rng.Deterministic, 8))
	require.NoError(t, err)
	require.NotEqual(t, a.Addresses(), c.Addresses())

	_, err = NewKeyring(0, rng.New(rng.Deterministic, 1))
	require.Error(t, err)
}

func TestKeyringSignRecover(t *testing.T) {
	kr, err := NewKeyring(2, rng.New(rng.Deterministic, 42))
	require.NoError(t, err)

	hash := make([]byte, 32)
	hash[0] = 0xab
	for i := 0; i < kr.Len(); i++ {
		sig, err := kr.SignFn(i)(hash)
		require.NoError(t, err)
		addr, err := sigverify.RecoverSigner(hash, sig)
		require.NoError(t, err)
		require.Equal(t, kr.Addresses()[i], addr)
	}
}

func TestFeedGenWalk(t *testing.T) {
	rf := rng.New(rng.Deterministic, 1)
	gen, err := NewFeedGen([]string{"ETH", "BTC"}, rf)
	require.NoError(t, err)
	require.Len(t, gen.Feeds(), 2)

	prev := gen.Next()
	for step := 0; step < 50; step++ {
		cur := gen.Next()
		for i := range cur {
			require.Positive(t, cur[i].Sign())
			// Bounded walk: one step moves at most 0.5%.
			hi := mulBps(prev[i], 10_050)
			lo := mulBps(prev[i], 9_950)
			require.LessOrEqual(t, cur[i].Cmp(hi), 0)
			require.GreaterOrEqual(t, cur[i].Cmp(lo), 0)
		}
		prev = cur
	}

	_, err = NewFeedGen(nil, rf)
	require.Error(t, err)
}

func TestPublishedPayloadExtractable(t *testing.T) {
	rf := rng.New(rng.Deterministic, 99)
	kr, err := NewKeyring(3, rf)
	require.NoError(t, err)
	gen, err := NewFeedGen([]string{"ETH", "BTC", "AVAX"}, rf)
	require.NoError(t, err)

	const ts = int64(1700000000000)
	values := gen.Next()
	points := make([]payload.DataPoint, 0, 3)
	for i, f := range gen.Feeds() {
		points = append(points, payload.DataPoint{Feed: f, Value: values[i]})
	}
	b := payload.NewBuilder()
	for i := 0; i < kr.Len(); i++ {
		require.NoError(t, b.AddPackage(points, ts, payload.MaxValueWidth, kr.SignFn(i)))
	}
	raw, err := b.Build(nil)
	require.NoError(t, err)

	pol, err := extract.NewStaticSignerPolicy(kr.Addresses(), 3)
	require.NoError(t, err)
	ex, err := extract.New(extract.Config{
		Signers:           pol,
		ValidateTimestamp: func(int64, time.Time) error { return nil },
	})
	require.NoError(t, err)

	eth, err := feedid.FromSymbol("ETH")
	require.NoError(t, err)
	vals, gotTs, err := ex.Extract(raw, []feedid.FeedID{eth})
	require.NoError(t, err)
	require.Equal(t, ts, gotTs)
	require.Zero(t, values[0].Cmp(vals[0]))
}
