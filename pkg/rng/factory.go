package rng

import (
	"hash/fnv"
	"math/rand"
	"sync"
	"time"
)

type Mode int

const (
	Deterministic Mode = iota
	Real
)

// Stream names used across the mock node. Keeping them here makes runs
// reproducible: the same base seed + name always yields the same stream.
const (
	SignerKeys = "signer_keys"
	ValueWalk  = "value_walk"
	TickJitter = "tick_jitter"
)

// Factory hands out named random streams derived from one base seed.
type Factory struct {
	baseSeed int64
	mode     Mode

	mu      sync.Mutex
	streams map[string]*rand.Rand
}

func New(mode Mode, seed int64) *Factory {
	if mode == Real {
		// Real mode seeds from the clock once at construction, not per draw.
		seed = time.Now().UnixNano()
	}
	return &Factory{
		baseSeed: seed,
		mode:     mode,
		streams:  make(map[string]*rand.Rand),
	}
}

// R returns the named stream, creating and caching it on first use. Hot
// paths should grab the stream once and keep it in a field.
func (f *Factory) R(name string) *rand.Rand {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r, ok := f.streams[name]; ok {
		return r
	}
	s := deriveSeed(f.baseSeed, name)
	r := rand.New(rand.NewSource(s))
	f.streams[name] = r
	return r
}

func deriveSeed(base int64, name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64()) ^ base
}
