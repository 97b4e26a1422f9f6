package mocknode

import (
	"context"
	"log"
	"time"

	"github.com/chenzhangda16/web3-feedpipe/internal/mocknode/store"
	"github.com/chenzhangda16/web3-feedpipe/pkg/payload"
)

// Publisher ticks fresh signed payloads into the store: one package per
// signer, all covering every feed with the same millisecond timestamp.
type Publisher struct {
	store   *store.RocksStore
	keyring *Keyring
	gen     *FeedGen
	tick    time.Duration

	lastTs int64
}

func NewPublisher(st *store.RocksStore, kr *Keyring, gen *FeedGen, tick time.Duration) *Publisher {
	if tick <= 0 {
		tick = time.Second
	}
	return &Publisher{store: st, keyring: kr, gen: gen, tick: tick}
}

func (p *Publisher) Run(ctx context.Context) error {
	if head, ok, err := p.store.Head(); err != nil {
		return err
	} else if ok {
		p.lastTs = head
		log.Printf("[publisher] resume: head_ts=%d", head)
	}

	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case now := <-ticker.C:
			ts := now.UnixMilli()
			if ts <= p.lastTs {
				ts = p.lastTs + 1 // force monotonic timestamps
			}
			if err := p.publishOne(ts); err != nil {
				return err
			}
			p.lastTs = ts
		}
	}
}

func (p *Publisher) publishOne(tsMillis int64) error {
	values := p.gen.Next()
	feeds := p.gen.Feeds()

	points := make([]payload.DataPoint, 0, len(feeds))
	for i, f := range feeds {
		points = append(points, payload.DataPoint{Feed: f, Value: values[i]})
	}

	b := payload.NewBuilder()
	for i := 0; i < p.keyring.Len(); i++ {
		if err := b.AddPackage(points, tsMillis, payload.MaxValueWidth, p.keyring.SignFn(i)); err != nil {
			return err
		}
	}
	raw, err := b.Build(nil)
	if err != nil {
		return err
	}
	if err := p.store.AppendPayload(tsMillis, raw); err != nil {
		return err
	}

	if tsMillis/1000%60 == 0 {
		log.Printf("[publisher] ts=%d feeds=%d signers=%d bytes=%d",
			tsMillis, len(feeds), p.keyring.Len(), len(raw))
	}
	return nil
}
