package processor

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/fetcher"
	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/out"
	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/store"
	"github.com/chenzhangda16/web3-feedpipe/pkg/extract"
	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
)

type Config struct {
	Brokers string
	Group   string
	Topic   string

	Feeds []feedid.FeedID

	CheckpointPath string
}

// Processor consumes raw payloads, extracts aggregated values for the
// configured feeds, and emits one FeedValue per feed that passes the
// per-feed high-water mark.
type Processor struct {
	cfg Config

	cons *Consumer
	ckpt Checkpoint

	ex    *extract.Extractor
	state *store.FeedState
	sink  out.Sink

	// in-memory progress (per partition)
	offsets map[int32]int64
	lastTs  int64
	handled int64
}

func New(cfg Config, ex *extract.Extractor, state *store.FeedState, sink out.Sink) (*Processor, error) {
	if cfg.Topic == "" || cfg.Group == "" || cfg.Brokers == "" {
		return nil, errors.New("brokers/group/topic required")
	}
	if len(cfg.Feeds) == 0 {
		return nil, errors.New("no feeds configured")
	}
	if ex == nil || state == nil || sink == nil {
		return nil, errors.New("extractor/state/sink required")
	}
	if cfg.CheckpointPath == "" {
		cfg.CheckpointPath = "./data/processor.ckpt"
	}

	cons, err := NewConsumer(cfg.Brokers, cfg.Group, cfg.Topic)
	if err != nil {
		return nil, err
	}
	ck, err := NewFileCheckpoint(cfg.CheckpointPath)
	if err != nil {
		_ = cons.Close()
		return nil, err
	}

	p := &Processor{
		cfg:     cfg,
		cons:    cons,
		ckpt:    ck,
		ex:      ex,
		state:   state,
		sink:    sink,
		offsets: map[int32]int64{},
	}
	if v, ok, err := p.ckpt.Load(); err != nil {
		_ = cons.Close()
		return nil, err
	} else if ok {
		p.offsets = v.Offsets
		p.lastTs = v.LastTsMillis
		log.Printf("[processor] loaded ckpt: last_ts=%d partitions=%d", p.lastTs, len(p.offsets))
	}
	return p, nil
}

func (p *Processor) Close() error { return p.cons.Close() }

func (p *Processor) Run(ctx context.Context) error {
	h := &handler{onPayload: p.handlePayload}

	// consume loop (sarama requires re-run on rebalance)
	for {
		if err := p.cons.group.Consume(ctx, []string{p.cfg.Topic}, h); err != nil {
			log.Printf("[processor] consume err: %v", err)
			time.Sleep(300 * time.Millisecond)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// handlePayload returns nil for payloads that should be skipped; a non-nil
// error is reserved for emit failures, which must not advance the offset.
func (p *Processor) handlePayload(ctx context.Context, part int32, offset int64, value []byte) error {
	var msg fetcher.PayloadMsg
	if err := json.Unmarshal(value, &msg); err != nil {
		log.Printf("[processor] bad message: p=%d off=%d err=%v", part, offset, err)
		return p.advance(part, offset, 0)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(msg.Payload, "0x"))
	if err != nil {
		log.Printf("[processor] bad payload hex: p=%d off=%d err=%v", part, offset, err)
		return p.advance(part, offset, 0)
	}

	values, tsMillis, err := p.ex.Extract(raw, p.cfg.Feeds)
	if err != nil {
		var insuff *extract.InsufficientSignersError
		if errors.As(err, &insuff) {
			log.Printf("[processor] rejected payload: ts=%d feed=%s got=%d need=%d",
				msg.TimestampMs, insuff.Feed.Symbol(), insuff.Received, insuff.Required)
		} else {
			log.Printf("[processor] rejected payload: ts=%d err=%v", msg.TimestampMs, err)
		}
		return p.advance(part, offset, 0)
	}

	for i, feed := range p.cfg.Feeds {
		fresh, err := p.state.AdvanceIfNewer(feed, tsMillis)
		if err != nil {
			return err
		}
		if !fresh {
			continue
		}
		fv := out.FeedValue{
			FeedID:      feed.Hex(),
			Symbol:      feed.Symbol(),
			Value:       values[i].String(),
			TimestampMs: tsMillis,
			Signers:     p.ex.Threshold(),
		}
		if err := p.sink.Emit(ctx, out.TypeFeedValue, fv); err != nil {
			return err
		}
	}

	return p.advance(part, offset, tsMillis)
}

func (p *Processor) advance(part int32, offset, tsMillis int64) error {
	p.offsets[part] = offset + 1 // next offset
	if tsMillis > p.lastTs {
		p.lastTs = tsMillis
	}
	p.handled++

	if p.handled%100 == 0 {
		if err := p.ckpt.Save(ProcCkpt{Offsets: p.offsets, LastTsMillis: p.lastTs}); err != nil {
			log.Printf("[processor] checkpoint save err: %v", err)
		}
	}
	return nil
}
