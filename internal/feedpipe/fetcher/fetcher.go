package fetcher

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/retry"
)

type Config struct {
	RPCBaseURL string

	Brokers string // comma-separated
	Topic   string

	PollEvery time.Duration

	CheckpointPath string
}

type Fetcher struct {
	cfg Config

	rpc   *RPCClient
	prod  *Producer
	ckpt  Checkpoint
	close func() error
}

func New(cfg Config) (*Fetcher, error) {
	if cfg.RPCBaseURL == "" {
		return nil, errors.New("rpc base url is empty")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is empty")
	}
	if cfg.PollEvery <= 0 {
		cfg.PollEvery = 2 * time.Second
	}
	if cfg.CheckpointPath == "" {
		cfg.CheckpointPath = "./data/fetcher.ckpt"
	}

	rpc := NewRPCClient(cfg.RPCBaseURL)

	ckpt, err := NewFileCheckpoint(cfg.CheckpointPath)
	if err != nil {
		return nil, err
	}

	prod, err := NewProducer(cfg.Brokers, cfg.Topic)
	if err != nil {
		return nil, err
	}

	f := &Fetcher{
		cfg:  cfg,
		rpc:  rpc,
		prod: prod,
		ckpt: ckpt,
	}
	f.close = func() error {
		_ = prod.Close()
		return nil
	}
	return f, nil
}

func (f *Fetcher) Close() error { return f.close() }

// Run polls the node head and forwards every new payload to Kafka, in
// timestamp order. A payload is checkpointed only after the broker acks it,
// so a restart re-fetches at most the in-flight payload and the timestamp
// key lets downstream drop the duplicate.
func (f *Fetcher) Run(ctx context.Context) error {
	lastTs := f.decideStartTs()

	log.Printf("[fetcher] start: last_ts=%d topic=%s rpc=%s brokers=%s",
		lastTs, f.cfg.Topic, f.cfg.RPCBaseURL, f.cfg.Brokers)

	ticker := time.NewTicker(f.cfg.PollEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		head, err := f.rpc.Head(ctx)
		if err != nil {
			log.Printf("[fetcher] head poll err: %v", err)
			continue
		}
		if head.Empty || head.HeadTs <= lastTs {
			continue
		}

		raw, ts, err := f.rpc.LatestPayload(ctx)
		if err != nil {
			log.Printf("[fetcher] payload fetch err: %v", err)
			continue
		}
		if ts <= lastTs {
			// head moved but latest raced back; next tick catches up
			continue
		}

		err = retry.Do(ctx, retry.Policy{
			MaxAttempts: 5,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    2 * time.Second,
			OnRetry: func(attempt int, wait time.Duration, err error) {
				log.Printf("[fetcher] produce retry: attempt=%d ts=%d wait=%s err=%v", attempt, ts, wait, err)
			},
		}, func(ctx context.Context) error {
			return f.prod.ProducePayload(ctx, ts, raw)
		})
		if err != nil {
			log.Printf("[fetcher] produce failed: ts=%d err=%v", ts, err)
			continue
		}

		if err := f.ckpt.Save(Ckpt{LastTsMillis: ts}); err != nil {
			log.Printf("[fetcher] checkpoint save err: %v", err)
		}
		lastTs = ts
	}
}

func (f *Fetcher) decideStartTs() int64 {
	ck, ok, err := f.ckpt.Load()
	if err != nil {
		log.Printf("[fetcher] checkpoint load err -> cold start: %v", err)
		return 0
	}
	if !ok || ck.LastTsMillis <= 0 {
		log.Printf("[fetcher] no checkpoint -> cold start")
		return 0
	}
	log.Printf("[fetcher] resume from checkpoint: last_ts=%d", ck.LastTsMillis)
	return ck.LastTsMillis
}
