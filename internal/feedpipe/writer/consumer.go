package writer

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/out"
)

type Config struct {
	Brokers string
	Group   string
	Topic   string
}

// Writer tails the values topic and persists each feed_value envelope.
type Writer struct {
	cfg   Config
	group sarama.ConsumerGroup
	pg    *PGWriter
}

func New(cfg Config, pg *PGWriter) (*Writer, error) {
	if cfg.Topic == "" || cfg.Group == "" || cfg.Brokers == "" {
		return nil, errors.New("brokers/group/topic required")
	}
	if pg == nil {
		return nil, errors.New("pg writer required")
	}

	scfg := sarama.NewConfig()
	scfg.Version = sarama.V2_1_0_0
	scfg.Consumer.Group.Rebalance.Strategy = sarama.BalanceStrategyRange
	scfg.Consumer.Offsets.Initial = sarama.OffsetOldest
	scfg.Consumer.Return.Errors = true

	cg, err := sarama.NewConsumerGroup(splitCSV(cfg.Brokers), cfg.Group, scfg)
	if err != nil {
		return nil, err
	}
	return &Writer{cfg: cfg, group: cg, pg: pg}, nil
}

func (w *Writer) Close() error { return w.group.Close() }

func (w *Writer) Run(ctx context.Context) error {
	for {
		if err := w.group.Consume(ctx, []string{w.cfg.Topic}, w); err != nil {
			log.Printf("[writer] consume err: %v", err)
			time.Sleep(300 * time.Millisecond)
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

var _ sarama.ConsumerGroupHandler = (*Writer)(nil)

func (w *Writer) Setup(sess sarama.ConsumerGroupSession) error {
	log.Printf("[writer] group setup: claims=%v", sess.Claims())
	return nil
}

func (w *Writer) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (w *Writer) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := w.handle(ctx, msg.Value); err != nil {
				// DB down or similar: return to replay after rebalance
				return err
			}
			sess.MarkMessage(msg, "")
		}
	}
}

func (w *Writer) handle(ctx context.Context, value []byte) error {
	var env out.Envelope
	if err := json.Unmarshal(value, &env); err != nil {
		log.Printf("[writer] bad envelope: %v", err)
		return nil
	}
	if env.Type != out.TypeFeedValue {
		return nil
	}
	var fv out.FeedValue
	if err := json.Unmarshal(env.Data, &fv); err != nil {
		log.Printf("[writer] bad feed_value: %v", err)
		return nil
	}
	return w.pg.UpsertFeedValue(ctx, fv)
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, x := range parts {
		x = strings.TrimSpace(x)
		if x != "" {
			result = append(result, x)
		}
	}
	return result
}
