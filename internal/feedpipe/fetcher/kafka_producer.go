package fetcher

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/IBM/sarama"
)

// PayloadMsg is the wire record placed on the payload topic. The payload
// itself stays opaque binary, hex-wrapped only for the JSON envelope.
type PayloadMsg struct {
	TimestampMs int64  `json:"timestamp_ms"`
	Payload     string `json:"payload"` // 0x-hex
}

type Producer struct {
	topic string
	sp    sarama.SyncProducer
}

func NewProducer(brokersCSV string, topic string) (*Producer, error) {
	if topic == "" {
		return nil, errors.New("topic empty")
	}
	brokers := splitCSV(brokersCSV)
	if len(brokers) == 0 {
		return nil, errors.New("no brokers")
	}

	cfg := sarama.NewConfig()

	// Reliability-oriented defaults
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Retry.Max = 10
	cfg.Producer.Retry.Backoff = 200 * time.Millisecond

	// SyncProducer must have Return.Successes=true
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true

	cfg.Producer.Idempotent = true
	cfg.Version = sarama.V2_1_0_0

	sp, err := sarama.NewSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}

	return &Producer{
		topic: topic,
		sp:    sp,
	}, nil
}

func (p *Producer) Close() error {
	if p.sp != nil {
		return p.sp.Close()
	}
	return nil
}

// ProducePayload sends one raw payload to Kafka and waits for broker ACK.
// It is safe to checkpoint after this returns nil.
func (p *Producer) ProducePayload(ctx context.Context, tsMillis int64, raw []byte) error {
	b, err := json.Marshal(PayloadMsg{
		TimestampMs: tsMillis,
		Payload:     "0x" + hex.EncodeToString(raw),
	})
	if err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(tsMillis, 10)),
		Value: sarama.ByteEncoder(b),
	}

	// sarama SyncProducer doesn't accept context directly; check ctx before/after.
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	_, _, err = p.sp.SendMessage(msg)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	return nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, x := range parts {
		x = strings.TrimSpace(x)
		if x != "" {
			out = append(out, x)
		}
	}
	return out
}
