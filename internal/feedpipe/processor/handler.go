package processor

import (
	"context"
	"log"

	"github.com/IBM/sarama"
)

// handler adapts the per-message callback to sarama's consumer group
// contract. Marking happens only after the callback returns nil, so emit
// failures replay the message.
type handler struct {
	onPayload func(ctx context.Context, part int32, offset int64, value []byte) error
}

var _ sarama.ConsumerGroupHandler = (*handler)(nil)

func (h *handler) Setup(sess sarama.ConsumerGroupSession) error {
	log.Printf("[processor] group setup: claims=%v", sess.Claims())
	return nil
}

func (h *handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	ctx := sess.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.onPayload(ctx, msg.Partition, msg.Offset, msg.Value); err != nil {
				return err
			}
			sess.MarkMessage(msg, "")
		}
	}
}
