// Tails the values topic and prints each feed_value envelope.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/IBM/sarama"
)

type Handler struct{}

func (Handler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (Handler) Cleanup(sarama.ConsumerGroupSession) error { return nil }
func (Handler) ConsumeClaim(
	s sarama.ConsumerGroupSession,
	c sarama.ConsumerGroupClaim,
) error {
	for msg := range c.Messages() {
		log.Printf(
			"key=%s value=%s partition=%d offset=%d",
			string(msg.Key),
			string(msg.Value),
			msg.Partition,
			msg.Offset,
		)
		s.MarkMessage(msg, "")
	}
	return nil
}

func main() {
	var (
		brokers = flag.String("brokers", "localhost:9092", "kafka brokers")
		topic   = flag.String("topic", "oracle.values", "values topic")
		group   = flag.String("group", "feedpipe-test_tools", "consumer group id")
	)
	flag.Parse()

	cfg := sarama.NewConfig()
	cfg.Version = sarama.V2_8_0_0
	cfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	cg, err := sarama.NewConsumerGroup([]string{*brokers}, *group, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer cg.Close()

	for {
		err = cg.Consume(context.Background(), []string{*topic}, Handler{})
		if err != nil {
			log.Fatal(err)
		}
	}
}
