package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/writer"
	"github.com/chenzhangda16/web3-feedpipe/pkg/obs"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		brokers = flag.String("brokers", "127.0.0.1:9092", "kafka brokers, comma-separated")
		topic   = flag.String("topic", "oracle.values", "topic with aggregated values")
		group   = flag.String("group", "feedpipe-writer", "consumer group id")
	)
	flag.Parse()

	obs.Init("writer")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	pg, err := writer.NewPGWriterFromEnv()
	if err != nil {
		log.Fatal(err)
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal(err)
	}

	w, err := writer.New(writer.Config{
		Brokers: *brokers,
		Group:   *group,
		Topic:   *topic,
	}, pg)
	if err != nil {
		log.Fatal(err)
	}
	defer w.Close()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
