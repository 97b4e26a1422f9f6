package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/fetcher"
	"github.com/chenzhangda16/web3-feedpipe/pkg/obs"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		rpcBase = flag.String("rpc", "http://127.0.0.1:18090", "mocknode rpc base url")

		brokers = flag.String("brokers", "127.0.0.1:9092", "kafka brokers, comma-separated")
		topic   = flag.String("topic", "oracle.payloads", "kafka topic to produce payloads")

		pollEvery = flag.Duration("poll", 2*time.Second, "how often to poll the node head")

		ckptPath = flag.String("ckpt", "./data/fetcher.ckpt", "checkpoint file path")
	)
	flag.Parse()

	obs.Init("fetcher")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg := fetcher.Config{
		RPCBaseURL: *rpcBase,
		Brokers:    *brokers,
		Topic:      *topic,

		PollEvery: *pollEvery,

		CheckpointPath: *ckptPath,
	}

	f, err := fetcher.New(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer f.Close()

	if err := f.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}
