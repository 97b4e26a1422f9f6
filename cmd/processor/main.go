package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/common"

	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/out"
	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/processor"
	"github.com/chenzhangda16/web3-feedpipe/internal/feedpipe/store"
	"github.com/chenzhangda16/web3-feedpipe/pkg/extract"
	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
	"github.com/chenzhangda16/web3-feedpipe/pkg/obs"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	var (
		brokers  = flag.String("brokers", "127.0.0.1:9092", "kafka brokers, comma-separated")
		inTopic  = flag.String("in-topic", "oracle.payloads", "topic with raw payloads")
		outTopic = flag.String("out-topic", "oracle.values", "topic for aggregated values")
		group    = flag.String("group", "feedpipe-processor", "consumer group id")

		feeds     = flag.String("feeds", "ETH,BTC,AVAX", "feed symbols or 0x ids, comma-separated")
		signers   = flag.String("signers", "", "authorised signer addresses, comma-separated (required)")
		threshold = flag.Int("threshold", 2, "min distinct signers per feed")

		stateDB  = flag.String("statedb", "./data/feedstate.db", "rocksdb path for per-feed high-water marks")
		ckptPath = flag.String("ckpt", "./data/processor.ckpt", "checkpoint file path")
	)
	flag.Parse()

	obs.Init("processor")

	signerAddrs, err := parseSigners(*signers)
	if err != nil {
		log.Fatal(err)
	}
	policy, err := extract.NewStaticSignerPolicy(signerAddrs, *threshold)
	if err != nil {
		log.Fatal(err)
	}
	ex, err := extract.New(extract.Config{Signers: policy})
	if err != nil {
		log.Fatal(err)
	}

	feedIDs, err := parseFeeds(*feeds)
	if err != nil {
		log.Fatal(err)
	}

	state, err := store.OpenFeedState(*stateDB)
	if err != nil {
		log.Fatal(err)
	}
	defer state.Close()

	sink, err := out.NewKafkaSink(splitCSV(*brokers), *outTopic, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer sink.Close()

	p, err := processor.New(processor.Config{
		Brokers:        *brokers,
		Group:          *group,
		Topic:          *inTopic,
		Feeds:          feedIDs,
		CheckpointPath: *ckptPath,
	}, ex, state, sink)
	if err != nil {
		log.Fatal(err)
	}
	defer p.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := p.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
}

func parseSigners(csv string) ([]common.Address, error) {
	var out []common.Address
	for _, s := range splitCSV(csv) {
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("invalid signer address: %s", s)
		}
		out = append(out, common.HexToAddress(s))
	}
	return out, nil
}

func parseFeeds(csv string) ([]feedid.FeedID, error) {
	var out []feedid.FeedID
	for _, s := range splitCSV(csv) {
		f, err := feedid.FromString(s)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
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
