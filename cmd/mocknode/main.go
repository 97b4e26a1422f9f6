package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chenzhangda16/web3-feedpipe/internal/mocknode"
	"github.com/chenzhangda16/web3-feedpipe/internal/mocknode/rpc"
	"github.com/chenzhangda16/web3-feedpipe/internal/mocknode/store"
	"github.com/chenzhangda16/web3-feedpipe/pkg/obs"
	"github.com/chenzhangda16/web3-feedpipe/pkg/rng"
)

func main() {
	var (
		dbPath  = flag.String("db", "./data/mocknode.db", "rocksdb path")
		rpcAddr = flag.String("rpc", ":18090", "rpc listen addr")
		feeds   = flag.String("feeds", "ETH,BTC,AVAX", "feed symbols, comma-separated")
		signers = flag.Int("signers", 5, "number of signer keys")
		det     = flag.Bool("det", false, "deterministic keys and price walk")
		seed    = flag.Int64("seed", 1, "seed for deterministic generation")
		tick    = flag.Duration("tick", 1*time.Second, "payload interval")
	)
	flag.Parse()

	obs.Init("mocknode")

	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	rf := rng.New(map[bool]rng.Mode{true: rng.Deterministic, false: rng.Real}[*det], *seed)

	kr, err := mocknode.NewKeyring(*signers, rf)
	if err != nil {
		log.Fatal(err)
	}
	gen, err := mocknode.NewFeedGen(splitCSV(*feeds), rf)
	if err != nil {
		log.Fatal(err)
	}

	pub := mocknode.NewPublisher(st, kr, gen, *tick)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	srv := &http.Server{
		Addr:    *rpcAddr,
		Handler: rpc.NewServer(st, kr.Addresses()).Handler(),
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pub.Run(ctx)
	})
	g.Go(func() error {
		<-ctx.Done()
		return srv.Shutdown(context.Background())
	})
	g.Go(func() error {
		log.Printf("mocknode rpc listening on %s, db=%s feeds=%s signers=%d", *rpcAddr, *dbPath, *feeds, *signers)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Fatal(err)
	}
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
