// Builds one signed payload with throwaway keys and produces it to the
// payload topic, for exercising processor and writer without a mocknode.
package main

import (
	"encoding/hex"
	"encoding/json"
	"flag"
	"log"
	"math/big"
	"strconv"
	"time"

	"github.com/IBM/sarama"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chenzhangda16/web3-feedpipe/pkg/feedid"
	"github.com/chenzhangda16/web3-feedpipe/pkg/payload"
)

// fixed dev keys; matching addresses print on start so the processor
// -signers flag can be filled in
var devKeys = []string{
	"4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318",
	"6cbed15c793ce57650b9877cf6fa156fbef513c4e6134f022a85b1ffdd59b2a1",
	"8a8f6ab26c1ce7ac7d11e0f6bcce6c1d0a9ae9e9cba1e7b9bdd2a0e9bf62e1d3",
}

func main() {
	var (
		brokers = flag.String("brokers", "localhost:9092", "kafka brokers")
		topic   = flag.String("topic", "oracle.payloads", "payload topic")
		ethRaw  = flag.Int64("eth", 420000000000, "ETH value (8 decimals)")
		btcRaw  = flag.Int64("btc", 9100000000000, "BTC value (8 decimals)")
	)
	flag.Parse()

	ts := time.Now().UnixMilli()
	eth, _ := feedid.FromSymbol("ETH")
	btc, _ := feedid.FromSymbol("BTC")

	b := payload.NewBuilder()
	for _, hexKey := range devKeys {
		key, err := crypto.HexToECDSA(hexKey)
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("signer: %s", crypto.PubkeyToAddress(key.PublicKey).Hex())

		err = b.AddPackage([]payload.DataPoint{
			{Feed: eth, Value: big.NewInt(*ethRaw)},
			{Feed: btc, Value: big.NewInt(*btcRaw)},
		}, ts, payload.MaxValueWidth, func(hash []byte) ([]byte, error) {
			sig, err := crypto.Sign(hash, key)
			if err != nil {
				return nil, err
			}
			sig[64] += 27
			return sig, nil
		})
		if err != nil {
			log.Fatal(err)
		}
	}

	raw, err := b.Build(nil)
	if err != nil {
		log.Fatal(err)
	}

	msg, err := json.Marshal(map[string]any{
		"timestamp_ms": ts,
		"payload":      "0x" + hex.EncodeToString(raw),
	})
	if err != nil {
		log.Fatal(err)
	}

	cfg := sarama.NewConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.RequiredAcks = sarama.WaitForAll

	producer, err := sarama.NewSyncProducer([]string{*brokers}, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer producer.Close()

	partition, offset, err := producer.SendMessage(&sarama.ProducerMessage{
		Topic: *topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(ts, 10)),
		Value: sarama.ByteEncoder(msg),
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("sent ts=%d partition=%d offset=%d bytes=%d", ts, partition, offset, len(raw))
}
