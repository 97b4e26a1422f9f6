package mocknode

import (
	"crypto/ecdsa"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/chenzhangda16/web3-feedpipe/pkg/payload"
	"github.com/chenzhangda16/web3-feedpipe/pkg/rng"
)

// Keyring holds the mock node's signer keys. With a deterministic rng factory
// the keys (and so the authorised addresses) are stable across restarts,
// which is what lets consumers pin the signer set in their flags.
type Keyring struct {
	keys []*ecdsa.PrivateKey
}

func NewKeyring(n int, rf *rng.Factory) (*Keyring, error) {
	if n <= 0 || n > 256 {
		return nil, fmt.Errorf("mocknode: signer count %d out of range", n)
	}
	r := rf.R(rng.SignerKeys)
	keys := make([]*ecdsa.PrivateKey, 0, n)
	for i := 0; i < n; i++ {
		key, err := ecdsa.GenerateKey(crypto.S256(), r)
		if err != nil {
			return nil, fmt.Errorf("mocknode: generate signer key %d: %w", i, err)
		}
		keys = append(keys, key)
	}
	return &Keyring{keys: keys}, nil
}

func (k *Keyring) Len() int { return len(k.keys) }

func (k *Keyring) Addresses() []common.Address {
	out := make([]common.Address, 0, len(k.keys))
	for _, key := range k.keys {
		out = append(out, crypto.PubkeyToAddress(key.PublicKey))
	}
	return out
}

// SignFn returns the package signer for key i, producing r||s||v with v in
// {27, 28} as the payload format expects.
func (k *Keyring) SignFn(i int) payload.SignFn {
	key := k.keys[i]
	return func(hash []byte) ([]byte, error) {
		sig, err := crypto.Sign(hash, key)
		if err != nil {
			return nil, err
		}
		sig[64] += 27
		return sig, nil
	}
}
